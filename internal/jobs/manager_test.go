package jobs

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/gcbaptista/go-concordance-engine/internal/errors"
	"github.com/gcbaptista/go-concordance-engine/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func waitForStatus(t *testing.T, m *Manager, jobID string, want model.JobStatus) *model.Job {
	t.Helper()
	var job *model.Job
	require.Eventually(t, func() bool {
		var err error
		job, err = m.GetJob(jobID)
		return err == nil && job.Status == want
	}, time.Second, 5*time.Millisecond, "job %s never reached %s", jobID, want)
	return job
}

func TestJobManager_CreateJob(t *testing.T) {
	manager := NewManager(2, nil)
	defer manager.Stop()

	jobID := manager.CreateJob(model.JobTypeReindex, "test-corpus", map[string]string{
		"operation": "test",
	})

	if jobID == "" {
		t.Error("Expected non-empty job ID")
	}

	job, err := manager.GetJob(jobID)
	if err != nil {
		t.Fatalf("Failed to get created job: %v", err)
	}

	if job.Type != model.JobTypeReindex {
		t.Errorf("Expected job type %s, got %s", model.JobTypeReindex, job.Type)
	}
	if job.Status != model.JobStatusPending {
		t.Errorf("Expected job status %s, got %s", model.JobStatusPending, job.Status)
	}
	if job.CorpusName != "test-corpus" {
		t.Errorf("Expected corpus name 'test-corpus', got %s", job.CorpusName)
	}
}

func TestJobManager_ExecuteJob(t *testing.T) {
	manager := NewManager(2, nil)
	manager.Start()
	defer manager.Stop()

	jobID := manager.CreateJob(model.JobTypeAddTexts, "test-corpus", nil)
	err := manager.ExecuteJob(jobID, func(ctx context.Context, job model.Job) error {
		manager.UpdateJobProgress(job.ID, 50, 100, "Halfway done")
		manager.UpdateJobProgress(job.ID, 100, 100, "Completed")
		return nil
	})
	require.NoError(t, err)

	job := waitForStatus(t, manager, jobID, model.JobStatusCompleted)
	require.NotNil(t, job.Progress)
	assert.Equal(t, 100, job.Progress.Current)
	assert.Equal(t, 100.0, job.Progress.GetProgressPercentage())
	assert.NotNil(t, job.StartedAt)
	assert.NotNil(t, job.CompletedAt)

	err = manager.ExecuteJob(jobID, func(context.Context, model.Job) error { return nil })
	assert.Error(t, err, "finished jobs cannot run again")
}

func TestJobManager_FailedJob(t *testing.T) {
	manager := NewManager(1, nil)
	defer manager.Stop()

	jobID := manager.CreateJob(model.JobTypeDeleteCorpus, "c", nil)
	require.NoError(t, manager.ExecuteJob(jobID, func(context.Context, model.Job) error {
		return fmt.Errorf("disk on fire")
	}))

	job := waitForStatus(t, manager, jobID, model.JobStatusFailed)
	assert.Equal(t, "disk on fire", job.Error)

	metrics := manager.GetMetrics()
	assert.Equal(t, int64(1), metrics.JobsFailed)
	assert.Equal(t, 0.0, metrics.SuccessRate)
}

func TestJobManager_CancelRunningJob(t *testing.T) {
	manager := NewManager(1, nil)
	defer manager.Stop()

	started := make(chan struct{})
	jobID := manager.CreateJob(model.JobTypeReindex, "c", nil)
	require.NoError(t, manager.ExecuteJob(jobID, func(ctx context.Context, _ model.Job) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}))
	<-started

	require.NoError(t, manager.CancelJob(jobID))
	waitForStatus(t, manager, jobID, model.JobStatusCancelled)

	err := manager.CancelJob(jobID)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
	assert.ErrorIs(t, manager.CancelJob("nope"), errors.ErrJobNotFound)
}

func TestJobManager_CancelQueuedJob(t *testing.T) {
	manager := NewManager(1, nil)
	defer manager.Stop()

	release := make(chan struct{})
	blocker := manager.CreateJob(model.JobTypeReindex, "c", nil)
	require.NoError(t, manager.ExecuteJob(blocker, func(context.Context, model.Job) error {
		<-release
		return nil
	}))
	waitForStatus(t, manager, blocker, model.JobStatusRunning)

	ran := false
	queued := manager.CreateJob(model.JobTypeReindex, "c", nil)
	require.NoError(t, manager.ExecuteJob(queued, func(context.Context, model.Job) error {
		ran = true
		return nil
	}))
	require.NoError(t, manager.CancelJob(queued))
	waitForStatus(t, manager, queued, model.JobStatusCancelled)

	close(release)
	waitForStatus(t, manager, blocker, model.JobStatusCompleted)
	assert.False(t, ran)
}

func TestJobManager_StopCancelsRunningJobs(t *testing.T) {
	manager := NewManager(1, nil)

	started := make(chan struct{})
	jobID := manager.CreateJob(model.JobTypeAddTexts, "c", nil)
	require.NoError(t, manager.ExecuteJob(jobID, func(ctx context.Context, _ model.Job) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}))
	<-started
	manager.Stop()

	job, err := manager.GetJob(jobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCancelled, job.Status)

	late := manager.CreateJob(model.JobTypeAddTexts, "c", nil)
	assert.ErrorIs(t, manager.ExecuteJob(late, func(context.Context, model.Job) error { return nil }), ErrShuttingDown)
}

func TestJobManager_ListJobs(t *testing.T) {
	manager := NewManager(1, nil)
	defer manager.Stop()

	first := manager.CreateJob(model.JobTypeAddTexts, "a", nil)
	time.Sleep(time.Millisecond)
	second := manager.CreateJob(model.JobTypeDeleteText, "a", nil)
	manager.CreateJob(model.JobTypeAddTexts, "b", nil)

	jobs := manager.ListJobs("a", nil)
	require.Len(t, jobs, 2)
	assert.Equal(t, second, jobs[0].ID, "newest first")
	assert.Equal(t, first, jobs[1].ID)

	pending := model.JobStatusPending
	assert.Len(t, manager.ListJobs("", &pending), 3)
	assert.Equal(t, int64(3), manager.GetCurrentWorkload())

	_, err := manager.GetJob("missing")
	assert.ErrorIs(t, err, errors.ErrJobNotFound)
}

func TestJobManager_CleanupOldJobs(t *testing.T) {
	manager := NewManager(1, nil)
	defer manager.Stop()

	jobID := manager.CreateJob(model.JobTypeAddTexts, "a", nil)
	require.NoError(t, manager.ExecuteJob(jobID, func(context.Context, model.Job) error { return nil }))
	waitForStatus(t, manager, jobID, model.JobStatusCompleted)
	manager.CreateJob(model.JobTypeAddTexts, "a", nil)

	assert.Zero(t, manager.CleanupOldJobs(time.Hour))
	assert.Equal(t, 1, manager.CleanupOldJobs(-time.Second), "pending jobs are kept")
	assert.Len(t, manager.ListJobs("a", nil), 1)
}
