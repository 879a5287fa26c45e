package testing

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-concordance-engine/model"
	"github.com/gcbaptista/go-concordance-engine/services"
)

// Spans projects fragments to their [begin,end) pairs, sorted.
func Spans(fragments []model.Fragment) [][2]int {
	out := make([][2]int, 0, len(fragments))
	for _, f := range fragments {
		out = append(out, [2]int{f.Begin, f.End})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out
}

// AssertSpans compares fragment spans as a set.
func AssertSpans(t *testing.T, want [][2]int, got []model.Fragment) {
	t.Helper()
	if len(want) == 0 {
		assert.Empty(t, got)
		return
	}
	assert.ElementsMatch(t, want, Spans(got))
}

// JobPollingOptions configures job polling behavior
type JobPollingOptions struct {
	Timeout      time.Duration
	PollInterval time.Duration
	LogProgress  bool
}

// DefaultJobPollingOptions returns sensible defaults for job polling
func DefaultJobPollingOptions() JobPollingOptions {
	return JobPollingOptions{
		Timeout:      10 * time.Second,
		PollInterval: 20 * time.Millisecond,
		LogProgress:  false,
	}
}

// WaitForJobCompletion polls a job until it finishes or times out and
// returns its final state.
func WaitForJobCompletion(t *testing.T, jobManager services.JobManager, jobID string, opts JobPollingOptions) *model.Job {
	t.Helper()
	timeout := time.After(opts.Timeout)
	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			t.Fatalf("Job %s did not complete within %v timeout", jobID, opts.Timeout)
			return nil
		case <-ticker.C:
			job, err := jobManager.GetJob(jobID)
			require.NoError(t, err, "Failed to get job status")

			switch job.Status {
			case model.JobStatusCompleted, model.JobStatusFailed, model.JobStatusCancelled:
				return job
			case model.JobStatusRunning:
				if opts.LogProgress && job.Progress != nil {
					t.Logf("Job %s progress: %d/%d - %s",
						jobID, job.Progress.Current, job.Progress.Total, job.Progress.Message)
				}
			}
		}
	}
}

// AssertJobCompleted verifies that a job completed successfully
func AssertJobCompleted(t *testing.T, job *model.Job, expectedType model.JobType, expectedCorpus string) {
	t.Helper()
	require.NotNil(t, job)
	assert.Equal(t, model.JobStatusCompleted, job.Status, "Job should be completed (error: %s)", job.Error)
	assert.Equal(t, expectedType, job.Type, "Job type should match")
	assert.Equal(t, expectedCorpus, job.CorpusName, "Job corpus name should match")
	assert.NotNil(t, job.CompletedAt, "Job should have completion timestamp")
	assert.Empty(t, job.Error, "Job should not have error")
}
