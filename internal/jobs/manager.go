package jobs

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gcbaptista/go-concordance-engine/internal/errors"
	"github.com/gcbaptista/go-concordance-engine/model"
)

// ErrShuttingDown is returned for jobs submitted after Stop.
var ErrShuttingDown = stderrors.New("job manager is shutting down")

// Func is the body of a job. It receives a snapshot of the job and should
// return promptly once ctx is done.
type Func func(ctx context.Context, job model.Job) error

// Manager handles background job execution and tracking
type Manager struct {
	mu      sync.RWMutex
	jobs    map[string]*model.Job
	cancels map[string]context.CancelFunc
	workers chan struct{} // Limits concurrent jobs
	ctx     context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup
	metrics *JobMetrics
	logger  *zap.Logger
}

// NewManager creates a new job manager with specified worker count
func NewManager(maxWorkers int, logger *zap.Logger) *Manager {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, stop := context.WithCancel(context.Background())
	return &Manager{
		jobs:    make(map[string]*model.Job),
		cancels: make(map[string]context.CancelFunc),
		workers: make(chan struct{}, maxWorkers),
		ctx:     ctx,
		stop:    stop,
		metrics: NewJobMetrics(),
		logger:  logger.Named("jobs"),
	}
}

// Start begins the job manager and starts background cleanup
func (m *Manager) Start() {
	m.logger.Info("job manager started", zap.Int("max_workers", cap(m.workers)))

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.cleanupRoutine()
	}()
}

// Stop cancels running jobs and waits for every goroutine to return.
func (m *Manager) Stop() {
	m.stop()
	m.wg.Wait()
	m.logger.Info("job manager stopped")
}

// CreateJob creates a new pending job and returns its ID
func (m *Manager) CreateJob(jobType model.JobType, corpusName string, metadata map[string]string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	job := &model.Job{
		ID:         uuid.New().String(),
		Type:       jobType,
		Status:     model.JobStatusPending,
		CorpusName: corpusName,
		CreatedAt:  time.Now(),
		Metadata:   metadata,
	}

	m.jobs[job.ID] = job
	m.metrics.RecordJobCreated(jobType)
	m.logger.Debug("created job",
		zap.String("job_id", job.ID), zap.String("type", string(job.Type)), zap.String("corpus", corpusName))
	return job.ID
}

func copyJob(job *model.Job) *model.Job {
	jobCopy := *job
	if job.Progress != nil {
		progressCopy := *job.Progress
		jobCopy.Progress = &progressCopy
	}
	return &jobCopy
}

// GetJob retrieves a copy of a job by ID
func (m *Manager) GetJob(jobID string) (*model.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return nil, errors.NewJobNotFoundError(jobID)
	}
	return copyJob(job), nil
}

// ListJobs returns the jobs of a corpus, newest first, optionally filtered by
// status. An empty corpus name lists every job.
func (m *Manager) ListJobs(corpusName string, status *model.JobStatus) []*model.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*model.Job, 0)
	for _, job := range m.jobs {
		if corpusName != "" && job.CorpusName != corpusName {
			continue
		}
		if status != nil && job.Status != *status {
			continue
		}
		result = append(result, copyJob(job))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result
}

// ExecuteJob runs a pending job in the background. The job waits for a free
// worker slot, then runs with a context that Stop or CancelJob cancels.
func (m *Manager) ExecuteJob(jobID string, fn Func) error {
	m.mu.Lock()
	job, exists := m.jobs[jobID]
	if !exists {
		m.mu.Unlock()
		return errors.NewJobNotFoundError(jobID)
	}
	if job.Status != model.JobStatusPending {
		m.mu.Unlock()
		return fmt.Errorf("job with ID '%s' is not in pending status (current: %s)", jobID, job.Status)
	}
	if m.ctx.Err() != nil {
		m.mu.Unlock()
		m.finish(jobID, model.JobStatusCancelled, ErrShuttingDown.Error())
		return ErrShuttingDown
	}
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancels[jobID] = cancel
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		defer cancel()

		// Acquire worker slot
		select {
		case m.workers <- struct{}{}:
		case <-ctx.Done():
			m.finish(jobID, model.JobStatusCancelled, "cancelled before start")
			return
		}
		defer func() { <-m.workers }()

		snapshot, ok := m.markRunning(jobID)
		if !ok {
			m.finish(jobID, model.JobStatusCancelled, "cancelled before start")
			return
		}

		startTime := time.Now()
		err := fn(ctx, snapshot)
		executionTime := time.Since(startTime)

		switch {
		case err != nil && ctx.Err() != nil:
			m.finish(jobID, model.JobStatusCancelled, err.Error())
			m.logger.Info("job cancelled", zap.String("job_id", jobID), zap.Duration("after", executionTime))
		case err != nil:
			m.finish(jobID, model.JobStatusFailed, err.Error())
			m.logger.Warn("job failed", zap.String("job_id", jobID), zap.Duration("after", executionTime), zap.Error(err))
		default:
			m.finish(jobID, model.JobStatusCompleted, "")
			m.metrics.RecordJobCompleted(snapshot.Type, executionTime)
			m.logger.Info("job completed", zap.String("job_id", jobID), zap.Duration("took", executionTime))
		}
	}()

	return nil
}

// markRunning moves a job to running unless it was cancelled while waiting.
func (m *Manager) markRunning(jobID string) (model.Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists || job.Status != model.JobStatusPending {
		return model.Job{}, false
	}
	job.Status = model.JobStatusRunning
	now := time.Now()
	job.StartedAt = &now
	m.metrics.RecordJobStatusChange(model.JobStatusPending, model.JobStatusRunning)
	return *copyJob(job), true
}

// CancelJob asks a pending or running job to stop. The job reaches the
// cancelled status once its function returns.
func (m *Manager) CancelJob(jobID string) error {
	m.mu.Lock()
	job, exists := m.jobs[jobID]
	if !exists {
		m.mu.Unlock()
		return errors.NewJobNotFoundError(jobID)
	}
	if !job.Status.Cancellable() {
		m.mu.Unlock()
		return errors.NewValidationError("status", fmt.Sprintf("job '%s' has already finished (%s)", jobID, job.Status))
	}
	oldStatus := job.Status
	job.Status = model.JobStatusCancelling
	m.metrics.RecordJobStatusChange(oldStatus, job.Status)
	cancel := m.cancels[jobID]
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	} else {
		// Never handed to ExecuteJob
		m.finish(jobID, model.JobStatusCancelled, "cancelled before start")
	}
	return nil
}

// UpdateJobProgress updates the progress of a running job
func (m *Manager) UpdateJobProgress(jobID string, current, total int, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return
	}

	if job.Progress == nil {
		job.Progress = &model.JobProgress{}
	}

	job.Progress.Current = current
	job.Progress.Total = total
	job.Progress.Message = message
}

// finish records a terminal status.
func (m *Manager) finish(jobID string, status model.JobStatus, errorMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.cancels, jobID)
	job, exists := m.jobs[jobID]
	if !exists {
		return
	}

	oldStatus := job.Status
	job.Status = status
	if errorMsg != "" {
		job.Error = errorMsg
	}
	now := time.Now()
	job.CompletedAt = &now

	m.metrics.RecordJobStatusChange(oldStatus, status)
	switch status {
	case model.JobStatusFailed:
		m.metrics.RecordJobFailed(job.Type)
	case model.JobStatusCancelled:
		m.metrics.RecordJobCancelled(job.Type)
	}
}

// cleanupRoutine runs periodic job cleanup
func (m *Manager) cleanupRoutine() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// Clean up finished jobs older than 24 hours
			m.CleanupOldJobs(24 * time.Hour)
		case <-m.ctx.Done():
			return
		}
	}
}

// CleanupOldJobs removes finished jobs older than maxAge and returns how
// many were removed.
func (m *Manager) CleanupOldJobs(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	cleaned := 0

	for jobID, job := range m.jobs {
		if job.Status.Finished() && job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(m.jobs, jobID)
			cleaned++
		}
	}

	if cleaned > 0 {
		m.logger.Info("cleaned up old jobs", zap.Int("count", cleaned))
	}
	return cleaned
}

// GetMetrics returns current job performance metrics
func (m *Manager) GetMetrics() JobMetricsData {
	return m.metrics.GetMetrics()
}

// GetCurrentWorkload returns the number of pending and running jobs.
func (m *Manager) GetCurrentWorkload() int64 {
	return m.metrics.GetCurrentWorkload()
}
