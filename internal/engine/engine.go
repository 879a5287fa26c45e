// Package engine orchestrates the corpora of a concordance server: it owns
// them in memory, persists them under a data directory and runs long
// operations as background jobs.
package engine

import (
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/gcbaptista/go-concordance-engine/internal/jobs"
	"github.com/gcbaptista/go-concordance-engine/model"
)

// Engine manages multiple corpora.
// It implements the services.CorpusManagerWithAsync and services.JobManager
// interfaces.
type Engine struct {
	mu         sync.RWMutex
	corpora    map[string]*CorpusInstance
	dataDir    string
	jobManager *jobs.Manager
	logger     *zap.Logger
}

// NewEngine creates the orchestrator, loads every corpus found under dataDir
// and starts the job manager with jobWorkers concurrent jobs.
func NewEngine(dataDir string, jobWorkers int, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	eng := &Engine{
		corpora:    make(map[string]*CorpusInstance),
		dataDir:    dataDir,
		jobManager: jobs.NewManager(jobWorkers, logger),
		logger:     logger.Named("engine"),
	}
	if err := os.MkdirAll(dataDir, dataDirPerm); err != nil {
		eng.logger.Warn("could not create data directory, new corpora will not persist",
			zap.String("data_dir", dataDir), zap.Error(err))
	}
	eng.loadCorporaFromDisk()
	eng.jobManager.Start()
	return eng
}

// Close stops the job manager, cancelling running jobs.
func (e *Engine) Close() {
	e.jobManager.Stop()
}

// GetJob retrieves a job by ID
func (e *Engine) GetJob(jobID string) (*model.Job, error) {
	return e.jobManager.GetJob(jobID)
}

// ListJobs lists the jobs of a corpus, or of every corpus when corpusName is
// empty, optionally filtered by status
func (e *Engine) ListJobs(corpusName string, status *model.JobStatus) []*model.Job {
	return e.jobManager.ListJobs(corpusName, status)
}

// CancelJob asks a pending or running job to stop
func (e *Engine) CancelJob(jobID string) error {
	return e.jobManager.CancelJob(jobID)
}

// GetJobMetrics returns job performance metrics
func (e *Engine) GetJobMetrics() jobs.JobMetricsData {
	return e.jobManager.GetMetrics()
}

// GetCurrentWorkload returns the number of pending and running jobs
func (e *Engine) GetCurrentWorkload() int64 {
	return e.jobManager.GetCurrentWorkload()
}
