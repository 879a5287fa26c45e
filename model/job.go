package model

import (
	"time"
)

// JobStatus represents the status of a long-running job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusRunning    JobStatus = "running"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelling JobStatus = "cancelling"
	JobStatusCancelled  JobStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusRunning, JobStatusCompleted,
		JobStatusFailed, JobStatusCancelling, JobStatusCancelled:
		return true
	}
	return false
}

// Finished reports whether a job in status s will not change again.
func (s JobStatus) Finished() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// Cancellable reports whether a job in status s can still be cancelled.
func (s JobStatus) Cancellable() bool {
	return s == JobStatusPending || s == JobStatusRunning
}

// JobType represents the type of job being executed
type JobType string

const (
	JobTypeReindex        JobType = "reindex"
	JobTypeUpdateSettings JobType = "update_settings"
	JobTypeCreateCorpus   JobType = "create_corpus"
	JobTypeDeleteCorpus   JobType = "delete_corpus"
	JobTypeAddTexts       JobType = "add_texts"
	JobTypeDeleteAllTexts JobType = "delete_all_texts"
	JobTypeDeleteText     JobType = "delete_text"
	JobTypeRenameCorpus   JobType = "rename_corpus"
)

// Job represents a long-running background operation on a corpus
type Job struct {
	ID          string            `json:"id"`
	Type        JobType           `json:"type"`
	Status      JobStatus         `json:"status"`
	CorpusName  string            `json:"corpus_name"`
	Progress    *JobProgress      `json:"progress,omitempty"`
	Error       string            `json:"error,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	StartedAt   *time.Time        `json:"started_at,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// JobProgress tracks the progress of a job
type JobProgress struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Message string `json:"message,omitempty"`
}

// GetProgressPercentage returns the progress as a percentage (0-100)
func (jp *JobProgress) GetProgressPercentage() float64 {
	if jp.Total == 0 {
		return 0
	}
	return float64(jp.Current) / float64(jp.Total) * 100
}
