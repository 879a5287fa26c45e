package jobs

import (
	"sync"
	"time"

	"github.com/gcbaptista/go-concordance-engine/model"
)

// recentWindow bounds the execution times kept per job type.
const recentWindow = 100

// JobMetricsData is a point-in-time copy of JobMetrics, safe to serialise.
type JobMetricsData struct {
	JobsCreated          int64                           `json:"jobs_created"`
	JobsCompleted        int64                           `json:"jobs_completed"`
	JobsFailed           int64                           `json:"jobs_failed"`
	JobsCancelled        int64                           `json:"jobs_cancelled"`
	TotalExecutionTime   time.Duration                   `json:"total_execution_time_ns"`
	AverageExecutionTime time.Duration                   `json:"average_execution_time_ns"`
	RecentAverageByType  map[model.JobType]time.Duration `json:"recent_average_by_type_ns"`
	JobsByType           map[model.JobType]int64         `json:"jobs_by_type"`
	JobsByStatus         map[model.JobStatus]int64       `json:"jobs_by_status"`
	SuccessRate          float64                         `json:"success_rate"`
	LastUpdated          time.Time                       `json:"last_updated"`
}

// durationRing keeps the last recentWindow durations.
type durationRing struct {
	values [recentWindow]time.Duration
	next   int
	full   bool
}

func (r *durationRing) add(d time.Duration) {
	r.values[r.next] = d
	r.next = (r.next + 1) % recentWindow
	if r.next == 0 {
		r.full = true
	}
}

func (r *durationRing) average() time.Duration {
	n := r.next
	if r.full {
		n = recentWindow
	}
	if n == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range r.values[:n] {
		total += d
	}
	return total / time.Duration(n)
}

// JobMetrics tracks job counts and execution times.
type JobMetrics struct {
	mu                 sync.RWMutex
	jobsCreated        int64
	jobsCompleted      int64
	jobsFailed         int64
	jobsCancelled      int64
	totalExecutionTime time.Duration
	byType             map[model.JobType]int64
	byStatus           map[model.JobStatus]int64
	recent             map[model.JobType]*durationRing
	lastUpdated        time.Time
}

// NewJobMetrics creates a new metrics collector
func NewJobMetrics() *JobMetrics {
	return &JobMetrics{
		byType:      make(map[model.JobType]int64),
		byStatus:    make(map[model.JobStatus]int64),
		recent:      make(map[model.JobType]*durationRing),
		lastUpdated: time.Now(),
	}
}

// RecordJobCreated counts a new pending job.
func (m *JobMetrics) RecordJobCreated(jobType model.JobType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.jobsCreated++
	m.byType[jobType]++
	m.byStatus[model.JobStatusPending]++
	m.lastUpdated = time.Now()
}

// RecordJobStatusChange moves one job between status counters.
func (m *JobMetrics) RecordJobStatusChange(oldStatus, newStatus model.JobStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if oldStatus != "" && m.byStatus[oldStatus] > 0 {
		m.byStatus[oldStatus]--
	}
	m.byStatus[newStatus]++
	m.lastUpdated = time.Now()
}

// RecordJobCompleted records successful job completion
func (m *JobMetrics) RecordJobCompleted(jobType model.JobType, executionTime time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.jobsCompleted++
	m.totalExecutionTime += executionTime
	ring, ok := m.recent[jobType]
	if !ok {
		ring = &durationRing{}
		m.recent[jobType] = ring
	}
	ring.add(executionTime)
	m.lastUpdated = time.Now()
}

// RecordJobFailed records job failure
func (m *JobMetrics) RecordJobFailed(model.JobType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.jobsFailed++
	m.lastUpdated = time.Now()
}

// RecordJobCancelled records a job stopped before it finished.
func (m *JobMetrics) RecordJobCancelled(model.JobType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.jobsCancelled++
	m.lastUpdated = time.Now()
}

// GetMetrics returns a copy of the current metrics.
func (m *JobMetrics) GetMetrics() JobMetricsData {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data := JobMetricsData{
		JobsCreated:         m.jobsCreated,
		JobsCompleted:       m.jobsCompleted,
		JobsFailed:          m.jobsFailed,
		JobsCancelled:       m.jobsCancelled,
		TotalExecutionTime:  m.totalExecutionTime,
		RecentAverageByType: make(map[model.JobType]time.Duration, len(m.recent)),
		JobsByType:          make(map[model.JobType]int64, len(m.byType)),
		JobsByStatus:        make(map[model.JobStatus]int64, len(m.byStatus)),
		SuccessRate:         m.successRateLocked(),
		LastUpdated:         m.lastUpdated,
	}
	if m.jobsCompleted > 0 {
		data.AverageExecutionTime = m.totalExecutionTime / time.Duration(m.jobsCompleted)
	}
	for k, v := range m.byType {
		data.JobsByType[k] = v
	}
	for k, v := range m.byStatus {
		data.JobsByStatus[k] = v
	}
	for k, ring := range m.recent {
		data.RecentAverageByType[k] = ring.average()
	}
	return data
}

// GetSuccessRate returns the success rate (0.0 to 1.0)
func (m *JobMetrics) GetSuccessRate() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.successRateLocked()
}

func (m *JobMetrics) successRateLocked() float64 {
	finished := m.jobsCompleted + m.jobsFailed
	if finished == 0 {
		return 1.0 // No jobs yet, assume 100% success
	}
	return float64(m.jobsCompleted) / float64(finished)
}

// GetCurrentWorkload returns the number of pending and running jobs.
func (m *JobMetrics) GetCurrentWorkload() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.byStatus[model.JobStatusPending] + m.byStatus[model.JobStatusRunning]
}
