package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-concordance-engine/model"
)

// statusFilter reads the optional ?status= query parameter.
func statusFilter(c *gin.Context) (*model.JobStatus, bool) {
	statusParam := c.Query("status")
	if statusParam == "" {
		return nil, true
	}
	status := model.JobStatus(statusParam)
	if !status.Valid() {
		result := &ValidationResult{Valid: true}
		result.AddError("status", "Unknown job status: "+statusParam)
		SendValidationError(c, result)
		return nil, false
	}
	return &status, true
}

// GetJobHandler handles requests to get job status by ID
func (api *API) GetJobHandler(c *gin.Context) {
	jobID := c.Param("jobId")

	job, err := api.engine.GetJob(jobID)
	if err != nil {
		SendJobNotFoundError(c, jobID)
		return
	}

	c.JSON(http.StatusOK, job)
}

// ListJobsHandler handles requests to list jobs for a corpus
func (api *API) ListJobsHandler(c *gin.Context) {
	corpusName := c.Param("corpus")
	status, ok := statusFilter(c)
	if !ok {
		return
	}

	jobs := api.engine.ListJobs(corpusName, status)
	c.JSON(http.StatusOK, gin.H{
		"jobs":        jobs,
		"corpus_name": corpusName,
		"total":       len(jobs),
	})
}

// ListAllJobsHandler lists the jobs of every corpus
func (api *API) ListAllJobsHandler(c *gin.Context) {
	status, ok := statusFilter(c)
	if !ok {
		return
	}

	jobs := api.engine.ListJobs("", status)
	c.JSON(http.StatusOK, gin.H{
		"jobs":  jobs,
		"total": len(jobs),
	})
}

// CancelJobHandler asks a pending or running job to stop
func (api *API) CancelJobHandler(c *gin.Context) {
	jobID := c.Param("jobId")

	if err := api.engine.CancelJob(jobID); err != nil {
		SendEngineError(c, ErrorCodeJobExecutionFailed, "cancel job", err)
		return
	}

	job, err := api.engine.GetJob(jobID)
	if err != nil {
		SendJobNotFoundError(c, jobID)
		return
	}
	c.JSON(http.StatusOK, job)
}

// GetJobMetricsHandler handles requests to get job performance metrics
func (api *API) GetJobMetricsHandler(c *gin.Context) {
	metrics := api.engine.GetJobMetrics()

	c.JSON(http.StatusOK, gin.H{
		"metrics":          metrics,
		"success_rate":     metrics.SuccessRate,
		"current_workload": api.engine.GetCurrentWorkload(),
	})
}
