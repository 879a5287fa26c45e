package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// GetAnalyticsHandler returns the search dashboard: pattern and node-type
// usage, response times and per-corpus counts.
func (api *API) GetAnalyticsHandler(c *gin.Context) {
	if api.analytics == nil {
		SendError(c, http.StatusNotFound, ErrorCodeInvalidRequest, "Analytics are disabled on this server")
		return
	}

	dashboard, err := api.analytics.GetDashboardData()
	if err != nil {
		SendInternalError(c, "retrieve analytics data", err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// HealthCheckHandler reports liveness together with the size of what is
// loaded: corpora, texts, word occurrences and queued jobs.
func (api *API) HealthCheckHandler(c *gin.Context) {
	names := api.engine.ListCorpora()
	texts, occurrences := 0, 0
	for _, name := range names {
		corpus, err := api.engine.GetCorpus(name)
		if err != nil {
			// Deleted since the listing
			continue
		}
		stats := corpus.Stats()
		texts += stats.TextCount
		occurrences += stats.OccurrenceCount
	}

	c.JSON(http.StatusOK, gin.H{
		"status":            "healthy",
		"service":           "go-concordance-engine",
		"corpora":           len(names),
		"texts":             texts,
		"occurrences":       occurrences,
		"active_jobs":       api.engine.GetCurrentWorkload(),
		"analytics_enabled": api.analytics != nil,
		"timestamp":         time.Now().UTC().Format(time.RFC3339),
	})
}
