package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gcbaptista/go-concordance-engine/internal/analytics"
	"github.com/gcbaptista/go-concordance-engine/internal/jobs"
	"github.com/gcbaptista/go-concordance-engine/services"
)

// Backend is what the API needs from the engine.
type Backend interface {
	services.CorpusManagerWithAsync
	services.JobManager
	GetJobMetrics() jobs.JobMetricsData
	GetCurrentWorkload() int64
}

// API holds dependencies for API handlers.
type API struct {
	engine    Backend
	analytics *analytics.Service
	logger    *zap.Logger
}

// NewAPI creates a new API handler structure. A nil analytics service
// disables search tracking.
func NewAPI(engine Backend, analyticsService *analytics.Service, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{
		engine:    engine,
		analytics: analyticsService,
		logger:    logger.Named("api"),
	}
}

// SetupRoutes defines all the API routes for the concordance server.
func SetupRoutes(router *gin.Engine, engine Backend, analyticsService *analytics.Service, logger *zap.Logger) *API {
	apiHandler := NewAPI(engine, analyticsService, logger)

	// Health check route
	router.GET("/health", apiHandler.HealthCheckHandler)

	// Analytics route
	router.GET("/analytics", apiHandler.GetAnalyticsHandler)

	// Job management routes
	jobRoutes := router.Group("/jobs")
	{
		jobRoutes.GET("", apiHandler.ListAllJobsHandler)              // List jobs of every corpus
		jobRoutes.GET("/metrics", apiHandler.GetJobMetricsHandler)    // Get job performance metrics
		jobRoutes.GET("/:jobId", apiHandler.GetJobHandler)            // Get job status by ID
		jobRoutes.POST("/:jobId/cancel", apiHandler.CancelJobHandler) // Cancel a pending or running job
	}

	// Corpus management routes
	corpusRoutes := router.Group("/corpora")
	{
		corpusRoutes.POST("", apiHandler.CreateCorpusHandler)                           // Create a new corpus
		corpusRoutes.GET("", apiHandler.ListCorporaHandler)                             // List all corpora
		corpusRoutes.GET("/:corpus", apiHandler.GetCorpusHandler)                       // Get corpus settings
		corpusRoutes.DELETE("/:corpus", apiHandler.DeleteCorpusHandler)                 // Delete a corpus
		corpusRoutes.PATCH("/:corpus/settings", apiHandler.UpdateCorpusSettingsHandler) // Update corpus settings
		corpusRoutes.POST("/:corpus/rename", apiHandler.RenameCorpusHandler)            // Rename a corpus
		corpusRoutes.GET("/:corpus/stats", apiHandler.GetCorpusStatsHandler)            // Get corpus statistics
		corpusRoutes.GET("/:corpus/jobs", apiHandler.ListJobsHandler)                   // List jobs for a corpus

		// Text management routes per corpus
		textRoutes := corpusRoutes.Group("/:corpus/texts")
		{
			textRoutes.PUT("", apiHandler.AddTextsHandler)              // Add/replace texts
			textRoutes.GET("", apiHandler.GetTextsHandler)              // List texts with pagination
			textRoutes.DELETE("", apiHandler.DeleteAllTextsHandler)     // Delete all texts
			textRoutes.GET("/:textId", apiHandler.GetTextHandler)       // Get specific text
			textRoutes.DELETE("/:textId", apiHandler.DeleteTextHandler) // Delete specific text
		}

		// Concordance routes per corpus
		corpusRoutes.POST("/:corpus/_concordance", apiHandler.ConcordanceHandler)
		corpusRoutes.POST("/:corpus/_validate", apiHandler.ValidatePatternHandler)
	}

	return apiHandler
}
