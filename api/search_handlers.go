package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gcbaptista/go-concordance-engine/internal/analytics"
	"github.com/gcbaptista/go-concordance-engine/internal/pattern"
	"github.com/gcbaptista/go-concordance-engine/internal/search"
	"github.com/gcbaptista/go-concordance-engine/model"
	"github.com/gcbaptista/go-concordance-engine/services"
)

// ConcordanceRequest defines the structure for concordance searches.
type ConcordanceRequest struct {
	Pattern      json.RawMessage `json:"pattern" binding:"required"` // root object or bare array of nodes
	TextIDs      []string        `json:"text_ids,omitempty"`
	OverlapMode  string          `json:"overlap_mode,omitempty"`  // Optional: override the corpus overlap mode
	ContextWidth *int            `json:"context_width,omitempty"` // Optional: override the corpus context width
	Page         int             `json:"page"`
	PageSize     int             `json:"page_size"`
}

// ValidatePatternRequest carries a pattern to check without searching.
type ValidatePatternRequest struct {
	Pattern json.RawMessage `json:"pattern" binding:"required"`
}

// ConcordanceHandler runs a pattern over a corpus and returns one page of
// concordance lines.
// Request Body: ConcordanceRequest
func (api *API) ConcordanceHandler(c *gin.Context) {
	startTime := time.Now()
	corpusName := c.Param("corpus")

	corpus, err := api.engine.GetCorpus(corpusName)
	if err != nil {
		SendEngineError(c, ErrorCodeSearchFailed, "get corpus", err)
		return
	}

	var req ConcordanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendInvalidJSONError(c, err)
		return
	}
	root, err := pattern.Decode(req.Pattern)
	if err != nil {
		SendInvalidPatternError(c, err)
		return
	}
	page, pageSize, result := ValidatePagination(req.Page, req.PageSize)
	if result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	results, err := corpus.Search(c.Request.Context(), services.SearchQuery{
		Pattern:      root,
		TextIDs:      req.TextIDs,
		OverlapMode:  req.OverlapMode,
		ContextWidth: req.ContextWidth,
		Page:         page,
		PageSize:     pageSize,
	})

	event := model.SearchEvent{
		CorpusName:   corpusName,
		Pattern:      root.String(),
		NodeTypes:    analytics.NodeTypes(root),
		ResponseTime: time.Since(startTime),
		Failed:       err != nil,
	}
	if err == nil {
		event.FragmentCount = results.Total
		event.ParagraphsScanned = results.ParagraphsScanned
	}
	api.trackSearch(event)

	if err != nil {
		SendEngineError(c, ErrorCodeSearchFailed, "concordance search", err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// ValidatePatternHandler compiles a pattern against the corpus settings and
// reports its canonical form.
// Request Body: ValidatePatternRequest
func (api *API) ValidatePatternHandler(c *gin.Context) {
	corpusName := c.Param("corpus")

	settings, err := api.engine.GetCorpusSettings(corpusName)
	if err != nil {
		SendEngineError(c, ErrorCodeInternalError, "get corpus settings", err)
		return
	}

	var req ValidatePatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendInvalidJSONError(c, err)
		return
	}
	root, err := pattern.Decode(req.Pattern)
	if err != nil {
		SendInvalidPatternError(c, err)
		return
	}

	opts, err := search.OptionsFromSettings(settings)
	if err != nil {
		SendInternalError(c, "load corpus settings", err)
		return
	}
	if err := search.NewPatternModel(root, opts).Compile(); err != nil {
		SendInvalidPatternError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":      true,
		"pattern":    root.String(),
		"node_types": analytics.NodeTypes(root),
	})
}

func (api *API) trackSearch(event model.SearchEvent) {
	if api.analytics == nil {
		return
	}
	if err := api.analytics.TrackSearchEvent(event); err != nil {
		api.logger.Warn("Failed to track search event",
			zap.String("corpus", event.CorpusName), zap.Error(err))
	}
}
