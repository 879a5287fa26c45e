package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-concordance-engine/config"
	"github.com/gcbaptista/go-concordance-engine/internal/errors"
	"github.com/gcbaptista/go-concordance-engine/internal/features"
)

// sendAccepted answers a request whose work continues in a background job.
func sendAccepted(c *gin.Context, jobID, message string, extra gin.H) {
	body := gin.H{
		"status":  "accepted",
		"message": message,
		"job_id":  jobID,
	}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(http.StatusAccepted, body)
}

// CreateCorpusHandler handles the request to create a new corpus.
// Request Body: config.CorpusSettings
func (api *API) CreateCorpusHandler(c *gin.Context) {
	var settings config.CorpusSettings

	if result := ValidateJSONBinding(c, &settings); result.HasErrors() {
		SendValidationError(c, result)
		return
	}
	if result := ValidateCorpusSettings(&settings); result.HasErrors() {
		SendValidationError(c, result)
		return
	}
	if _, err := api.engine.GetCorpus(settings.Name); err == nil {
		SendEngineError(c, ErrorCodeIndexingFailed, "create corpus", errors.NewCorpusAlreadyExistsError(settings.Name))
		return
	}

	jobID, err := api.engine.CreateCorpusAsync(settings)
	if err != nil {
		SendEngineError(c, ErrorCodeJobExecutionFailed, "create corpus", err)
		return
	}
	sendAccepted(c, jobID, "Corpus creation started for '"+settings.Name+"'", nil)
}

// ListCorporaHandler lists all corpora.
func (api *API) ListCorporaHandler(c *gin.Context) {
	names := api.engine.ListCorpora()
	c.JSON(http.StatusOK, gin.H{"corpora": names, "count": len(names)})
}

// GetCorpusHandler returns the settings of a corpus.
func (api *API) GetCorpusHandler(c *gin.Context) {
	corpusName := c.Param("corpus")
	settings, err := api.engine.GetCorpusSettings(corpusName)
	if err != nil {
		SendEngineError(c, ErrorCodeInternalError, "get corpus", err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// GetCorpusStatsHandler returns text, paragraph and occurrence counts.
func (api *API) GetCorpusStatsHandler(c *gin.Context) {
	corpusName := c.Param("corpus")
	corpus, err := api.engine.GetCorpus(corpusName)
	if err != nil {
		SendEngineError(c, ErrorCodeInternalError, "get corpus", err)
		return
	}
	c.JSON(http.StatusOK, corpus.Stats())
}

// DeleteCorpusHandler handles deleting a corpus.
func (api *API) DeleteCorpusHandler(c *gin.Context) {
	corpusName := c.Param("corpus")

	jobID, err := api.engine.DeleteCorpusAsync(corpusName)
	if err != nil {
		SendEngineError(c, ErrorCodeJobExecutionFailed, "delete corpus", err)
		return
	}
	sendAccepted(c, jobID, "Corpus deletion started for '"+corpusName+"'", nil)
}

// RenameCorpusRequest defines the structure for renaming a corpus
type RenameCorpusRequest struct {
	NewName string `json:"new_name" binding:"required"`
}

// RenameCorpusHandler handles requests to rename a corpus
func (api *API) RenameCorpusHandler(c *gin.Context) {
	oldName := c.Param("corpus")

	var req RenameCorpusRequest
	if result := ValidateJSONBinding(c, &req); result.HasErrors() {
		SendValidationError(c, result)
		return
	}
	if result := ValidateRenameRequest(oldName, req.NewName); result.HasErrors() {
		SendValidationError(c, result)
		return
	}
	if _, err := api.engine.GetCorpus(req.NewName); err == nil {
		SendEngineError(c, ErrorCodeIndexingFailed, "rename corpus", errors.NewCorpusAlreadyExistsError(req.NewName))
		return
	}

	jobID, err := api.engine.RenameCorpusAsync(oldName, req.NewName)
	if err != nil {
		SendEngineError(c, ErrorCodeJobExecutionFailed, "rename corpus", err)
		return
	}
	sendAccepted(c, jobID, fmt.Sprintf("Corpus rename started: '%s' -> '%s'", oldName, req.NewName), gin.H{
		"old_name": oldName,
		"new_name": req.NewName,
	})
}

// CorpusSettingsUpdate defines the structure for updating corpus settings.
// Absent fields keep their current value; an empty list clears a list.
type CorpusSettingsUpdate struct {
	Categories       *[]config.CategoryDefn `json:"categories,omitempty"`        // changing these rebuilds the category index
	Features         *[]features.Defn       `json:"features,omitempty"`          // feature system used to check patterns
	TagPossibilities *[]string              `json:"tag_possibilities,omitempty"` // admissible tag names
	OverlapMode      *string                `json:"overlap_mode,omitempty"`      // non_overlapping or all_starts
	ContextWidth     *int                   `json:"context_width,omitempty"`     // runes of context in concordance lines
	MaxProgramSize   *int                   `json:"max_program_size,omitempty"`  // instruction cap for compiled patterns
	MaxSearchWorkers *int                   `json:"max_search_workers,omitempty"`
}

// apply copies the fields that are set onto settings and reports whether
// anything was set.
func (u CorpusSettingsUpdate) apply(settings *config.CorpusSettings) bool {
	updated := false
	if u.Categories != nil {
		settings.Categories = *u.Categories
		updated = true
	}
	if u.Features != nil {
		settings.Features = *u.Features
		updated = true
	}
	if u.TagPossibilities != nil {
		settings.TagPossibilities = *u.TagPossibilities
		updated = true
	}
	if u.OverlapMode != nil {
		settings.OverlapMode = *u.OverlapMode
		updated = true
	}
	if u.ContextWidth != nil {
		settings.ContextWidth = *u.ContextWidth
		updated = true
	}
	if u.MaxProgramSize != nil {
		settings.MaxProgramSize = *u.MaxProgramSize
		updated = true
	}
	if u.MaxSearchWorkers != nil {
		settings.MaxSearchWorkers = *u.MaxSearchWorkers
		updated = true
	}
	return updated
}

// UpdateCorpusSettingsHandler handles requests to update corpus settings
func (api *API) UpdateCorpusSettingsHandler(c *gin.Context) {
	corpusName := c.Param("corpus")

	settings, err := api.engine.GetCorpusSettings(corpusName)
	if err != nil {
		SendEngineError(c, ErrorCodeInternalError, "get corpus settings", err)
		return
	}

	var update CorpusSettingsUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		SendInvalidJSONError(c, err)
		return
	}
	if !update.apply(&settings) {
		result := &ValidationResult{Valid: true}
		result.AddError("request_body", "No settings provided")
		SendValidationError(c, result)
		return
	}
	if result := ValidateCorpusSettings(&settings); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	jobID, err := api.engine.UpdateCorpusSettingsAsync(corpusName, settings)
	if err != nil {
		SendEngineError(c, ErrorCodeJobExecutionFailed, "update corpus settings", err)
		return
	}
	sendAccepted(c, jobID, "Settings update started for corpus '"+corpusName+"'", nil)
}
