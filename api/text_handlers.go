package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-concordance-engine/model"
)

// decodeTexts reads a single text object or an array of texts.
func decodeTexts(body io.Reader) ([]model.Text, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty request body")
	}

	if trimmed[0] == '[' {
		var texts []model.Text
		if err := json.Unmarshal(trimmed, &texts); err != nil {
			return nil, err
		}
		return texts, nil
	}
	var text model.Text
	if err := json.Unmarshal(trimmed, &text); err != nil {
		return nil, err
	}
	return []model.Text{text}, nil
}

// AddTextsHandler handles adding or replacing texts in a corpus.
// Request Body: a model.Text or an array of them.
func (api *API) AddTextsHandler(c *gin.Context) {
	corpusName := c.Param("corpus")

	texts, err := decodeTexts(c.Request.Body)
	if err != nil {
		SendInvalidJSONError(c, err)
		return
	}
	if len(texts) == 0 {
		result := &ValidationResult{Valid: true}
		result.AddError("texts", "No texts provided")
		SendValidationError(c, result)
		return
	}

	jobID, err := api.engine.AddTextsAsync(corpusName, texts)
	if err != nil {
		SendEngineError(c, ErrorCodeJobExecutionFailed, "add texts", err)
		return
	}
	sendAccepted(c, jobID, fmt.Sprintf("Adding %d texts to corpus '%s'", len(texts), corpusName), gin.H{
		"text_count": len(texts),
	})
}

// TextListRequest defines the structure for text listing requests
type TextListRequest struct {
	Page     int `form:"page" json:"page"`
	PageSize int `form:"page_size" json:"page_size"`
}

// GetTextsHandler lists the texts of a corpus with pagination
func (api *API) GetTextsHandler(c *gin.Context) {
	corpusName := c.Param("corpus")
	corpus, err := api.engine.GetCorpus(corpusName)
	if err != nil {
		SendEngineError(c, ErrorCodeInternalError, "get corpus", err)
		return
	}

	var req TextListRequest
	if result := ValidateQueryBinding(c, &req); result.HasErrors() {
		SendValidationError(c, result)
		return
	}
	page, pageSize, result := ValidatePagination(req.Page, req.PageSize)
	if result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	all := corpus.ListTexts()
	total := len(all)
	from := min((page-1)*pageSize, total)
	to := min(from+pageSize, total)

	c.JSON(http.StatusOK, gin.H{
		"texts":     all[from:to],
		"total":     total,
		"page":      page,
		"page_size": pageSize,
		"pages":     (total + pageSize - 1) / pageSize,
	})
}

// GetTextHandler retrieves a specific text by ID
func (api *API) GetTextHandler(c *gin.Context) {
	corpusName := c.Param("corpus")
	textID := c.Param("textId")

	corpus, err := api.engine.GetCorpus(corpusName)
	if err != nil {
		SendEngineError(c, ErrorCodeInternalError, "get corpus", err)
		return
	}
	text, err := corpus.GetText(textID)
	if err != nil {
		SendEngineError(c, ErrorCodeInternalError, "get text", err)
		return
	}
	c.JSON(http.StatusOK, text)
}

// DeleteAllTextsHandler handles deleting every text of a corpus.
func (api *API) DeleteAllTextsHandler(c *gin.Context) {
	corpusName := c.Param("corpus")

	jobID, err := api.engine.DeleteAllTextsAsync(corpusName)
	if err != nil {
		SendEngineError(c, ErrorCodeJobExecutionFailed, "delete all texts", err)
		return
	}
	sendAccepted(c, jobID, fmt.Sprintf("Text deletion started for corpus '%s'", corpusName), nil)
}

// DeleteTextHandler deletes a specific text by ID
func (api *API) DeleteTextHandler(c *gin.Context) {
	corpusName := c.Param("corpus")
	textID := c.Param("textId")

	if result := ValidateTextID(textID); result.HasErrors() {
		SendValidationError(c, result)
		return
	}
	corpus, err := api.engine.GetCorpus(corpusName)
	if err != nil {
		SendEngineError(c, ErrorCodeInternalError, "get corpus", err)
		return
	}
	if _, err := corpus.GetText(textID); err != nil {
		SendEngineError(c, ErrorCodeInternalError, "get text", err)
		return
	}

	jobID, err := api.engine.DeleteTextAsync(corpusName, textID)
	if err != nil {
		SendEngineError(c, ErrorCodeJobExecutionFailed, "delete text", err)
		return
	}
	sendAccepted(c, jobID, fmt.Sprintf("Deletion started for text '%s' in corpus '%s'", textID, corpusName), gin.H{
		"text_id": textID,
	})
}
