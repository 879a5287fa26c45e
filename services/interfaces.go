package services

import (
	"context"

	"github.com/gcbaptista/go-concordance-engine/config"
	"github.com/gcbaptista/go-concordance-engine/internal/pattern"
	"github.com/gcbaptista/go-concordance-engine/model"
)

// SearchResult is one page of concordance lines for a pattern.
type SearchResult struct {
	Lines             []model.ConcordanceLine `json:"lines"`
	Total             int                     `json:"total"`
	Page              int                     `json:"page"`
	PageSize          int                     `json:"page_size"`
	Took              int64                   `json:"took"`     // milliseconds
	QueryId           string                  `json:"query_id"` // unique UUID for this search query
	Pattern           string                  `json:"pattern"`  // canonical form of the compiled pattern
	ParagraphsScanned int                     `json:"paragraphs_scanned"`
	StaleOccurrences  int                     `json:"stale_occurrences,omitempty"` // occurrences skipped because their analysis is out of sync
}

// SearchQuery is a concordance search over a corpus.
type SearchQuery struct {
	Pattern      *pattern.Root `json:"-"`
	TextIDs      []string      `json:"text_ids,omitempty"`     // restrict the search to these texts
	OverlapMode  string        `json:"overlap_mode,omitempty"` // overrides the corpus setting
	ContextWidth *int          `json:"context_width,omitempty"`
	Page         int           `json:"page"`
	PageSize     int           `json:"page_size"`
}

// Indexer defines operations for adding texts to a corpus
type Indexer interface {
	AddTexts(texts []model.Text) error
	DeleteAllTexts() error
	DeleteText(textID string) error
}

// TextReader defines read access to stored texts
type TextReader interface {
	GetText(textID string) (model.Text, error)
	ListTexts() []model.TextSummary
}

// Searcher defines operations for querying a corpus
type Searcher interface {
	Search(ctx context.Context, query SearchQuery) (SearchResult, error)
}

// CorpusManager manages the lifecycle of corpora
type CorpusManager interface {
	CreateCorpus(settings config.CorpusSettings) error
	GetCorpus(name string) (CorpusAccessor, error) // CorpusAccessor combines Indexer, TextReader and Searcher
	GetCorpusSettings(name string) (config.CorpusSettings, error)
	UpdateCorpusSettings(name string, settings config.CorpusSettings) error
	RenameCorpus(oldName, newName string) error
	DeleteCorpus(name string) error
	ListCorpora() []string
	PersistCorpusData(corpusName string) error
}

// CorpusManagerWithAsync extends CorpusManager with background job variants
type CorpusManagerWithAsync interface {
	CorpusManager
	CreateCorpusAsync(settings config.CorpusSettings) (string, error)                      // Returns job ID
	AddTextsAsync(corpusName string, texts []model.Text) (string, error)                   // Returns job ID
	DeleteAllTextsAsync(corpusName string) (string, error)                                 // Returns job ID
	DeleteTextAsync(corpusName, textID string) (string, error)                             // Returns job ID
	DeleteCorpusAsync(corpusName string) (string, error)                                   // Returns job ID
	RenameCorpusAsync(oldName, newName string) (string, error)                             // Returns job ID
	UpdateCorpusSettingsAsync(name string, settings config.CorpusSettings) (string, error) // Returns job ID
}

// JobManager defines operations for managing background jobs
type JobManager interface {
	GetJob(jobID string) (*model.Job, error)
	ListJobs(corpusName string, status *model.JobStatus) []*model.Job
	CancelJob(jobID string) error
}

// CorpusAccessor is everything that can be done with one corpus
type CorpusAccessor interface {
	Indexer
	TextReader
	Searcher
	Settings() config.CorpusSettings
	Stats() model.CorpusStats
}
