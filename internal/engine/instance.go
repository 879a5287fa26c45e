package engine

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/gcbaptista/go-concordance-engine/config"
	"github.com/gcbaptista/go-concordance-engine/index"
	"github.com/gcbaptista/go-concordance-engine/internal/errors"
	"github.com/gcbaptista/go-concordance-engine/internal/indexing"
	"github.com/gcbaptista/go-concordance-engine/internal/search"
	"github.com/gcbaptista/go-concordance-engine/model"
	"github.com/gcbaptista/go-concordance-engine/services"
	"github.com/gcbaptista/go-concordance-engine/store"
)

// CorpusInstance holds all components and services for a single corpus.
// It implements the services.CorpusAccessor interface.
type CorpusInstance struct {
	mu       sync.RWMutex // guards settings and searcher; held for reading during a search
	settings *config.CorpusSettings
	searcher *search.Service

	CategoryIndex *index.CategoryIndex
	TextStore     *store.TextStore
	indexer       *indexing.Service
	logger        *zap.Logger
}

// NewCorpusInstance creates an empty corpus.
func NewCorpusInstance(settings config.CorpusSettings, logger *zap.Logger) (*CorpusInstance, error) {
	return newCorpusInstanceFromData(settings, store.NewTextStore(), index.NewCategoryIndex(), logger)
}

// newCorpusInstanceFromData wires the services of a corpus around existing
// storage, as loaded from disk.
func newCorpusInstanceFromData(settings config.CorpusSettings, textStore *store.TextStore, catIndex *index.CategoryIndex, logger *zap.Logger) (*CorpusInstance, error) {
	if settings.Name == "" {
		return nil, fmt.Errorf("corpus name cannot be empty in settings")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	tree, err := settings.CategoryTree()
	if err != nil {
		return nil, errors.NewValidationError("categories", err.Error())
	}

	indexer, err := indexing.NewService(catIndex, textStore, tree)
	if err != nil {
		return nil, fmt.Errorf("failed to create indexer service: %w", err)
	}
	instance := &CorpusInstance{
		CategoryIndex: catIndex,
		TextStore:     textStore,
		indexer:       indexer,
		logger:        logger,
	}
	if err := instance.setSettings(settings); err != nil {
		return nil, err
	}
	return instance, nil
}

// setSettings swaps in new settings together with a search service bound to
// them.
func (i *CorpusInstance) setSettings(settings config.CorpusSettings) error {
	return i.applySettings(settings, false)
}

// applySettings installs settings and their search service. With reindex set
// the category index is rebuilt for the new hierarchy in the same critical
// section, so no search sees the new hierarchy with the old postings or the
// reverse. The swap waits for running searches to finish.
func (i *CorpusInstance) applySettings(settings config.CorpusSettings, reindex bool) error {
	searcher, err := search.NewService(i.CategoryIndex, i.TextStore, &settings, i.logger.With(zap.String("corpus", settings.Name)))
	if err != nil {
		return fmt.Errorf("failed to create search service for corpus '%s': %w", settings.Name, err)
	}
	tree, err := settings.CategoryTree()
	if err != nil {
		return errors.NewValidationError("categories", err.Error())
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if reindex {
		i.indexer.Reindex(tree)
	}
	i.settings = &settings
	i.searcher = searcher
	return nil
}

// AddTexts delegates to the underlying indexing service.
func (i *CorpusInstance) AddTexts(texts []model.Text) error {
	return i.indexer.AddTexts(texts)
}

// DeleteAllTexts delegates to the underlying indexing service.
func (i *CorpusInstance) DeleteAllTexts() error {
	return i.indexer.DeleteAllTexts()
}

// DeleteText delegates to the underlying indexing service.
func (i *CorpusInstance) DeleteText(textID string) error {
	if err := i.indexer.DeleteText(textID); err != nil {
		if stderrors.Is(err, errors.ErrTextNotFound) {
			return errors.NewTextNotFoundError(textID, i.Name())
		}
		return err
	}
	return nil
}

// GetText returns a stored text by its ID.
func (i *CorpusInstance) GetText(textID string) (model.Text, error) {
	text, ok := i.TextStore.Get(textID)
	if !ok {
		return model.Text{}, errors.NewTextNotFoundError(textID, i.Name())
	}
	return text, nil
}

// ListTexts returns a summary of every text in insertion order.
func (i *CorpusInstance) ListTexts() []model.TextSummary {
	i.TextStore.Mu.RLock()
	defer i.TextStore.Mu.RUnlock()

	ids := i.TextStore.IDs()
	out := make([]model.TextSummary, 0, len(ids))
	for _, id := range ids {
		text := i.TextStore.Texts[id]
		out = append(out, text.Summary())
	}
	return out
}

// Search runs a concordance search with the current settings. Settings
// updates wait until it returns.
func (i *CorpusInstance) Search(ctx context.Context, query services.SearchQuery) (services.SearchResult, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.searcher.Search(ctx, query)
}

// Settings returns a copy of the corpus settings.
func (i *CorpusInstance) Settings() config.CorpusSettings {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return *i.settings
}

// Name returns the corpus name.
func (i *CorpusInstance) Name() string {
	return i.Settings().Name
}

// Stats counts the texts, paragraphs and word occurrences of the corpus.
func (i *CorpusInstance) Stats() model.CorpusStats {
	stats := model.CorpusStats{CorpusName: i.Name()}

	i.TextStore.Mu.RLock()
	defer i.TextStore.Mu.RUnlock()
	stats.TextCount = len(i.TextStore.Texts)
	for _, text := range i.TextStore.Texts {
		stats.ParagraphCount += len(text.Paragraphs)
		for _, p := range text.Paragraphs {
			for _, seg := range p.Segments {
				stats.OccurrenceCount += len(seg.Occurrences)
			}
		}
	}
	return stats
}

// reindex rebuilds the category index for the current category hierarchy.
func (i *CorpusInstance) reindex() error {
	return i.applySettings(i.Settings(), true)
}
