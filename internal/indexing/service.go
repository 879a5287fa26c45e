package indexing

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/gcbaptista/go-concordance-engine/index"
	"github.com/gcbaptista/go-concordance-engine/internal/errors"
	"github.com/gcbaptista/go-concordance-engine/internal/textadapter"
	"github.com/gcbaptista/go-concordance-engine/model"
	"github.com/gcbaptista/go-concordance-engine/store"
)

// Service implements text ingestion for a single corpus.
// It fulfills the services.Indexer interface.
type Service struct {
	categoryIndex *index.CategoryIndex
	textStore     *store.TextStore
	tree          index.Ancestry
}

// NewService creates a new indexing Service. tree may be nil when the corpus
// declares no category hierarchy.
func NewService(categoryIndex *index.CategoryIndex, textStore *store.TextStore, tree index.Ancestry) (*Service, error) {
	if categoryIndex == nil {
		return nil, fmt.Errorf("category index cannot be nil")
	}
	if textStore == nil {
		return nil, fmt.Errorf("text store cannot be nil")
	}
	if categoryIndex.Categories == nil || categoryIndex.Tags == nil {
		// Initialize the maps if they're nil to prevent panics later
		categoryIndex.Categories = make(map[string]index.PostingList)
		categoryIndex.Tags = make(map[string]index.PostingList)
	}
	if textStore.Texts == nil {
		textStore.Texts = make(map[uint32]model.Text)
	}
	if textStore.ExternalIDtoInternalID == nil {
		textStore.ExternalIDtoInternalID = make(map[string]uint32)
	}
	return &Service{
		categoryIndex: categoryIndex,
		textStore:     textStore,
		tree:          tree,
	}, nil
}

// AddTexts validates and stores a batch of texts, replacing texts that share
// an ID. The whole batch is validated before anything is stored.
func (s *Service) AddTexts(texts []model.Text) error {
	prepared, err := prepareBatch(texts)
	if err != nil {
		return err
	}

	// Process texts in micro-batches so searches can interleave with large imports
	const microBatchSize = 10
	for i := 0; i < len(prepared); i += microBatchSize {
		end := i + microBatchSize
		if end > len(prepared) {
			end = len(prepared)
		}
		s.addTextMicroBatch(prepared[i:end])
	}
	return nil
}

func (s *Service) addTextMicroBatch(texts []model.Text) {
	s.textStore.Mu.Lock()
	s.categoryIndex.Mu.Lock()
	defer s.textStore.Mu.Unlock()
	defer s.categoryIndex.Mu.Unlock()

	for i := range texts {
		id, oldID, replaced := s.textStore.Put(texts[i])
		if replaced {
			s.categoryIndex.RemoveText(oldID)
		}
		s.categoryIndex.IndexText(id, &texts[i], s.tree)
	}
}

// ValidateTexts reports the first problem AddTexts would reject the batch
// for, without storing anything.
func ValidateTexts(texts []model.Text) error {
	_, err := prepareBatch(texts)
	return err
}

func prepareBatch(texts []model.Text) ([]model.Text, error) {
	prepared := make([]model.Text, 0, len(texts))
	seen := make(map[string]bool, len(texts))
	for i := range texts {
		text, err := prepareText(texts[i])
		if err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
		if seen[text.ID] {
			return nil, errors.NewValidationError("id", fmt.Sprintf("text ID '%s' appears more than once in the batch", text.ID))
		}
		seen[text.ID] = true
		prepared = append(prepared, text)
	}
	return prepared, nil
}

// prepareText checks IDs and offsets, assigns IDs to paragraphs without one
// and records checksums for segments whose analysis is fully in sync.
func prepareText(text model.Text) (model.Text, error) {
	text.ID = strings.TrimSpace(text.ID)
	if text.ID == "" {
		return text, errors.NewValidationError("id", "text ID cannot be empty or whitespace-only")
	}

	paragraphs := make([]model.Paragraph, len(text.Paragraphs))
	copy(paragraphs, text.Paragraphs)
	text.Paragraphs = paragraphs

	ids := make(map[string]bool, len(paragraphs))
	for pi := range paragraphs {
		p := &paragraphs[pi]
		p.ID = strings.TrimSpace(p.ID)
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		if ids[p.ID] {
			return text, errors.NewValidationError("paragraphs", fmt.Sprintf("duplicate paragraph ID '%s' in text '%s'", p.ID, text.ID))
		}
		ids[p.ID] = true

		segments := make([]model.Segment, len(p.Segments))
		copy(segments, p.Segments)
		p.Segments = segments
		for si, seg := range segments {
			if seg.Begin < 0 || seg.End < seg.Begin {
				return text, errors.NewValidationError("segments",
					fmt.Sprintf("paragraph '%s' segment %d has invalid span [%d,%d)", p.ID, si, seg.Begin, seg.End))
			}
		}
		for _, adapted := range textadapter.Adapt(p) {
			seg := &segments[adapted.Index]
			if seg.BaselineChecksum == 0 && adapted.StaleOccurrences == 0 {
				seg.BaselineChecksum = textadapter.Checksum(p.Baseline, seg.Begin, seg.End)
			}
		}
	}
	return text, nil
}

// DeleteAllTexts removes every text and clears the category index.
func (s *Service) DeleteAllTexts() error {
	s.textStore.Mu.Lock()
	s.categoryIndex.Mu.Lock()
	defer s.textStore.Mu.Unlock()
	defer s.categoryIndex.Mu.Unlock()

	s.textStore.Clear()
	s.categoryIndex.Clear()
	return nil
}

// DeleteText removes one text by its external ID.
func (s *Service) DeleteText(textID string) error {
	s.textStore.Mu.Lock()
	s.categoryIndex.Mu.Lock()
	defer s.textStore.Mu.Unlock()
	defer s.categoryIndex.Mu.Unlock()

	internalID, ok := s.textStore.Remove(textID)
	if !ok {
		return errors.NewTextNotFoundError(textID)
	}
	s.categoryIndex.RemoveText(internalID)
	return nil
}

// Reindex rebuilds the category index from the stored texts, for use after
// the category hierarchy changed.
func (s *Service) Reindex(tree index.Ancestry) {
	s.textStore.Mu.RLock()
	s.categoryIndex.Mu.Lock()
	defer s.textStore.Mu.RUnlock()
	defer s.categoryIndex.Mu.Unlock()

	s.tree = tree
	s.categoryIndex.Clear()
	for _, id := range s.textStore.IDs() {
		text := s.textStore.Texts[id]
		s.categoryIndex.IndexText(id, &text, tree)
	}
}
