package search

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gcbaptista/go-concordance-engine/config"
	"github.com/gcbaptista/go-concordance-engine/index"
	"github.com/gcbaptista/go-concordance-engine/internal/errors"
	"github.com/gcbaptista/go-concordance-engine/internal/textadapter"
	"github.com/gcbaptista/go-concordance-engine/model"
	"github.com/gcbaptista/go-concordance-engine/services"
	"github.com/gcbaptista/go-concordance-engine/store"
)

// Service runs concordance searches over one corpus.
// It fulfills the services.Searcher interface.
type Service struct {
	categoryIndex *index.CategoryIndex
	textStore     *store.TextStore
	settings      *config.CorpusSettings
	logger        *zap.Logger
}

// NewService creates a new search Service.
func NewService(catIndex *index.CategoryIndex, textStore *store.TextStore, settings *config.CorpusSettings, logger *zap.Logger) (*Service, error) {
	if catIndex == nil {
		return nil, fmt.Errorf("category index cannot be nil")
	}
	if textStore == nil {
		return nil, fmt.Errorf("text store cannot be nil")
	}
	if settings == nil {
		return nil, fmt.Errorf("settings cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		categoryIndex: catIndex,
		textStore:     textStore,
		settings:      settings,
		logger:        logger,
	}, nil
}

const defaultPageSize = 10

// textResult is what one worker found in one text.
type textResult struct {
	fragments []model.Fragment
	scanned   int
	stale     int
}

// Search compiles query.Pattern against the corpus settings and returns one
// page of concordance lines. Texts are searched in parallel; results are in
// text insertion order, then paragraph order, then by begin and end.
func (s *Service) Search(ctx context.Context, query services.SearchQuery) (services.SearchResult, error) {
	startTime := time.Now()
	settings := *s.settings

	opts, err := OptionsFromSettings(settings)
	if err != nil {
		return services.SearchResult{}, err
	}
	pm := NewPatternModel(query.Pattern, opts)
	mode := query.OverlapMode
	if mode == "" {
		mode = settings.OverlapMode
	}
	if mode == "" {
		mode = config.OverlapNonOverlapping
	}
	if err := pm.SetOverlapMode(mode); err != nil {
		return services.SearchResult{}, err
	}
	if err := pm.Compile(); err != nil {
		return services.SearchResult{}, err
	}
	prog, err := pm.Program()
	if err != nil {
		return services.SearchResult{}, err
	}

	width := settings.ContextWidth
	if query.ContextWidth != nil {
		width = *query.ContextWidth
	}
	if width < 0 {
		return services.SearchResult{}, errors.NewValidationError("context_width", "cannot be negative")
	}
	page := query.Page
	if page < 1 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	texts, candidates, constrained, err := s.selectTexts(query.TextIDs, prog.RequiredCategories, prog.RequiredTags)
	if err != nil {
		return services.SearchResult{}, err
	}
	allowed := make(map[uint32]map[int]bool)
	for _, ref := range candidates {
		if allowed[ref.TextID] == nil {
			allowed[ref.TextID] = make(map[int]bool)
		}
		allowed[ref.TextID][ref.Paragraph] = true
	}

	workers := settings.MaxSearchWorkers
	if workers <= 0 {
		workers = config.DefaultMaxSearchWorkers
	}
	results := make([]textResult, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range texts {
		if constrained && allowed[texts[i].id] == nil {
			continue
		}
		g.Go(func() error {
			text := &texts[i].text
			res := &results[i]
			for pi := range text.Paragraphs {
				if err := gctx.Err(); err != nil {
					return err
				}
				if constrained && !allowed[texts[i].id][pi] {
					continue
				}
				frags, stale := searchParagraph(prog, mode, &text.Paragraphs[pi])
				for j := range frags {
					frags[j].TextID = text.ID
				}
				res.fragments = append(res.fragments, frags...)
				res.scanned++
				res.stale += stale
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return services.SearchResult{}, fmt.Errorf("search cancelled: %w", err)
	}

	var all []model.Fragment
	paragraphs := make(map[string]*model.Paragraph)
	scanned, stale := 0, 0
	for i, res := range results {
		all = append(all, res.fragments...)
		scanned += res.scanned
		stale += res.stale
		for pi := range texts[i].text.Paragraphs {
			p := &texts[i].text.Paragraphs[pi]
			paragraphs[texts[i].text.ID+"\x00"+p.ID] = p
		}
	}

	total := len(all)
	from := (page - 1) * pageSize
	if from > total {
		from = total
	}
	to := from + pageSize
	if to > total {
		to = total
	}
	lines := make([]model.ConcordanceLine, 0, to-from)
	for _, f := range all[from:to] {
		lines = append(lines, concordanceLine(f, paragraphs[f.TextID+"\x00"+f.ParagraphID], width))
	}

	took := time.Since(startTime)
	s.logger.Debug("concordance search finished",
		zap.String("corpus", settings.Name),
		zap.String("pattern", pm.Root().String()),
		zap.Int("fragments", total),
		zap.Int("paragraphs_scanned", scanned),
		zap.Duration("took", took))

	return services.SearchResult{
		Lines:             lines,
		Total:             total,
		Page:              page,
		PageSize:          pageSize,
		Took:              took.Milliseconds(),
		QueryId:           uuid.New().String(),
		Pattern:           pm.Root().String(),
		ParagraphsScanned: scanned,
		StaleOccurrences:  stale,
	}, nil
}

type storedText struct {
	id   uint32
	text model.Text
}

// selectTexts snapshots the texts to search together with the paragraphs the
// category index allows. Stored texts are replaced wholesale, never edited in
// place, so the snapshot stays consistent after the lock is released.
func (s *Service) selectTexts(textIDs, categories, tags []string) ([]storedText, []index.ParagraphRef, bool, error) {
	s.textStore.Mu.RLock()
	defer s.textStore.Mu.RUnlock()

	refs, constrained := s.categoryIndex.Candidates(categories, tags)
	if len(textIDs) == 0 {
		ids := s.textStore.IDs()
		out := make([]storedText, 0, len(ids))
		for _, id := range ids {
			out = append(out, storedText{id: id, text: s.textStore.Texts[id]})
		}
		return out, refs, constrained, nil
	}

	out := make([]storedText, 0, len(textIDs))
	seen := make(map[string]bool, len(textIDs))
	for _, ext := range textIDs {
		if seen[ext] {
			continue
		}
		seen[ext] = true
		id, ok := s.textStore.ExternalIDtoInternalID[ext]
		if !ok {
			return nil, nil, false, errors.NewTextNotFoundError(ext, s.settings.Name)
		}
		out = append(out, storedText{id: id, text: s.textStore.Texts[id]})
	}
	return out, refs, constrained, nil
}

// concordanceLine renders f in keyword-in-context form with width characters
// of context on each side.
func concordanceLine(f model.Fragment, p *model.Paragraph, width int) model.ConcordanceLine {
	line := model.ConcordanceLine{Fragment: f}
	if p == nil {
		return line
	}
	line.Left = textadapter.Slice(p.Baseline, f.Begin-width, f.Begin)
	line.Match = textadapter.Slice(p.Baseline, f.Begin, f.End)
	line.Right = textadapter.Slice(p.Baseline, f.End, f.End+width)
	return line
}
