package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-concordance-engine/config"
	"github.com/gcbaptista/go-concordance-engine/index"
	"github.com/gcbaptista/go-concordance-engine/internal/errors"
	"github.com/gcbaptista/go-concordance-engine/internal/indexing"
	"github.com/gcbaptista/go-concordance-engine/internal/pattern"
	testutil "github.com/gcbaptista/go-concordance-engine/internal/testing"
	"github.com/gcbaptista/go-concordance-engine/model"
	"github.com/gcbaptista/go-concordance-engine/services"
	"github.com/gcbaptista/go-concordance-engine/store"
)

// setupTestSearchService creates a search service over the given texts,
// indexed the way a corpus indexes them.
func setupTestSearchService(t *testing.T, texts ...model.Text) *Service {
	t.Helper()
	settings := testutil.FixtureSettings("test_corpus")
	tree, err := settings.CategoryTree()
	require.NoError(t, err)

	catIndex := index.NewCategoryIndex()
	textStore := store.NewTextStore()
	indexer, err := indexing.NewService(catIndex, textStore, tree)
	require.NoError(t, err)
	require.NoError(t, indexer.AddTexts(texts))

	s, err := NewService(catIndex, textStore, &settings, nil)
	require.NoError(t, err)
	return s
}

func query(nodes ...pattern.Node) services.SearchQuery {
	return services.SearchQuery{Pattern: &pattern.Root{Children: nodes}}
}

func plainText(id, baseline, category string) model.Text {
	return model.Text{ID: id, Paragraphs: []model.Paragraph{{
		ID:       "p1",
		Baseline: baseline,
		Segments: []model.Segment{{Begin: 0, End: len([]rune(baseline)), Occurrences: []model.Occurrence{
			{Begin: 0, End: len([]rune(baseline)), Category: category, Morphs: []model.Morph{{Form: baseline}}},
		}}},
	}}}
}

func TestNewServiceRejectsNil(t *testing.T) {
	settings := testutil.FixtureSettings("x")
	_, err := NewService(nil, store.NewTextStore(), &settings, nil)
	assert.Error(t, err)
	_, err = NewService(index.NewCategoryIndex(), nil, &settings, nil)
	assert.Error(t, err)
	_, err = NewService(index.NewCategoryIndex(), store.NewTextStore(), nil, nil)
	assert.Error(t, err)
}

func TestServiceSearch(t *testing.T) {
	s := setupTestSearchService(t, testutil.FixtureText("t1"), testutil.FixtureText("t2"))

	width := 5
	q := query(&pattern.Word{Category: "adj"})
	q.ContextWidth = &width
	result, err := s.Search(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Total)
	assert.Equal(t, `(Word[cat="adj"])`, result.Pattern)
	assert.NotEmpty(t, result.QueryId)
	assert.Equal(t, 2, result.ParagraphsScanned)
	require.Len(t, result.Lines, 2)

	line := result.Lines[0]
	assert.Equal(t, "t1", line.TextID)
	assert.Equal(t, "p1", line.ParagraphID)
	assert.Equal(t, "lira ", line.Left)
	assert.Equal(t, "pus", line.Match)
	assert.Equal(t, ", yal", line.Right)
	assert.Equal(t, "t2", result.Lines[1].TextID)
}

func TestServiceSearchPrefiltersParagraphs(t *testing.T) {
	s := setupTestSearchService(t,
		testutil.FixtureText("t1"),
		plainText("t2", "juma", "propn"),
		plainText("t3", "upesi", "adv"),
	)

	result, err := s.Search(context.Background(), query(&pattern.Word{Category: "noun"}))
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total, "propn counts as a noun")
	assert.Equal(t, 2, result.ParagraphsScanned, "the adverb text is never read")

	result, err = s.Search(context.Background(), query(&pattern.WordBoundary{}, &pattern.Word{}))
	require.NoError(t, err)
	assert.Equal(t, 3, result.ParagraphsScanned, "unconstrained patterns scan everything")
	assert.Equal(t, 6, result.Total)
}

func TestServiceSearchPagination(t *testing.T) {
	s := setupTestSearchService(t, testutil.FixtureText("t1"))

	q := query(&pattern.Word{})
	q.Page = 2
	q.PageSize = 3
	result, err := s.Search(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Total)
	require.Len(t, result.Lines, 1)
	assert.Equal(t, testutil.SpanBan[0], result.Lines[0].Begin)

	q.Page = 5
	result, err = s.Search(context.Background(), q)
	require.NoError(t, err)
	assert.Empty(t, result.Lines)

	q.Page, q.PageSize = 0, 0
	result, err = s.Search(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, defaultPageSize, result.PageSize)
}

func TestServiceSearchRestrictsTexts(t *testing.T) {
	s := setupTestSearchService(t, testutil.FixtureText("t1"), testutil.FixtureText("t2"))

	q := query(&pattern.Word{Category: "verb"})
	q.TextIDs = []string{"t2", "t2"}
	result, err := s.Search(context.Background(), q)
	require.NoError(t, err)
	require.Equal(t, 1, result.Total)
	assert.Equal(t, "t2", result.Lines[0].TextID)

	q.TextIDs = []string{"missing"}
	_, err = s.Search(context.Background(), q)
	assert.ErrorIs(t, err, errors.ErrTextNotFound)
}

func TestServiceSearchOverlapOverride(t *testing.T) {
	s := setupTestSearchService(t, testutil.FixtureText("t1"))

	q := query(groupPattern()...)
	result, err := s.Search(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)

	q.OverlapMode = config.OverlapAllStarts
	result, err = s.Search(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)

	q.OverlapMode = "bogus"
	_, err = s.Search(context.Background(), q)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestServiceSearchReportsStaleOccurrences(t *testing.T) {
	text := testutil.FixtureText("t1")
	text.Paragraphs[0].Baseline = "nihimbilira pus, yalola bun."
	s := setupTestSearchService(t, text)

	result, err := s.Search(context.Background(), query(&pattern.Word{}))
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 1, result.StaleOccurrences)
}

func TestServiceSearchErrors(t *testing.T) {
	s := setupTestSearchService(t, testutil.FixtureText("t1"))

	_, err := s.Search(context.Background(), services.SearchQuery{})
	assert.ErrorIs(t, err, errors.ErrInvalidPattern)

	_, err = s.Search(context.Background(), query(&pattern.Word{Category: "conj"}))
	assert.ErrorIs(t, err, errors.ErrInvalidPattern)

	negative := -1
	q := query(&pattern.Word{})
	q.ContextWidth = &negative
	_, err = s.Search(context.Background(), q)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestServiceSearchHonoursCancellation(t *testing.T) {
	s := setupTestSearchService(t, testutil.FixtureText("t1"), testutil.FixtureText("t2"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Search(ctx, query(&pattern.Word{}))
	assert.ErrorIs(t, err, context.Canceled)
}
