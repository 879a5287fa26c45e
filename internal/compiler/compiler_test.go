package compiler

import (
	"testing"

	"github.com/gcbaptista/go-concordance-engine/config"
	"github.com/gcbaptista/go-concordance-engine/internal/errors"
	"github.com/gcbaptista/go-concordance-engine/internal/features"
	"github.com/gcbaptista/go-concordance-engine/internal/matcher"
	"github.com/gcbaptista/go-concordance-engine/internal/pattern"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCategories map[string][]string

func (f fakeCategories) Known(id string) bool {
	_, ok := f[id]
	return ok
}

func (f fakeCategories) Expand(id string) []string {
	return append([]string{id}, f[id]...)
}

// nouns builds a segment of n single-morph nouns.
func nouns(n int) *matcher.Sequence {
	b := matcher.NewBuilder()
	for i := 0; i < n; i++ {
		b.AddOccurrence(matcher.Occurrence{Begin: i * 2, End: i*2 + 1, Category: "noun"},
			[]matcher.Morph{{Begin: i * 2, End: i*2 + 1}})
	}
	return b.Build()
}

func root(children ...pattern.Node) *pattern.Root {
	return &pattern.Root{Children: children}
}

func TestCompileRejectsMalformedTrees(t *testing.T) {
	tests := []struct {
		name     string
		root     *pattern.Root
		wantPath string
		wantMsg  string
	}{
		{"nil", nil, "", "pattern is nil"},
		{"empty", root(), "root", "pattern is empty"},
		{"min greater than max", root(&pattern.Word{Repeat: pattern.Repeat(3, 1)}), "root.children[0]", "minimum 3 exceeds maximum 1"},
		{"negative min", root(&pattern.Morph{Repeat: pattern.Repeat(-1, 2)}), "root.children[0]", "negative minimum"},
		{"max below unbounded", root(&pattern.Tag{Repeat: pattern.Repeat(0, -3)}), "root.children[0]", "exceeds maximum"},
		{"group min greater than max", root(&pattern.Group{Repeat: pattern.Repeat(2, 1), Children: []pattern.Node{&pattern.Word{}}}), "root.children[0]", "group quantifier"},
		{"leading or", root(&pattern.Or{}, &pattern.Word{}), "root.children[0]", "no branch before"},
		{"trailing or", root(&pattern.Word{}, &pattern.Or{}), "root.children[1]", "no branch after"},
		{"doubled or", root(&pattern.Word{}, &pattern.Or{}, &pattern.Or{}, &pattern.Word{}), "root.children[2]", "empty branch"},
		{"or alone in group", root(&pattern.Group{Children: []pattern.Node{&pattern.Or{}}}), "root.children[0].children[0]", "no branch before"},
		{"nested root", root(&pattern.Root{Children: []pattern.Node{&pattern.Word{}}}), "root.children[0]", "cannot be nested"},
		{"empty group", root(&pattern.Group{}), "root.children[0]", "group is empty"},
		{"nil child", root(&pattern.Word{}, nil), "root.children[1]", "node is nil"},
		{"deep error path", root(&pattern.Group{Children: []pattern.Node{&pattern.Word{}, &pattern.Group{Children: []pattern.Node{&pattern.Morph{Repeat: pattern.Repeat(5, 4)}}}}}), "root.children[0].children[1].children[0]", "minimum 5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := Compile(tt.root, Options{})
			require.Error(t, err)
			assert.Nil(t, prog)
			assert.ErrorIs(t, err, errors.ErrInvalidPattern)

			var perr *errors.PatternError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.wantPath, perr.Path)
			assert.Contains(t, perr.Message, tt.wantMsg)
		})
	}
}

func TestCompileChecksInventories(t *testing.T) {
	sys, err := features.NewSystem([]features.Defn{
		{ID: "tense", Kind: features.DefnClosed, Symbols: []string{"pres", "past"}},
	})
	require.NoError(t, err)
	opts := Options{
		Features:   sys,
		Categories: fakeCategories{"noun": nil, "verb": nil},
		Tags:       map[string]bool{"topic": true},
	}

	tests := []struct {
		name    string
		node    pattern.Node
		wantMsg string
	}{
		{"unknown word category", &pattern.Word{Category: "adv"}, "unknown category 'adv'"},
		{"unknown morph category", &pattern.Morph{Category: "sfx"}, "unknown category 'sfx'"},
		{"unknown tag", &pattern.Tag{Possibility: "focus"}, "unknown tag 'focus'"},
		{"undeclared feature", &pattern.Word{InflFeatures: features.NewStructure(map[string]features.Value{"mood": features.Sym("irr")})}, "unknown feature 'mood'"},
		{"undeclared symbol", &pattern.Word{InflFeatures: features.NewStructure(map[string]features.Value{"tense": features.Not("fut")})}, "undeclared symbol 'fut'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(root(tt.node), opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}

	_, err = Compile(root(
		&pattern.Word{Category: "noun", InflFeatures: features.NewStructure(map[string]features.Value{"tense": features.Sym("pres")})},
		&pattern.Tag{Possibility: "topic"},
		&pattern.Tag{},
	), opts)
	assert.NoError(t, err)
}

func TestUnknownNamesSuggestCloseMatches(t *testing.T) {
	tree, err := config.NewCategoryTree([]config.CategoryDefn{{ID: "noun"}, {ID: "propn", Parent: "noun"}, {ID: "verb"}})
	require.NoError(t, err)
	opts := Options{Categories: tree, Tags: map[string]bool{"topic": true, "focus": true}}

	_, err = Compile(root(&pattern.Word{Category: "nuon"}), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown category 'nuon' (did you mean 'noun'?)")

	_, err = Compile(root(&pattern.Tag{Possibility: "focsu"}), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown tag 'focsu' (did you mean 'focus'?)")

	_, err = Compile(root(&pattern.Morph{Category: "adjective"}), opts)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "did you mean")
}

func TestCompileIsDeterministic(t *testing.T) {
	tree := root(
		&pattern.Group{Repeat: pattern.Repeat(1, 2), Children: []pattern.Node{
			&pattern.Word{Category: "verb"}, &pattern.Or{}, &pattern.Word{Category: "adj"},
		}},
		&pattern.Word{Category: "noun"},
	)

	first, err := Compile(tree, Options{})
	require.NoError(t, err)
	second, err := Compile(tree, Options{})
	require.NoError(t, err)
	assert.Equal(t, first.String(), second.String())
}

func TestLoweringLayout(t *testing.T) {
	prog, err := Compile(root(
		&pattern.Word{Category: "noun"}, &pattern.Or{}, &pattern.Word{Category: "verb"},
	), Options{})
	require.NoError(t, err)
	assert.Equal(t, "  0  split 1, 3\n  1  word\n  2  jump 4\n  3  word\n  4  match\n", prog.String())

	run, err := Compile(root(&pattern.WordBoundary{}, &pattern.Morph{Repeat: pattern.Repeat(0, pattern.Unbounded)}), Options{})
	require.NoError(t, err)
	assert.Equal(t, "  0  boundary\n  1  morphrun {0,}\n  2  match\n", run.String())
}

func TestQuantifiersExploreEveryCount(t *testing.T) {
	seq := nouns(5)

	tests := []struct {
		name string
		q    *pattern.Quantifier
		want []int
	}{
		{"default once", nil, []int{1}},
		{"exactly two", pattern.Repeat(2, 2), []int{2}},
		{"optional", pattern.Repeat(0, 1), []int{0, 1}},
		{"range", pattern.Repeat(1, 3), []int{1, 2, 3}},
		{"unbounded", pattern.Repeat(2, pattern.Unbounded), []int{2, 3, 4, 5}},
		{"zero", pattern.Repeat(0, 0), []int{0}},
		{"more than available", pattern.Repeat(6, 7), []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := Compile(root(&pattern.Word{Repeat: tt.q, Category: "noun"}), Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, prog.Ends(seq, 0))
		})
	}
}

func TestGroupRepeatsWholeBody(t *testing.T) {
	seq := nouns(5)
	prog, err := Compile(root(&pattern.Group{
		Repeat:   pattern.Repeat(1, pattern.Unbounded),
		Children: []pattern.Node{&pattern.Word{}, &pattern.Word{}},
	}), Options{})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4}, prog.Ends(seq, 0))
}

func TestNestedAlternationInGroup(t *testing.T) {
	b := matcher.NewBuilder()
	for i, cat := range []string{"verb", "adj", "noun"} {
		b.AddOccurrence(matcher.Occurrence{Begin: i * 4, End: i*4 + 3, Category: cat}, []matcher.Morph{{Begin: i * 4, End: i*4 + 3}})
	}
	seq := b.Build()

	prog, err := Compile(root(
		&pattern.Group{Repeat: pattern.Repeat(1, 2), Children: []pattern.Node{
			&pattern.Word{Category: "verb"}, &pattern.Or{}, &pattern.Word{Category: "adj"},
		}},
		&pattern.Word{Category: "noun"},
	), Options{})
	require.NoError(t, err)

	assert.Equal(t, []int{3}, prog.Ends(seq, 0))
	assert.Equal(t, []int{3}, prog.Ends(seq, 1))
	assert.Empty(t, prog.Ends(seq, 2))
}

func TestHierarchicalCategories(t *testing.T) {
	b := matcher.NewBuilder()
	b.AddOccurrence(matcher.Occurrence{Begin: 0, End: 3, Category: "propn"}, []matcher.Morph{{Begin: 0, End: 3, Category: "propn"}})
	seq := b.Build()
	opts := Options{Categories: fakeCategories{"noun": {"propn"}, "propn": nil}}

	prog, err := Compile(root(&pattern.Word{Category: "noun"}), opts)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, prog.Ends(seq, 0))

	negated, err := Compile(root(&pattern.Morph{Category: "noun", NegateCategory: true}), opts)
	require.NoError(t, err)
	assert.Empty(t, negated.Ends(seq, 0))
}

func TestFormsAreFolded(t *testing.T) {
	b := matcher.NewBuilder()
	b.AddOccurrence(matcher.Occurrence{Begin: 0, End: 6, Form: "Yalola", Gloss: "House"},
		[]matcher.Morph{{Begin: 0, End: 4, Form: "yalo"}, {Begin: 4, End: 6, Form: "la", Gloss: "POSS"}})
	seq := b.Build()

	prog, err := Compile(root(&pattern.Word{Form: "YALOLA", Gloss: "house"}), Options{})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, prog.Ends(seq, 0))

	morph, err := Compile(root(&pattern.Morph{Gloss: "poss"}), Options{})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, morph.Ends(seq, 1))
}

func TestMaxProgramSize(t *testing.T) {
	_, err := Compile(root(&pattern.Word{Repeat: pattern.Repeat(0, 50)}), Options{MaxProgramSize: 20})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidPattern)
	assert.Contains(t, err.Error(), "beyond 20 instructions")

	_, err = Compile(root(&pattern.Word{Repeat: pattern.Repeat(0, 50)}), Options{})
	assert.NoError(t, err)
}

func TestRequiredCategoriesAndTags(t *testing.T) {
	prog, err := Compile(root(
		&pattern.Word{Category: "verb"},
		&pattern.Word{Category: "adj", Repeat: pattern.Repeat(0, 1)},
		&pattern.Word{Category: "pron", NegateCategory: true},
		&pattern.Group{Children: []pattern.Node{&pattern.Word{Category: "noun"}, &pattern.Tag{Possibility: "topic"}}},
		&pattern.Group{Children: []pattern.Node{&pattern.Word{Category: "adv"}, &pattern.Or{}, &pattern.Word{Category: "conj"}}},
	), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"noun", "verb"}, prog.RequiredCategories)
	assert.Equal(t, []string{"topic"}, prog.RequiredTags)

	alt, err := Compile(root(&pattern.Word{Category: "noun"}, &pattern.Or{}, &pattern.Word{Category: "verb"}), Options{})
	require.NoError(t, err)
	assert.Nil(t, alt.RequiredCategories)
}
