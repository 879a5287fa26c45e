package matcher

import (
	"testing"

	"github.com/gcbaptista/go-concordance-engine/internal/features"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixture is "nihimbilira pus, yalola ban." as four occurrences and six
// morphs: ni|himbilira pus yalo|la ban.
func fixture(tags ...TagSpan) *Sequence {
	b := NewBuilder()
	b.AddOccurrence(Occurrence{Begin: 0, End: 11, Form: "nihimbilira", Category: "verb"}, []Morph{
		{Begin: 0, End: 2, Form: "ni", Gloss: "1SG", Category: "pfx"},
		{Begin: 2, End: 11, Form: "himbilira", Gloss: "sing", Category: "verb"},
	})
	b.AddOccurrence(Occurrence{Begin: 12, End: 15, Form: "pus", Category: "adj"}, []Morph{
		{Begin: 12, End: 15, Form: "pus", Gloss: "white", Category: "adj"},
	})
	b.AddOccurrence(Occurrence{Begin: 17, End: 23, Form: "yalola", Category: "noun",
		Features: features.NewStructure(map[string]features.Value{"tense": features.Sym("pres")})}, []Morph{
		{Begin: 17, End: 21, Form: "yalo", Gloss: "house", Category: "noun"},
		{Begin: 21, End: 23, Form: "la", Entry: "-la", Gloss: "POSS", Category: "sfx"},
	})
	b.AddOccurrence(Occurrence{Begin: 24, End: 27, Form: "ban", Category: "noun"}, []Morph{
		{Begin: 24, End: 27, Form: "ban", Gloss: "dog", Category: "noun"},
	})
	for _, tag := range tags {
		b.AddTag(tag)
	}
	return b.Build()
}

func word(cat string) Inst {
	return Inst{Op: OpWord, Word: &WordTest{Categories: map[string]bool{cat: true}}}
}

func anyMorph() *MorphTest { return &MorphTest{} }

func mustProgram(t *testing.T, insts ...Inst) *Program {
	t.Helper()
	p, err := NewProgram(append(insts, Inst{Op: OpMatch}))
	require.NoError(t, err)
	return p
}

func TestSequenceLayout(t *testing.T) {
	seq := fixture()

	assert.Equal(t, 6, seq.Len())
	assert.Equal(t, 4, seq.OccurrenceCount())

	edges := make([]bool, seq.Len()+1)
	for p := range edges {
		edges[p] = seq.IsWordEdge(p)
	}
	assert.Equal(t, []bool{true, false, true, true, false, true, true}, edges)

	assert.Equal(t, 2, seq.OccurrenceAt(4).MorphCount())
	assert.Equal(t, 3, seq.OccurrenceAt(4).FirstMorph())
	assert.Equal(t, "poss", seq.Morph(4).Gloss, "glosses are folded")

	begin, end := seq.Span(0, 3)
	assert.Equal(t, 0, begin)
	assert.Equal(t, 15, end)
	begin, end = seq.Span(4, 5)
	assert.Equal(t, 17, begin, "spans widen to whole occurrences")
	assert.Equal(t, 23, end)
}

func TestOccurrenceWithoutMorphsIsStale(t *testing.T) {
	b := NewBuilder()
	b.AddOccurrence(Occurrence{Begin: 0, End: 3, Category: "noun"}, nil)
	seq := b.Build()

	require.Equal(t, 1, seq.Len())
	assert.True(t, seq.Occurrence(0).Stale)
	assert.Empty(t, mustProgram(t, word("noun")).Ends(seq, 0))
}

func TestTagSpanValidation(t *testing.T) {
	seq := fixture(
		TagSpan{Possibility: "topic", BeginOccurrence: 2, BeginMorph: 0, EndOccurrence: 3, EndMorph: 0},
		TagSpan{Possibility: "bad", BeginOccurrence: 3, BeginMorph: 0, EndOccurrence: 1, EndMorph: 0},
		TagSpan{Possibility: "bad", BeginOccurrence: 0, BeginMorph: 0, EndOccurrence: 9, EndMorph: 0},
		TagSpan{Possibility: "bad", BeginOccurrence: 1, BeginMorph: 1, EndOccurrence: 1, EndMorph: 1},
		TagSpan{Possibility: "bad", BeginOccurrence: -1, BeginMorph: 0, EndOccurrence: 0, EndMorph: 0},
		TagSpan{Possibility: "bad", BeginOccurrence: 2, BeginMorph: 1, EndOccurrence: 2, EndMorph: 0},
	)

	assert.Equal(t, 1, seq.TagCount())
	assert.Equal(t, 5, seq.InvalidTags())
	assert.Equal(t, []string{"topic"}, seq.TagPossibilities())

	assert.True(t, seq.inTag(3, "topic"))
	assert.True(t, seq.inTag(5, ""))
	assert.False(t, seq.inTag(2, "topic"))
	assert.False(t, seq.inTag(6, "topic"))
	assert.False(t, seq.inTag(3, "bad"))
}

func TestNewProgramErrors(t *testing.T) {
	tests := []struct {
		name  string
		insts []Inst
	}{
		{"empty", nil},
		{"no trailing match", []Inst{word("verb")}},
		{"split out of range", []Inst{{Op: OpSplit, X: 1, Y: 7}, {Op: OpMatch}}},
		{"jump out of range", []Inst{{Op: OpJump, X: -1}, {Op: OpMatch}}},
		{"word without test", []Inst{{Op: OpWord}, {Op: OpMatch}}},
		{"morph without test", []Inst{{Op: OpMorph}, {Op: OpMatch}}},
		{"bad run", []Inst{{Op: OpMorphRun, Morph: anyMorph(), Min: 2, Max: 1}, {Op: OpMatch}}},
		{"unknown op", []Inst{{Op: Op(99)}, {Op: OpMatch}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProgram(tt.insts)
			assert.Error(t, err)
		})
	}
}

func TestWordConsumesWholeOccurrence(t *testing.T) {
	seq := fixture()
	p := mustProgram(t, word("noun"))

	assert.Equal(t, []int{5}, p.Ends(seq, 3))
	assert.Empty(t, p.Ends(seq, 4), "word cannot start inside an occurrence")
	assert.Equal(t, []int{6}, p.Ends(seq, 5))
	assert.Empty(t, p.Ends(seq, 6))
	assert.Empty(t, p.Ends(seq, 0))
}

func TestWordTest(t *testing.T) {
	seq := fixture()
	yalola := seq.Occurrence(2)

	tests := []struct {
		name string
		test WordTest
		want bool
	}{
		{"unconstrained", WordTest{}, true},
		{"category", WordTest{Categories: map[string]bool{"noun": true}}, true},
		{"negated category", WordTest{Categories: map[string]bool{"noun": true}, NegateCategory: true}, false},
		{"negated other category", WordTest{Categories: map[string]bool{"verb": true}, NegateCategory: true}, true},
		{"form", WordTest{Form: "yalola"}, true},
		{"wrong form", WordTest{Form: "ban"}, false},
		{"features", WordTest{Features: features.NewStructure(map[string]features.Value{"tense": features.Sym("pres")})}, true},
		{"negated features", WordTest{Features: features.NewStructure(map[string]features.Value{"tense": features.Not("pres")})}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.test.Match(yalola))
		})
	}
}

func TestMorphTest(t *testing.T) {
	seq := fixture()
	la := seq.Morph(4)

	assert.True(t, (&MorphTest{Gloss: "poss"}).Match(la))
	assert.True(t, (&MorphTest{Entry: "-la", Form: "la"}).Match(la))
	assert.False(t, (&MorphTest{Form: "yalo"}).Match(la))
	assert.True(t, (&MorphTest{Categories: map[string]bool{"noun": true}, NegateCategory: true}).Match(la))
	assert.False(t, (&MorphTest{Categories: map[string]bool{"sfx": true}, NegateCategory: true, Gloss: "poss"}).Match(la))
}

func TestMorphCursorStaysInsideOneWord(t *testing.T) {
	seq := fixture()

	adjacent := mustProgram(t,
		Inst{Op: OpMorph, Morph: &MorphTest{Form: "himbilira"}},
		Inst{Op: OpMorph, Morph: &MorphTest{Form: "pus"}},
	)
	assert.Empty(t, adjacent.Ends(seq, 1))

	inside := mustProgram(t,
		Inst{Op: OpMorph, Morph: &MorphTest{Form: "yalo"}},
		Inst{Op: OpMorph, Morph: &MorphTest{Form: "la"}},
	)
	assert.Equal(t, []int{5}, inside.Ends(seq, 3))

	// A boundary or a word closes the cursor, so the next morph opens a new one.
	viaBoundary := mustProgram(t,
		Inst{Op: OpMorph, Morph: &MorphTest{Form: "himbilira"}},
		Inst{Op: OpBoundary},
		Inst{Op: OpMorph, Morph: &MorphTest{Form: "pus"}},
	)
	assert.Equal(t, []int{3}, viaBoundary.Ends(seq, 1))

	viaWord := mustProgram(t,
		Inst{Op: OpMorph, Morph: &MorphTest{Form: "himbilira"}},
		word("adj"),
		Inst{Op: OpMorph, Morph: &MorphTest{Form: "yalo"}},
	)
	assert.Equal(t, []int{4}, viaWord.Ends(seq, 1))
}

func TestMorphRunMatchesRepeatedMorphs(t *testing.T) {
	seq := fixture()
	lead := Inst{Op: OpMorph, Morph: &MorphTest{Gloss: "sing"}}

	tests := []struct {
		min, max int
	}{
		{1, 1}, {2, 2}, {0, 2}, {1, 3}, {0, 0},
	}
	for _, tt := range tests {
		run := mustProgram(t, lead, Inst{Op: OpMorphRun, Morph: anyMorph(), Min: tt.min, Max: tt.max})

		insts := []Inst{lead}
		for i := 0; i < tt.min; i++ {
			insts = append(insts, Inst{Op: OpMorph, Morph: anyMorph()})
		}
		var splits []int
		for i := tt.min; i < tt.max; i++ {
			splits = append(splits, len(insts))
			insts = append(insts, Inst{Op: OpSplit, X: len(insts) + 1}, Inst{Op: OpMorph, Morph: anyMorph()})
		}
		for _, s := range splits {
			insts[s].Y = len(insts)
		}
		unrolled := mustProgram(t, insts...)

		for start := 0; start <= seq.Len(); start++ {
			assert.Equal(t, unrolled.Ends(seq, start), run.Ends(seq, start),
				"{%d,%d} from %d", tt.min, tt.max, start)
		}
	}
}

func TestMorphRunStaysInsideOneWord(t *testing.T) {
	seq := fixture()
	p := mustProgram(t, Inst{Op: OpMorphRun, Morph: anyMorph(), Min: 0, Max: Unbounded})

	assert.Equal(t, []int{0, 1, 2}, p.Ends(seq, 0))
	assert.Equal(t, []int{1, 2}, p.Ends(seq, 1))
	assert.Equal(t, []int{3, 4, 5}, p.Ends(seq, 3))
	assert.Equal(t, []int{6}, p.Ends(seq, 6))

	bounded := mustProgram(t, Inst{Op: OpMorphRun, Morph: anyMorph(), Min: 2, Max: 2})
	assert.Equal(t, []int{2}, bounded.Ends(seq, 0))
	assert.Empty(t, bounded.Ends(seq, 2), "pus has a single morph")

	filtered := mustProgram(t, Inst{Op: OpMorphRun, Morph: &MorphTest{Gloss: "poss"}, Min: 1, Max: Unbounded})
	assert.Empty(t, filtered.Ends(seq, 3))
	assert.Equal(t, []int{5}, filtered.Ends(seq, 4))
}

func TestBoundaryHoldsOncePerPosition(t *testing.T) {
	seq := fixture()

	single := mustProgram(t, Inst{Op: OpBoundary})
	assert.Equal(t, []int{0}, single.Ends(seq, 0))
	assert.Empty(t, single.Ends(seq, 1))
	assert.Equal(t, []int{6}, single.Ends(seq, 6))

	double := mustProgram(t, Inst{Op: OpBoundary}, Inst{Op: OpBoundary})
	for start := 0; start <= seq.Len(); start++ {
		assert.Empty(t, double.Ends(seq, start), "start %d", start)
	}

	separated := mustProgram(t, Inst{Op: OpBoundary}, word("verb"), Inst{Op: OpBoundary})
	assert.Equal(t, []int{2}, separated.Ends(seq, 0))
}

func TestTagIsZeroWidth(t *testing.T) {
	seq := fixture(TagSpan{Possibility: "topic", BeginOccurrence: 2, BeginMorph: 0, EndOccurrence: 2, EndMorph: 1})

	p := mustProgram(t, Inst{Op: OpTag, Tag: "topic"}, word("noun"))
	assert.Equal(t, []int{5}, p.Ends(seq, 3))
	assert.Empty(t, p.Ends(seq, 5))

	anyTag := mustProgram(t, Inst{Op: OpTag})
	assert.Equal(t, []int{4}, anyTag.Ends(seq, 4))
}

func TestSplitReturnsUnionOfBranches(t *testing.T) {
	seq := fixture()
	// split(noun | verb)
	p := mustProgram(t,
		Inst{Op: OpSplit, X: 1, Y: 3},
		word("noun"),
		Inst{Op: OpJump, X: 4},
		word("verb"),
	)

	assert.Equal(t, []int{2}, p.Ends(seq, 0))
	assert.Equal(t, []int{5}, p.Ends(seq, 3))
	assert.Empty(t, p.Ends(seq, 2))
}

func TestUnboundedLoopReturnsEveryCount(t *testing.T) {
	seq := fixture()
	// (Word)* : 0: split 1, 3; 1: word; 2: jump 0; 3: match
	p := mustProgram(t,
		Inst{Op: OpSplit, X: 1, Y: 3},
		Inst{Op: OpWord, Word: &WordTest{}},
		Inst{Op: OpJump, X: 0},
	)
	assert.Equal(t, []int{0, 2, 3, 5, 6}, p.Ends(seq, 0))
}

func TestZeroWidthLoopTerminates(t *testing.T) {
	seq := fixture()
	// (#)* never consumes; the visited set stops the loop.
	p := mustProgram(t,
		Inst{Op: OpSplit, X: 1, Y: 3},
		Inst{Op: OpBoundary},
		Inst{Op: OpJump, X: 0},
	)
	assert.Equal(t, []int{0}, p.Ends(seq, 0))
}

func TestStaleOccurrenceBlocksOnlyItself(t *testing.T) {
	b := NewBuilder()
	b.AddOccurrence(Occurrence{Begin: 0, End: 3, Category: "noun"}, []Morph{{Begin: 0, End: 3}})
	b.AddOccurrence(Occurrence{Begin: 4, End: 7, Category: "noun", Stale: true}, []Morph{{Begin: 4, End: 7}})
	b.AddOccurrence(Occurrence{Begin: 8, End: 11, Category: "noun"}, []Morph{{Begin: 8, End: 11}})
	seq := b.Build()

	p := mustProgram(t, word("noun"))
	assert.Equal(t, []int{1}, p.Ends(seq, 0))
	assert.Empty(t, p.Ends(seq, 1))
	assert.Equal(t, []int{3}, p.Ends(seq, 2))

	m := mustProgram(t, Inst{Op: OpMorph, Morph: anyMorph()})
	assert.Empty(t, m.Ends(seq, 1))

	run := mustProgram(t, Inst{Op: OpMorphRun, Morph: anyMorph(), Min: 1, Max: Unbounded})
	assert.Empty(t, run.Ends(seq, 1))
}

func TestRunnerIsReusable(t *testing.T) {
	seq := fixture()
	p := mustProgram(t, word("noun"))
	r := p.NewRunner(seq)

	assert.Equal(t, []int{5}, r.Ends(3))
	assert.Equal(t, []int{6}, r.Ends(5))
	assert.Equal(t, []int{5}, r.Ends(3))
	assert.Nil(t, r.Ends(-1))
	assert.Nil(t, r.Ends(7))
}

func TestConsumingAndFurthest(t *testing.T) {
	assert.Equal(t, []int{3, 5}, Consuming([]int{1, 2, 3, 5}, 2))
	assert.Empty(t, Consuming([]int{2}, 2))
	assert.Equal(t, 5, Furthest([]int{2, 3, 5}, 2))
	assert.Equal(t, -1, Furthest([]int{2}, 2))
	assert.Equal(t, -1, Furthest(nil, 0))
}

func TestProgramString(t *testing.T) {
	p := mustProgram(t,
		Inst{Op: OpSplit, X: 1, Y: 2},
		Inst{Op: OpMorphRun, Morph: anyMorph(), Min: 0, Max: Unbounded},
		Inst{Op: OpTag, Tag: "topic"},
	)
	assert.Equal(t, "  0  split 1, 2\n  1  morphrun {0,}\n  2  tag \"topic\"\n  3  match\n", p.String())
	assert.Equal(t, 4, p.Len())
}
