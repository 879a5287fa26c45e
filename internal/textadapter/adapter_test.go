package textadapter

import (
	"testing"

	"github.com/gcbaptista/go-concordance-engine/internal/features"
	testutil "github.com/gcbaptista/go-concordance-engine/internal/testing"
	"github.com/gcbaptista/go-concordance-engine/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceAndChecksum(t *testing.T) {
	assert.Equal(t, "pus", Slice(testutil.FixtureBaseline, 12, 15))
	assert.Equal(t, "", Slice("abc", 2, 1))
	assert.Equal(t, "abc", Slice("abc", -5, 99))
	assert.Equal(t, "é", Slice("café", 3, 4), "offsets count characters")

	assert.Equal(t, Checksum("xx pus", 3, 6), Checksum("pus", 0, 3))
	assert.NotEqual(t, Checksum("pus", 0, 3), Checksum("ban", 0, 3))
}

func TestAdaptFixture(t *testing.T) {
	p := testutil.FixtureParagraph()
	segs := Adapt(&p)
	require.Len(t, segs, 1)

	seg := segs[0]
	assert.False(t, seg.Trusted, "fixture records no checksum")
	assert.Zero(t, seg.StaleOccurrences)

	seq := seg.Sequence
	assert.Equal(t, 4, seq.OccurrenceCount())
	assert.Equal(t, 6, seq.Len())

	yalola := seq.Occurrence(2)
	want := features.NewStructure(map[string]features.Value{
		"tense":   features.Sym("pres"),
		"nounAgr": features.Nest(map[string]features.Value{"num": features.Sym("sg")}),
	})
	assert.True(t, yalola.Features.Equal(want), "word features merge morph features, got %s", yalola.Features)

	pus := seq.Occurrence(1)
	assert.Equal(t, 12, seq.Morph(pus.FirstMorph()).Begin, "morphs without spans inherit the word span")
	assert.Equal(t, 15, seq.Morph(pus.FirstMorph()).End)
	assert.Equal(t, "white", pus.Gloss, "single-morph words take the morph gloss")
}

func TestAdaptDerivesMissingWordData(t *testing.T) {
	p := model.Paragraph{
		ID:       "p",
		Baseline: "Kalamu yangu",
		Segments: []model.Segment{{
			Begin: 0, End: 12,
			Occurrences: []model.Occurrence{
				{Begin: 0, End: 6, Morphs: []model.Morph{{Form: "kalamu", Category: "noun"}}},
				{Begin: 7, End: 12, Morphs: []model.Morph{{Form: "ya", Category: "pron"}, {Form: "ngu", Category: "pss"}}},
			},
		}},
	}
	seq := Adapt(&p)[0].Sequence

	assert.Equal(t, "kalamu", seq.Occurrence(0).Form, "form defaults to the folded baseline slice")
	assert.Equal(t, "noun", seq.Occurrence(0).Category)
	assert.Equal(t, "", seq.Occurrence(1).Category, "several categorised morphs leave the word uncategorised")
}

func TestChecksumFastPath(t *testing.T) {
	p := testutil.FixtureParagraph()
	p.Segments[0].BaselineChecksum = Checksum(p.Baseline, 0, len(p.Baseline))
	// A wrong form would mark the word stale if it were checked.
	p.Segments[0].Occurrences[1].Form = "PUZ"

	seg := Adapt(&p)[0]
	assert.True(t, seg.Trusted)
	assert.Zero(t, seg.StaleOccurrences)
	assert.False(t, seg.Sequence.Occurrence(1).Stale)
}

func TestChecksumFastPathStillChecksSpans(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(o []model.Occurrence)
		wantStale []int
	}{
		{"empty span", func(o []model.Occurrence) { o[1].Begin = 15 }, []int{1}},
		{"inverted span", func(o []model.Occurrence) { o[1].Begin, o[1].End = 15, 12 }, []int{1}},
		{"overlaps predecessor", func(o []model.Occurrence) { o[2].Begin = 14 }, []int{2}},
		{"no morphs", func(o []model.Occurrence) { o[3].Morphs = nil }, []int{3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testutil.FixtureParagraph()
			p.Segments[0].BaselineChecksum = Checksum(p.Baseline, 0, len(p.Baseline))
			tt.mutate(p.Segments[0].Occurrences)

			seg := Adapt(&p)[0]
			require.True(t, seg.Trusted)

			var stale []int
			for i := 0; i < seg.Sequence.OccurrenceCount(); i++ {
				if seg.Sequence.Occurrence(i).Stale {
					stale = append(stale, i)
				}
			}
			assert.Equal(t, tt.wantStale, stale)
		})
	}
}

func TestStaleDetection(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(p *model.Paragraph)
		wantStale []int
	}{
		{"baseline edited", func(p *model.Paragraph) {
			p.Baseline = "nihimbilira pos, yalola ban."
		}, []int{1}},
		{"checksum out of date", func(p *model.Paragraph) {
			p.Segments[0].BaselineChecksum = 42
			p.Baseline = "nihimbilira pus, yalolo ban."
		}, []int{2}},
		{"span past paragraph", func(p *model.Paragraph) {
			p.Segments[0].Occurrences[3].End = 99
		}, []int{3}},
		{"empty span", func(p *model.Paragraph) {
			p.Segments[0].Occurrences[0].End = 0
		}, []int{0}},
		{"overlaps predecessor", func(p *model.Paragraph) {
			p.Segments[0].Occurrences[1].Begin = 10
			p.Segments[0].Occurrences[1].Form = ""
		}, []int{1}},
		{"no morphs", func(p *model.Paragraph) {
			p.Segments[0].Occurrences[2].Morphs = nil
		}, []int{2}},
		{"outside segment", func(p *model.Paragraph) {
			p.Segments[0].End = 20
		}, []int{2, 3}},
		{"baseline truncated", func(p *model.Paragraph) {
			p.Baseline = "nihimbilira pus"
		}, []int{2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testutil.FixtureParagraph()
			tt.mutate(&p)

			var seg Segment
			require.NotPanics(t, func() { seg = Adapt(&p)[0] })

			var stale []int
			for i := 0; i < seg.Sequence.OccurrenceCount(); i++ {
				if seg.Sequence.Occurrence(i).Stale {
					stale = append(stale, i)
				}
			}
			assert.Equal(t, tt.wantStale, stale)
			assert.Equal(t, len(tt.wantStale), seg.StaleOccurrences)
		})
	}
}

func TestAdaptTags(t *testing.T) {
	p := testutil.FixtureParagraph()
	p.Segments[0].Tags = []model.TagSpan{
		{Possibility: "topic", BeginOccurrence: 2, BeginMorph: 0, EndOccurrence: 3, EndMorph: 0},
		{Possibility: "focus", BeginOccurrence: 3, BeginMorph: 0, EndOccurrence: 0, EndMorph: 0},
	}

	seq := Adapt(&p)[0].Sequence
	assert.Equal(t, 1, seq.TagCount())
	assert.Equal(t, 1, seq.InvalidTags())
}

func TestAdaptSkipsEmptySegments(t *testing.T) {
	p := testutil.FixtureParagraph()
	p.Segments = append([]model.Segment{{Begin: 0, End: 0}}, p.Segments...)

	segs := Adapt(&p)
	require.Len(t, segs, 1)
	assert.Equal(t, 1, segs[0].Index)
}
