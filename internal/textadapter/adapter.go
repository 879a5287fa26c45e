// Package textadapter turns stored paragraphs into matcher sequences.
//
// Analyses can drift out of sync with the baseline they describe. Every
// occurrence must have a non-empty span inside its segment, must not overlap
// the previous usable occurrence and must carry morphs. A segment whose
// recorded checksum still matches its baseline slice skips the comparison of
// word forms against the baseline; any other segment compares them too.
// Occurrences that fail are marked stale: the matcher will not consume them,
// and the rest of the segment is searched normally.
package textadapter

import (
	"github.com/cespare/xxhash/v2"

	"github.com/gcbaptista/go-concordance-engine/internal/features"
	"github.com/gcbaptista/go-concordance-engine/internal/matcher"
	"github.com/gcbaptista/go-concordance-engine/internal/textnorm"
	"github.com/gcbaptista/go-concordance-engine/model"
)

// Segment is the adapted form of one model.Segment.
type Segment struct {
	Index            int
	Sequence         *matcher.Sequence
	Trusted          bool // checksum matched, forms were not compared with the baseline
	StaleOccurrences int
}

// Checksum hashes the characters [begin,end) of baseline. Out-of-range
// bounds are clamped.
func Checksum(baseline string, begin, end int) uint64 {
	return xxhash.Sum64String(Slice(baseline, begin, end))
}

// Slice returns the characters [begin,end) of s, clamping out-of-range bounds.
func Slice(s string, begin, end int) string {
	return sliceRunes([]rune(s), begin, end)
}

func sliceRunes(runes []rune, begin, end int) string {
	if begin < 0 {
		begin = 0
	}
	if end > len(runes) {
		end = len(runes)
	}
	if begin >= end {
		return ""
	}
	return string(runes[begin:end])
}

// Adapt builds one sequence per non-empty segment of p. It never fails:
// problems in the analyses only mark occurrences stale or drop tag spans.
func Adapt(p *model.Paragraph) []Segment {
	runes := []rune(p.Baseline)
	out := make([]Segment, 0, len(p.Segments))
	for i := range p.Segments {
		seg := &p.Segments[i]
		if len(seg.Occurrences) == 0 {
			continue
		}
		out = append(out, adaptSegment(i, seg, runes))
	}
	return out
}

func adaptSegment(index int, seg *model.Segment, runes []rune) Segment {
	segValid := seg.Begin >= 0 && seg.Begin <= seg.End && seg.End <= len(runes)
	trusted := segValid && seg.BaselineChecksum != 0 &&
		xxhash.Sum64String(string(runes[seg.Begin:seg.End])) == seg.BaselineChecksum

	b := matcher.NewBuilder()
	stale := 0
	prevEnd := -1
	for i := range seg.Occurrences {
		o := &seg.Occurrences[i]
		occ := wordOccurrence(o, runes)
		if !wellFormed(o, seg, segValid, len(runes), prevEnd) || (!trusted && !formInSync(o, runes)) {
			occ.Stale = true
		}
		if occ.Stale {
			stale++
		} else {
			prevEnd = o.End
		}
		b.AddOccurrence(occ, morphs(o))
	}
	for _, t := range seg.Tags {
		b.AddTag(matcher.TagSpan{
			Possibility:     t.Possibility,
			BeginOccurrence: t.BeginOccurrence,
			BeginMorph:      t.BeginMorph,
			EndOccurrence:   t.EndOccurrence,
			EndMorph:        t.EndMorph,
		})
	}

	return Segment{
		Index:            index,
		Sequence:         b.Build(),
		Trusted:          trusted,
		StaleOccurrences: stale,
	}
}

// wellFormed reports whether an occurrence's span is non-empty and inside
// the paragraph and segment, does not overlap the previous usable occurrence,
// and the occurrence has morphs.
func wellFormed(o *model.Occurrence, seg *model.Segment, segValid bool, length, prevEnd int) bool {
	if o.Begin < 0 || o.End <= o.Begin || o.End > length {
		return false
	}
	if segValid && (o.Begin < seg.Begin || o.End > seg.End) {
		return false
	}
	if o.Begin < prevEnd {
		return false
	}
	return len(o.Morphs) > 0
}

// formInSync reports whether a recorded form equals the baseline slice it
// covers. The span must already be well formed.
func formInSync(o *model.Occurrence, runes []rune) bool {
	return o.Form == "" || textnorm.Equal(string(runes[o.Begin:o.End]), o.Form)
}

func wordOccurrence(o *model.Occurrence, runes []rune) matcher.Occurrence {
	occ := matcher.Occurrence{
		Begin:    o.Begin,
		End:      o.End,
		Form:     o.Form,
		Gloss:    o.Gloss,
		Category: o.Category,
		Features: o.Features,
	}
	if occ.Form == "" {
		occ.Form = sliceRunes(runes, o.Begin, o.End)
	}
	if occ.Gloss == "" && len(o.Morphs) == 1 {
		occ.Gloss = o.Morphs[0].Gloss
	}
	if occ.Category == "" {
		occ.Category = soleMorphCategory(o.Morphs)
	}
	if occ.Features.IsEmpty() {
		for _, m := range o.Morphs {
			occ.Features = features.Merge(occ.Features, m.Features)
		}
	}
	return occ
}

// soleMorphCategory returns the category of the only categorised morph, or
// "" when there are none or several.
func soleMorphCategory(morphs []model.Morph) string {
	cat := ""
	for _, m := range morphs {
		if m.Category == "" {
			continue
		}
		if cat != "" {
			return ""
		}
		cat = m.Category
	}
	return cat
}

func morphs(o *model.Occurrence) []matcher.Morph {
	out := make([]matcher.Morph, 0, len(o.Morphs))
	for _, m := range o.Morphs {
		mm := matcher.Morph{
			Begin:    m.Begin,
			End:      m.End,
			Form:     m.Form,
			Entry:    m.Entry,
			Gloss:    m.Gloss,
			Category: m.Category,
			Features: m.Features,
		}
		if mm.Begin == 0 && mm.End == 0 {
			mm.Begin, mm.End = o.Begin, o.End
		}
		out = append(out, mm)
	}
	return out
}
