// Package matcher runs compiled concordance programs over the linear
// occurrence stream of one segment.
//
// A Sequence flattens a segment into morph positions 0..N. Position p names
// the gap before morph p; N is the gap after the last morph. A position is a
// word edge when it is the first morph of an occurrence or N.
package matcher

import (
	"github.com/gcbaptista/go-concordance-engine/internal/features"
	"github.com/gcbaptista/go-concordance-engine/internal/textnorm"
)

// Occurrence is one word-level token. Begin and End are paragraph-relative
// character offsets.
type Occurrence struct {
	Begin    int
	End      int
	Form     string
	Gloss    string
	Category string
	Features features.Structure
	// Stale occurrences cannot be consumed by Word or Morph and never start a
	// match.
	Stale bool

	first int
	count int
}

// FirstMorph is the position of the occurrence's first morph.
func (o *Occurrence) FirstMorph() int { return o.first }

// MorphCount is the number of morphs of the occurrence.
func (o *Occurrence) MorphCount() int { return o.count }

// Morph is one morph bundle of an occurrence.
type Morph struct {
	Begin    int
	End      int
	Form     string
	Entry    string
	Gloss    string
	Category string
	Features features.Structure

	occ int
}

// Occurrence returns the index of the occurrence the morph belongs to.
func (m *Morph) Occurrence() int { return m.occ }

// TagSpan annotates the morphs from (BeginOccurrence, BeginMorph) through
// (EndOccurrence, EndMorph), both ends inclusive.
type TagSpan struct {
	Possibility     string
	BeginOccurrence int
	BeginMorph      int
	EndOccurrence   int
	EndMorph        int
}

type tagRange struct {
	possibility string
	lo, hi      int
}

// Sequence is an immutable snapshot of one segment, safe for concurrent use.
type Sequence struct {
	occurrences []Occurrence
	morphs      []Morph
	tags        []tagRange
	invalidTags int
}

// Len returns the number of morph positions, excluding the final edge.
func (s *Sequence) Len() int { return len(s.morphs) }

// OccurrenceCount returns the number of occurrences.
func (s *Sequence) OccurrenceCount() int { return len(s.occurrences) }

// Occurrence returns occurrence i.
func (s *Sequence) Occurrence(i int) *Occurrence { return &s.occurrences[i] }

// Morph returns the morph at position p.
func (s *Sequence) Morph(p int) *Morph { return &s.morphs[p] }

// OccurrenceAt returns the occurrence containing the morph at position p.
func (s *Sequence) OccurrenceAt(p int) *Occurrence {
	return &s.occurrences[s.morphs[p].occ]
}

// InvalidTags reports how many tag spans were dropped while building.
func (s *Sequence) InvalidTags() int { return s.invalidTags }

// TagCount reports how many valid tag spans the sequence carries.
func (s *Sequence) TagCount() int { return len(s.tags) }

// TagPossibilities returns the possibility of every valid tag span, in the
// order the spans were added.
func (s *Sequence) TagPossibilities() []string {
	out := make([]string, len(s.tags))
	for i, t := range s.tags {
		out[i] = t.possibility
	}
	return out
}

// IsWordEdge reports whether p sits between words.
func (s *Sequence) IsWordEdge(p int) bool {
	if p == len(s.morphs) {
		return true
	}
	if p < 0 || p > len(s.morphs) {
		return false
	}
	return s.occurrences[s.morphs[p].occ].first == p
}

// Span maps the morph range [start,end) to paragraph character offsets: the
// beginning of the occurrence holding morph start through the end of the
// occurrence holding morph end-1.
func (s *Sequence) Span(start, end int) (begin, finish int) {
	return s.OccurrenceAt(start).Begin, s.OccurrenceAt(end - 1).End
}

func (s *Sequence) inTag(p int, possibility string) bool {
	if p >= len(s.morphs) {
		return false
	}
	for _, t := range s.tags {
		if p < t.lo || p > t.hi {
			continue
		}
		if possibility == "" || t.possibility == possibility {
			return true
		}
	}
	return false
}

// Builder assembles a Sequence. Forms and glosses are folded on the way in so
// the executor compares plain strings.
type Builder struct {
	occurrences []Occurrence
	morphs      []Morph
	spans       []TagSpan
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddOccurrence appends an occurrence with its morphs and returns its index.
// An occurrence without morphs gets a single placeholder morph and is marked
// stale.
func (b *Builder) AddOccurrence(occ Occurrence, morphs []Morph) int {
	idx := len(b.occurrences)
	occ.Form = textnorm.Fold(occ.Form)
	occ.Gloss = textnorm.Fold(occ.Gloss)
	occ.first = len(b.morphs)

	if len(morphs) == 0 {
		occ.Stale = true
		morphs = []Morph{{Begin: occ.Begin, End: occ.End}}
	}
	for _, m := range morphs {
		m.Form = textnorm.Fold(m.Form)
		m.Entry = textnorm.Fold(m.Entry)
		m.Gloss = textnorm.Fold(m.Gloss)
		m.occ = idx
		b.morphs = append(b.morphs, m)
	}
	occ.count = len(morphs)
	b.occurrences = append(b.occurrences, occ)
	return idx
}

// AddTag records a tag span. Validity is checked by Build.
func (b *Builder) AddTag(span TagSpan) {
	b.spans = append(b.spans, span)
}

// Build validates tag spans and returns the Sequence. Spans that end before
// they begin or point past the occurrences or morphs they name are dropped.
func (b *Builder) Build() *Sequence {
	seq := &Sequence{
		occurrences: b.occurrences,
		morphs:      b.morphs,
	}
	for _, span := range b.spans {
		lo, ok := seq.position(span.BeginOccurrence, span.BeginMorph)
		if !ok {
			seq.invalidTags++
			continue
		}
		hi, ok := seq.position(span.EndOccurrence, span.EndMorph)
		if !ok || hi < lo {
			seq.invalidTags++
			continue
		}
		seq.tags = append(seq.tags, tagRange{possibility: span.Possibility, lo: lo, hi: hi})
	}
	return seq
}

func (s *Sequence) position(occ, morph int) (int, bool) {
	if occ < 0 || occ >= len(s.occurrences) {
		return 0, false
	}
	o := &s.occurrences[occ]
	if morph < 0 || morph >= o.count {
		return 0, false
	}
	return o.first + morph, true
}
