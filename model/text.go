package model

import "github.com/gcbaptista/go-concordance-engine/internal/features"

// Text is an interlinear text: paragraphs of baseline text with their
// segment analyses. All Begin/End offsets are paragraph-relative and count
// characters (Unicode code points) of Paragraph.Baseline, end exclusive.
type Text struct {
	ID         string      `json:"id"`
	Title      string      `json:"title,omitempty"`
	Paragraphs []Paragraph `json:"paragraphs"`
}

// Paragraph holds one baseline string and its segments in order.
type Paragraph struct {
	ID       string    `json:"id"`
	Baseline string    `json:"baseline"`
	Segments []Segment `json:"segments"`
}

// Segment is a sentence-like unit with its own occurrence sequence.
//
// BaselineChecksum records the xxhash of the segment's baseline slice at the
// time it was analysed. Zero means unknown.
type Segment struct {
	Begin            int          `json:"begin"`
	End              int          `json:"end"`
	BaselineChecksum uint64       `json:"baseline_checksum,omitempty"`
	Occurrences      []Occurrence `json:"occurrences"`
	Tags             []TagSpan    `json:"tags,omitempty"`
}

// Occurrence is the analysis of one word of a segment.
type Occurrence struct {
	Begin    int                `json:"begin"`
	End      int                `json:"end"`
	Form     string             `json:"form,omitempty"`
	Gloss    string             `json:"gloss,omitempty"`
	Category string             `json:"category,omitempty"`
	Features features.Structure `json:"features"`
	Morphs   []Morph            `json:"morphs"`
}

// Morph is one morph bundle of an occurrence. Zero Begin and End mean the
// morph inherits the span of its occurrence.
type Morph struct {
	Begin    int                `json:"begin,omitempty"`
	End      int                `json:"end,omitempty"`
	Form     string             `json:"form,omitempty"`
	Entry    string             `json:"entry,omitempty"` // citation form of the lexical entry
	Gloss    string             `json:"gloss,omitempty"`
	Category string             `json:"category,omitempty"`
	Features features.Structure `json:"features"`
}

// TagSpan annotates the morphs from (BeginOccurrence, BeginMorph) through
// (EndOccurrence, EndMorph), inclusive, with a tag possibility.
type TagSpan struct {
	Possibility     string `json:"possibility"`
	BeginOccurrence int    `json:"begin_occurrence"`
	BeginMorph      int    `json:"begin_morph"`
	EndOccurrence   int    `json:"end_occurrence"`
	EndMorph        int    `json:"end_morph"`
}

// TextSummary is the listing form of a text.
type TextSummary struct {
	ID             string `json:"id"`
	Title          string `json:"title,omitempty"`
	ParagraphCount int    `json:"paragraph_count"`
	WordCount      int    `json:"word_count"`
}

// Summary returns the listing form of t.
func (t *Text) Summary() TextSummary {
	words := 0
	for _, p := range t.Paragraphs {
		for _, s := range p.Segments {
			words += len(s.Occurrences)
		}
	}
	return TextSummary{ID: t.ID, Title: t.Title, ParagraphCount: len(t.Paragraphs), WordCount: words}
}
