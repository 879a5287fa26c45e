package model

// Fragment is one concordance hit: a character range of a paragraph
// baseline. Begin < End always holds.
type Fragment struct {
	TextID      string `json:"text_id,omitempty"`
	ParagraphID string `json:"paragraph_id"`
	Begin       int    `json:"begin"`
	End         int    `json:"end"`
}

// Less orders fragments by text, paragraph, begin and end.
func (f Fragment) Less(o Fragment) bool {
	if f.TextID != o.TextID {
		return f.TextID < o.TextID
	}
	if f.ParagraphID != o.ParagraphID {
		return f.ParagraphID < o.ParagraphID
	}
	if f.Begin != o.Begin {
		return f.Begin < o.Begin
	}
	return f.End < o.End
}

// ConcordanceLine is a fragment in keyword-in-context form.
type ConcordanceLine struct {
	Fragment
	Left  string `json:"left"`
	Match string `json:"match"`
	Right string `json:"right"`
}
