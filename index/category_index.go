// Package index keeps the category and tag postings used to skip paragraphs
// that cannot contain a match.
package index

import (
	"bytes"
	"encoding/gob"
	"sync"

	"github.com/gcbaptista/go-concordance-engine/internal/textadapter"
	"github.com/gcbaptista/go-concordance-engine/model"
)

// Ancestry resolves a category to itself plus its ancestors. config.CategoryTree
// implements it.
type Ancestry interface {
	Ancestors(id string) []string
}

// CategoryIndex maps word categories and tag possibilities to the paragraphs
// carrying them. A word is posted under its category and every ancestor of
// it, so a lookup for a category also finds its descendants. Stale
// occurrences are not posted since they can never be matched.
type CategoryIndex struct {
	Mu         sync.RWMutex
	Categories map[string]PostingList
	Tags       map[string]PostingList
}

// gobCategoryIndexData is a helper struct for Gob encoding/decoding, without the mutex.
type gobCategoryIndexData struct {
	Categories map[string]PostingList
	Tags       map[string]PostingList
}

// NewCategoryIndex returns an empty index.
func NewCategoryIndex() *CategoryIndex {
	return &CategoryIndex{
		Categories: make(map[string]PostingList),
		Tags:       make(map[string]PostingList),
	}
}

// IndexText posts every paragraph of text. The caller must hold Mu.
func (ci *CategoryIndex) IndexText(textID uint32, text *model.Text, tree Ancestry) {
	for pi := range text.Paragraphs {
		for _, seg := range textadapter.Adapt(&text.Paragraphs[pi]) {
			seq := seg.Sequence
			for oi := 0; oi < seq.OccurrenceCount(); oi++ {
				occ := seq.Occurrence(oi)
				if occ.Stale || occ.Category == "" {
					continue
				}
				for _, cat := range ancestors(tree, occ.Category) {
					ci.Categories[cat] = ci.Categories[cat].add(textID, pi)
				}
			}
			for _, tag := range seq.TagPossibilities() {
				ci.Tags[tag] = ci.Tags[tag].add(textID, pi)
			}
		}
	}
}

func ancestors(tree Ancestry, cat string) []string {
	if tree == nil {
		return []string{cat}
	}
	return tree.Ancestors(cat)
}

// RemoveText drops every posting of textID. The caller must hold Mu.
func (ci *CategoryIndex) RemoveText(textID uint32) {
	for _, postings := range []map[string]PostingList{ci.Categories, ci.Tags} {
		for key, pl := range postings {
			pl = pl.withoutText(textID)
			if len(pl) == 0 {
				delete(postings, key)
			} else {
				postings[key] = pl
			}
		}
	}
}

// Clear drops every posting. The caller must hold Mu.
func (ci *CategoryIndex) Clear() {
	ci.Categories = make(map[string]PostingList)
	ci.Tags = make(map[string]PostingList)
}

// Candidates returns the paragraphs that carry every category and every tag
// given. constrained is false when both lists are empty: the index cannot
// narrow the search and every paragraph is a candidate.
func (ci *CategoryIndex) Candidates(categories, tags []string) (refs []ParagraphRef, constrained bool) {
	if len(categories) == 0 && len(tags) == 0 {
		return nil, false
	}
	ci.Mu.RLock()
	defer ci.Mu.RUnlock()

	lists := make([]PostingList, 0, len(categories)+len(tags))
	for _, c := range categories {
		pl, ok := ci.Categories[c]
		if !ok {
			return nil, true
		}
		lists = append(lists, pl)
	}
	for _, t := range tags {
		pl, ok := ci.Tags[t]
		if !ok {
			return nil, true
		}
		lists = append(lists, pl)
	}
	return intersect(lists), true
}

// GobEncode implements the gob.GobEncoder interface for CategoryIndex.
func (ci *CategoryIndex) GobEncode() ([]byte, error) {
	ci.Mu.RLock()
	defer ci.Mu.RUnlock()

	var buf bytes.Buffer
	encoder := gob.NewEncoder(&buf)
	if err := encoder.Encode(gobCategoryIndexData{Categories: ci.Categories, Tags: ci.Tags}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface for CategoryIndex.
func (ci *CategoryIndex) GobDecode(data []byte) error {
	decodedData := gobCategoryIndexData{}
	if err := gob.NewDecoder(bytes.NewBuffer(data)).Decode(&decodedData); err != nil {
		return err
	}

	ci.Mu.Lock()
	defer ci.Mu.Unlock()

	ci.Categories = decodedData.Categories
	ci.Tags = decodedData.Tags
	// Ensure maps are initialized if they were nil after decoding (e.g. from an empty file)
	if ci.Categories == nil {
		ci.Categories = make(map[string]PostingList)
	}
	if ci.Tags == nil {
		ci.Tags = make(map[string]PostingList)
	}
	return nil
}
