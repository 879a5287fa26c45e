package config

import (
	"fmt"
	"sort"
)

// CategoryTree is the resolved part-of-speech hierarchy of a corpus.
type CategoryTree struct {
	parent   map[string]string
	children map[string][]string
}

// NewCategoryTree links categories to their parents and rejects unknown
// parents and cycles.
func NewCategoryTree(defns []CategoryDefn) (*CategoryTree, error) {
	tree := &CategoryTree{
		parent:   make(map[string]string, len(defns)),
		children: make(map[string][]string),
	}
	for _, d := range defns {
		if _, dup := tree.parent[d.ID]; dup {
			return nil, fmt.Errorf("duplicate category '%s'", d.ID)
		}
		tree.parent[d.ID] = d.Parent
	}
	for _, d := range defns {
		if d.Parent == "" {
			continue
		}
		if _, ok := tree.parent[d.Parent]; !ok {
			return nil, fmt.Errorf("category '%s' has unknown parent '%s'", d.ID, d.Parent)
		}
		tree.children[d.Parent] = append(tree.children[d.Parent], d.ID)
	}
	for id := range tree.parent {
		seen := map[string]bool{id: true}
		for p := tree.parent[id]; p != ""; p = tree.parent[p] {
			if seen[p] {
				return nil, fmt.Errorf("category '%s' is part of a parent cycle", id)
			}
			seen[p] = true
		}
	}
	for _, kids := range tree.children {
		sort.Strings(kids)
	}
	return tree, nil
}

// Known reports whether id is a declared category. A nil tree knows every
// category.
func (t *CategoryTree) Known(id string) bool {
	if t == nil {
		return true
	}
	_, ok := t.parent[id]
	return ok
}

// IDs returns the declared category ids, sorted.
func (t *CategoryTree) IDs() []string {
	if t == nil {
		return nil
	}
	ids := make([]string, 0, len(t.parent))
	for id := range t.parent {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Expand returns id followed by all of its descendants, breadth first.
func (t *CategoryTree) Expand(id string) []string {
	out := []string{id}
	if t == nil {
		return out
	}
	for i := 0; i < len(out); i++ {
		out = append(out, t.children[out[i]]...)
	}
	return out
}

// Ancestors returns id followed by its parent chain up to the root.
func (t *CategoryTree) Ancestors(id string) []string {
	out := []string{id}
	if t == nil {
		return out
	}
	for p := t.parent[id]; p != ""; p = t.parent[p] {
		out = append(out, p)
	}
	return out
}
