package pattern

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/gcbaptista/go-concordance-engine/internal/features"
)

// nodeJSON is the tagged wire form of every node kind. Quantifier bounds are
// optional: a missing min or max defaults to 1.
type nodeJSON struct {
	Type           string              `json:"type"`
	Min            *int                `json:"min,omitempty"`
	Max            *int                `json:"max,omitempty"`
	Category       string              `json:"category,omitempty"`
	NegateCategory bool                `json:"negate_category,omitempty"`
	Form           string              `json:"form,omitempty"`
	Entry          string              `json:"entry,omitempty"`
	Gloss          string              `json:"gloss,omitempty"`
	InflFeatures   *features.Structure `json:"infl_features,omitempty"`
	Tag            string              `json:"tag,omitempty"`
	Children       []json.RawMessage   `json:"children,omitempty"`
}

// Encode renders a tree in its JSON wire form.
func Encode(root *Root) ([]byte, error) {
	if root == nil {
		return nil, fmt.Errorf("cannot encode a nil pattern")
	}
	wire, err := toWire(root)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wire)
}

// Decode parses the JSON wire form. The input is either a root object or a
// bare array, which is read as the children of an implicit root.
func Decode(data []byte) (*Root, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty pattern")
	}
	if trimmed[0] == '[' {
		var raw []json.RawMessage
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, fmt.Errorf("invalid pattern: %w", err)
		}
		children, err := decodeChildren(raw, "root")
		if err != nil {
			return nil, err
		}
		return &Root{Children: children}, nil
	}

	n, err := decodeNode(trimmed, "root")
	if err != nil {
		return nil, err
	}
	root, ok := n.(*Root)
	if !ok {
		return &Root{Children: []Node{n}}, nil
	}
	return root, nil
}

func decodeChildren(raw []json.RawMessage, path string) ([]Node, error) {
	out := make([]Node, 0, len(raw))
	for i, r := range raw {
		n, err := decodeNode(r, fmt.Sprintf("%s.children[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func decodeNode(data []byte, path string) (Node, error) {
	var w nodeJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	q := decodeQuantifier(w.Min, w.Max)
	switch w.Type {
	case "root":
		if q != nil {
			return nil, fmt.Errorf("%s: root takes no quantifier", path)
		}
		children, err := decodeChildren(w.Children, path)
		if err != nil {
			return nil, err
		}
		return &Root{Children: children}, nil
	case "word":
		word := &Word{
			Repeat:         q,
			Category:       w.Category,
			NegateCategory: w.NegateCategory,
			Form:           w.Form,
			Gloss:          w.Gloss,
		}
		if w.InflFeatures != nil {
			word.InflFeatures = *w.InflFeatures
		}
		return word, nil
	case "morph":
		return &Morph{
			Repeat:         q,
			Form:           w.Form,
			Entry:          w.Entry,
			Gloss:          w.Gloss,
			Category:       w.Category,
			NegateCategory: w.NegateCategory,
		}, nil
	case "tag":
		return &Tag{Repeat: q, Possibility: w.Tag}, nil
	case "word_boundary", "boundary", "#":
		return &WordBoundary{Repeat: q}, nil
	case "group":
		children, err := decodeChildren(w.Children, path)
		if err != nil {
			return nil, err
		}
		return &Group{Repeat: q, Children: children}, nil
	case "or", "|":
		if q != nil {
			return nil, fmt.Errorf("%s: or takes no quantifier", path)
		}
		return &Or{}, nil
	case "":
		return nil, fmt.Errorf("%s: node type is required", path)
	default:
		return nil, fmt.Errorf("%s: unknown node type '%s'", path, w.Type)
	}
}

func decodeQuantifier(min, max *int) *Quantifier {
	if min == nil && max == nil {
		return nil
	}
	q := Once
	if min != nil {
		q.Min = *min
	}
	if max != nil {
		q.Max = *max
	}
	return &q
}

func toWire(n Node) (nodeJSON, error) {
	var w nodeJSON
	if q := explicitQuantifier(n); q != nil {
		min, max := q.Min, q.Max
		w.Min, w.Max = &min, &max
	}

	switch v := n.(type) {
	case *Root:
		w.Type = "root"
		children, err := childrenToWire(v.Children)
		if err != nil {
			return w, err
		}
		w.Children = children
	case *Word:
		w.Type = "word"
		w.Category = v.Category
		w.NegateCategory = v.NegateCategory
		w.Form = v.Form
		w.Gloss = v.Gloss
		if !v.InflFeatures.IsEmpty() {
			st := v.InflFeatures
			w.InflFeatures = &st
		}
	case *Morph:
		w.Type = "morph"
		w.Form = v.Form
		w.Entry = v.Entry
		w.Gloss = v.Gloss
		w.Category = v.Category
		w.NegateCategory = v.NegateCategory
	case *Tag:
		w.Type = "tag"
		w.Tag = v.Possibility
	case *WordBoundary:
		w.Type = "word_boundary"
	case *Group:
		w.Type = "group"
		children, err := childrenToWire(v.Children)
		if err != nil {
			return w, err
		}
		w.Children = children
	case *Or:
		w.Type = "or"
	default:
		return w, fmt.Errorf("cannot encode node of type %T", n)
	}
	return w, nil
}

func childrenToWire(children []Node) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(children))
	for _, c := range children {
		w, err := toWire(c)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(w)
		if err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return out, nil
}

func explicitQuantifier(n Node) *Quantifier {
	switch v := n.(type) {
	case *Word:
		return v.Repeat
	case *Morph:
		return v.Repeat
	case *Tag:
		return v.Repeat
	case *WordBoundary:
		return v.Repeat
	case *Group:
		return v.Repeat
	}
	return nil
}
