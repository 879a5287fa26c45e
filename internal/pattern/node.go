// Package pattern defines the concordance query tree: a closed set of node
// kinds (Root, Word, Morph, Tag, WordBoundary, Group, Or) built by the caller
// and handed to the compiler.
//
// Nodes are plain structs. Code that needs to act on a node switches on its
// concrete type; there is no Match method on the nodes themselves.
package pattern

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gcbaptista/go-concordance-engine/internal/features"
)

// NodeType identifies the kind of a node.
type NodeType int

const (
	NodeRoot NodeType = iota
	NodeWord
	NodeMorph
	NodeTag
	NodeWordBoundary
	NodeGroup
	NodeOr
)

func (t NodeType) String() string {
	switch t {
	case NodeRoot:
		return "root"
	case NodeWord:
		return "word"
	case NodeMorph:
		return "morph"
	case NodeTag:
		return "tag"
	case NodeWordBoundary:
		return "wordBoundary"
	case NodeGroup:
		return "group"
	case NodeOr:
		return "or"
	default:
		return "unknown"
	}
}

// Node is implemented by the node kinds of this package only.
type Node interface {
	Type() NodeType
	String() string
	node()
}

var (
	_ Node = (*Root)(nil)
	_ Node = (*Word)(nil)
	_ Node = (*Morph)(nil)
	_ Node = (*Tag)(nil)
	_ Node = (*WordBoundary)(nil)
	_ Node = (*Group)(nil)
	_ Node = (*Or)(nil)
)

// Unbounded is the Max of a quantifier without an upper limit.
const Unbounded = -1

// Quantifier is the admissible repetition range of a node.
type Quantifier struct {
	Min int
	Max int
}

// Once is the implicit quantifier of a node without one.
var Once = Quantifier{Min: 1, Max: 1}

// Repeat returns a quantifier pointer, convenient for node literals.
func Repeat(min, max int) *Quantifier {
	return &Quantifier{Min: min, Max: max}
}

// Valid reports whether min >= 0 and max is either unbounded or >= min.
func (q Quantifier) Valid() bool {
	return q.Min >= 0 && (q.Max == Unbounded || q.Max >= q.Min)
}

func (q Quantifier) String() string {
	if q == Once {
		return ""
	}
	if q.Max == Unbounded {
		return "{" + strconv.Itoa(q.Min) + ",}"
	}
	if q.Min == q.Max {
		return "{" + strconv.Itoa(q.Min) + "}"
	}
	return "{" + strconv.Itoa(q.Min) + "," + strconv.Itoa(q.Max) + "}"
}

// QuantifierOf returns the effective quantifier of n. Root and Or have none
// and report Once.
func QuantifierOf(n Node) Quantifier {
	var q *Quantifier
	switch v := n.(type) {
	case *Word:
		q = v.Repeat
	case *Morph:
		q = v.Repeat
	case *Tag:
		q = v.Repeat
	case *WordBoundary:
		q = v.Repeat
	case *Group:
		q = v.Repeat
	}
	if q == nil {
		return Once
	}
	return *q
}

// Root is the top of a pattern tree.
type Root struct {
	Children []Node
}

func (r *Root) Type() NodeType { return NodeRoot }
func (r *Root) String() string { return "(" + joinChildren(r.Children) + ")" }
func (*Root) node()            {}

// Word matches a single word-level occurrence.
type Word struct {
	Repeat         *Quantifier
	Category       string
	NegateCategory bool
	Form           string
	Gloss          string
	InflFeatures   features.Structure
}

func (w *Word) Type() NodeType { return NodeWord }
func (w *Word) String() string {
	attrs := attrList{}
	attrs.category(w.Category, w.NegateCategory)
	attrs.add("form", w.Form)
	attrs.add("gloss", w.Gloss)
	if !w.InflFeatures.IsEmpty() {
		attrs = append(attrs, "infl="+w.InflFeatures.String())
	}
	return "Word" + attrs.String() + QuantifierOf(w).String()
}
func (*Word) node() {}

// Morph matches a single morph of the current word.
type Morph struct {
	Repeat         *Quantifier
	Form           string
	Entry          string
	Gloss          string
	Category       string
	NegateCategory bool
}

func (m *Morph) Type() NodeType { return NodeMorph }
func (m *Morph) String() string {
	attrs := attrList{}
	attrs.add("form", m.Form)
	attrs.add("entry", m.Entry)
	attrs.add("gloss", m.Gloss)
	attrs.category(m.Category, m.NegateCategory)
	return "Morph" + attrs.String() + QuantifierOf(m).String()
}
func (*Morph) node() {}

// Tag asserts that the cursor lies inside a tag span. An empty Possibility
// accepts any tag.
type Tag struct {
	Repeat      *Quantifier
	Possibility string
}

func (t *Tag) Type() NodeType { return NodeTag }
func (t *Tag) String() string {
	attrs := attrList{}
	attrs.add("tag", t.Possibility)
	return "Tag" + attrs.String() + QuantifierOf(t).String()
}
func (*Tag) node() {}

// WordBoundary asserts that the cursor sits between words.
type WordBoundary struct {
	Repeat *Quantifier
}

func (b *WordBoundary) Type() NodeType { return NodeWordBoundary }
func (b *WordBoundary) String() string { return "#" + QuantifierOf(b).String() }
func (*WordBoundary) node()            {}

// Group repeats its whole child sequence as a unit.
type Group struct {
	Repeat   *Quantifier
	Children []Node
}

func (g *Group) Type() NodeType { return NodeGroup }
func (g *Group) String() string {
	return "(" + joinChildren(g.Children) + ")" + QuantifierOf(g).String()
}
func (*Group) node() {}

// Or separates alternative branches among its siblings.
type Or struct{}

func (o *Or) Type() NodeType { return NodeOr }
func (o *Or) String() string { return "|" }
func (*Or) node()            {}

func joinChildren(children []Node) string {
	parts := make([]string, len(children))
	for i, c := range children {
		if c == nil {
			parts[i] = "<nil>"
			continue
		}
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

type attrList []string

func (a *attrList) add(key, value string) {
	if value != "" {
		*a = append(*a, key+"="+strconv.Quote(value))
	}
}

func (a *attrList) category(cat string, negate bool) {
	if cat == "" {
		return
	}
	if negate {
		*a = append(*a, "cat!="+strconv.Quote(cat))
		return
	}
	*a = append(*a, "cat="+strconv.Quote(cat))
}

func (a attrList) String() string {
	if len(a) == 0 {
		return ""
	}
	return "[" + strings.Join(a, " ") + "]"
}

// Walk visits n and its descendants depth-first. The path passed to fn
// locates the node, e.g. "root.children[2].children[0]".
func Walk(n Node, fn func(path string, n Node) error) error {
	return walk("root", n, fn)
}

func walk(path string, n Node, fn func(string, Node) error) error {
	if err := fn(path, n); err != nil {
		return err
	}
	var children []Node
	switch v := n.(type) {
	case *Root:
		children = v.Children
	case *Group:
		children = v.Children
	}
	for i, c := range children {
		if err := walk(fmt.Sprintf("%s.children[%d]", path, i), c, fn); err != nil {
			return err
		}
	}
	return nil
}
