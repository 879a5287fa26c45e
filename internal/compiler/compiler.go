// Package compiler validates pattern trees and lowers them to matcher
// programs.
//
// Lowering follows the classic backtracking-VM layout: sibling sequences
// become instruction runs, alternation becomes a chain of splits, and
// quantifiers are unrolled into mandatory copies followed by optional copies
// or a loop. A quantified Morph is the one exception: it lowers to a single
// morph-run instruction whose repetitions stay inside one word.
package compiler

import (
	"fmt"
	"maps"
	"slices"
	"sort"

	"github.com/gcbaptista/go-concordance-engine/internal/errors"
	"github.com/gcbaptista/go-concordance-engine/internal/features"
	"github.com/gcbaptista/go-concordance-engine/internal/matcher"
	"github.com/gcbaptista/go-concordance-engine/internal/pattern"
	"github.com/gcbaptista/go-concordance-engine/internal/suggest"
	"github.com/gcbaptista/go-concordance-engine/internal/textnorm"
)

// DefaultMaxProgramSize caps the instruction count when Options leaves it unset.
const DefaultMaxProgramSize = 10000

// CategoryResolver describes the category inventory of a corpus.
type CategoryResolver interface {
	// Known reports whether id is a declared category.
	Known(id string) bool
	// Expand returns id together with all of its descendants.
	Expand(id string) []string
}

// Options configures validation. Zero values disable the matching check.
type Options struct {
	Features       *features.System
	Categories     CategoryResolver
	Tags           map[string]bool
	MaxProgramSize int
}

type compiler struct {
	opts     Options
	maxSize  int
	insts    []matcher.Inst
	catCache map[string]map[string]bool
}

// Compile validates root and lowers it to a program. Structural problems are
// reported as *errors.PatternError, which matches errors.ErrInvalidPattern.
func Compile(root *pattern.Root, opts Options) (*matcher.Program, error) {
	if root == nil {
		return nil, errors.NewPatternError("", "pattern is nil")
	}
	if len(root.Children) == 0 {
		return nil, errors.NewPatternError("root", "pattern is empty")
	}
	if err := validateSequence(root.Children, "root", opts); err != nil {
		return nil, err
	}

	c := &compiler{
		opts:     opts,
		maxSize:  opts.MaxProgramSize,
		catCache: make(map[string]map[string]bool),
	}
	if c.maxSize <= 0 {
		c.maxSize = DefaultMaxProgramSize
	}
	if err := c.sequence(root.Children, "root"); err != nil {
		return nil, err
	}
	if _, err := c.emit(matcher.Inst{Op: matcher.OpMatch}, "root"); err != nil {
		return nil, err
	}

	prog, err := matcher.NewProgram(c.insts)
	if err != nil {
		return nil, fmt.Errorf("lowering produced an invalid program: %w", err)
	}
	cats, tags := required(root.Children)
	prog.RequiredCategories = cats
	prog.RequiredTags = tags
	return prog, nil
}

func childPath(path string, i int) string {
	return fmt.Sprintf("%s.children[%d]", path, i)
}

func validateSequence(nodes []pattern.Node, path string, opts Options) error {
	for i, n := range nodes {
		at := childPath(path, i)
		if n == nil {
			return errors.NewPatternError(at, "node is nil")
		}
		if _, ok := n.(*pattern.Or); ok {
			switch {
			case i == 0:
				return errors.NewPatternError(at, "alternation has no branch before it")
			case i == len(nodes)-1:
				return errors.NewPatternError(at, "alternation has no branch after it")
			}
			if _, prev := nodes[i-1].(*pattern.Or); prev {
				return errors.NewPatternError(at, "alternation has an empty branch")
			}
			continue
		}
		if err := validateNode(n, at, opts); err != nil {
			return err
		}
	}
	return nil
}

func validateNode(n pattern.Node, path string, opts Options) error {
	q := pattern.QuantifierOf(n)
	if !q.Valid() {
		if q.Min < 0 {
			return errors.NewPatternError(path, "%s quantifier has negative minimum %d", n.Type(), q.Min)
		}
		return errors.NewPatternError(path, "%s quantifier minimum %d exceeds maximum %d", n.Type(), q.Min, q.Max)
	}

	switch v := n.(type) {
	case *pattern.Root:
		return errors.NewPatternError(path, "root cannot be nested")
	case *pattern.Word:
		if err := checkCategory(v.Category, path, opts); err != nil {
			return err
		}
		if err := opts.Features.Validate(v.InflFeatures); err != nil {
			return errors.NewPatternError(path, "inflectional features: %v", err)
		}
	case *pattern.Morph:
		if err := checkCategory(v.Category, path, opts); err != nil {
			return err
		}
	case *pattern.Tag:
		if v.Possibility != "" && opts.Tags != nil && !opts.Tags[v.Possibility] {
			return errors.NewPatternError(path, "unknown tag '%s'%s", v.Possibility, suggest.Hint(v.Possibility, slices.Collect(maps.Keys(opts.Tags))))
		}
	case *pattern.WordBoundary:
	case *pattern.Group:
		if len(v.Children) == 0 {
			return errors.NewPatternError(path, "group is empty")
		}
		return validateSequence(v.Children, path, opts)
	default:
		return errors.NewPatternError(path, "unsupported node %T", n)
	}
	return nil
}

func checkCategory(cat, path string, opts Options) error {
	if cat == "" || opts.Categories == nil {
		return nil
	}
	if !opts.Categories.Known(cat) {
		hint := ""
		if lister, ok := opts.Categories.(interface{ IDs() []string }); ok {
			hint = suggest.Hint(cat, lister.IDs())
		}
		return errors.NewPatternError(path, "unknown category '%s'%s", cat, hint)
	}
	return nil
}

func (c *compiler) emit(in matcher.Inst, path string) (int, error) {
	if len(c.insts) >= c.maxSize {
		return 0, errors.NewPatternError(path, "pattern expands beyond %d instructions", c.maxSize)
	}
	c.insts = append(c.insts, in)
	return len(c.insts) - 1, nil
}

// sequence lowers a sibling list. With alternation the layout is
//
//	split L1, L2
//	L1: branch 1; jump end
//	L2: split L3, L4 ...
//	Ln: last branch
//	end:
func (c *compiler) sequence(nodes []pattern.Node, path string) error {
	branches := splitBranches(nodes)
	if len(branches) == 1 {
		return c.branch(branches[0], path)
	}

	var jumps []int
	for i, br := range branches {
		if i == len(branches)-1 {
			if err := c.branch(br, path); err != nil {
				return err
			}
			break
		}
		split, err := c.emit(matcher.Inst{Op: matcher.OpSplit}, path)
		if err != nil {
			return err
		}
		c.insts[split].X = split + 1
		if err := c.branch(br, path); err != nil {
			return err
		}
		jump, err := c.emit(matcher.Inst{Op: matcher.OpJump}, path)
		if err != nil {
			return err
		}
		jumps = append(jumps, jump)
		c.insts[split].Y = len(c.insts)
	}
	for _, j := range jumps {
		c.insts[j].X = len(c.insts)
	}
	return nil
}

type indexed struct {
	node  pattern.Node
	index int
}

func splitBranches(nodes []pattern.Node) [][]indexed {
	branches := [][]indexed{{}}
	for i, n := range nodes {
		if _, ok := n.(*pattern.Or); ok {
			branches = append(branches, []indexed{})
			continue
		}
		last := len(branches) - 1
		branches[last] = append(branches[last], indexed{node: n, index: i})
	}
	return branches
}

func (c *compiler) branch(nodes []indexed, path string) error {
	for _, n := range nodes {
		if err := c.quantified(n.node, childPath(path, n.index)); err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) quantified(n pattern.Node, path string) error {
	q := pattern.QuantifierOf(n)

	if m, ok := n.(*pattern.Morph); ok && q != pattern.Once {
		max := q.Max
		if max == pattern.Unbounded {
			max = matcher.Unbounded
		}
		_, err := c.emit(matcher.Inst{Op: matcher.OpMorphRun, Morph: c.morphTest(m), Min: q.Min, Max: max}, path)
		return err
	}

	for i := 0; i < q.Min; i++ {
		if err := c.body(n, path); err != nil {
			return err
		}
	}

	if q.Max == pattern.Unbounded {
		loop, err := c.emit(matcher.Inst{Op: matcher.OpSplit}, path)
		if err != nil {
			return err
		}
		c.insts[loop].X = loop + 1
		if err := c.body(n, path); err != nil {
			return err
		}
		if _, err := c.emit(matcher.Inst{Op: matcher.OpJump, X: loop}, path); err != nil {
			return err
		}
		c.insts[loop].Y = len(c.insts)
		return nil
	}

	var splits []int
	for i := q.Min; i < q.Max; i++ {
		split, err := c.emit(matcher.Inst{Op: matcher.OpSplit}, path)
		if err != nil {
			return err
		}
		c.insts[split].X = split + 1
		splits = append(splits, split)
		if err := c.body(n, path); err != nil {
			return err
		}
	}
	for _, s := range splits {
		c.insts[s].Y = len(c.insts)
	}
	return nil
}

func (c *compiler) body(n pattern.Node, path string) error {
	var err error
	switch v := n.(type) {
	case *pattern.Word:
		_, err = c.emit(matcher.Inst{Op: matcher.OpWord, Word: c.wordTest(v)}, path)
	case *pattern.Morph:
		_, err = c.emit(matcher.Inst{Op: matcher.OpMorph, Morph: c.morphTest(v)}, path)
	case *pattern.Tag:
		_, err = c.emit(matcher.Inst{Op: matcher.OpTag, Tag: v.Possibility}, path)
	case *pattern.WordBoundary:
		_, err = c.emit(matcher.Inst{Op: matcher.OpBoundary}, path)
	case *pattern.Group:
		err = c.sequence(v.Children, path)
	default:
		err = errors.NewPatternError(path, "unsupported node %T", n)
	}
	return err
}

func (c *compiler) wordTest(w *pattern.Word) *matcher.WordTest {
	return &matcher.WordTest{
		Categories:     c.categories(w.Category),
		NegateCategory: w.NegateCategory,
		Form:           textnorm.Fold(w.Form),
		Gloss:          textnorm.Fold(w.Gloss),
		Features:       w.InflFeatures,
	}
}

func (c *compiler) morphTest(m *pattern.Morph) *matcher.MorphTest {
	return &matcher.MorphTest{
		Form:           textnorm.Fold(m.Form),
		Entry:          textnorm.Fold(m.Entry),
		Gloss:          textnorm.Fold(m.Gloss),
		Categories:     c.categories(m.Category),
		NegateCategory: m.NegateCategory,
	}
}

// categories returns the admissible set for a category constraint: the
// category itself plus its descendants. Instructions sharing a constraint
// share the set.
func (c *compiler) categories(cat string) map[string]bool {
	if cat == "" {
		return nil
	}
	if set, ok := c.catCache[cat]; ok {
		return set
	}
	set := map[string]bool{cat: true}
	if c.opts.Categories != nil {
		for _, d := range c.opts.Categories.Expand(cat) {
			set[d] = true
		}
	}
	c.catCache[cat] = set
	return set
}

// required collects the categories and tags that every match must touch:
// positive Word categories and Tag possibilities reachable through mandatory
// nodes of alternation-free sequences.
func required(nodes []pattern.Node) (cats, tags []string) {
	catSet := make(map[string]bool)
	tagSet := make(map[string]bool)
	collectRequired(nodes, catSet, tagSet)
	return sortedKeys(catSet), sortedKeys(tagSet)
}

func collectRequired(nodes []pattern.Node, cats, tags map[string]bool) {
	for _, n := range nodes {
		if _, ok := n.(*pattern.Or); ok {
			return
		}
	}
	for _, n := range nodes {
		if pattern.QuantifierOf(n).Min < 1 {
			continue
		}
		switch v := n.(type) {
		case *pattern.Word:
			if v.Category != "" && !v.NegateCategory {
				cats[v.Category] = true
			}
		case *pattern.Tag:
			if v.Possibility != "" {
				tags[v.Possibility] = true
			}
		case *pattern.Group:
			collectRequired(v.Children, cats, tags)
		}
	}
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
