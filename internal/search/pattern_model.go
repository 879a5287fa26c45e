package search

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/gcbaptista/go-concordance-engine/config"
	"github.com/gcbaptista/go-concordance-engine/internal/compiler"
	"github.com/gcbaptista/go-concordance-engine/internal/errors"
	"github.com/gcbaptista/go-concordance-engine/internal/matcher"
	"github.com/gcbaptista/go-concordance-engine/internal/pattern"
	"github.com/gcbaptista/go-concordance-engine/internal/textadapter"
	"github.com/gcbaptista/go-concordance-engine/model"
)

// PatternModel owns a caller-built pattern tree and its compiled program.
//
// The tree stays editable. Compile snapshots a fingerprint of the tree next
// to the program; editing the tree afterwards invalidates the program and
// Search reports errors.ErrPatternChanged until Compile is called again.
type PatternModel struct {
	root        *pattern.Root
	opts        compiler.Options
	overlapMode string

	mu          sync.RWMutex
	prog        *matcher.Program
	fingerprint uint64
}

// NewPatternModel wraps root. Nothing is validated until Compile.
func NewPatternModel(root *pattern.Root, opts compiler.Options) *PatternModel {
	return &PatternModel{root: root, opts: opts, overlapMode: config.OverlapNonOverlapping}
}

// Root returns the tree. Changes to it require a new Compile.
func (m *PatternModel) Root() *pattern.Root { return m.root }

// SetOverlapMode selects config.OverlapNonOverlapping or config.OverlapAllStarts.
func (m *PatternModel) SetOverlapMode(mode string) error {
	switch mode {
	case config.OverlapNonOverlapping, config.OverlapAllStarts:
	default:
		return errors.NewValidationError("overlap_mode", fmt.Sprintf("unknown overlap mode '%s'", mode))
	}
	m.mu.Lock()
	m.overlapMode = mode
	m.mu.Unlock()
	return nil
}

func fingerprint(root *pattern.Root) uint64 {
	if root == nil {
		return 0
	}
	return xxhash.Sum64String(root.String())
}

// Compile validates and lowers the tree. On failure the previous program, if
// any, is discarded.
func (m *PatternModel) Compile() error {
	prog, err := compiler.Compile(m.root, m.opts)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.prog = nil
		return err
	}
	m.prog = prog
	m.fingerprint = fingerprint(m.root)
	return nil
}

// Program returns the compiled program after checking it still describes the
// tree.
func (m *PatternModel) Program() (*matcher.Program, error) {
	m.mu.RLock()
	prog, fp := m.prog, m.fingerprint
	m.mu.RUnlock()

	if prog == nil {
		return nil, errors.ErrNotCompiled
	}
	if fingerprint(m.root) != fp {
		return nil, errors.ErrPatternChanged
	}
	return prog, nil
}

// Search returns every fragment of the given paragraphs the pattern matches,
// in paragraph order and then by begin and end. It does not modify the model
// and may be called from several goroutines.
func (m *PatternModel) Search(paragraphs ...*model.Paragraph) ([]model.Fragment, error) {
	prog, err := m.Program()
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	mode := m.overlapMode
	m.mu.RUnlock()

	var out []model.Fragment
	for _, p := range paragraphs {
		if p == nil {
			continue
		}
		frags, _ := searchParagraph(prog, mode, p)
		out = append(out, frags...)
	}
	return out, nil
}

// searchParagraph runs prog over every segment of p. It returns the
// deduplicated, sorted fragments and the number of stale occurrences seen.
func searchParagraph(prog *matcher.Program, mode string, p *model.Paragraph) ([]model.Fragment, int) {
	seen := make(map[model.Fragment]bool)
	stale := 0
	for _, seg := range textadapter.Adapt(p) {
		stale += seg.StaleOccurrences
		for _, r := range matchRanges(prog, mode, seg.Sequence) {
			begin, end := seg.Sequence.Span(r[0], r[1])
			if begin >= end {
				continue
			}
			seen[model.Fragment{ParagraphID: p.ID, Begin: begin, End: end}] = true
		}
	}
	if len(seen) == 0 {
		return nil, stale
	}

	frags := make([]model.Fragment, 0, len(seen))
	for f := range seen {
		frags = append(frags, f)
	}
	sort.Slice(frags, func(i, j int) bool { return frags[i].Less(frags[j]) })
	return frags, stale
}

// matchRanges returns the morph ranges [start,end) matched in seq. Only
// ranges that consume at least one morph count.
func matchRanges(prog *matcher.Program, mode string, seq *matcher.Sequence) [][2]int {
	if seq.Len() == 0 {
		return nil
	}
	runner := prog.NewRunner(seq)

	var out [][2]int
	for start := 0; start < seq.Len(); {
		ends := matcher.Consuming(runner.Ends(start), start)
		for _, e := range ends {
			out = append(out, [2]int{start, e})
		}
		if mode == config.OverlapAllStarts || len(ends) == 0 {
			start++
			continue
		}
		start = matcher.Furthest(ends, start)
	}
	return out
}

// OptionsFromSettings builds the compiler options for a corpus.
func OptionsFromSettings(settings config.CorpusSettings) (compiler.Options, error) {
	system, err := settings.FeatureSystem()
	if err != nil {
		return compiler.Options{}, fmt.Errorf("invalid feature system: %w", err)
	}
	tree, err := settings.CategoryTree()
	if err != nil {
		return compiler.Options{}, fmt.Errorf("invalid category hierarchy: %w", err)
	}

	opts := compiler.Options{
		Features:       system,
		Tags:           settings.TagSet(),
		MaxProgramSize: settings.MaxProgramSize,
	}
	if tree != nil {
		opts.Categories = tree
	}
	return opts, nil
}
