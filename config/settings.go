// Package config provides configuration structures for the concordance engine.
// It defines corpus settings (category inventory, feature system, tags and
// search behaviour) and the server configuration.
package config

import (
	"fmt"
	"strings"

	"github.com/gcbaptista/go-concordance-engine/internal/features"
)

// Overlap modes for concordance search.
const (
	// OverlapNonOverlapping scans left to right and resumes after the furthest
	// end of each successful start.
	OverlapNonOverlapping = "non_overlapping"
	// OverlapAllStarts runs the pattern from every start position and keeps
	// overlapping fragments.
	OverlapAllStarts = "all_starts"
)

// Defaults applied by ApplyDefaults.
const (
	DefaultContextWidth     = 40
	DefaultMaxProgramSize   = 10000
	DefaultMaxSearchWorkers = 4
)

// CategoryDefn declares a part of speech. A category matches its descendants.
type CategoryDefn struct {
	ID     string `json:"id" toml:"id" yaml:"id"`
	Name   string `json:"name,omitempty" toml:"name" yaml:"name,omitempty"`
	Parent string `json:"parent,omitempty" toml:"parent" yaml:"parent,omitempty"`
}

// CorpusSettings contains all configuration options for a corpus.
//
// Empty inventories (Categories, Features, TagPossibilities) disable the
// corresponding pattern checks: any category, feature or tag is accepted.
type CorpusSettings struct {
	Name             string          `json:"name" toml:"name" yaml:"name"`
	Categories       []CategoryDefn  `json:"categories" toml:"categories" yaml:"categories"`
	Features         []features.Defn `json:"features" toml:"features" yaml:"features"`
	TagPossibilities []string        `json:"tag_possibilities" toml:"tag_possibilities" yaml:"tag_possibilities"`
	OverlapMode      string          `json:"overlap_mode" toml:"overlap_mode" yaml:"overlap_mode"`
	ContextWidth     int             `json:"context_width" toml:"context_width" yaml:"context_width"`             // runes of left/right context in concordance lines
	MaxProgramSize   int             `json:"max_program_size" toml:"max_program_size" yaml:"max_program_size"`    // instruction cap for compiled patterns
	MaxSearchWorkers int             `json:"max_search_workers" toml:"max_search_workers" yaml:"max_search_workers"` // texts searched in parallel
}

// Validate returns every problem found in the settings. An empty result
// means the settings are usable.
func (settings *CorpusSettings) Validate() []string {
	var problems []string

	if strings.TrimSpace(settings.Name) == "" {
		problems = append(problems, "Corpus name cannot be empty")
	}

	ids := make([]string, 0, len(settings.Categories))
	for _, c := range settings.Categories {
		if strings.TrimSpace(c.ID) == "" {
			problems = append(problems, "Category id cannot be empty or whitespace-only")
			continue
		}
		ids = append(ids, c.ID)
	}
	problems = append(problems, checkDuplicates("categories", ids)...)
	if len(problems) == 0 {
		if _, err := NewCategoryTree(settings.Categories); err != nil {
			problems = append(problems, err.Error())
		}
	}

	if _, err := features.NewSystem(settings.Features); err != nil {
		problems = append(problems, "Invalid feature system: "+err.Error())
	}

	problems = append(problems, checkDuplicates("tag_possibilities", settings.TagPossibilities)...)
	for _, tag := range settings.TagPossibilities {
		if strings.TrimSpace(tag) == "" {
			problems = append(problems, "Tag possibility cannot be empty or whitespace-only")
		}
	}

	switch settings.OverlapMode {
	case "", OverlapNonOverlapping, OverlapAllStarts:
	default:
		problems = append(problems, fmt.Sprintf("Invalid overlap_mode '%s' (must be '%s' or '%s')",
			settings.OverlapMode, OverlapNonOverlapping, OverlapAllStarts))
	}
	if settings.ContextWidth < 0 {
		problems = append(problems, "context_width cannot be negative")
	}
	if settings.MaxProgramSize < 0 {
		problems = append(problems, "max_program_size cannot be negative")
	}
	if settings.MaxSearchWorkers < 0 {
		problems = append(problems, "max_search_workers cannot be negative")
	}

	return problems
}

// checkDuplicates checks for duplicate values in a slice and returns error messages
func checkDuplicates(fieldName string, values []string) []string {
	var problems []string
	seen := make(map[string]bool)

	for _, v := range values {
		if seen[v] {
			problems = append(problems, "Duplicate value '"+v+"' found in "+fieldName)
		}
		seen[v] = true
	}

	return problems
}

// ApplyDefaults applies default values to the corpus settings
func (settings *CorpusSettings) ApplyDefaults() {
	if settings.OverlapMode == "" {
		settings.OverlapMode = OverlapNonOverlapping
	}
	if settings.ContextWidth == 0 {
		settings.ContextWidth = DefaultContextWidth
	}
	if settings.MaxProgramSize == 0 {
		settings.MaxProgramSize = DefaultMaxProgramSize
	}
	if settings.MaxSearchWorkers == 0 {
		settings.MaxSearchWorkers = DefaultMaxSearchWorkers
	}

	// Initialize empty slices if nil to prevent nil pointer issues
	if settings.Categories == nil {
		settings.Categories = []CategoryDefn{}
	}
	if settings.Features == nil {
		settings.Features = []features.Defn{}
	}
	if settings.TagPossibilities == nil {
		settings.TagPossibilities = []string{}
	}
}

// FeatureSystem builds the feature system, or nil when no features are declared.
func (settings *CorpusSettings) FeatureSystem() (*features.System, error) {
	if len(settings.Features) == 0 {
		return nil, nil
	}
	return features.NewSystem(settings.Features)
}

// CategoryTree builds the category hierarchy, or nil when no categories are declared.
func (settings *CorpusSettings) CategoryTree() (*CategoryTree, error) {
	if len(settings.Categories) == 0 {
		return nil, nil
	}
	return NewCategoryTree(settings.Categories)
}

// TagSet returns the declared tag possibilities, or nil when none are declared.
func (settings *CorpusSettings) TagSet() map[string]bool {
	if len(settings.TagPossibilities) == 0 {
		return nil
	}
	set := make(map[string]bool, len(settings.TagPossibilities))
	for _, t := range settings.TagPossibilities {
		set[t] = true
	}
	return set
}
