package features

import (
	"fmt"
	"sort"
)

// DefnKind is the declared kind of a feature definition.
type DefnKind string

const (
	DefnClosed  DefnKind = "closed"
	DefnComplex DefnKind = "complex"
)

// Defn declares one feature of a feature system.
type Defn struct {
	ID       string   `json:"id"`
	Name     string   `json:"name,omitempty"`
	Kind     DefnKind `json:"kind"`
	Symbols  []string `json:"symbols,omitempty"`  // closed: the admissible symbols
	Features []string `json:"features,omitempty"` // complex: admissible nested features, empty means any
}

// System resolves feature definitions referenced from patterns and texts.
// A nil *System accepts every structure.
type System struct {
	defns   map[string]Defn
	symbols map[string]map[string]bool
	nested  map[string]map[string]bool
}

// NewSystem validates the definitions and builds a System.
func NewSystem(defns []Defn) (*System, error) {
	sys := &System{
		defns:   make(map[string]Defn, len(defns)),
		symbols: make(map[string]map[string]bool),
		nested:  make(map[string]map[string]bool),
	}
	for i, d := range defns {
		if d.ID == "" {
			return nil, fmt.Errorf("feature definition %d has an empty id", i)
		}
		if _, dup := sys.defns[d.ID]; dup {
			return nil, fmt.Errorf("duplicate feature definition '%s'", d.ID)
		}
		switch d.Kind {
		case DefnClosed:
			if len(d.Symbols) == 0 {
				return nil, fmt.Errorf("closed feature '%s' declares no symbols", d.ID)
			}
			syms := make(map[string]bool, len(d.Symbols))
			for _, s := range d.Symbols {
				syms[s] = true
			}
			sys.symbols[d.ID] = syms
		case DefnComplex:
			if len(d.Features) > 0 {
				nested := make(map[string]bool, len(d.Features))
				for _, f := range d.Features {
					nested[f] = true
				}
				sys.nested[d.ID] = nested
			}
		default:
			return nil, fmt.Errorf("feature '%s' has unknown kind '%s'", d.ID, d.Kind)
		}
		sys.defns[d.ID] = d
	}
	for _, d := range defns {
		for _, f := range d.Features {
			if _, ok := sys.defns[f]; !ok {
				return nil, fmt.Errorf("complex feature '%s' references unknown feature '%s'", d.ID, f)
			}
		}
	}
	return sys, nil
}

// Lookup returns the definition of a feature.
func (s *System) Lookup(id string) (Defn, bool) {
	if s == nil {
		return Defn{}, false
	}
	d, ok := s.defns[id]
	return d, ok
}

// Defns returns all definitions sorted by ID.
func (s *System) Defns() []Defn {
	if s == nil {
		return nil
	}
	out := make([]Defn, 0, len(s.defns))
	for _, d := range s.defns {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Validate checks that every feature of st is declared, that value kinds
// agree with their definitions and that closed symbols are admissible.
func (s *System) Validate(st Structure) error {
	if s == nil {
		return nil
	}
	return s.validate(st, "", nil)
}

func (s *System) validate(st Structure, path string, allowed map[string]bool) error {
	var err error
	st.Range(func(feature string, v Value) bool {
		at := feature
		if path != "" {
			at = path + "." + feature
		}
		d, ok := s.defns[feature]
		if !ok {
			err = fmt.Errorf("unknown feature '%s'", at)
			return false
		}
		if allowed != nil && !allowed[feature] {
			err = fmt.Errorf("feature '%s' is not allowed inside '%s'", feature, path)
			return false
		}
		switch val := v.(type) {
		case Closed:
			if d.Kind != DefnClosed {
				err = fmt.Errorf("feature '%s' is %s but has a closed value", at, d.Kind)
				return false
			}
			if !s.symbols[feature][val.Symbol] {
				err = fmt.Errorf("feature '%s' has undeclared symbol '%s'", at, val.Symbol)
				return false
			}
		case Complex:
			if d.Kind != DefnComplex {
				err = fmt.Errorf("feature '%s' is %s but has a complex value", at, d.Kind)
				return false
			}
			if err = s.validate(val.Structure, at, s.nested[feature]); err != nil {
				return false
			}
		}
		return true
	})
	return err
}
