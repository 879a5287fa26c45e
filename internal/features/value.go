// Package features models inflectional feature structures: closed symbol
// values, nested complex values, and the one-directional subset match used by
// concordance patterns to constrain words.
//
// A Structure is immutable once built. It carries a structural hash computed
// at construction time, so structures can be shared between goroutines,
// compared cheaply and used as map keys through Hash.
package features

import (
	"encoding/binary"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Kind distinguishes the two variants of Value.
type Kind int

const (
	KindClosed  Kind = iota // a single symbol, optionally negated
	KindComplex             // a nested Structure
)

func (k Kind) String() string {
	switch k {
	case KindClosed:
		return "closed"
	case KindComplex:
		return "complex"
	default:
		return "unknown"
	}
}

// Value is a feature value. The set of implementations is closed: Closed and Complex.
type Value interface {
	Kind() Kind
	Hash() uint64
	String() string
	isValue()
}

var (
	_ Value = Closed{}
	_ Value = Complex{}
)

// Closed is a symbol value. In a query, Negate inverts the comparison.
type Closed struct {
	Symbol string
	Negate bool
}

// Sym returns a plain closed value.
func Sym(symbol string) Closed { return Closed{Symbol: symbol} }

// Not returns a negated closed value.
func Not(symbol string) Closed { return Closed{Symbol: symbol, Negate: true} }

func (Closed) Kind() Kind { return KindClosed }
func (Closed) isValue()   {}

func (c Closed) Hash() uint64 {
	d := xxhash.New()
	if c.Negate {
		_, _ = d.WriteString("!")
	} else {
		_, _ = d.WriteString("=")
	}
	_, _ = d.WriteString(c.Symbol)
	return d.Sum64()
}

func (c Closed) String() string {
	if c.Negate {
		return "!" + c.Symbol
	}
	return c.Symbol
}

// Complex wraps a nested structure.
type Complex struct {
	Structure Structure
}

// Nest builds a complex value from a feature map.
func Nest(values map[string]Value) Complex {
	return Complex{Structure: NewStructure(values)}
}

func (Complex) Kind() Kind { return KindComplex }
func (Complex) isValue()   {}

func (c Complex) Hash() uint64 {
	var buf [9]byte
	buf[0] = '['
	binary.LittleEndian.PutUint64(buf[1:], c.Structure.Hash())
	return xxhash.Sum64(buf[:])
}

func (c Complex) String() string { return c.Structure.String() }

type entry struct {
	feature string
	value   Value
}

// Structure is an immutable map from feature definition IDs to values.
// The zero value is the empty structure.
type Structure struct {
	entries []entry // sorted by feature
	hash    uint64
}

// NewStructure builds a structure from a feature map. Nil values are skipped.
func NewStructure(values map[string]Value) Structure {
	if len(values) == 0 {
		return Structure{}
	}
	entries := make([]entry, 0, len(values))
	for feature, v := range values {
		if v == nil {
			continue
		}
		entries = append(entries, entry{feature: feature, value: v})
	}
	return fromEntries(entries)
}

func fromEntries(entries []entry) Structure {
	if len(entries) == 0 {
		return Structure{}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].feature < entries[j].feature })

	d := xxhash.New()
	var buf [8]byte
	for _, e := range entries {
		_, _ = d.WriteString(e.feature)
		_, _ = d.Write([]byte{0})
		binary.LittleEndian.PutUint64(buf[:], e.value.Hash())
		_, _ = d.Write(buf[:])
	}
	return Structure{entries: entries, hash: d.Sum64()}
}

// Len returns the number of features.
func (s Structure) Len() int { return len(s.entries) }

// IsEmpty reports whether the structure has no features.
func (s Structure) IsEmpty() bool { return len(s.entries) == 0 }

// Hash returns the structural hash. Equal structures have equal hashes.
func (s Structure) Hash() uint64 { return s.hash }

// Get looks up the value of a feature.
func (s Structure) Get(feature string) (Value, bool) {
	i := sort.Search(len(s.entries), func(i int) bool { return s.entries[i].feature >= feature })
	if i < len(s.entries) && s.entries[i].feature == feature {
		return s.entries[i].value, true
	}
	return nil, false
}

// Features returns the feature IDs in sorted order.
func (s Structure) Features() []string {
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.feature
	}
	return out
}

// Range calls fn for every feature in sorted order until fn returns false.
func (s Structure) Range(fn func(feature string, v Value) bool) {
	for _, e := range s.entries {
		if !fn(e.feature, e.value) {
			return
		}
	}
}

// Equal reports structural equality.
func (s Structure) Equal(other Structure) bool {
	if s.hash != other.hash || len(s.entries) != len(other.entries) {
		return false
	}
	for i := range s.entries {
		if s.entries[i].feature != other.entries[i].feature {
			return false
		}
		if !valuesEqual(s.entries[i].value, other.entries[i].value) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b Value) bool {
	switch av := a.(type) {
	case Closed:
		bv, ok := b.(Closed)
		return ok && av == bv
	case Complex:
		bv, ok := b.(Complex)
		return ok && av.Structure.Equal(bv.Structure)
	}
	return false
}

// String renders the structure as "[feature:value ...]" in feature order.
func (s Structure) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, e := range s.entries {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(e.feature)
		sb.WriteByte(':')
		sb.WriteString(e.value.String())
	}
	sb.WriteByte(']')
	return sb.String()
}

// Matches reports whether actual satisfies every constraint in query.
// Features absent from query are never inspected; a queried feature that is
// missing from actual, or whose value has a different kind, fails the match.
func Matches(query, actual Structure) bool {
	for _, e := range query.entries {
		av, ok := actual.Get(e.feature)
		if !ok {
			return false
		}
		if !MatchValue(e.value, av) {
			return false
		}
	}
	return true
}

// MatchValue applies a single query value to an actual value.
func MatchValue(query, actual Value) bool {
	switch q := query.(type) {
	case Closed:
		a, ok := actual.(Closed)
		if !ok {
			return false
		}
		return (q.Symbol == a.Symbol) != q.Negate
	case Complex:
		a, ok := actual.(Complex)
		if !ok {
			return false
		}
		return Matches(q.Structure, a.Structure)
	}
	return false
}

// Merge returns base extended with the features of overlay that base lacks.
// Complex values present in both are merged recursively; for closed values
// base wins.
func Merge(base, overlay Structure) Structure {
	if overlay.IsEmpty() {
		return base
	}
	if base.IsEmpty() {
		return overlay
	}
	merged := make([]entry, 0, len(base.entries)+len(overlay.entries))
	i, j := 0, 0
	for i < len(base.entries) || j < len(overlay.entries) {
		switch {
		case j >= len(overlay.entries):
			merged = append(merged, base.entries[i])
			i++
		case i >= len(base.entries):
			merged = append(merged, overlay.entries[j])
			j++
		case base.entries[i].feature < overlay.entries[j].feature:
			merged = append(merged, base.entries[i])
			i++
		case base.entries[i].feature > overlay.entries[j].feature:
			merged = append(merged, overlay.entries[j])
			j++
		default:
			b, o := base.entries[i], overlay.entries[j]
			bc, bok := b.value.(Complex)
			oc, ook := o.value.(Complex)
			if bok && ook {
				b.value = Complex{Structure: Merge(bc.Structure, oc.Structure)}
			}
			merged = append(merged, b)
			i++
			j++
		}
	}
	return fromEntries(merged)
}
