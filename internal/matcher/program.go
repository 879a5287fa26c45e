package matcher

import (
	"fmt"
	"strings"

	"github.com/gcbaptista/go-concordance-engine/internal/features"
)

// Op is an instruction opcode.
type Op uint8

const (
	OpMatch    Op = iota // accept at the current position
	OpWord               // consume one whole occurrence
	OpMorph              // consume one morph
	OpMorphRun           // consume Min..Max morphs of the current word
	OpTag                // zero-width: current morph lies in a tag span
	OpBoundary           // zero-width: current position is a word edge
	OpSplit              // continue at X, then at Y
	OpJump               // continue at X
)

var opNames = [...]string{
	OpMatch:    "match",
	OpWord:     "word",
	OpMorph:    "morph",
	OpMorphRun: "morphrun",
	OpTag:      "tag",
	OpBoundary: "boundary",
	OpSplit:    "split",
	OpJump:     "jump",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("op(%d)", op)
}

// Unbounded is the Max of an OpMorphRun without an upper limit.
const Unbounded = -1

// Inst is one program instruction.
type Inst struct {
	Op    Op
	Word  *WordTest  // OpWord
	Morph *MorphTest // OpMorph, OpMorphRun
	Tag   string     // OpTag, empty accepts any tag
	Min   int        // OpMorphRun
	Max   int        // OpMorphRun
	X, Y  int        // OpSplit, OpJump
}

// WordTest holds the folded constraints of a Word node.
type WordTest struct {
	// Categories is the admissible category set, nil when unconstrained.
	Categories     map[string]bool
	NegateCategory bool
	Form           string
	Gloss          string
	Features       features.Structure
}

// Match reports whether occ satisfies every constraint.
func (t *WordTest) Match(occ *Occurrence) bool {
	if t.Categories != nil && t.Categories[occ.Category] == t.NegateCategory {
		return false
	}
	if t.Form != "" && t.Form != occ.Form {
		return false
	}
	if t.Gloss != "" && t.Gloss != occ.Gloss {
		return false
	}
	return features.Matches(t.Features, occ.Features)
}

// MorphTest holds the folded constraints of a Morph node.
type MorphTest struct {
	Form           string
	Entry          string
	Gloss          string
	Categories     map[string]bool
	NegateCategory bool
}

// Match reports whether m satisfies every constraint.
func (t *MorphTest) Match(m *Morph) bool {
	if t.Form != "" && t.Form != m.Form {
		return false
	}
	if t.Entry != "" && t.Entry != m.Entry {
		return false
	}
	if t.Gloss != "" && t.Gloss != m.Gloss {
		return false
	}
	if t.Categories != nil && t.Categories[m.Category] == t.NegateCategory {
		return false
	}
	return true
}

// Program is a compiled pattern. It is immutable and safe for concurrent use.
type Program struct {
	insts []Inst

	// RequiredCategories lists categories some word of every match carries,
	// for index prefiltering. RequiredTags does the same for tag possibilities.
	RequiredCategories []string
	RequiredTags       []string
}

// NewProgram checks jump targets and operands and wraps the instructions.
// The last instruction must be OpMatch.
func NewProgram(insts []Inst) (*Program, error) {
	if len(insts) == 0 || insts[len(insts)-1].Op != OpMatch {
		return nil, fmt.Errorf("program must end with a match instruction")
	}
	for pc, in := range insts {
		switch in.Op {
		case OpSplit:
			if !inRange(in.X, len(insts)) || !inRange(in.Y, len(insts)) {
				return nil, fmt.Errorf("instruction %d: split target out of range", pc)
			}
		case OpJump:
			if !inRange(in.X, len(insts)) {
				return nil, fmt.Errorf("instruction %d: jump target out of range", pc)
			}
		case OpWord:
			if in.Word == nil {
				return nil, fmt.Errorf("instruction %d: word instruction without a test", pc)
			}
		case OpMorph:
			if in.Morph == nil {
				return nil, fmt.Errorf("instruction %d: morph instruction without a test", pc)
			}
		case OpMorphRun:
			if in.Morph == nil {
				return nil, fmt.Errorf("instruction %d: morph instruction without a test", pc)
			}
			if in.Min < 0 || (in.Max != Unbounded && in.Max < in.Min) {
				return nil, fmt.Errorf("instruction %d: invalid morph run {%d,%d}", pc, in.Min, in.Max)
			}
		case OpMatch, OpTag, OpBoundary:
		default:
			return nil, fmt.Errorf("instruction %d: unknown opcode %d", pc, in.Op)
		}
	}
	return &Program{insts: insts}, nil
}

func inRange(pc, n int) bool { return pc >= 0 && pc < n }

// Len returns the number of instructions.
func (p *Program) Len() int { return len(p.insts) }

// String renders one instruction per line, for debugging.
func (p *Program) String() string {
	var b strings.Builder
	for pc, in := range p.insts {
		fmt.Fprintf(&b, "%3d  %s", pc, in.Op)
		switch in.Op {
		case OpSplit:
			fmt.Fprintf(&b, " %d, %d", in.X, in.Y)
		case OpJump:
			fmt.Fprintf(&b, " %d", in.X)
		case OpMorphRun:
			if in.Max == Unbounded {
				fmt.Fprintf(&b, " {%d,}", in.Min)
			} else {
				fmt.Fprintf(&b, " {%d,%d}", in.Min, in.Max)
			}
		case OpTag:
			if in.Tag != "" {
				fmt.Fprintf(&b, " %q", in.Tag)
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
