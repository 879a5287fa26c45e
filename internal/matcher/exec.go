package matcher

import "sort"

// thread is one pending state of the executor. boundary records that a word
// boundary was already asserted at pos; it is cleared by any consumption.
// cursor records that a morph cursor is open on the word holding pos-1: Morph
// consumption stays inside that word until a Word or WordBoundary closes it.
type thread struct {
	pc       int
	pos      int
	boundary bool
	cursor   bool
}

// Runner executes a program over one sequence. It reuses its state between
// calls and must not be shared between goroutines.
type Runner struct {
	prog    *Program
	seq     *Sequence
	visited []uint64
	touched []int
	stack   []thread
	ends    []bool
}

// NewRunner prepares p for repeated runs over seq.
func (p *Program) NewRunner(seq *Sequence) *Runner {
	states := len(p.insts) * (seq.Len() + 1) * 4
	return &Runner{
		prog:    p,
		seq:     seq,
		visited: make([]uint64, (states+63)/64),
		ends:    make([]bool, seq.Len()+1),
	}
}

// Ends is a convenience wrapper for a single run.
func (p *Program) Ends(seq *Sequence, start int) []int {
	return p.NewRunner(seq).Ends(start)
}

// Ends returns, in ascending order, every position at which the whole
// pattern can finish when matching begins at start. Zero-width matches end at
// start itself.
//
// States (pc, pos, boundary, cursor) are explored depth-first from an explicit
// stack, and each state is expanded at most once, so a run is bounded by
// program size times sequence length. Split explores X before Y and morph
// runs try longer runs first; the set of ends does not depend on that order.
func (r *Runner) Ends(start int) []int {
	if start < 0 || start > r.seq.Len() {
		return nil
	}
	r.reset()

	r.stack = append(r.stack[:0], thread{pc: 0, pos: start})
	for len(r.stack) > 0 {
		t := r.stack[len(r.stack)-1]
		r.stack = r.stack[:len(r.stack)-1]
		if !r.visit(t) {
			continue
		}
		r.step(t)
	}

	out := make([]int, 0)
	for pos, ok := range r.ends {
		if ok {
			out = append(out, pos)
		}
	}
	return out
}

func (r *Runner) step(t thread) {
	seq := r.seq
	in := &r.prog.insts[t.pc]
	switch in.Op {
	case OpMatch:
		r.ends[t.pos] = true

	case OpJump:
		r.push(t.at(in.X))

	case OpSplit:
		r.push(t.at(in.Y))
		r.push(t.at(in.X))

	case OpWord:
		if t.pos >= seq.Len() || !seq.IsWordEdge(t.pos) {
			return
		}
		occ := seq.OccurrenceAt(t.pos)
		if occ.Stale || !in.Word.Match(occ) {
			return
		}
		r.push(thread{pc: t.pc + 1, pos: t.pos + occ.count})

	case OpMorph:
		if !r.canOpenMorph(t) {
			return
		}
		m := seq.Morph(t.pos)
		if seq.occurrences[m.occ].Stale || !in.Morph.Match(m) {
			return
		}
		r.push(thread{pc: t.pc + 1, pos: t.pos + 1, cursor: true})

	case OpMorphRun:
		r.morphRun(t, in)

	case OpTag:
		if seq.inTag(t.pos, in.Tag) {
			r.push(t.at(t.pc + 1))
		}

	case OpBoundary:
		if !t.boundary && seq.IsWordEdge(t.pos) {
			r.push(thread{pc: t.pc + 1, pos: t.pos, boundary: true})
		}
	}
}

// canOpenMorph reports whether a morph can be consumed at t.pos: there is one
// left, and an open cursor has not run past the end of its word.
func (r *Runner) canOpenMorph(t thread) bool {
	if t.pos >= r.seq.Len() {
		return false
	}
	return !t.cursor || !r.seq.IsWordEdge(t.pos)
}

// morphRun consumes between Min and Max morphs, all inside the occurrence
// that holds the morph at t.pos. It accepts exactly the positions that Min
// mandatory and Max-Min optional OpMorph instructions would. Shorter runs are
// pushed first so the longest admissible run is explored first.
func (r *Runner) morphRun(t thread, in *Inst) {
	seq := r.seq
	if in.Min == 0 {
		r.push(t.at(t.pc + 1))
	}
	if !r.canOpenMorph(t) {
		return
	}
	occ := seq.OccurrenceAt(t.pos)
	if occ.Stale {
		return
	}
	limit := occ.first + occ.count
	for n := 1; t.pos+n <= limit; n++ {
		if in.Max != Unbounded && n > in.Max {
			break
		}
		if !in.Morph.Match(seq.Morph(t.pos + n - 1)) {
			break
		}
		if n >= in.Min {
			r.push(thread{pc: t.pc + 1, pos: t.pos + n, cursor: true})
		}
	}
}

// at moves t to pc without consuming anything.
func (t thread) at(pc int) thread {
	t.pc = pc
	return t
}

func (r *Runner) push(t thread) {
	r.stack = append(r.stack, t)
}

// visit marks t as expanded and reports whether it was new.
func (r *Runner) visit(t thread) bool {
	idx := (t.pc*(r.seq.Len()+1) + t.pos) * 4
	if t.boundary {
		idx++
	}
	if t.cursor {
		idx += 2
	}
	word, bit := idx/64, uint64(1)<<(idx%64)
	if r.visited[word]&bit != 0 {
		return false
	}
	if r.visited[word] == 0 {
		r.touched = append(r.touched, word)
	}
	r.visited[word] |= bit
	return true
}

func (r *Runner) reset() {
	for _, w := range r.touched {
		r.visited[w] = 0
	}
	r.touched = r.touched[:0]
	for i := range r.ends {
		r.ends[i] = false
	}
}

// Furthest returns the largest element of ends greater than start, or -1.
func Furthest(ends []int, start int) int {
	if len(ends) == 0 || ends[len(ends)-1] <= start {
		return -1
	}
	return ends[len(ends)-1]
}

// Consuming filters ends down to those beyond start.
func Consuming(ends []int, start int) []int {
	i := sort.SearchInts(ends, start+1)
	return ends[i:]
}
