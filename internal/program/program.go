// Package program holds compiled light programs: leaf instructions and
// repeat containers stored in two fixed-capacity arenas and linked by index.
package program

import (
	"errors"
	"fmt"

	"github.com/coreman2200/funtimes-lightserver/internal/effect"
)

// Infinite is the iteration count of a repeat that never ends.
const Infinite = -1

var ErrArenaFull = errors.New("program: arena full")

type Kind uint8

const (
	KindNone Kind = iota
	KindLeaf
	KindRepeat
)

// Ref addresses a node in one of the two arenas. The zero Ref is None.
type Ref struct {
	Kind  Kind
	Index int
}

var None = Ref{}

func (r Ref) IsNone() bool   { return r.Kind == KindNone }
func (r Ref) IsLeaf() bool   { return r.Kind == KindLeaf }
func (r Ref) IsRepeat() bool { return r.Kind == KindRepeat }

func (r Ref) String() string {
	switch r.Kind {
	case KindLeaf:
		return fmt.Sprintf("leaf[%d]", r.Index)
	case KindRepeat:
		return fmt.Sprintf("repeat[%d]", r.Index)
	}
	return "none"
}

// Leaf is one encoded effect instruction.
type Leaf struct {
	Text   string
	Opcode effect.Opcode
	// Params is Text after the header.
	Params string

	Duration        int
	CurrentDuration int
	TotalSteps      int
	RemainingSteps  int

	Next   Ref
	Parent Ref
}

// Reset rearms the leaf for a fresh pass.
func (l *Leaf) Reset() {
	l.CurrentDuration = l.Duration
	l.RemainingSteps = l.TotalSteps
}

// Step is the animation step index the next render uses.
func (l *Leaf) Step() int {
	return l.TotalSteps - l.RemainingSteps
}

// Repeat runs its children Iterations times, or forever when Infinite.
type Repeat struct {
	FirstChild Ref
	Iterations int
	Remaining  int

	Next   Ref
	Parent Ref
}

func (r *Repeat) IsInfinite() bool { return r.Iterations == Infinite }

func (r *Repeat) ResetIterations() { r.Remaining = r.Iterations }

// Decrement counts down one finished pass and returns the passes left.
func (r *Repeat) Decrement() int {
	if r.Remaining > 0 {
		r.Remaining--
	}
	return r.Remaining
}

// Tree is a compiled program. Capacity is fixed at construction and Reset
// reuses the arenas.
type Tree struct {
	leaves  []Leaf
	repeats []Repeat

	first   Ref
	current Ref
}

func NewTree(maxLeaves, maxRepeats int) *Tree {
	return &Tree{
		leaves:  make([]Leaf, 0, maxLeaves),
		repeats: make([]Repeat, 0, maxRepeats),
	}
}

// Reset clears every slot and leaves the tree empty.
func (t *Tree) Reset() {
	clear(t.leaves)
	clear(t.repeats)
	t.leaves = t.leaves[:0]
	t.repeats = t.repeats[:0]
	t.first = None
	t.current = None
}

func (t *Tree) AddLeaf(l Leaf) (Ref, error) {
	if len(t.leaves) == cap(t.leaves) {
		return None, fmt.Errorf("%w: more than %d instructions", ErrArenaFull, cap(t.leaves))
	}
	t.leaves = append(t.leaves, l)
	return t.added(Ref{Kind: KindLeaf, Index: len(t.leaves) - 1}), nil
}

func (t *Tree) AddRepeat(r Repeat) (Ref, error) {
	if len(t.repeats) == cap(t.repeats) {
		return None, fmt.Errorf("%w: more than %d repeats", ErrArenaFull, cap(t.repeats))
	}
	t.repeats = append(t.repeats, r)
	return t.added(Ref{Kind: KindRepeat, Index: len(t.repeats) - 1}), nil
}

// added makes the first allocated node the program entry point.
func (t *Tree) added(r Ref) Ref {
	if t.first.IsNone() {
		t.first = r
		t.current = r
	}
	return r
}

// Leaf returns the leaf r addresses, or nil.
func (t *Tree) Leaf(r Ref) *Leaf {
	if !r.IsLeaf() || r.Index < 0 || r.Index >= len(t.leaves) {
		return nil
	}
	return &t.leaves[r.Index]
}

// Repeat returns the repeat r addresses, or nil.
func (t *Tree) Repeat(r Ref) *Repeat {
	if !r.IsRepeat() || r.Index < 0 || r.Index >= len(t.repeats) {
		return nil
	}
	return &t.repeats[r.Index]
}

func (t *Tree) Next(r Ref) Ref {
	if l := t.Leaf(r); l != nil {
		return l.Next
	}
	if rp := t.Repeat(r); rp != nil {
		return rp.Next
	}
	return None
}

func (t *Tree) Parent(r Ref) Ref {
	if l := t.Leaf(r); l != nil {
		return l.Parent
	}
	if rp := t.Repeat(r); rp != nil {
		return rp.Parent
	}
	return None
}

func (t *Tree) SetNext(r, next Ref) {
	if l := t.Leaf(r); l != nil {
		l.Next = next
	} else if rp := t.Repeat(r); rp != nil {
		rp.Next = next
	}
}

func (t *Tree) First() Ref { return t.first }

func (t *Tree) Current() Ref { return t.current }

func (t *Tree) SetCurrent(r Ref) { t.current = r }

func (t *Tree) Leaves() int  { return len(t.leaves) }
func (t *Tree) Repeats() int { return len(t.repeats) }

func (t *Tree) LeafCapacity() int   { return cap(t.leaves) }
func (t *Tree) RepeatCapacity() int { return cap(t.repeats) }

func (t *Tree) Empty() bool { return t.first.IsNone() }
