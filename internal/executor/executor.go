// Package executor steps a compiled light program once per tick.
package executor

import (
	"github.com/coreman2200/funtimes-lightserver/internal/effect"
	"github.com/coreman2200/funtimes-lightserver/internal/program"
	"github.com/coreman2200/funtimes-lightserver/model"
)

type State int

const (
	Idle State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "idle"
}

// Executor owns the current-instruction cursor of a tree between ticks.
type Executor struct {
	tree *program.Tree
	env  effect.Env
	out  *model.Output
}

func New(tree *program.Tree, env effect.Env, out *model.Output) *Executor {
	return &Executor{tree: tree, env: env, out: out}
}

// Use switches to another tree, output buffer and strip.
func (e *Executor) Use(tree *program.Tree, env effect.Env, out *model.Output) {
	e.tree = tree
	e.env = env
	e.out = out
}

func (e *Executor) Tree() *program.Tree { return e.tree }

func (e *Executor) State() State {
	if e.tree == nil || e.tree.Current().IsNone() {
		return Idle
	}
	return Active
}

// Stop drops the program. The arenas keep their capacity.
func (e *Executor) Stop() {
	if e.tree != nil {
		e.tree.Reset()
	}
}

// Step runs one tick. It returns the rendering instructions produced by
// the current instruction, or false when nothing was due. The output is
// reused by the next Step.
func (e *Executor) Step() (*model.Output, bool) {
	e.out.Reset()
	if e.State() == Idle {
		return nil, false
	}
	cur := e.tree.Current()
	if cur.IsRepeat() {
		cur = e.descend(cur)
		e.tree.SetCurrent(cur)
	}
	if !cur.IsLeaf() {
		e.tree.SetCurrent(program.None)
		return nil, false
	}

	rendered, exhausted := e.render(cur)
	if exhausted {
		e.advance(cur)
	}
	if !rendered {
		return nil, false
	}
	return e.out, true
}

// render runs the leaf's effect when a fresh duration window starts and
// counts the window down. It reports whether output was produced and
// whether the leaf has no steps left.
func (e *Executor) render(ref program.Ref) (rendered, exhausted bool) {
	l := e.tree.Leaf(ref)
	if l.Duration == 0 && l.RemainingSteps == 0 {
		return false, true
	}
	if l.CurrentDuration == l.Duration && l.RemainingSteps > 0 {
		if ex, ok := effect.For(l.Opcode); ok {
			ex.Execute(l.Params, l.Step(), e.env, e.out)
			rendered = true
		}
	}
	l.CurrentDuration--
	cd := l.CurrentDuration
	if cd <= 0 && l.RemainingSteps > 0 {
		l.CurrentDuration = l.Duration
		l.RemainingSteps--
	}
	return rendered, l.RemainingSteps == 0 && cd <= 0
}

// descend follows first children down to a leaf. Repeats entered on the
// way start their iterations over; the starting node's counters are left
// to the caller.
func (e *Executor) descend(ref program.Ref) program.Ref {
	for ref.IsRepeat() {
		ref = e.tree.Repeat(ref).FirstChild
		if r := e.tree.Repeat(ref); r != nil {
			r.ResetIterations()
		}
	}
	if l := e.tree.Leaf(ref); l != nil {
		l.Reset()
	}
	return ref
}

// advance moves past an exhausted node: to its sibling, else back into its
// enclosing loop, else up a level. Falling off the top leaves the executor
// idle.
func (e *Executor) advance(ref program.Ref) {
	t := e.tree
	t.SetCurrent(program.None)
	for {
		if next := t.Next(ref); !next.IsNone() {
			if r := t.Repeat(next); r != nil {
				r.ResetIterations()
			}
			t.SetCurrent(e.descend(next))
			return
		}
		parent := t.Parent(ref)
		r := t.Repeat(parent)
		if r == nil {
			return
		}
		if r.IsInfinite() || r.Decrement() > 0 {
			t.SetCurrent(e.descend(parent))
			return
		}
		ref = parent
	}
}
