// Package compile builds the instruction tree of a validated light program.
package compile

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/coreman2200/funtimes-lightserver/internal/codec"
	"github.com/coreman2200/funtimes-lightserver/internal/effect"
	"github.com/coreman2200/funtimes-lightserver/internal/program"
	"github.com/coreman2200/funtimes-lightserver/internal/source"
)

var ErrMalformed = errors.New("compile: malformed program")

// Program summarises a compiled program.
type Program struct {
	Name    string
	Leaves  int
	Repeats int
}

type Compiler struct {
	env effect.Env
}

func New(env effect.Env) *Compiler {
	return &Compiler{env: env}
}

// Build compiles text into t, which is reset first. text must already have
// passed validation; Build only re-checks what it needs to avoid building a
// broken tree. On error t is left empty.
func (c *Compiler) Build(text string, t *program.Tree) (Program, error) {
	t.Reset()
	doc, err := source.Parse(text, 0)
	if err != nil {
		return Program{}, err
	}
	name, _ := source.DecodeString(doc.Name)
	if _, err := c.collection(doc.Instructions, program.None, t); err != nil {
		t.Reset()
		return Program{}, err
	}
	return Program{Name: name, Leaves: t.Leaves(), Repeats: t.Repeats()}, nil
}

// collection allocates every entry of an instructions list, links siblings
// in document order and returns the first.
func (c *Compiler) collection(raw json.RawMessage, parent program.Ref, t *program.Tree) (program.Ref, error) {
	fields, err := source.Fields(raw)
	if err != nil {
		return program.None, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(fields) == 0 {
		return program.None, fmt.Errorf("%w: empty instructions", ErrMalformed)
	}
	first, prev := program.None, program.None
	for _, f := range fields {
		var ref program.Ref
		switch f.Key {
		case source.KeyInstruction:
			ref, err = c.leaf(f.Value, parent, t)
		case source.KeyRepeat:
			ref, err = c.repeat(f.Value, parent, t)
		default:
			err = fmt.Errorf("%w: unexpected entry %q", ErrMalformed, f.Key)
		}
		if err != nil {
			return program.None, err
		}
		if first.IsNone() {
			first = ref
		}
		if !prev.IsNone() {
			t.SetNext(prev, ref)
		}
		prev = ref
	}
	return first, nil
}

func (c *Compiler) leaf(raw json.RawMessage, parent program.Ref, t *program.Tree) (program.Ref, error) {
	text, ok := source.DecodeString(raw)
	if !ok {
		return program.None, fmt.Errorf("%w: instruction %s", ErrMalformed, raw)
	}
	h, ok := codec.DecodeHeader(text)
	if !ok {
		return program.None, fmt.Errorf("%w: instruction %q", ErrMalformed, text)
	}
	op := effect.Opcode(h.Opcode)
	ex, ok := effect.For(op)
	if !ok {
		return program.None, fmt.Errorf("%w: opcode %d", ErrMalformed, h.Opcode)
	}
	params := text[codec.HeaderLen:]
	steps := ex.Steps(params, c.env)
	if steps < 1 {
		steps = 1
	}
	l := program.Leaf{
		Text:     text,
		Opcode:   op,
		Params:   params,
		Duration: int(h.Duration),

		TotalSteps: steps,
		Parent:     parent,
	}
	l.Reset()
	return t.AddLeaf(l)
}

func (c *Compiler) repeat(raw json.RawMessage, parent program.Ref, t *program.Tree) (program.Ref, error) {
	loop, err := source.DecodeLoop(raw)
	if err != nil {
		return program.None, err
	}
	times, ok := source.DecodeInt(loop.Times)
	if !ok || times < 0 {
		return program.None, fmt.Errorf("%w: times %s", ErrMalformed, loop.Times)
	}
	iterations := times
	if times == 0 {
		iterations = program.Infinite
	}
	ref, err := t.AddRepeat(program.Repeat{
		Iterations: iterations,
		Remaining:  iterations,
		Parent:     parent,
	})
	if err != nil {
		return program.None, err
	}
	first, err := c.collection(loop.Instructions, ref, t)
	if err != nil {
		return program.None, err
	}
	t.Repeat(ref).FirstChild = first
	return ref, nil
}
