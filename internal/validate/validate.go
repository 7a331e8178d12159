// Package validate checks light program source against the structural
// rules and each instruction against its effect's parameter rules.
package validate

import (
	"encoding/json"
	"errors"

	"github.com/coreman2200/funtimes-lightserver/internal/codec"
	"github.com/coreman2200/funtimes-lightserver/internal/effect"
	"github.com/coreman2200/funtimes-lightserver/internal/source"
)

// Limits are the static bounds a program is checked against.
type Limits struct {
	// MaxProgramBytes bounds the source text; 0 disables the check.
	MaxProgramBytes int
	MinNameLength   int
	MaxNesting      int
	MaxTimes        int
}

func DefaultLimits() Limits {
	return Limits{
		MaxProgramBytes: 4096,
		MinNameLength:   5,
		MaxNesting:      5,
		MaxTimes:        1000,
	}
}

type Validator struct {
	limits Limits
	env    effect.Env
}

func New(limits Limits, env effect.Env) *Validator {
	return &Validator{limits: limits, env: env}
}

func (v *Validator) Limits() Limits { return v.limits }

// state belongs to a single Validate call.
type state struct {
	depth         int
	infiniteLoops int
}

// Validate checks text and stops at the first failure.
func (v *Validator) Validate(text string) Result {
	doc, err := source.Parse(text, v.limits.MaxProgramBytes)
	if errors.Is(err, source.ErrTooBig) {
		return fail(ProgramTooBig, "")
	}
	if err != nil {
		return fail(MissingMandatoryProperties, "")
	}
	name, ok := source.DecodeString(doc.Name)
	if !ok || len(name) < v.limits.MinNameLength {
		return fail(MissingMandatoryProperties, source.KeyName)
	}
	var st state
	return v.collection(doc.Instructions, &st, NoInstructions)
}

// collection validates an instructions list. empty is the code reported
// when the list is missing or has no entries.
func (v *Validator) collection(raw json.RawMessage, st *state, empty Code) Result {
	if source.IsEmpty(raw) {
		return fail(empty, "")
	}
	fields, err := source.Fields(raw)
	if errors.Is(err, source.ErrNotList) || (err == nil && len(fields) == 0) {
		return fail(empty, "")
	}
	if err != nil {
		return fail(InvalidInstruction, "")
	}
	for _, f := range fields {
		var r Result
		switch f.Key {
		case source.KeyInstruction:
			r = v.instruction(f.Value)
		case source.KeyRepeat:
			r = v.repeat(f.Value, st)
		case "":
			r = fail(InvalidInstruction, string(f.Value))
		default:
			r = fail(InvalidProperty, f.Key)
		}
		if !r.OK() {
			return r
		}
	}
	return Result{Code: Valid}
}

func (v *Validator) instruction(raw json.RawMessage) Result {
	text, ok := source.DecodeString(raw)
	if !ok {
		return fail(InvalidInstruction, string(raw))
	}
	if !ValidInstruction(text, v.env) {
		return fail(InvalidInstruction, text)
	}
	return Result{Code: Valid}
}

// ValidInstruction checks one encoded instruction: its header and then the
// parameters against the effect the opcode selects.
func ValidInstruction(text string, env effect.Env) bool {
	h, ok := codec.DecodeHeader(text)
	if !ok {
		return false
	}
	ex, ok := effect.For(effect.Opcode(h.Opcode))
	if !ok {
		return false
	}
	return ex.Validate(text[codec.HeaderLen:], env)
}

func (v *Validator) repeat(raw json.RawMessage, st *state) Result {
	loop, err := source.DecodeLoop(raw)
	if err != nil {
		return fail(InvalidInstruction, string(raw))
	}
	times, ok := source.DecodeInt(loop.Times)
	if !ok || times < 0 || times > v.limits.MaxTimes {
		return fail(LoopHasInvalidTimesValue, string(loop.Times))
	}

	st.depth++
	defer func() { st.depth-- }()
	if st.depth > v.limits.MaxNesting {
		return fail(Maximum5NestedLoopsAllowed, "")
	}
	if times == 0 {
		st.infiniteLoops++
		if st.infiniteLoops > 1 {
			return fail(OnlyOneInfiniteLoopAllowed, "")
		}
	}
	return v.collection(loop.Instructions, st, NoInstructionsInLoop)
}
