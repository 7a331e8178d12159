// Package effect implements the light program effects. Each effect turns an
// instruction's encoded parameters and a step index into rendering
// instructions.
package effect

import (
	"math/rand/v2"

	"github.com/coreman2200/funtimes-lightserver/model"
)

type Opcode uint8

const (
	OpClear Opcode = iota
	OpSolid
	OpPattern
	OpSlider
	OpFade
	OpStochastic
	OpBlocks
	OpRainbow
)

var opNames = [...]string{
	OpClear:      "clear",
	OpSolid:      "solid",
	OpPattern:    "pattern",
	OpSlider:     "slider",
	OpFade:       "fade",
	OpStochastic: "stochastic",
	OpBlocks:     "blocks",
	OpRainbow:    "rainbow",
}

func (o Opcode) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return "unknown"
}

// Env is the strip an effect renders for.
type Env struct {
	Pixels int
	// Rand drives Stochastic. Nil uses the global source.
	Rand *rand.Rand
}

func (e Env) intN(n int) int {
	if e.Rand != nil {
		return e.Rand.IntN(n)
	}
	return rand.IntN(n)
}

// Executor is implemented by every effect. params is the instruction text
// following the header.
type Executor interface {
	Validate(params string, env Env) bool
	Steps(params string, env Env) int
	// Execute writes the rendering instructions for step into out, which
	// the caller has reset.
	Execute(params string, step int, env Env, out *model.Output)
}

// For returns the executor for op.
func For(op Opcode) (Executor, bool) {
	switch op {
	case OpClear:
		return Clear{}, true
	case OpSolid:
		return Solid{}, true
	case OpPattern:
		return Pattern{}, true
	case OpSlider:
		return Slider{}, true
	case OpFade:
		return Fade{}, true
	case OpStochastic:
		return Stochastic{}, true
	case OpBlocks:
		return Blocks{}, true
	case OpRainbow:
		return Rainbow{}, true
	}
	return nil, false
}

// OutputCapacity is the rendering instruction capacity that every effect
// fits in for a strip of the given length.
func OutputCapacity(pixels int) int {
	n := pixels + 4
	if n < maxPatternBlocks {
		n = maxPatternBlocks
	}
	return n
}
