package effect

import (
	"github.com/coreman2200/funtimes-lightserver/internal/codec"
	"github.com/coreman2200/funtimes-lightserver/model"
)

// Clear blanks the strip. It has no parameters.
type Clear struct{}

func (Clear) Validate(string, Env) bool { return true }
func (Clear) Steps(string, Env) int     { return 1 }

func (Clear) Execute(_ string, _ int, _ Env, out *model.Output) {
	out.Add(model.Black, 1)
	out.Repeat = true
}

// Solid fills the strip with one colour: RRGGBB.
type Solid struct{}

func (Solid) Validate(params string, _ Env) bool {
	_, ok := codec.DecodeColour(params)
	return ok
}

func (Solid) Steps(string, Env) int { return 1 }

func (Solid) Execute(params string, _ int, _ Env, out *model.Output) {
	c, ok := codec.DecodeColour(params)
	if !ok {
		return
	}
	out.Add(c, 1)
	out.Repeat = true
}
