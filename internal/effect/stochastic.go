package effect

import (
	"github.com/coreman2200/funtimes-lightserver/internal/codec"
	"github.com/coreman2200/funtimes-lightserver/model"
)

// Stochastic paints every pixel a colour picked at random from the list:
// count (2-50), count colours. Each render draws new colours.
type Stochastic struct{}

func (Stochastic) Validate(params string, _ Env) bool {
	r := codec.NewReader(params)
	n := r.Number(2, 50)
	for i := 0; i < n; i++ {
		r.Colour()
	}
	return r.Ok()
}

func (Stochastic) Steps(string, Env) int { return 1 }

func (Stochastic) Execute(params string, _ int, env Env, out *model.Output) {
	n, ok := codec.DecodeNumber(params, 2, 50)
	if !ok {
		return
	}
	colours := params[codec.NumberLen:]
	for i := 0; i < env.Pixels; i++ {
		at := env.intN(int(n)) * codec.ColourLen
		if at > len(colours) {
			return
		}
		c, ok := codec.DecodeColour(colours[at:])
		if !ok {
			return
		}
		out.Add(c, 1)
	}
}
