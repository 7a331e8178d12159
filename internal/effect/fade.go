package effect

import (
	"github.com/coreman2200/funtimes-lightserver/internal/codec"
	"github.com/coreman2200/funtimes-lightserver/model"
)

// Fade moves the whole strip from one colour to another:
// step size (1-50), fade out, start colour, end colour.
// Fading out runs from the end colour back to the start colour.
type Fade struct{}

type fadeParams struct {
	step     int
	from, to model.Colour
}

func readFade(params string) (fadeParams, bool) {
	r := codec.NewReader(params)
	p := fadeParams{step: r.Number(1, 50)}
	out := r.Bool()
	p.from = r.Colour()
	p.to = r.Colour()
	if out {
		p.from, p.to = p.to, p.from
	}
	return p, r.Ok()
}

func (Fade) Validate(params string, _ Env) bool {
	_, ok := readFade(params)
	return ok
}

// Steps is ceil(largest channel distance / step size) + 1, so the last step
// always lands on the target colour.
func (Fade) Steps(params string, _ Env) int {
	p, ok := readFade(params)
	if !ok {
		return 1
	}
	from := channels(p.from)
	to := channels(p.to)
	maxDelta := 0
	for i := range from {
		d := int(to[i]) - int(from[i])
		if d < 0 {
			d = -d
		}
		if d > maxDelta {
			maxDelta = d
		}
	}
	return (maxDelta+p.step-1)/p.step + 1
}

func (Fade) Execute(params string, step int, _ Env, out *model.Output) {
	p, ok := readFade(params)
	if !ok {
		return
	}
	amount := float64(step * p.step)
	c := model.Colour{
		R: approach(p.from.R, p.to.R, amount),
		G: approach(p.from.G, p.to.G, amount),
		B: approach(p.from.B, p.to.B, amount),
	}
	out.Add(c, 1)
	out.Repeat = true
}
