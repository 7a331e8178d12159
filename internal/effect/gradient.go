package effect

import (
	"math"

	"github.com/coreman2200/funtimes-lightserver/model"
)

// Gradient interpolates from one colour towards another over a fixed number
// of steps. Step 0 is the start colour and each channel is clamped to the
// end colour.
type Gradient struct {
	start, end model.Colour
	steps      int
	delta      [3]float64
}

func NewGradient(start, end model.Colour, steps int) Gradient {
	g := Gradient{start: start, end: end, steps: steps}
	if steps < 1 {
		return g
	}
	from := channels(start)
	to := channels(end)
	for i := range g.delta {
		g.delta[i] = math.Abs(float64(to[i])-float64(from[i])) / float64(steps+1)
	}
	return g
}

// At returns the colour at step. Steps past the end return the end colour.
func (g Gradient) At(step int) model.Colour {
	if step <= 0 {
		return g.start
	}
	if step > g.steps {
		return g.end
	}
	from := channels(g.start)
	to := channels(g.end)
	var out [3]uint8
	for i := range out {
		out[i] = approach(from[i], to[i], float64(step)*g.delta[i])
	}
	return model.Colour{R: out[0], G: out[1], B: out[2]}
}

// approach moves from towards to by amount, rounding to the nearest value
// and never passing to.
func approach(from, to uint8, amount float64) uint8 {
	if amount <= 0 {
		return from
	}
	if to >= from {
		v := float64(from) + amount + 0.5
		if v >= float64(to) {
			return to
		}
		return uint8(v)
	}
	v := float64(from) - amount + 0.5
	if v <= float64(to) {
		return to
	}
	return uint8(v)
}

// blend mixes a and b, f=0 is a and f=1 is b.
func blend(a, b model.Colour, f float64) model.Colour {
	if f <= 0 {
		return a
	}
	if f >= 1 {
		return b
	}
	mix := func(x, y uint8) uint8 {
		return uint8(float64(x)*(1-f) + float64(y)*f + 0.5)
	}
	return model.Colour{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B)}
}

func channels(c model.Colour) [3]uint8 {
	return [3]uint8{c.R, c.G, c.B}
}
