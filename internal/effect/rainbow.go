package effect

import (
	"math"

	"github.com/coreman2200/funtimes-lightserver/internal/codec"
	"github.com/coreman2200/funtimes-lightserver/model"
)

// Rainbow runs a gradient through up to ten colours along the strip:
// length (1-255), steps (1-255), start far, colour count (1-10), colours.
//
// length is how many pixels one full cycle spans and steps how many
// animation steps it takes to go around once.
type Rainbow struct{}

type rainbowParams struct {
	length, steps int
	far           bool
	count         int
	colours       string
}

func readRainbow(params string) (rainbowParams, bool) {
	r := codec.NewReader(params)
	p := rainbowParams{
		length: r.Number(1, 255),
		steps:  r.Number(1, 255),
		far:    r.Bool(),
		count:  r.Number(1, 10),
	}
	at := r.Pos()
	for i := 0; i < p.count; i++ {
		r.Colour()
	}
	if !r.Ok() {
		return p, false
	}
	p.colours = params[at:]
	return p, true
}

func (p rainbowParams) colour(i int) model.Colour {
	c, _ := codec.DecodeColour(p.colours[i*codec.ColourLen:])
	return c
}

func (Rainbow) Validate(params string, _ Env) bool {
	_, ok := readRainbow(params)
	return ok
}

func (Rainbow) Steps(params string, _ Env) int {
	p, ok := readRainbow(params)
	if !ok {
		return 1
	}
	return p.steps + 1
}

func (Rainbow) Execute(params string, step int, env Env, out *model.Output) {
	p, ok := readRainbow(params)
	if !ok {
		return
	}
	cycle := float64(p.steps)
	perPixel := cycle / float64(p.length)
	bucket := cycle / float64(p.count)

	for px := 0; px < env.Pixels; px++ {
		offset := float64(px) * perPixel
		pos := float64(step) + offset
		if p.far {
			pos = float64(step) - offset
		}
		pos = math.Mod(pos, cycle)
		if pos < 0 {
			pos += cycle
		}

		seg := int(pos / bucket)
		if seg >= p.count {
			seg = p.count - 1
		}
		f := (pos - float64(seg)*bucket) / bucket
		out.Add(blend(p.colour(seg), p.colour((seg+1)%p.count), f), 1)
	}
}
