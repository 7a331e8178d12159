package effect

import (
	"math"

	"github.com/coreman2200/funtimes-lightserver/internal/codec"
	"github.com/coreman2200/funtimes-lightserver/model"
)

const (
	maxPatternBlocks = 255
	minBlocks        = 2
	maxBlocks        = 10
)

// colourTable returns a reader positioned at the colour list that follows a
// count field and n two-digit fields.
func colourTable(params string, n int) codec.Reader {
	r := codec.NewReader(params)
	r.Seek(codec.NumberLen * (1 + n))
	return r
}

// Pattern is a run of coloured blocks tiled over the strip:
// count, count widths (1-255), count colours.
type Pattern struct{}

func (Pattern) Validate(params string, _ Env) bool {
	r := codec.NewReader(params)
	n := r.Number(1, maxPatternBlocks)
	for i := 0; i < n; i++ {
		r.Number(1, 255)
	}
	for i := 0; i < n; i++ {
		r.Colour()
	}
	return r.Ok()
}

func (Pattern) Steps(string, Env) int { return 1 }

func (Pattern) Execute(params string, _ int, _ Env, out *model.Output) {
	r := codec.NewReader(params)
	n := r.Number(1, maxPatternBlocks)
	cr := colourTable(params, n)
	for i := 0; i < n; i++ {
		w := r.Number(1, 255)
		c := cr.Colour()
		if !r.Ok() || !cr.Ok() {
			return
		}
		out.Add(c, w)
	}
	out.Repeat = true
}

// Blocks splits the strip into percentage-width blocks:
// count (2-10), count widths (1-100, summing to 100), count colours.
type Blocks struct{}

func (Blocks) Validate(params string, _ Env) bool {
	r := codec.NewReader(params)
	n := r.Number(minBlocks, maxBlocks)
	sum := 0
	for i := 0; i < n; i++ {
		sum += r.Number(1, 100)
	}
	for i := 0; i < n; i++ {
		r.Colour()
	}
	return r.Ok() && sum == 100
}

func (Blocks) Steps(string, Env) int { return 1 }

// Execute alternates rounding up and down per block so the rounding error
// stays balanced. The last block takes whatever is left, so the counts
// always sum to the strip length.
func (Blocks) Execute(params string, _ int, env Env, out *model.Output) {
	r := codec.NewReader(params)
	n := r.Number(minBlocks, maxBlocks)
	cr := colourTable(params, n)

	covered := 0
	roundUp := true
	for i := 0; i < n; i++ {
		w := r.Number(1, 100)
		c := cr.Colour()
		if !r.Ok() || !cr.Ok() {
			return
		}
		left := env.Pixels - covered
		px := left
		if i < n-1 {
			exact := float64(w) * float64(env.Pixels) / 100
			if roundUp {
				px = int(math.Ceil(exact))
			} else {
				px = int(math.Floor(exact))
			}
			roundUp = !roundUp
			if px > left {
				px = left
			}
		}
		covered += px
		out.Add(c, px)
	}
}
