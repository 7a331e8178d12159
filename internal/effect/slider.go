package effect

import (
	"github.com/coreman2200/funtimes-lightserver/internal/codec"
	"github.com/coreman2200/funtimes-lightserver/model"
)

// Slider moves a block of colour along the strip over a background:
// width (1 to half the strip), start far, head (0-100), tail (0-100),
// slider colour, background colour.
//
// Head and tail are percentages of the free pixels graduated from the slider
// colour into the background ahead of and behind the slider. Zero disables
// them.
type Slider struct{}

type sliderParams struct {
	width      int
	far        bool
	head, tail int
	colour, bg model.Colour
}

func readSlider(params string, env Env) (sliderParams, bool) {
	maxWidth := env.Pixels / 2
	if maxWidth > 255 {
		maxWidth = 255
	}
	r := codec.NewReader(params)
	p := sliderParams{
		width: r.Number(1, maxWidth),
		far:   r.Bool(),
		head:  r.Number(0, 100),
		tail:  r.Number(0, 100),
	}
	p.colour = r.Colour()
	p.bg = r.Colour()
	return p, r.Ok()
}

func (Slider) Validate(params string, env Env) bool {
	_, ok := readSlider(params, env)
	return ok
}

func (Slider) Steps(params string, env Env) int {
	p, ok := readSlider(params, env)
	if !ok {
		return 1
	}
	return env.Pixels - p.width + 1
}

func (Slider) Execute(params string, step int, env Env, out *model.Output) {
	p, ok := readSlider(params, env)
	if !ok {
		return
	}
	free := env.Pixels - p.width
	if step > free {
		step = free
	}
	before, after := step, free-step
	if p.far {
		before, after = after, before
	}

	if p.tail > 0 {
		renderTail(out, p, before, free)
	} else if before > 0 {
		out.Add(p.bg, before)
	}

	out.Add(p.colour, p.width)

	if p.head > 0 {
		renderHead(out, p, after, free)
	} else if after > 0 {
		out.Add(p.bg, after)
	}
}

func graduated(free, percent int) int {
	return free * percent / 100
}

// renderTail fills the before section: plain background first, then the
// tail with the pixel next to the slider closest to the slider colour.
func renderTail(out *model.Output, p sliderParams, before, free int) {
	n := graduated(free, p.tail)
	shown := min(before, n)
	if before-shown > 0 {
		out.Add(p.bg, before-shown)
	}
	g := NewGradient(p.colour, p.bg, n)
	for s := shown; s >= 1; s-- {
		out.Add(g.At(s), 1)
	}
}

func renderHead(out *model.Output, p sliderParams, after, free int) {
	n := graduated(free, p.head)
	shown := min(after, n)
	g := NewGradient(p.colour, p.bg, n)
	for s := 1; s <= shown; s++ {
		out.Add(g.At(s), 1)
	}
	if after-shown > 0 {
		out.Add(p.bg, after-shown)
	}
}
