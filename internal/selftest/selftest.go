// Package selftest produces wiring check patterns for a strip.
package selftest

import (
	"fmt"

	"github.com/coreman2200/funtimes-lightserver/model"
)

type Kind string

const (
	None Kind = ""
	// Sweep lights one white pixel at a time from the start of the strip.
	Sweep Kind = "sweep"
	// RGB fills the strip red, then green, then blue.
	RGB Kind = "rgb"
)

// Parse maps a pattern name to a Kind.
func Parse(name string) (Kind, error) {
	switch Kind(name) {
	case Sweep, RGB:
		return Kind(name), nil
	}
	return None, fmt.Errorf("selftest: unknown pattern %q", name)
}

type Runner struct {
	kind Kind
	step int
}

func NewRunner(kind Kind) *Runner { return &Runner{kind: kind} }
func (r *Runner) Kind() Kind      { return r.kind }

// Step paints the next frame into px; returns false when complete.
func (r *Runner) Step(px []model.Colour) bool {
	n := len(px)
	for i := range px {
		px[i] = model.Black
	}

	switch r.kind {
	case Sweep:
		if r.step >= n {
			return false
		}
		px[r.step] = model.White
	case RGB:
		if r.step >= 3 {
			return false
		}
		var c model.Colour
		switch r.step {
		case 0:
			c.R = 0xFF
		case 1:
			c.G = 0xFF
		case 2:
			c.B = 0xFF
		}
		for i := range px {
			px[i] = c
		}
	default:
		return false
	}
	r.step++
	return true
}
