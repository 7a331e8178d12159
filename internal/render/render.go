// Package render turns rendering instructions into pixel frames and commits
// them to an LED driver.
package render

import (
	"errors"
	"sync"
	"time"

	"github.com/coreman2200/funtimes-lightserver/internal/layout"
	"github.com/coreman2200/funtimes-lightserver/model"
)

// Driver abstracts the LED transport (SPI, console, etc.).
type Driver interface {
	// Write takes 3 bytes per pixel in wire order.
	Write(rgb []byte) error
}

// Sink accepts the output of one tick.
type Sink interface {
	Render(out *model.Output)
}

// Tile paints the instructions onto dst in order. With out.Repeat set the
// list starts over until every pixel is covered; otherwise pixels past the
// end of the list keep their colour. It returns the number of pixels
// written.
func Tile(dst []model.Colour, out *model.Output) int {
	ris := out.Instructions()
	n := 0
	for n < len(dst) {
		pass := 0
		for _, ri := range ris {
			for c := 0; c < ri.Count && n < len(dst); c++ {
				dst[n] = ri.Colour
				n++
				pass++
			}
			if n == len(dst) {
				break
			}
		}
		if !out.Repeat || pass == 0 {
			break
		}
	}
	return n
}

// Renderer keeps the logical frame and pushes it through post processing
// and the wire layout to the driver.
type Renderer struct {
	mu     sync.Mutex
	frame  *model.Strip
	wire   *model.Strip
	layout layout.Layout
	drv    Driver
	post   Post
	buf    []byte
	dirty  bool
	frames uint64

	// metrics (last durations in ms)
	Last struct {
		PostMS  float64
		WriteMS float64
		TotalMS float64
	}
}

func New(lay layout.Layout, drv Driver, post Post) (*Renderer, error) {
	if lay.Count < 1 {
		return nil, errors.New("render: invalid pixel count")
	}
	return &Renderer{
		frame:  model.NewStrip(lay.Count),
		wire:   model.NewStrip(lay.Count),
		layout: lay,
		drv:    drv,
		post:   post,
		buf:    make([]byte, 0, 3*lay.Count),
	}, nil
}

// Render tiles one tick's output onto the frame. Empty output leaves the
// frame as it was.
func (r *Renderer) Render(out *model.Output) {
	if out == nil || out.Len() == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if Tile(r.frame.Pixels(), out) > 0 {
		r.dirty = true
	}
}

// Fill sets every pixel to c.
func (r *Renderer) Fill(c model.Colour) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frame.Fill(c)
	r.dirty = true
}

// Paint hands the logical frame to fn for direct edits.
func (r *Renderer) Paint(fn func(px []model.Colour)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.frame.Pixels())
	r.dirty = true
}

// Show writes the frame to the driver if it changed since the last Show.
func (r *Renderer) Show() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.dirty {
		return nil
	}
	return r.show()
}

// Flush writes the frame to the driver unconditionally.
func (r *Renderer) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.show()
}

func (r *Renderer) show() error {
	start := time.Now()
	wire := r.wire.Pixels()
	if r.layout.Identity() {
		r.wire.CopyFrom(r.frame)
	} else {
		for i, c := range r.frame.Pixels() {
			wire[r.layout.Index(i)] = c
		}
	}
	r.post.Apply(wire)
	r.Last.PostMS = ms(time.Since(start))

	r.buf = r.wire.Serialize(r.buf[:0])
	writeStart := time.Now()
	if r.drv != nil {
		if err := r.drv.Write(r.buf); err != nil {
			return err
		}
	}
	r.Last.WriteMS = ms(time.Since(writeStart))
	r.Last.TotalMS = ms(time.Since(start))
	r.dirty = false
	r.frames++
	return nil
}

// Frame copies the logical frame into dst, reallocating when short.
func (r *Renderer) Frame(dst []model.Colour) []model.Colour {
	r.mu.Lock()
	defer r.mu.Unlock()
	dst = append(dst[:0], r.frame.Pixels()...)
	return dst
}

// Lit reports whether any pixel of the logical frame is on.
func (r *Renderer) Lit() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frame.Lit()
}

func (r *Renderer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frame.Len()
}

func (r *Renderer) Frames() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Resize changes the strip length, keeping the rest of the layout.
func (r *Renderer) Resize(n int) error {
	if n < 1 {
		return errors.New("render: invalid pixel count")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.layout.Count = n
	r.frame.Resize(n)
	r.wire.Resize(n)
	r.dirty = true
	return nil
}

func (r *Renderer) SetDriver(drv Driver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drv = drv
	r.dirty = true
}

func (r *Renderer) SetPost(p Post) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.post = p
	r.dirty = true
}

func (r *Renderer) Post() Post {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.post
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
