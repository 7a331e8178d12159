package model

// Strip is the logical pixel frame of an LED strip.
type Strip struct {
	pixels []Colour
}

func NewStrip(n int) *Strip {
	if n < 0 {
		n = 0
	}
	return &Strip{pixels: make([]Colour, n)}
}

func (s *Strip) Len() int { return len(s.pixels) }

func (s *Strip) At(i int) Colour { return s.pixels[i] }

func (s *Strip) Set(i int, c Colour) { s.pixels[i] = c }

// Pixels exposes the frame for in-place post processing.
func (s *Strip) Pixels() []Colour { return s.pixels }

func (s *Strip) Fill(c Colour) {
	for i := range s.pixels {
		s.pixels[i] = c
	}
}

// Resize changes the pixel count, keeping the leading pixels.
func (s *Strip) Resize(n int) {
	if n <= cap(s.pixels) {
		old := len(s.pixels)
		s.pixels = s.pixels[:n]
		for i := old; i < n; i++ {
			s.pixels[i] = Black
		}
		return
	}
	p := make([]Colour, n)
	copy(p, s.pixels)
	s.pixels = p
}

// Lit reports whether any pixel is not black.
func (s *Strip) Lit() bool {
	for _, c := range s.pixels {
		if !c.IsBlack() {
			return true
		}
	}
	return false
}

// Serialize appends the frame as packed RGB bytes to dst.
func (s *Strip) Serialize(dst []byte) []byte {
	for _, c := range s.pixels {
		dst = append(dst, c.R, c.G, c.B)
	}
	return dst
}

// CopyFrom copies src into s, truncating to the shorter of the two.
func (s *Strip) CopyFrom(src *Strip) {
	copy(s.pixels, src.pixels)
}
