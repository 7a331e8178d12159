package model

import "fmt"

// Colour is a 24-bit RGB value as carried by rendering instructions.
type Colour struct {
	R, G, B uint8
}

var (
	Black = Colour{}
	White = Colour{R: 0xFF, G: 0xFF, B: 0xFF}
)

func (c Colour) IsBlack() bool {
	return c == Black
}

// Scale multiplies every channel by s, s in [0,1].
func (c Colour) Scale(s float64) Colour {
	if s >= 1.0 {
		return c
	}
	if s <= 0.0 {
		return Black
	}
	return Colour{
		R: uint8(float64(c.R)*s + 0.5),
		G: uint8(float64(c.G)*s + 0.5),
		B: uint8(float64(c.B)*s + 0.5),
	}
}

// Sum is R+G+B, used by the power estimate.
func (c Colour) Sum() int {
	return int(c.R) + int(c.G) + int(c.B)
}

// String renders the colour the way programs encode it: RRGGBB.
func (c Colour) String() string {
	return fmt.Sprintf("%02X%02X%02X", c.R, c.G, c.B)
}

func (c Colour) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
