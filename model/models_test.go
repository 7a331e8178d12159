package model_test

import (
	"testing"

	. "github.com/coreman2200/funtimes-lightserver/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColourString(t *testing.T) {
	assert.Equal(t, "0A0BFF", Colour{R: 0x0A, G: 0x0B, B: 0xFF}.String())
	b, err := White.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "FFFFFF", string(b))
}

func TestColourScale(t *testing.T) {
	c := Colour{R: 200, G: 100, B: 0}
	assert.Equal(t, c, c.Scale(1.5))
	assert.Equal(t, Black, c.Scale(0))
	assert.Equal(t, Colour{R: 100, G: 50, B: 0}, c.Scale(0.5))
}

func TestOutputCapacity(t *testing.T) {
	o := NewOutput(2)
	assert.True(t, o.Add(White, 3))
	assert.True(t, o.Add(Black, 4))
	assert.False(t, o.Add(White, 1), "full output drops instructions")
	assert.Equal(t, 7, o.Pixels())

	o.Repeat = true
	o.Reset()
	assert.Equal(t, 0, o.Len())
	assert.Equal(t, 2, o.Cap(), "reset keeps the allocation")
	assert.False(t, o.Repeat)
	assert.True(t, o.Add(Black, 1))
}

func TestStrip(t *testing.T) {
	s := NewStrip(3)
	assert.False(t, s.Lit())
	s.Set(1, Colour{R: 1})
	assert.True(t, s.Lit())

	s.Resize(5)
	assert.Equal(t, 5, s.Len())
	assert.Equal(t, Colour{R: 1}, s.At(1))

	s.Resize(2)
	s.Resize(3)
	assert.Equal(t, Black, s.At(2), "regrown pixels are cleared")

	buf := s.Serialize(nil)
	assert.Equal(t, []byte{0, 0, 0, 1, 0, 0, 0, 0, 0}, buf)

	dst := NewStrip(2)
	dst.CopyFrom(s)
	assert.Equal(t, []Colour{Black, {R: 1}}, dst.Pixels(), "copy truncates to the shorter strip")
}
