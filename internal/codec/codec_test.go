package codec

import (
	"testing"

	"github.com/coreman2200/funtimes-lightserver/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeNumber(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		min, max int
		want     uint8
		ok       bool
	}{
		{"zero", "00", 0, 255, 0, true},
		{"max", "FF", 0, 255, 255, true},
		{"reads only two digits", "1A99", 0, 255, 0x1A, true},
		{"lowercase rejected", "ff", 0, 255, 0, false},
		{"non hex", "G0", 0, 255, 0, false},
		{"truncated", "F", 0, 255, 0, false},
		{"empty", "", 0, 255, 0, false},
		{"below min", "00", 1, 255, 0, false},
		{"above max", "33", 1, 50, 0, false},
		{"at max", "32", 1, 50, 50, true},
		{"min greater than max", "05", 6, 5, 0, false},
		{"prefix rejected", "0x", 0, 255, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DecodeNumber(tt.text, tt.min, tt.max)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeColour(t *testing.T) {
	c, ok := DecodeColour("FF8000")
	require.True(t, ok)
	assert.Equal(t, model.Colour{R: 0xFF, G: 0x80, B: 0x00}, c)

	_, ok = DecodeColour("FF80")
	assert.False(t, ok, "truncated colour")
	_, ok = DecodeColour("FF80Z0")
	assert.False(t, ok)
}

func TestDecodeBool(t *testing.T) {
	for text, want := range map[string]bool{"0": false, "1": true, "10": true} {
		got, ok := DecodeBool(text)
		assert.True(t, ok, text)
		assert.Equal(t, want, got, text)
	}
	for _, text := range []string{"", "2", "T"} {
		_, ok := DecodeBool(text)
		assert.False(t, ok, text)
	}
}

func TestDecodeHeader(t *testing.T) {
	h, ok := DecodeHeader("0701000000")
	require.True(t, ok)
	assert.Equal(t, Header{Opcode: 7, Duration: 1}, h)

	for _, text := range []string{
		"07000000", // zero duration
		"07010100", // reserved set
		"07010001",
		"070100",   // truncated
		"0g010000", // bad digit
	} {
		_, ok := DecodeHeader(text)
		assert.False(t, ok, text)
	}
}

func TestEncodeNumber(t *testing.T) {
	buf := make([]byte, 2)
	for v := 0; v < 256; v++ {
		EncodeNumber(buf, uint8(v))
		got, ok := DecodeNumber(string(buf), 0, 255)
		require.True(t, ok)
		require.Equal(t, uint8(v), got)
	}
	EncodeNumber(buf, 0xAB)
	assert.Equal(t, "AB", string(buf))
}

func TestReader(t *testing.T) {
	r := NewReader("0A1FFFFFF")
	assert.Equal(t, 10, r.Number(1, 50))
	assert.True(t, r.Bool())
	assert.Equal(t, model.White, r.Colour())
	assert.True(t, r.Ok())
	assert.Equal(t, 9, r.Pos())

	r.Colour()
	assert.False(t, r.Ok(), "reading past the end fails")
	assert.Equal(t, 0, r.Number(0, 255), "failure is sticky")

	r = NewReader("0000")
	r.Seek(5)
	assert.False(t, r.Ok())
}
