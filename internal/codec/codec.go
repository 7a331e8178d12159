// Package codec converts between the fixed-width hex text used by light
// program instructions and numbers, colours and booleans.
//
// Only the digits 0-9 and the uppercase letters A-F are hex digits. There is
// no 0x prefix and no delimiter between fields.
package codec

import "github.com/coreman2200/funtimes-lightserver/model"

const (
	NumberLen = 2
	ColourLen = 6
	BoolLen   = 1

	// HeaderLen is the OODDRRrr instruction header.
	HeaderLen = 4 * NumberLen
)

const hexDigits = "0123456789ABCDEF"

// Header is the decoded instruction header.
type Header struct {
	Opcode   uint8
	Duration uint8
}

func nibble(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// DecodeNumber reads exactly two hex digits from the start of text and
// checks the value against [min, max].
func DecodeNumber(text string, min, max int) (uint8, bool) {
	if min > max || len(text) < NumberLen {
		return 0, false
	}
	hi, ok := nibble(text[0])
	if !ok {
		return 0, false
	}
	lo, ok := nibble(text[1])
	if !ok {
		return 0, false
	}
	v := hi<<4 | lo
	if int(v) < min || int(v) > max {
		return 0, false
	}
	return v, true
}

// DecodeColour reads RRGGBB from the start of text.
func DecodeColour(text string) (model.Colour, bool) {
	if len(text) < ColourLen {
		return model.Black, false
	}
	r, ok := DecodeNumber(text, 0, 255)
	if !ok {
		return model.Black, false
	}
	g, ok := DecodeNumber(text[2:], 0, 255)
	if !ok {
		return model.Black, false
	}
	b, ok := DecodeNumber(text[4:], 0, 255)
	if !ok {
		return model.Black, false
	}
	return model.Colour{R: r, G: g, B: b}, true
}

// DecodeBool reads a single '0' or '1'.
func DecodeBool(text string) (bool, bool) {
	if len(text) < BoolLen {
		return false, false
	}
	switch text[0] {
	case '0':
		return false, true
	case '1':
		return true, true
	}
	return false, false
}

// DecodeHeader decodes opcode (0-255), duration (1-255) and the two reserved
// fields, which must both be zero.
func DecodeHeader(text string) (Header, bool) {
	if len(text) < HeaderLen {
		return Header{}, false
	}
	op, ok := DecodeNumber(text, 0, 255)
	if !ok {
		return Header{}, false
	}
	dur, ok := DecodeNumber(text[2:], 1, 255)
	if !ok {
		return Header{}, false
	}
	if _, ok := DecodeNumber(text[4:], 0, 0); !ok {
		return Header{}, false
	}
	if _, ok := DecodeNumber(text[6:], 0, 0); !ok {
		return Header{}, false
	}
	return Header{Opcode: op, Duration: dur}, true
}

// EncodeNumber writes v as two uppercase hex digits into buf[0:2].
// buf must be at least two bytes long.
func EncodeNumber(buf []byte, v uint8) {
	buf[0] = hexDigits[v>>4]
	buf[1] = hexDigits[v&0x0F]
}
