package codec

import "github.com/coreman2200/funtimes-lightserver/model"

// Reader walks instruction parameters field by field. The first failed read
// sticks: every later read returns a zero value and Ok reports false.
type Reader struct {
	text   string
	pos    int
	failed bool
}

func NewReader(text string) Reader {
	return Reader{text: text}
}

func (r *Reader) Ok() bool { return !r.failed }

// Pos is the offset of the next field.
func (r *Reader) Pos() int { return r.pos }

// Seek moves to an absolute field offset.
func (r *Reader) Seek(pos int) {
	if pos < 0 || pos > len(r.text) {
		r.failed = true
		return
	}
	r.pos = pos
}

func (r *Reader) rest() string {
	if r.failed {
		return ""
	}
	return r.text[r.pos:]
}

func (r *Reader) Number(min, max int) int {
	v, ok := DecodeNumber(r.rest(), min, max)
	if !ok {
		r.failed = true
		return 0
	}
	r.pos += NumberLen
	return int(v)
}

func (r *Reader) Colour() model.Colour {
	c, ok := DecodeColour(r.rest())
	if !ok {
		r.failed = true
		return model.Black
	}
	r.pos += ColourLen
	return c
}

func (r *Reader) Bool() bool {
	b, ok := DecodeBool(r.rest())
	if !ok {
		r.failed = true
		return false
	}
	r.pos += BoolLen
	return b
}
