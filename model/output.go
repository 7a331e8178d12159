package model

// RenderingInstruction paints Colour over Count consecutive pixels.
type RenderingInstruction struct {
	Colour Colour `json:"colour"`
	Count  int    `json:"count"`
}

// Output is the result of one effect execution: an ordered list of
// rendering instructions plus the repeat flag telling the sink whether to
// tile the list across the strip. The backing array is allocated once;
// Reset keeps its capacity.
type Output struct {
	ris    []RenderingInstruction
	Repeat bool
}

func NewOutput(capacity int) *Output {
	if capacity < 1 {
		capacity = 1
	}
	return &Output{ris: make([]RenderingInstruction, 0, capacity)}
}

func (o *Output) Reset() {
	o.ris = o.ris[:0]
	o.Repeat = false
}

// Add appends an instruction. It reports false, dropping the instruction,
// when the output is at capacity.
func (o *Output) Add(c Colour, count int) bool {
	if len(o.ris) == cap(o.ris) {
		return false
	}
	o.ris = append(o.ris, RenderingInstruction{Colour: c, Count: count})
	return true
}

// Instructions returns a view valid until the next Reset.
func (o *Output) Instructions() []RenderingInstruction {
	return o.ris
}

func (o *Output) Len() int { return len(o.ris) }
func (o *Output) Cap() int { return cap(o.ris) }

// Pixels is the number of pixels covered by one pass over the list.
func (o *Output) Pixels() int {
	n := 0
	for _, ri := range o.ris {
		n += ri.Count
	}
	return n
}
