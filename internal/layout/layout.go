package layout

// Layout maps logical pixel positions to the order pixels sit on the wire.
// A strip may be folded into rows of RowLen pixels; with Serpentine set,
// every other row runs backwards. Offset rotates the strip so logical
// pixel 0 lands Offset pixels down the wire.
type Layout struct {
	Count      int
	RowLen     int
	Serpentine bool
	Reverse    bool
	Offset     int
}

// Index maps a logical pixel (0..Count-1) to its wire index.
func (l Layout) Index(i int) int {
	idx := i
	if l.Serpentine && l.RowLen > 0 {
		row := i / l.RowLen
		col := i % l.RowLen
		if row%2 == 1 {
			n := l.RowLen
			if rest := l.Count - row*l.RowLen; rest < n {
				n = rest
			}
			col = n - 1 - col
		}
		idx = row*l.RowLen + col
	}
	if l.Reverse {
		idx = l.Count - 1 - idx
	}
	if l.Offset != 0 && l.Count > 0 {
		idx = ((idx+l.Offset)%l.Count + l.Count) % l.Count
	}
	return idx
}

// Identity reports whether Index is a no-op.
func (l Layout) Identity() bool {
	return !l.Reverse && (l.Count == 0 || l.Offset%l.Count == 0) && (!l.Serpentine || l.RowLen <= 0 || l.RowLen >= l.Count)
}
