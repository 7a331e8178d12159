package render

import "github.com/coreman2200/funtimes-lightserver/model"

// Post is applied to the wire frame before every write.
type Post struct {
	// Brightness scales every channel, 0..1. Zero means full brightness.
	Brightness float64
	Limiter    Limiter
}

func (p Post) Apply(buf []model.Colour) {
	if p.Brightness > 0 && p.Brightness < 1 {
		for i := range buf {
			buf[i] = buf[i].Scale(p.Brightness)
		}
	}
	p.Limiter.Apply(buf)
}

// Limiter applies a two-stage limiter:
// 1) Per-LED white cap: scales (R,G,B) so R+G+B <= WhiteCap (0 = no cap)
// 2) Global current budget: estimates current and scales the whole frame to stay under BudgetMA
type Limiter struct {
	WhiteCap int
	// ChanMA is mA per colour channel at full scale; WS2812 is about 20.
	ChanMA float64
	// BudgetMA is the global budget; 0 disables the budget stage.
	BudgetMA float64
	// Knee is the fraction of budget where soft limiting begins; default 0.9.
	Knee float64
}

func (l Limiter) Apply(buf []model.Colour) {
	// 1) Per-LED white cap
	if l.WhiteCap > 0 {
		for i := range buf {
			s := buf[i].Sum()
			if s > l.WhiteCap {
				buf[i] = scaleDown(buf[i], float64(l.WhiteCap)/float64(s))
			}
		}
	}

	// 2) Global budget
	if l.BudgetMA <= 0 {
		return
	}
	total := l.Current(buf)
	if total <= 0 {
		return
	}
	knee := l.Knee
	if knee <= 0 || knee >= 1 {
		knee = 0.9
	}
	// Soft knee: start scaling gently after knee*budget, fully meet budget above budget
	ratio := total / l.BudgetMA
	if ratio <= knee {
		return
	}
	s := l.BudgetMA / total
	if ratio <= 1.0 {
		// map ratio in [knee,1] to scale in [1, budget/total]
		t := (ratio - knee) / (1.0 - knee)
		s = 1.0 - t*(1.0-s)
	}
	for i := range buf {
		buf[i] = scaleDown(buf[i], s)
	}
}

// Current estimates the frame's draw in mA.
func (l Limiter) Current(buf []model.Colour) float64 {
	chanMA := l.ChanMA
	if chanMA <= 0 {
		chanMA = 20
	}
	var total float64
	for _, c := range buf {
		total += float64(c.Sum()) / 255.0 * chanMA
	}
	return total
}

// scaleDown scales by s rounding down, so a limited frame never rounds back
// over budget.
func scaleDown(c model.Colour, s float64) model.Colour {
	if s >= 1 {
		return c
	}
	return model.Colour{
		R: uint8(float64(c.R) * s),
		G: uint8(float64(c.G) * s),
		B: uint8(float64(c.B) * s),
	}
}
