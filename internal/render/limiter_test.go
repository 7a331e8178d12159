package render

import (
	"testing"

	"github.com/coreman2200/funtimes-lightserver/model"
)

func TestLimiterBudgetClamp(t *testing.T) {
	// 10 LEDs all white
	n := 10
	buf := make([]model.Colour, n)
	for i := range buf {
		buf[i] = model.White
	}
	l := Limiter{
		ChanMA:   20,  // 60mA at white per LED
		BudgetMA: 300, // allow 300 mA total
		Knee:     0.9,
	}

	// pre-limit current would be 10 * 60 = 600 mA
	if cur := l.Current(buf); cur < 599.9 || cur > 600.1 {
		t.Fatalf("expected 600mA before limit, got %.2f mA", cur)
	}
	l.Apply(buf)
	if cur := l.Current(buf); cur > 300.1 {
		t.Fatalf("expected <= 300mA after limit, got %.2f mA", cur)
	}
}

func TestLimiterUnderKnee(t *testing.T) {
	buf := []model.Colour{{R: 10}}
	l := Limiter{ChanMA: 20, BudgetMA: 300}
	l.Apply(buf)
	if buf[0] != (model.Colour{R: 10}) {
		t.Fatalf("expected frame under knee untouched, got %v", buf[0])
	}
}

func TestWhiteCap(t *testing.T) {
	buf := []model.Colour{model.White} // sum=765
	l := Limiter{WhiteCap: 382}
	l.Apply(buf)
	if sum := buf[0].Sum(); sum > 382 {
		t.Fatalf("expected sum <= 382, got %d", sum)
	}
}

func TestPostBrightness(t *testing.T) {
	buf := []model.Colour{{R: 200, G: 100}}
	Post{Brightness: 0.5}.Apply(buf)
	if buf[0] != (model.Colour{R: 100, G: 50}) {
		t.Fatalf("expected half brightness, got %v", buf[0])
	}
	buf = []model.Colour{{R: 200}}
	Post{}.Apply(buf)
	if buf[0].R != 200 {
		t.Fatalf("zero brightness means unscaled, got %v", buf[0])
	}
}
