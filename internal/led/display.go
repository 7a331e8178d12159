package led

import (
	"image"
	"io"
	"sync"

	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/devices/v3/screen1d"
	"periph.io/x/host/v3"
)

// DefaultSPIHz is a WS2812 friendly clock for nrzled.
const DefaultSPIHz = 2_500_000

// Display adapts a periph display.Drawer, one pixel high, to Driver.
type Display struct {
	mu     sync.Mutex
	d      display.Drawer
	img    *image.NRGBA
	port   io.Closer
	closed bool
}

// NewDisplay wraps d. The strip length is the width of d's bounds.
func NewDisplay(d display.Drawer) *Display {
	b := d.Bounds()
	return &Display{d: d, img: image.NewNRGBA(image.Rect(0, 0, b.Dx(), 1))}
}

// NewConsole prints the strip as coloured blocks on the terminal.
func NewConsole(pixels int) *Display {
	return NewDisplay(screen1d.New(&screen1d.Opts{X: pixels}))
}

// InitHost loads the periph host drivers. It is safe to call repeatedly.
func InitHost() error {
	_, err := host.Init()
	return err
}

// OpenSPI drives a WS281x strip through the named SPI port.
func OpenSPI(port string, pixels int, hz int64) (*Display, error) {
	if err := InitHost(); err != nil {
		return nil, err
	}
	p, err := spireg.Open(port)
	if err != nil {
		return nil, err
	}
	dev, err := NewSPI(p, pixels, hz)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	dev.port = p
	return dev, nil
}

// NewSPI builds an nrzled driver on an already open connection.
func NewSPI(p spi.Port, pixels int, hz int64) (*Display, error) {
	if hz <= 0 {
		hz = DefaultSPIHz
	}
	d, err := nrzled.NewSPI(p, &nrzled.Opts{
		NumPixels: pixels,
		Channels:  3,
		Freq:      physic.Frequency(hz) * physic.Hertz,
	})
	if err != nil {
		return nil, err
	}
	if err := d.Halt(); err != nil {
		return nil, err
	}
	return NewDisplay(d), nil
}

func (x *Display) Write(rgb []byte) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return ErrClosed
	}
	n := x.img.Rect.Dx()
	if err := checkFrame(rgb, n); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		o := i * 4
		x.img.Pix[o] = rgb[i*3]
		x.img.Pix[o+1] = rgb[i*3+1]
		x.img.Pix[o+2] = rgb[i*3+2]
		x.img.Pix[o+3] = 0xFF
	}
	return x.d.Draw(x.d.Bounds(), x.img, image.Point{})
}

// Close blanks the strip and releases the port.
func (x *Display) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return nil
	}
	x.closed = true
	err := x.d.Halt()
	if x.port != nil {
		if cerr := x.port.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (x *Display) String() string {
	return x.d.String()
}
