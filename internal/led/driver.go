// Package led holds the drivers that push serialized frames to a strip.
package led

import (
	"errors"
	"fmt"
	"strings"
)

// ErrClosed is returned by Write after Close.
var ErrClosed = errors.New("led: driver closed")

// Driver abstracts an LED output sink.
type Driver interface {
	// Write pushes an RGB frame to hardware. len(rgb) must be 3*N.
	Write(rgb []byte) error
	// Close releases resources.
	Close() error
}

// Kind names a driver implementation.
type Kind string

const (
	KindSim     Kind = "sim"
	KindConsole Kind = "console"
	KindSPI     Kind = "spi"
)

// Opts configure Open.
type Opts struct {
	Kind   Kind
	Pixels int
	// Port is the SPI port name; empty picks the first one registered.
	Port string
	// Hz is the SPI clock; 0 uses DefaultSPIHz.
	Hz int64
}

// Open builds the driver named by o.Kind.
func Open(o Opts) (Driver, error) {
	if o.Pixels < 1 {
		return nil, fmt.Errorf("led: invalid pixel count %d", o.Pixels)
	}
	switch Kind(strings.ToLower(string(o.Kind))) {
	case KindSim, "":
		return NewSim(o.Pixels), nil
	case KindConsole:
		return NewConsole(o.Pixels), nil
	case KindSPI:
		return OpenSPI(o.Port, o.Pixels, o.Hz)
	}
	return nil, fmt.Errorf("led: unknown driver %q", o.Kind)
}

func checkFrame(rgb []byte, pixels int) error {
	if len(rgb) != 3*pixels {
		return fmt.Errorf("led: frame is %d bytes, want %d", len(rgb), 3*pixels)
	}
	return nil
}
