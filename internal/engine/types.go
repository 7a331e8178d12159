package engine

import (
	"encoding/hex"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"
	"lukechampine.com/blake3"

	"github.com/coreman2200/funtimes-lightserver/internal/validate"
)

// PlayerState enumerates engine states.
type PlayerState string

const (
	Idle    PlayerState = "idle"
	Running PlayerState = "running"
	Paused  PlayerState = "paused"
)

// Options size the engine. Capacities are fixed until SetPixels.
type Options struct {
	Pixels     int
	MaxLeaves  int
	MaxRepeats int
	Limits     validate.Limits
	// CacheSize is the number of validation results kept; 0 disables the cache.
	CacheSize int
	Rand      *rand.Rand
	Logger    *zerolog.Logger
}

func DefaultOptions() Options {
	return Options{
		Pixels:     60,
		MaxLeaves:  65,
		MaxRepeats: 15,
		Limits:     validate.DefaultLimits(),
		CacheSize:  64,
	}
}

// Fingerprint identifies program source by its blake3 hash.
type Fingerprint [32]byte

func FingerprintOf(text string) Fingerprint {
	return blake3.Sum256([]byte(text))
}

func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

func (f Fingerprint) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// Info describes the loaded program.
type Info struct {
	Name        string      `json:"name"`
	Fingerprint Fingerprint `json:"fingerprint"`
	Leaves      int         `json:"leaves"`
	Repeats     int         `json:"repeats"`
	LoadedAt    time.Time   `json:"loaded_at"`
	Source      string      `json:"-"`
}
