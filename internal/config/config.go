// Package config loads and saves the light server's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

type Strip struct {
	LEDs    int  `yaml:"leds"`
	Reverse bool `yaml:"reverse"`
	Offset  int  `yaml:"offset"`
	// RowLen folds the strip into rows for matrix panels; 0 is one row.
	RowLen     int  `yaml:"row_len"`
	Serpentine bool `yaml:"serpentine"`
}

type Engine struct {
	TickMS          int `yaml:"tick_ms"`
	MaxLeaves       int `yaml:"max_leaves"`
	MaxRepeats      int `yaml:"max_repeats"`
	MaxProgramBytes int `yaml:"max_program_bytes"`
	CacheSize       int `yaml:"cache_size"`
}

type Driver struct {
	Type    string `yaml:"type"`               // "sim" | "console" | "spi"
	SPIPort string `yaml:"spi_port,omitempty"` // e.g. /dev/spidev0.0, empty = first
	SPIHz   int64  `yaml:"spi_hz,omitempty"`   // e.g. 2500000
}

type Power struct {
	Brightness   float64 `yaml:"brightness"`
	LimitAmps    float64 `yaml:"limit_amps"`
	MAPerChannel float64 `yaml:"ma_per_channel"`
	WhiteCap     float64 `yaml:"white_cap"` // fraction of full white, 0 = off
}

type HTTP struct {
	Addr     string `yaml:"addr"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
}

type Store struct {
	Path string `yaml:"path"`
}

type Config struct {
	Strip  Strip  `yaml:"strip"`
	Engine Engine `yaml:"engine"`
	Driver Driver `yaml:"driver"`
	Power  Power  `yaml:"power"`
	HTTP   HTTP   `yaml:"http"`
	Store  Store  `yaml:"store"`
}

// MaxLEDs bounds strip.leds.
const MaxLEDs = 1000

func Default() *Config {
	return &Config{
		Strip: Strip{LEDs: 60},
		Engine: Engine{
			TickMS:          50,
			MaxLeaves:       65,
			MaxRepeats:      15,
			MaxProgramBytes: 4096,
			CacheSize:       64,
		},
		Driver: Driver{Type: "sim"},
		Power:  Power{Brightness: 1, MAPerChannel: 20},
		HTTP:   HTTP{Addr: ":8080"},
		Store:  Store{Path: "lightserver.db"},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

func (c *Config) Validate() error {
	if c.Strip.LEDs < 1 || c.Strip.LEDs > MaxLEDs {
		return fmt.Errorf("strip.leds must be 1..%d, got %d", MaxLEDs, c.Strip.LEDs)
	}
	if c.Strip.RowLen < 0 {
		return fmt.Errorf("strip.row_len must not be negative, got %d", c.Strip.RowLen)
	}
	if c.Engine.TickMS < 1 {
		return fmt.Errorf("engine.tick_ms must be positive, got %d", c.Engine.TickMS)
	}
	if c.Engine.MaxLeaves < 1 || c.Engine.MaxRepeats < 0 {
		return errors.New("engine arena sizes must be positive")
	}
	if c.Power.Brightness < 0 || c.Power.Brightness > 1 {
		return fmt.Errorf("power.brightness must be 0..1, got %v", c.Power.Brightness)
	}
	if c.Power.WhiteCap < 0 || c.Power.WhiteCap > 1 {
		return fmt.Errorf("power.white_cap must be 0..1, got %v", c.Power.WhiteCap)
	}
	switch c.Driver.Type {
	case "sim", "console", "spi":
	default:
		return fmt.Errorf("driver.type %q is not sim, console or spi", c.Driver.Type)
	}
	return nil
}

// BudgetMA is the configured current budget in mA, 0 when unlimited.
func (p Power) BudgetMA() float64 {
	return p.LimitAmps * 1000
}

// WhiteCapSum converts the white cap fraction to an R+G+B ceiling.
func (p Power) WhiteCapSum() int {
	if p.WhiteCap <= 0 || p.WhiteCap >= 1 {
		return 0
	}
	return int(p.WhiteCap * 3 * 255)
}
