package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-lightserver/internal/config"
	"github.com/coreman2200/funtimes-lightserver/internal/engine"
	"github.com/coreman2200/funtimes-lightserver/internal/led"
	"github.com/coreman2200/funtimes-lightserver/internal/program"
	"github.com/coreman2200/funtimes-lightserver/internal/selftest"
	"github.com/coreman2200/funtimes-lightserver/internal/store"
	"github.com/coreman2200/funtimes-lightserver/internal/validate"
	"github.com/coreman2200/funtimes-lightserver/model"
)

const (
	redForever  = `{"name":"red forever","instructions":[{"repeat":{"times":0,"instructions":[{"instruction":"01010000FF0000"}]}}]}`
	blueForever = `{"name":"blue forever","instructions":[{"repeat":{"times":0,"instructions":[{"instruction":"010100000000FF"}]}}]}`
	badProgram  = `{"name":"bad program","instructions":[]}`
)

// sim is a simulated strip on an exclusive port.
type sim struct {
	*led.Sim
	closed bool
}

func (s *sim) Close() error {
	s.closed = true
	return s.Sim.Close()
}

// sims records every driver the core opens. Like a real SPI port, a new
// driver cannot be opened while the last one is still open.
type sims struct {
	opened []*sim
	// fail, when set, refuses strips of the given length.
	fail func(n int) bool
}

func (s *sims) open(_ config.Driver, n int) (led.Driver, error) {
	if len(s.opened) > 0 && !s.last().closed {
		return nil, errors.New("port busy")
	}
	if s.fail != nil && s.fail(n) {
		return nil, errors.New("no port")
	}
	d := &sim{Sim: led.NewSim(n)}
	s.opened = append(s.opened, d)
	return d, nil
}

func (s *sims) last() *sim { return s.opened[len(s.opened)-1] }

func newCore(t *testing.T, mutate ...func(*config.Config)) (*Core, *sims) {
	t.Helper()
	cfg := config.Default()
	cfg.Strip.LEDs = 4
	cfg.Store.Path = filepath.Join(t.TempDir(), "lp.db")
	for _, m := range mutate {
		m(cfg)
	}
	d := &sims{}
	c, err := New(context.Background(), cfg, Options{OpenDriver: d.open})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, d
}

func TestTickWritesProgramFrames(t *testing.T) {
	c, d := newCore(t)
	res, err := c.LoadProgram(context.Background(), redForever, false)
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, "red forever", res.Name)

	c.Tick()
	assert.Equal(t, []byte{0xFF, 0, 0, 0xFF, 0, 0, 0xFF, 0, 0, 0xFF, 0, 0}, d.last().Last())
	assert.True(t, c.Powered())
	assert.Equal(t, engine.Running, c.About().State)
	assert.Equal(t, "red forever", c.About().Program.Name)
}

func TestLoadErrors(t *testing.T) {
	c, _ := newCore(t, func(cfg *config.Config) { cfg.Engine.MaxLeaves = 1 })

	res, err := c.LoadProgram(context.Background(), badProgram, false)
	assert.ErrorIs(t, err, engine.ErrInvalidProgram)
	assert.Equal(t, validate.NoInstructions, res.Code)

	two := `{"name":"two leaves","instructions":["0001000000","0001000000"]}`
	res, err = c.LoadProgram(context.Background(), two, false)
	assert.ErrorIs(t, err, program.ErrArenaFull)
	assert.Equal(t, validate.ProgramTooBig, res.Code)
}

func TestStoreAndRestore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lp.db")
	withPath := func(cfg *config.Config) { cfg.Store.Path = path }

	c, _ := newCore(t, withPath)
	res, err := c.LoadProgram(context.Background(), blueForever, true)
	require.NoError(t, err)
	assert.True(t, res.Stored)
	require.NoError(t, c.Close())

	c2, d := newCore(t, withPath)
	require.NoError(t, c2.Restore(context.Background()))
	c2.Tick()
	assert.Equal(t, []byte{0, 0, 0xFF}, d.last().Last()[:3])
}

func TestStoreDisabled(t *testing.T) {
	c, _ := newCore(t, func(cfg *config.Config) { cfg.Store.Path = "" })
	require.NoError(t, c.Restore(context.Background()))
	res, err := c.LoadProgram(context.Background(), redForever, true)
	assert.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNoStore)
	assert.True(t, res.OK(), "program still activated")
	assert.False(t, res.Stored)

	_, err = c.Programs(context.Background(), 10)
	assert.ErrorIs(t, err, store.ErrNoStore)
}

func TestPrograms(t *testing.T) {
	c, _ := newCore(t)
	ctx := context.Background()
	_, err := c.LoadProgram(ctx, redForever, true)
	require.NoError(t, err)
	_, err = c.LoadProgram(ctx, blueForever, false)
	require.NoError(t, err)
	_, err = c.LoadProgram(ctx, blueForever, true)
	require.NoError(t, err)

	ps, err := c.Programs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, "blue forever", ps[0].Name, "newest first")
	assert.Equal(t, "red forever", ps[1].Name)
	assert.Equal(t, c.About().Program.Fingerprint, ps[0].Fingerprint)
	assert.False(t, ps[0].StoredAt.Before(ps[1].StoredAt))

	ps, err = c.Programs(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, ps, 1)
}

func TestStripLayout(t *testing.T) {
	c, d := newCore(t, func(cfg *config.Config) {
		cfg.Strip.RowLen = 2
		cfg.Strip.Serpentine = true
	})
	blue := model.Colour{B: 0xFF}
	c.Renderer().Paint(func(px []model.Colour) { px[2] = blue })
	c.Tick()
	// the second row runs backwards, so logical pixel 2 is the last on the wire
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0xFF}, d.last().Last())
}

func TestPower(t *testing.T) {
	c, d := newCore(t)
	_, err := c.LoadProgram(context.Background(), redForever, false)
	require.NoError(t, err)

	require.NoError(t, c.PowerOn(model.Colour{G: 0x10}))
	assert.Equal(t, engine.Idle, c.About().State)
	assert.Equal(t, []byte{0, 0x10, 0}, d.last().Last()[:3])
	assert.True(t, c.Powered())

	require.NoError(t, c.PowerOff())
	assert.False(t, c.Powered())
	assert.Equal(t, make([]byte, 12), d.last().Last())
}

func TestSetLeds(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "cfg.yaml")
	cfg := config.Default()
	cfg.Strip.LEDs = 4
	cfg.Store.Path = ""
	d := &sims{}
	c, err := New(context.Background(), cfg, Options{ConfigPath: cfgPath, OpenDriver: d.open})
	require.NoError(t, err)
	defer c.Close()

	_, err = c.LoadProgram(context.Background(), redForever, false)
	require.NoError(t, err)
	require.NoError(t, c.SetLeds(context.Background(), 6))

	assert.Equal(t, 6, c.About().Leds)
	assert.Equal(t, engine.Idle, c.About().State)
	require.Len(t, d.opened, 2, "old driver closed before the new one opened")
	assert.True(t, d.opened[0].closed)
	assert.ErrorIs(t, d.opened[0].Write(make([]byte, 12)), led.ErrClosed)

	_, err = c.LoadProgram(context.Background(), redForever, false)
	require.NoError(t, err)
	c.Tick()
	assert.Len(t, d.last().Last(), 18)

	saved, err := config.Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, 6, saved.Strip.LEDs)
}

func TestSetLedsDriverFailure(t *testing.T) {
	c, d := newCore(t)
	d.fail = func(n int) bool { return n == 8 }
	_, err := c.LoadProgram(context.Background(), redForever, false)
	require.NoError(t, err)

	assert.ErrorContains(t, c.SetLeds(context.Background(), 8), "no port")
	assert.Equal(t, 4, c.About().Leds)
	assert.Equal(t, engine.Running, c.About().State, "program keeps running at the old length")
	require.Len(t, d.opened, 2, "old length reopened")
	assert.True(t, d.opened[0].closed)

	c.Tick()
	assert.Len(t, d.last().Last(), 12)

	assert.ErrorIs(t, c.SetLeds(context.Background(), 0), engine.ErrPixels)
	assert.Len(t, d.opened, 2, "invalid length leaves the driver alone")
}

func TestSetLedsDriverLost(t *testing.T) {
	c, d := newCore(t)
	d.fail = func(int) bool { return true }
	assert.Error(t, c.SetLeds(context.Background(), 8))
	assert.Equal(t, 4, c.About().Leds)
	assert.Len(t, d.opened, 1)
}

func TestSelfTest(t *testing.T) {
	c, d := newCore(t)
	_, err := c.LoadProgram(context.Background(), redForever, false)
	require.NoError(t, err)

	require.NoError(t, c.SelfTest(selftest.RGB))
	assert.Equal(t, engine.Idle, c.About().State)
	for _, want := range [][]byte{{0xFF, 0, 0}, {0, 0xFF, 0}, {0, 0, 0xFF}} {
		c.Tick()
		assert.Equal(t, want, d.last().Last()[:3])
	}
	c.Tick()
	assert.False(t, c.Powered(), "strip blanks once the pattern ends")

	assert.Error(t, c.SelfTest(selftest.None))
}

func TestRun(t *testing.T) {
	c, d := newCore(t, func(cfg *config.Config) {
		cfg.HTTP.Addr = "127.0.0.1:0"
		cfg.Engine.TickMS = 1
	})
	_, err := c.LoadProgram(context.Background(), redForever, false)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	require.Eventually(t, func() bool { return d.last().Frames() > 0 }, time.Second, time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.Greater(t, c.Health().Ticks, uint64(0))
}
