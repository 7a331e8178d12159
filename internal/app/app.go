// Package app wires configuration, engine, renderer, driver and store into
// the running light server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/coreman2200/funtimes-lightserver/internal/config"
	diag "github.com/coreman2200/funtimes-lightserver/internal/diagnostics"
	"github.com/coreman2200/funtimes-lightserver/internal/engine"
	"github.com/coreman2200/funtimes-lightserver/internal/layout"
	"github.com/coreman2200/funtimes-lightserver/internal/led"
	"github.com/coreman2200/funtimes-lightserver/internal/program"
	"github.com/coreman2200/funtimes-lightserver/internal/render"
	"github.com/coreman2200/funtimes-lightserver/internal/selftest"
	"github.com/coreman2200/funtimes-lightserver/internal/store"
	"github.com/coreman2200/funtimes-lightserver/internal/validate"
	"github.com/coreman2200/funtimes-lightserver/internal/ws"
	"github.com/coreman2200/funtimes-lightserver/model"
)

const Version = "1.0.0"

// OpenDriver builds the LED driver for a strip of n pixels.
type OpenDriver func(cfg config.Driver, n int) (led.Driver, error)

func openDriver(cfg config.Driver, n int) (led.Driver, error) {
	return led.Open(led.Opts{Kind: led.Kind(cfg.Type), Pixels: n, Port: cfg.SPIPort, Hz: cfg.SPIHz})
}

type Options struct {
	// ConfigPath is where SetLeds persists the new strip length; empty skips saving.
	ConfigPath string
	// OpenDriver replaces the driver factory, for tests.
	OpenDriver OpenDriver
	Logger     *zerolog.Logger
}

// Core is the light server: one tick loop feeding one strip.
type Core struct {
	mu     sync.Mutex
	cfg    *config.Config
	opts   Options
	log    zerolog.Logger
	eng    *engine.Engine
	rend   *render.Renderer
	drv    led.Driver
	store  *store.Store
	hub    *ws.Hub
	runner *selftest.Runner
	start  time.Time

	wire      []byte
	lastFrame uint64
	faulted   bool
}

func New(ctx context.Context, cfg *config.Config, opts Options) (*Core, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.OpenDriver == nil {
		opts.OpenDriver = openDriver
	}
	c := &Core{
		cfg:   cfg,
		opts:  opts,
		log:   log.Logger,
		hub:   ws.NewHub(),
		start: time.Now(),
	}
	if opts.Logger != nil {
		c.log = *opts.Logger
	}

	eo := engine.DefaultOptions()
	eo.Pixels = cfg.Strip.LEDs
	eo.MaxLeaves = cfg.Engine.MaxLeaves
	eo.MaxRepeats = cfg.Engine.MaxRepeats
	eo.CacheSize = cfg.Engine.CacheSize
	if cfg.Engine.MaxProgramBytes > 0 {
		eo.Limits.MaxProgramBytes = cfg.Engine.MaxProgramBytes
	}
	eo.Logger = &c.log
	eng, err := engine.New(eo)
	if err != nil {
		return nil, err
	}
	c.eng = eng

	drv, err := opts.OpenDriver(cfg.Driver, cfg.Strip.LEDs)
	if err != nil {
		return nil, fmt.Errorf("driver %s: %w", cfg.Driver.Type, err)
	}
	c.drv = drv

	rend, err := render.New(stripLayout(cfg.Strip), drv, post(cfg.Power))
	if err != nil {
		drv.Close()
		return nil, err
	}
	c.rend = rend

	if cfg.Store.Path != "" {
		st, err := store.Open(ctx, cfg.Store.Path)
		if err != nil {
			drv.Close()
			return nil, err
		}
		c.store = st
	}
	return c, nil
}

func stripLayout(s config.Strip) layout.Layout {
	return layout.Layout{
		Count:      s.LEDs,
		RowLen:     s.RowLen,
		Serpentine: s.Serpentine,
		Reverse:    s.Reverse,
		Offset:     s.Offset,
	}
}

func post(p config.Power) render.Post {
	return render.Post{
		Brightness: p.Brightness,
		Limiter: render.Limiter{
			WhiteCap: p.WhiteCapSum(),
			ChanMA:   p.MAPerChannel,
			BudgetMA: p.BudgetMA(),
		},
	}
}

func (c *Core) Hub() *ws.Hub               { return c.hub }
func (c *Core) Engine() *engine.Engine     { return c.eng }
func (c *Core) Renderer() *render.Renderer { return c.rend }

// Restore activates the most recently stored program, if any.
func (c *Core) Restore(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	p, err := c.store.Latest(ctx)
	if errors.Is(err, store.ErrNoProgram) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := c.eng.LoadProgram(p.Source); err != nil {
		c.log.Warn().Err(err).Str("name", p.Name).Msg("stored program skipped")
		return nil
	}
	c.log.Info().Str("name", p.Name).Time("stored_at", p.Time()).Msg("stored program restored")
	return nil
}

// Run ticks the engine and serves the command surface until ctx ends.
func (c *Core) Run(ctx context.Context) error {
	if err := c.Restore(ctx); err != nil {
		c.log.Warn().Err(err).Msg("restore failed")
	}
	srv := &http.Server{
		Addr:         c.cfg.HTTP.Addr,
		Handler:      ws.NewServer(c, c.hub, c.cfg.HTTP).Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.loop(ctx)
	})
	g.Go(func() error {
		c.log.Info().Str("addr", srv.Addr).Str("driver", c.cfg.Driver.Type).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		c.hub.Close()
		sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

func (c *Core) loop(ctx context.Context) error {
	ticker := time.NewTicker(time.Duration(c.cfg.Engine.TickMS) * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.Tick()
		}
	}
}

// Tick runs one engine tick, or one self test frame, and commits the
// frame to the driver.
func (c *Core) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.runner != nil {
		more := false
		c.rend.Paint(func(px []model.Colour) { more = c.runner.Step(px) })
		if !more {
			c.hub.PushDiag(diag.TestDone(string(c.runner.Kind())))
			c.runner = nil
			c.rend.Fill(model.Black)
		}
	} else if out, ok := c.eng.Tick(); ok {
		c.rend.Render(out)
	}
	c.commit()
}

// commit shows the frame and streams it to listeners. Callers hold c.mu.
func (c *Core) commit() {
	if err := c.rend.Show(); err != nil {
		if !c.faulted {
			c.log.Error().Err(err).Str("driver", c.cfg.Driver.Type).Msg("frame write failed")
			c.hub.PushDiag(diag.DriverFault(c.cfg.Driver.Type, err))
		}
		c.faulted = true
		return
	}
	c.faulted = false
	if n := c.rend.Frames(); n != c.lastFrame {
		c.lastFrame = n
		c.wire = c.serialize(c.wire[:0])
		c.hub.BroadcastFrame(n, c.wire)
	}
}

func (c *Core) serialize(dst []byte) []byte {
	for _, px := range c.rend.Frame(nil) {
		dst = append(dst, px.R, px.G, px.B)
	}
	return dst
}

// LoadProgram activates text and, when asked, persists it.
func (c *Core) LoadProgram(ctx context.Context, text string, keep bool) (ws.Load, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, err := c.eng.LoadProgram(text)
	if err != nil {
		switch {
		case errors.Is(err, program.ErrArenaFull):
			c.hub.PushDiag(diag.ProgramTooBig("", c.cfg.Engine.MaxLeaves, c.cfg.Engine.MaxRepeats))
		default:
			c.hub.PushDiag(diag.ProgramRejected("", res.Code.String(), res.Detail))
		}
		return ws.Load{Result: res}, err
	}
	c.runner = nil
	info, _ := c.eng.Program()
	c.hub.PushDiag(diag.ProgramLoaded(info.Name, info.Fingerprint.String()))
	l := ws.Load{Result: res, Name: info.Name}
	if !keep {
		return l, nil
	}
	if c.store == nil {
		return l, store.ErrNoStore
	}
	if err := c.store.Save(ctx, info.Name, text, info.Fingerprint.String()); err != nil {
		return l, err
	}
	l.Stored = true
	return l, nil
}

// Programs lists stored programs, newest first.
func (c *Core) Programs(ctx context.Context, limit int) ([]ws.StoredProgram, error) {
	if c.store == nil {
		return nil, store.ErrNoStore
	}
	ps, err := c.store.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]ws.StoredProgram, len(ps))
	for i, p := range ps {
		out[i] = ws.StoredProgram{Name: p.Name, Fingerprint: p.Fingerprint, StoredAt: p.Time()}
	}
	return out, nil
}

func (c *Core) ValidateProgram(text string) validate.Result {
	return c.eng.ValidateProgram(text)
}

func (c *Core) StopProgram() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eng.Stop()
	c.runner = nil
}

func (c *Core) PauseProgram()  { c.eng.Pause() }
func (c *Core) ResumeProgram() { c.eng.Resume() }

func (c *Core) PowerOff() error {
	return c.fill(model.Black)
}

func (c *Core) PowerOn(col model.Colour) error {
	return c.fill(col)
}

func (c *Core) fill(col model.Colour) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eng.Stop()
	c.runner = nil
	c.rend.Fill(col)
	return c.rend.Flush()
}

func (c *Core) Powered() bool {
	return c.rend.Lit()
}

// SetLeds resizes the strip, reopening the driver for the new length and
// saving the configuration. If the driver cannot be reopened at n pixels
// the strip keeps its old length.
func (c *Core) SetLeds(ctx context.Context, n int) error {
	if n < 1 {
		return fmt.Errorf("%w: %d", engine.ErrPixels, n)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	old := c.eng.Pixels()

	// an SPI port has a single owner; release it before reopening
	if err := c.drv.Close(); err != nil {
		c.log.Warn().Err(err).Msg("close driver")
	}
	drv, err := c.opts.OpenDriver(c.cfg.Driver, n)
	if err != nil {
		err = fmt.Errorf("driver %s: %w", c.cfg.Driver.Type, err)
		back, rerr := c.opts.OpenDriver(c.cfg.Driver, old)
		if rerr != nil {
			c.log.Error().Err(rerr).Int("leds", old).Msg("driver lost")
			c.hub.PushDiag(diag.DriverFault(c.cfg.Driver.Type, rerr))
			return errors.Join(err, rerr)
		}
		c.drv = back
		c.rend.SetDriver(back)
		return err
	}
	c.drv = drv
	c.rend.SetDriver(drv)
	c.runner = nil
	if err := c.eng.SetPixels(n); err != nil {
		return err
	}
	if err := c.rend.Resize(n); err != nil {
		return err
	}
	c.cfg.Strip.LEDs = n
	if c.opts.ConfigPath != "" {
		if err := config.Save(c.opts.ConfigPath, c.cfg); err != nil {
			return err
		}
	}
	return nil
}

// SelfTest replaces the program with a test pattern. The pattern runs one
// frame per tick.
func (c *Core) SelfTest(kind selftest.Kind) error {
	if kind == selftest.None {
		return errors.New("app: no self test pattern")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eng.Stop()
	c.runner = selftest.NewRunner(kind)
	c.hub.PushDiag(diag.TestRunning(string(kind)))
	return nil
}

func (c *Core) About() ws.About {
	a := ws.About{
		Leds:    c.eng.Pixels(),
		Version: Version,
		Driver:  c.cfg.Driver.Type,
		State:   c.eng.State(),
	}
	if info, ok := c.eng.Program(); ok {
		a.Program = &ws.ProgramInfo{
			Name:        info.Name,
			Fingerprint: info.Fingerprint.String(),
			Leaves:      info.Leaves,
			Repeats:     info.Repeats,
			LoadedAt:    info.LoadedAt,
		}
	}
	return a
}

func (c *Core) Health() ws.Health {
	return ws.Health{
		FrameID: c.rend.Frames(),
		Ticks:   c.eng.Ticks(),
		UptimeS: time.Since(c.start).Seconds(),
		Leds:    c.eng.Pixels(),
		State:   string(c.eng.State()),
	}
}

// Close blanks the strip and releases the driver and store.
func (c *Core) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eng.Stop()
	c.rend.Fill(model.Black)
	_ = c.rend.Flush()
	err := c.drv.Close()
	if c.store != nil {
		if serr := c.store.Close(); err == nil {
			err = serr
		}
	}
	return err
}
