// Package engine is the entry point to light programs: validate, load,
// tick and stop, serialized behind one mutex.
package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-lightserver/internal/compile"
	"github.com/coreman2200/funtimes-lightserver/internal/effect"
	"github.com/coreman2200/funtimes-lightserver/internal/executor"
	"github.com/coreman2200/funtimes-lightserver/internal/program"
	"github.com/coreman2200/funtimes-lightserver/internal/validate"
	"github.com/coreman2200/funtimes-lightserver/model"
)

var (
	ErrInvalidProgram = errors.New("engine: invalid program")
	ErrPixels         = errors.New("engine: invalid pixel count")
)

// Engine owns two trees. Loads compile into the standby tree and swap it
// in only when compilation succeeds, so a failed load never disturbs the
// running program.
type Engine struct {
	mu   sync.Mutex
	opts Options
	log  zerolog.Logger

	env       effect.Env
	validator *validate.Validator
	compiler  *compile.Compiler

	active  *program.Tree
	standby *program.Tree
	exec    *executor.Executor
	out     *model.Output

	cache *simplelru.LRU[Fingerprint, validate.Result]

	info   Info
	paused bool
	ticks  uint64
}

func New(opts Options) (*Engine, error) {
	if opts.Pixels < 1 {
		return nil, fmt.Errorf("%w: %d", ErrPixels, opts.Pixels)
	}
	if opts.MaxLeaves < 1 || opts.MaxRepeats < 0 {
		return nil, fmt.Errorf("engine: invalid arena capacity %d/%d", opts.MaxLeaves, opts.MaxRepeats)
	}
	e := &Engine{
		opts:    opts,
		log:     log.Logger,
		active:  program.NewTree(opts.MaxLeaves, opts.MaxRepeats),
		standby: program.NewTree(opts.MaxLeaves, opts.MaxRepeats),
	}
	if opts.Logger != nil {
		e.log = *opts.Logger
	}
	if opts.CacheSize > 0 {
		c, err := simplelru.NewLRU[Fingerprint, validate.Result](opts.CacheSize, nil)
		if err != nil {
			return nil, fmt.Errorf("engine: validation cache: %w", err)
		}
		e.cache = c
	}
	e.configure(opts.Pixels)
	return e, nil
}

// configure rebuilds everything that depends on the strip length.
func (e *Engine) configure(pixels int) {
	e.opts.Pixels = pixels
	e.env = effect.Env{Pixels: pixels, Rand: e.opts.Rand}
	e.validator = validate.New(e.opts.Limits, e.env)
	e.compiler = compile.New(e.env)
	e.out = model.NewOutput(effect.OutputCapacity(pixels))
	if e.exec == nil {
		e.exec = executor.New(e.active, e.env, e.out)
	} else {
		e.exec.Use(e.active, e.env, e.out)
	}
	if e.cache != nil {
		e.cache.Purge()
	}
}

// ValidateProgram checks text without touching the loaded program.
func (e *Engine) ValidateProgram(text string) validate.Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.validate(text)
}

func (e *Engine) validate(text string) validate.Result {
	if e.cache == nil {
		return e.validator.Validate(text)
	}
	fp := FingerprintOf(text)
	if r, ok := e.cache.Get(fp); ok {
		return r
	}
	r := e.validator.Validate(text)
	e.cache.Add(fp, r)
	return r
}

// LoadProgram validates text and, when it is valid, compiles and starts
// it in place of the current program. The returned error is non-nil
// whenever the program was not activated.
func (e *Engine) LoadProgram(text string) (validate.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r := e.validate(text)
	if !r.OK() {
		e.log.Warn().Str("code", r.Code.String()).Str("detail", r.Detail).Msg("program rejected")
		return r, fmt.Errorf("%w: %s", ErrInvalidProgram, r)
	}

	p, err := e.compiler.Build(text, e.standby)
	if err != nil {
		e.log.Warn().Err(err).Msg("program not activated")
		if errors.Is(err, program.ErrArenaFull) {
			return validate.Result{Code: validate.ProgramTooBig, Detail: err.Error()}, err
		}
		return validate.Result{Code: validate.InvalidInstruction, Detail: err.Error()}, err
	}

	e.active.Reset()
	e.active, e.standby = e.standby, e.active
	e.exec.Use(e.active, e.env, e.out)
	e.paused = false
	e.info = Info{
		Name:        p.Name,
		Fingerprint: FingerprintOf(text),
		Leaves:      p.Leaves,
		Repeats:     p.Repeats,
		LoadedAt:    time.Now(),
		Source:      text,
	}
	e.log.Info().Str("name", p.Name).Int("leaves", p.Leaves).Int("repeats", p.Repeats).
		Str("fingerprint", e.info.Fingerprint.String()[:12]).Msg("program loaded")
	return r, nil
}

// Tick advances the program by one tick. The returned output is only valid
// until the next call to Tick.
func (e *Engine) Tick() (*model.Output, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.paused {
		return nil, false
	}
	e.ticks++
	wasActive := e.exec.State() == executor.Active
	out, ok := e.exec.Step()
	if wasActive && e.exec.State() == executor.Idle {
		e.log.Debug().Str("name", e.info.Name).Uint64("tick", e.ticks).Msg("program finished")
	}
	return out, ok
}

// Stop drops the current program. The next tick is idle.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stop()
}

func (e *Engine) stop() {
	if e.exec.State() == executor.Active {
		e.log.Info().Str("name", e.info.Name).Msg("program stopped")
	}
	e.exec.Stop()
	e.paused = false
}

// Pause holds the program where it is until Resume.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.exec.State() == executor.Active {
		e.paused = true
	}
}

func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused = false
}

func (e *Engine) State() PlayerState {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch {
	case e.exec.State() == executor.Idle:
		return Idle
	case e.paused:
		return Paused
	}
	return Running
}

// Program returns the last program loaded and whether one ever was.
func (e *Engine) Program() (Info, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.info, e.info.Name != ""
}

func (e *Engine) Pixels() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opts.Pixels
}

// SetPixels changes the strip length. The current program is stopped since
// its step counts were computed for the old length.
func (e *Engine) SetPixels(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: %d", ErrPixels, n)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stop()
	e.standby.Reset()
	e.configure(n)
	e.log.Info().Int("pixels", n).Msg("strip resized")
	return nil
}

// Ticks is the number of ticks run since start.
func (e *Engine) Ticks() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ticks
}
