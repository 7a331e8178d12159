// Command lpsim validates a light program and plays it tick by tick on the
// terminal.
package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-lightserver/internal/engine"
	"github.com/coreman2200/funtimes-lightserver/internal/layout"
	"github.com/coreman2200/funtimes-lightserver/internal/led"
	"github.com/coreman2200/funtimes-lightserver/internal/render"
	"github.com/coreman2200/funtimes-lightserver/model"
)

func main() {
	var (
		leds  = flag.Int("leds", 30, "number of LEDs on the simulated strip")
		ticks = flag.Int("ticks", 100, "ticks to run; stops early when the program ends")
		text  = flag.Bool("text", false, "print rendering instructions instead of colour blocks")
		delay = flag.Duration("delay", 0, "pause between ticks, e.g. 50ms")
		seed  = flag.Uint64("seed", 1, "seed for stochastic effects")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: lpsim [flags] program.json\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatal().Err(err).Msg("read program")
	}

	opts := engine.DefaultOptions()
	opts.Pixels = *leds
	opts.CacheSize = 0
	opts.Rand = rand.New(rand.NewPCG(*seed, *seed))
	eng, err := engine.New(opts)
	if err != nil {
		log.Fatal().Err(err).Msg("engine")
	}

	res, err := eng.LoadProgram(string(data))
	fmt.Printf("result: %d %s\n", res.Code, res)
	if err != nil {
		os.Exit(1)
	}

	var rend *render.Renderer
	if !*text {
		drv := led.NewConsole(*leds)
		defer drv.Close()
		rend, err = render.New(layout.Layout{Count: *leds}, drv, render.Post{})
		if err != nil {
			log.Fatal().Err(err).Msg("renderer")
		}
	}

	for i := 0; i < *ticks; i++ {
		out, ok := eng.Tick()
		switch {
		case !ok && eng.State() == engine.Idle:
			fmt.Printf("tick %d: idle\n", i)
			return
		case !ok:
			if *text {
				fmt.Printf("tick %d: -\n", i)
			}
		case rend != nil:
			rend.Render(out)
			if err := rend.Show(); err != nil {
				log.Fatal().Err(err).Msg("show")
			}
			fmt.Println()
		default:
			fmt.Printf("tick %d: %s\n", i, describe(out))
		}
		if *delay > 0 {
			time.Sleep(*delay)
		}
	}
}

func describe(out *model.Output) string {
	if out.Len() == 0 {
		return "-"
	}
	var b strings.Builder
	for i, ri := range out.Instructions() {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%sx%d", ri.Colour, ri.Count)
	}
	if out.Repeat {
		b.WriteString(" (repeat)")
	}
	return b.String()
}
