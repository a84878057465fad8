// SPDX-License-Identifier: EPL-2.0

// Command spatialdemo plays a positional sound around a listener with a
// wall in between and lets the keyboard drive the filter and the actors.
//
//	1 / F1   play the one-shot sound
//	P        play the spatial sound
//	S        play the stream
//	B        toggle filter bypass
//	M / N    filter parameter up / down
//	2 / 3    low-pass cutoff down / up
//	4 / 5    flange depth down / up
//	X        switch between moving the source and the listener
//	arrows   move the active actor
//	Q / Esc  quit
//
// Without a terminal on stdin, or with -orbit, the source circles the
// listener. With -duration the demo stops on its own, which together with
// output: wav renders the session to a file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ik5/spatialfx"
	"github.com/ik5/spatialfx/config"
	"github.com/ik5/spatialfx/internal/logging"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

var errQuit = errors.New("quit requested")

// statusEvery is how many frames pass between status line redraws.
const statusEvery = 10

func main() {
	configFilePath := flag.String("configFilePath", "config.yaml", "Set the file path to the config file.")
	duration := flag.Duration("duration", 0, "Stop after this long. Zero runs until quit.")
	orbit := flag.Bool("orbit", false, "Move the source on a circle instead of with the arrow keys.")
	flag.Parse()

	if err := run(*configFilePath, *duration, *orbit); err != nil {
		fmt.Fprintln(os.Stderr, "spatialdemo:", err)
		os.Exit(1)
	}
}

func run(configFilePath string, duration time.Duration, orbit bool) error {
	cfg, err := config.Load(configFilePath)
	if err != nil {
		return err
	}

	logFile, err := logging.ConfigureDefaultLogger(cfg.LogLevel, cfg.LogFile, slog.HandlerOptions{})
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}

	ctl, err := spatialfx.New(cfg)
	if err != nil {
		return err
	}
	app := NewApp(cfg, ctl, slog.Default())
	if err := app.Setup(); err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			slog.Error("closing", "err", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	interactive := rawInput && term.IsTerminal(int(os.Stdin.Fd()))
	app.Orbit(orbit || !interactive)

	var status io.Writer
	if term.IsTerminal(int(os.Stdout.Fd())) {
		status = os.Stdout
	}

	cmds := make(chan Command, 16)
	g, ctx := errgroup.WithContext(ctx)
	if interactive {
		g.Go(func() error { return readKeys(ctx, cmds) })
	}
	g.Go(func() error { return loop(ctx, app, cmds, cfg.TickInterval(), status) })

	err = g.Wait()
	if status != nil {
		fmt.Fprint(status, "\r\n")
	}
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}

// loop is the fixed-step game loop. It returns errQuit when asked to quit
// and nil when ctx ends.
func loop(ctx context.Context, app *App, cmds <-chan Command, interval time.Duration, status io.Writer) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	frames := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd := <-cmds:
			if app.Handle(cmd) {
				return errQuit
			}
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			if err := app.Step(dt); err != nil {
				slog.Warn("frame failed", "err", err)
			}
			frames++
			if status != nil && frames%statusEvery == 0 {
				fmt.Fprintf(status, "\r%s\x1b[K", app.Status())
			}
		}
	}
}
