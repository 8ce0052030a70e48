package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"golang.org/x/sync/errgroup"

	"github.com/b97tsk/irqasync"
	"github.com/b97tsk/irqasync/exti"
	"github.com/b97tsk/irqasync/internal/sim"
)

type simOptions struct {
	out      io.Writer
	logOut   io.Writer
	logLevel logiface.Level
}

var (
	ledOnColor  = color.New(color.FgGreen, color.Bold)
	ledOffColor = color.New(color.FgHiBlack)
)

func parseLevel(s string) (logiface.Level, error) {
	switch strings.ToLower(s) {
	case "err", "error":
		return logiface.LevelError, nil
	case "warn", "warning":
		return logiface.LevelWarning, nil
	case "info":
		return logiface.LevelInformational, nil
	case "debug":
		return logiface.LevelDebug, nil
	case "trace":
		return logiface.LevelTrace, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

// simulate builds the board described by cfg, runs it until ctx is done and
// prints a summary.
func simulate(ctx context.Context, cfg config, opts simOptions) error {
	blinks, err := cfg.blinks()
	if err != nil {
		return err
	}
	triggers, err := cfg.triggers()
	if err != nil {
		return err
	}

	// The executor and the interrupt handler log from different goroutines.
	var logMu sync.Mutex
	logger := stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(&lockedWriter{mu: &logMu, w: opts.logOut})),
		stumpy.L.WithLevel(opts.logLevel),
	).Logger()

	g, gctx := errgroup.WithContext(ctx)

	m := sim.NewMachine(gctx, exti.STM32F4)
	bridge := irqasync.NewBridge(cfg.Bridge.Capacity,
		irqasync.WithPeripherals(m),
		irqasync.WithLineMap(exti.STM32F4),
		irqasync.WithLogger(logger),
	)
	m.SetHandler(bridge.HandleInterrupt)

	var outMu sync.Mutex
	printPin := func(p *sim.Pin) {
		outMu.Lock()
		defer outMu.Unlock()
		if p.Get() {
			ledOnColor.Fprintf(opts.out, "%s on\n", p.Name())
		} else {
			ledOffColor.Fprintf(opts.out, "%s off\n", p.Name())
		}
	}

	pins := make([]*sim.Pin, len(blinks))
	tasks := make([]irqasync.Task, len(blinks))
	for i, b := range blinks {
		m.Enable(b.irq, b.priority)
		pins[i] = sim.NewPin(b.pin, printPin)
		tasks[i] = blinkTask(bridge, b.line, pins[i])
	}

	e := irqasync.NewExecutor(m, irqasync.WithLogger(logger))
	if err := m.Boot(e, tasks...); err != nil {
		return err
	}

	g.Go(func() error { return m.Drive(gctx, e) })
	for _, tr := range triggers {
		g.Go(func() error { return m.Inject(gctx, tr) })
	}

	if err := g.Wait(); err != nil {
		return err
	}

	delivered, _ := m.Stats()
	stats := e.Stats()
	outMu.Lock()
	defer outMu.Unlock()
	fmt.Fprintf(opts.out, "interrupts=%d passes=%d polls=%d parks=%d\n",
		delivered, stats.Passes, stats.Polls, stats.Parks)
	for i, p := range pins {
		fmt.Fprintf(opts.out, "%s (%s, line %d): %d toggles\n", p.Name(), blinks[i].name, blinks[i].line, p.Toggles())
	}

	return nil
}

// blinkTask waits for line l forever and toggles pin each time it fires.
func blinkTask(b *irqasync.Bridge, l irqasync.Line, pin *sim.Pin) irqasync.Task {
	return irqasync.Forever(
		func() irqasync.Future { return b.ReserveLine(l) },
		pin.Toggle,
	)
}

type lockedWriter struct {
	mu *sync.Mutex
	w  io.Writer
}

func (x *lockedWriter) Write(p []byte) (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.w.Write(p)
}
