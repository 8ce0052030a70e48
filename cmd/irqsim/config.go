package main

import (
	"fmt"
	"time"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"

	"github.com/b97tsk/irqasync"
	"github.com/b97tsk/irqasync/exti"
	"github.com/b97tsk/irqasync/internal/sim"
)

type config struct {
	Bridge  bridgeConfig    `toml:"bridge"`
	Blink   []blinkConfig   `toml:"blink"`
	Trigger []triggerConfig `toml:"trigger"`
}

type bridgeConfig struct {
	Capacity int `toml:"capacity"`
}

type blinkConfig struct {
	Name     string `toml:"name"`
	Line     int64  `toml:"line"`
	Pin      string `toml:"pin"`
	Priority int64  `toml:"priority"`
}

type triggerConfig struct {
	Line  int64    `toml:"line"`
	Delay duration `toml:"delay"`
	Every duration `toml:"every"`
	Count int      `toml:"count"`
}

type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// defaultConfig is the reference board: the user button on PA0 (EXTI line 0,
// IRQ 6, priority 13) toggles the LED on PG13.
func defaultConfig() config {
	return config{
		Bridge: bridgeConfig{Capacity: irqasync.DefaultCapacity},
		Blink: []blinkConfig{
			{Name: "button", Line: 0, Pin: "PG13", Priority: 13},
		},
	}
}

func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	cfg.Blink = nil

	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("blink") {
		return config{}, fmt.Errorf("%s: missing [[blink]] section", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) != 0 {
		return config{}, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}

	return cfg, nil
}

type blink struct {
	name     string
	line     irqasync.Line
	irq      irqasync.IRQ
	pin      string
	priority uint8
}

func parseLine(v int64) (irqasync.Line, irqasync.IRQ, error) {
	l, err := safecast.Conv[uint8](v)
	if err != nil {
		return 0, 0, fmt.Errorf("line %d: %w", v, err)
	}
	n, ok := exti.STM32F4.IRQ(irqasync.Line(l))
	if !ok {
		return 0, 0, fmt.Errorf("line %d: %w", v, irqasync.ErrUnknownLine)
	}
	return irqasync.Line(l), n, nil
}

func (c config) blinks() ([]blink, error) {
	if len(c.Blink) == 0 {
		return nil, fmt.Errorf("no blink tasks: %w", irqasync.ErrConfig)
	}
	if len(c.Blink) > irqasync.MaxTasks {
		return nil, fmt.Errorf("%d blink tasks, at most %d: %w", len(c.Blink), irqasync.MaxTasks, irqasync.ErrConfig)
	}

	pins := make(map[string]bool, len(c.Blink))
	out := make([]blink, 0, len(c.Blink))

	for i, bc := range c.Blink {
		name := bc.Name
		if name == "" {
			name = fmt.Sprintf("blink%d", i)
		}
		if bc.Pin == "" {
			return nil, fmt.Errorf("%s: missing pin: %w", name, irqasync.ErrConfig)
		}
		if pins[bc.Pin] {
			return nil, fmt.Errorf("%s: pin %s used twice: %w", name, bc.Pin, irqasync.ErrConfig)
		}
		pins[bc.Pin] = true

		l, n, err := parseLine(bc.Line)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		prio, err := safecast.Conv[uint8](bc.Priority)
		if err != nil {
			return nil, fmt.Errorf("%s: priority %d: %w", name, bc.Priority, err)
		}

		out = append(out, blink{name: name, line: l, irq: n, pin: bc.Pin, priority: prio})
	}

	return out, nil
}

func (c config) triggers() ([]sim.Trigger, error) {
	out := make([]sim.Trigger, 0, len(c.Trigger))
	for _, tc := range c.Trigger {
		l, _, err := parseLine(tc.Line)
		if err != nil {
			return nil, fmt.Errorf("trigger: %w", err)
		}
		out = append(out, sim.Trigger{Line: l, Delay: tc.Delay.Duration, Every: tc.Every.Duration, Count: tc.Count})
	}
	return out, nil
}
