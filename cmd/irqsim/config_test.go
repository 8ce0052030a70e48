package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b97tsk/irqasync"
	"github.com/b97tsk/irqasync/exti"
)

func writeConfig(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "irqsim.toml")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("Full", func(t *testing.T) {
		path := writeConfig(t, `
[bridge]
capacity = 4

[[blink]]
name = "button"
line = 0
pin = "PG13"
priority = 13

[[blink]]
name = "sensor"
line = 7
pin = "PG14"
priority = 2

[[trigger]]
line = 7
delay = "10ms"
every = "50ms"
count = 3
`)
		cfg, err := loadConfig(path)
		require.NoError(t, err)

		assert.Equal(t, 4, cfg.Bridge.Capacity)
		require.Len(t, cfg.Blink, 2)
		assert.Equal(t, "PG14", cfg.Blink[1].Pin)

		blinks, err := cfg.blinks()
		require.NoError(t, err)
		assert.Equal(t, irqasync.IRQ(6), blinks[0].irq)
		assert.Equal(t, exti.Line7, blinks[1].line)
		assert.Equal(t, irqasync.IRQ(23), blinks[1].irq)
		assert.Equal(t, uint8(2), blinks[1].priority)

		triggers, err := cfg.triggers()
		require.NoError(t, err)
		require.Len(t, triggers, 1)
		assert.Equal(t, exti.Line7, triggers[0].Line)
		assert.Equal(t, 10*time.Millisecond, triggers[0].Delay)
		assert.Equal(t, 50*time.Millisecond, triggers[0].Every)
		assert.Equal(t, 3, triggers[0].Count)
	})
	t.Run("DefaultCapacity", func(t *testing.T) {
		cfg, err := loadConfig(writeConfig(t, "[[blink]]\nline = 1\npin = \"PA1\"\n"))
		require.NoError(t, err)
		assert.Equal(t, irqasync.DefaultCapacity, cfg.Bridge.Capacity)
	})
	t.Run("MissingBlink", func(t *testing.T) {
		_, err := loadConfig(writeConfig(t, "[bridge]\ncapacity = 2\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing [[blink]]")
	})
	t.Run("UnknownKey", func(t *testing.T) {
		_, err := loadConfig(writeConfig(t, "[[blink]]\nline = 1\npin = \"PA1\"\ncolour = \"red\"\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "colour")
	})
	t.Run("BadDuration", func(t *testing.T) {
		_, err := loadConfig(writeConfig(t, "[[blink]]\nline = 1\npin = \"PA1\"\n[[trigger]]\nline = 1\nevery = \"soon\"\n"))
		require.Error(t, err)
	})
	t.Run("NoFile", func(t *testing.T) {
		_, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml"))
		require.Error(t, err)
	})
}

func TestBlinks(t *testing.T) {
	for _, tc := range []struct {
		name  string
		blink []blinkConfig
		want  string
	}{
		{"Empty", nil, "no blink tasks"},
		{"MissingPin", []blinkConfig{{Line: 0}}, "missing pin"},
		{"DuplicatePin", []blinkConfig{{Line: 0, Pin: "PG13"}, {Line: 1, Pin: "PG13"}}, "used twice"},
		{"UnknownLine", []blinkConfig{{Line: 23, Pin: "PG13"}}, "unknown line"},
		{"NegativeLine", []blinkConfig{{Line: -1, Pin: "PG13"}}, "line -1"},
		{"Priority", []blinkConfig{{Line: 0, Pin: "PG13", Priority: 256}}, "priority 256"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config{Blink: tc.blink}.blinks()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}

	t.Run("TooMany", func(t *testing.T) {
		var cfg config
		for i := range irqasync.MaxTasks + 1 {
			cfg.Blink = append(cfg.Blink, blinkConfig{Line: 0, Pin: "P" + strings.Repeat("x", i+1)})
		}
		_, err := cfg.blinks()
		require.ErrorIs(t, err, irqasync.ErrConfig)
	})
	t.Run("DefaultName", func(t *testing.T) {
		blinks, err := config{Blink: []blinkConfig{{Line: 2, Pin: "PB2"}}}.blinks()
		require.NoError(t, err)
		assert.Equal(t, "blink0", blinks[0].name)
		assert.Equal(t, irqasync.IRQ(8), blinks[0].irq)
	})
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]logiface.Level{
		"err":     logiface.LevelError,
		"WARNING": logiface.LevelWarning,
		"info":    logiface.LevelInformational,
		"debug":   logiface.LevelDebug,
		"trace":   logiface.LevelTrace,
	} {
		got, err := parseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := parseLevel("loud")
	require.Error(t, err)
}

func TestSimulate(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	cfg := defaultConfig()
	cfg.Trigger = []triggerConfig{{
		Line:  0,
		Delay: duration{5 * time.Millisecond},
		Every: duration{5 * time.Millisecond},
		Count: 2,
	}}

	ctx, cancel := context.WithTimeout(t.Context(), 500*time.Millisecond)
	defer cancel()

	var out, logs bytes.Buffer
	err := simulate(ctx, cfg, simOptions{out: &out, logOut: &logs, logLevel: logiface.LevelInformational})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "PG13 on\n")
	assert.Contains(t, out.String(), "PG13 off\n")
	assert.Contains(t, out.String(), "interrupts=2 ")
	assert.Contains(t, out.String(), "PG13 (button, line 0): 2 toggles")
	assert.Contains(t, logs.String(), "executor started")
}

func TestSimulateSeveralBlinks(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	// The second line fires first: its task must already be waiting.
	cfg := config{
		Bridge: bridgeConfig{Capacity: 4},
		Blink: []blinkConfig{
			{Name: "button", Line: 0, Pin: "PG13", Priority: 13},
			{Name: "second", Line: 1, Pin: "PG14", Priority: 12},
		},
		Trigger: []triggerConfig{
			{Line: 1, Delay: duration{10 * time.Millisecond}, Every: duration{20 * time.Millisecond}, Count: 3},
			{Line: 0, Delay: duration{20 * time.Millisecond}, Every: duration{20 * time.Millisecond}, Count: 3},
		},
	}

	ctx, cancel := context.WithTimeout(t.Context(), 400*time.Millisecond)
	defer cancel()

	var out, logs bytes.Buffer
	err := simulate(ctx, cfg, simOptions{out: &out, logOut: &logs, logLevel: logiface.LevelError})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "interrupts=6 ")
	assert.Contains(t, out.String(), "PG13 (button, line 0): 3 toggles")
	assert.Contains(t, out.String(), "PG14 (second, line 1): 3 toggles")
}
