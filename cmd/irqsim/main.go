// Command irqsim runs the blink firmware on a simulated STM32F4: every
// configured external line toggles its LED each time it fires.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/b97tsk/irqasync"
	"github.com/b97tsk/irqasync/exti"
	"github.com/b97tsk/irqasync/internal/sim"
)

var rootCmd = &cobra.Command{
	Use:           "irqsim",
	Short:         "Run interrupt-driven async tasks on a simulated microcontroller",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
			color.NoColor = true
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the blink tasks until the duration elapses",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		path, _ := flags.GetString("config")
		d, _ := flags.GetDuration("duration")
		level, _ := flags.GetString("log-level")
		verbose, _ := flags.GetBool("verbose")
		presses, _ := flags.GetInt("presses")
		every, _ := flags.GetDuration("every")

		cfg := defaultConfig()
		if path != "" {
			var err error
			if cfg, err = loadConfig(path); err != nil {
				return err
			}
		}
		if presses > 0 {
			for _, b := range cfg.Blink {
				cfg.Trigger = append(cfg.Trigger, triggerConfig{
					Line:  b.Line,
					Delay: duration{every},
					Every: duration{every},
					Count: presses,
				})
			}
		}

		if verbose {
			l, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			defer func() { _ = l.Sync() }()
			sim.SetLogger(l)
		}

		lvl, err := parseLevel(level)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		return simulate(ctx, cfg, simOptions{
			out:      cmd.OutOrStdout(),
			logOut:   cmd.ErrOrStderr(),
			logLevel: lvl,
		})
	},
}

var linesCmd = &cobra.Command{
	Use:   "lines",
	Short: "Print the EXTI line to interrupt routing",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		head := color.New(color.Bold)
		head.Fprintf(out, "%-6s %s\n", "LINE", "IRQ")
		for l := irqasync.Line(0); l < exti.NumLines; l++ {
			n, _ := exti.STM32F4.IRQ(l)
			shared := ""
			if exti.STM32F4.Lines(n).Len() > 1 {
				shared = " (shared)"
			}
			fmt.Fprintf(out, "%-6d %d%s\n", l, n, shared)
		}
	},
}

func main() {
	rootCmd.PersistentFlags().Bool("no-color", false, "disable coloured output")

	runCmd.Flags().StringP("config", "c", "", "TOML file describing blink tasks and triggers")
	runCmd.Flags().DurationP("duration", "d", 2*time.Second, "how long to run")
	runCmd.Flags().String("log-level", "info", "executor log level (err|warning|info|debug|trace)")
	runCmd.Flags().BoolP("verbose", "v", false, "log simulated hardware events")
	runCmd.Flags().Int("presses", 0, "raise every blink line this many times")
	runCmd.Flags().Duration("every", 200*time.Millisecond, "interval between presses")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(linesCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "irqsim:", err)
		os.Exit(1)
	}
}
