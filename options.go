package irqasync

import "github.com/joeycumines/logiface"

// An Option configures an [Executor] or a [Bridge].
// Options that do not apply to the type being configured are ignored.
type Option func(*options)

type options struct {
	logger      *logiface.Logger[logiface.Event]
	peripherals Peripherals
	lines       LineMap
}

func resolveOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithLogger sets the logger for diagnostics. A nil logger, the default,
// disables logging.
//
// Nothing is ever logged from interrupt context.
func WithLogger(l *logiface.Logger[logiface.Event]) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithPeripherals sets the interrupt controller a [Bridge] consults in
// HandleInterrupt.
func WithPeripherals(p Peripherals) Option {
	return func(o *options) {
		o.peripherals = p
	}
}

// WithLineMap sets the line table a [Bridge] uses for ReserveLine and for
// clearing pending lines in HandleInterrupt.
func WithLineMap(m LineMap) Option {
	return func(o *options) {
		o.lines = m
	}
}
