package sim

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// A Pin is a simulated output pin, such as the one driving an LED.
type Pin struct {
	name     string
	state    atomic.Bool
	toggles  atomic.Uint64
	onChange func(p *Pin)
}

// NewPin creates a low Pin. onChange, if not nil, is called after every
// change of level.
func NewPin(name string, onChange func(p *Pin)) *Pin {
	return &Pin{name: name, onChange: onChange}
}

// Name returns the name of p.
func (p *Pin) Name() string {
	return p.name
}

// Get returns the level of p.
func (p *Pin) Get() bool {
	return p.state.Load()
}

// Set drives p high if on is true, low otherwise.
func (p *Pin) Set(on bool) {
	if p.state.Swap(on) != on {
		p.changed()
	}
}

// High drives p high.
func (p *Pin) High() { p.Set(true) }

// Low drives p low.
func (p *Pin) Low() { p.Set(false) }

// Toggle inverts the level of p.
func (p *Pin) Toggle() {
	for {
		old := p.state.Load()
		if p.state.CompareAndSwap(old, !old) {
			break
		}
	}
	p.toggles.Add(1)
	p.changed()
}

// Toggles returns how many times Toggle was called.
func (p *Pin) Toggles() uint64 {
	return p.toggles.Load()
}

func (p *Pin) changed() {
	Logger().Debug("pin changed", zap.String("pin", p.name), zap.Bool("high", p.Get()))
	if p.onChange != nil {
		p.onChange(p)
	}
}
