// Package sim simulates just enough of a Cortex-M microcontroller to run
// irqasync on a host: an NVIC with enable and pending bits, the SCB's active
// interrupt number, an EXTI pending register, the WFE event register, and
// output pins.
//
// Interrupts are raised from any goroutine. A Machine has a single interrupt
// context: handlers never run concurrently with each other, but they do run
// concurrently with the executor, which is a stricter setting than the
// single-core target.
package sim

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/b97tsk/irqasync"
)

// NumIRQs is the number of interrupt numbers a Machine models.
const NumIRQs = 96

const numIRQWords = NumIRQs / 32

// A Machine is a simulated microcontroller.
//
// It implements [irqasync.Platform] and [irqasync.Peripherals].
type Machine struct {
	lines   irqasync.LineMap
	handler func()

	irqMu    sync.Mutex // held while a handler runs
	active   atomic.Int32
	enabled  [numIRQWords]atomic.Uint32
	pending  [numIRQWords]atomic.Uint32
	priority [NumIRQs]atomic.Uint32
	exti     atomic.Uint32

	event   chan struct{}
	done    <-chan struct{}
	booting atomic.Bool

	barriers  atomic.Uint64
	delivered atomic.Uint64
}

var (
	_ irqasync.Platform    = (*Machine)(nil)
	_ irqasync.Peripherals = (*Machine)(nil)
)

// NewMachine creates a Machine routing external lines through lines.
// WaitForEvent stops blocking once ctx is done.
func NewMachine(ctx context.Context, lines irqasync.LineMap) *Machine {
	m := &Machine{
		lines: lines,
		event: make(chan struct{}, 1),
		done:  ctx.Done(),
	}
	m.active.Store(int32(irqasync.NoIRQ))
	return m
}

// SetHandler sets the function every interrupt vectors to.
// It must be called before the first interrupt is raised.
func (m *Machine) SetHandler(h func()) {
	m.handler = h
}

func validIRQ(n irqasync.IRQ) bool {
	return n >= 0 && int(n) < NumIRQs
}

func irqBit(n irqasync.IRQ) (word int, bit uint32) {
	return int(n) >> 5, 1 << (uint32(n) & 0x1F)
}

// Enable enables interrupt n at the given priority.
func (m *Machine) Enable(n irqasync.IRQ, priority uint8) {
	if !validIRQ(n) {
		return
	}
	m.priority[n].Store(uint32(priority))
	w, b := irqBit(n)
	m.enabled[w].Or(b)
	Logger().Debug("irq enabled", zap.Int16("irq", int16(n)), zap.Uint8("priority", priority))
}

// Disable disables interrupt n. Raising it afterwards only sets it pending.
func (m *Machine) Disable(n irqasync.IRQ) {
	if !validIRQ(n) {
		return
	}
	w, b := irqBit(n)
	m.enabled[w].And(^b)
}

// Enabled reports whether interrupt n is enabled.
func (m *Machine) Enabled(n irqasync.IRQ) bool {
	if !validIRQ(n) {
		return false
	}
	w, b := irqBit(n)
	return m.enabled[w].Load()&b != 0
}

// Priority returns the priority interrupt n was enabled with.
func (m *Machine) Priority(n irqasync.IRQ) uint8 {
	if !validIRQ(n) {
		return 0
	}
	return uint8(m.priority[n].Load())
}

// RaiseLine sets external line l pending and raises the interrupt it is
// routed to. It reports whether a handler ran.
func (m *Machine) RaiseLine(l irqasync.Line) bool {
	m.exti.Or(uint32(l.Mask()))
	var n irqasync.IRQ
	ok := false
	if m.lines != nil {
		n, ok = m.lines.IRQ(l)
	}
	if !ok {
		Logger().Warn("line not routed", zap.Uint8("line", uint8(l)))
		return false
	}
	return m.Raise(n)
}

// Raise sets interrupt n pending and, if it is enabled, runs the handler in
// the machine's interrupt context, then signals an event. It reports whether
// a handler ran.
func (m *Machine) Raise(n irqasync.IRQ) bool {
	if !validIRQ(n) {
		return false
	}
	w, b := irqBit(n)
	m.pending[w].Or(b)

	if m.enabled[w].Load()&b == 0 {
		Logger().Debug("irq masked", zap.Int16("irq", int16(n)))
		return false
	}

	m.irqMu.Lock()
	m.active.Store(int32(n))
	if h := m.handler; h != nil {
		h()
	}
	m.active.Store(int32(irqasync.NoIRQ))
	m.irqMu.Unlock()

	m.delivered.Add(1)
	m.SendEvent()

	Logger().Debug("irq delivered", zap.Int16("irq", int16(n)))
	return true
}

// SendEvent sets the event register, like SEV.
func (m *Machine) SendEvent() {
	select {
	case m.event <- struct{}{}:
	default:
	}
}

// WaitForEvent blocks until the event register is set, then clears it.
// It returns immediately if the register was already set, while Boot runs,
// or once the machine's context is done.
func (m *Machine) WaitForEvent() {
	if m.booting.Load() {
		select {
		case <-m.event:
		default:
		}
		return
	}
	select {
	case <-m.event:
	case <-m.done:
	}
}

// InstructionBarrier counts barriers; there is no pipeline to flush.
func (m *Machine) InstructionBarrier() {
	m.barriers.Add(1)
}

// ActiveIRQ returns the interrupt whose handler is running, or
// [irqasync.NoIRQ].
func (m *Machine) ActiveIRQ() irqasync.IRQ {
	return irqasync.IRQ(m.active.Load())
}

// Acknowledge clears the pending bit of n.
func (m *Machine) Acknowledge(n irqasync.IRQ) {
	if !validIRQ(n) {
		return
	}
	w, b := irqBit(n)
	m.pending[w].And(^b)
}

// IRQPending reports whether interrupt n is pending.
func (m *Machine) IRQPending(n irqasync.IRQ) bool {
	if !validIRQ(n) {
		return false
	}
	w, b := irqBit(n)
	return m.pending[w].Load()&b != 0
}

// PendingLines returns the lines in mask whose EXTI pending bit is set.
func (m *Machine) PendingLines(mask irqasync.LineMask) irqasync.LineMask {
	return irqasync.LineMask(m.exti.Load()) & mask
}

// ClearPendingLines clears the EXTI pending bits in mask.
func (m *Machine) ClearPendingLines(mask irqasync.LineMask) {
	m.exti.And(^uint32(mask))
}

// Stats returns how many interrupts were delivered and how many barriers
// were executed.
func (m *Machine) Stats() (delivered, barriers uint64) {
	return m.delivered.Load(), m.barriers.Load()
}
