package irqasync

import "math/bits"

// IRQ is a hardware interrupt number, as numbered by the NVIC.
type IRQ int16

// NoIRQ is an IRQ number no peripheral uses.
const NoIRQ IRQ = -1 << 15

// A Line is an externally named trigger source, such as an EXTI line.
// Several lines may share one [IRQ].
type Line uint8

// A LineMask holds one bit per [Line].
type LineMask uint32

// Mask returns the LineMask with only l set.
func (l Line) Mask() LineMask {
	if l >= 32 {
		return 0
	}
	return 1 << l
}

// Has reports whether l is set in m.
func (m LineMask) Has(l Line) bool {
	return m&l.Mask() != 0
}

// Len returns the number of lines set in m.
func (m LineMask) Len() int {
	return bits.OnesCount32(uint32(m))
}

// Platform is the target-specific pair of primitives the [Executor] parks on
// when no task has an outstanding wake.
//
// WaitForEvent must return immediately if an event (an interrupt, in
// particular) has occurred since it last returned; on Cortex-M this is the
// event register consulted by WFE. Without that guarantee an interrupt that
// fires between the executor's idle check and the wait would be slept
// through.
//
// InstructionBarrier is executed right after WaitForEvent returns.
type Platform interface {
	WaitForEvent()
	InstructionBarrier()
}

// Peripherals is what the interrupt handler needs from the interrupt
// controller and the external interrupt controller. All methods are called
// from interrupt context.
type Peripherals interface {
	// ActiveIRQ returns the interrupt currently being serviced.
	ActiveIRQ() IRQ
	// Acknowledge clears the pending state of n in the interrupt controller.
	Acknowledge(n IRQ)
	// PendingLines returns which lines in mask are pending.
	PendingLines(mask LineMask) LineMask
	// ClearPendingLines clears the pending state of the lines in mask.
	ClearPendingLines(mask LineMask)
}

// LineMap is a static, read-only mapping between lines and interrupt
// numbers.
type LineMap interface {
	// IRQ returns the interrupt number line l is routed to.
	IRQ(l Line) (IRQ, bool)
	// Lines returns every line routed to n, or zero if there is none.
	Lines(n IRQ) LineMask
}
