package irqasync

import (
	"math/bits"
	"sync/atomic"
)

// MaxTasks is the maximum number of tasks an [Executor] can schedule.
// It equals the bit width of a [Mask].
const MaxTasks = 32

// A Mask holds one bit per task slot.
type Mask uint32

// Has reports whether bit i is set in m.
func (m Mask) Has(i int) bool {
	return i >= 0 && i < MaxTasks && m&(1<<uint(i)) != 0
}

// Len returns the number of bits set in m.
func (m Mask) Len() int {
	return bits.OnesCount32(uint32(m))
}

// WakeSignal records which tasks have outstanding wake requests.
//
// Bit i set means task i needs to be polled again.
// A WakeSignal is only ever updated by an atomic or (Mark) and an atomic swap
// to zero (Drain), so it is safe to Mark from an interrupt handler while
// the executor is in the middle of a pass.
//
// The zero value has no bits set. Call Init to force every task to be
// polled on the first pass.
type WakeSignal struct {
	bits atomic.Uint32
}

// Init sets every bit of s.
func (s *WakeSignal) Init() {
	s.bits.Swap(^uint32(0))
}

// Mark sets bit i of s.
//
// Mark never blocks and never fails. Indices outside [0, MaxTasks) are
// ignored.
func (s *WakeSignal) Mark(i int) {
	if i < 0 || i >= MaxTasks {
		return
	}
	s.bits.Or(1 << uint(i))
}

// Drain clears s and returns the bits that were set.
//
// A Mark that happens after Drain returns is observed by the next Drain.
func (s *WakeSignal) Drain() Mask {
	return Mask(s.bits.Swap(0))
}

// Pending returns the bits currently set in s without clearing them.
func (s *WakeSignal) Pending() Mask {
	return Mask(s.bits.Load())
}
