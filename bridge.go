package irqasync

import (
	"sync/atomic"

	"github.com/joeycumines/logiface"
)

// DefaultCapacity is the number of interrupt-wait slots a [Bridge] has when
// created with a non-positive capacity.
const DefaultCapacity = 32

type slot struct {
	word  atomic.Uint32 // pack(generation, state)
	irq   atomic.Int32
	waker atomic.Pointer[Waker]
}

// A Bridge turns interrupts into futures.
//
// It owns a fixed table of interrupt-wait slots. Reserve claims a free slot
// for an interrupt number and returns an [IRQFuture] bound to it; the slot is
// given back by [IRQFuture.Release]. The shared interrupt handler calls
// HandleInterrupt, which marks every slot waiting for the active interrupt
// as pending and wakes whichever task last polled it.
//
// The table never grows. It must be sized for the largest number of
// interrupt waits outstanding at the same time anywhere in the program;
// running out is a fault.
//
// All state shared with the handler is accessed atomically, so a Bridge
// needs no locks and the handler never blocks.
type Bridge struct {
	slots       []slot
	peripherals Peripherals
	lines       LineMap
	logger      *logiface.Logger[logiface.Event]
}

// NewBridge creates a [Bridge] with capacity slots, or [DefaultCapacity]
// slots if capacity is not positive.
//
// [WithPeripherals] is required for HandleInterrupt; [WithLineMap] is
// required for ReserveLine.
func NewBridge(capacity int, opts ...Option) *Bridge {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	o := resolveOptions(opts)
	return &Bridge{
		slots:       make([]slot, capacity),
		peripherals: o.peripherals,
		lines:       o.lines,
		logger:      o.logger,
	}
}

// Cap returns the number of slots of b.
func (b *Bridge) Cap() int {
	return len(b.slots)
}

// Reserved returns the number of slots of b currently held by futures.
func (b *Bridge) Reserved() int {
	n := 0
	for i := range b.slots {
		if _, s := unpack(b.slots[i].word.Load()); s != slotFree {
			n++
		}
	}
	return n
}

// Reserve claims a free slot for interrupt n and returns a future that
// becomes Ready the next time n fires.
//
// Reserve panics with a [*Fault] wrapping [ErrSlotsExhausted] if every slot
// is taken.
func (b *Bridge) Reserve(n IRQ) IRQFuture {
	f, err := b.TryReserve(n)
	if err != nil {
		b.fault(err.(*Fault))
	}
	return f
}

// TryReserve is like Reserve, but returns the fault as an error instead of
// panicking.
func (b *Bridge) TryReserve(n IRQ) (IRQFuture, error) {
	for i := range b.slots {
		s := &b.slots[i]
		w := s.word.Load()
		gen, st := unpack(w)
		if st != slotFree {
			continue
		}
		gen = (gen + 1) & genMask
		if !s.word.CompareAndSwap(w, pack(gen, slotClaiming)) {
			continue
		}
		s.irq.Store(int32(n))
		s.waker.Store(nil)
		s.word.Store(pack(gen, slotReserved))

		b.logger.Trace().
			Int("irq", int(n)).
			Int("slot", i).
			Log("interrupt wait reserved")

		return IRQFuture{b: b, i: i, gen: gen, irq: n}, nil
	}

	f := newFault(FaultSlotsExhausted, "Bridge.Reserve", "")
	f.IRQ = n
	return IRQFuture{}, f
}

// ReserveLine is like Reserve, but resolves the interrupt number of line l
// through the bridge's [LineMap] first.
//
// ReserveLine panics with a [*Fault] wrapping [ErrUnknownLine] if l is not
// mapped.
func (b *Bridge) ReserveLine(l Line) IRQFuture {
	f, err := b.TryReserveLine(l)
	if err != nil {
		b.fault(err.(*Fault))
	}
	return f
}

// TryReserveLine is like ReserveLine, but returns the fault as an error
// instead of panicking.
func (b *Bridge) TryReserveLine(l Line) (IRQFuture, error) {
	var n IRQ
	ok := false
	if b.lines != nil {
		n, ok = b.lines.IRQ(l)
	}
	if !ok {
		f := newFault(FaultUnknownLine, "Bridge.ReserveLine", "")
		f.Line = l
		return IRQFuture{}, f
	}
	return b.TryReserve(n)
}

// HandleInterrupt is the shared interrupt handler.
//
// It acknowledges the active interrupt, clears the pending external lines
// routed to it, then marks every slot waiting for it (see Fire).
// HandleInterrupt must be called from interrupt context, and must not be
// re-entered.
func (b *Bridge) HandleInterrupt() {
	p := b.peripherals
	if p == nil {
		panic(newFault(FaultConfig, "Bridge.HandleInterrupt", "no peripherals"))
	}

	n := p.ActiveIRQ()
	p.Acknowledge(n)

	if b.lines != nil {
		if lines := b.lines.Lines(n); lines != 0 {
			if pending := p.PendingLines(lines); pending != 0 {
				p.ClearPendingLines(pending)
			}
		}
	}

	b.Fire(n)
}

// Fire marks every slot waiting for interrupt n as pending and wakes the
// task that polled it last, if any. It returns the number of slots marked.
//
// Each stored [Waker] is taken before it is woken, so a second occurrence of
// n before the future is released wakes nothing. A pending slot stays
// pending until released: every future is one-shot.
//
// Fire is what HandleInterrupt does once the interrupt number is known;
// it is safe to call from interrupt context.
func (b *Bridge) Fire(n IRQ) int {
	matched := 0
	for i := range b.slots {
		s := &b.slots[i]
		for {
			w := s.word.Load()
			gen, st := unpack(w)
			if !st.live() || IRQ(s.irq.Load()) != n {
				break
			}
			if st == slotReserved && !s.word.CompareAndSwap(w, pack(gen, slotPending)) {
				continue // Released or reused meanwhile; look again.
			}
			matched++
			if wk := s.waker.Swap(nil); wk != nil {
				wk.Wake()
			}
			break
		}
	}
	return matched
}

func (b *Bridge) fault(f *Fault) {
	b.logger.Err().
		Err(f).
		Log("bridge fault")
	panic(f)
}
