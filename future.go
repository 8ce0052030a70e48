package irqasync

// An IRQFuture is a single-use [Future] that becomes Ready once its
// interrupt has fired.
//
// An IRQFuture is created by [Bridge.Reserve] and owns one slot of the
// bridge until Release is called. Release must be called exactly once,
// whether or not the future became Ready; abandoning a future leaks its
// slot. Copies of an IRQFuture refer to the same slot, and only one of them
// may be used.
type IRQFuture struct {
	b   *Bridge
	i   int
	gen uint32
	irq IRQ
}

var _ Future = IRQFuture{}

// IRQ returns the interrupt number f waits for.
func (f IRQFuture) IRQ() IRQ {
	return f.irq
}

// Fired reports whether f's interrupt has fired.
func (f IRQFuture) Fired() bool {
	_, w := f.load("IRQFuture.Fired")
	_, st := unpack(w)
	return st == slotPending
}

// Poll returns Ready if f's interrupt has fired since f was reserved.
// Otherwise it stores w, replacing any Waker stored before, and returns
// Pending; w is woken when the interrupt fires.
//
// Polling a released future panics with a [*Fault] wrapping
// [ErrStaleFuture].
func (f IRQFuture) Poll(w *Waker) Poll {
	s, word := f.load("IRQFuture.Poll")
	if _, st := unpack(word); st == slotPending {
		return Ready
	}

	s.waker.Store(w)

	// The interrupt may have fired between the load above and the store,
	// in which case the handler found no waker to take.
	if _, st := unpack(s.word.Load()); st == slotPending {
		s.waker.CompareAndSwap(w, nil)
		return Ready
	}

	return Pending
}

// Release gives f's slot back to the bridge. It is the only way a slot is
// ever freed.
//
// Releasing a future twice panics with a [*Fault] wrapping
// [ErrStaleFuture].
func (f IRQFuture) Release() {
	for {
		s, w := f.load("IRQFuture.Release")
		s.waker.Store(nil)
		if s.word.CompareAndSwap(w, pack(f.gen, slotFree)) {
			f.b.logger.Trace().
				Int("irq", int(f.irq)).
				Int("slot", f.i).
				Log("interrupt wait released")
			return
		}
	}
}

// load returns f's slot and its current state word, or panics if the slot
// no longer belongs to f.
func (f IRQFuture) load(op string) (*slot, uint32) {
	if f.b == nil {
		f.stale(op)
	}
	s := &f.b.slots[f.i]
	w := s.word.Load()
	if gen, st := unpack(w); gen != f.gen || !st.live() {
		f.stale(op)
	}
	return s, w
}

func (f IRQFuture) stale(op string) {
	flt := newFault(FaultStaleFuture, op, "")
	flt.IRQ = f.irq
	if f.b == nil {
		panic(flt)
	}
	f.b.fault(flt)
}
