package irqasync

// Poll is the outcome of polling a [Task] or a [Future].
type Poll uint8

const (
	// Pending means the poll could not finish yet. Whoever returns Pending
	// must have stored the [Waker] it was given somewhere an event will find
	// it, or it is never polled again.
	Pending Poll = iota
	// Ready means the poll finished.
	Ready
)

func (p Poll) String() string {
	switch p {
	case Pending:
		return "Pending"
	case Ready:
		return "Ready"
	default:
		return "Poll(?)"
	}
}

// A Waker is the resume handle an [Executor] passes to a [Task] when polling
// it.
//
// Calling Wake marks the owning task in the executor's [WakeSignal], so that
// a later scheduling pass polls the task again. Wake is safe to call from an
// interrupt handler.
//
// Wakers are owned by their executor, one per task slot, and are never
// reallocated; storing the pointer is fine.
type Waker struct {
	signal *WakeSignal
	index  int
}

// Wake marks the task that w belongs to.
func (w *Waker) Wake() {
	w.signal.Mark(w.index)
}

// Index returns the task slot w belongs to.
func (w *Waker) Index() int {
	return w.index
}

// Mask returns the bit w marks when woken.
func (w *Waker) Mask() Mask {
	return 1 << uint(w.index)
}

// A Task is a cooperative computation scheduled by an [Executor].
//
// The executor calls the function each time the task's wake bit is set.
// It must not block: it either makes progress and returns Pending, after
// having stored w where an event will find it, or, in principle, returns
// Ready. Tasks run forever, so an executor treats Ready as a fault.
type Task func(w *Waker) Poll

// A Future is a single-use awaitable.
//
// Poll returns Ready once the awaited event has happened; otherwise it keeps
// w and returns Pending. Only the most recently passed Waker is kept.
//
// Release gives back whatever the future holds. It must be called exactly
// once, whether or not the future became Ready.
type Future interface {
	Poll(w *Waker) Poll
	Release()
}

// Forever returns a [Task] that awaits a Future obtained from next, releases
// it once Ready, calls then, and starts over.
//
// then may be nil.
func Forever(next func() Future, then func()) Task {
	if next == nil {
		panic("Forever(nil): undefined behavior")
	}
	var f Future
	return func(w *Waker) Poll {
		for {
			if f == nil {
				f = next()
			}
			if f.Poll(w) == Pending {
				return Pending
			}
			f.Release()
			f = nil
			if then != nil {
				then()
			}
		}
	}
}

// Never returns a [Task] that is always pending.
// It can be used to keep a task slot occupied.
func Never() Task {
	return func(w *Waker) Poll {
		return Pending
	}
}
