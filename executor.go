package irqasync

import "github.com/joeycumines/logiface"

// An Executor is a single-threaded, cooperative [Task] runner.
//
// Tasks are registered once, with Start or Run, and are identified by their
// position in the list. Each scheduling pass drains the executor's
// [WakeSignal] and polls, in ascending order, exactly the tasks whose bit was
// set. Whenever no wake is outstanding the executor parks the processor with
// the [Platform]'s WaitForEvent, followed by its InstructionBarrier.
//
// A Task must never report Ready; doing so is a fault and the executor
// panics with a [*Fault] wrapping [ErrTaskCompleted].
//
// Methods of an Executor, other than Signal, must only be called from the
// main context, never from an interrupt handler.
type Executor struct {
	signal   WakeSignal
	platform Platform
	logger   *logiface.Logger[logiface.Event]
	tasks    []Task
	wakers   [MaxTasks]Waker
	started  bool
	stats    Stats
}

// Stats counts what an [Executor] has done so far.
type Stats struct {
	Passes uint64 // scheduling passes
	Polls  uint64 // task polls
	Parks  uint64 // calls to WaitForEvent
}

// NewExecutor creates an [Executor] that parks on p.
//
// Only [WithLogger] applies to an Executor.
func NewExecutor(p Platform, opts ...Option) *Executor {
	if p == nil {
		panic(newFault(FaultConfig, "NewExecutor", "nil platform"))
	}
	o := resolveOptions(opts)
	e := &Executor{platform: p, logger: o.logger}
	for i := range e.wakers {
		e.wakers[i] = Waker{signal: &e.signal, index: i}
	}
	return e
}

// Run registers tasks and schedules them forever. Run never returns.
//
// See [Executor.Start] for the rules on tasks.
func (e *Executor) Run(tasks ...Task) {
	e.Start(tasks...)
	for {
		e.Step()
	}
}

// Start registers tasks and sets every wake bit so that the first pass polls
// all of them.
//
// Start must be called exactly once, with at most [MaxTasks] non-nil tasks.
// The list is never changed afterwards.
func (e *Executor) Start(tasks ...Task) {
	const op = "Executor.Start"
	switch {
	case e.started:
		e.fault(newFault(FaultConfig, op, "already started"))
	case len(tasks) > MaxTasks:
		e.fault(newFault(FaultConfig, op, "too many tasks"))
	}
	for i, t := range tasks {
		if t == nil {
			f := newFault(FaultConfig, op, "nil task")
			f.Task = i
			e.fault(f)
		}
	}

	e.tasks = tasks
	e.started = true
	e.signal.Init()

	e.logger.Info().
		Int("tasks", len(tasks)).
		Log("executor started")
}

// Step runs one scheduling pass.
//
// Step first drains the wake signal, then polls every task whose bit was
// set. After each task, and before the first one when there are none, Step
// parks if no wake is outstanding. A wake raised while a task is being
// polled is left for the next pass.
func (e *Executor) Step() {
	if !e.started {
		e.fault(newFault(FaultConfig, "Executor.Step", "not started"))
	}

	e.stats.Passes++

	mask := e.signal.Drain()

	if len(e.tasks) == 0 {
		e.parkIfIdle()
		return
	}

	for i, t := range e.tasks {
		if mask.Has(i) {
			e.stats.Polls++
			if t(&e.wakers[i]) != Pending {
				f := newFault(FaultTaskCompleted, "Executor.Step", "")
				f.Task = i
				e.fault(f)
			}
		}
		e.parkIfIdle()
	}
}

func (e *Executor) parkIfIdle() {
	if e.signal.Pending() != 0 {
		return
	}
	e.stats.Parks++
	e.logger.Trace().
		Uint64("parks", e.stats.Parks).
		Log("parking")
	e.platform.WaitForEvent()
	e.platform.InstructionBarrier()
}

func (e *Executor) fault(f *Fault) {
	e.logger.Err().
		Err(f).
		Int("task", f.Task).
		Log("executor fault")
	panic(f)
}

// Signal returns the [WakeSignal] of e.
//
// Marking it from outside a [Waker] is allowed; the task with that index is
// polled on a later pass.
func (e *Executor) Signal() *WakeSignal {
	return &e.signal
}

// Stats returns a snapshot of e's counters.
func (e *Executor) Stats() Stats {
	return e.stats
}
