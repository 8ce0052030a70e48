// Package irqasync is a minimal cooperative executor for bare-metal,
// interrupt-driven programs, together with a bridge that lets a task wait
// for an interrupt the way it would wait for any other event.
//
// There is no heap allocation after start-up, no operating system and no
// lock. The only things shared between the main loop and the interrupt
// handler are a wake bitmask and a fixed table of interrupt-wait slots, and
// both are only ever touched through atomic operations.
//
// # Tasks, Futures and Wakers
//
// A [Task] is a function the [Executor] polls. It never blocks: it either
// makes progress and returns [Pending], or it has nothing to do yet, in
// which case it stores the [Waker] it was given somewhere an event will find
// it, and still returns Pending. A Task runs for the whole life of the
// program; reporting [Ready] is a fault.
//
// A [Future] is the same contract for a single awaitable value. A task polls
// a future with its own waker, and the future keeps that waker until the
// awaited event happens.
//
// # Scheduling
//
// An [Executor] owns a [WakeSignal], one bit per task. Each scheduling pass
// swaps the signal to zero and polls, in ascending order, exactly the tasks
// whose bit was set. A Waker marks its task's bit with an atomic or, so it can
// be woken from an interrupt handler at any instruction boundary; a wake that
// arrives during a pass is picked up by a later one and is never lost.
//
// Whenever no bit is set the executor parks the processor with the
// [Platform]'s WaitForEvent and InstructionBarrier. On Cortex-M that is WFE
// followed by ISB: the event register makes WFE return immediately if an
// interrupt came in after the idle check, so parking cannot sleep through
// a wake.
//
// # Interrupts
//
// A [Bridge] holds a fixed number of interrupt-wait slots. [Bridge.Reserve]
// claims one for an interrupt number and returns an [IRQFuture]. The first
// poll that finds the interrupt has not fired stores the task's waker in the
// slot. The shared interrupt handler, [Bridge.HandleInterrupt], acknowledges
// the active interrupt, marks every matching slot pending and wakes the
// stored waker, taking it so it is woken at most once. On the next pass the
// task polls the future again, sees it Ready, and releases the slot with
// [IRQFuture.Release].
//
// Every future is one-shot. A slot stays pending until it is released; to
// wait for the interrupt again, reserve a new future. [Forever] wraps that
// loop into a Task.
//
// External interrupt lines that share one interrupt number are resolved
// through a [LineMap] (see package exti for the STM32F4 table), and the
// interrupt controller itself is reached through [Peripherals].
//
// # Faults
//
// Running out of slots, a task reporting Ready, and using a released future
// are programming errors with nothing to recover into. They panic with a
// [*Fault]; on the target this halts the program, which is expected to be
// reset externally.
package irqasync
