package sim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/b97tsk/irqasync"
)

// A Trigger raises an external line on a schedule.
type Trigger struct {
	Line  irqasync.Line
	Delay time.Duration // before the first raise
	Every time.Duration // between raises
	Count int           // number of raises; zero or less means until done
}

// Inject raises tr.Line on tr's schedule until the schedule is exhausted or
// ctx is done. It returns nil in both cases.
func (m *Machine) Inject(ctx context.Context, tr Trigger) error {
	if tr.Every <= 0 && tr.Count != 1 {
		return fmt.Errorf("sim: trigger for line %d: period must be positive", tr.Line)
	}

	timer := time.NewTimer(tr.Delay)
	defer timer.Stop()

	for i := 0; tr.Count <= 0 || i < tr.Count; i++ {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		delivered := m.RaiseLine(tr.Line)
		Logger().Debug("line raised",
			zap.Uint8("line", uint8(tr.Line)),
			zap.Int("n", i+1),
			zap.Bool("delivered", delivered),
		)

		timer.Reset(tr.Every)
	}

	return nil
}

// Boot starts e with tasks and runs its first scheduling pass. Parking does
// not block during that pass, so every task makes its first reservation
// before Boot returns and no interrupt raised afterwards finds its waiter
// missing.
//
// Faults are returned as in Drive.
func (m *Machine) Boot(e *irqasync.Executor, tasks ...irqasync.Task) (err error) {
	defer recoverFault(&err)

	m.booting.Store(true)
	defer m.booting.Store(false)

	e.Start(tasks...)
	e.Step()

	return nil
}

// Drive runs scheduling passes of e, which must have been started, until ctx
// is done.
//
// A [*irqasync.Fault] raised by e or by a task is returned as an error
// instead of crashing the host; any other panic is propagated.
func (m *Machine) Drive(ctx context.Context, e *irqasync.Executor) (err error) {
	defer recoverFault(&err)

	for ctx.Err() == nil {
		e.Step()
	}

	return nil
}

func recoverFault(err *error) {
	if v := recover(); v != nil {
		var f *irqasync.Fault
		if verr, ok := v.(error); ok && errors.As(verr, &f) {
			*err = f
			return
		}
		panic(v)
	}
}
