package sim_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/b97tsk/irqasync"
	"github.com/b97tsk/irqasync/exti"
	"github.com/b97tsk/irqasync/internal/sim"
)

type board struct {
	m   *sim.Machine
	b   *irqasync.Bridge
	e   *irqasync.Executor
	led *sim.Pin
}

func newBoard(t *testing.T, ctx context.Context) *board {
	t.Helper()

	m := sim.NewMachine(ctx, exti.STM32F4)
	b := irqasync.NewBridge(4,
		irqasync.WithPeripherals(m),
		irqasync.WithLineMap(exti.STM32F4),
	)
	m.SetHandler(b.HandleInterrupt)
	m.Enable(6, 13)

	led := sim.NewPin("PG13", nil)
	e := irqasync.NewExecutor(m)
	require.NoError(t, m.Boot(e, irqasync.Forever(
		func() irqasync.Future { return b.ReserveLine(exti.Line0) },
		led.Toggle,
	)))

	return &board{m: m, b: b, e: e, led: led}
}

func TestMachine(t *testing.T) {
	t.Run("Blink", func(t *testing.T) {
		brd := newBoard(t, t.Context())

		require.Equal(t, 1, brd.b.Reserved())
		assert.False(t, brd.led.Get())

		require.True(t, brd.m.RaiseLine(exti.Line0))
		assert.False(t, brd.m.IRQPending(6), "handler must acknowledge the irq")
		assert.Zero(t, brd.m.PendingLines(exti.Line0.Mask()), "handler must clear the line")
		assert.Equal(t, irqasync.Mask(1), brd.e.Signal().Pending())

		brd.e.Step()

		assert.True(t, brd.led.Get())
		assert.Equal(t, uint64(1), brd.led.Toggles())
		assert.Equal(t, 1, brd.b.Reserved(), "task must have reserved its next wait")
	})
	t.Run("Masked", func(t *testing.T) {
		brd := newBoard(t, t.Context())
		brd.m.Disable(6)

		assert.False(t, brd.m.RaiseLine(exti.Line0))
		assert.True(t, brd.m.IRQPending(6))
		assert.Equal(t, exti.Line0.Mask(), brd.m.PendingLines(exti.Line0.Mask()))
		assert.Zero(t, brd.e.Signal().Pending())
	})
	t.Run("OtherLinesUntouched", func(t *testing.T) {
		brd := newBoard(t, t.Context())

		brd.m.RaiseLine(exti.Line3) // IRQ 9, not enabled.
		brd.m.RaiseLine(exti.Line0)

		assert.Equal(t, exti.Line3.Mask(), brd.m.PendingLines(^irqasync.LineMask(0)))
	})
	t.Run("Drive", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()

		brd := newBoard(t, ctx)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return brd.m.Drive(gctx, brd.e) })

		require.NoError(t, brd.m.Inject(ctx, sim.Trigger{
			Line:  exti.Line0,
			Delay: 5 * time.Millisecond,
			Every: 5 * time.Millisecond,
			Count: 3,
		}))

		require.Eventually(t, func() bool {
			return brd.led.Toggles() == 3
		}, 2*time.Second, time.Millisecond)

		cancel()
		require.NoError(t, g.Wait())

		delivered, barriers := brd.m.Stats()
		assert.Equal(t, uint64(3), delivered)
		assert.NotZero(t, barriers)
		assert.True(t, brd.led.Get())
	})
	t.Run("Boot", func(t *testing.T) {
		// Every task must have reserved its wait when Boot returns, even
		// though the pass parks after each task with no event latched.
		m := sim.NewMachine(t.Context(), exti.STM32F4)
		b := irqasync.NewBridge(4,
			irqasync.WithPeripherals(m),
			irqasync.WithLineMap(exti.STM32F4),
		)
		m.SetHandler(b.HandleInterrupt)

		lines := []irqasync.Line{exti.Line0, exti.Line1, exti.Line2}
		tasks := make([]irqasync.Task, len(lines))
		for i, l := range lines {
			n, _ := exti.STM32F4.IRQ(l)
			m.Enable(n, 1)
			pin := sim.NewPin(fmt.Sprintf("PB%d", i), nil)
			tasks[i] = irqasync.Forever(
				func() irqasync.Future { return b.ReserveLine(l) },
				pin.Toggle,
			)
		}

		e := irqasync.NewExecutor(m)
		require.NoError(t, m.Boot(e, tasks...))
		require.Equal(t, len(lines), b.Reserved())
		assert.Equal(t, uint64(len(lines)), e.Stats().Parks)

		// The last task's wait is in place: raising its line wakes it and no
		// other task.
		require.True(t, m.RaiseLine(exti.Line2))
		assert.Equal(t, irqasync.Mask(1<<2), e.Signal().Pending())
	})
	t.Run("BootFault", func(t *testing.T) {
		m := sim.NewMachine(t.Context(), exti.STM32F4)
		b := irqasync.NewBridge(1)
		e := irqasync.NewExecutor(m)

		reserve := func() irqasync.Future { return b.Reserve(6) }
		err := m.Boot(e, irqasync.Forever(reserve, nil), irqasync.Forever(reserve, nil))
		require.ErrorIs(t, err, irqasync.ErrSlotsExhausted)
	})
	t.Run("DriveFault", func(t *testing.T) {
		m := sim.NewMachine(t.Context(), exti.STM32F4)
		e := irqasync.NewExecutor(m)
		e.Start(func(w *irqasync.Waker) irqasync.Poll { return irqasync.Ready })

		err := m.Drive(t.Context(), e)
		require.ErrorIs(t, err, irqasync.ErrTaskCompleted)
	})
}

func TestPin(t *testing.T) {
	var changes []bool
	p := sim.NewPin("PA5", func(p *sim.Pin) { changes = append(changes, p.Get()) })

	p.High()
	p.High()
	p.Toggle()
	p.Set(true)

	assert.Equal(t, "PA5", p.Name())
	assert.Equal(t, []bool{true, false, true}, changes)
	assert.Equal(t, uint64(1), p.Toggles())
}
