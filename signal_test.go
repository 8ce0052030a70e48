package irqasync_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/b97tsk/irqasync"
)

func TestWakeSignal(t *testing.T) {
	t.Run("Init", func(t *testing.T) {
		var s irqasync.WakeSignal
		assert.Zero(t, s.Pending())
		s.Init()
		assert.Equal(t, irqasync.Mask(^uint32(0)), s.Drain())
		assert.Zero(t, s.Drain())
	})
	t.Run("Mark", func(t *testing.T) {
		var s irqasync.WakeSignal
		s.Mark(3)
		s.Mark(3)
		s.Mark(31)
		s.Mark(-1)
		s.Mark(irqasync.MaxTasks)

		m := s.Pending()
		assert.Equal(t, 2, m.Len())
		assert.True(t, m.Has(3))
		assert.True(t, m.Has(31))
		assert.False(t, m.Has(0))
		assert.False(t, m.Has(-1))
		assert.False(t, m.Has(32))

		assert.Equal(t, m, s.Drain())
		assert.Zero(t, s.Pending())
	})
	t.Run("Concurrent", func(t *testing.T) {
		var s irqasync.WakeSignal
		var wg sync.WaitGroup

		var seen irqasync.Mask
		done := make(chan struct{})
		go func() {
			defer close(done)
			for seen != irqasync.Mask(^uint32(0)) {
				seen |= s.Drain()
			}
		}()

		for i := range irqasync.MaxTasks {
			wg.Go(func() {
				for range 100 {
					s.Mark(i)
				}
			})
		}
		wg.Wait()

		<-done
		assert.Equal(t, irqasync.Mask(^uint32(0)), seen)
	})
}
