// Package exti holds the routing of STM32F4 external interrupt (EXTI) lines
// to NVIC interrupt numbers.
//
// Lines 5 to 9 share one interrupt, as do lines 10 to 15; everything else has
// an interrupt of its own.
package exti

import "github.com/b97tsk/irqasync"

// EXTI lines of the STM32F4.
const (
	Line0 irqasync.Line = iota
	Line1
	Line2
	Line3
	Line4
	Line5
	Line6
	Line7
	Line8
	Line9
	Line10
	Line11
	Line12
	Line13
	Line14
	Line15
	Line16 // PVD
	Line17 // RTC alarm
	Line18 // USB OTG FS wakeup
	Line19 // Ethernet wakeup
	Line20 // USB OTG HS wakeup
	Line21 // RTC tamper and timestamp
	Line22 // RTC wakeup

	NumLines = 23
)

// A Table maps lines to interrupt numbers. Index i holds the interrupt of
// line i.
//
// Table implements [irqasync.LineMap].
type Table []irqasync.IRQ

var _ irqasync.LineMap = Table(nil)

// STM32F4 is the EXTI routing of the STM32F4 family.
var STM32F4 = Table{
	Line0:  6,
	Line1:  7,
	Line2:  8,
	Line3:  9,
	Line4:  10,
	Line5:  23,
	Line6:  23,
	Line7:  23,
	Line8:  23,
	Line9:  23,
	Line10: 40,
	Line11: 40,
	Line12: 40,
	Line13: 40,
	Line14: 40,
	Line15: 40,
	Line16: 1,
	Line17: 41,
	Line18: 42,
	Line19: 62,
	Line20: 76,
	Line21: 2,
	Line22: 3,
}

// IRQ returns the interrupt number line l is routed to.
func (t Table) IRQ(l irqasync.Line) (irqasync.IRQ, bool) {
	if int(l) >= len(t) {
		return irqasync.NoIRQ, false
	}
	return t[l], true
}

// Lines returns every line routed to n.
//
// Lines scans the whole table; it does not allocate and is safe to call
// from interrupt context.
func (t Table) Lines(n irqasync.IRQ) irqasync.LineMask {
	var m irqasync.LineMask
	for i, v := range t {
		if v == n {
			m |= irqasync.Line(i).Mask()
		}
	}
	return m
}
