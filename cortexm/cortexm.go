//go:build tinygo && cortexm

package cortexm

import (
	"device/arm"
	"runtime/volatile"
	"unsafe"

	"github.com/b97tsk/irqasync"
)

var (
	scbICSR  = (*volatile.Register32)(unsafe.Pointer(uintptr(0xE000ED04)))
	nvicICPR = (*[16]volatile.Register32)(unsafe.Pointer(uintptr(0xE000E280)))
	extiPR   = (*volatile.Register32)(unsafe.Pointer(uintptr(0x40013C14)))
)

const icsrVectActive = 0x1FF

// Platform parks the core with WFE and resynchronises it with ISB.
type Platform struct{}

var _ irqasync.Platform = Platform{}

// WaitForEvent executes WFE.
func (Platform) WaitForEvent() {
	arm.Asm("wfe")
}

// InstructionBarrier executes ISB.
func (Platform) InstructionBarrier() {
	arm.Asm("isb")
}

// STM32F4 reaches the SCB, the NVIC and the EXTI controller of an STM32F4.
type STM32F4 struct{}

var _ irqasync.Peripherals = STM32F4{}

// ActiveIRQ returns the interrupt number of the exception being serviced.
// Exception numbers below 16 are system exceptions and come out negative.
func (STM32F4) ActiveIRQ() irqasync.IRQ {
	return irqasync.IRQ(int16(scbICSR.Get()&icsrVectActive) - 16)
}

// Acknowledge clears the NVIC pending bit of n.
func (STM32F4) Acknowledge(n irqasync.IRQ) {
	if n < 0 {
		return
	}
	nvicICPR[n>>5].Set(1 << (uint32(n) & 0x1F))
}

// PendingLines returns the EXTI lines in mask whose pending bit is set.
func (STM32F4) PendingLines(mask irqasync.LineMask) irqasync.LineMask {
	return irqasync.LineMask(extiPR.Get()) & mask
}

// ClearPendingLines clears the EXTI pending bits in mask. The register is
// write-one-to-clear.
func (STM32F4) ClearPendingLines(mask irqasync.LineMask) {
	extiPR.Set(uint32(mask))
}
