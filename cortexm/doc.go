// Package cortexm implements [irqasync.Platform] and [irqasync.Peripherals]
// for Cortex-M microcontrollers of the STM32F4 family.
//
// The implementation is only built by TinyGo for Cortex-M targets; on other
// targets this package is empty.
//
// A program wires it up once at start-up:
//
//	var bridge = irqasync.NewBridge(0,
//		irqasync.WithPeripherals(cortexm.STM32F4{}),
//		irqasync.WithLineMap(exti.STM32F4),
//	)
//
//	//export __default_irq_handler
//	func defaultIRQHandler() { bridge.HandleInterrupt() }
//
//	func main() {
//		irqasync.NewExecutor(cortexm.Platform{}).Run(tasks...)
//	}
package cortexm
