//go:build tinygo

package core

import "runtime/interrupt"

// irqMask is the saved PRIMASK.
type irqMask = interrupt.State

// maskInterrupts sets PRIMASK so the SysTick handler cannot run while the
// timer is reprogrammed. Nested calls restore in reverse order.
func maskInterrupts() irqMask {
	return interrupt.Disable()
}

func unmaskInterrupts(m irqMask) {
	interrupt.Restore(m)
}
