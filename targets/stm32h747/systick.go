//go:build stm32h7x7

package main

import "h7boot/core"

// tickWriter is claimed before SysTick is armed; the handler is its only user.
var tickWriter core.TickWriter

// claimTicks takes the write side of the process-wide tick counter.
func claimTicks() {
	w, err := core.Ticks.Writer()
	if err != nil {
		panic(err)
	}
	tickWriter = w
}

//export SysTick_Handler
func sysTickHandler() {
	tickWriter.Tick()
}
