//go:build stm32h7x7

// Command stm32h747 is the Cortex-M7 firmware for the STM32H747: it brings
// the clock tree up to 480 MHz, starts the 1 kHz tick and blinks LED2.
//
// Build with a TinyGo target that sets the stm32h7x7 build tag and leaves
// clock setup and SysTick to the program.
package main

import (
	"h7boot/core"
	"h7boot/protocol"
)

func main() {
	p, err := core.ClaimPeripherals(boardPeripherals())
	if err != nil {
		panic(err)
	}

	// Claim the writer first: the last bring-up stage arms SysTick.
	claimTicks()
	core.BringUp(p)

	core.SetDebugWriter(func(s string) { println(s) })
	core.DumpBootTrace()
	core.DumpClockRegisters(p)

	core.SetGPIODriver(core.NewGPIOEDriver(p))
	led := &core.Blinker{
		Pin:      core.LEDPin,
		Clock:    &core.Ticks,
		Interval: core.BlinkInterval,
		OnLevel: func(high bool, tick uint32) {
			core.Report(protocol.LED(high, tick))
		},
	}
	if err := led.Start(); err != nil {
		panic(err)
	}
	if err := led.Run(); err != nil {
		panic(err)
	}
}
