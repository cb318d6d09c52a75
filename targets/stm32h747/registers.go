//go:build stm32h7x7

package main

import (
	"h7boot/core"
	"runtime/volatile"
	"unsafe"
)

func reg(base, offset uintptr) *volatile.Register32 {
	return (*volatile.Register32)(unsafe.Pointer(base + offset))
}

// boardPeripherals binds the register blocks bring-up needs to their
// Cortex-M7 addresses.
func boardPeripherals() *core.Peripherals {
	return &core.Peripherals{
		PWR: core.PWR{
			CR3:  reg(core.PWRBase, 0x0C),
			D3CR: reg(core.PWRBase, 0x18),
		},
		RCC: core.RCC{
			CR:        reg(core.RCCBase, 0x00),
			CFGR:      reg(core.RCCBase, 0x10),
			D1CFGR:    reg(core.RCCBase, 0x18),
			PLLCKSELR: reg(core.RCCBase, 0x28),
			PLLCFGR:   reg(core.RCCBase, 0x2C),
			PLL1DIVR:  reg(core.RCCBase, 0x30),
			AHB4ENR:   reg(core.RCCBase, 0xE0),
			APB4ENR:   reg(core.RCCBase, 0xF4),
		},
		SYSCFG: core.SYSCFG{
			PWRCR: reg(core.SYSCFGBase, 0x2C),
		},
		FLASH: core.FLASH{
			ACR: reg(core.FLASHBase, 0x00),
		},
		SysTick: core.SysTick{
			CSR: reg(core.SysTickBase, 0x00),
			RVR: reg(core.SysTickBase, 0x04),
			CVR: reg(core.SysTickBase, 0x08),
		},
		GPIOE: core.GPIO{
			MODER: reg(core.GPIOEBase, 0x00),
			ODR:   reg(core.GPIOEBase, 0x14),
		},
	}
}
