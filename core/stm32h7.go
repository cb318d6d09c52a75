package core

// Register blocks used during bring-up. Offsets and bit positions follow the
// STM32H745/747 reference manual (RM0399); only the registers this firmware
// touches are listed.

// PWR is the power controller.
type PWR struct {
	CR3  Register // 0x0C
	D3CR Register // 0x18
}

// RCC is the reset and clock controller.
type RCC struct {
	CR        Register // 0x00
	CFGR      Register // 0x10
	D1CFGR    Register // 0x18
	PLLCKSELR Register // 0x28
	PLLCFGR   Register // 0x2C
	PLL1DIVR  Register // 0x30
	AHB4ENR   Register // 0xE0
	APB4ENR   Register // 0xF4
}

// SYSCFG is the system configuration controller.
type SYSCFG struct {
	PWRCR Register // 0x2C
}

// FLASH is the embedded flash interface.
type FLASH struct {
	ACR Register // 0x00
}

// SysTick is the Cortex-M system timer.
type SysTick struct {
	CSR Register // 0x00
	RVR Register // 0x04
	CVR Register // 0x08
}

// GPIO is one GPIO port.
type GPIO struct {
	MODER Register // 0x00
	ODR   Register // 0x14
}

// Peripherals is the fixed set of register blocks claimed at startup.
type Peripherals struct {
	PWR     PWR
	RCC     RCC
	SYSCFG  SYSCFG
	FLASH   FLASH
	SysTick SysTick
	GPIOE   GPIO
}

// Base addresses (D3/D1 domain mapping of the Cortex-M7).
const (
	PWRBase     = 0x58024800
	RCCBase     = 0x58024400
	SYSCFGBase  = 0x58000400
	FLASHBase   = 0x52002000
	SysTickBase = 0xE000E010
	GPIOEBase   = 0x58021000
)

// PWR_CR3: keep SDEN and the reserved/upper bits, clear BYPASS, LDOEN,
// SDEXTHP and SDLEVEL. This selects SMPS direct supply.
const PWR_CR3_SMPSDirectKeep = 0xffff_ffc4

var (
	PWR_D3CR_VOSRDY = Bit(13)
	PWR_D3CR_VOS    = Field{Pos: 14, Width: 2}
)

// Voltage scale codes for PWR_D3CR.VOS.
const (
	VOS3 = 0x1
	VOS2 = 0x2
	VOS1 = 0x3
)

var (
	RCC_CR_PLL1ON  = Bit(24)
	RCC_CR_PLL1RDY = Bit(25)

	RCC_CFGR_SW  = Field{Pos: 0, Width: 3}
	RCC_CFGR_SWS = Field{Pos: 3, Width: 3}

	RCC_D1CFGR_HPRE   = Field{Pos: 0, Width: 4}
	RCC_D1CFGR_D1CPRE = Field{Pos: 8, Width: 4}

	RCC_PLLCKSELR_PLLSRC = Field{Pos: 0, Width: 2}
	RCC_PLLCKSELR_DIVM1  = Field{Pos: 4, Width: 6}

	RCC_PLLCFGR_PLL1FRACEN = Bit(0)
	RCC_PLLCFGR_PLL1VCOSEL = Bit(1)
	RCC_PLLCFGR_PLL1RGE    = Field{Pos: 2, Width: 2}
	RCC_PLLCFGR_DIVP1EN    = Bit(16)
	RCC_PLLCFGR_DIVQ1EN    = Bit(17)
	RCC_PLLCFGR_DIVR1EN    = Bit(18)

	RCC_PLL1DIVR_DIVN1 = Field{Pos: 0, Width: 9}
	RCC_PLL1DIVR_DIVP1 = Field{Pos: 9, Width: 7}

	RCC_AHB4ENR_GPIOEEN  = Bit(4)
	RCC_APB4ENR_SYSCFGEN = Bit(1)
)

// System clock switch codes for RCC_CFGR.SW/SWS.
const (
	SysClkHSI  = 0x0
	SysClkCSI  = 0x1
	SysClkHSE  = 0x2
	SysClkPLL1 = 0x3
)

// PLL source codes for RCC_PLLCKSELR.PLLSRC.
const (
	PLLSrcHSI  = 0x0
	PLLSrcCSI  = 0x1
	PLLSrcHSE  = 0x2
	PLLSrcNone = 0x3
)

var (
	SYSCFG_PWRCR_ODEN = Bit(0)

	FLASH_ACR_LATENCY    = Field{Pos: 0, Width: 4}
	FLASH_ACR_WRHIGHFREQ = Field{Pos: 4, Width: 2}

	SYST_CSR_ENABLE    = Bit(0)
	SYST_CSR_TICKINT   = Bit(1)
	SYST_CSR_CLKSOURCE = Bit(2)
	SYST_RVR_RELOAD    = Field{Pos: 0, Width: 24}
)

// GPIO mode codes for one MODER field.
const (
	GPIOModeInput  = 0x0
	GPIOModeOutput = 0x1
	GPIOModeAlt    = 0x2
	GPIOModeAnalog = 0x3
)

// moderField returns the 2-bit MODER field of pin.
func moderField(pin GPIOPin) Field {
	return Field{Pos: uint8(pin * 2), Width: 2}
}
