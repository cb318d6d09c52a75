package core

import "errors"

// Target clock profile. Everything below is derived from CoreClockFrequency
// and TickFrequency, so retargeting the core clock is a one-line change.
const (
	CoreClockFrequency = 480_000_000 // sys_ck = pll1_p_ck
	TickFrequency      = 1_000       // SysTick interrupts per second

	HSIFrequency         = 64_000_000
	PLLMaxInputFrequency = 16_000_000

	PLL1DivM         = HSIFrequency / PLLMaxInputFrequency
	PLL1RefFrequency = HSIFrequency / PLL1DivM
	PLL1DivP         = 1
	PLL1DivN         = CoreClockFrequency * PLL1DivP / PLL1RefFrequency

	D1CoreDivider = 1
	AHBDivider    = 2
	AHBFrequency  = CoreClockFrequency / D1CoreDivider / AHBDivider

	TickReload = CoreClockFrequency / TickFrequency
)

// Compile-time check that the PLL lands exactly on CoreClockFrequency: both
// differences must be non-negative to fit in a uint.
const (
	_ = uint(PLL1RefFrequency*PLL1DivN/PLL1DivP - CoreClockFrequency)
	_ = uint(CoreClockFrequency - PLL1RefFrequency*PLL1DivN/PLL1DivP)
)

// PLL limits for the wide VCO range.
const (
	PLLMinInputFrequency = 1_000_000
	VCOWideMinFrequency  = 192_000_000
	VCOWideMaxFrequency  = 960_000_000
	PLLMinDivN           = 4
	PLLMaxDivN           = 512
	PLLMaxDivP           = 128
)

var (
	errPLLInputRange = errors.New("pll: reference / M outside 1-16 MHz")
	errPLLDivN       = errors.New("pll: N outside 4-512")
	errPLLDivP       = errors.New("pll: P outside 1-128")
	errPLLDivM       = errors.New("pll: M must be non-zero")
	errPLLVCORange   = errors.New("pll: VCO outside 192-960 MHz")
)

// PLLConfig describes one PLL: output = Ref / M * N / P.
type PLLConfig struct {
	Ref uint32 // reference clock in Hz
	M   uint32 // input divider
	N   uint32 // multiplier
	P   uint32 // output divider
}

// DefaultPLL1 is the PLL1 setup used by bring-up.
var DefaultPLL1 = PLLConfig{
	Ref: HSIFrequency,
	M:   PLL1DivM,
	N:   PLL1DivN,
	P:   PLL1DivP,
}

// Input returns the PLL input (reference after the M divider).
func (c PLLConfig) Input() uint32 {
	return c.Ref / c.M
}

// VCO returns the VCO frequency.
func (c PLLConfig) VCO() uint64 {
	return uint64(c.Input()) * uint64(c.N)
}

// Output returns the P output frequency.
func (c PLLConfig) Output() uint64 {
	return c.VCO() / uint64(c.P)
}

// Validate checks the configuration against the PLL's operating limits.
func (c PLLConfig) Validate() error {
	if c.M == 0 {
		return errPLLDivM
	}
	in := c.Input()
	if in < PLLMinInputFrequency || in > PLLMaxInputFrequency {
		return errPLLInputRange
	}
	if c.N < PLLMinDivN || c.N > PLLMaxDivN {
		return errPLLDivN
	}
	if c.P < 1 || c.P > PLLMaxDivP {
		return errPLLDivP
	}
	vco := c.VCO()
	if vco < VCOWideMinFrequency || vco > VCOWideMaxFrequency {
		return errPLLVCORange
	}
	return nil
}

// InputRange returns the PLLxRGE code for the PLL input frequency.
func (c PLLConfig) InputRange() uint32 {
	in := c.Input()
	switch {
	case in < 2_000_000:
		return 0
	case in < 4_000_000:
		return 1
	case in < 8_000_000:
		return 2
	default:
		return 3
	}
}

// FlashTiming is the pair of FLASH_ACR fields that must track the AXI clock.
type FlashTiming struct {
	Latency    uint32 // wait states
	WRHighFreq uint32 // programming delay
}

// flashTimingVOS0 is the RM0399 access-time table for voltage scale 0,
// ordered by upper AXI frequency bound.
var flashTimingVOS0 = [...]struct {
	maxHz  uint32
	timing FlashTiming
}{
	{70_000_000, FlashTiming{Latency: 0, WRHighFreq: 0}},
	{140_000_000, FlashTiming{Latency: 1, WRHighFreq: 1}},
	{185_000_000, FlashTiming{Latency: 2, WRHighFreq: 1}},
	{210_000_000, FlashTiming{Latency: 2, WRHighFreq: 2}},
	{225_000_000, FlashTiming{Latency: 3, WRHighFreq: 2}},
	{240_000_000, FlashTiming{Latency: 4, WRHighFreq: 2}},
}

// FlashTimingFor returns the flash timing for an AXI clock of axiHz at
// voltage scale 0. ok is false above the 240 MHz limit.
func FlashTimingFor(axiHz uint32) (t FlashTiming, ok bool) {
	for _, row := range flashTimingVOS0 {
		if axiHz <= row.maxHz {
			return row.timing, true
		}
	}
	return FlashTiming{}, false
}

// ahbPrescalerCode returns the HPRE encoding of a divider (1..512).
func ahbPrescalerCode(div uint32) uint32 {
	switch div {
	case 1:
		return 0x0
	case 2:
		return 0x8
	case 4:
		return 0x9
	case 8:
		return 0xA
	case 16:
		return 0xB
	case 64:
		return 0xC
	case 128:
		return 0xD
	case 256:
		return 0xE
	case 512:
		return 0xF
	}
	panic("core: unsupported AHB prescaler " + utoa(div))
}

// d1CorePrescalerCode returns the D1CPRE encoding of a divider; it shares
// the HPRE encoding.
func d1CorePrescalerCode(div uint32) uint32 {
	return ahbPrescalerCode(div)
}
