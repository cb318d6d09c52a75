package core

// Stage is one step of the clock/power bring-up: Apply writes the new
// configuration, Ready (if any) is the status condition that must be
// observed before the next stage may start.
type Stage struct {
	Name  string
	Apply func(p *Peripherals)
	Ready func(p *Peripherals) bool
}

// Stage names, in execution order.
const (
	StageSMPSDirect    = "smps-direct"
	StageVOS1          = "vos1"
	StageOverdrive     = "overdrive"
	StagePLL1Source    = "pll1-source"
	StagePLL1Config    = "pll1-config"
	StagePLL1Lock      = "pll1-lock"
	StageBusPrescalers = "bus-prescalers"
	StageSysClkSwitch  = "sysclk-switch"
	StageFlashLatency  = "flash-latency"
	StageSysTick       = "systick"
)

// StageNames lists the bring-up stages in order.
var StageNames = [...]string{
	StageSMPSDirect,
	StageVOS1,
	StageOverdrive,
	StagePLL1Source,
	StagePLL1Config,
	StagePLL1Lock,
	StageBusPrescalers,
	StageSysClkSwitch,
	StageFlashLatency,
	StageSysTick,
}

// BringUpStages returns the stage list taking the chip from reset defaults
// (64 MHz HSI, VOS3) to sys_ck = PLL1 P output at VOS0 with the flash timed
// for the new AXI clock, and finally arms SysTick with tickReload core
// cycles per tick.
//
// Only the PLL, flash timing and tick reload vary. The D1 core and AHB
// prescalers are always D1CoreDivider and AHBDivider, so flash must be the
// timing for pll's output divided by AHBDivider. A pll outside the PLL's
// operating limits panics before any stage is built.
func BringUpStages(pll PLLConfig, flash FlashTiming, tickReload uint32) []Stage {
	if err := pll.Validate(); err != nil {
		panic("core: " + err.Error())
	}
	return []Stage{
		{
			Name: StageSMPSDirect,
			Apply: func(p *Peripherals) {
				Modify(p.PWR.CR3, func(w uint32) uint32 { return w & PWR_CR3_SMPSDirectKeep })
			},
		},
		{
			// VOS1 is required before overdrive can take the core to VOS0.
			Name: StageVOS1,
			Apply: func(p *Peripherals) {
				PWR_D3CR_VOS.Set(p.PWR.D3CR, VOS1)
			},
			Ready: voltageReady,
		},
		{
			// ODEN changes what VOSRDY reports; it drops until VOS0 is reached.
			Name: StageOverdrive,
			Apply: func(p *Peripherals) {
				RCC_APB4ENR_SYSCFGEN.Set(p.RCC.APB4ENR)
				SYSCFG_PWRCR_ODEN.Set(p.SYSCFG.PWRCR)
			},
			Ready: voltageReady,
		},
		{
			Name: StagePLL1Source,
			Apply: func(p *Peripherals) {
				Modify(p.RCC.PLLCKSELR, func(w uint32) uint32 {
					w = RCC_PLLCKSELR_PLLSRC.Insert(w, PLLSrcHSI)
					return RCC_PLLCKSELR_DIVM1.Insert(w, pll.M)
				})
			},
		},
		{
			// Only the P output feeds sys_ck; Q and R stay off.
			Name: StagePLL1Config,
			Apply: func(p *Peripherals) {
				Modify(p.RCC.PLLCFGR, func(w uint32) uint32 {
					w |= RCC_PLLCFGR_DIVP1EN.Mask()
					w &^= RCC_PLLCFGR_DIVQ1EN.Mask() | RCC_PLLCFGR_DIVR1EN.Mask()
					w &^= RCC_PLLCFGR_PLL1FRACEN.Mask()
					w &^= RCC_PLLCFGR_PLL1VCOSEL.Mask() // wide VCO
					return RCC_PLLCFGR_PLL1RGE.Insert(w, pll.InputRange())
				})
			},
		},
		{
			// DIVN1 and DIVP1 are programmed as value-1.
			Name: StagePLL1Lock,
			Apply: func(p *Peripherals) {
				Modify(p.RCC.PLL1DIVR, func(w uint32) uint32 {
					w = RCC_PLL1DIVR_DIVP1.Insert(w, pll.P-1)
					return RCC_PLL1DIVR_DIVN1.Insert(w, pll.N-1)
				})
				RCC_CR_PLL1ON.Set(p.RCC.CR)
			},
			Ready: func(p *Peripherals) bool {
				return RCC_CR_PLL1RDY.IsSet(p.RCC.CR)
			},
		},
		{
			Name: StageBusPrescalers,
			Apply: func(p *Peripherals) {
				Modify(p.RCC.D1CFGR, func(w uint32) uint32 {
					w = RCC_D1CFGR_D1CPRE.Insert(w, d1CorePrescalerCode(D1CoreDivider))
					return RCC_D1CFGR_HPRE.Insert(w, ahbPrescalerCode(AHBDivider))
				})
			},
		},
		{
			// A write to SW is only a request; SWS confirms the switch.
			Name: StageSysClkSwitch,
			Apply: func(p *Peripherals) {
				RCC_CFGR_SW.Set(p.RCC.CFGR, SysClkPLL1)
			},
			Ready: func(p *Peripherals) bool {
				return RCC_CFGR_SWS.Get(p.RCC.CFGR) == SysClkPLL1
			},
		},
		{
			Name: StageFlashLatency,
			Apply: func(p *Peripherals) {
				Modify(p.FLASH.ACR, func(w uint32) uint32 {
					w = FLASH_ACR_WRHIGHFREQ.Insert(w, flash.WRHighFreq)
					return FLASH_ACR_LATENCY.Insert(w, flash.Latency)
				})
			},
			Ready: func(p *Peripherals) bool {
				return flashTimingApplied(p.FLASH.ACR.Get(), flash)
			},
		},
		{
			Name: StageSysTick,
			Apply: func(p *Peripherals) {
				ArmSysTick(p.SysTick, tickReload)
			},
		},
	}
}

// DefaultStages returns the bring-up for the build-time clock profile.
func DefaultStages() []Stage {
	flash, ok := FlashTimingFor(AHBFrequency)
	if !ok {
		panic("core: no flash timing for AHB frequency " + utoa(AHBFrequency))
	}
	return BringUpStages(DefaultPLL1, flash, TickReload)
}

func voltageReady(p *Peripherals) bool {
	return PWR_D3CR_VOSRDY.IsSet(p.PWR.D3CR)
}

// flashTimingApplied reports whether both timing fields of acr read back as
// written. Both must match; one field alone is not enough.
func flashTimingApplied(acr uint32, want FlashTiming) bool {
	mask := FLASH_ACR_LATENCY.Mask() | FLASH_ACR_WRHIGHFREQ.Mask()
	expect := FLASH_ACR_LATENCY.Insert(0, want.Latency)
	expect = FLASH_ACR_WRHIGHFREQ.Insert(expect, want.WRHighFreq)
	return acr&mask == expect
}

// Sequencer runs the bring-up stages, once.
type Sequencer struct {
	p      *Peripherals
	stages []Stage
	wait   Waiter

	// OnStage, if set, is called before a stage applies its configuration.
	OnStage func(index int, name string)
	// OnCommit, if set, is called once a stage's readiness was observed.
	OnCommit func(index int, name string)

	done bool
}

// NewSequencer returns a sequencer for the given stages. A nil wait selects
// SpinUntil.
func NewSequencer(p *Peripherals, stages []Stage, wait Waiter) *Sequencer {
	if wait == nil {
		wait = SpinUntil
	}
	return &Sequencer{p: p, stages: stages, wait: wait}
}

// Run applies every stage in order, waiting on each stage's readiness before
// moving on. Stage indices passed to the hooks start at 1.
// Run panics if called twice: the sequence is not restartable.
func (s *Sequencer) Run() {
	if s.done {
		panic("core: bring-up already ran")
	}
	s.done = true

	for i, st := range s.stages {
		idx := i + 1
		if s.OnStage != nil {
			s.OnStage(idx, st.Name)
		}
		st.Apply(s.p)
		if st.Ready != nil {
			ready := st.Ready
			s.wait(st.Name, func() bool { return ready(s.p) })
		}
		RecordStage(uint8(idx), st.Name)
		if s.OnCommit != nil {
			s.OnCommit(idx, st.Name)
		}
	}
}

// BringUp runs the default bring-up on p with the fail-stop waiter.
func BringUp(p *Peripherals) {
	NewSequencer(p, DefaultStages(), SpinUntil).Run()
}
