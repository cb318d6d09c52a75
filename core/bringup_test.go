package core_test

import (
	"testing"

	"h7boot/core"
	"h7boot/core/regsim"
)

// stageRegs names, per stage, the register written to apply it and the
// register polled for readiness ("" when the stage does not poll).
var stageRegs = []struct {
	name   string
	write  string
	status string
}{
	{core.StageSMPSDirect, "PWR_CR3", ""},
	{core.StageVOS1, "PWR_D3CR", "PWR_D3CR"},
	{core.StageOverdrive, "SYSCFG_PWRCR", "PWR_D3CR"},
	{core.StagePLL1Source, "RCC_PLLCKSELR", ""},
	{core.StagePLL1Config, "RCC_PLLCFGR", ""},
	{core.StagePLL1Lock, "RCC_CR", "RCC_CR"},
	{core.StageBusPrescalers, "RCC_D1CFGR", ""},
	{core.StageSysClkSwitch, "RCC_CFGR", "RCC_CFGR"},
	{core.StageFlashLatency, "FLASH_ACR", "FLASH_ACR"},
	{core.StageSysTick, "SYST_CSR", ""},
}

func failOnStuck(t *testing.T) core.Waiter {
	return core.BoundedSpin(1000, func(stage string) {
		t.Fatalf("stage %s never became ready", stage)
	})
}

func runBringUp(t *testing.T, chip *regsim.Chip) *core.Sequencer {
	t.Helper()
	core.ClearBootTrace()
	t.Cleanup(core.ClearBootTrace)

	seq := core.NewSequencer(&chip.Peripherals, core.DefaultStages(), failOnStuck(t))
	seq.OnStage = func(index int, name string) {
		chip.Mark("stage " + name)
	}
	seq.OnCommit = func(index int, name string) {
		chip.Mark("commit " + name)
	}
	seq.Run()
	return seq
}

func TestBringUpFinalState(t *testing.T) {
	chip := regsim.New()
	runBringUp(t, chip)
	p := &chip.Peripherals

	if got := core.PWR_D3CR_VOS.Get(p.PWR.D3CR); got != core.VOS1 {
		t.Errorf("Expected VOS1 code, got %d", got)
	}
	if !core.PWR_D3CR_VOSRDY.IsSet(p.PWR.D3CR) {
		t.Error("Expected VOSRDY")
	}
	if !core.SYSCFG_PWRCR_ODEN.IsSet(p.SYSCFG.PWRCR) {
		t.Error("Expected overdrive enabled")
	}
	if got := p.PWR.CR3.Get(); got != 0x00000044 {
		t.Errorf("Expected PWR_CR3 0x44 (SMPS direct), got 0x%08x", got)
	}

	if got := core.RCC_PLLCKSELR_PLLSRC.Get(p.RCC.PLLCKSELR); got != core.PLLSrcHSI {
		t.Errorf("Expected PLL source HSI, got %d", got)
	}
	if got := core.RCC_PLLCKSELR_DIVM1.Get(p.RCC.PLLCKSELR); got != core.PLL1DivM {
		t.Errorf("Expected DIVM1 %d, got %d", core.PLL1DivM, got)
	}

	cfg := p.RCC.PLLCFGR.Get()
	if cfg&core.RCC_PLLCFGR_DIVP1EN.Mask() == 0 {
		t.Error("Expected DIVP1EN")
	}
	if cfg&(core.RCC_PLLCFGR_DIVQ1EN.Mask()|core.RCC_PLLCFGR_DIVR1EN.Mask()) != 0 {
		t.Error("Expected DIVQ1EN and DIVR1EN cleared")
	}
	if cfg&(core.RCC_PLLCFGR_PLL1FRACEN.Mask()|core.RCC_PLLCFGR_PLL1VCOSEL.Mask()) != 0 {
		t.Error("Expected integer mode and wide VCO")
	}
	if got := core.RCC_PLLCFGR_PLL1RGE.Extract(cfg); got != 3 {
		t.Errorf("Expected PLL1RGE 3, got %d", got)
	}

	if got := core.RCC_PLL1DIVR_DIVN1.Get(p.RCC.PLL1DIVR) + 1; got != core.PLL1DivN {
		t.Errorf("Expected N %d, got %d", core.PLL1DivN, got)
	}
	if got := core.RCC_PLL1DIVR_DIVP1.Get(p.RCC.PLL1DIVR) + 1; got != core.PLL1DivP {
		t.Errorf("Expected P %d, got %d", core.PLL1DivP, got)
	}
	if !core.RCC_CR_PLL1RDY.IsSet(p.RCC.CR) {
		t.Error("Expected PLL1 locked")
	}

	if got := core.RCC_D1CFGR_HPRE.Get(p.RCC.D1CFGR); got != 0x8 {
		t.Errorf("Expected HPRE div2 (0x8), got 0x%x", got)
	}
	if got := core.RCC_D1CFGR_D1CPRE.Get(p.RCC.D1CFGR); got != 0 {
		t.Errorf("Expected D1CPRE div1, got 0x%x", got)
	}
	if got := core.RCC_CFGR_SWS.Get(p.RCC.CFGR); got != core.SysClkPLL1 {
		t.Errorf("Expected SWS PLL1, got %d", got)
	}

	if got := core.FLASH_ACR_LATENCY.Get(p.FLASH.ACR); got != 4 {
		t.Errorf("Expected flash latency 4, got %d", got)
	}
	if got := core.FLASH_ACR_WRHIGHFREQ.Get(p.FLASH.ACR); got != 2 {
		t.Errorf("Expected WRHIGHFREQ 2, got %d", got)
	}

	if !chip.SysTickArmed() {
		t.Error("Expected SysTick armed")
	}
	if got := chip.SysTickPeriod(); got != core.TickReload {
		t.Errorf("Expected SysTick period %d cycles, got %d", core.TickReload, got)
	}
}

// Each stage's configuration write must come before the poll of its
// readiness condition, and the stage must not commit before the condition
// was observed true.
func TestBringUpWriteBeforePoll(t *testing.T) {
	chip := regsim.New()
	runBringUp(t, chip)
	trace := chip.Trace()

	pos := 0
	for _, sr := range stageRegs {
		start := findMark(trace, pos, "stage "+sr.name)
		if start < 0 {
			t.Fatalf("no start mark for stage %s", sr.name)
		}
		commit := findMark(trace, start, "commit "+sr.name)
		if commit < 0 {
			t.Fatalf("no commit mark for stage %s", sr.name)
		}

		write := -1
		for i := start; i < commit; i++ {
			if trace[i].Op == regsim.Write && trace[i].Reg == sr.write {
				write = i
			}
		}
		if write < 0 {
			t.Errorf("stage %s: no write to %s", sr.name, sr.write)
			continue
		}

		if sr.status != "" {
			lastRead := -1
			for i := start; i < commit; i++ {
				if trace[i].Op == regsim.Read && trace[i].Reg == sr.status {
					lastRead = i
				}
			}
			if lastRead < write {
				t.Errorf("stage %s: readiness of %s not polled after the write (write %d, last read %d)",
					sr.name, sr.status, write, lastRead)
			}
		}
		pos = commit
	}
}

func TestBringUpPollsSpin(t *testing.T) {
	chip := regsim.New()
	chip.Latency = 5
	runBringUp(t, chip)
	trace := chip.Trace()

	// With a latency of 5 reads the PLL lock poll must have seen PLL1RDY
	// clear at least once before it saw it set.
	start := findMark(trace, 0, "stage "+core.StagePLL1Lock)
	commit := findMark(trace, start, "commit "+core.StagePLL1Lock)
	notReady := 0
	for i := start; i < commit; i++ {
		e := trace[i]
		if e.Op == regsim.Read && e.Reg == "RCC_CR" && e.Value&core.RCC_CR_PLL1RDY.Mask() == 0 {
			notReady++
		}
	}
	if notReady == 0 {
		t.Error("PLL lock poll never observed the not-ready state")
	}
}

// The flash controller applies LATENCY before WRHIGHFREQ. The stage must
// wait for both fields, not return once either one matches.
func TestBringUpFlashWaitsForBothFields(t *testing.T) {
	chip := regsim.New()
	runBringUp(t, chip)
	trace := chip.Trace()

	start := findMark(trace, 0, "stage "+core.StageFlashLatency)
	commit := findMark(trace, start, "commit "+core.StageFlashLatency)

	var last uint32
	partial := false
	for i := start; i < commit; i++ {
		e := trace[i]
		if e.Op != regsim.Read || e.Reg != "FLASH_ACR" {
			continue
		}
		last = e.Value
		if core.FLASH_ACR_LATENCY.Extract(e.Value) == 4 && core.FLASH_ACR_WRHIGHFREQ.Extract(e.Value) != 2 {
			partial = true
		}
	}
	if !partial {
		t.Error("expected the poll to observe the half-applied timing")
	}
	if core.FLASH_ACR_LATENCY.Extract(last) != 4 || core.FLASH_ACR_WRHIGHFREQ.Extract(last) != 2 {
		t.Errorf("stage committed on ACR 0x%08x", last)
	}
}

func TestBringUpRecordsStages(t *testing.T) {
	chip := regsim.New()
	var committed []string
	core.ClearBootTrace()
	t.Cleanup(core.ClearBootTrace)

	seq := core.NewSequencer(&chip.Peripherals, core.DefaultStages(), failOnStuck(t))
	seq.OnCommit = func(index int, name string) {
		if index != len(committed)+1 {
			t.Errorf("stage %s committed with index %d", name, index)
		}
		committed = append(committed, name)
	}
	seq.Run()

	if len(committed) != len(core.StageNames) {
		t.Fatalf("Expected %d stages, got %d", len(core.StageNames), len(committed))
	}
	trace := core.BootTrace()
	for i, name := range core.StageNames {
		if committed[i] != name {
			t.Errorf("stage %d = %s, want %s", i+1, committed[i], name)
		}
		if trace[i].Name != name || trace[i].Index != uint8(i+1) {
			t.Errorf("boot trace %d = %+v", i, trace[i])
		}
	}
}

func TestBringUpStuckStatusStops(t *testing.T) {
	testCases := []struct {
		status string
		stage  string
	}{
		{regsim.StatusVOSRDY, core.StageVOS1},
		{regsim.StatusPLL1RDY, core.StagePLL1Lock},
		{regsim.StatusSWS, core.StageSysClkSwitch},
		{regsim.StatusACR, core.StageFlashLatency},
	}

	for _, tc := range testCases {
		core.ClearBootTrace()
		chip := regsim.New()
		chip.Stick(tc.status)

		var stuckAt string
		var committed []string
		seq := core.NewSequencer(&chip.Peripherals, core.DefaultStages(), core.BoundedSpin(100, func(stage string) {
			stuckAt = stage
			panic(stage)
		}))
		seq.OnCommit = func(index int, name string) { committed = append(committed, name) }

		func() {
			defer func() { recover() }()
			seq.Run()
		}()

		if stuckAt != tc.stage {
			t.Errorf("%s stuck: expected to stop at %s, stopped at %q", tc.status, tc.stage, stuckAt)
		}
		for _, name := range committed {
			if name == tc.stage {
				t.Errorf("%s stuck: stage %s committed anyway", tc.status, tc.stage)
			}
		}
		if chip.SysTickArmed() {
			t.Errorf("%s stuck: SysTick armed although bring-up did not finish", tc.status)
		}

		trace := core.BootTrace()
		if len(trace) != len(committed) {
			t.Errorf("%s stuck: Expected %d stages in boot trace, got %d", tc.status, len(committed), len(trace))
			continue
		}
		for i, evt := range trace {
			if evt.Name != core.StageNames[i] || evt.Index != uint8(i+1) {
				t.Errorf("%s stuck: boot trace %d = %+v, want %d %s", tc.status, i, evt, i+1, core.StageNames[i])
			}
		}
		if n := len(trace); n < len(core.StageNames) && core.StageNames[n] != tc.stage {
			t.Errorf("%s stuck: boot trace ends before %s, want before %s", tc.status, core.StageNames[n], tc.stage)
		}
	}
	core.ClearBootTrace()
}

func TestBringUpRejectsInvalidPLL(t *testing.T) {
	flash, _ := core.FlashTimingFor(core.AHBFrequency)
	testCases := []struct {
		name string
		pll  core.PLLConfig
	}{
		{"VCO too high", core.PLLConfig{Ref: core.HSIFrequency, M: 4, N: 100, P: 1}},
		{"input too high", core.PLLConfig{Ref: core.HSIFrequency, M: 2, N: 30, P: 1}},
		{"zero M", core.PLLConfig{Ref: core.HSIFrequency, M: 0, N: 30, P: 1}},
		{"zero P", core.PLLConfig{Ref: core.HSIFrequency, M: 4, N: 30, P: 0}},
	}

	for _, tc := range testCases {
		chip := regsim.New()
		panicked := func() (panicked bool) {
			defer func() {
				if r := recover(); r != nil {
					msg, ok := r.(string)
					if !ok || len(msg) < 5 || msg[:5] != "core:" {
						t.Errorf("%s: unexpected panic value %v", tc.name, r)
					}
					panicked = true
				}
			}()
			stages := core.BringUpStages(tc.pll, flash, core.TickReload)
			core.NewSequencer(&chip.Peripherals, stages, failOnStuck(t)).Run()
			return false
		}()

		if !panicked {
			t.Errorf("%s: Expected panic for %+v", tc.name, tc.pll)
		}
		for _, e := range chip.Trace() {
			if e.Op == regsim.Write {
				t.Errorf("%s: register %s written before the PLL was rejected", tc.name, e.Reg)
				break
			}
		}
	}
}

func TestSequencerRunsOnce(t *testing.T) {
	chip := regsim.New()
	seq := runBringUp(t, chip)

	defer func() {
		if recover() == nil {
			t.Error("Expected panic on second Run")
		}
	}()
	seq.Run()
}

func TestBringUpThenTicks(t *testing.T) {
	chip := regsim.New()
	runBringUp(t, chip)

	ticks := core.NewTickCounter(0)
	w, err := ticks.Writer()
	if err != nil {
		t.Fatalf("Writer() failed: %v", err)
	}

	// One second of core clock cycles.
	if n := chip.RunCycles(core.CoreClockFrequency, w); n != core.TickFrequency {
		t.Errorf("Expected %d SysTick interrupts per second, got %d", core.TickFrequency, n)
	}
	if got := ticks.Now(); got != core.TickFrequency {
		t.Errorf("Expected counter %d, got %d", core.TickFrequency, got)
	}
}

func TestNoTicksBeforeArming(t *testing.T) {
	chip := regsim.New()
	ticks := core.NewTickCounter(0)
	w, _ := ticks.Writer()
	if n := chip.RunCycles(core.CoreClockFrequency, w); n != 0 {
		t.Errorf("SysTick fired %d times before bring-up", n)
	}
}

func findMark(trace []regsim.Event, from int, label string) int {
	for i := from; i < len(trace); i++ {
		if trace[i].Op == regsim.Mark && trace[i].Label == label {
			return i
		}
	}
	return -1
}
