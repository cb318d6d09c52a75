package core

import "h7boot/protocol"

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// StageEvent records one committed bring-up stage.
type StageEvent struct {
	Index uint8
	Name  string
}

const (
	BootTraceSize = 16 // enough for every bring-up stage
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = true

	// Boot trace ring (non-blocking, dumped once bring-up is over)
	bootTrace     [BootTraceSize]StageEvent
	bootTraceHead uint8
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, semihosting, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// Report writes r to the debug console as a framed report line.
func Report(r protocol.Record) {
	DebugPrintln(protocol.Format(r))
}

// RecordStage captures a committed stage in the boot trace.
// Stages commit before the debug console may be usable (the UART clock is
// still changing), so they are only buffered here and printed afterwards.
func RecordStage(index uint8, name string) {
	idx := bootTraceHead
	bootTrace[idx] = StageEvent{Index: index, Name: name}
	bootTraceHead = (idx + 1) % BootTraceSize
}

// BootTrace returns the recorded stages, oldest first.
func BootTrace() []StageEvent {
	events := make([]StageEvent, 0, BootTraceSize)
	start := bootTraceHead
	for i := uint8(0); i < BootTraceSize; i++ {
		evt := bootTrace[(start+i)%BootTraceSize]
		if evt.Index == 0 {
			continue // Empty slot
		}
		events = append(events, evt)
	}
	return events
}

// ReportStages reports every recorded stage.
func ReportStages() {
	for _, evt := range BootTrace() {
		Report(protocol.Boot(uint32(evt.Index), evt.Name))
	}
}

// DumpBootTrace reports every recorded stage followed by the resulting clock
// tree. Call it only once bring-up completed.
func DumpBootTrace() {
	ReportStages()
	Report(protocol.Clock(CoreClockFrequency, AHBFrequency, TickFrequency))
}

// ClearBootTrace clears the boot trace
func ClearBootTrace() {
	for i := range bootTrace {
		bootTrace[i] = StageEvent{}
	}
	bootTraceHead = 0
}

// DumpClockRegisters prints the raw clock/power registers, one per line.
// These lines are not framed; the monitor passes them through as console
// text.
func DumpClockRegisters(p *Peripherals) {
	regs := [...]struct {
		name string
		reg  Register
	}{
		{"PWR_D3CR", p.PWR.D3CR},
		{"RCC_CR", p.RCC.CR},
		{"RCC_CFGR", p.RCC.CFGR},
		{"RCC_D1CFGR", p.RCC.D1CFGR},
		{"RCC_PLLCKSELR", p.RCC.PLLCKSELR},
		{"RCC_PLLCFGR", p.RCC.PLLCFGR},
		{"RCC_PLL1DIVR", p.RCC.PLL1DIVR},
		{"FLASH_ACR", p.FLASH.ACR},
		{"SYST_RVR", p.SysTick.RVR},
	}
	for _, r := range regs {
		DebugPrintln(r.name + "=" + hex32(r.reg.Get()))
	}
}
