package core

import (
	"errors"
	"sync/atomic"
)

// ErrTickWriterClaimed is returned when the tick counter's writer was
// already handed out.
var ErrTickWriterClaimed = errors.New("tick writer already claimed")

// TickSource is anything that can report the current tick count.
type TickSource interface {
	Now() uint32
}

// TickCounter counts timer interrupts since boot. It has a single writer,
// the timer interrupt, obtained once through Writer; any number of readers
// may call Now. The counter wraps at 2^32.
type TickCounter struct {
	ticks   uint32
	claimed uint32
}

// Ticks is the process-wide tick counter driven by SysTick.
var Ticks TickCounter

// NewTickCounter returns a counter starting at initial.
func NewTickCounter(initial uint32) *TickCounter {
	return &TickCounter{ticks: initial}
}

// Now returns the current tick count. It has no side effects.
func (c *TickCounter) Now() uint32 {
	return loadTicks(&c.ticks)
}

// Writer returns the counter's only write capability.
func (c *TickCounter) Writer() (TickWriter, error) {
	if !atomic.CompareAndSwapUint32(&c.claimed, 0, 1) {
		return TickWriter{}, ErrTickWriterClaimed
	}
	return TickWriter{c: c}, nil
}

// TickWriter advances a TickCounter. It is held by the timer interrupt.
type TickWriter struct {
	c *TickCounter
}

// Tick advances the counter by one. This is the whole interrupt handler body.
func (w TickWriter) Tick() {
	incTicks(&w.c.ticks)
}

// ArmSysTick starts SysTick from the core clock with a period of reload
// cycles and its interrupt enabled. Interrupts stay masked while the timer
// is being programmed.
func ArmSysTick(st SysTick, reload uint32) {
	if reload == 0 {
		panic("core: SysTick reload must be non-zero")
	}
	mask := maskInterrupts()
	defer unmaskInterrupts(mask)

	st.CSR.Set(0)
	SYST_RVR_RELOAD.Set(st.RVR, reload-1)
	st.CVR.Set(0) // any write clears the current value
	st.CSR.Set(SYST_CSR_CLKSOURCE.Mask() | SYST_CSR_TICKINT.Mask() | SYST_CSR_ENABLE.Mask())
}
