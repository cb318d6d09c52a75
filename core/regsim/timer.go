package regsim

import "h7boot/core"

// SysTickArmed reports whether SysTick is counting core cycles with its
// interrupt enabled.
func (c *Chip) SysTickArmed() bool {
	csr := c.Reg("SYST_CSR").value
	want := core.SYST_CSR_ENABLE.Mask() | core.SYST_CSR_TICKINT.Mask() | core.SYST_CSR_CLKSOURCE.Mask()
	return csr&want == want
}

// SysTickPeriod returns the number of core cycles between SysTick
// interrupts (RELOAD+1).
func (c *Chip) SysTickPeriod() uint64 {
	return uint64(core.SYST_RVR_RELOAD.Extract(c.Reg("SYST_RVR").value)) + 1
}

// RunCycles lets cycles core clock cycles pass. While SysTick is armed, each
// completed period calls w.Tick, as the SysTick exception would. It returns
// the number of interrupts delivered.
func (c *Chip) RunCycles(cycles uint64, w core.TickWriter) int {
	if !c.SysTickArmed() {
		return 0
	}
	period := c.SysTickPeriod()
	c.cycles += cycles
	n := 0
	for c.cycles >= period {
		c.cycles -= period
		w.Tick()
		n++
	}
	return n
}

// Clock is a simulated tick source: every call to Now moves time on by one
// tick, as if each poll of the counter took one tick quantum.
type Clock struct {
	now   uint32
	reads int
}

// NewClock returns a clock whose first reading is start.
func NewClock(start uint32) *Clock {
	return &Clock{now: start}
}

// Now returns the current tick and advances the clock by one.
func (c *Clock) Now() uint32 {
	v := c.now
	c.now++
	c.reads++
	return v
}

// Peek returns the tick the next Now will report.
func (c *Clock) Peek() uint32 {
	return c.now
}

// Reads returns how many times Now was called.
func (c *Clock) Reads() int {
	return c.reads
}

var _ core.TickSource = (*Clock)(nil)
