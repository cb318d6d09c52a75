// Package regsim models the STM32H7 register blocks used by bring-up in
// plain memory, so the sequencer can run on the host.
//
// Every access is appended to a trace. Status bits behave like the hardware
// at the level bring-up cares about: they change a configurable number of
// register reads after the write that requests the change, so a readiness
// poll really has to spin.
package regsim

import (
	"h7boot/core"
)

// Op is the kind of a traced access.
type Op uint8

const (
	Read Op = iota
	Write
	Mark
)

func (o Op) String() string {
	switch o {
	case Read:
		return "R"
	case Write:
		return "W"
	case Mark:
		return "--"
	}
	return "?"
}

// Event is one trace entry. Label is only set for Mark events.
type Event struct {
	Seq   int
	Reg   string
	Op    Op
	Value uint32
	Label string
}

// Status names accepted by Stick.
const (
	StatusVOSRDY  = "VOSRDY"
	StatusPLL1RDY = "PLL1RDY"
	StatusSWS     = "SWS"
	StatusACR     = "ACR"
)

// Reset values (RM0399).
const (
	resetPWR_CR3       = 0x00000046
	resetPWR_D3CR      = 0x00004000 | 1<<13 // VOS3, ready
	resetRCC_CR        = 0x00000025         // HSION, HSIRDY, HSIDIV
	resetRCC_PLLCKSELR = 0x02020200
	resetRCC_PLLCFGR   = 0x01FF0000
	resetRCC_PLL1DIVR  = 0x01010280
	resetFLASH_ACR     = 0x00000037
)

// DefaultLatency is the number of reads before a requested status change
// becomes visible.
const DefaultLatency = 3

type pending struct {
	due int
	fn  func()
}

// Chip is a simulated device. Its Peripherals field is ready to hand to
// core.ClaimPeripherals or a core.Sequencer.
type Chip struct {
	Peripherals core.Peripherals

	// Latency is the number of register reads before a status change shows.
	Latency int

	regs    map[string]*Reg
	order   []string
	trace   []Event
	tracing bool
	reads   int
	pending []pending
	stuck   map[string]bool

	cycles uint64 // core cycles not yet turned into SysTick periods
}

// New returns a chip in its reset state with tracing enabled.
func New() *Chip {
	c := &Chip{
		Latency: DefaultLatency,
		regs:    make(map[string]*Reg),
		stuck:   make(map[string]bool),
		tracing: true,
	}

	c.Peripherals = core.Peripherals{
		PWR: core.PWR{
			CR3:  c.newReg("PWR_CR3", resetPWR_CR3),
			D3CR: c.newReg("PWR_D3CR", resetPWR_D3CR),
		},
		RCC: core.RCC{
			CR:        c.newReg("RCC_CR", resetRCC_CR),
			CFGR:      c.newReg("RCC_CFGR", 0),
			D1CFGR:    c.newReg("RCC_D1CFGR", 0),
			PLLCKSELR: c.newReg("RCC_PLLCKSELR", resetRCC_PLLCKSELR),
			PLLCFGR:   c.newReg("RCC_PLLCFGR", resetRCC_PLLCFGR),
			PLL1DIVR:  c.newReg("RCC_PLL1DIVR", resetRCC_PLL1DIVR),
			AHB4ENR:   c.newReg("RCC_AHB4ENR", 0),
			APB4ENR:   c.newReg("RCC_APB4ENR", 0),
		},
		SYSCFG: core.SYSCFG{
			PWRCR: c.newReg("SYSCFG_PWRCR", 0),
		},
		FLASH: core.FLASH{
			ACR: c.newReg("FLASH_ACR", resetFLASH_ACR),
		},
		SysTick: core.SysTick{
			CSR: c.newReg("SYST_CSR", 0),
			RVR: c.newReg("SYST_RVR", 0),
			CVR: c.newReg("SYST_CVR", 0),
		},
		GPIOE: core.GPIO{
			MODER: c.newReg("GPIOE_MODER", 0xFFFFFFFF),
			ODR:   c.newReg("GPIOE_ODR", 0),
		},
	}
	c.installBehaviour()
	return c
}

func (c *Chip) newReg(name string, reset uint32) *Reg {
	r := &Reg{chip: c, name: name, value: reset}
	c.regs[name] = r
	c.order = append(c.order, name)
	return r
}

// Reg returns the register called name, or nil.
func (c *Chip) Reg(name string) *Reg {
	return c.regs[name]
}

// Names returns the register names in declaration order.
func (c *Chip) Names() []string {
	return append([]string(nil), c.order...)
}

// Stick keeps a status from ever reporting ready.
func (c *Chip) Stick(status string) {
	c.stuck[status] = true
}

// SetTracing turns access tracing on or off.
func (c *Chip) SetTracing(on bool) {
	c.tracing = on
}

// Mark inserts a labelled marker into the trace.
func (c *Chip) Mark(label string) {
	c.record(Event{Op: Mark, Label: label})
}

// Trace returns a copy of the access trace.
func (c *Chip) Trace() []Event {
	return append([]Event(nil), c.trace...)
}

// ResetTrace drops the recorded trace.
func (c *Chip) ResetTrace() {
	c.trace = c.trace[:0]
}

// Reads returns the number of register reads so far.
func (c *Chip) Reads() int {
	return c.reads
}

func (c *Chip) record(e Event) {
	if !c.tracing {
		return
	}
	e.Seq = len(c.trace)
	c.trace = append(c.trace, e)
}

// after runs fn once Latency more reads have happened, unless status is
// stuck.
func (c *Chip) after(status string, fn func()) {
	if c.stuck[status] {
		return
	}
	c.pending = append(c.pending, pending{due: c.reads + c.Latency, fn: fn})
}

// advance counts one read and runs due status changes.
func (c *Chip) advance() {
	c.reads++
	kept := c.pending[:0]
	var due []func()
	for _, p := range c.pending {
		if p.due <= c.reads {
			due = append(due, p.fn)
		} else {
			kept = append(kept, p)
		}
	}
	c.pending = kept
	for _, fn := range due {
		fn()
	}
}

// Reg is one simulated register. It implements core.Register.
type Reg struct {
	chip    *Chip
	name    string
	value   uint32
	onWrite func(old, new uint32) uint32
}

// Name returns the register name.
func (r *Reg) Name() string {
	return r.name
}

// Get reads the register. Each read lets simulated time move on by one step.
func (r *Reg) Get() uint32 {
	r.chip.advance()
	v := r.value
	r.chip.record(Event{Reg: r.name, Op: Read, Value: v})
	return v
}

// Set writes the register through its hardware behaviour.
func (r *Reg) Set(v uint32) {
	if r.onWrite != nil {
		v = r.onWrite(r.value, v)
	}
	r.value = v
	r.chip.record(Event{Reg: r.name, Op: Write, Value: v})
}

// Peek returns the value without tracing or advancing time.
func (r *Reg) Peek() uint32 {
	return r.value
}

// Poke stores v without tracing or hardware behaviour.
func (r *Reg) Poke(v uint32) {
	r.value = v
}

var _ core.Register = (*Reg)(nil)
