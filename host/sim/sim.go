// Package sim runs the firmware's bring-up and blink loop against the
// simulated registers of core/regsim, printing the same boot report the
// board prints.
package sim

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	"h7boot/core"
	"h7boot/core/regsim"
	"h7boot/protocol"
)

// Options control a simulated boot.
type Options struct {
	// Latency is the number of register reads before a status change shows.
	Latency int
	// Stuck lists statuses (regsim.Status*) that never assert.
	Stuck []string
	// PollLimit bounds every readiness poll so a stuck status ends the run.
	PollLimit int
	// Blinks is the number of LED levels to drive after bring-up.
	Blinks int
	// CyclesPerPoll is how many core cycles pass each time the tick counter
	// is read; it sets how finely Delay samples the counter.
	CyclesPerPoll uint64
}

// DefaultOptions returns a run that boots normally and blinks four times.
func DefaultOptions() Options {
	return Options{
		Latency:       regsim.DefaultLatency,
		PollLimit:     10000,
		Blinks:        4,
		CyclesPerPoll: core.TickReload / 4,
	}
}

// StuckError reports a readiness poll that gave up.
type StuckError struct {
	Stage string
}

func (e *StuckError) Error() string {
	return "stage " + e.Stage + " never became ready"
}

// systickClock reads the tick counter while letting core cycles pass on the
// simulated chip, so ticks only arrive once bring-up armed SysTick.
type systickClock struct {
	chip    *regsim.Chip
	counter *core.TickCounter
	writer  core.TickWriter
	cycles  uint64
}

func (c *systickClock) Now() uint32 {
	c.chip.RunCycles(c.cycles, c.writer)
	return c.counter.Now()
}

// Run boots a fresh simulated chip, writing the boot report to out. The chip
// is returned even when bring-up gets stuck so its trace can be inspected.
func Run(opts Options, out io.Writer) (chip *regsim.Chip, err error) {
	chip = regsim.New()
	if opts.Latency > 0 {
		chip.Latency = opts.Latency
	}
	for _, s := range opts.Stuck {
		chip.Stick(s)
	}
	if opts.PollLimit <= 0 {
		opts.PollLimit = DefaultOptions().PollLimit
	}
	if opts.CyclesPerPoll == 0 {
		opts.CyclesPerPoll = DefaultOptions().CyclesPerPoll
	}

	core.SetDebugWriter(func(s string) { fmt.Fprintln(out, s) })
	defer core.SetDebugWriter(func(string) {})
	core.ClearBootTrace()
	defer core.ClearBootTrace()

	seq := core.NewSequencer(&chip.Peripherals, core.DefaultStages(),
		core.BoundedSpin(opts.PollLimit, func(stage string) {
			panic(&StuckError{Stage: stage})
		}))
	seq.OnStage = func(index int, name string) {
		chip.Mark("stage " + name)
	}
	if err := runSequencer(seq); err != nil {
		core.ReportStages()
		return chip, err
	}
	core.DumpBootTrace()

	if !chip.SysTickArmed() {
		return chip, errors.New("bring-up finished without arming SysTick")
	}

	counter := core.NewTickCounter(0)
	writer, err := counter.Writer()
	if err != nil {
		return chip, err
	}
	led := &core.Blinker{
		GPIO:     core.NewGPIOEDriver(&chip.Peripherals),
		Pin:      core.LEDPin,
		Clock:    &systickClock{chip: chip, counter: counter, writer: writer, cycles: opts.CyclesPerPoll},
		Interval: core.BlinkInterval,
		OnLevel: func(high bool, tick uint32) {
			core.Report(protocol.LED(high, tick))
		},
	}
	if err := led.Start(); err != nil {
		return chip, errors.Wrap(err, "configure LED")
	}

	// Tracing every tick poll would dwarf the bring-up trace.
	chip.SetTracing(false)
	defer chip.SetTracing(true)
	for i := 0; i < opts.Blinks; i++ {
		if err := led.Step(); err != nil {
			return chip, errors.Wrapf(err, "blink %d", i)
		}
	}
	return chip, nil
}

func runSequencer(seq *core.Sequencer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			stuck, ok := r.(*StuckError)
			if !ok {
				panic(r)
			}
			err = stuck
		}
	}()
	seq.Run()
	return nil
}
