package core_test

import (
	"testing"

	"h7boot/core"
	"h7boot/core/regsim"
)

// A simulated tick source moving 1 ms per read: a 1000-tick delay must
// return after at least, and not before, 1000 ms.
func TestDelayOneSecondSimulated(t *testing.T) {
	clock := regsim.NewClock(0)

	elapsed := core.Delay(clock, 1000)

	if elapsed < 1000 {
		t.Errorf("Delay returned after %d ms", elapsed)
	}
	// The tick observed at return is the last one read.
	if returnedAt := clock.Peek() - 1; returnedAt < 1000 {
		t.Errorf("Delay returned at %d ms simulated time", returnedAt)
	}
	if elapsed != 1000 {
		t.Errorf("Expected exact 1000 ms with 1 ms sampling, got %d", elapsed)
	}
}

type levelChange struct {
	high bool
	tick uint32
}

func TestBlinkerAlternates(t *testing.T) {
	chip := regsim.New()
	clock := regsim.NewClock(0)
	odr := chip.Reg("GPIOE_ODR")

	var changes []levelChange
	b := &core.Blinker{
		GPIO:     core.NewGPIOEDriver(&chip.Peripherals),
		Pin:      core.LEDPin,
		Clock:    clock,
		Interval: core.BlinkInterval,
		OnLevel: func(high bool, tick uint32) {
			changes = append(changes, levelChange{high, tick})
			pinHigh := odr.Peek()&(1<<core.LEDPin) != 0
			if pinHigh != high {
				t.Errorf("OnLevel(%v) but PE1 reads %v", high, pinHigh)
			}
		},
	}

	if err := b.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	pe1Mode := core.Field{Pos: 2, Width: 2}
	if got := pe1Mode.Extract(chip.Reg("GPIOE_MODER").Peek()); got != core.GPIOModeOutput {
		t.Errorf("Expected PE1 in output mode, got %d", got)
	}

	const n = 8
	for i := 0; i < n; i++ {
		if err := b.Step(); err != nil {
			t.Fatalf("Step %d failed: %v", i, err)
		}
	}

	if len(changes) != n {
		t.Fatalf("Expected %d level changes, got %d", n, len(changes))
	}
	for i, c := range changes {
		if c.high != (i%2 == 0) {
			t.Errorf("change %d: level %v, want %v", i, c.high, i%2 == 0)
		}
		if i > 0 {
			if gap := c.tick - changes[i-1].tick; gap < core.BlinkInterval {
				t.Errorf("change %d: held previous level %d ticks, want >= %d", i, gap, core.BlinkInterval)
			}
		}
	}
}

type failingGPIO struct{}

func (failingGPIO) ConfigureOutput(core.GPIOPin) error { return nil }
func (failingGPIO) SetPin(core.GPIOPin, bool) error    { return errPin }

var errPin = errorString("pin write failed")

type errorString string

func (e errorString) Error() string { return string(e) }

func TestBlinkerRunStopsOnError(t *testing.T) {
	b := &core.Blinker{GPIO: failingGPIO{}, Pin: core.LEDPin, Clock: regsim.NewClock(0), Interval: 1}
	if err := b.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := b.Run(); err != errPin {
		t.Errorf("Expected errPin, got %v", err)
	}
}

func TestBlinkerInvalidPin(t *testing.T) {
	chip := regsim.New()
	b := &core.Blinker{GPIO: core.NewGPIOEDriver(&chip.Peripherals), Pin: 16, Clock: regsim.NewClock(0), Interval: 1}
	if err := b.Start(); err == nil {
		t.Error("Expected error for pin 16")
	}
}

func TestBlinkerUsesRegisteredDriver(t *testing.T) {
	chip := regsim.New()
	core.SetGPIODriver(core.NewGPIOEDriver(&chip.Peripherals))
	t.Cleanup(func() { core.SetGPIODriver(nil) })

	b := &core.Blinker{Pin: core.LEDPin, Clock: regsim.NewClock(0), Interval: 1}
	if err := b.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := b.Step(); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if chip.Reg("GPIOE_ODR").Peek() != 1<<core.LEDPin {
		t.Errorf("Expected PE1 high, got ODR 0x%x", chip.Reg("GPIOE_ODR").Peek())
	}
}

func TestBlinkerStepWithoutStart(t *testing.T) {
	chip := regsim.New()
	core.SetGPIODriver(core.NewGPIOEDriver(&chip.Peripherals))
	t.Cleanup(func() { core.SetGPIODriver(nil) })

	chip.Reg("GPIOE_ODR").Poke(1 << core.LEDPin)
	b := &core.Blinker{Pin: core.LEDPin, Clock: regsim.NewClock(0), Interval: 1}
	if err := b.Step(); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if got := chip.Reg("GPIOE_ODR").Peek(); got != 0 {
		t.Errorf("Expected PE1 driven low, got ODR 0x%x", got)
	}
}
