package core

// Status LED on the board: LED2 on PE1, one second on, one second off.
const (
	LEDPin        GPIOPin = 1
	BlinkInterval         = TickFrequency // ticks per level
)

// Blinker toggles one output line, holding each level for Interval ticks.
type Blinker struct {
	GPIO     GPIODriver // nil uses the driver registered with SetGPIODriver
	Pin      GPIOPin
	Clock    TickSource
	Interval uint32

	// OnLevel, if set, is called each time a level is driven.
	OnLevel func(high bool, tick uint32)

	level bool
}

// Start configures the pin as an output. The first Step drives it high.
func (b *Blinker) Start() error {
	b.level = true
	return b.driver().ConfigureOutput(b.Pin)
}

// driver returns GPIO, falling back to the registered driver.
func (b *Blinker) driver() GPIODriver {
	if b.GPIO == nil {
		b.GPIO = MustGPIO()
	}
	return b.GPIO
}

// Step drives the current level, waits Interval ticks and flips the level
// for the next call. Call Start first; without it the pin is not configured
// and the first level driven is low.
func (b *Blinker) Step() error {
	if err := b.driver().SetPin(b.Pin, b.level); err != nil {
		return err
	}
	if b.OnLevel != nil {
		b.OnLevel(b.level, b.Clock.Now())
	}
	Delay(b.Clock, b.Interval)
	b.level = !b.level
	return nil
}

// Run steps forever. It only returns if driving the pin fails.
func (b *Blinker) Run() error {
	for {
		if err := b.Step(); err != nil {
			return err
		}
	}
}
