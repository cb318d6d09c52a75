package core

import "errors"

// GPIOPin identifies a pin within one GPIO port (0-15).
type GPIOPin uint32

// GPIODriver is the abstract GPIO interface that core code uses.
// Platform-specific implementations handle actual hardware control.
type GPIODriver interface {
	// ConfigureOutput configures a pin as a push-pull digital output
	// Returns error if pin is invalid
	ConfigureOutput(pin GPIOPin) error

	// SetPin sets the pin to high (true) or low (false)
	SetPin(pin GPIOPin, value bool) error
}

// Global singleton used by core code.
var gpioDriver GPIODriver

// SetGPIODriver is called by target-specific code to register its driver.
func SetGPIODriver(d GPIODriver) {
	gpioDriver = d
}

// MustGPIO returns the configured driver or panics if missing.
func MustGPIO() GPIODriver {
	if gpioDriver == nil {
		panic("GPIO driver not configured")
	}
	return gpioDriver
}

var errInvalidPin = errors.New("invalid GPIO pin")

// PortDriver drives the pins of one GPIO port through its registers.
type PortDriver struct {
	Port     GPIO
	ClockReg Register // RCC enable register for the port
	ClockBit Bit      // port's enable bit in ClockReg
}

// NewGPIOEDriver returns a driver for port E of p.
func NewGPIOEDriver(p *Peripherals) *PortDriver {
	return &PortDriver{
		Port:     p.GPIOE,
		ClockReg: p.RCC.AHB4ENR,
		ClockBit: RCC_AHB4ENR_GPIOEEN,
	}
}

// ConfigureOutput enables the port clock and puts pin in output mode.
func (d *PortDriver) ConfigureOutput(pin GPIOPin) error {
	if pin > 15 {
		return errInvalidPin
	}
	d.ClockBit.Set(d.ClockReg)
	moderField(pin).Set(d.Port.MODER, GPIOModeOutput)
	return nil
}

// SetPin drives pin high or low through ODR.
func (d *PortDriver) SetPin(pin GPIOPin, value bool) error {
	if pin > 15 {
		return errInvalidPin
	}
	Bit(pin).Write(d.Port.ODR, value)
	return nil
}
