package core

import (
	"errors"
	"sync/atomic"
)

// ErrPeripheralsTaken is returned when the peripherals were already claimed.
var ErrPeripheralsTaken = errors.New("peripherals already taken")

var peripheralsTaken uint32

// ClaimPeripherals hands out p as the one owner of the register blocks.
// Only the first call succeeds; there is exactly one legitimate claimant per
// boot, so callers treat an error as fatal.
func ClaimPeripherals(p *Peripherals) (*Peripherals, error) {
	if p == nil {
		return nil, errors.New("peripherals are nil")
	}
	if !atomic.CompareAndSwapUint32(&peripheralsTaken, 0, 1) {
		return nil, ErrPeripheralsTaken
	}
	return p, nil
}
