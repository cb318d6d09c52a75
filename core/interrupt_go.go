//go:build !tinygo

package core

// irqMask stands in for PRIMASK on the host. It is the masking depth before
// the matching maskInterrupts call.
type irqMask uint32

// maskDepth counts open masked sections so host tests can check that timer
// programming happened with interrupts masked.
var maskDepth uint32

func maskInterrupts() irqMask {
	maskDepth++
	return irqMask(maskDepth - 1)
}

func unmaskInterrupts(m irqMask) {
	maskDepth = uint32(m)
}
