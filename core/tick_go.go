//go:build !tinygo

package core

import "sync/atomic"

// On the host the interrupt is simulated by another goroutine, so the
// counter goes through sync/atomic.

func loadTicks(p *uint32) uint32 {
	return atomic.LoadUint32(p)
}

func incTicks(p *uint32) {
	atomic.AddUint32(p, 1)
}
