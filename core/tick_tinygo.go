//go:build tinygo

package core

import "runtime/volatile"

// Single core, one writer at interrupt level: an aligned word load/store is
// indivisible, volatile keeps the compiler from caching it.

func loadTicks(p *uint32) uint32 {
	return volatile.LoadUint32(p)
}

func incTicks(p *uint32) {
	volatile.StoreUint32(p, volatile.LoadUint32(p)+1)
}
