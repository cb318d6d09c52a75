package core

// Delay busy-waits until at least d ticks of src have elapsed and returns
// the elapsed count it observed, which may exceed d by the sampling
// granularity. The subtraction is done in uint32 so a counter wrap during
// the wait still gives the right distance. There is no cancellation.
func Delay(src TickSource, d uint32) uint32 {
	start := src.Now()
	for {
		elapsed := src.Now() - start
		if elapsed >= d {
			return elapsed
		}
	}
}

// Sleep waits d ticks on the process-wide counter.
func Sleep(d uint32) {
	Delay(&Ticks, d)
}
