package core

// Waiter blocks until ready reports true. stage names the condition being
// waited for.
//
// Bring-up has no fallback operating point, so the board uses SpinUntil,
// which never gives up: a status bit that never asserts stops the firmware
// right there (fail-stop). Tests and the simulator substitute BoundedSpin.
type Waiter func(stage string, ready func() bool)

// SpinUntil polls ready with no timeout.
func SpinUntil(stage string, ready func() bool) {
	for !ready() {
	}
}

// BoundedSpin returns a Waiter that polls at most limit times and then
// calls onTimeout with the stage name instead of hanging. onTimeout is
// expected not to return (t.Fatal, runtime.Goexit, panic).
func BoundedSpin(limit int, onTimeout func(stage string)) Waiter {
	return func(stage string, ready func() bool) {
		for i := 0; i < limit; i++ {
			if ready() {
				return
			}
		}
		onTimeout(stage)
	}
}
