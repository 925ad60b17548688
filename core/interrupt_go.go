//go:build !tinygo

package core

// State stands in for the saved interrupt state on host builds.
type State uintptr

// disableInterrupts is a no-op on host builds; tests drive the SSP
// interrupt synchronously.
func disableInterrupts() State {
	return 0
}

func restoreInterrupts(state State) {}
