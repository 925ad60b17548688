//go:build !tinygo

package core

import "sync/atomic"

// Host builds share the tick counter with test goroutines.
var systemTicks atomic.Uint32

func getSystemTicks() uint32 {
	return systemTicks.Load()
}

func setSystemTicks(ticks uint32) {
	systemTicks.Store(ticks)
}
