//go:build tinygo

package core

import "sync/atomic"

// Written by the target's tick interrupt, read from the main loop.
var systemTicksValue uint32

func getSystemTicks() uint32 {
	return atomic.LoadUint32(&systemTicksValue)
}

func setSystemTicks(ticks uint32) {
	atomic.StoreUint32(&systemTicksValue, ticks)
}
