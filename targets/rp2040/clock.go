//go:build rp2040

package main

import (
	"runtime/volatile"
	"unsafe"

	"gossp/core"
)

// RP2040 Timer peripheral memory map
const (
	timerBase     = 0x40054000
	timerTIMERAWH = timerBase + 0x08 // Raw timer high word
	timerTIMERAWL = timerBase + 0x0C // Raw timer low word
)

var (
	timerRAWH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
)

// GetHardwareUptime reads the 64-bit microsecond timer
func GetHardwareUptime() uint64 {
	// High, low, high again to detect a carry between the reads
	for {
		high1 := timerRAWH.Get()
		low := timerRAWL.Get()
		high2 := timerRAWH.Get()
		if high1 == high2 {
			return (uint64(high1) << 32) | uint64(low)
		}
	}
}

// UpdateSystemTime converts the 1 MHz hardware timer to core ticks.
func UpdateSystemTime() {
	core.SetTime(uint32(GetHardwareUptime() * (core.TimerFreq / 1000000)))
}
