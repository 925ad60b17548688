package core

// TimerFreq is the system tick rate.
const TimerFreq = 12000000

// GetTime returns the current system time in timer ticks
func GetTime() uint32 {
	return getSystemTicks()
}

// SetTime sets the current system time. Targets call it from their tick
// source; tests call it directly.
func SetTime(ticks uint32) {
	setSystemTicks(ticks)
}

// TimerFromUS converts microseconds to timer ticks
func TimerFromUS(us uint32) uint32 {
	return uint32(uint64(us) * TimerFreq / 1000000)
}

// TimerToUS converts timer ticks to microseconds
func TimerToUS(ticks uint32) uint32 {
	return uint32(uint64(ticks) * 1000000 / TimerFreq)
}

// TicksSince returns the ticks elapsed from then to now, across wraparound.
func TicksSince(then uint32) uint32 {
	return GetTime() - then
}
