package core

// Mix folds a sequence of infrared pulse durations (in microseconds)
// into a 32 bit value. The fold is index dependent, so reordered
// pulses produce a different result. This is a fast mixing function
// for display and transmission purposes, not a CSPRNG.
func Mix(pulses []uint32, seed, cycles uint32) uint32 {
	mixed := seed ^ cycles
	for i, d := range pulses {
		mixed ^= d + uint32(i)
	}
	return mixed
}
