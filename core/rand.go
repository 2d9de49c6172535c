package core

import (
	crand "crypto/rand"
	"encoding/binary"
	"time"
)

// hwRandom returns a 32 bit value from the operating system's random
// source. On the very unlikely read failure it falls back to the
// cycle counter so the ingest path never fails.
func hwRandom() uint32 {
	var b [4]byte
	if _, err := crand.Read(b[:]); err != nil {
		return cycleCount()
	}
	return binary.LittleEndian.Uint32(b[:])
}

// cycleCount stands in for a free-running hardware cycle register:
// the monotonic clock's nanosecond count truncated to 32 bits. It
// wraps roughly every 4 seconds, which is exactly the point.
func cycleCount() uint32 {
	return uint32(time.Now().UnixNano())
}
