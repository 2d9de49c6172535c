package platform

import (
	"time"

	"github.com/gammazero/deque"
)

// frameAssembler groups the stream of pin edges from the IR
// demodulator into complete signals. Edges closer together than the
// frame gap belong to the same signal; a longer pause (or the pulse
// cap) completes it.
type frameAssembler struct {
	gap    time.Duration
	max    int
	pulses deque.Deque[uint32]
	last   time.Time
	timing bool
}

func newFrameAssembler(gap time.Duration, max int) *frameAssembler {
	return &frameAssembler{gap: gap, max: max}
}

// Edge records a pin edge seen at now. It returns a completed pulse
// sequence when this edge ends a signal (pause longer than the frame
// gap, or pulse cap reached), nil otherwise.
func (a *frameAssembler) Edge(now time.Time) []uint32 {
	if !a.timing {
		a.timing = true
		a.last = now
		return nil
	}

	gap := now.Sub(a.last)
	a.last = now
	if gap >= a.gap {
		// This edge starts a new signal, the pause completed the
		// previous one.
		return a.take()
	}

	a.pulses.PushBack(uint32(gap / time.Microsecond))
	if a.pulses.Len() >= a.max {
		return a.take()
	}
	return nil
}

// Timeout completes the pending signal after the receiver saw no edge
// within the frame gap.
func (a *frameAssembler) Timeout() []uint32 {
	a.timing = false
	return a.take()
}

func (a *frameAssembler) take() []uint32 {
	if a.pulses.Len() == 0 {
		return nil
	}
	out := make([]uint32, a.pulses.Len())
	for i := range out {
		out[i] = a.pulses.PopFront()
	}
	return out
}
