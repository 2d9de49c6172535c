package platform

import (
	"math/rand"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"lautenbacher.net/flametunnel/config"
	"lautenbacher.net/flametunnel/core"
)

func TestRandomBurst(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		pulses := randomBurst(rnd, 200)
		assert.GreaterOrEqual(t, len(pulses), 16)
		assert.LessOrEqual(t, len(pulses), 64)
		for _, d := range pulses {
			assert.GreaterOrEqual(t, d, uint32(200))
			assert.LessOrEqual(t, d, uint32(2000))
		}
	}
}

func TestRandomBurstRespectsPulseCap(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		assert.LessOrEqual(t, len(randomBurst(rnd, 20)), 20)
	}
}

func TestApplyRuntimeConfigConcurrentWithReads(t *testing.T) {
	conf := &config.Config{}
	conf.Input.HoldThreshold = time.Second
	conf.Display.HistorySize = 4
	s := NewTUIPlatform(conf, make(chan os.Signal, 1))

	assert.Equal(t, time.Second, s.holdThreshold())
	assert.Equal(t, 4, s.historySize())

	// Reload delivery and the TUI goroutines' reads run concurrently;
	// both sides must go through the guarded accessors.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		rc := conf.Runtime()
		for i := 1; i <= 1000; i++ {
			rc.Input.HoldThreshold = time.Duration(i) * time.Millisecond
			rc.Display.HistorySize = i
			s.ApplyRuntimeConfig(rc)
		}
	}()
	for i := 0; i < 1000; i++ {
		assert.Positive(t, s.holdThreshold())
		assert.Positive(t, s.historySize())
	}
	wg.Wait()

	assert.Equal(t, time.Second, s.holdThreshold())
	assert.Equal(t, 1000, s.historySize())
}

func TestStateTextNormalMode(t *testing.T) {
	snap := core.Snapshot{LastValue: 4154, Mode: core.ModeNormal}
	text := stateText(snap, []uint32{11, 22})
	assert.Contains(t, text, "Flame Tunnel")
	assert.Contains(t, text, "004154")
	// Newest value first.
	assert.Contains(t, text, "recent: 22 11")
}

func TestStateTextMenuMode(t *testing.T) {
	snap := core.Snapshot{Mode: core.ModeMenu, LoggingEnabled: true}
	text := stateText(snap, nil)
	assert.Contains(t, text, "Config Menu")
	assert.Contains(t, text, "Log")
	assert.Contains(t, text, "ON")

	snap.LoggingEnabled = false
	assert.Contains(t, stateText(snap, nil), "OFF")
}
