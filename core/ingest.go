package core

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Ingestor turns received infrared pulse sequences into values and
// pushes them out: every signal is mixed, transmitted on the serial
// sink and, when logging is enabled, appended to the log file.
type Ingestor struct {
	state *State
	tx    io.Writer

	mu      sync.Mutex
	logPath string

	// overridable for deterministic tests
	random func() uint32
	cycles func() uint32
}

func NewIngestor(state *State, tx io.Writer, logPath string) *Ingestor {
	return &Ingestor{
		state:   state,
		tx:      tx,
		logPath: logPath,
		random:  hwRandom,
		cycles:  cycleCount,
	}
}

// SetLogPath changes the log file path. Used when the runtime
// configuration is reloaded.
func (ing *Ingestor) SetLogPath(path string) {
	ing.mu.Lock()
	ing.logPath = path
	ing.mu.Unlock()
}

func (ing *Ingestor) getLogPath() string {
	ing.mu.Lock()
	defer ing.mu.Unlock()
	return ing.logPath
}

// OnSignal handles one received infrared signal. Mixing, the sink
// writes and the state update happen under a single critical section:
// the sink writes come first, so LastValue always reflects the most
// recently attempted transmission. Sink failures are logged and
// swallowed; a broken serial line or full SD card must not stall the
// event core.
func (ing *Ingestor) OnSignal(pulses []uint32) {
	ing.state.Update(func(f *Fields) {
		value := Mix(pulses, ing.random(), ing.cycles())
		record := fmt.Sprintf("RNG:%d\n", value)

		if _, err := io.WriteString(ing.tx, record); err != nil {
			slog.Warn("serial write failed", "error", err)
		}
		if f.LoggingEnabled {
			if err := appendRecord(ing.getLogPath(), record); err != nil {
				slog.Warn("log append failed", "error", err)
			}
		}
		f.LastValue = value
	})
}

// appendRecord opens the log file in append-or-create mode, writes
// one record and closes it again. The handle never stays open across
// events.
func appendRecord(path string, record string) error {
	fh, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer fh.Close()
	_, err = io.WriteString(fh, record)
	return err
}
