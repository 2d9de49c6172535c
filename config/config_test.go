package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfig = `
Serial:
  Device: "/dev/ttyAMA0"
  Baud: 57600
Receiver:
  Pin: "GPIO24"
  FrameGap: 15ms
  MaxPulses: 128
Input:
  HoldThreshold: 1s
  ScanInterval: 5ms
  BackPin: 5
  OkPin: 6
Display:
  RenderInterval: 100ms
  HistorySize: 4
LogSink:
  File: "/tmp/flametunnel.log"
Logging:
  Level: "DEBUG"
  Format: "json"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	cfile := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(cfile, []byte(content), 0o644))
	return cfile
}

func TestReadConfig(t *testing.T) {
	conf, err := ReadConfig(writeConfig(t, validConfig), true)
	require.NoError(t, err)

	assert.True(t, conf.RealHW)
	assert.Equal(t, "/dev/ttyAMA0", conf.Serial.Device)
	assert.Equal(t, 57600, conf.Serial.Baud)
	assert.Equal(t, "GPIO24", conf.Receiver.Pin)
	assert.Equal(t, 15*time.Millisecond, conf.Receiver.FrameGap)
	assert.Equal(t, 128, conf.Receiver.MaxPulses)
	assert.Equal(t, time.Second, conf.Input.HoldThreshold)
	assert.Equal(t, 5, conf.Input.BackPin)
	assert.Equal(t, 6, conf.Input.OkPin)
	assert.Equal(t, 100*time.Millisecond, conf.Display.RenderInterval)
	assert.Equal(t, "/tmp/flametunnel.log", conf.LogSink.File)
	assert.Equal(t, "DEBUG", conf.Logging.Level)
	assert.Equal(t, "json", conf.Logging.Format)
}

func TestReadConfigDefaults(t *testing.T) {
	conf, err := ReadConfig(writeConfig(t, "Logging:\n  Level: WARN\n"), false)
	require.NoError(t, err)

	assert.False(t, conf.RealHW)
	assert.Equal(t, "/dev/serial0", conf.Serial.Device)
	assert.Equal(t, 115200, conf.Serial.Baud)
	assert.Equal(t, 10*time.Millisecond, conf.Receiver.FrameGap)
	assert.Equal(t, 200, conf.Receiver.MaxPulses)
	assert.Equal(t, time.Second, conf.Input.HoldThreshold)
	assert.Equal(t, 100*time.Millisecond, conf.Display.RenderInterval)
	assert.Equal(t, "WARN", conf.Logging.Level)
}

func TestReadConfigMissingFile(t *testing.T) {
	_, err := ReadConfig(filepath.Join(t.TempDir(), "nope.yml"), false)
	assert.Error(t, err)
}

func TestReadConfigInvalidYaml(t *testing.T) {
	_, err := ReadConfig(writeConfig(t, "Serial: [not a mapping"), false)
	assert.Error(t, err)
}

func TestReadConfigValidation(t *testing.T) {
	cases := map[string]string{
		"bad baud":       "Serial:\n  Baud: 12345\n",
		"empty device":   "Serial:\n  Device: \"\"\n",
		"zero frame gap": "Receiver:\n  FrameGap: 0s\n",
		"zero pulses":    "Receiver:\n  MaxPulses: 0\n",
		"zero hold":      "Input:\n  HoldThreshold: 0s\n",
		"zero scan":      "Input:\n  ScanInterval: 0s\n",
		"same pins":      "Input:\n  BackPin: 4\n  OkPin: 4\n",
		"zero render":    "Display:\n  RenderInterval: 0s\n",
		"empty log file": "LogSink:\n  File: \"\"\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReadConfig(writeConfig(t, content), false)
			assert.Error(t, err)
		})
	}
}

func TestRuntimeSubset(t *testing.T) {
	conf, err := ReadConfig(writeConfig(t, validConfig), false)
	require.NoError(t, err)

	rc := conf.Runtime()
	assert.Equal(t, conf.Input, rc.Input)
	assert.Equal(t, conf.Display, rc.Display)
	assert.Equal(t, conf.LogSink, rc.LogSink)
}

func TestWatcherDeliversReload(t *testing.T) {
	cfile := writeConfig(t, validConfig)
	w := NewWatcher(cfile, false)
	require.NoError(t, w.Start())
	defer w.Stop()

	updated := validConfig + "  # touched\n"
	require.NoError(t, os.WriteFile(cfile, []byte(updated), 0o644))

	select {
	case rc := <-w.Reloads():
		assert.Equal(t, time.Second, rc.Input.HoldThreshold)
	case <-time.After(2 * time.Second):
		t.Fatal("no reload delivered after config change")
	}
}

func TestWatcherSkipsBrokenConfig(t *testing.T) {
	cfile := writeConfig(t, validConfig)
	w := NewWatcher(cfile, false)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(cfile, []byte("Input:\n  HoldThreshold: 0s\n"), 0o644))

	select {
	case <-w.Reloads():
		t.Fatal("broken config must not be delivered")
	case <-time.After(500 * time.Millisecond):
	}
}
