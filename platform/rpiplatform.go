package platform

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/stianeikeland/go-rpio/v4"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"lautenbacher.net/flametunnel/config"
	"lautenbacher.net/flametunnel/core"
	"lautenbacher.net/flametunnel/util"
)

// RPiPlatform is the real hardware platform: an IR demodulator on a
// GPIO pin (edge-timed via periph.io), two push buttons polled via
// go-rpio, and a serial tty for the outgoing records.
type RPiPlatform struct {
	config       *config.Config
	signalEvents chan *PulseEvent
	inputEvents  chan *KeyEvent

	serial   *os.File
	rpioOpen bool
	irPin    gpio.PinIO
	buttons  []*button
	runtime  *util.AtomicEvent[config.RuntimeConfig]

	stopChan  chan struct{}
	wg        sync.WaitGroup
	readyChan chan bool

	// last rendered snapshot, only touched by Render
	lastSnap core.Snapshot
	haveSnap bool
}

// button tracks the debounce-free polled state of one key. The
// buttons pull the line low when pressed.
type button struct {
	key  core.Key
	pin  rpio.Pin
	down bool
}

func NewRPiPlatform(conf *config.Config) *RPiPlatform {
	ready := make(chan bool)
	close(ready) // real hardware has no warm-up phase
	return &RPiPlatform{
		config:       conf,
		signalEvents: make(chan *PulseEvent, 16),
		inputEvents:  make(chan *KeyEvent, 16),
		runtime:      util.NewAtomicEvent[config.RuntimeConfig](),
		stopChan:     make(chan struct{}),
		readyChan:    ready,
	}
}

// Start acquires serial line, GPIO and the IR receiver pin, in that
// order, and starts the capture and button scan workers. A failure
// releases everything acquired so far and leaves no partial state.
func (p *RPiPlatform) Start() error {
	serial, err := openSerial(p.config.Serial.Device, p.config.Serial.Baud)
	if err != nil {
		return err
	}
	p.serial = serial

	if err := rpio.Open(); err != nil {
		p.release()
		return fmt.Errorf("can't open GPIO memory: %w", err)
	}
	p.rpioOpen = true
	for _, bc := range []struct {
		key core.Key
		pin int
	}{
		{core.KeyBack, p.config.Input.BackPin},
		{core.KeyOk, p.config.Input.OkPin},
	} {
		pin := rpio.Pin(bc.pin)
		pin.Input()
		pin.PullUp()
		p.buttons = append(p.buttons, &button{key: bc.key, pin: pin})
	}

	if _, err := host.Init(); err != nil {
		p.release()
		return fmt.Errorf("can't initialise periph host: %w", err)
	}
	irPin := gpioreg.ByName(p.config.Receiver.Pin)
	if irPin == nil {
		p.release()
		return fmt.Errorf("unknown receiver pin %q", p.config.Receiver.Pin)
	}
	if err := irPin.In(gpio.PullUp, gpio.BothEdges); err != nil {
		p.release()
		return fmt.Errorf("can't configure receiver pin %q: %w", p.config.Receiver.Pin, err)
	}
	p.irPin = irPin

	p.wg.Add(2)
	go p.captureSignals()
	go p.scanButtons()

	slog.Info("hardware platform started",
		"serial", p.config.Serial.Device,
		"receiver", p.config.Receiver.Pin)
	return nil
}

func (p *RPiPlatform) Stop() {
	close(p.stopChan)
	p.wg.Wait()
	p.release()
}

// release frees acquired handles in reverse acquisition order. Safe
// to call with only a prefix acquired.
func (p *RPiPlatform) release() {
	if p.irPin != nil {
		if err := p.irPin.Halt(); err != nil {
			slog.Warn("error halting receiver pin", "error", err)
		}
		p.irPin = nil
	}
	if p.rpioOpen {
		if err := rpio.Close(); err != nil {
			slog.Warn("error closing GPIO memory", "error", err)
		}
		p.rpioOpen = false
	}
	if p.serial != nil {
		if err := p.serial.Close(); err != nil {
			slog.Warn("error closing serial device", "error", err)
		}
		p.serial = nil
	}
}

func (p *RPiPlatform) SignalEvents() <-chan *PulseEvent {
	return p.signalEvents
}

func (p *RPiPlatform) InputEvents() <-chan *KeyEvent {
	return p.inputEvents
}

func (p *RPiPlatform) SerialSink() io.Writer {
	return p.serial
}

func (p *RPiPlatform) Ready() <-chan bool {
	return p.readyChan
}

// ApplyRuntimeConfig hands the reloaded values to the button scanner
// through the mailbox; only the scan interval matters on real
// hardware, everything else is consumed by the application side.
func (p *RPiPlatform) ApplyRuntimeConfig(rc config.RuntimeConfig) {
	p.runtime.Send(rc)
}

// Render has no display to paint on real hardware; state changes are
// logged instead so a headless box is still observable.
func (p *RPiPlatform) Render(snap core.Snapshot) {
	if p.haveSnap && snap == p.lastSnap {
		return
	}
	p.lastSnap = snap
	p.haveSnap = true
	slog.Info("state",
		"mode", snap.Mode.String(),
		"value", fmt.Sprintf("%06d", snap.LastValue),
		"logging", snap.LoggingEnabled)
}

// captureSignals measures the time between edges on the receiver pin
// and emits one PulseEvent per completed signal. WaitForEdge doubles
// as the frame-gap timeout: no edge within the gap means the pending
// signal is complete.
func (p *RPiPlatform) captureSignals() {
	defer p.wg.Done()
	assembler := newFrameAssembler(p.config.Receiver.FrameGap, p.config.Receiver.MaxPulses)
	for {
		select {
		case <-p.stopChan:
			return
		default:
		}
		if p.irPin.WaitForEdge(p.config.Receiver.FrameGap) {
			if frame := assembler.Edge(time.Now()); frame != nil {
				p.emitSignal(frame)
			}
		} else if frame := assembler.Timeout(); frame != nil {
			p.emitSignal(frame)
		}
	}
}

func (p *RPiPlatform) emitSignal(pulses []uint32) {
	select {
	case p.signalEvents <- NewPulseEvent(pulses, time.Now()):
	default:
		slog.Warn("dropping infrared signal, event consumer too slow", "pulses", len(pulses))
	}
}

// scanButtons polls the button pins and emits an event on every level
// change.
func (p *RPiPlatform) scanButtons() {
	defer p.wg.Done()
	ticker := time.NewTicker(p.config.Input.ScanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stopChan:
			return
		case <-p.runtime.Channel():
			if iv := p.runtime.Value().Input.ScanInterval; iv > 0 {
				ticker.Reset(iv)
			}
		case <-ticker.C:
			for _, b := range p.buttons {
				pressed := b.pin.Read() == rpio.Low
				if pressed == b.down {
					continue
				}
				b.down = pressed
				select {
				case p.inputEvents <- NewKeyEvent(b.key, pressed, time.Now()):
				default:
					slog.Warn("dropping key event, event consumer too slow", "key", b.key)
				}
			}
		}
	}
}
