package platform

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gammazero/deque"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"lautenbacher.net/flametunnel/config"
	"lautenbacher.net/flametunnel/core"
	"lautenbacher.net/flametunnel/logging"
	"lautenbacher.net/flametunnel/util"
)

// shortPressDuration is the synthesized down-time for the lowercase
// gesture keys, comfortably below the hold threshold.
const shortPressDuration = 200 * time.Millisecond

// TUIPlatform simulates the device in a terminal: keystrokes
// synthesize IR bursts and button gestures, the serial line becomes a
// monitor pane and the device screen a state pane.
type TUIPlatform struct {
	config       *config.Config
	runtimeMu    sync.RWMutex
	runtime      config.RuntimeConfig
	tviewapp     *tview.Application
	intro        *tview.TextView
	statePane    *tview.TextView
	serialPane   *tview.TextView
	logView      *tview.TextView
	signalEvents chan *PulseEvent
	inputEvents  chan *KeyEvent
	ossignalChan chan os.Signal
	snapshots    *util.AtomicEvent[core.Snapshot]
	history      deque.Deque[uint32]
	stopChan     chan struct{}
	wg           sync.WaitGroup
	logFlushOnce sync.Once
	readyChan    chan bool
	rnd          *rand.Rand
}

func NewTUIPlatform(conf *config.Config, ossignalchan chan os.Signal) *TUIPlatform {
	return &TUIPlatform{
		config:       conf,
		runtime:      conf.Runtime(),
		ossignalChan: ossignalchan,
		signalEvents: make(chan *PulseEvent, 16),
		inputEvents:  make(chan *KeyEvent, 16),
		snapshots:    util.NewAtomicEvent[core.Snapshot](),
		stopChan:     make(chan struct{}),
		readyChan:    make(chan bool),
		rnd:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *TUIPlatform) Start() error {
	s.initSimulationTUI()

	s.wg.Add(1)
	go s.renderLoop()

	go func() {
		if err := s.tviewapp.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "TUI failed: %v\n", err)
			s.ossignalChan <- os.Interrupt
		}
	}()
	return nil
}

func (s *TUIPlatform) Stop() {
	close(s.stopChan)
	s.wg.Wait()
	if s.tviewapp != nil {
		s.tviewapp.Stop()
	}
}

func (s *TUIPlatform) SignalEvents() <-chan *PulseEvent {
	return s.signalEvents
}

func (s *TUIPlatform) InputEvents() <-chan *KeyEvent {
	return s.inputEvents
}

// SerialSink writes transmitted records into the serial monitor pane.
func (s *TUIPlatform) SerialSink() io.Writer {
	return s.serialPane
}

func (s *TUIPlatform) Ready() <-chan bool {
	return s.readyChan
}

// Render hands the snapshot to the TUI goroutine. Never blocks; a
// slow redraw only means intermediate snapshots are skipped.
func (s *TUIPlatform) Render(snap core.Snapshot) {
	s.snapshots.Send(snap)
}

// ApplyRuntimeConfig swaps in the reloaded runtime values. The input
// capture and render goroutines pick them up through the guarded
// accessors on their next use.
func (s *TUIPlatform) ApplyRuntimeConfig(rc config.RuntimeConfig) {
	s.runtimeMu.Lock()
	s.runtime = rc
	s.runtimeMu.Unlock()
}

func (s *TUIPlatform) holdThreshold() time.Duration {
	s.runtimeMu.RLock()
	defer s.runtimeMu.RUnlock()
	return s.runtime.Input.HoldThreshold
}

func (s *TUIPlatform) historySize() int {
	s.runtimeMu.RLock()
	defer s.runtimeMu.RUnlock()
	return s.runtime.Display.HistorySize
}

func (s *TUIPlatform) renderLoop() {
	defer s.wg.Done()
	var lastValue uint32
	lastHold := s.holdThreshold()
	for {
		select {
		case <-s.stopChan:
			return
		case <-s.snapshots.Channel():
			snap := s.snapshots.Value()
			if snap.LastValue != lastValue {
				lastValue = snap.LastValue
				s.history.PushBack(snap.LastValue)
				for s.history.Len() > s.historySize() {
					s.history.PopFront()
				}
			}
			intro := ""
			if hold := s.holdThreshold(); hold != lastHold {
				lastHold = hold
				intro = introText(hold)
			}
			text := stateText(snap, s.historyValues())
			s.tviewapp.QueueUpdateDraw(func() {
				s.statePane.SetText(text)
				if intro != "" {
					s.intro.SetText(intro)
				}
			})
		}
	}
}

func (s *TUIPlatform) historyValues() []uint32 {
	out := make([]uint32, s.history.Len())
	for i := range out {
		out[i] = s.history.At(i)
	}
	return out
}

// stateText renders the simulated device screen: the big value in
// normal mode, the logging toggle in menu mode.
func stateText(snap core.Snapshot, history []uint32) string {
	var b strings.Builder
	if snap.Mode == core.ModeMenu {
		b.WriteString("[#ffff00]Config Menu[white]\n\n")
		if snap.LoggingEnabled {
			b.WriteString("Log [#00ff00]ON[white]\n")
		} else {
			b.WriteString("Log [#ff0000]OFF[white]\n")
		}
		b.WriteString("\nShort Ok toggles logging, held Ok leaves the menu")
		return b.String()
	}

	b.WriteString("[#ffff00]Flame Tunnel[white]\n\n")
	fmt.Fprintf(&b, "[::b]%06d[::-]\n", snap.LastValue)
	if len(history) > 0 {
		b.WriteString("\nrecent:")
		for i := len(history) - 1; i >= 0; i-- {
			fmt.Fprintf(&b, " %d", history[i])
		}
	}
	return b.String()
}

func introText(hold time.Duration) string {
	line1 := fmt.Sprintf("Hold threshold: [#ffff00]%s[white] | Hit [blue]i[-] to inject an IR burst", hold)
	line2 := "Hit [blue]o[-]/[blue]O[-] for a short/held Ok press, [blue]b[-]/[blue]B[-] for Back"
	line3 := "Hit [#ff0000]q[-] to exit, [#ff0000]Up/Down[-] to scroll logs"
	return fmt.Sprintf("%s\n%s\n%s", line1, line2, line3)
}

func (s *TUIPlatform) initSimulationTUI() {
	s.tviewapp = tview.NewApplication()

	// --- Intro Pane ---
	s.intro = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	s.intro.SetText(introText(s.holdThreshold()))
	s.intro.SetBorder(true).SetTitle(" FLAMETUNNEL Simulation ").SetTitleColor(tcell.ColorLightBlue)
	s.intro.SetBackgroundColor(tcell.NewRGBColor(20, 20, 20))

	// --- Device Screen Pane ---
	s.statePane = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	s.statePane.SetBorder(true).SetTitle(" Screen ").SetTitleColor(tcell.ColorLightBlue)
	s.statePane.SetBackgroundColor(tcell.NewRGBColor(30, 30, 30))

	// --- Serial Monitor Pane ---
	s.serialPane = tview.NewTextView().
		SetDynamicColors(false).
		SetScrollable(true)
	s.serialPane.SetChangedFunc(func() {
		s.serialPane.ScrollToEnd()
		s.tviewapp.Draw()
	})
	s.serialPane.SetBorder(true).SetTitle(" Serial ").SetTitleColor(tcell.ColorLightBlue)
	s.serialPane.SetBackgroundColor(tcell.NewRGBColor(30, 30, 30))

	// --- Log Pane ---
	s.logView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetChangedFunc(func() {
			s.logView.ScrollToEnd()
			s.tviewapp.Draw()
		})
	s.logView.SetBorder(true).SetTitle(" Logs ").SetTitleColor(tcell.ColorLightBlue)
	s.logView.SetBackgroundColor(tcell.NewRGBColor(40, 40, 40))

	// --- Layout ---
	middle := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(s.statePane, 0, 1, false).
		AddItem(s.serialPane, 0, 1, false)
	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(s.intro, 5, 0, false).
		AddItem(middle, 9, 0, false).
		AddItem(s.logView, 0, 1, true)

	// --- Flush logs after first draw ---
	s.tviewapp.SetAfterDrawFunc(func(screen tcell.Screen) {
		s.logFlushOnce.Do(func() {
			logWriter := tview.ANSIWriter(s.logView)
			logging.SetOutput(logWriter)
			close(s.readyChan)
		})
	})

	// --- Input Handling ---
	s.tviewapp.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC:
			s.tviewapp.Stop()
			s.ossignalChan <- os.Interrupt
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case 'i', 'I':
				s.injectBurst()
				return nil
			case 'o':
				s.emitGesture(core.KeyOk, shortPressDuration)
				return nil
			case 'O':
				s.emitGesture(core.KeyOk, s.holdThreshold())
				return nil
			case 'b':
				s.emitGesture(core.KeyBack, shortPressDuration)
				return nil
			case 'B':
				s.emitGesture(core.KeyBack, s.holdThreshold())
				return nil
			case 'q', 'Q':
				s.ossignalChan <- os.Interrupt
				return nil
			}
		case tcell.KeyUp:
			row, col := s.logView.GetScrollOffset()
			s.logView.ScrollTo(row-1, col)
			return nil
		case tcell.KeyDown:
			row, col := s.logView.GetScrollOffset()
			s.logView.ScrollTo(row+1, col)
			return nil
		}
		return event
	})

	s.tviewapp.SetRoot(layout, true)
}

// injectBurst synthesizes one received IR signal.
func (s *TUIPlatform) injectBurst() {
	select {
	case s.signalEvents <- NewPulseEvent(randomBurst(s.rnd, s.config.Receiver.MaxPulses), time.Now()):
	default:
	}
}

// emitGesture synthesizes a press/release pair whose distance decides
// the classification. tcell delivers no key-up events, so the TUI can
// only simulate complete gestures.
func (s *TUIPlatform) emitGesture(key core.Key, down time.Duration) {
	now := time.Now()
	press := NewKeyEvent(key, true, now.Add(-down))
	release := NewKeyEvent(key, false, now)
	select {
	case s.inputEvents <- press:
	default:
		return
	}
	select {
	case s.inputEvents <- release:
	default:
	}
}

// randomBurst produces a plausible remote-control style pulse train:
// 16-64 durations between 200 and 2000 microseconds.
func randomBurst(rnd *rand.Rand, maxPulses int) []uint32 {
	n := 16 + rnd.Intn(49)
	if n > maxPulses {
		n = maxPulses
	}
	pulses := make([]uint32, n)
	for i := range pulses {
		pulses[i] = uint32(200 + rnd.Intn(1801))
	}
	return pulses
}
