package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"lautenbacher.net/flametunnel/config"
	"lautenbacher.net/flametunnel/core"
	"lautenbacher.net/flametunnel/logging"
	pl "lautenbacher.net/flametunnel/platform"
)

// App wires the event core to a platform and owns the event loop.
type App struct {
	conf       *config.Config
	platform   pl.Platform
	state      *core.State
	detector   *core.Detector
	controller *core.Controller
	ingestor   *core.Ingestor
	watcher    *config.Watcher
	ossignal   chan os.Signal
	stopsignal chan struct{}
	shutdownWg sync.WaitGroup
}

func NewApp(ossignal chan os.Signal) *App {
	return &App{
		ossignal:   ossignal,
		stopsignal: make(chan struct{}),
	}
}

// initialise acquires everything the application needs. Any failure
// releases what was already acquired and returns an error; no partial
// start is left running.
func (a *App) initialise(cfile string, realhw bool) error {
	conf, err := config.ReadConfig(cfile, realhw)
	if err != nil {
		return err
	}
	a.conf = conf

	// In TUI mode the terminal belongs to tview, so logs are buffered
	// until the log pane is up.
	if err := logging.Init(conf.Logging, !realhw); err != nil {
		return err
	}

	a.state = core.NewState()
	a.detector = core.NewDetector(conf.Input.HoldThreshold)
	a.controller = core.NewController(a.state, a.detector)

	if realhw {
		a.platform = pl.NewRPiPlatform(conf)
	} else {
		a.platform = pl.NewTUIPlatform(conf, a.ossignal)
	}
	if err := a.platform.Start(); err != nil {
		logging.Close()
		return err
	}
	<-a.platform.Ready()

	a.ingestor = core.NewIngestor(a.state, a.platform.SerialSink(), conf.LogSink.File)

	a.watcher = config.NewWatcher(cfile, realhw)
	if err := a.watcher.Start(); err != nil {
		a.platform.Stop()
		logging.Close()
		return fmt.Errorf("can't watch config file: %w", err)
	}

	slog.Info("flametunnel initialised", "config", cfile, "realhw", realhw)
	return nil
}

// eventLoop is the heart of the application: it serializes the three
// asynchronous event sources (infrared signals, key input, render
// tick) plus config reloads and OS signals into one goroutine and
// runs until the shared state stops being "running".
func (a *App) eventLoop() {
	defer a.shutdownWg.Done()
	ticker := time.NewTicker(a.conf.Display.RenderInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-a.platform.SignalEvents():
			slog.Debug("infrared signal received", "pulses", len(ev.Pulses))
			a.ingestor.OnSignal(ev.Pulses)
		case ev := <-a.platform.InputEvents():
			a.controller.HandleInput(ev.Key, ev.Pressed, ev.Timestamp)
		case <-ticker.C:
			a.platform.Render(a.state.Snapshot())
		case rc := <-a.watcher.Reloads():
			a.applyRuntimeConfig(rc, ticker)
		case sig := <-a.ossignal:
			slog.Info("received OS signal, shutting down", "signal", sig)
			a.state.Update(func(f *core.Fields) { f.Running = false })
		}

		if !a.state.Snapshot().Running {
			close(a.stopsignal)
			return
		}
	}
}

// applyRuntimeConfig distributes a reloaded runtime configuration to
// its consumers. The startup Config is shared read-only with the
// platform goroutines and must never be written here; the platform
// receives reloaded values through its own synchronized handoff.
func (a *App) applyRuntimeConfig(rc config.RuntimeConfig, ticker *time.Ticker) {
	a.detector.SetHoldThreshold(rc.Input.HoldThreshold)
	a.ingestor.SetLogPath(rc.LogSink.File)
	a.platform.ApplyRuntimeConfig(rc)
	ticker.Reset(rc.Display.RenderInterval)
	slog.Info("runtime config applied",
		"hold", rc.Input.HoldThreshold,
		"render", rc.Display.RenderInterval,
		"logfile", rc.LogSink.File)
}

// shutdown waits for the event loop and releases all resources in
// reverse acquisition order.
func (a *App) shutdown() {
	a.shutdownWg.Wait()
	a.watcher.Stop()
	a.platform.Stop()
	slog.Info("flametunnel finished")
	if err := logging.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "error closing logging: %v\n", err)
	}
}

func main() {
	cfile := flag.String("config", config.CONFILE, "path to config file")
	realhw := flag.Bool("real", false, "run against real hardware instead of the TUI simulation")
	flag.Parse()

	ossignal := make(chan os.Signal, 1)
	app := NewApp(ossignal)
	if err := app.initialise(*cfile, *realhw); err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}
	signal.Notify(ossignal, os.Interrupt, syscall.SIGTERM)

	app.shutdownWg.Add(1)
	go app.eventLoop()

	<-app.stopsignal
	app.shutdown()
}
