package core

import (
	"log/slog"
	"time"
)

// Apply mutates the state fields according to the given action. The
// caller must hold the state lock (i.e. call this from inside
// State.Update), so these writes serialize against the ingestor and
// the renderer sees no torn update.
//
// ToggleLogging is ignored outside menu mode. The detector already
// gates its emission on the mode, but the guard is kept in both
// layers so an action delivered late (mode changed in between) cannot
// flip logging from the normal screen.
func Apply(action Action, f *Fields) {
	switch action {
	case ActionShutdown:
		f.Running = false
	case ActionToggleMode:
		if f.Mode == ModeNormal {
			f.Mode = ModeMenu
		} else {
			f.Mode = ModeNormal
		}
	case ActionToggleLogging:
		if f.Mode == ModeMenu {
			f.LoggingEnabled = !f.LoggingEnabled
		}
	case ActionNone:
	}
}

// Controller connects the gesture detector to the shared state.
type Controller struct {
	state    *State
	detector *Detector
}

func NewController(state *State, detector *Detector) *Controller {
	return &Controller{state: state, detector: detector}
}

// HandleInput classifies one key event and applies the resulting
// action, all under a single critical section. An infrared event
// arriving concurrently can therefore never interleave with the
// classify-and-apply step.
func (c *Controller) HandleInput(key Key, pressed bool, at time.Time) Action {
	var action Action
	c.state.Update(func(f *Fields) {
		action = c.detector.HandleKey(key, pressed, at, f.Mode)
		Apply(action, f)
	})
	if action != ActionNone {
		slog.Debug("gesture applied", "key", key, "action", actionName(action))
	}
	return action
}

func actionName(a Action) string {
	switch a {
	case ActionShutdown:
		return "shutdown"
	case ActionToggleMode:
		return "toggle-mode"
	case ActionToggleLogging:
		return "toggle-logging"
	}
	return "none"
}
