package core

import "sync"

// Mode is the current display mode.
type Mode int

const (
	ModeNormal Mode = iota
	ModeMenu
)

func (m Mode) String() string {
	if m == ModeMenu {
		return "Menu"
	}
	return "Normal"
}

// Fields is the mutable view of the shared state handed to Update
// callbacks. All four fields change together under one lock, so a
// reader can never observe a partial update.
type Fields struct {
	LastValue      uint32
	LoggingEnabled bool
	Mode           Mode
	Running        bool
}

// Snapshot is a consistent read-only copy of the shared state.
type Snapshot Fields

// State holds the shared state mutated by the signal ingestor and the
// mode controller and read by the renderer. A single mutex serializes
// every access.
type State struct {
	mu     sync.Mutex
	fields Fields
}

// NewState returns a State with the startup defaults.
func NewState() *State {
	return &State{fields: Fields{Running: true}}
}

// Update runs fn with exclusive access to the state fields. Once
// Running has gone false it stays false, no matter what fn does.
func (s *State) Update(fn func(f *Fields)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wasRunning := s.fields.Running
	fn(&s.fields)
	if !wasRunning {
		s.fields.Running = false
	}
}

// Snapshot returns a consistent copy of all state fields.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot(s.fields)
}
