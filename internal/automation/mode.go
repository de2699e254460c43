package automation

import "sync"

// Mode is the shared auto/manual switch. It only changes by command.
// The zero value is manual; use NewMode for the usual auto default.
type Mode struct {
	mu        sync.RWMutex
	auto      bool
	listeners []func(auto bool)
}

// NewMode creates a Mode with the given initial state.
func NewMode(auto bool) *Mode {
	return &Mode{auto: auto}
}

// Auto reports whether automation is enabled.
func (m *Mode) Auto() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.auto
}

// Set switches the mode and reports whether it changed.
// Listeners run synchronously, only on change.
func (m *Mode) Set(auto bool) bool {
	m.mu.Lock()
	changed := m.auto != auto
	m.auto = auto
	listeners := make([]func(bool), len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	if changed {
		for _, fn := range listeners {
			fn(auto)
		}
	}
	return changed
}

// OnChange registers fn to be called after every mode change.
func (m *Mode) OnChange(fn func(auto bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// String returns "AUTO" or "MANUAL".
func (m *Mode) String() string {
	return Label(m.Auto())
}

// Label returns "AUTO" or "MANUAL" for auto.
func Label(auto bool) string {
	if auto {
		return "AUTO"
	}
	return "MANUAL"
}
