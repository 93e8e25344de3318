// Package hotkey provides global hotkey monitoring for toggling pan
// and zoom while other applications have focus.
package hotkey

import (
	"log"
	"strings"
	"sync"
)

// Manager matches global key/button state against registered combos.
// A combo fires once on the press edge and must be fully released
// before it can fire again, so holding the keys does not retrigger.
type Manager struct {
	mu       sync.Mutex
	bindings []*binding
	pressed  map[string]bool
}

type binding struct {
	parts    []string // normalized, e.g. ["CTRL", "ALT", "P"]
	original string
	held     bool // combo currently down; blocks refiring
	fire     func()
}

func NewManager() *Manager {
	return &Manager{
		pressed: make(map[string]bool),
	}
}

// Register binds a combo string such as "Ctrl+Alt+P" or "Mouse4" to a
// callback. An empty combo is ignored.
func (m *Manager) Register(combo string, fire func()) {
	if combo == "" {
		return
	}

	parts := strings.Split(strings.ToUpper(combo), "+")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.bindings = append(m.bindings, &binding{
		parts:    parts,
		original: combo,
		fire:     fire,
	})
}

// Clear removes all bindings. Used when the configuration changes and
// the combos are registered afresh.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bindings = nil
}

// UpdateState records a key or button transition and fires any combo
// whose parts just became fully held. Key names are normalized
// upper-case.
func (m *Manager) UpdateState(key string, isDown bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key = strings.ToUpper(key)
	if isDown {
		m.pressed[key] = true
	} else {
		delete(m.pressed, key)
	}

	for _, b := range m.bindings {
		down := true
		for _, part := range b.parts {
			if !m.pressed[part] {
				down = false
				break
			}
		}
		switch {
		case down && !b.held:
			b.held = true
			log.Printf("Hotkey: triggered %s", b.original)
			go b.fire()
		case !down:
			b.held = false
		}
	}
}

// Start installs the platform's global hooks. The hooks run on their
// own goroutine for the life of the process.
func (m *Manager) Start() error {
	return m.startPlatform()
}
