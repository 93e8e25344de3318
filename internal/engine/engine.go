package engine

import (
	"fmt"
	"sync"
	"time"

	"panzoomer/internal/config"
	"panzoomer/internal/cursor"
	"panzoomer/internal/display"
	"panzoomer/internal/logx"
	"panzoomer/internal/scene"
)

// MonitorSource resolves a configured monitor ID to its rectangle.
type MonitorSource interface {
	RectFor(id int) display.Monitor
}

// ConfigSource hands out the current configuration of a slot.
type ConfigSource interface {
	Slot(i int) config.Slot
}

// SlotStatus is the externally visible state of one slot.
type SlotStatus struct {
	Slot          int  `json:"slot"`
	Enabled       bool `json:"enabled"`
	PanActive     bool `json:"pan_active"`
	ZoomActive    bool `json:"zoom_active"`
	Transitioning bool `json:"transitioning"`
}

// Engine drives both slots from a shared clock, cursor reader and
// scene graph. Tick runs on one goroutine; the toggle methods are safe
// to call from any other.
type Engine struct {
	graph    scene.Graph
	displays MonitorSource
	cursor   cursor.Reader
	cfgs     ConfigSource

	slots [config.NumSlots]*Slot
	now   func() time.Time
	warn  *logx.Throttle

	mu       sync.Mutex
	onChange func()
}

func New(graph scene.Graph, displays MonitorSource, cur cursor.Reader, cfgs ConfigSource) *Engine {
	e := &Engine{
		graph:    graph,
		displays: displays,
		cursor:   cur,
		cfgs:     cfgs,
		now:      time.Now,
		warn:     logx.NewThrottle(5 * time.Second),
	}
	for i := range e.slots {
		e.slots[i] = newSlot(i + 1)
	}
	return e
}

// SetOnChange registers a callback fired after every successful
// toggle, so the tray and websocket clients can refresh.
func (e *Engine) SetOnChange(fn func()) {
	e.mu.Lock()
	e.onChange = fn
	e.mu.Unlock()
}

func (e *Engine) notify() {
	e.mu.Lock()
	fn := e.onChange
	e.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Tick advances every slot once. The cursor is read a single time and
// shared; a failed read degrades each slot to its monitor center
// rather than stopping the loop.
func (e *Engine) Tick() {
	now := e.now()
	cx, cy, err := e.cursor.Position()
	cursorOK := err == nil
	if !cursorOK {
		e.warn.Warnf("cursor", "cursor read failed: %v", err)
	}

	for i, s := range e.slots {
		cfg := e.cfgs.Slot(i)
		mon := e.displays.RectFor(cfg.MonitorID)
		s.update(cfg, mon, cx, cy, cursorOK, now, e.warn)
	}
}

// TogglePan flips panning for slot i (0-based).
func (e *Engine) TogglePan(i int) error {
	if i < 0 || i >= config.NumSlots {
		return fmt.Errorf("slot index %d out of range", i)
	}
	e.slots[i].togglePan(e.graph, e.cfgs.Slot(i))
	e.notify()
	return nil
}

// ToggleZoom flips zooming for slot i (0-based). Panning must already
// be enabled on the slot.
func (e *Engine) ToggleZoom(i int) error {
	if i < 0 || i >= config.NumSlots {
		return fmt.Errorf("slot index %d out of range", i)
	}
	e.slots[i].toggleZoom(e.cfgs.Slot(i), e.now())
	e.notify()
	return nil
}

// Shutdown disables every slot, restoring targets and releasing
// handles. The caller must stop the tick loop first.
func (e *Engine) Shutdown() {
	for _, s := range e.slots {
		s.shutdown()
	}
}

// Status reports the live state of all slots.
func (e *Engine) Status() []SlotStatus {
	out := make([]SlotStatus, 0, len(e.slots))
	for i, s := range e.slots {
		pan, zoom, trans := s.status()
		out = append(out, SlotStatus{
			Slot:          i + 1,
			Enabled:       e.cfgs.Slot(i).Enabled,
			PanActive:     pan,
			ZoomActive:    zoom,
			Transitioning: trans,
		})
	}
	return out
}
