// Package display provides monitor enumeration and geometry resolution
// for mouse tracking. Monitor ID 0 is the virtual screen covering all
// monitors; individual monitors are numbered from 1 in enumeration
// order.
package display

import (
	"log"
	"sync"
	"time"

	"panzoomer/internal/logx"
)

// VirtualScreenID selects the bounding rectangle of all monitors.
const VirtualScreenID = 0

// Monitor describes one display rectangle in global screen coordinates.
type Monitor struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Primary bool   `json:"primary"`
}

// DefaultMonitor is the fallback geometry used when enumeration fails
// or the selected monitor no longer exists.
var DefaultMonitor = Monitor{
	ID:     VirtualScreenID,
	Name:   "Default Monitor",
	Width:  1920,
	Height: 1080,
}

// Resolver caches the monitor list and maps monitor IDs to rectangles.
// The cache survives until Invalidate is called, e.g. from the refresh
// endpoint after displays were plugged or unplugged.
type Resolver struct {
	mu       sync.Mutex
	monitors []Monitor
	enum     func() []Monitor
	warn     *logx.Throttle
}

// NewResolver creates a Resolver backed by the platform enumerator.
func NewResolver() *Resolver {
	return &Resolver{
		enum: enumMonitors,
		warn: logx.NewThrottle(5 * time.Second),
	}
}

// List returns all known monitors, enumerating on first use.
func (r *Resolver) List() []Monitor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Monitor(nil), r.list()...)
}

func (r *Resolver) list() []Monitor {
	if r.monitors == nil {
		r.monitors = r.enum()
		if len(r.monitors) == 0 {
			r.warn.Warnf("enum", "Display: no monitors enumerated, using default geometry")
			r.monitors = []Monitor{DefaultMonitor}
		} else {
			log.Printf("Display: enumerated %d monitor entries", len(r.monitors))
		}
	}
	return r.monitors
}

// RectFor resolves a monitor ID to its rectangle. Unknown IDs fall back
// to the first enumerated monitor (usually the virtual screen), or to
// DefaultMonitor when even that is missing. It never fails; failures
// degrade to a usable rectangle with a throttled warning.
func (r *Resolver) RectFor(id int) Monitor {
	r.mu.Lock()
	defer r.mu.Unlock()

	monitors := r.list()
	for _, m := range monitors {
		if m.ID == id {
			return m
		}
	}

	r.warn.Warnf("rectfor", "Display: monitor ID %d not found, using %q instead", id, monitors[0].Name)
	return monitors[0]
}

// Invalidate drops the cached monitor list so the next query
// re-enumerates.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	r.monitors = nil
	r.mu.Unlock()
}
