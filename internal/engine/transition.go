package engine

import "time"

// transition tracks one eased interpolation between two zoom
// multipliers. At most one is active per slot; re-triggering mid-flight
// samples the current interpolated value as the new start so the level
// never jumps.
type transition struct {
	active    bool
	start     time.Time
	duration  float64 // seconds
	from      float64
	to        float64
	zoomingIn bool // diagnostics only
}

// begin starts (or restarts) the transition at now.
func (t *transition) begin(now time.Time, from, to, duration float64, zoomingIn bool) {
	t.active = true
	t.start = now
	t.duration = duration
	t.from = from
	t.to = to
	t.zoomingIn = zoomingIn
}

// value returns the eased zoom level at now. done reports that the
// target has been reached; the returned level is then exactly the
// target, avoiding floating residue. A non-positive duration completes
// immediately.
func (t *transition) value(now time.Time) (level float64, done bool) {
	if t.duration <= 0 {
		return t.to, true
	}
	progress := now.Sub(t.start).Seconds() / t.duration
	if progress >= 1.0 {
		return t.to, true
	}
	if progress < 0 {
		progress = 0
	}
	eased := easeInOutQuad(progress)
	return t.from + (t.to-t.from)*eased, false
}
