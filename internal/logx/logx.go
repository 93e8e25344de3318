// Package logx provides small logging helpers on top of the standard
// log package, mainly a per-key warning throttle so per-tick code paths
// cannot flood the log.
package logx

import (
	"log"
	"sync"
	"time"
)

// Throttle rate-limits log lines per key. The zero value is not usable,
// use NewThrottle.
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	last     map[string]time.Time
	now      func() time.Time
}

// NewThrottle creates a Throttle that lets one line per key through
// every interval.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{
		interval: interval,
		last:     make(map[string]time.Time),
		now:      time.Now,
	}
}

// Warnf logs the formatted message unless the same key already logged
// within the throttle interval.
func (t *Throttle) Warnf(key, format string, args ...interface{}) {
	if t.allow(key) {
		log.Printf("WARNING: "+format, args...)
	}
}

// Errorf is Warnf at error severity.
func (t *Throttle) Errorf(key, format string, args ...interface{}) {
	if t.allow(key) {
		log.Printf("ERROR: "+format, args...)
	}
}

func (t *Throttle) allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if last, ok := t.last[key]; ok && now.Sub(last) < t.interval {
		return false
	}
	t.last[key] = now
	return true
}
