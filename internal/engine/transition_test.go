package engine

import (
	"math"
	"testing"
	"time"
)

func TestEaseInOutQuadShape(t *testing.T) {
	if got := easeInOutQuad(0); got != 0 {
		t.Errorf("ease(0) = %v, want 0", got)
	}
	if got := easeInOutQuad(1); got != 1 {
		t.Errorf("ease(1) = %v, want 1", got)
	}
	if got := easeInOutQuad(0.5); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("ease(0.5) = %v, want 0.5", got)
	}

	prev := easeInOutQuad(0)
	for i := 1; i <= 100; i++ {
		v := easeInOutQuad(float64(i) / 100)
		if v < prev {
			t.Fatalf("easing not monotonic at %d/100: %v < %v", i, v, prev)
		}
		prev = v
	}

	// Slow start, slow finish: the first tenth covers less ground than
	// a middle tenth.
	if easeInOutQuad(0.1) >= easeInOutQuad(0.55)-easeInOutQuad(0.45) {
		t.Error("easing does not start slow")
	}
}

func TestTransitionInterpolates(t *testing.T) {
	start := time.Unix(500, 0)
	var tr transition
	tr.begin(start, 1.0, 3.0, 0.4, true)

	if v, done := tr.value(start); done || math.Abs(v-1.0) > 1e-9 {
		t.Errorf("value at start = %v done=%v, want 1.0 in flight", v, done)
	}
	if v, done := tr.value(start.Add(200 * time.Millisecond)); done || math.Abs(v-2.0) > 1e-9 {
		t.Errorf("value at midpoint = %v done=%v, want 2.0 in flight", v, done)
	}
	if v, done := tr.value(start.Add(400 * time.Millisecond)); !done || v != 3.0 {
		t.Errorf("value at end = %v done=%v, want exactly 3.0 done", v, done)
	}
	if v, done := tr.value(start.Add(time.Hour)); !done || v != 3.0 {
		t.Errorf("value long after end = %v done=%v, want 3.0 done", v, done)
	}
}

func TestTransitionZeroDurationCompletesImmediately(t *testing.T) {
	start := time.Unix(500, 0)
	var tr transition
	tr.begin(start, 1.0, 2.5, 0, true)

	if v, done := tr.value(start); !done || v != 2.5 {
		t.Errorf("zero-duration value = %v done=%v, want 2.5 done", v, done)
	}
}

func TestTransitionRetriggerContinuity(t *testing.T) {
	start := time.Unix(500, 0)
	var tr transition
	tr.begin(start, 1.0, 4.0, 1.0, true)

	mid := start.Add(300 * time.Millisecond)
	level, _ := tr.value(mid)

	// Reversing mid-flight seeds the new ramp with the sampled level;
	// the value right after the restart must match it.
	tr.begin(mid, level, 1.0, 0.5, false)
	got, done := tr.value(mid)
	if done || math.Abs(got-level) > 1e-9 {
		t.Errorf("retriggered value = %v, want %v with no jump", got, level)
	}
}

func TestTransitionClockSkewBeforeStart(t *testing.T) {
	start := time.Unix(500, 0)
	var tr transition
	tr.begin(start, 1.0, 2.0, 0.5, true)

	if v, done := tr.value(start.Add(-time.Second)); done || math.Abs(v-1.0) > 1e-9 {
		t.Errorf("value before start = %v done=%v, want clamped to 1.0", v, done)
	}
}
