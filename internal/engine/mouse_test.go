package engine

import (
	"testing"

	"panzoomer/internal/display"
)

func TestSampleMouseInside(t *testing.T) {
	mon := display.Monitor{ID: 1, X: 1920, Y: 0, Width: 1920, Height: 1080}

	s := sampleMouse(mon, 1920+480, 540, true)
	if !s.inside {
		t.Fatal("cursor inside monitor reported outside")
	}
	if s.xPct != 0.25 || s.yPct != 0.5 {
		t.Errorf("pct = (%v,%v), want (0.25,0.5)", s.xPct, s.yPct)
	}
}

func TestSampleMouseOutsideClampsPct(t *testing.T) {
	mon := display.Monitor{ID: 1, X: 0, Y: 0, Width: 1920, Height: 1080}

	s := sampleMouse(mon, -100, 2000, true)
	if s.inside {
		t.Error("cursor off the monitor reported inside")
	}
	if s.xPct != 0 || s.yPct != 1 {
		t.Errorf("pct = (%v,%v), want clamped (0,1)", s.xPct, s.yPct)
	}
}

func TestSampleMouseRightEdgeIsOutside(t *testing.T) {
	mon := display.Monitor{ID: 1, X: 0, Y: 0, Width: 1920, Height: 1080}
	if s := sampleMouse(mon, 1920, 540, true); s.inside {
		t.Error("cursor on the exclusive right edge reported inside")
	}
	if s := sampleMouse(mon, 1919, 540, true); !s.inside {
		t.Error("cursor on the last column reported outside")
	}
}

func TestSampleMouseVirtualScreenAlwaysInside(t *testing.T) {
	mon := display.Monitor{ID: display.VirtualScreenID, X: -1920, Y: 0, Width: 3840, Height: 1080}
	if s := sampleMouse(mon, 99999, -99999, true); !s.inside {
		t.Error("virtual screen sample reported outside")
	}
}

func TestSampleMouseCursorFailureCenters(t *testing.T) {
	mon := display.Monitor{ID: 1, X: 100, Y: 100, Width: 1000, Height: 500}
	s := sampleMouse(mon, 0, 0, false)
	if !s.inside || s.xPct != 0.5 || s.yPct != 0.5 {
		t.Errorf("failed read sample = %+v, want monitor center", s)
	}
}

func TestSampleMouseDegenerateMonitor(t *testing.T) {
	s := sampleMouse(display.Monitor{ID: 1}, 10, 10, true)
	if !s.inside || s.xPct != 0.5 || s.yPct != 0.5 {
		t.Errorf("degenerate monitor sample = %+v, want safe center", s)
	}
}
