package engine

import "panzoomer/internal/display"

// mouseSample is the cursor position expressed as a fraction of the
// tracked monitor's rectangle.
type mouseSample struct {
	xPct   float64
	yPct   float64
	inside bool
}

// sampleMouse converts a global cursor position into monitor-relative
// percentages clamped to [0,1]. The inside flag uses the unclamped
// relative coordinates and is always true for the virtual screen; when
// the cursor read failed, the monitor center is substituted so the
// pipeline keeps producing a stable position.
func sampleMouse(mon display.Monitor, cx, cy int, cursorOK bool) mouseSample {
	if mon.Width <= 0 || mon.Height <= 0 {
		return mouseSample{xPct: 0.5, yPct: 0.5, inside: true}
	}
	if !cursorOK {
		cx = mon.X + mon.Width/2
		cy = mon.Y + mon.Height/2
	}

	relX := float64(cx - mon.X)
	relY := float64(cy - mon.Y)

	s := mouseSample{
		xPct:   clamp01(relX / float64(mon.Width)),
		yPct:   clamp01(relY / float64(mon.Height)),
		inside: true,
	}
	if mon.ID != display.VirtualScreenID {
		s.inside = relX >= 0 && relX < float64(mon.Width) &&
			relY >= 0 && relY < float64(mon.Height)
	}
	return s
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
