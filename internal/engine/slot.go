package engine

import (
	"log"
	"math"
	"strconv"
	"sync"
	"time"

	"panzoomer/internal/config"
	"panzoomer/internal/display"
	"panzoomer/internal/logx"
	"panzoomer/internal/scene"
)

// maxCoord is the plausibility ceiling for computed scene positions.
// Anything beyond it means the math went wrong and the frame is skipped.
const maxCoord = 30000

// Slot is the pan/zoom controller for one configuration. Toggles
// arrive from hotkey, tray and API goroutines; update runs on the
// tick goroutine. The mutex covers all of it.
type Slot struct {
	mu  sync.Mutex
	num int

	panEnabled  bool
	zoomEnabled bool
	alignOK     bool

	cap   capture
	trans transition
	item  scene.Item
}

func newSlot(num int) *Slot {
	return &Slot{num: num}
}

// togglePan flips panning for this slot. Enabling takes the geometry
// snapshot (viewport, target baseline, crop) that every later tick
// maps against; disabling restores the target and releases handles.
func (s *Slot) togglePan(g scene.Graph, cfg config.Slot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !cfg.Enabled {
		log.Printf("Engine: slot %d is disabled, ignoring pan toggle", s.num)
		return
	}

	if s.panEnabled {
		s.disableLocked()
		return
	}

	if cfg.TargetName == "" && cfg.TargetUUID == "" {
		log.Printf("ERROR: slot %d cannot enable panning: no target source selected", s.num)
		return
	}
	if cfg.ViewportName == "" && cfg.ViewportUUID == "" {
		if cfg.SceneName != "" || cfg.SceneUUID != "" {
			log.Printf("WARNING: slot %d has no viewport source, falling back to scene dimensions", s.num)
			cfg.ViewportName = config.UseSceneDimensions
		} else {
			log.Printf("ERROR: slot %d cannot enable panning: no viewport source selected", s.num)
			return
		}
	}

	s.cap = capture{}
	w, h, center, alignOK, err := captureViewport(g, cfg, s.num)
	if err != nil {
		log.Printf("ERROR: slot %d cannot enable panning: %v", s.num, err)
		return
	}
	s.cap.viewportW, s.cap.viewportH = w, h
	s.cap.viewportCenter = center
	s.alignOK = alignOK

	item, err := resolveTarget(g, cfg)
	if err != nil {
		log.Printf("ERROR: slot %d cannot enable panning: %v", s.num, err)
		s.cap = capture{}
		return
	}

	if item.Direct() {
		log.Printf("WARNING: slot %d direct source mode cannot change alignment, set Center alignment manually", s.num)
	} else if err := item.SetAlignment(scene.AlignCenter); err != nil {
		log.Printf("WARNING: slot %d could not set center alignment on target: %v", s.num, err)
	}

	captureTarget(item, &s.cap, s.num)

	s.item = item
	s.panEnabled = true
	log.Printf("Engine: slot %d panning ENABLED for %q", s.num, cfg.TargetName)
}

// disableLocked tears panning down. Safe to call repeatedly; the
// caller holds the mutex.
func (s *Slot) disableLocked() {
	if !s.panEnabled && s.item == nil {
		return
	}

	s.trans.active = false
	s.zoomEnabled = false
	s.panEnabled = false

	if s.item != nil {
		if s.cap.valid {
			if err := s.item.Apply(s.cap.initialPos, &s.cap.initialScale); err != nil {
				log.Printf("ERROR: slot %d could not restore target transform: %v", s.num, err)
			}
			if !s.item.Direct() {
				if err := s.item.SetAlignment(scene.AlignCenter); err != nil {
					log.Printf("WARNING: slot %d could not keep center alignment: %v", s.num, err)
				}
				// Leave the target centered on the viewport rather
				// than wherever the cursor last parked it.
				if s.cap.viewportW > 0 && s.cap.viewportH > 0 {
					if err := s.item.Apply(s.cap.viewportCenter, nil); err != nil {
						log.Printf("ERROR: slot %d could not re-center target: %v", s.num, err)
					}
				}
			}
		}
		s.item.Release()
		s.item = nil
	}

	s.cap = capture{}
	s.alignOK = false
	log.Printf("Engine: slot %d panning DISABLED, resources released", s.num)
}

// toggleZoom flips the zoom state and starts an eased transition.
// Zooming in always ramps from 1.0; zooming out ramps from wherever
// the zoom currently is, including mid-transition.
func (s *Slot) toggleZoom(cfg config.Slot, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !cfg.Enabled {
		log.Printf("Engine: slot %d is disabled, ignoring zoom toggle", s.num)
		return
	}
	if !s.panEnabled {
		log.Printf("Engine: slot %d cannot toggle zooming: panning must be enabled first", s.num)
		return
	}
	if s.cap.viewportW <= 0 || s.cap.viewportH <= 0 {
		log.Printf("Engine: slot %d cannot toggle zooming: viewport not captured", s.num)
		return
	}
	if s.item == nil {
		log.Printf("WARNING: slot %d cannot start zoom transition: no target item", s.num)
		return
	}

	s.zoomEnabled = !s.zoomEnabled

	if s.zoomEnabled {
		s.trans.begin(now, 1.0, cfg.ZoomLevel, cfg.ZoomInDuration, true)
		log.Printf("Engine: slot %d zooming IN to %.2fx over %.2fs", s.num, cfg.ZoomLevel, cfg.ZoomInDuration)
	} else {
		from := cfg.ZoomLevel
		if s.trans.active {
			from, _ = s.trans.value(now)
		}
		s.trans.begin(now, from, 1.0, cfg.ZoomOutDuration, false)
		log.Printf("Engine: slot %d zooming OUT to 1.0x over %.2fs from %.2fx", s.num, cfg.ZoomOutDuration, from)
	}
}

// update runs one tick of the mapping: advance the zoom transition,
// map the cursor to a target position, clamp it against the viewport
// and write the result.
func (s *Slot) update(cfg config.Slot, mon display.Monitor, cx, cy int, cursorOK bool, now time.Time, warn *logx.Throttle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !cfg.Enabled || !s.panEnabled {
		s.trans.active = false
		return
	}
	if s.cap.viewportW <= 0 || s.cap.viewportH <= 0 || !s.cap.valid {
		return
	}
	if s.item == nil {
		return
	}

	if !s.alignOK && !cfg.UsesSceneDimensions() {
		warn.Warnf(alignWarnKey(s.num), "slot %d viewport anchor is not Top Left, mapping will be offset", s.num)
	}

	level := 1.0
	if s.zoomEnabled || s.trans.active {
		level = cfg.ZoomLevel
		if s.trans.active {
			v, done := s.trans.value(now)
			level = v
			if done {
				s.trans.active = false
			}
		}
	}
	// Evaluated after a finished transition deactivates, so the scale
	// write stops on the same tick the zoom-out lands.
	writeScale := s.zoomEnabled || s.trans.active

	samp := sampleMouse(mon, cx, cy, cursorOK)
	if !samp.inside {
		return
	}

	scaleX := s.cap.initialScale.X * level
	scaleY := s.cap.initialScale.Y * level

	visibleW := s.cap.baseW - float64(s.cap.crop.Left) - float64(s.cap.crop.Right)
	visibleH := s.cap.baseH - float64(s.cap.crop.Top) - float64(s.cap.crop.Bottom)

	// Map the cursor into full-source coordinates, then express it as
	// an offset from the center of the cropped (visible) region.
	fullX := samp.xPct * s.cap.baseW
	fullY := samp.yPct * s.cap.baseH
	visCenterX := float64(s.cap.crop.Left) + visibleW/2
	visCenterY := float64(s.cap.crop.Top) + visibleH/2

	posX := s.cap.viewportCenter.X - (fullX-visCenterX)*scaleX + float64(cfg.OffsetX)
	posY := s.cap.viewportCenter.Y - (fullY-visCenterY)*scaleY + float64(cfg.OffsetY)

	visibleWScene := visibleW * scaleX
	visibleHScene := visibleH * scaleY

	vpLeft := s.cap.viewportCenter.X - s.cap.viewportW/2
	vpRight := s.cap.viewportCenter.X + s.cap.viewportW/2
	vpTop := s.cap.viewportCenter.Y - s.cap.viewportH/2
	vpBottom := s.cap.viewportCenter.Y + s.cap.viewportH/2

	// Keep the visible region covering the viewport when it is large
	// enough; center it exactly when it is not.
	if visibleWScene > s.cap.viewportW {
		if left := posX - visibleWScene/2; left > vpLeft {
			posX -= left - vpLeft
		} else if right := posX + visibleWScene/2; right < vpRight {
			posX += vpRight - right
		}
	} else {
		posX = s.cap.viewportCenter.X
	}
	if visibleHScene > s.cap.viewportH {
		if top := posY - visibleHScene/2; top > vpTop {
			posY -= top - vpTop
		} else if bottom := posY + visibleHScene/2; bottom < vpBottom {
			posY += vpBottom - bottom
		}
	} else {
		posY = s.cap.viewportCenter.Y
	}

	if math.IsNaN(posX) || math.IsNaN(posY) ||
		math.IsInf(posX, 0) || math.IsInf(posY, 0) ||
		math.Abs(posX) > maxCoord || math.Abs(posY) > maxCoord {
		warn.Errorf(sanityWarnKey(s.num), "slot %d computed implausible position (%.1f,%.1f), skipping frame", s.num, posX, posY)
		return
	}

	var scalePtr *scene.Vec2
	if writeScale {
		scalePtr = &scene.Vec2{X: scaleX, Y: scaleY}
	}
	if err := s.item.Apply(scene.Vec2{X: posX, Y: posY}, scalePtr); err != nil {
		warn.Errorf(applyWarnKey(s.num), "slot %d could not apply transform: %v", s.num, err)
	}
}

func (s *Slot) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disableLocked()
}

func (s *Slot) status() (pan, zoom, transitioning bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panEnabled, s.zoomEnabled, s.trans.active
}

func alignWarnKey(num int) string  { return "align-" + strconv.Itoa(num) }
func sanityWarnKey(num int) string { return "sanity-" + strconv.Itoa(num) }
func applyWarnKey(num int) string  { return "apply-" + strconv.Itoa(num) }
