package engine

import (
	"errors"
	"fmt"
	"log"

	"panzoomer/internal/config"
	"panzoomer/internal/scene"
)

// capture is the one-time geometry snapshot taken when panning is
// enabled. It is the pan/zoom baseline for every later tick and the
// restore target when panning is disabled.
type capture struct {
	valid bool

	viewportW      float64
	viewportH      float64
	viewportCenter scene.Vec2

	baseW float64
	baseH float64
	crop  scene.Crop

	initialPos   scene.Vec2
	initialScale scene.Vec2
}

// sceneDimensions resolves a scene's drawable size: intrinsic size
// first, then the bounding box of its items, then the canvas
// resolution, finally a 1920x1080 default.
func sceneDimensions(g scene.Graph, s scene.Ref) (float64, float64, error) {
	w, h, err := g.SceneSize(s)
	if err == nil && w > 0 && h > 0 {
		return w, h, nil
	}
	if err != nil && !errors.Is(err, scene.ErrUnsupported) {
		return 0, 0, err
	}

	items, err := g.ListItems(s)
	if err != nil {
		return 0, 0, err
	}
	if w, h, ok := itemsBounds(items); ok {
		return w, h, nil
	}

	if w, h, err := g.CanvasSize(); err == nil && w > 0 && h > 0 {
		return w, h, nil
	}
	return 1920, 1080, nil
}

// itemsBounds computes the bounding box of all items, treating each
// item's position as its center.
func itemsBounds(items []scene.ItemInfo) (float64, float64, bool) {
	found := false
	var minX, minY, maxX, maxY float64
	for _, it := range items {
		t := it.Transform
		if t.SourceWidth <= 0 || t.SourceHeight <= 0 {
			continue
		}
		halfW := t.SourceWidth * t.Scale.X / 2
		halfH := t.SourceHeight * t.Scale.Y / 2
		left, top := t.Pos.X-halfW, t.Pos.Y-halfH
		right, bottom := t.Pos.X+halfW, t.Pos.Y+halfH
		if !found {
			minX, minY, maxX, maxY = left, top, right, bottom
			found = true
			continue
		}
		minX = minf(minX, left)
		minY = minf(minY, top)
		maxX = maxf(maxX, right)
		maxY = maxf(maxY, bottom)
	}
	if !found {
		return 0, 0, false
	}
	return maxX - minX, maxY - minY, true
}

// captureViewport resolves the viewport rectangle once, per the slot's
// mode. alignOK reports whether a viewport item carries the required
// top-left anchor; scene-dimensions mode is always aligned.
func captureViewport(g scene.Graph, cfg config.Slot, num int) (w, h float64, center scene.Vec2, alignOK bool, err error) {
	sceneRef := scene.Ref{Name: cfg.SceneName, UUID: cfg.SceneUUID}

	if cfg.UsesSceneDimensions() {
		if sceneRef.Zero() {
			return 0, 0, scene.Vec2{}, false, fmt.Errorf("no target scene configured")
		}
		w, h, err = sceneDimensions(g, sceneRef)
		if err != nil {
			return 0, 0, scene.Vec2{}, false, fmt.Errorf("scene dimensions: %w", err)
		}
		log.Printf("Engine: slot %d using scene dimensions %dx%d", num, int(w), int(h))
		// A scene's own origin is its top-left corner.
		return w, h, scene.Vec2{X: w / 2, Y: h / 2}, true, nil
	}

	viewportRef := scene.Ref{Name: cfg.ViewportName, UUID: cfg.ViewportUUID}
	item, err := g.FindItem(sceneRef, viewportRef)
	if err != nil && !sceneRef.Zero() {
		// Not in the configured scene; try the scene currently in
		// program before giving up.
		if cur, curErr := g.CurrentScene(); curErr == nil {
			if it, findErr := g.FindItem(cur, viewportRef); findErr == nil {
				item, err = it, nil
			}
		}
	}
	if err != nil {
		return 0, 0, scene.Vec2{}, false, fmt.Errorf("viewport source %q: %w", cfg.ViewportName, err)
	}
	defer item.Release()

	t, err := item.Transform()
	if err != nil {
		return 0, 0, scene.Vec2{}, false, fmt.Errorf("viewport transform: %w", err)
	}

	w = t.SourceWidth * t.Scale.X
	h = t.SourceHeight * t.Scale.Y

	// Scale-derived size is wrong under rotation or a non-default
	// anchor; prefer the configured bounding box then.
	if (t.Rotation != 0 || t.Alignment != 0) &&
		t.BoundsType != "" && t.BoundsType != scene.BoundsNone &&
		t.Bounds.X > 0 && t.Bounds.Y > 0 {
		w, h = t.Bounds.X, t.Bounds.Y
		log.Printf("Engine: slot %d using viewport bounds %dx%d", num, int(w), int(h))
	}

	alignOK = t.Alignment == scene.AlignTopLeft
	if !alignOK {
		log.Printf("ERROR: ===============================================")
		log.Printf("ERROR: slot %d viewport %q anchor is not TOP LEFT", num, cfg.ViewportName)
		log.Printf("ERROR: current alignment 0x%04x, expected 0x%04x", uint32(t.Alignment), uint32(scene.AlignTopLeft))
		log.Printf("ERROR: the computed viewport center will be wrong until")
		log.Printf("ERROR: the positional alignment is set to Top Left")
		log.Printf("ERROR: ===============================================")
	}

	center = scene.Vec2{X: t.Pos.X + w/2, Y: t.Pos.Y + h/2}
	log.Printf("Engine: slot %d viewport %dx%d centered at (%.1f,%.1f)", num, int(w), int(h), center.X, center.Y)
	return w, h, center, alignOK, nil
}

// resolveTarget locates the target source as an item: configured scene
// first, then the scene in program, finally as a direct source handle.
func resolveTarget(g scene.Graph, cfg config.Slot) (scene.Item, error) {
	targetRef := scene.Ref{Name: cfg.TargetName, UUID: cfg.TargetUUID}
	sceneRef := scene.Ref{Name: cfg.SceneName, UUID: cfg.SceneUUID}

	var lastErr error
	if !sceneRef.Zero() {
		item, err := g.FindItem(sceneRef, targetRef)
		if err == nil {
			return item, nil
		}
		lastErr = err
	}

	if cur, err := g.CurrentScene(); err == nil {
		item, err := g.FindItem(cur, targetRef)
		if err == nil {
			return item, nil
		}
		lastErr = err
	}

	item, err := g.DirectSource(targetRef)
	if err == nil {
		log.Printf("Engine: target %q not placed in a scene, using direct source mode", cfg.TargetName)
		return item, nil
	}
	if lastErr == nil {
		lastErr = err
	}
	return nil, fmt.Errorf("target source %q: %w", cfg.TargetName, lastErr)
}

// captureTarget snapshots the target's native size, crop and initial
// transform. Unreadable values degrade to documented defaults; the
// capture is still marked valid.
func captureTarget(item scene.Item, cap *capture, num int) {
	cap.baseW, cap.baseH = 1920, 1080
	cap.initialPos = scene.Vec2{}
	cap.initialScale = scene.Vec2{X: 1, Y: 1}
	cap.crop = scene.Crop{}

	t, err := item.Transform()
	if err != nil {
		log.Printf("WARNING: slot %d could not read target transform, using defaults: %v", num, err)
		cap.valid = true
		return
	}

	if t.SourceWidth > 0 && t.SourceHeight > 0 {
		cap.baseW, cap.baseH = t.SourceWidth, t.SourceHeight
	} else {
		log.Printf("WARNING: slot %d target has no readable size, assuming %dx%d", num, int(cap.baseW), int(cap.baseH))
	}

	cap.initialPos = t.Pos
	if t.Scale.X != 0 || t.Scale.Y != 0 {
		cap.initialScale = t.Scale
	}
	if !item.Direct() {
		cap.crop = t.Crop
	}

	cap.valid = true
	log.Printf("Engine: slot %d captured baseline pos=(%.1f,%.1f) scale=(%.2f,%.2f) crop=L%d T%d R%d B%d",
		num, cap.initialPos.X, cap.initialPos.Y, cap.initialScale.X, cap.initialScale.Y,
		cap.crop.Left, cap.crop.Top, cap.crop.Right, cap.crop.Bottom)
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
