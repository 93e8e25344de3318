package engine

import (
	"errors"
	"fmt"
	"time"

	"testing"

	"panzoomer/internal/config"
	"panzoomer/internal/display"
	"panzoomer/internal/scene"
)

type applyCall struct {
	pos   scene.Vec2
	scale *scene.Vec2
}

type fakeItem struct {
	name     string
	direct   bool
	tf       scene.Transform
	tfErr    error
	applies  []applyCall
	aligns   []scene.Alignment
	released int
}

func (f *fakeItem) Name() string  { return f.name }
func (f *fakeItem) Direct() bool  { return f.direct }
func (f *fakeItem) Release()      { f.released++ }

func (f *fakeItem) Transform() (scene.Transform, error) {
	if f.tfErr != nil {
		return scene.Transform{}, f.tfErr
	}
	return f.tf, nil
}

func (f *fakeItem) Apply(pos scene.Vec2, scale *scene.Vec2) error {
	// Snapshot the scale so later mutation of the caller's struct
	// doesn't rewrite the recorded call.
	if scale != nil {
		s := *scale
		scale = &s
	}
	f.applies = append(f.applies, applyCall{pos: pos, scale: scale})
	return nil
}

func (f *fakeItem) SetAlignment(a scene.Alignment) error {
	if f.direct {
		return scene.ErrUnsupported
	}
	f.aligns = append(f.aligns, a)
	f.tf.Alignment = a
	return nil
}

func (f *fakeItem) lastApply(t *testing.T) applyCall {
	t.Helper()
	if len(f.applies) == 0 {
		t.Fatal("no transform was applied")
	}
	return f.applies[len(f.applies)-1]
}

type fakeGraph struct {
	canvasW, canvasH float64
	canvasErr        error
	sceneW, sceneH   float64
	sceneErr         error
	items            []scene.ItemInfo
	listErr          error
	byName           map[string]*fakeItem
	current          scene.Ref
	currentErr       error
	directs          map[string]*fakeItem
}

func (g *fakeGraph) CanvasSize() (float64, float64, error) {
	return g.canvasW, g.canvasH, g.canvasErr
}

func (g *fakeGraph) SceneSize(scene.Ref) (float64, float64, error) {
	if g.sceneErr != nil {
		return 0, 0, g.sceneErr
	}
	return g.sceneW, g.sceneH, nil
}

func (g *fakeGraph) ListItems(scene.Ref) ([]scene.ItemInfo, error) {
	return g.items, g.listErr
}

func (g *fakeGraph) FindItem(_ scene.Ref, src scene.Ref) (scene.Item, error) {
	if it, ok := g.byName[src.Name]; ok {
		return it, nil
	}
	return nil, fmt.Errorf("%q: %w", src.Name, scene.ErrItemNotFound)
}

func (g *fakeGraph) CurrentScene() (scene.Ref, error) {
	return g.current, g.currentErr
}

func (g *fakeGraph) DirectSource(src scene.Ref) (scene.Item, error) {
	if it, ok := g.directs[src.Name]; ok {
		return it, nil
	}
	return nil, fmt.Errorf("%q: %w", src.Name, scene.ErrSourceNotFound)
}

type fakeCursor struct {
	x, y int
	err  error
}

func (c *fakeCursor) Position() (int, int, error) { return c.x, c.y, c.err }

type fakeMonitors struct {
	mon display.Monitor
}

func (m *fakeMonitors) RectFor(int) display.Monitor { return m.mon }

type fakeConfigs struct {
	slots [config.NumSlots]config.Slot
}

func (c *fakeConfigs) Slot(i int) config.Slot { return c.slots[i] }

type fixture struct {
	graph  *fakeGraph
	cursor *fakeCursor
	mons   *fakeMonitors
	cfgs   *fakeConfigs
	eng    *Engine
	target *fakeItem
	vp     *fakeItem
	now    time.Time
}

// newFixture wires a 1920x1080 target behind an 800x600 viewport
// centered at (960,540) on a 1920x1080 monitor, cursor at the center.
func newFixture() *fixture {
	target := &fakeItem{
		name: "Game",
		tf: scene.Transform{
			Pos:          scene.Vec2{X: 960, Y: 540},
			Scale:        scene.Vec2{X: 1, Y: 1},
			SourceWidth:  1920,
			SourceHeight: 1080,
		},
	}
	vp := &fakeItem{
		name: "VP",
		tf: scene.Transform{
			Pos:          scene.Vec2{X: 560, Y: 240},
			Scale:        scene.Vec2{X: 1, Y: 1},
			Alignment:    scene.AlignTopLeft,
			SourceWidth:  800,
			SourceHeight: 600,
		},
	}

	f := &fixture{
		graph: &fakeGraph{
			canvasW: 1920, canvasH: 1080,
			sceneErr: scene.ErrUnsupported,
			byName:   map[string]*fakeItem{"Game": target, "VP": vp},
			current:  scene.Ref{Name: "Live"},
			directs:  map[string]*fakeItem{},
		},
		cursor: &fakeCursor{x: 960, y: 540},
		mons:   &fakeMonitors{mon: display.Monitor{ID: 1, X: 0, Y: 0, Width: 1920, Height: 1080}},
		cfgs:   &fakeConfigs{},
		target: target,
		vp:     vp,
		now:    time.Unix(1000, 0),
	}
	f.cfgs.slots[0] = config.Slot{
		Enabled:      true,
		TargetName:   "Game",
		ViewportName: "VP",
		SceneName:    "Game Scene",
		ZoomLevel:    2.0,
		MonitorID:    1,
	}
	f.eng = New(f.graph, f.mons, f.cursor, f.cfgs)
	f.eng.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func approx(a, b float64) bool {
	d := a - b
	return d < 0.001 && d > -0.001
}

func TestPanToggleCapturesAndMaps(t *testing.T) {
	f := newFixture()

	if err := f.eng.TogglePan(0); err != nil {
		t.Fatalf("TogglePan: %v", err)
	}
	if len(f.target.aligns) == 0 || f.target.aligns[0] != scene.AlignCenter {
		t.Errorf("expected target alignment forced to center, got %v", f.target.aligns)
	}
	if f.vp.released != 1 {
		t.Errorf("viewport handle released %d times, want 1", f.vp.released)
	}

	f.eng.Tick()
	got := f.target.lastApply(t)
	if !approx(got.pos.X, 960) || !approx(got.pos.Y, 540) {
		t.Errorf("centered cursor mapped to (%.1f,%.1f), want (960,540)", got.pos.X, got.pos.Y)
	}
	if got.scale != nil {
		t.Error("scale written while zoom is off")
	}
}

func TestEdgeCursorClampsToViewport(t *testing.T) {
	f := newFixture()
	f.eng.TogglePan(0)

	f.cursor.x, f.cursor.y = 0, 0
	f.eng.Tick()

	// Unclamped mapping would put the source at (1920,1080); clamping
	// pins its visible edges to the viewport edges instead.
	got := f.target.lastApply(t)
	if !approx(got.pos.X, 1520) || !approx(got.pos.Y, 780) {
		t.Errorf("edge cursor mapped to (%.1f,%.1f), want (1520,780)", got.pos.X, got.pos.Y)
	}
}

func TestSmallSourceStaysCentered(t *testing.T) {
	f := newFixture()
	f.target.tf.SourceWidth = 400
	f.target.tf.SourceHeight = 300
	f.eng.TogglePan(0)

	f.cursor.x, f.cursor.y = 1900, 40
	f.eng.Tick()

	got := f.target.lastApply(t)
	if !approx(got.pos.X, 960) || !approx(got.pos.Y, 540) {
		t.Errorf("small source mapped to (%.1f,%.1f), want viewport center", got.pos.X, got.pos.Y)
	}
}

func TestCropShiftsMappingAndClamp(t *testing.T) {
	f := newFixture()
	f.target.tf.Crop = scene.Crop{Left: 100, Right: 100}
	f.eng.TogglePan(0)

	// Centered cursor still maps to the viewport center with a
	// symmetric crop.
	f.eng.Tick()
	got := f.target.lastApply(t)
	if !approx(got.pos.X, 960) {
		t.Errorf("centered cursor with crop mapped to x=%.1f, want 960", got.pos.X)
	}

	// Left edge: visible half-width is 860, so the clamp pins the
	// visible left edge (pos-860) to the viewport left edge (560).
	f.cursor.x = 0
	f.eng.Tick()
	got = f.target.lastApply(t)
	if !approx(got.pos.X, 1420) {
		t.Errorf("edge cursor with crop mapped to x=%.1f, want 1420", got.pos.X)
	}
}

func TestPixelOffsetApplied(t *testing.T) {
	f := newFixture()
	f.cfgs.slots[0].OffsetX = 50
	f.cfgs.slots[0].OffsetY = -30
	f.eng.TogglePan(0)

	f.eng.Tick()
	got := f.target.lastApply(t)
	if !approx(got.pos.X, 1010) || !approx(got.pos.Y, 510) {
		t.Errorf("offset mapping gave (%.1f,%.1f), want (1010,510)", got.pos.X, got.pos.Y)
	}
}

func TestCursorOutsideMonitorFreezes(t *testing.T) {
	f := newFixture()
	f.eng.TogglePan(0)
	writes := len(f.target.applies)

	f.cursor.x, f.cursor.y = -50, 300
	f.eng.Tick()

	if len(f.target.applies) != writes {
		t.Error("transform written while cursor was off the monitor")
	}
}

func TestVirtualScreenNeverOutside(t *testing.T) {
	f := newFixture()
	f.cfgs.slots[0].MonitorID = display.VirtualScreenID
	f.mons.mon = display.Monitor{ID: display.VirtualScreenID, X: 0, Y: 0, Width: 1920, Height: 1080}
	f.eng.TogglePan(0)
	writes := len(f.target.applies)

	f.cursor.x, f.cursor.y = -400, -400
	f.eng.Tick()

	if len(f.target.applies) == writes {
		t.Fatal("virtual screen tracking skipped an update")
	}
	got := f.target.lastApply(t)
	// Percentages clamp to 0, same mapping as a (0,0) cursor.
	if !approx(got.pos.X, 1520) || !approx(got.pos.Y, 780) {
		t.Errorf("clamped virtual-screen mapping gave (%.1f,%.1f), want (1520,780)", got.pos.X, got.pos.Y)
	}
}

func TestCursorReadFailureUsesMonitorCenter(t *testing.T) {
	f := newFixture()
	f.eng.TogglePan(0)

	f.cursor.err = errors.New("no cursor")
	f.eng.Tick()

	got := f.target.lastApply(t)
	if !approx(got.pos.X, 960) || !approx(got.pos.Y, 540) {
		t.Errorf("failed cursor read mapped to (%.1f,%.1f), want monitor-center mapping", got.pos.X, got.pos.Y)
	}
}

func TestPanDisableRestoresAndReleases(t *testing.T) {
	f := newFixture()
	f.eng.TogglePan(0)
	f.cursor.x, f.cursor.y = 100, 100
	f.eng.Tick()

	f.eng.TogglePan(0)

	if f.target.released != 1 {
		t.Fatalf("target released %d times, want 1", f.target.released)
	}
	// Last writes: baseline restore with initial scale, then the
	// viewport re-center without scale.
	n := len(f.target.applies)
	if n < 2 {
		t.Fatalf("expected restore writes, got %d applies", n)
	}
	restore := f.target.applies[n-2]
	if !approx(restore.pos.X, 960) || restore.scale == nil || !approx(restore.scale.X, 1) {
		t.Errorf("baseline restore wrote %+v", restore)
	}
	center := f.target.applies[n-1]
	if !approx(center.pos.X, 960) || !approx(center.pos.Y, 540) || center.scale != nil {
		t.Errorf("re-center wrote %+v", center)
	}

	// Ticks after disable must not touch the item.
	f.eng.Tick()
	if len(f.target.applies) != n {
		t.Error("transform written after panning was disabled")
	}
}

func TestShutdownAfterDisableIsIdempotent(t *testing.T) {
	f := newFixture()
	f.eng.TogglePan(0)
	f.eng.TogglePan(0)
	n := len(f.target.applies)

	f.eng.Shutdown()

	if f.target.released != 1 {
		t.Errorf("target released %d times, want 1", f.target.released)
	}
	if len(f.target.applies) != n {
		t.Error("shutdown wrote transforms on an already-disabled slot")
	}
}

func TestZoomRequiresPanning(t *testing.T) {
	f := newFixture()
	if err := f.eng.ToggleZoom(0); err != nil {
		t.Fatalf("ToggleZoom: %v", err)
	}
	st := f.eng.Status()
	if st[0].ZoomActive || st[0].Transitioning {
		t.Error("zoom engaged without panning")
	}
}

func TestZoomTransitionScalesWrites(t *testing.T) {
	f := newFixture()
	f.cfgs.slots[0].ZoomLevel = 3.0
	f.cfgs.slots[0].ZoomInDuration = 0.4
	f.eng.TogglePan(0)
	f.eng.ToggleZoom(0)

	f.advance(200 * time.Millisecond) // halfway, eased value is 0.5
	f.eng.Tick()
	got := f.target.lastApply(t)
	if got.scale == nil || !approx(got.scale.X, 2.0) {
		t.Fatalf("mid-transition scale = %+v, want 2.0", got.scale)
	}

	f.advance(300 * time.Millisecond) // past the end
	f.eng.Tick()
	got = f.target.lastApply(t)
	if got.scale == nil || !approx(got.scale.X, 3.0) {
		t.Errorf("final scale = %+v, want exactly 3.0", got.scale)
	}
	if f.eng.Status()[0].Transitioning {
		t.Error("transition still flagged active after completion")
	}
}

func TestZoomOutMidFlightStartsFromCurrentLevel(t *testing.T) {
	f := newFixture()
	f.cfgs.slots[0].ZoomLevel = 3.0
	f.cfgs.slots[0].ZoomInDuration = 0.4
	f.cfgs.slots[0].ZoomOutDuration = 0.4
	f.eng.TogglePan(0)
	f.eng.ToggleZoom(0)

	f.advance(200 * time.Millisecond) // interpolated level is 2.0
	f.eng.ToggleZoom(0)
	f.eng.Tick()

	got := f.target.lastApply(t)
	if got.scale == nil || !approx(got.scale.X, 2.0) {
		t.Errorf("zoom-out start scale = %+v, want the interpolated 2.0", got.scale)
	}
}

func TestInstantZoomWithZeroDuration(t *testing.T) {
	f := newFixture()
	f.cfgs.slots[0].ZoomLevel = 2.0
	f.cfgs.slots[0].ZoomInDuration = 0
	f.eng.TogglePan(0)
	f.eng.ToggleZoom(0)

	f.eng.Tick()
	got := f.target.lastApply(t)
	if got.scale == nil || !approx(got.scale.X, 2.0) {
		t.Errorf("zero-duration zoom wrote scale %+v, want 2.0 on the first tick", got.scale)
	}
}

func TestZoomScalesMappingOffsets(t *testing.T) {
	f := newFixture()
	f.cfgs.slots[0].ZoomLevel = 2.0
	f.cfgs.slots[0].ZoomInDuration = 0
	f.eng.TogglePan(0)
	f.eng.ToggleZoom(0)
	f.eng.Tick() // completes the instant transition

	// Quarter-width cursor: source point 480 sits 480 left of center,
	// scaled by 2 and clamped against the 800-wide viewport.
	f.cursor.x = 480
	f.eng.Tick()
	got := f.target.lastApply(t)
	if !approx(got.pos.X, 1920) {
		t.Errorf("zoomed mapping gave x=%.1f, want 1920", got.pos.X)
	}
}

func TestImplausiblePositionSkipsWrite(t *testing.T) {
	f := newFixture()
	f.vp.tf.Pos = scene.Vec2{X: 40000, Y: 40000}
	f.eng.TogglePan(0)
	writes := len(f.target.applies)

	f.eng.Tick()
	if len(f.target.applies) != writes {
		t.Error("implausible position was written")
	}
}

func TestDisabledSlotIgnoresToggles(t *testing.T) {
	f := newFixture()
	f.cfgs.slots[0].Enabled = false
	f.eng.TogglePan(0)
	st := f.eng.Status()
	if st[0].PanActive {
		t.Error("pan engaged on a disabled slot")
	}
}

func TestSlotIndexOutOfRange(t *testing.T) {
	f := newFixture()
	if err := f.eng.TogglePan(config.NumSlots); err == nil {
		t.Error("expected error for out-of-range slot index")
	}
	if err := f.eng.ToggleZoom(-1); err == nil {
		t.Error("expected error for negative slot index")
	}
}
