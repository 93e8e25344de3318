// Package scene defines the abstraction over the compositor's scene
// graph. The engine consumes these interfaces only; the obsws
// subpackage implements them against a live OBS instance.
package scene

// Vec2 is a 2D point or size in scene coordinates.
type Vec2 struct {
	X float64
	Y float64
}

// Crop holds crop insets in source pixels.
type Crop struct {
	Left   int
	Top    int
	Right  int
	Bottom int
}

// Alignment is the anchor bitmask of a scene item. The zero value
// anchors at the item's center.
type Alignment uint32

const (
	AlignCenter Alignment = 0
	AlignLeft   Alignment = 1 << 0
	AlignRight  Alignment = 1 << 1
	AlignTop    Alignment = 1 << 2
	AlignBottom Alignment = 1 << 3

	// AlignTopLeft is the anchor required of viewport items for the
	// center computation to hold.
	AlignTopLeft = AlignLeft | AlignTop
)

// BoundsNone means the item has no bounding box configured and its
// on-screen size is source size times scale.
const BoundsNone = "OBS_BOUNDS_NONE"

// Transform is the full placement state of an item.
type Transform struct {
	Pos        Vec2
	Scale      Vec2
	Rotation   float64
	Alignment  Alignment
	BoundsType string
	Bounds     Vec2
	Crop       Crop

	// SourceWidth/SourceHeight are the native (unscaled, uncropped)
	// source dimensions. Zero when the adapter cannot determine them.
	SourceWidth  float64
	SourceHeight float64
}

// Ref identifies a scene or source by name plus an optional stable
// UUID. Resolution prefers the UUID when present.
type Ref struct {
	Name string
	UUID string
}

// Zero reports whether the ref selects nothing.
func (r Ref) Zero() bool {
	return r.Name == "" && r.UUID == ""
}

// Item is a held handle to a controllable layer: either an item placed
// in a scene or a direct source driven through its raw settings.
// Holders must call Release exactly once when done; Release is safe to
// call again and becomes a no-op.
type Item interface {
	// Name returns the source name, for logging.
	Name() string

	// Direct reports whether this is a direct-source handle. Direct
	// handles cannot report crop or have their alignment changed.
	Direct() bool

	// Transform reads the item's current placement.
	Transform() (Transform, error)

	// Apply writes the position and, when scale is non-nil, the scale.
	Apply(pos Vec2, scale *Vec2) error

	// SetAlignment changes the item's anchor.
	SetAlignment(a Alignment) error

	// Release gives up the handle. Idempotent.
	Release()
}

// ItemInfo summarizes one entry of a scene's item list.
type ItemInfo struct {
	ID        int
	Source    Ref
	Transform Transform
}

// Graph is the scene-graph adapter the engine drives. Implementations
// are expected to be synchronous and fast; calls happen on every tick.
type Graph interface {
	// CanvasSize returns the base canvas resolution.
	CanvasSize() (w, h float64, err error)

	// SceneSize returns a scene's intrinsic size, or ErrUnsupported
	// when the backend cannot report it. Callers fall back to the item
	// bounding box and then the canvas size.
	SceneSize(s Ref) (w, h float64, err error)

	// ListItems enumerates the items of a scene with their transforms.
	ListItems(s Ref) ([]ItemInfo, error)

	// FindItem locates a source placed in a scene, preferring UUID
	// match over name match, and returns a held handle.
	FindItem(s Ref, source Ref) (Item, error)

	// CurrentScene returns the scene currently in program.
	CurrentScene() (Ref, error)

	// DirectSource opens a direct handle on a source that is not
	// placed in any scene, driving it through its own settings.
	DirectSource(source Ref) (Item, error)
}
