package obsws

import (
	"sync"

	"panzoomer/internal/scene"
)

// sceneItem is a held handle on an item placed in a scene. There is no
// reference counting over the wire; Release just invalidates the
// handle so use-after-release is caught locally.
type sceneItem struct {
	c      *Client
	scene  scene.Ref
	itemID int
	name   string

	mu       sync.Mutex
	released bool
}

func (s *sceneItem) Name() string { return s.name }
func (s *sceneItem) Direct() bool { return false }

func (s *sceneItem) target() map[string]interface{} {
	m := sceneTarget(s.scene)
	m["sceneItemId"] = s.itemID
	return m
}

func (s *sceneItem) live() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.released
}

func (s *sceneItem) Transform() (scene.Transform, error) {
	if !s.live() {
		return scene.Transform{}, scene.ErrReleased
	}
	var out struct {
		SceneItemTransform wireTransform `json:"sceneItemTransform"`
	}
	if err := s.c.call("GetSceneItemTransform", s.target(), &out); err != nil {
		return scene.Transform{}, err
	}
	return out.SceneItemTransform.toScene(), nil
}

func (s *sceneItem) Apply(pos scene.Vec2, sc *scene.Vec2) error {
	if !s.live() {
		return scene.ErrReleased
	}
	transform := map[string]interface{}{
		"positionX": pos.X,
		"positionY": pos.Y,
	}
	if sc != nil {
		transform["scaleX"] = sc.X
		transform["scaleY"] = sc.Y
	}
	req := s.target()
	req["sceneItemTransform"] = transform
	return s.c.call("SetSceneItemTransform", req, nil)
}

func (s *sceneItem) SetAlignment(a scene.Alignment) error {
	if !s.live() {
		return scene.ErrReleased
	}
	req := s.target()
	req["sceneItemTransform"] = map[string]interface{}{"alignment": uint32(a)}
	return s.c.call("SetSceneItemTransform", req, nil)
}

func (s *sceneItem) Release() {
	s.mu.Lock()
	s.released = true
	s.mu.Unlock()
}

// directItem drives a source through its raw input settings when it is
// not placed in any scene. Position writes use the discovered settings
// keys, or fan out over all candidates when discovery found none.
// Transform reads return the last written values; the capture layer
// substitutes degraded defaults for the unknown native size.
type directItem struct {
	c      *Client
	target map[string]interface{}
	name   string
	xProp  string
	yProp  string

	mu       sync.Mutex
	released bool
	pos      scene.Vec2
	scale    scene.Vec2
}

func (d *directItem) Name() string { return d.name }
func (d *directItem) Direct() bool { return true }

func (d *directItem) Transform() (scene.Transform, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return scene.Transform{}, scene.ErrReleased
	}
	return scene.Transform{
		Pos:   d.pos,
		Scale: d.scale,
	}, nil
}

func (d *directItem) Apply(pos scene.Vec2, sc *scene.Vec2) error {
	d.mu.Lock()
	if d.released {
		d.mu.Unlock()
		return scene.ErrReleased
	}
	d.pos = pos
	if sc != nil {
		d.scale = *sc
	}
	xProp, yProp := d.xProp, d.yProp
	d.mu.Unlock()

	settings := map[string]interface{}{}
	if xProp != "" && yProp != "" {
		settings[xProp] = pos.X
		settings[yProp] = pos.Y
	} else {
		for _, k := range xPropCandidates {
			settings[k] = pos.X
		}
		for _, k := range yPropCandidates {
			settings[k] = pos.Y
		}
	}

	req := map[string]interface{}{
		"inputSettings": settings,
		"overlay":       true,
	}
	for k, v := range d.target {
		req[k] = v
	}
	return d.c.call("SetInputSettings", req, nil)
}

// SetAlignment is not available on direct handles; the caller logs and
// continues per the degraded-capture contract.
func (d *directItem) SetAlignment(scene.Alignment) error {
	return scene.ErrUnsupported
}

func (d *directItem) Release() {
	d.mu.Lock()
	d.released = true
	d.mu.Unlock()
}
