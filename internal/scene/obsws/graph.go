package obsws

import (
	"errors"
	"fmt"

	"panzoomer/internal/scene"
)

// wireTransform mirrors the sceneItemTransform object of the protocol.
type wireTransform struct {
	PositionX    float64 `json:"positionX"`
	PositionY    float64 `json:"positionY"`
	ScaleX       float64 `json:"scaleX"`
	ScaleY       float64 `json:"scaleY"`
	Rotation     float64 `json:"rotation"`
	Alignment    uint32  `json:"alignment"`
	BoundsType   string  `json:"boundsType"`
	BoundsWidth  float64 `json:"boundsWidth"`
	BoundsHeight float64 `json:"boundsHeight"`
	CropLeft     int     `json:"cropLeft"`
	CropTop      int     `json:"cropTop"`
	CropRight    int     `json:"cropRight"`
	CropBottom   int     `json:"cropBottom"`
	SourceWidth  float64 `json:"sourceWidth"`
	SourceHeight float64 `json:"sourceHeight"`
}

func (w wireTransform) toScene() scene.Transform {
	return scene.Transform{
		Pos:          scene.Vec2{X: w.PositionX, Y: w.PositionY},
		Scale:        scene.Vec2{X: w.ScaleX, Y: w.ScaleY},
		Rotation:     w.Rotation,
		Alignment:    scene.Alignment(w.Alignment),
		BoundsType:   w.BoundsType,
		Bounds:       scene.Vec2{X: w.BoundsWidth, Y: w.BoundsHeight},
		Crop:         scene.Crop{Left: w.CropLeft, Top: w.CropTop, Right: w.CropRight, Bottom: w.CropBottom},
		SourceWidth:  w.SourceWidth,
		SourceHeight: w.SourceHeight,
	}
}

// sceneTarget builds the scene selector fields, preferring UUID.
func sceneTarget(s scene.Ref) map[string]interface{} {
	m := map[string]interface{}{}
	if s.UUID != "" {
		m["sceneUuid"] = s.UUID
	} else {
		m["sceneName"] = s.Name
	}
	return m
}

// CanvasSize implements scene.Graph via GetVideoSettings.
func (c *Client) CanvasSize() (float64, float64, error) {
	var out struct {
		BaseWidth  float64 `json:"baseWidth"`
		BaseHeight float64 `json:"baseHeight"`
	}
	if err := c.call("GetVideoSettings", nil, &out); err != nil {
		return 0, 0, err
	}
	return out.BaseWidth, out.BaseHeight, nil
}

// SceneSize is unsupported over obs-websocket; scenes carry no
// intrinsic size on the wire. Callers fall through to the item
// bounding box and the canvas size.
func (c *Client) SceneSize(scene.Ref) (float64, float64, error) {
	return 0, 0, scene.ErrUnsupported
}

// ListItems implements scene.Graph via GetSceneItemList.
func (c *Client) ListItems(s scene.Ref) ([]scene.ItemInfo, error) {
	var out struct {
		SceneItems []struct {
			SceneItemID        int           `json:"sceneItemId"`
			SourceName         string        `json:"sourceName"`
			SourceUUID         string        `json:"sourceUuid"`
			SceneItemTransform wireTransform `json:"sceneItemTransform"`
		} `json:"sceneItems"`
	}
	if err := c.call("GetSceneItemList", sceneTarget(s), &out); err != nil {
		if errors.Is(err, scene.ErrSourceNotFound) {
			return nil, fmt.Errorf("scene %q: %w", s.Name, scene.ErrSceneNotFound)
		}
		return nil, err
	}

	infos := make([]scene.ItemInfo, 0, len(out.SceneItems))
	for _, it := range out.SceneItems {
		infos = append(infos, scene.ItemInfo{
			ID:        it.SceneItemID,
			Source:    scene.Ref{Name: it.SourceName, UUID: it.SourceUUID},
			Transform: it.SceneItemTransform.toScene(),
		})
	}
	return infos, nil
}

// FindItem implements scene.Graph: UUID match first, then name match,
// within the given scene only.
func (c *Client) FindItem(s scene.Ref, source scene.Ref) (scene.Item, error) {
	infos, err := c.ListItems(s)
	if err != nil {
		return nil, err
	}

	match := -1
	if source.UUID != "" {
		for i, info := range infos {
			if info.Source.UUID == source.UUID {
				match = i
				break
			}
		}
	}
	if match < 0 && source.Name != "" {
		for i, info := range infos {
			if info.Source.Name == source.Name {
				match = i
				break
			}
		}
	}
	if match < 0 {
		return nil, fmt.Errorf("source %q in scene %q: %w", source.Name, s.Name, scene.ErrItemNotFound)
	}

	return &sceneItem{
		c:      c,
		scene:  s,
		itemID: infos[match].ID,
		name:   infos[match].Source.Name,
	}, nil
}

// CurrentScene implements scene.Graph via GetCurrentProgramScene.
func (c *Client) CurrentScene() (scene.Ref, error) {
	var out struct {
		SceneName string `json:"sceneName"`
		SceneUUID string `json:"sceneUuid"`
		// Older field name kept by the protocol for compatibility.
		CurrentProgramSceneName string `json:"currentProgramSceneName"`
	}
	if err := c.call("GetCurrentProgramScene", nil, &out); err != nil {
		return scene.Ref{}, err
	}
	name := out.SceneName
	if name == "" {
		name = out.CurrentProgramSceneName
	}
	return scene.Ref{Name: name, UUID: out.SceneUUID}, nil
}

// DirectSource implements scene.Graph: it verifies the input exists,
// discovers which settings keys carry its position, and returns a
// handle that writes those keys.
func (c *Client) DirectSource(source scene.Ref) (scene.Item, error) {
	target := map[string]interface{}{}
	if source.UUID != "" {
		target["inputUuid"] = source.UUID
	} else {
		target["inputName"] = source.Name
	}

	var out struct {
		InputKind     string                 `json:"inputKind"`
		InputSettings map[string]interface{} `json:"inputSettings"`
	}
	if err := c.call("GetInputSettings", target, &out); err != nil {
		return nil, err
	}

	d := &directItem{
		c:      c,
		target: target,
		name:   source.Name,
		scale:  scene.Vec2{X: 1, Y: 1},
	}
	d.xProp, d.yProp = discoverPosProps(out.InputSettings)
	return d, nil
}

// Candidate settings keys used by positionable plugin sources. When
// none matches, writes fan out over all candidates, the strategy the
// adapter keeps hidden from the engine.
var (
	xPropCandidates = []string{"x", "position_x", "positionX"}
	yPropCandidates = []string{"y", "position_y", "positionY"}
)

func discoverPosProps(settings map[string]interface{}) (xProp, yProp string) {
	for _, k := range xPropCandidates {
		if _, ok := settings[k]; ok {
			xProp = k
			break
		}
	}
	for _, k := range yPropCandidates {
		if _, ok := settings[k]; ok {
			yProp = k
			break
		}
	}
	return xProp, yProp
}
