package render

import (
	"errors"
	"fmt"

	"github.com/inamate/inamate/canvas-go/internal/clip"
	"github.com/inamate/inamate/canvas-go/internal/geometry"
)

var ErrUnsupportedDelta = errors.New("unsupported transform delta")

// Color is an 8-bit RGBA color.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// GlobalOptions are the engine-wide settings of one render session.
type GlobalOptions struct {
	BackgroundColor Color        `json:"background_color"`
	Clip            clip.Options `json:"clip"`
}

// DefaultGlobalOptions is an opaque black background with clipping disabled
// over an empty rectangle.
func DefaultGlobalOptions() GlobalOptions {
	return GlobalOptions{
		BackgroundColor: Color{A: 255},
		Clip: clip.Options{
			Window: clip.Window{Rectangle: &clip.Rect{}},
		},
	}
}

type createBody struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type xy struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type translateBody struct {
	Offset geometry.Position `json:"offset"`
}

type rotateBody struct {
	Angle  float64           `json:"angle"`
	Center geometry.Position `json:"center"`
}

type scaleBody struct {
	Scale  xy                `json:"scale"`
	Center geometry.Position `json:"center"`
}

// TransformBody returns the {"<Kind>": {...}} object for a transform delta.
func TransformBody(d geometry.Delta) (map[string]any, error) {
	switch t := d.(type) {
	case geometry.Translate:
		return map[string]any{t.Kind(): translateBody{Offset: geometry.Pos(t.DX, t.DY)}}, nil
	case geometry.Rotate:
		return map[string]any{t.Kind(): rotateBody{Angle: t.Angle, Center: t.Center}}, nil
	case geometry.Scale:
		return map[string]any{t.Kind(): scaleBody{Scale: xy{X: t.SX, Y: t.SY}, Center: t.Center}}, nil
	default:
		return nil, fmt.Errorf("encode %T: %w", d, ErrUnsupportedDelta)
	}
}

type insertBody struct {
	Primitive map[string]any `json:"Primitive"`
	Index     int            `json:"Index"`
}

type modifyBody struct {
	Primitive any `json:"Primitive"`
	Index     int `json:"Index"`
}

type removeBody struct {
	Index int `json:"Index"`
}

type globalOptionsBody struct {
	GlobalOptions GlobalOptions `json:"GlobalOptions"`
}
