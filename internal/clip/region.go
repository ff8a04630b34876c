// Package clip edits the clip window the render service applies to drawing:
// a rectangle or a polygon, independent of any primitive selection.
package clip

import (
	"errors"
	"fmt"

	"github.com/inamate/inamate/canvas-go/internal/geometry"
)

var (
	ErrInvalidAlgorithm = errors.New("invalid clip algorithm")
	ErrInvalidShape     = errors.New("invalid clip shape")
	ErrTooFewPoints     = errors.New("too few points for clip region")
)

// Shape is the kind of clip window.
type Shape string

const (
	ShapeRectangle Shape = "rectangle"
	ShapePolygon   Shape = "polygon"
)

// ParseShape accepts "rectangle" or "polygon".
func ParseShape(s string) (Shape, error) {
	switch Shape(s) {
	case ShapeRectangle, ShapePolygon:
		return Shape(s), nil
	}
	return "", fmt.Errorf("parse shape %q: %w", s, ErrInvalidShape)
}

// Algorithm selects the line clipping algorithm used by the render service.
type Algorithm int

const (
	AlgorithmCohenSutherland Algorithm = 0
	AlgorithmMidpoint        Algorithm = 1
)

func (a Algorithm) Valid() bool {
	return a == AlgorithmCohenSutherland || a == AlgorithmMidpoint
}

// Rect is a rectangular clip window. Sent rectangles always satisfy
// TopLeft <= BottomRight componentwise.
type Rect struct {
	TopLeft     geometry.Position `json:"top_left"`
	BottomRight geometry.Position `json:"bottom_right"`
}

// NormalizeRect swaps inverted components so TopLeft <= BottomRight.
// Applying it twice gives the same result as applying it once.
func NormalizeRect(r Rect) Rect {
	if r.TopLeft.X > r.BottomRight.X {
		r.TopLeft.X, r.BottomRight.X = r.BottomRight.X, r.TopLeft.X
	}
	if r.TopLeft.Y > r.BottomRight.Y {
		r.TopLeft.Y, r.BottomRight.Y = r.BottomRight.Y, r.TopLeft.Y
	}
	return r
}

// ClampPosition restricts p to [0,width] x [0,height].
func ClampPosition(p geometry.Position, width, height int) geometry.Position {
	return geometry.Pos(min(max(p.X, 0), width), min(max(p.Y, 0), height))
}

// Clamp restricts both corners of r to the viewport.
func Clamp(r Rect, width, height int) Rect {
	return Rect{
		TopLeft:     ClampPosition(r.TopLeft, width, height),
		BottomRight: ClampPosition(r.BottomRight, width, height),
	}
}

// Corners returns the corners clockwise from the top-left.
func (r Rect) Corners() [4]geometry.Position {
	return [4]geometry.Position{
		r.TopLeft,
		geometry.Pos(r.BottomRight.X, r.TopLeft.Y),
		r.BottomRight,
		geometry.Pos(r.TopLeft.X, r.BottomRight.Y),
	}
}

// Region is the stored clip window of either shape. Only the field matching
// Shape is used; the other is kept so switching shapes is lossless.
type Region struct {
	Shape   Shape               `json:"shape"`
	Rect    Rect                `json:"rect"`
	Polygon []geometry.Position `json:"polygon,omitempty"`
}

// Window is the wire form of a clip window: exactly one field is set.
type Window struct {
	Rectangle *Rect          `json:"Rectangle,omitempty"`
	Polygon   *PolygonWindow `json:"Polygon,omitempty"`
}

type PolygonWindow struct {
	Points []geometry.Position `json:"points"`
}

// Options is the clip part of the render service's global options.
type Options struct {
	Enable    bool      `json:"enable"`
	Window    Window    `json:"window"`
	Algorithm Algorithm `json:"algorithm"`
}
