package schema

import (
	"math"

	"github.com/inamate/inamate/canvas-go/internal/geometry"
)

// Builtin returns the default tool set of the playground canvas.
func Builtin() []Descriptor {
	twoPoints := []Param{{Kind: KindPoint}, {Kind: KindPoint}}
	threePoints := []Param{{Kind: KindPoint}, {Kind: KindPoint}, {Kind: KindPoint}}
	centerRadius := []Param{
		{Kind: KindPoint, Name: "point_on_circle"},
		{Kind: KindPoint, Name: "center"},
		{Kind: KindDerived, Name: "radius", Derive: deriveRadius},
	}

	return []Descriptor{
		{ID: "line-dda", Label: "Line (DDA)", Endpoint: "Line", Arity: 2, Mode: ModeClick, Params: twoPoints, Algorithm: 0},
		{ID: "line-midpoint", Label: "Line (midpoint)", Endpoint: "Line", Arity: 2, Mode: ModeClick, Params: twoPoints, Algorithm: 1},
		{ID: "line-bresenham", Label: "Line (Bresenham)", Endpoint: "Line", Arity: 2, Mode: ModeClick, Params: twoPoints, Algorithm: 2},
		{ID: "circle-click", Label: "Circle (click)", Endpoint: "Circle", Arity: 2, Mode: ModeClick, Params: centerRadius, Variant: "center_radius", NoHandles: true},
		{ID: "circle-drag", Label: "Circle (drag)", Endpoint: "Circle", Arity: 2, Mode: ModeDrag, Params: centerRadius, Variant: "center_radius", NoHandles: true},
		{ID: "circle-three-points", Label: "Circle (three points)", Endpoint: "Circle", Arity: 3, Mode: ModeClick, Params: threePoints, Variant: "three_points", NoHandles: true},
		{ID: "arc-three-points", Label: "Arc (three points)", Endpoint: "Arc", Arity: 3, Mode: ModeClick, Params: threePoints, Variant: "three_points"},
		{ID: "rectangle", Label: "Rectangle", Endpoint: "Rectangle", Arity: 2, Mode: ModeClick, Params: []Param{
			{Kind: KindDerived, Name: "top_left", Derive: deriveTopLeft},
			{Kind: KindDerived, Name: "bottom_right", Derive: deriveBottomRight},
		}},
		{ID: "polygon", Label: "Polygon", Endpoint: "Polygon", Arity: 3, Mode: ModeClick, MultiPoint: true, Params: []Param{
			{Kind: KindMultiPoints, Name: "points"},
		}},
		{ID: "bezier", Label: "Bezier curve", Endpoint: "BezierCurve", Arity: 3, Mode: ModeClick, MultiPoint: true, Params: []Param{
			{Kind: KindMultiPoints, Name: "control_points"},
		}},
		{ID: "bspline", Label: "B-spline curve", Endpoint: "BsplineCurve", Arity: 3, Mode: ModeClick, MultiPoint: true, Params: []Param{
			{Kind: KindMultiPoints, Name: "control_points"},
			{Kind: KindKnots, Name: "knots"},
		}},
		{ID: "fill", Label: "Seed fill", Endpoint: "Fill", Arity: 1, Mode: ModeClick, Params: []Param{
			{Kind: KindPoint, Name: "seed"},
		}, NoHandles: true},
	}
}

// NewBuiltinRegistry returns a registry holding the Builtin tools.
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(Builtin()...)
	return r
}

func deriveRadius(points []geometry.Position, _ Inputs) (any, error) {
	return int(math.Floor(geometry.Distance(points[0], points[1]))), nil
}

func deriveTopLeft(points []geometry.Position, _ Inputs) (any, error) {
	a, b := points[0], points[1]
	return geometry.Pos(min(a.X, b.X), min(a.Y, b.Y)), nil
}

func deriveBottomRight(points []geometry.Position, _ Inputs) (any, error) {
	a, b := points[0], points[1]
	return geometry.Pos(max(a.X, b.X), max(a.Y, b.Y)), nil
}
