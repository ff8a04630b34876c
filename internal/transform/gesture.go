// Package transform turns handle drags on a selection into transform deltas,
// knot-vector edits, vertex edits and pivot moves.
package transform

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/inamate/inamate/canvas-go/internal/geometry"
	"github.com/inamate/inamate/canvas-go/internal/handles"
)

// ErrDegenerateTransform is reported when a rotate or scale reference vector
// has zero length. Gestures recover from it in place.
var ErrDegenerateTransform = errors.New("degenerate transform")

// KnotMargin is kept between the two multiplicity blocks of a clamped knot
// vector while dragging.
const KnotMargin = 0.25

// Kind is the operation a gesture performs.
type Kind int

const (
	KindTranslate Kind = iota
	KindRotate
	KindScale
	KindKnot
	KindPivot
	KindVertex
)

func (k Kind) String() string {
	switch k {
	case KindTranslate:
		return "translate"
	case KindRotate:
		return "rotate"
	case KindScale:
		return "scale"
	case KindKnot:
		return "knot"
	case KindPivot:
		return "pivot"
	case KindVertex:
		return "vertex"
	default:
		return "unknown"
	}
}

// Preview is the live visualization of a gesture in progress.
type Preview struct {
	Kind    Kind              `json:"kind"`
	Corners [4]geometry.Point `json:"corners"`
	Bounds  handles.Bounds    `json:"bounds"`
	Angle   float64           `json:"angle,omitempty"`
	Pivot   geometry.Position `json:"pivot"`
	Knots   []float64         `json:"knots,omitempty"`
	Vertex  geometry.Position `json:"vertex,omitempty"`
}

// Result is what a finished gesture asks the engine to do.
type Result struct {
	Kind Kind

	// Delta is set for translate, rotate and scale.
	Delta geometry.Delta

	// Knots is the full edited knot vector for a knot drag.
	KnotIndex int
	Knots     []float64

	// Param, PointIndex and Position describe a vertex edit.
	Param      string
	PointIndex int
	Position   geometry.Position

	// Pivot is the new pivot after a pivot drag.
	Pivot geometry.Position
}

// Mutates reports whether the result needs a render service call.
func (r Result) Mutates() bool {
	return r.Kind != KindPivot
}

// Gesture is one drag anchored on a handle (or on the bounds interior).
type Gesture struct {
	kind   Kind
	set    *handles.Set
	handle handles.Handle
	start  geometry.Point
	pivot  geometry.Position

	// raw is the selection's point box without the handle offset.
	raw handles.Bounds

	// knot mapping captured at Begin
	knotLo, knotHi float64
	knotBounds     handles.Bounds

	preview Preview
}

// Begin starts a gesture from a hit on set. It reports false when the hit
// grabbed nothing usable.
func Begin(set *handles.Set, hit handles.Hit, at geometry.Point) (*Gesture, bool) {
	if set == nil || !hit.Grabbed() {
		return nil, false
	}
	g := &Gesture{
		set:   set,
		start: at,
		pivot: set.Centroid,
		raw:   set.Bounds.Expand(-set.Offset),
	}

	if hit.Handle == nil {
		g.kind = KindTranslate
	} else {
		g.handle = *hit.Handle
		switch g.handle.Role {
		case handles.RoleCorner:
			g.kind = KindScale
		case handles.RoleRotate:
			g.kind = KindRotate
		case handles.RoleCenter:
			g.kind = KindPivot
		case handles.RoleVertex:
			g.kind = KindVertex
		case handles.RoleKnot:
			if len(set.Knots) == 0 || g.handle.KnotIndex >= len(set.Knots) {
				return nil, false
			}
			g.kind = KindKnot
			g.knotLo = set.Knots[0]
			g.knotHi = set.Knots[len(set.Knots)-1]
			g.knotBounds = set.Bounds
		default:
			return nil, false
		}
	}

	g.preview = Preview{
		Kind:    g.kind,
		Corners: set.Bounds.Corners(),
		Bounds:  set.Bounds,
		Pivot:   g.pivot,
		Knots:   slices.Clone(set.Knots),
		Vertex:  g.handle.Position.Round(),
	}
	return g, true
}

// Kind returns the operation the gesture performs.
func (g *Gesture) Kind() Kind { return g.kind }

// Handle returns the grabbed handle. It is the zero handle for translate.
func (g *Gesture) Handle() handles.Handle { return g.handle }

// Preview returns the latest preview without moving.
func (g *Gesture) Preview() Preview { return g.preview }

// Move updates the gesture with the pointer at p and returns the new preview.
func (g *Gesture) Move(p geometry.Point) Preview {
	switch g.kind {
	case KindTranslate:
		dx, dy := p.X-g.start.X, p.Y-g.start.Y
		b := g.set.Bounds.Translate(dx, dy)
		g.preview.Bounds = b
		g.preview.Corners = b.Corners()

	case KindRotate:
		angle := g.rotateAngle(p)
		c := g.set.Bounds.Corners()
		pts := geometry.Rotate{Angle: angle, Center: g.pivot}.Matrix().ApplyAll(c[:])
		g.preview.Angle = angle
		copy(g.preview.Corners[:], pts)
		g.preview.Bounds = handles.BoundsOf(pts)

	case KindScale:
		sx, sy := g.scaleFactors(p)
		c := g.raw.Corners()
		pts := geometry.Scale{SX: sx, SY: sy, Center: g.pivot}.Matrix().ApplyAll(c[:])
		b := handles.BoundsOf(pts).Expand(g.set.Offset)
		g.preview.Bounds = b
		g.preview.Corners = b.Corners()

	case KindKnot:
		i := g.handle.KnotIndex
		v := handles.KnotAt(g.knotBounds, p.X, g.knotLo, g.knotHi)
		g.preview.Knots[i] = ClampKnot(g.preview.Knots, i, g.set.ControlPoints, v)

	case KindPivot:
		g.preview.Pivot = p.Round()

	case KindVertex:
		g.preview.Vertex = p.Round()
	}
	return g.preview
}

// End finishes the gesture with the pointer at p.
func (g *Gesture) End(p geometry.Point) Result {
	g.Move(p)
	res := Result{Kind: g.kind}

	switch g.kind {
	case KindTranslate:
		res.Delta = geometry.Translate{
			DX: int(math.Round(p.X - g.start.X)),
			DY: int(math.Round(p.Y - g.start.Y)),
		}
	case KindRotate:
		res.Delta = geometry.Rotate{Angle: g.preview.Angle, Center: g.pivot}
	case KindScale:
		sx, sy := g.scaleFactors(p)
		res.Delta = geometry.Scale{SX: sx, SY: sy, Center: g.pivot}
	case KindKnot:
		res.KnotIndex = g.handle.KnotIndex
		res.Knots = slices.Clone(g.preview.Knots)
	case KindPivot:
		res.Pivot = g.preview.Pivot
	case KindVertex:
		res.Param = g.handle.Param
		res.PointIndex = g.handle.PointIndex
		res.Position = g.preview.Vertex
	}
	return res
}

func (g *Gesture) rotateAngle(p geometry.Point) float64 {
	angle, err := RotationAngle(g.handle.Position, p, g.pivot.Point())
	if err != nil {
		slog.Debug("rotate recovered", "error", err)
	}
	return angle
}

func (g *Gesture) scaleFactors(p geometry.Point) (float64, float64) {
	sx, sy, err := ScaleFactors(g.handle.Position, p, g.pivot.Point())
	if err != nil {
		slog.Debug("scale recovered", "error", err)
	}
	return sx, sy
}

// RotationAngle returns the signed angle from (from - pivot) to (to - pivot).
// A zero-length vector yields 0 and ErrDegenerateTransform.
func RotationAngle(from, to, pivot geometry.Point) (float64, error) {
	v1 := from.Sub(pivot)
	v2 := to.Sub(pivot)
	if v1.Length() == 0 || v2.Length() == 0 {
		return 0, fmt.Errorf("rotate about %v: %w", pivot, ErrDegenerateTransform)
	}
	return math.Atan2(v1.Cross(v2), v1.Dot(v2)), nil
}

// ScaleFactors returns the per-axis factors that carry from to to about
// pivot. An axis whose reference distance is zero keeps factor 1 and the
// error reports ErrDegenerateTransform.
func ScaleFactors(from, to, pivot geometry.Point) (sx, sy float64, err error) {
	sx, sy = 1, 1
	if dx := from.X - pivot.X; dx != 0 {
		sx = (to.X - pivot.X) / dx
	} else {
		err = fmt.Errorf("scale x about %v: %w", pivot, ErrDegenerateTransform)
	}
	if dy := from.Y - pivot.Y; dy != 0 {
		sy = (to.Y - pivot.Y) / dy
	} else {
		err = fmt.Errorf("scale y about %v: %w", pivot, ErrDegenerateTransform)
	}
	return sx, sy, err
}

// ClampKnot clamps a candidate value for knots[i] between its neighbours.
// The first knot has 0 below it and the last has no upper neighbour. The
// knots at the edges of the two multiplicity blocks keep KnotMargin from the
// opposite block.
func ClampKnot(knots []float64, i, controlPoints int, v float64) float64 {
	prev := 0.0
	if i > 0 {
		prev = knots[i-1]
	}
	next := math.Inf(1)
	if i < len(knots)-1 {
		next = knots[i+1]
	}

	order := len(knots) - 1 - controlPoints
	if i == controlPoints && order >= 0 && order < len(knots) {
		prev = max(prev, knots[order]+KnotMargin)
	}
	if i == order && controlPoints >= 0 && controlPoints < len(knots) {
		next = min(next, knots[controlPoints]-KnotMargin)
	}

	return min(next, max(prev, v))
}
