// Package handles derives the shadow bounds, centroid and manipulation
// handles of a selection from the point parameters of its primitives.
package handles

import (
	"math"
	"slices"

	"github.com/inamate/inamate/canvas-go/internal/geometry"
)

// DefaultOffset is the distance the shadow bounds keep from the outermost
// points.
const DefaultOffset = 10.0

// DefaultHitRadius is how far from a handle a pointer may land and still
// grab it.
const DefaultHitRadius = 6.0

// Role is what dragging a handle does.
type Role string

const (
	RoleCorner Role = "corner"
	RoleRotate Role = "rotate"
	RoleCenter Role = "center"
	RoleKnot   Role = "knot"
	RoleVertex Role = "vertex"
)

// Corner identifies a corner of the shadow bounds.
type Corner int

const (
	TopLeft Corner = iota
	TopRight
	BottomRight
	BottomLeft
)

func (c Corner) String() string {
	switch c {
	case TopLeft:
		return "top-left"
	case TopRight:
		return "top-right"
	case BottomRight:
		return "bottom-right"
	case BottomLeft:
		return "bottom-left"
	default:
		return "unknown"
	}
}

// Handle is a draggable point of the selection overlay.
type Handle struct {
	Role     Role           `json:"role"`
	Position geometry.Point `json:"position"`

	Corner Corner `json:"corner,omitempty"`

	KnotIndex int     `json:"knotIndex,omitempty"`
	KnotValue float64 `json:"knotValue,omitempty"`

	// Param and PointIndex locate a vertex handle inside its primitive.
	// PointIndex is -1 for single point params.
	Param      string `json:"param,omitempty"`
	PointIndex int    `json:"pointIndex,omitempty"`
}

// Vertex is one point-valued parameter (or one element of a multi-points
// parameter) of a primitive.
type Vertex struct {
	Param    string
	Index    int // -1 for single point params
	Position geometry.Position
}

// Shape is the geometric view of one selected primitive.
type Shape struct {
	Index         int
	Vertices      []Vertex
	Knots         []float64
	ControlPoints int
	NoHandles     bool
}

// Set is the fully derived overlay of a selection. It is regenerated on every
// selection change and never patched in place.
type Set struct {
	Bounds        Bounds            `json:"bounds"`
	Centroid      geometry.Position `json:"centroid"`
	Handles       []Handle          `json:"handles"`
	Knots         []float64         `json:"knots,omitempty"`
	ControlPoints int               `json:"controlPoints,omitempty"`
	Offset        float64           `json:"offset"`
	Indices       []int             `json:"indices"`
}

// Compute derives the handle set of a selection. It reports false when the
// selection gets no bounds: nothing selected, no point-valued params, or a
// lone primitive marked NoHandles.
func Compute(shapes []Shape, offset float64) (*Set, bool) {
	if len(shapes) == 0 {
		return nil, false
	}
	single := len(shapes) == 1
	if single && shapes[0].NoHandles {
		return nil, false
	}

	var pts []geometry.Point
	indices := make([]int, 0, len(shapes))
	for _, s := range shapes {
		indices = append(indices, s.Index)
		for _, v := range s.Vertices {
			pts = append(pts, v.Position.Point())
		}
	}
	if len(pts) == 0 {
		return nil, false
	}

	raw := BoundsOf(pts)
	bounds := raw.Expand(offset)

	var sx, sy float64
	for _, p := range pts {
		sx += p.X
		sy += p.Y
	}
	n := float64(len(pts))
	centroid := geometry.Pos(int(math.Floor(sx/n)), int(math.Floor(sy/n)))

	set := &Set{
		Bounds:   bounds,
		Centroid: centroid,
		Offset:   offset,
		Indices:  indices,
	}

	for _, c := range []Corner{TopLeft, TopRight, BottomRight, BottomLeft} {
		set.Handles = append(set.Handles, Handle{Role: RoleCorner, Corner: c, Position: bounds.Corner(c)})
	}
	set.Handles = append(set.Handles,
		Handle{Role: RoleRotate, Position: geometry.Pt((bounds.Left+bounds.Right)/2, bounds.Top-2*offset)},
		Handle{Role: RoleCenter, Position: centroid.Point()},
	)

	if !single {
		return set, true
	}

	s := shapes[0]
	for _, v := range s.Vertices {
		set.Handles = append(set.Handles, Handle{
			Role:       RoleVertex,
			Position:   v.Position.Point(),
			Param:      v.Param,
			PointIndex: v.Index,
		})
	}

	if len(s.Knots) > 0 {
		set.Knots = slices.Clone(s.Knots)
		set.ControlPoints = s.ControlPoints
		lo, hi := s.Knots[0], s.Knots[len(s.Knots)-1]
		for i, k := range s.Knots {
			set.Handles = append(set.Handles, Handle{
				Role:      RoleKnot,
				Position:  geometry.Pt(KnotX(bounds, k, lo, hi), KnotY(bounds, offset)),
				KnotIndex: i,
				KnotValue: k,
			})
		}
	}

	return set, true
}

// Find returns the first handle with the given role.
func (s *Set) Find(role Role) (Handle, bool) {
	for _, h := range s.Handles {
		if h.Role == role {
			return h, true
		}
	}
	return Handle{}, false
}

// Hit is the result of a hit test against a handle set.
type Hit struct {
	Handle *Handle
	Inside bool
}

// Grabbed reports whether the hit grabbed anything.
func (h Hit) Grabbed() bool {
	return h.Handle != nil || h.Inside
}

var hitPriority = []Role{RoleKnot, RoleRotate, RoleCenter, RoleCorner, RoleVertex}

// HitTest returns the handle under p, preferring knots, then rotate, center,
// corners and vertices; otherwise whether p lies inside the bounds.
func (s *Set) HitTest(p geometry.Point, radius float64) Hit {
	for _, role := range hitPriority {
		best := -1
		bestDist := radius
		for i, h := range s.Handles {
			if h.Role != role {
				continue
			}
			if d := h.Position.Distance(p); d <= bestDist {
				best, bestDist = i, d
			}
		}
		if best >= 0 {
			h := s.Handles[best]
			return Hit{Handle: &h}
		}
	}
	return Hit{Inside: s.Bounds.Contains(p)}
}

// SetPivot moves the centroid used as the rotate/scale pivot and its center
// handle.
func (s *Set) SetPivot(p geometry.Position) {
	s.Centroid = p
	for i := range s.Handles {
		if s.Handles[i].Role == RoleCenter {
			s.Handles[i].Position = p.Point()
		}
	}
}
