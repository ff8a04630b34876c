package handles

import (
	"math"

	"github.com/inamate/inamate/canvas-go/internal/geometry"
)

// Bounds is an axis-aligned box in screen space (Top < Bottom).
type Bounds struct {
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// BoundsOf returns the smallest box containing pts. It returns the zero box
// for an empty slice.
func BoundsOf(pts []geometry.Point) Bounds {
	if len(pts) == 0 {
		return Bounds{}
	}
	b := Bounds{
		Left:   math.Inf(1),
		Right:  math.Inf(-1),
		Top:    math.Inf(1),
		Bottom: math.Inf(-1),
	}
	for _, p := range pts {
		b.Left = min(b.Left, p.X)
		b.Right = max(b.Right, p.X)
		b.Top = min(b.Top, p.Y)
		b.Bottom = max(b.Bottom, p.Y)
	}
	return b
}

// Expand grows the box by d on each side.
func (b Bounds) Expand(d float64) Bounds {
	return Bounds{Left: b.Left - d, Right: b.Right + d, Top: b.Top - d, Bottom: b.Bottom + d}
}

func (b Bounds) Width() float64  { return b.Right - b.Left }
func (b Bounds) Height() float64 { return b.Bottom - b.Top }

// Contains reports whether p lies inside the box, edges included.
func (b Bounds) Contains(p geometry.Point) bool {
	return p.X >= b.Left && p.X <= b.Right && p.Y >= b.Top && p.Y <= b.Bottom
}

// Corner returns the position of one corner.
func (b Bounds) Corner(c Corner) geometry.Point {
	switch c {
	case TopRight:
		return geometry.Pt(b.Right, b.Top)
	case BottomRight:
		return geometry.Pt(b.Right, b.Bottom)
	case BottomLeft:
		return geometry.Pt(b.Left, b.Bottom)
	default:
		return geometry.Pt(b.Left, b.Top)
	}
}

// Corners returns the four corners clockwise from the top-left.
func (b Bounds) Corners() [4]geometry.Point {
	return [4]geometry.Point{
		b.Corner(TopLeft),
		b.Corner(TopRight),
		b.Corner(BottomRight),
		b.Corner(BottomLeft),
	}
}

// Translate moves the box by (dx, dy).
func (b Bounds) Translate(dx, dy float64) Bounds {
	return Bounds{Left: b.Left + dx, Right: b.Right + dx, Top: b.Top + dy, Bottom: b.Bottom + dy}
}

// NormalizeKnot maps a knot value into [0, 1] over the knot range [lo, hi].
// A degenerate range maps everything to 0.
func NormalizeKnot(k, lo, hi float64) float64 {
	if hi == lo {
		return 0
	}
	return (k - lo) / (hi - lo)
}

// KnotY is the row knot handles sit on, above the rotate handle.
func KnotY(b Bounds, offset float64) float64 {
	return b.Top - 3*offset
}

// KnotX returns the x position of knot value k along the top edge of b.
func KnotX(b Bounds, k, lo, hi float64) float64 {
	return b.Left + b.Width()*NormalizeKnot(k, lo, hi)
}

// KnotAt is the inverse of KnotX: it maps an x position on the top edge back
// into knot space. A zero-width box maps everything to lo.
func KnotAt(b Bounds, x, lo, hi float64) float64 {
	if b.Width() == 0 {
		return lo
	}
	return (x-b.Left)/b.Width()*(hi-lo) + lo
}
