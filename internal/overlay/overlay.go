// Package overlay rasterizes engine overlay snapshots so hosts without a
// vector canvas can composite them over the render service's frame.
package overlay

import (
	"fmt"
	"io"

	"github.com/gogpu/gg"

	"github.com/inamate/inamate/canvas-go/internal/clip"
	"github.com/inamate/inamate/canvas-go/internal/engine"
	"github.com/inamate/inamate/canvas-go/internal/geometry"
	"github.com/inamate/inamate/canvas-go/internal/handles"
	"github.com/inamate/inamate/canvas-go/internal/transform"
)

// Style holds the colors and sizes used when painting an overlay.
type Style struct {
	Bounds  gg.RGBA
	Preview gg.RGBA
	Handle  gg.RGBA
	Rotate  gg.RGBA
	Knot    gg.RGBA
	Vertex  gg.RGBA
	Pending gg.RGBA
	Clip    gg.RGBA

	HandleRadius float64
	LineWidth    float64
	Dash         float64

	// FillBackground paints the engine's background color first. Leave it
	// off when the image is composited over a rendered frame.
	FillBackground bool
}

// DefaultStyle matches the browser canvas overlay.
func DefaultStyle() Style {
	return Style{
		Bounds:       gg.Hex("#4a90d9"),
		Preview:      gg.RGBA2(0.29, 0.56, 0.85, 0.6),
		Handle:       gg.Hex("#ffffff"),
		Rotate:       gg.Hex("#f5a623"),
		Knot:         gg.Hex("#bd10e0"),
		Vertex:       gg.Hex("#7ed321"),
		Pending:      gg.Hex("#50e3c2"),
		Clip:         gg.Hex("#d0021b"),
		HandleRadius: 4,
		LineWidth:    1,
		Dash:         4,
	}
}

// Render paints o with the default style and writes it as PNG.
func Render(o engine.Overlay, w io.Writer) error {
	return RenderStyled(o, DefaultStyle(), w)
}

// RenderStyled paints o with s and writes it as PNG.
func RenderStyled(o engine.Overlay, s Style, w io.Writer) error {
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("overlay: invalid size %dx%d", o.Width, o.Height)
	}
	dc := gg.NewContext(o.Width, o.Height)
	defer dc.Close()

	p := painter{dc: dc, s: s}
	if s.FillBackground {
		bg := o.Background
		dc.ClearWithColor(gg.RGBA2(float64(bg.R)/255, float64(bg.G)/255, float64(bg.B)/255, float64(bg.A)/255))
	} else {
		dc.Clear()
	}

	if o.Clip.Enabled {
		p.clip(o.Clip)
	}
	if o.Handles != nil {
		p.selection(o.Handles, o.Preview)
	}
	p.pending(o.Pending, o.Cursor)

	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode overlay: %w", err)
	}
	return nil
}

type painter struct {
	dc *gg.Context
	s  Style
}

func (p painter) color(c gg.RGBA) {
	p.dc.SetRGBA(c.R, c.G, c.B, c.A)
}

func (p painter) polygon(pts []geometry.Point, dashed bool) {
	if len(pts) < 2 {
		return
	}
	p.dc.SetLineWidth(p.s.LineWidth)
	if dashed {
		p.dc.SetDash(p.s.Dash, p.s.Dash)
		defer p.dc.ClearDash()
	}
	p.dc.MoveTo(pts[0].X, pts[0].Y)
	for _, pt := range pts[1:] {
		p.dc.LineTo(pt.X, pt.Y)
	}
	p.dc.ClosePath()
	_ = p.dc.Stroke()
}

func (p painter) dot(at geometry.Point, c gg.RGBA) {
	p.color(c)
	p.dc.DrawCircle(at.X, at.Y, p.s.HandleRadius)
	_ = p.dc.Fill()
}

func (p painter) clip(c engine.ClipOverlay) {
	p.color(p.s.Clip)
	var pts []geometry.Point
	if c.Region.Shape == clip.ShapePolygon {
		for _, v := range c.Region.Polygon {
			pts = append(pts, v.Point())
		}
	} else {
		for _, v := range c.Region.Rect.Corners() {
			pts = append(pts, v.Point())
		}
	}
	p.polygon(pts, true)
	for _, h := range c.Handles {
		p.dot(h.Position.Point(), p.s.Clip)
	}
}

func (p painter) selection(set *handles.Set, prev *transform.Preview) {
	b := set.Bounds.Corners()
	p.color(p.s.Bounds)
	p.polygon(b[:], true)

	if prev != nil {
		p.color(p.s.Preview)
		p.polygon(prev.Corners[:], false)
	}

	if rot, ok := set.Find(handles.RoleRotate); ok {
		top := geometry.Pt((set.Bounds.Left+set.Bounds.Right)/2, set.Bounds.Top)
		p.color(p.s.Rotate)
		p.dc.SetLineWidth(p.s.LineWidth)
		p.dc.DrawLine(top.X, top.Y, rot.Position.X, rot.Position.Y)
		_ = p.dc.Stroke()
	}

	for _, h := range set.Handles {
		switch h.Role {
		case handles.RoleCorner:
			p.color(p.s.Handle)
			r := p.s.HandleRadius
			p.dc.DrawRectangle(h.Position.X-r, h.Position.Y-r, 2*r, 2*r)
			_ = p.dc.FillPreserve()
			p.color(p.s.Bounds)
			_ = p.dc.Stroke()
		case handles.RoleRotate:
			p.dot(h.Position, p.s.Rotate)
		case handles.RoleCenter:
			p.dot(h.Position, p.s.Bounds)
		case handles.RoleKnot:
			p.dot(knotPosition(set, prev, h), p.s.Knot)
		case handles.RoleVertex:
			p.dot(h.Position, p.s.Vertex)
		}
	}
}

func (p painter) pending(pts []geometry.Position, cursor geometry.Position) {
	if len(pts) == 0 {
		return
	}
	p.color(p.s.Pending)
	p.dc.SetLineWidth(p.s.LineWidth)
	p.dc.MoveTo(float64(pts[0].X), float64(pts[0].Y))
	for _, v := range pts[1:] {
		p.dc.LineTo(float64(v.X), float64(v.Y))
	}
	p.dc.LineTo(float64(cursor.X), float64(cursor.Y))
	_ = p.dc.Stroke()
	for _, v := range pts {
		p.dot(v.Point(), p.s.Pending)
	}
}

// knotPosition places a knot handle at its dragged value while a knot
// gesture is in progress.
func knotPosition(set *handles.Set, prev *transform.Preview, h handles.Handle) geometry.Point {
	if prev == nil || prev.Kind != transform.KindKnot || h.KnotIndex >= len(prev.Knots) || len(set.Knots) == 0 {
		return h.Position
	}
	lo, hi := set.Knots[0], set.Knots[len(set.Knots)-1]
	return geometry.Pt(handles.KnotX(set.Bounds, prev.Knots[h.KnotIndex], lo, hi), h.Position.Y)
}
