package clip

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/inamate/inamate/canvas-go/internal/collect"
	"github.com/inamate/inamate/canvas-go/internal/geometry"
	"github.com/inamate/inamate/canvas-go/internal/schema"
)

// Handle is a draggable point of the clip window: a rectangle corner
// (clockwise from the top-left) or a polygon vertex.
type Handle struct {
	Index    int               `json:"index"`
	Position geometry.Position `json:"position"`
}

// PublishFunc receives the clip options whenever they should be sent to the
// render service.
type PublishFunc func(Options)

// Editor owns the clip region. It is not safe for concurrent use; hosts call
// it from one goroutine.
type Editor struct {
	width, height int

	enabled   bool
	algorithm Algorithm
	region    Region

	publish  PublishFunc
	debounce *Debouncer

	dragging bool
	dragIdx  int
	anchor   geometry.Position
}

// EditorOption configures an Editor.
type EditorOption func(*Editor)

// WithDebouncer replaces the default 100ms debouncer.
func WithDebouncer(d *Debouncer) EditorOption {
	return func(e *Editor) { e.debounce = d }
}

// NewEditor returns a disabled rectangle editor over a width x height
// viewport with an empty window at the origin.
func NewEditor(width, height int, publish PublishFunc, opts ...EditorOption) *Editor {
	e := &Editor{
		width:   width,
		height:  height,
		region:  Region{Shape: ShapeRectangle},
		publish: publish,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.debounce == nil {
		e.debounce = NewDebouncer(DefaultDebounce, nil)
	}
	return e
}

func (e *Editor) Enabled() bool        { return e.enabled }
func (e *Editor) Algorithm() Algorithm { return e.algorithm }
func (e *Editor) Dragging() bool       { return e.dragging }

// Region returns a copy of the stored region.
func (e *Editor) Region() Region {
	r := e.region
	r.Polygon = slices.Clone(r.Polygon)
	return r
}

// Options returns the wire form of the current state. A polygon shape
// without a drawn polygon keeps sending the rectangle window.
func (e *Editor) Options() Options {
	opts := Options{Enable: e.enabled, Algorithm: e.algorithm}
	if e.region.Shape == ShapePolygon && len(e.region.Polygon) >= 3 {
		pts := make([]geometry.Position, len(e.region.Polygon))
		copy(pts, e.region.Polygon)
		opts.Window.Polygon = &PolygonWindow{Points: pts}
		return opts
	}
	r := NormalizeRect(e.region.Rect)
	opts.Window.Rectangle = &r
	return opts
}

// SetEnabled toggles whether the server applies the window. Regions are kept.
func (e *Editor) SetEnabled(on bool) {
	e.enabled = on
	e.publishNow()
}

// SetShape switches between rectangle and polygon windows.
func (e *Editor) SetShape(s Shape) error {
	if s != ShapeRectangle && s != ShapePolygon {
		return fmt.Errorf("set shape %q: %w", s, ErrInvalidShape)
	}
	e.endDrag()
	e.region.Shape = s
	e.publishNow()
	return nil
}

// SetAlgorithm selects the clipping algorithm.
func (e *Editor) SetAlgorithm(a Algorithm) error {
	if !a.Valid() {
		return fmt.Errorf("set algorithm %d: %w", a, ErrInvalidAlgorithm)
	}
	e.algorithm = a
	e.publishNow()
	return nil
}

// Handles returns the draggable points of the active window.
func (e *Editor) Handles() []Handle {
	if e.region.Shape == ShapePolygon {
		out := make([]Handle, len(e.region.Polygon))
		for i, p := range e.region.Polygon {
			out[i] = Handle{Index: i, Position: p}
		}
		return out
	}
	c := e.region.Rect.Corners()
	out := make([]Handle, len(c))
	for i, p := range c {
		out[i] = Handle{Index: i, Position: p}
	}
	return out
}

// HitTest returns the index of the nearest handle within radius of p.
func (e *Editor) HitTest(p geometry.Point, radius float64) (int, bool) {
	best, bestDist := -1, radius
	for _, h := range e.Handles() {
		if d := h.Position.Point().Distance(p); d <= bestDist {
			best, bestDist = h.Index, d
		}
	}
	return best, best >= 0
}

// BeginDrag grabs handle idx. A rectangle drag anchors the opposite corner.
func (e *Editor) BeginDrag(idx int) bool {
	hs := e.Handles()
	if idx < 0 || idx >= len(hs) {
		return false
	}
	e.dragging = true
	e.dragIdx = idx
	if e.region.Shape == ShapeRectangle {
		e.anchor = e.region.Rect.Corners()[(idx+2)%4]
	}
	return true
}

// DragTo moves the grabbed handle and schedules a debounced publish.
func (e *Editor) DragTo(p geometry.Position) {
	if !e.dragging {
		return
	}
	e.apply(p)
	e.debounce.Trigger(e.publishOptions)
}

// EndDrag moves the grabbed handle a last time and publishes immediately.
func (e *Editor) EndDrag(p geometry.Position) {
	if !e.dragging {
		return
	}
	e.apply(p)
	e.dragging = false
	e.debounce.Trigger(e.publishOptions)
	e.debounce.Flush()
}

func (e *Editor) apply(p geometry.Position) {
	if e.region.Shape == ShapePolygon {
		if e.dragIdx < len(e.region.Polygon) {
			e.region.Polygon[e.dragIdx] = ClampPosition(p, e.width, e.height)
		}
		return
	}
	r := NormalizeRect(Rect{TopLeft: e.anchor, BottomRight: p})
	e.region.Rect = Clamp(r, e.width, e.height)
}

func (e *Editor) endDrag() {
	e.dragging = false
	e.debounce.Stop()
}

// DrawProtocol is the collection protocol for drawing a new window of the
// active shape: two clicks for a rectangle, a closed multi-point gesture for
// a polygon.
func (e *Editor) DrawProtocol() collect.Protocol {
	if e.region.Shape == ShapePolygon {
		return collect.Protocol{
			Mode:        schema.ModeClick,
			Arity:       3,
			MultiPoint:  true,
			CloseRadius: collect.DefaultCloseRadius,
		}
	}
	return collect.Protocol{Mode: schema.ModeClick, Arity: 2}
}

// Replace swaps the active window for one built from collected points and
// publishes it.
func (e *Editor) Replace(points []geometry.Position) error {
	e.endDrag()
	switch e.region.Shape {
	case ShapePolygon:
		if len(points) < 3 {
			return fmt.Errorf("replace polygon with %d points: %w", len(points), ErrTooFewPoints)
		}
		poly := make([]geometry.Position, len(points))
		for i, p := range points {
			poly[i] = ClampPosition(p, e.width, e.height)
		}
		e.region.Polygon = poly
	default:
		if len(points) < 2 {
			return fmt.Errorf("replace rectangle with %d points: %w", len(points), ErrTooFewPoints)
		}
		r := NormalizeRect(Rect{TopLeft: points[0], BottomRight: points[1]})
		e.region.Rect = Clamp(r, e.width, e.height)
	}
	e.publishNow()
	return nil
}

// Close drops any pending publish.
func (e *Editor) Close() {
	e.endDrag()
}

// AbortDrag ends a drag in place. A publish still waiting on the debounce
// is sent now so the server holds the region the editor shows.
func (e *Editor) AbortDrag() {
	if !e.dragging {
		return
	}
	e.dragging = false
	e.debounce.Flush()
}

func (e *Editor) publishNow() {
	e.debounce.Stop()
	e.publishOptions()
}

func (e *Editor) publishOptions() {
	if e.publish == nil {
		return
	}
	opts := e.Options()
	slog.Debug("clip options", "enable", opts.Enable, "shape", e.region.Shape, "algorithm", opts.Algorithm)
	e.publish(opts)
}
