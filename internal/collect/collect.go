// Package collect implements the pointer gesture state machine that gathers
// the points of a new primitive (or a new clip region) before it is
// committed.
package collect

import (
	"slices"

	"github.com/inamate/inamate/canvas-go/internal/geometry"
	"github.com/inamate/inamate/canvas-go/internal/schema"
)

// DefaultCloseRadius is how close (in pixels) a click must land to the first
// point to close a multi-point gesture.
const DefaultCloseRadius = 10.0

// Protocol describes how points are collected.
type Protocol struct {
	Mode        schema.Mode
	Arity       int
	MultiPoint  bool
	CloseRadius float64
}

// ProtocolFor returns the collection protocol of a descriptor.
func ProtocolFor(d *schema.Descriptor) Protocol {
	return Protocol{
		Mode:        d.Mode,
		Arity:       d.Arity,
		MultiPoint:  d.MultiPoint,
		CloseRadius: DefaultCloseRadius,
	}
}

// State is the collector state.
type State int

const (
	Idle State = iota
	Collecting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Collecting:
		return "collecting"
	default:
		return "unknown"
	}
}

// Outcome is the result of feeding an event to the collector. When Committed
// is set, Points holds the committed points and the collector is Idle again.
type Outcome struct {
	Committed bool
	Points    []geometry.Position
}

// Collector owns the pending points of one creation gesture.
type Collector struct {
	proto    Protocol
	points   []geometry.Position
	dragging bool
}

// New creates an idle collector for the given protocol.
func New(proto Protocol) *Collector {
	if proto.CloseRadius <= 0 {
		proto.CloseRadius = DefaultCloseRadius
	}
	return &Collector{proto: proto}
}

// Protocol returns the collection protocol.
func (c *Collector) Protocol() Protocol {
	return c.proto
}

// State reports whether a gesture is in progress.
func (c *Collector) State() State {
	if len(c.points) == 0 && !c.dragging {
		return Idle
	}
	return Collecting
}

// Pending returns a copy of the pending points.
func (c *Collector) Pending() []geometry.Position {
	return slices.Clone(c.points)
}

// PointerDown starts a drag gesture. Click-mode collectors ignore it.
func (c *Collector) PointerDown(p geometry.Position) Outcome {
	if c.proto.Mode != schema.ModeDrag {
		return Outcome{}
	}
	c.points = append(c.points[:0], p)
	c.dragging = true
	return Outcome{}
}

// PointerUp supplies the second point of a drag gesture and commits it.
func (c *Collector) PointerUp(p geometry.Position) Outcome {
	if c.proto.Mode != schema.ModeDrag || !c.dragging {
		return Outcome{}
	}
	c.points = append(c.points, p)
	return c.commit()
}

// Click appends a point in click mode. Fixed-arity gestures commit as soon
// as the arity is reached; multi-point gestures commit when the click lands
// within the close radius of the first point, the closing click excluded.
func (c *Collector) Click(p geometry.Position) Outcome {
	if c.proto.Mode != schema.ModeClick {
		return Outcome{}
	}

	if c.proto.MultiPoint {
		if len(c.points) >= c.proto.Arity && geometry.Distance(p, c.points[0]) < c.proto.CloseRadius {
			return c.commit()
		}
		c.points = append(c.points, p)
		return Outcome{}
	}

	c.points = append(c.points, p)
	if len(c.points) >= c.proto.Arity {
		return c.commit()
	}
	return Outcome{}
}

// DoubleClick closes a multi-point gesture. The most recent click is
// discarded first, since it belongs to the double-click itself.
func (c *Collector) DoubleClick() (Outcome, error) {
	if c.proto.Mode != schema.ModeClick || !c.proto.MultiPoint {
		return Outcome{}, nil
	}
	c.pop()
	return c.Commit()
}

// ContextMenu removes the most recent pending point.
func (c *Collector) ContextMenu() {
	c.pop()
}

// Commit commits the pending points. With fewer points than the arity it
// returns an *schema.InsufficientPointsError and keeps the pending points.
func (c *Collector) Commit() (Outcome, error) {
	if len(c.points) < c.proto.Arity {
		return Outcome{}, &schema.InsufficientPointsError{Have: len(c.points), Need: c.proto.Arity}
	}
	return c.commit(), nil
}

// Cancel abandons the gesture.
func (c *Collector) Cancel() {
	c.points = nil
	c.dragging = false
}

func (c *Collector) pop() {
	if len(c.points) > 0 {
		c.points = c.points[:len(c.points)-1]
	}
	if len(c.points) == 0 {
		c.dragging = false
	}
}

func (c *Collector) commit() Outcome {
	out := Outcome{Committed: true, Points: c.points}
	c.points = nil
	c.dragging = false
	return out
}
