// Package schema holds the declarative descriptors that turn an ordered list
// of pointer positions into a primitive-creation request for the render
// service.
package schema

import (
	"errors"
	"fmt"

	"github.com/inamate/inamate/canvas-go/internal/geometry"
)

// Mode is how a tool collects its points.
type Mode string

const (
	ModeClick Mode = "click"
	ModeDrag  Mode = "drag"
)

// Kind is the kind of a descriptor parameter.
type Kind string

const (
	KindPoint       Kind = "point"
	KindDerived     Kind = "derived"
	KindMultiPoints Kind = "multi_points"
	KindKnots       Kind = "knots"
	KindUnknown     Kind = "unknown"
)

// Inputs carries structured numeric values collected outside the pointer
// gesture (for example a B-spline knot vector), keyed by parameter name.
type Inputs map[string][]float64

// DeriveFunc computes a parameter value from the full point list.
// It must be pure.
type DeriveFunc func(points []geometry.Position, in Inputs) (any, error)

// Param describes one named parameter of a request body.
type Param struct {
	Kind   Kind       `json:"kind"`
	Name   string     `json:"name"`
	Derive DeriveFunc `json:"-"`
}

// Descriptor declares a drawing tool: which endpoint it targets and how
// pointer positions map onto the endpoint's parameters.
type Descriptor struct {
	ID         string  `json:"id"`
	Label      string  `json:"label"`
	Endpoint   string  `json:"endpoint"`
	Arity      int     `json:"arity"`
	Mode       Mode    `json:"mode"`
	MultiPoint bool    `json:"multiPoint,omitempty"`
	Params     []Param `json:"params"`
	Algorithm  int     `json:"algorithm"`
	// Variant is sent as "type" in the request body when set.
	Variant string `json:"variant,omitempty"`
	// NoHandles marks primitives that get no bounds or handles when selected
	// on their own (center+radius shapes, fill seeds).
	NoHandles bool `json:"noHandles,omitempty"`
}

// PointParams returns the number of point-kind parameters.
func (d *Descriptor) PointParams() int {
	n := 0
	for _, p := range d.Params {
		if p.Kind == KindPoint {
			n++
		}
	}
	return n
}

// ParamNames returns the resolved parameter names in order.
func (d *Descriptor) ParamNames() []string {
	names := make([]string, len(d.Params))
	for i, p := range d.Params {
		names[i] = p.Name
	}
	return names
}

// Param returns the parameter with the given name.
func (d *Descriptor) Param(name string) (Param, bool) {
	for _, p := range d.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// defaultName is the fallback name of the parameter at position i.
func defaultName(kind Kind, i int) string {
	switch kind {
	case KindPoint:
		return fmt.Sprintf("p%d", i+1)
	case KindDerived:
		return fmt.Sprintf("f%d", i+1)
	case KindMultiPoints:
		return fmt.Sprintf("mp%d", i+1)
	case KindKnots:
		return "knots"
	default:
		return fmt.Sprintf("u%d", i+1)
	}
}

var ErrUnknownSchema = errors.New("unknown schema")

// ValidationError reports a descriptor that breaks a registration rule.
type ValidationError struct {
	ID     string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid schema %q: %s", e.ID, e.Reason)
}

// InsufficientPointsError is returned when a commit is attempted before
// enough points have been collected.
type InsufficientPointsError struct {
	Have int
	Need int
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("insufficient points: have %d, need %d", e.Have, e.Need)
}
