package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// Request is a primitive-creation request ready for the wire.
type Request struct {
	SchemaID  string
	Endpoint  string
	Names     []string // param names in descriptor order
	Params    map[string]any
	Algorithm int
	Variant   string
}

// Body returns the flat parameter object: the named params plus "algorithm"
// and, when the tool has a variant, "type".
func (r Request) Body() map[string]any {
	body := make(map[string]any, len(r.Params)+2)
	for k, v := range r.Params {
		body[k] = v
	}
	if r.Variant != "" {
		body["type"] = r.Variant
	}
	body["algorithm"] = r.Algorithm
	return body
}

// MarshalJSON renders {"<Endpoint>": {...params, "algorithm": n}}.
func (r Request) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{r.Endpoint: r.Body()})
}

var ErrKnotVector = errors.New("invalid knot vector")

// ClampedKnots returns the default knot vector for n control points:
// 2n knots, n zeros followed by n ones.
func ClampedKnots(n int) []float64 {
	knots := make([]float64, 2*n)
	for i := n; i < 2*n; i++ {
		knots[i] = 1
	}
	return knots
}

func knotVector(values []float64, controlPoints int) ([]float64, error) {
	if len(values) == 0 {
		return ClampedKnots(controlPoints), nil
	}
	if len(values) < controlPoints+2 {
		return nil, fmt.Errorf("%w: %d knots for %d control points", ErrKnotVector, len(values), controlPoints)
	}
	for i := 1; i < len(values); i++ {
		if values[i] < values[i-1] {
			return nil, fmt.Errorf("%w: knot %d decreases", ErrKnotVector, i)
		}
	}
	return slices.Clone(values), nil
}
