package schema

import (
	"fmt"
	"slices"
	"sync"

	"github.com/inamate/inamate/canvas-go/internal/geometry"
)

// Registry holds the registered descriptors. It is safe for concurrent
// reads once populated.
type Registry struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]*Descriptor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID: make(map[string]*Descriptor),
	}
}

// Register validates d and stores a normalized copy of it. Point params are
// moved to the front (keeping their relative order) so they consume points
// positionally, and unnamed params receive their positional default name.
func (r *Registry) Register(d Descriptor) error {
	if d.ID == "" {
		return &ValidationError{ID: d.ID, Reason: "missing id"}
	}
	if d.Endpoint == "" {
		return &ValidationError{ID: d.ID, Reason: "missing endpoint"}
	}
	if d.Mode == "" {
		d.Mode = ModeDrag
	}
	if d.Mode != ModeClick && d.Mode != ModeDrag {
		return &ValidationError{ID: d.ID, Reason: fmt.Sprintf("unknown collection mode %q", d.Mode)}
	}
	if d.Arity < 1 {
		return &ValidationError{ID: d.ID, Reason: "pointer arity must be at least 1"}
	}

	params := slices.Clone(d.Params)
	slices.SortStableFunc(params, func(a, b Param) int {
		switch {
		case a.Kind == KindPoint && b.Kind != KindPoint:
			return -1
		case a.Kind != KindPoint && b.Kind == KindPoint:
			return 1
		}
		return 0
	})

	points := d.PointParams()
	var multi, knots int
	seen := make(map[string]bool, len(params))
	for i := range params {
		p := &params[i]
		switch p.Kind {
		case KindPoint:
		case KindMultiPoints:
			multi++
		case KindKnots:
			knots++
		case KindDerived:
			if p.Derive == nil {
				return &ValidationError{ID: d.ID, Reason: fmt.Sprintf("derived param %d has no derive function", i+1)}
			}
		default:
			return &ValidationError{ID: d.ID, Reason: fmt.Sprintf("param %d has unsupported kind %q", i+1, p.Kind)}
		}
		if p.Name == "" {
			p.Name = defaultName(p.Kind, i)
		}
		if seen[p.Name] {
			return &ValidationError{ID: d.ID, Reason: fmt.Sprintf("duplicate param name %q", p.Name)}
		}
		seen[p.Name] = true
	}

	if d.Mode == ModeDrag && points != 2 {
		return &ValidationError{ID: d.ID, Reason: fmt.Sprintf("drag mode needs exactly 2 point params, has %d", points)}
	}
	if d.MultiPoint && multi != 1 {
		return &ValidationError{ID: d.ID, Reason: fmt.Sprintf("multi-point mode needs exactly 1 multi-points param, has %d", multi)}
	}
	if d.Arity < points {
		return &ValidationError{ID: d.ID, Reason: fmt.Sprintf("pointer arity %d is below the %d point params", d.Arity, points)}
	}
	if knots > 1 {
		return &ValidationError{ID: d.ID, Reason: "at most one knots param is allowed"}
	}
	if knots == 1 && multi == 0 {
		return &ValidationError{ID: d.ID, Reason: "knots param needs a multi-points param for its control points"}
	}
	d.Params = params

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[d.ID]; ok {
		return &ValidationError{ID: d.ID, Reason: "already registered"}
	}
	r.byID[d.ID] = &d
	r.order = append(r.order, d.ID)
	return nil
}

// MustRegister registers every descriptor and panics on the first error.
// It is meant for static tool tables.
func (r *Registry) MustRegister(ds ...Descriptor) {
	for _, d := range ds {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
}

// Get returns the descriptor with the given id.
func (r *Registry) Get(id string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byID[id]
	return d, ok
}

// List returns the descriptors in registration order.
func (r *Registry) List() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// BuildRequest maps an ordered point list to the named parameters of the
// descriptor id.
func (r *Registry) BuildRequest(id string, points []geometry.Position, in Inputs) (Request, error) {
	d, ok := r.Get(id)
	if !ok {
		return Request{}, fmt.Errorf("build request %q: %w", id, ErrUnknownSchema)
	}
	return d.BuildRequest(points, in)
}

// BuildRequest maps an ordered point list to the descriptor's named
// parameters.
func (d *Descriptor) BuildRequest(points []geometry.Position, in Inputs) (Request, error) {
	if len(points) < d.Arity {
		return Request{}, &InsufficientPointsError{Have: len(points), Need: d.Arity}
	}

	req := Request{
		SchemaID:  d.ID,
		Endpoint:  d.Endpoint,
		Names:     make([]string, 0, len(d.Params)),
		Params:    make(map[string]any, len(d.Params)),
		Algorithm: d.Algorithm,
		Variant:   d.Variant,
	}

	next := 0
	for _, p := range d.Params {
		var value any
		switch p.Kind {
		case KindPoint:
			value = points[next]
			next++
		case KindDerived:
			v, err := p.Derive(points, in)
			if err != nil {
				return Request{}, fmt.Errorf("derive %s.%s: %w", d.ID, p.Name, err)
			}
			value = v
		case KindMultiPoints:
			value = slices.Clone(points)
		case KindKnots:
			knots, err := knotVector(in[p.Name], len(points))
			if err != nil {
				return Request{}, fmt.Errorf("knots %s.%s: %w", d.ID, p.Name, err)
			}
			value = knots
		}
		req.Names = append(req.Names, p.Name)
		req.Params[p.Name] = value
	}

	return req, nil
}

// Match returns the descriptor for endpoint whose param names overlap most
// with names. Ties go to the earliest registered descriptor.
func (r *Registry) Match(endpoint string, names []string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *Descriptor
	bestScore := -1
	for _, id := range r.order {
		d := r.byID[id]
		if d.Endpoint != endpoint {
			continue
		}
		score := 0
		for _, p := range d.Params {
			if slices.Contains(names, p.Name) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = d, score
		}
	}
	return best, best != nil
}
