// Package document is the client-side read cache of the primitive list held
// by the render service.
package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/inamate/inamate/canvas-go/internal/geometry"
	"github.com/inamate/inamate/canvas-go/internal/handles"
	"github.com/inamate/inamate/canvas-go/internal/schema"
)

var (
	ErrMalformedRecord = errors.New("malformed primitive record")
	ErrNotEditable     = errors.New("primitive is not editable")
	ErrUnknownParam    = errors.New("unknown parameter")
)

// Raw is one record of the server's primitive list:
// {"<Endpoint>": {"<param>": value, ...}}.
type Raw map[string]json.RawMessage

// Param is one decoded parameter of a primitive. Value keeps the server's
// JSON so untouched params are sent back byte for byte.
type Param struct {
	Name  string          `json:"name"`
	Kind  schema.Kind     `json:"kind"`
	Value json.RawMessage `json:"value"`
}

// Position decodes the value as a single point.
func (p Param) Position() (geometry.Position, bool) {
	return decodePosition(p.Value)
}

// Positions decodes the value as a list of points.
func (p Param) Positions() ([]geometry.Position, bool) {
	return decodePositions(p.Value)
}

// Floats decodes the value as a list of numbers.
func (p Param) Floats() ([]float64, bool) {
	var out []float64
	if err := json.Unmarshal(p.Value, &out); err != nil {
		return nil, false
	}
	return out, true
}

// Primitive is one cached entry of the server list.
type Primitive struct {
	Index     int     `json:"index"`
	Endpoint  string  `json:"endpoint"`
	SchemaID  string  `json:"schemaId,omitempty"`
	Label     string  `json:"label,omitempty"`
	Params    []Param `json:"params"`
	Algorithm int     `json:"algorithm"`
	Variant   string  `json:"variant,omitempty"`
	// Editable is set when the record matched a registered tool.
	Editable  bool `json:"editable"`
	NoHandles bool `json:"noHandles"`
}

// Param returns the parameter called name.
func (p *Primitive) Param(name string) (Param, bool) {
	for _, pr := range p.Params {
		if pr.Name == name {
			return pr, true
		}
	}
	return Param{}, false
}

// Knots returns the knot vector of a B-spline primitive.
func (p *Primitive) Knots() []float64 {
	for _, pr := range p.Params {
		if pr.Kind == schema.KindKnots {
			k, _ := pr.Floats()
			return k
		}
	}
	return nil
}

// Vertices returns every point-valued parameter of the primitive: point
// params, derived values that decode as positions, and each element of
// multi-point lists.
func (p *Primitive) Vertices() []handles.Vertex {
	var out []handles.Vertex
	for _, pr := range p.Params {
		switch pr.Kind {
		case schema.KindMultiPoints:
			pts, _ := pr.Positions()
			for i, pos := range pts {
				out = append(out, handles.Vertex{Param: pr.Name, Index: i, Position: pos})
			}
		case schema.KindPoint, schema.KindDerived, schema.KindUnknown:
			if pos, ok := pr.Position(); ok {
				out = append(out, handles.Vertex{Param: pr.Name, Index: -1, Position: pos})
			}
		}
	}
	return out
}

// Shape returns the geometric view used for bounds and handles.
func (p *Primitive) Shape() handles.Shape {
	s := handles.Shape{
		Index:     p.Index,
		Vertices:  p.Vertices(),
		NoHandles: p.NoHandles,
	}
	if knots := p.Knots(); len(knots) > 0 {
		s.Knots = knots
		for _, pr := range p.Params {
			if pr.Kind == schema.KindMultiPoints {
				pts, _ := pr.Positions()
				s.ControlPoints = len(pts)
			}
		}
	}
	return s
}

// Request rebuilds the creation body of the primitive from its cached params.
func (p *Primitive) Request() schema.Request {
	req := schema.Request{
		SchemaID:  p.SchemaID,
		Endpoint:  p.Endpoint,
		Names:     make([]string, 0, len(p.Params)),
		Params:    make(map[string]any, len(p.Params)),
		Algorithm: p.Algorithm,
		Variant:   p.Variant,
	}
	for _, pr := range p.Params {
		req.Names = append(req.Names, pr.Name)
		req.Params[pr.Name] = pr.Value
	}
	return req
}

// WithVertex returns the primitive body with one point moved. pointIndex is
// -1 for single point params and the list index for multi-point params.
func (p *Primitive) WithVertex(param string, pointIndex int, pos geometry.Position) (schema.Request, error) {
	if !p.Editable {
		return schema.Request{}, fmt.Errorf("edit %s #%d: %w", p.Endpoint, p.Index, ErrNotEditable)
	}
	pr, ok := p.Param(param)
	if !ok {
		return schema.Request{}, fmt.Errorf("edit %s.%s: %w", p.Endpoint, param, ErrUnknownParam)
	}

	req := p.Request()
	if pointIndex < 0 {
		req.Params[param] = pos
		return req, nil
	}
	pts, ok := pr.Positions()
	if !ok || pointIndex >= len(pts) {
		return schema.Request{}, fmt.Errorf("edit %s.%s[%d]: %w", p.Endpoint, param, pointIndex, ErrUnknownParam)
	}
	pts = slices.Clone(pts)
	pts[pointIndex] = pos
	req.Params[param] = pts
	return req, nil
}

// WithKnots returns the primitive body with its knot vector replaced.
func (p *Primitive) WithKnots(knots []float64) (schema.Request, error) {
	if !p.Editable {
		return schema.Request{}, fmt.Errorf("edit %s #%d: %w", p.Endpoint, p.Index, ErrNotEditable)
	}
	req := p.Request()
	for _, pr := range p.Params {
		if pr.Kind == schema.KindKnots {
			req.Params[pr.Name] = slices.Clone(knots)
			return req, nil
		}
	}
	return schema.Request{}, fmt.Errorf("edit %s knots: %w", p.Endpoint, ErrUnknownParam)
}

// Decode turns one server record into a Primitive, matching it against the
// registry by endpoint and param-name overlap.
func Decode(reg *schema.Registry, index int, raw Raw) (Primitive, error) {
	if len(raw) != 1 {
		return Primitive{}, fmt.Errorf("decode record %d: %w: %d keys", index, ErrMalformedRecord, len(raw))
	}
	var endpoint string
	var body json.RawMessage
	for k, v := range raw {
		endpoint, body = k, v
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return Primitive{}, fmt.Errorf("decode record %d: %w: %v", index, ErrMalformedRecord, err)
	}

	prim := Primitive{Index: index, Endpoint: endpoint}
	if v, ok := fields["algorithm"]; ok {
		_ = json.Unmarshal(v, &prim.Algorithm)
		delete(fields, "algorithm")
	}
	if v, ok := fields["type"]; ok {
		_ = json.Unmarshal(v, &prim.Variant)
		delete(fields, "type")
	}

	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)

	d, matched := reg.Match(endpoint, names)
	if matched {
		prim.SchemaID = d.ID
		prim.Label = d.Label
		prim.Editable = true
		prim.NoHandles = d.NoHandles
		for _, dp := range d.Params {
			v, ok := fields[dp.Name]
			if !ok {
				continue
			}
			prim.Params = append(prim.Params, Param{Name: dp.Name, Kind: dp.Kind, Value: v})
			delete(fields, dp.Name)
		}
	} else {
		prim.Label = endpoint
		prim.NoHandles = true
	}

	// leftovers the descriptor does not name
	for _, name := range names {
		v, ok := fields[name]
		if !ok {
			continue
		}
		kind := schema.KindUnknown
		if _, ok := decodePositions(v); ok {
			kind = schema.KindMultiPoints
		}
		prim.Params = append(prim.Params, Param{Name: name, Kind: kind, Value: v})
	}
	return prim, nil
}

func decodePosition(raw json.RawMessage) (geometry.Position, bool) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return geometry.Position{}, false
	}
	if _, ok := probe["x"]; !ok {
		return geometry.Position{}, false
	}
	if _, ok := probe["y"]; !ok {
		return geometry.Position{}, false
	}
	var p geometry.Position
	if err := json.Unmarshal(raw, &p); err != nil {
		return geometry.Position{}, false
	}
	return p, true
}

func decodePositions(raw json.RawMessage) ([]geometry.Position, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || len(items) == 0 {
		return nil, false
	}
	out := make([]geometry.Position, len(items))
	for i, it := range items {
		p, ok := decodePosition(it)
		if !ok {
			return nil, false
		}
		out[i] = p
	}
	return out, true
}
