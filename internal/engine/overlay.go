package engine

import (
	"slices"

	"github.com/inamate/inamate/canvas-go/internal/clip"
	"github.com/inamate/inamate/canvas-go/internal/document"
	"github.com/inamate/inamate/canvas-go/internal/geometry"
	"github.com/inamate/inamate/canvas-go/internal/handles"
	"github.com/inamate/inamate/canvas-go/internal/render"
	"github.com/inamate/inamate/canvas-go/internal/transform"
)

// Overlay is a copy of everything a host draws on top of the render
// service's frame.
type Overlay struct {
	Width      int                  `json:"width"`
	Height     int                  `json:"height"`
	Mode       Mode                 `json:"mode"`
	Tool       string               `json:"tool,omitempty"`
	Pending    []geometry.Position  `json:"pending,omitempty"`
	Cursor     geometry.Position    `json:"cursor"`
	Selection  []int                `json:"selection,omitempty"`
	Handles    *handles.Set         `json:"handles,omitempty"`
	Preview    *transform.Preview   `json:"preview,omitempty"`
	Clip       ClipOverlay          `json:"clip"`
	Background render.Color         `json:"background"`
	Primitives []document.Primitive `json:"primitives"`
	Notice     *Notice              `json:"notice,omitempty"`
	Busy       bool                 `json:"busy"`
}

// ClipOverlay is the clip editor part of an Overlay.
type ClipOverlay struct {
	Enabled   bool           `json:"enabled"`
	Algorithm clip.Algorithm `json:"algorithm"`
	Region    clip.Region    `json:"region"`
	Handles   []clip.Handle  `json:"handles"`
	Dragging  bool           `json:"dragging"`
}

// Overlay returns a snapshot that shares no memory with the engine.
func (e *Engine) Overlay() Overlay {
	o := Overlay{
		Width:      e.opts.Width,
		Height:     e.opts.Height,
		Mode:       e.mode,
		Cursor:     e.cursor,
		Selection:  slices.Clone(e.selection),
		Background: e.background,
		Primitives: e.cache.All(),
		Busy:       e.inflight > 0,
		Clip: ClipOverlay{
			Enabled:   e.clip.Enabled(),
			Algorithm: e.clip.Algorithm(),
			Region:    e.clip.Region(),
			Handles:   e.clip.Handles(),
			Dragging:  e.clip.Dragging(),
		},
	}
	if e.tool != nil {
		o.Tool = e.tool.ID
	}
	if e.collector != nil {
		o.Pending = e.collector.Pending()
	}
	if e.set != nil {
		set := *e.set
		set.Handles = slices.Clone(e.set.Handles)
		set.Knots = slices.Clone(e.set.Knots)
		set.Indices = slices.Clone(e.set.Indices)
		o.Handles = &set
	}
	if e.preview != nil {
		prev := *e.preview
		prev.Knots = slices.Clone(e.preview.Knots)
		o.Preview = &prev
	}
	if e.notice != nil {
		n := *e.notice
		o.Notice = &n
	}
	return o
}
