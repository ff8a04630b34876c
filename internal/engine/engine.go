// Package engine is the interaction core of one canvas session. It routes
// pointer events to the point collector, the transform gestures and the clip
// editor, and turns their results into render-service jobs.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/inamate/inamate/canvas-go/internal/clip"
	"github.com/inamate/inamate/canvas-go/internal/collect"
	"github.com/inamate/inamate/canvas-go/internal/document"
	"github.com/inamate/inamate/canvas-go/internal/geometry"
	"github.com/inamate/inamate/canvas-go/internal/handles"
	"github.com/inamate/inamate/canvas-go/internal/render"
	"github.com/inamate/inamate/canvas-go/internal/schema"
	"github.com/inamate/inamate/canvas-go/internal/transform"
)

var ErrUnknownPrimitive = errors.New("unknown primitive")

// Mode is what pointer events currently drive.
type Mode string

const (
	ModeIdle     Mode = "idle"
	ModeDraw     Mode = "draw"
	ModeSelect   Mode = "select"
	ModeClipDraw Mode = "clip_draw"
)

// Options configures an Engine. Zero fields take defaults.
type Options struct {
	Width        int
	Height       int
	HandleOffset float64
	HitRadius    float64
	CloseRadius  float64
	ClipDebounce time.Duration
	// AfterFunc schedules debounced clip publishes. Sessions wrap it so the
	// callback runs on their loop.
	AfterFunc  clip.AfterFunc
	Background render.Color
}

func (o *Options) setDefaults() {
	if o.Width <= 0 {
		o.Width = 1280
	}
	if o.Height <= 0 {
		o.Height = 720
	}
	if o.HandleOffset <= 0 {
		o.HandleOffset = handles.DefaultOffset
	}
	if o.HitRadius <= 0 {
		o.HitRadius = handles.DefaultHitRadius
	}
	if o.CloseRadius <= 0 {
		o.CloseRadius = collect.DefaultCloseRadius
	}
	if o.ClipDebounce <= 0 {
		o.ClipDebounce = clip.DefaultDebounce
	}
	if o.Background == (render.Color{}) {
		o.Background = render.DefaultGlobalOptions().BackgroundColor
	}
}

// Engine holds the single interaction record of a canvas session. It is not
// safe for concurrent use: every call must come from the session loop.
type Engine struct {
	opts     Options
	reg      *schema.Registry
	svc      RenderService
	dispatch Dispatcher
	cache    *document.Cache

	mode      Mode
	tool      *schema.Descriptor
	collector *collect.Collector
	inputs    schema.Inputs
	cursor    geometry.Position

	selection []int // ascending
	set       *handles.Set
	pivot     *geometry.Position
	gesture   *transform.Gesture
	preview   *transform.Preview

	clip *clip.Editor
	// suppressClick swallows the click that follows a handle drag.
	suppressClick bool

	background render.Color
	notice     *Notice
	inflight   int
	created    bool
}

// New returns an idle engine.
func New(reg *schema.Registry, svc RenderService, dispatch Dispatcher, opts Options) *Engine {
	opts.setDefaults()
	e := &Engine{
		opts:       opts,
		reg:        reg,
		svc:        svc,
		dispatch:   dispatch,
		cache:      document.NewCache(reg),
		mode:       ModeIdle,
		inputs:     schema.Inputs{},
		background: opts.Background,
	}
	deb := clip.NewDebouncer(opts.ClipDebounce, opts.AfterFunc)
	e.clip = clip.NewEditor(opts.Width, opts.Height, e.publishClip, clip.WithDebouncer(deb))
	return e
}

func (e *Engine) Mode() Mode { return e.mode }

// Selection returns the selected primitive indices in ascending order.
func (e *Engine) Selection() []int { return slices.Clone(e.selection) }

// Primitives returns the cached primitive list.
func (e *Engine) Primitives() []document.Primitive { return e.cache.All() }

// Tools lists the registered drawing tools.
func (e *Engine) Tools() []*schema.Descriptor { return e.reg.List() }

// SelectTool arms a drawing tool. Any gesture in progress and the selection
// are dropped.
func (e *Engine) SelectTool(id string) error {
	d, ok := e.reg.Get(id)
	if !ok {
		return fmt.Errorf("select tool %q: %w", id, schema.ErrUnknownSchema)
	}
	e.resetGesture()
	e.clearSelection()
	e.tool = d
	proto := collect.ProtocolFor(d)
	proto.CloseRadius = e.opts.CloseRadius
	e.collector = collect.New(proto)
	e.mode = ModeDraw
	slog.Debug("tool selected", "tool", id)
	return nil
}

// ClearTool disarms the drawing tool.
func (e *Engine) ClearTool() {
	e.resetGesture()
	e.tool = nil
	e.collector = nil
	if e.mode == ModeDraw {
		e.mode = ModeIdle
	}
}

// SetInput stores structured values for the next creation request, such as
// a B-spline knot vector under "knots".
func (e *Engine) SetInput(name string, values []float64) {
	if len(values) == 0 {
		delete(e.inputs, name)
		return
	}
	e.inputs[name] = slices.Clone(values)
}

// Select selects the primitive at index. With additive set the index is
// toggled in the current selection instead of replacing it.
func (e *Engine) Select(index int, additive bool) error {
	if _, ok := e.cache.At(index); !ok {
		return fmt.Errorf("select %d: %w", index, ErrUnknownPrimitive)
	}
	e.resetGesture()

	sel := []int{index}
	if additive {
		sel = slices.Clone(e.selection)
		if i := slices.Index(sel, index); i >= 0 {
			sel = slices.Delete(sel, i, i+1)
		} else {
			sel = append(sel, index)
		}
	}
	slices.Sort(sel)
	e.setSelection(sel)
	return nil
}

// ClearSelection drops the selection and resumes drawing if a tool is armed.
func (e *Engine) ClearSelection() {
	e.resetGesture()
	e.clearSelection()
}

// Cancel abandons the gesture in progress without touching the selection.
func (e *Engine) Cancel() {
	e.resetGesture()
}

// Commit explicitly commits the pending points of the armed tool or clip
// drawing. Too few points is reported and the gesture continues.
func (e *Engine) Commit() error {
	if e.collector == nil || (e.mode != ModeDraw && e.mode != ModeClipDraw) {
		return nil
	}
	out, err := e.collector.Commit()
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	e.handleOutcome(out)
	return nil
}

// BeginClipDraw collects a new clip window of the active clip shape.
func (e *Engine) BeginClipDraw() {
	e.resetGesture()
	e.clearSelection()
	proto := e.clip.DrawProtocol()
	if proto.MultiPoint {
		proto.CloseRadius = e.opts.CloseRadius
	}
	e.collector = collect.New(proto)
	e.mode = ModeClipDraw
}

func (e *Engine) SetClipEnabled(on bool) { e.clip.SetEnabled(on) }

func (e *Engine) SetClipShape(s string) error {
	shape, err := clip.ParseShape(s)
	if err != nil {
		return err
	}
	return e.clip.SetShape(shape)
}

func (e *Engine) SetClipAlgorithm(a int) error {
	return e.clip.SetAlgorithm(clip.Algorithm(a))
}

// SetBackground publishes a new background color with the current clip.
func (e *Engine) SetBackground(c render.Color) {
	e.background = c
	e.publishClip(e.clip.Options())
}

// DismissNotice clears the current notice.
func (e *Engine) DismissNotice() { e.notice = nil }

// Close stops pending timers.
func (e *Engine) Close() {
	e.clip.Close()
}

func (e *Engine) restingMode() Mode {
	switch {
	case len(e.selection) > 0:
		return ModeSelect
	case e.tool != nil:
		return ModeDraw
	default:
		return ModeIdle
	}
}

// resetGesture drops pending points and any transform gesture. A clip drag
// ends where it is and its last position is still published.
func (e *Engine) resetGesture() {
	if e.collector != nil {
		e.collector.Cancel()
	}
	e.gesture = nil
	e.preview = nil
	e.clip.AbortDrag()
	if e.mode == ModeClipDraw {
		e.restoreToolCollector()
		e.mode = e.restingMode()
	}
}

func (e *Engine) restoreToolCollector() {
	e.collector = nil
	if e.tool != nil {
		proto := collect.ProtocolFor(e.tool)
		proto.CloseRadius = e.opts.CloseRadius
		e.collector = collect.New(proto)
	}
}

func (e *Engine) clearSelection() {
	e.selection = nil
	e.set = nil
	e.pivot = nil
	if e.mode == ModeSelect {
		e.mode = e.restingMode()
	}
}

func (e *Engine) setSelection(sel []int) {
	if len(sel) == 0 {
		e.clearSelection()
		return
	}
	e.selection = sel
	e.pivot = nil
	e.recomputeHandles()
	e.mode = ModeSelect
}

func (e *Engine) recomputeHandles() {
	shapes := make([]handles.Shape, 0, len(e.selection))
	for _, i := range e.selection {
		if p, ok := e.cache.At(i); ok {
			shapes = append(shapes, p.Shape())
		}
	}
	set, ok := handles.Compute(shapes, e.opts.HandleOffset)
	if !ok {
		e.set = nil
		return
	}
	if e.pivot != nil {
		set.SetPivot(*e.pivot)
	}
	e.set = set
}

// reselect validates indices against the refreshed cache. A missing index
// clears the selection.
func (e *Engine) reselect(indices []int) {
	if len(indices) == 0 {
		e.clearSelection()
		return
	}
	for _, i := range indices {
		if _, ok := e.cache.At(i); !ok {
			slog.Debug("selection cleared", "index", i, "error", ErrStaleSelection)
			e.clearSelection()
			return
		}
	}
	e.setSelection(slices.Clone(indices))
}
