package engine

import (
	"errors"
	"log/slog"

	"github.com/inamate/inamate/canvas-go/internal/collect"
	"github.com/inamate/inamate/canvas-go/internal/geometry"
	"github.com/inamate/inamate/canvas-go/internal/schema"
	"github.com/inamate/inamate/canvas-go/internal/transform"
)

// PointerDown starts a clip-handle drag, a transform gesture on the
// selection, or a drag-mode creation gesture.
func (e *Engine) PointerDown(p geometry.Position) {
	e.cursor = p
	e.suppressClick = false

	if e.mode != ModeClipDraw && e.clip.Enabled() {
		if idx, ok := e.clip.HitTest(p.Point(), e.opts.HitRadius); ok && e.clip.BeginDrag(idx) {
			return
		}
	}

	switch e.mode {
	case ModeDraw:
		e.collector.PointerDown(p)
	case ModeSelect:
		if e.set == nil {
			return
		}
		hit := e.set.HitTest(p.Point(), e.opts.HitRadius)
		if g, ok := transform.Begin(e.set, hit, p.Point()); ok {
			e.gesture = g
			prev := g.Preview()
			e.preview = &prev
		}
	}
}

// PointerMove updates whatever drag is in progress.
func (e *Engine) PointerMove(p geometry.Position) {
	e.cursor = p
	switch {
	case e.clip.Dragging():
		e.clip.DragTo(p)
	case e.gesture != nil:
		prev := e.gesture.Move(p.Point())
		e.preview = &prev
	}
}

// PointerUp finishes the drag in progress.
func (e *Engine) PointerUp(p geometry.Position) {
	e.cursor = p
	switch {
	case e.clip.Dragging():
		e.clip.EndDrag(p)
		e.suppressClick = true
	case e.gesture != nil:
		res := e.gesture.End(p.Point())
		e.gesture = nil
		e.preview = nil
		e.suppressClick = true
		e.applyResult(res)
	case e.mode == ModeDraw:
		e.handleOutcome(e.collector.PointerUp(p))
	}
}

// Click feeds a click to the collector of the armed tool or clip drawing.
func (e *Engine) Click(p geometry.Position) {
	e.cursor = p
	if e.suppressClick {
		e.suppressClick = false
		return
	}
	if e.collecting() {
		e.handleOutcome(e.collector.Click(p))
	}
}

// DoubleClick closes a multi-point gesture.
func (e *Engine) DoubleClick(p geometry.Position) {
	e.cursor = p
	if !e.collecting() {
		return
	}
	out, err := e.collector.DoubleClick()
	var short *schema.InsufficientPointsError
	if errors.As(err, &short) {
		slog.Debug("double click ignored", "have", short.Have, "need", short.Need)
		return
	}
	e.handleOutcome(out)
}

// ContextMenu removes the latest pending point.
func (e *Engine) ContextMenu(p geometry.Position) {
	e.cursor = p
	if e.collecting() {
		e.collector.ContextMenu()
	}
}

func (e *Engine) collecting() bool {
	return e.collector != nil && (e.mode == ModeDraw || e.mode == ModeClipDraw)
}

func (e *Engine) handleOutcome(out collect.Outcome) {
	if !out.Committed {
		return
	}
	if e.mode == ModeClipDraw {
		if err := e.clip.Replace(out.Points); err != nil {
			slog.Warn("clip window rejected", "error", err)
		}
		e.restoreToolCollector()
		e.mode = e.restingMode()
		return
	}
	e.commitPrimitive(out.Points)
}
