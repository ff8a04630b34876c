package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/inamate/inamate/canvas-go/internal/clip"
	"github.com/inamate/inamate/canvas-go/internal/document"
	"github.com/inamate/inamate/canvas-go/internal/geometry"
	"github.com/inamate/inamate/canvas-go/internal/render"
	"github.com/inamate/inamate/canvas-go/internal/schema"
	"github.com/inamate/inamate/canvas-go/internal/transform"
)

// Bootstrap creates the render engine, applies the current global options
// and loads the primitive list. It runs once per session.
func (e *Engine) Bootstrap() {
	if e.created {
		return
	}
	e.created = true
	opts := e.globalOptions(e.clip.Options())
	w, h := e.opts.Width, e.opts.Height
	e.mutate("create", func(ctx context.Context) error {
		if err := e.svc.Create(ctx, w, h); err != nil {
			return err
		}
		return e.svc.SetGlobalOptions(ctx, opts)
	}, e.selection)
}

// Refresh reloads the primitive list and revalidates the selection.
func (e *Engine) Refresh() {
	e.mutate("get_all", nil, e.selection)
}

// Remove deletes every selected primitive, highest index first, and clears
// the selection.
func (e *Engine) Remove() {
	if len(e.selection) == 0 {
		return
	}
	indices := slices.Clone(e.selection)
	e.resetGesture()
	e.mutate("remove", func(ctx context.Context) error {
		for _, i := range slices.Backward(indices) {
			if err := e.svc.Remove(ctx, i); err != nil {
				return fmt.Errorf("remove %d: %w", i, err)
			}
		}
		return nil
	}, nil)
}

func (e *Engine) commitPrimitive(points []geometry.Position) {
	if e.tool == nil {
		return
	}
	req, err := e.tool.BuildRequest(points, e.inputs)
	// inputs belong to one creation
	e.inputs = schema.Inputs{}
	if err != nil {
		slog.Warn("primitive request rejected", "tool", e.tool.ID, "error", err)
		e.notice = &Notice{Op: "push_back", Message: err.Error()}
		return
	}
	e.mutate("push_back", func(ctx context.Context) error {
		return e.svc.PushBack(ctx, req)
	}, e.selection)
}

func (e *Engine) applyResult(res transform.Result) {
	if !res.Mutates() {
		p := res.Pivot
		e.pivot = &p
		if e.set != nil {
			e.set.SetPivot(p)
		}
		return
	}
	if len(e.selection) == 0 {
		return
	}

	switch res.Kind {
	case transform.KindTranslate, transform.KindRotate, transform.KindScale:
		if isIdentity(res.Delta) {
			return
		}
		e.applyDelta(res.Delta)

	case transform.KindKnot:
		e.modifySelected("modify", func(p *document.Primitive) (schema.Request, error) {
			return p.WithKnots(res.Knots)
		})

	case transform.KindVertex:
		e.modifySelected("modify", func(p *document.Primitive) (schema.Request, error) {
			return p.WithVertex(res.Param, res.PointIndex, res.Position)
		})
	}
}

// applyDelta inserts the transform before every selected primitive, highest
// index first so lower indices stay valid, then refreshes once. Each
// selected primitive ends up shifted by the number of inserts at or below
// its index.
func (e *Engine) applyDelta(d geometry.Delta) {
	indices := slices.Clone(e.selection)
	next := make([]int, len(indices))
	for rank, i := range indices {
		next[rank] = i + rank + 1
	}
	e.mutate("insert", func(ctx context.Context) error {
		for _, i := range slices.Backward(indices) {
			if err := e.svc.Insert(ctx, d, i); err != nil {
				return fmt.Errorf("insert %s at %d: %w", d.Kind(), i, err)
			}
		}
		return nil
	}, next)
}

func (e *Engine) modifySelected(op string, edit func(p *document.Primitive) (schema.Request, error)) {
	if len(e.selection) != 1 {
		return
	}
	index := e.selection[0]
	prim, ok := e.cache.At(index)
	if !ok {
		slog.Debug("selection cleared", "index", index, "error", ErrStaleSelection)
		e.clearSelection()
		return
	}
	req, err := edit(prim)
	if err != nil {
		slog.Warn("edit rejected", "index", index, "error", err)
		e.notice = &Notice{Op: op, Message: err.Error()}
		return
	}
	e.mutate(op, func(ctx context.Context) error {
		return e.svc.Modify(ctx, req, index)
	}, []int{index})
}

// publishClip sends the global options with new clip settings.
func (e *Engine) publishClip(opts clip.Options) {
	g := e.globalOptions(opts)
	e.submit("set_global_options", func(ctx context.Context) error {
		return e.svc.SetGlobalOptions(ctx, g)
	}, func(err error) {
		if err != nil {
			e.fail("set_global_options", err, false)
		}
	})
}

func (e *Engine) globalOptions(opts clip.Options) render.GlobalOptions {
	return render.GlobalOptions{BackgroundColor: e.background, Clip: opts}
}

// mutate runs calls and a list refresh as one job. On success the cache is
// replaced and reselect is validated against it.
func (e *Engine) mutate(op string, calls func(ctx context.Context) error, reselect []int) {
	var raws []document.Raw
	e.submit(op, func(ctx context.Context) error {
		if calls != nil {
			if err := calls(ctx); err != nil {
				return err
			}
		}
		list, err := e.svc.GetAll(ctx)
		if err != nil {
			return err
		}
		raws = list
		return nil
	}, func(err error) {
		if err != nil {
			e.fail(op, err, calls != nil)
			return
		}
		e.cache.Load(raws)
		e.reselect(reselect)
	})
}

func (e *Engine) submit(op string, job Job, done func(error)) {
	e.inflight++
	e.dispatch.Submit(op, job, func(err error) {
		e.inflight--
		done(err)
	})
}

// fail surfaces a failed request. Gesture state is cleared so nothing stays
// half-finished, and a failed mutation is followed by a plain refresh since
// the server list is authoritative.
func (e *Engine) fail(op string, err error, resync bool) {
	slog.Error("render request failed", "op", op, "error", err)

	msg := err.Error()
	var ne *render.NetworkError
	if errors.As(err, &ne) {
		msg = ne.Error()
	}
	e.notice = &Notice{Op: op, Message: msg}
	e.resetGesture()

	if resync {
		e.mutate("get_all", nil, e.selection)
	}
}

func isIdentity(d geometry.Delta) bool {
	return d == nil || d.Matrix().IsIdentity()
}
