package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/inamate/inamate/canvas-go/internal/clip"
	"github.com/inamate/inamate/canvas-go/internal/document"
	"github.com/inamate/inamate/canvas-go/internal/geometry"
	"github.com/inamate/inamate/canvas-go/internal/render"
	"github.com/inamate/inamate/canvas-go/internal/schema"
)

// fakeService keeps a primitive list the way the render service does:
// transforms are inserted as records in front of their target.
type fakeService struct {
	mu      sync.Mutex
	records []document.Raw
	calls   []string
	fail    map[string]error
	options []render.GlobalOptions
}

func newFakeService() *fakeService {
	return &fakeService{fail: map[string]error{}}
}

func (f *fakeService) record(call string) error {
	f.calls = append(f.calls, call)
	op, _, _ := strings.Cut(call, " ")
	if err, ok := f.fail[op]; ok {
		return &render.NetworkError{Op: op, Status: 500, Err: err}
	}
	return nil
}

func toRaw(v any) document.Raw {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	var raw document.Raw
	if err := json.Unmarshal(data, &raw); err != nil {
		panic(err)
	}
	return raw
}

func (f *fakeService) Create(_ context.Context, w, h int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record(fmt.Sprintf("create %dx%d", w, h))
}

func (f *fakeService) PushBack(_ context.Context, req schema.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("push_back " + req.Endpoint); err != nil {
		return err
	}
	f.records = append(f.records, toRaw(req))
	return nil
}

func (f *fakeService) Insert(_ context.Context, d geometry.Delta, index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(fmt.Sprintf("insert %d %s", index, d.Kind())); err != nil {
		return err
	}
	body, err := render.TransformBody(d)
	if err != nil {
		return err
	}
	f.records = slices.Insert(f.records, index, toRaw(map[string]any{"Transform": body}))
	return nil
}

func (f *fakeService) Modify(_ context.Context, req schema.Request, index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(fmt.Sprintf("modify %d", index)); err != nil {
		return err
	}
	f.records[index] = toRaw(req)
	return nil
}

func (f *fakeService) Remove(_ context.Context, index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(fmt.Sprintf("remove %d", index)); err != nil {
		return err
	}
	f.records = slices.Delete(f.records, index, index+1)
	return nil
}

func (f *fakeService) GetAll(context.Context) ([]document.Raw, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("get_all"); err != nil {
		return nil, err
	}
	return slices.Clone(f.records), nil
}

func (f *fakeService) SetGlobalOptions(_ context.Context, opts render.GlobalOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("set_global_options"); err != nil {
		return err
	}
	f.options = append(f.options, opts)
	return nil
}

func (f *fakeService) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func (f *fakeService) resetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *fakeService) endpointAt(i int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k := range f.records[i] {
		return k
	}
	return ""
}

// queueDispatcher holds jobs until flush, then runs them in order on the
// calling goroutine the way a session worker would.
type queueDispatcher struct {
	queue []func()
}

func (d *queueDispatcher) Submit(_ string, job Job, done func(error)) {
	d.queue = append(d.queue, func() { done(job(context.Background())) })
}

func (d *queueDispatcher) flush() {
	for len(d.queue) > 0 {
		next := d.queue[0]
		d.queue = d.queue[1:]
		next()
	}
}

type fakeTimer struct {
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeClock struct {
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(_ time.Duration, f func()) clip.Timer {
	t := &fakeTimer{f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) fireAll() {
	timers := c.timers
	c.timers = nil
	for _, t := range timers {
		t.f()
	}
}
