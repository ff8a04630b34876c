package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/inamate/inamate/canvas-go/internal/clip"
	"github.com/inamate/inamate/canvas-go/internal/schema"
	"github.com/inamate/inamate/canvas-go/internal/typeid"
)

var ErrSessionClosed = errors.New("session closed")

const eventBuffer = 256

type queuedJob struct {
	id   string
	name string
	run  Job
	done func(error)
}

// Session owns one Engine. Every event, timer fire and job completion runs
// as a closure on the session loop, so the engine is only ever touched from
// that goroutine. Render-service jobs run on a separate worker, one at a
// time, in submission order.
type Session struct {
	ID string

	engine *Engine

	events chan func()
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	jobTimeout time.Duration
	qmu        sync.Mutex
	queue      []queuedJob
	wake       chan struct{}

	smu     sync.Mutex
	subs    map[int]func(Overlay)
	nextSub int
}

// NewSession starts the loop and worker of a new session. A zero jobTimeout
// leaves jobs bounded only by the session lifetime.
func NewSession(id string, reg *schema.Registry, svc RenderService, opts Options, jobTimeout time.Duration) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:         id,
		events:     make(chan func(), eventBuffer),
		ctx:        ctx,
		cancel:     cancel,
		jobTimeout: jobTimeout,
		wake:       make(chan struct{}, 1),
		subs:       make(map[int]func(Overlay)),
	}
	opts.AfterFunc = s.afterFunc
	s.engine = New(reg, svc, s, opts)

	s.wg.Add(2)
	go s.loop()
	go s.worker()

	slog.Info("session started", "session", id)
	return s
}

// Do posts fn to the session loop without waiting for it.
func (s *Session) Do(fn func(e *Engine)) error {
	return s.post(func() { fn(s.engine) })
}

// Call runs fn on the session loop and waits for it to finish.
func (s *Session) Call(ctx context.Context, fn func(e *Engine)) error {
	done := make(chan struct{})
	if err := s.post(func() {
		defer close(done)
		fn(s.engine)
	}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ctx.Done():
		return ErrSessionClosed
	}
}

// Overlay returns the current overlay snapshot.
func (s *Session) Overlay(ctx context.Context) (Overlay, error) {
	var o Overlay
	err := s.Call(ctx, func(e *Engine) { o = e.Overlay() })
	return o, err
}

// Subscribe registers fn to receive a snapshot after every loop step. fn runs
// on the loop and must not block. The returned func unsubscribes.
func (s *Session) Subscribe(fn func(Overlay)) func() {
	s.smu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.smu.Unlock()

	return func() {
		s.smu.Lock()
		delete(s.subs, id)
		s.smu.Unlock()
	}
}

// Close stops timers, the loop and the worker. Queued jobs are dropped.
func (s *Session) Close() {
	select {
	case <-s.ctx.Done():
		return
	default:
	}
	_ = s.Call(context.Background(), func(e *Engine) { e.Close() })
	s.cancel()
	s.wg.Wait()
	slog.Info("session closed", "session", s.ID)
}

// Submit queues a job for the worker. It never blocks the loop.
func (s *Session) Submit(name string, job Job, done func(error)) {
	s.qmu.Lock()
	s.queue = append(s.queue, queuedJob{id: typeid.NewJobID(), name: name, run: job, done: done})
	s.qmu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Session) post(fn func()) error {
	select {
	case <-s.ctx.Done():
		return ErrSessionClosed
	default:
	}
	select {
	case s.events <- fn:
		return nil
	case <-s.ctx.Done():
		return ErrSessionClosed
	}
}

func (s *Session) loop() {
	defer s.wg.Done()
	for {
		select {
		case fn := <-s.events:
			fn()
			s.notify()
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Session) notify() {
	s.smu.Lock()
	subs := make([]func(Overlay), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.smu.Unlock()
	if len(subs) == 0 {
		return
	}

	o := s.engine.Overlay()
	for _, fn := range subs {
		fn(o)
	}
}

func (s *Session) worker() {
	defer s.wg.Done()
	for {
		j, ok := s.next()
		if !ok {
			select {
			case <-s.wake:
				continue
			case <-s.ctx.Done():
				return
			}
		}

		ctx := s.ctx
		cancel := func() {}
		if s.jobTimeout > 0 {
			ctx, cancel = context.WithTimeout(s.ctx, s.jobTimeout)
		}
		start := time.Now()
		err := j.run(ctx)
		cancel()

		slog.Debug("job finished", "session", s.ID, "job", j.id, "op", j.name, "elapsed", time.Since(start), "error", err)
		if s.post(func() { j.done(err) }) != nil {
			return
		}
	}
}

func (s *Session) next() (queuedJob, bool) {
	s.qmu.Lock()
	defer s.qmu.Unlock()
	if len(s.queue) == 0 {
		return queuedJob{}, false
	}
	j := s.queue[0]
	s.queue = s.queue[1:]
	return j, true
}

// afterFunc schedules f on the session loop.
func (s *Session) afterFunc(d time.Duration, f func()) clip.Timer {
	return time.AfterFunc(d, func() {
		_ = s.post(f)
	})
}
