package engine

import (
	"context"
	"errors"

	"github.com/inamate/inamate/canvas-go/internal/document"
	"github.com/inamate/inamate/canvas-go/internal/geometry"
	"github.com/inamate/inamate/canvas-go/internal/render"
	"github.com/inamate/inamate/canvas-go/internal/schema"
)

// ErrStaleSelection is reported when a refresh no longer holds a selected
// primitive. The selection is cleared without notifying the user.
var ErrStaleSelection = errors.New("stale selection")

// RenderService is the remote render engine. *render.Client implements it.
type RenderService interface {
	Create(ctx context.Context, width, height int) error
	PushBack(ctx context.Context, req schema.Request) error
	Insert(ctx context.Context, d geometry.Delta, index int) error
	Modify(ctx context.Context, req schema.Request, index int) error
	Remove(ctx context.Context, index int) error
	GetAll(ctx context.Context) ([]document.Raw, error)
	SetGlobalOptions(ctx context.Context, opts render.GlobalOptions) error
}

var _ RenderService = (*render.Client)(nil)

// Job is a unit of render-service work run off the interaction loop.
type Job func(ctx context.Context) error

// Dispatcher runs jobs strictly in submission order and reports each result
// back on the interaction loop through done.
type Dispatcher interface {
	Submit(name string, job Job, done func(error))
}

// Notice is a user-visible message about a failed request.
type Notice struct {
	Op      string `json:"op"`
	Message string `json:"message"`
}
