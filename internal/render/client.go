// Package render is the HTTP client of the external render service. Every
// call is a JSON POST scoped to one engine by the Engine-Name header.
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/inamate/inamate/canvas-go/internal/document"
	"github.com/inamate/inamate/canvas-go/internal/geometry"
	"github.com/inamate/inamate/canvas-go/internal/schema"
)

// EngineHeader names the render engine a request targets.
const EngineHeader = "Engine-Name"

const maxErrorBody = 512

// NetworkError is returned for transport failures and non-2xx responses.
type NetworkError struct {
	Op     string
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("render %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("render %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Client talks to one render engine.
type Client struct {
	baseURL    string
	engineName string
	http       *http.Client
}

// NewClient returns a client for engineName at baseURL. A zero timeout
// leaves requests bounded only by their context.
func NewClient(baseURL, engineName string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		engineName: engineName,
		http:       &http.Client{Timeout: timeout},
	}
}

// EngineName returns the engine the client is bound to.
func (c *Client) EngineName() string { return c.engineName }

// Create starts the render engine for this session.
func (c *Client) Create(ctx context.Context, width, height int) error {
	return c.post(ctx, "create", "/engine/create", createBody{Name: c.engineName, Width: width, Height: height}, nil)
}

// PushBack appends a new primitive.
func (c *Client) PushBack(ctx context.Context, req schema.Request) error {
	return c.post(ctx, "push_back", "/engine/primitive/push_back", req, nil)
}

// Insert applies a transform to the primitive at index by inserting a
// transform record before it.
func (c *Client) Insert(ctx context.Context, d geometry.Delta, index int) error {
	tb, err := TransformBody(d)
	if err != nil {
		return err
	}
	body := insertBody{Primitive: map[string]any{"Transform": tb}, Index: index}
	return c.post(ctx, "insert", "/engine/primitive/insert", body, nil)
}

// Modify replaces the primitive at index.
func (c *Client) Modify(ctx context.Context, req schema.Request, index int) error {
	return c.post(ctx, "modify", "/engine/primitive/modify", modifyBody{Primitive: req, Index: index}, nil)
}

// Remove deletes the primitive at index.
func (c *Client) Remove(ctx context.Context, index int) error {
	return c.post(ctx, "remove", "/engine/primitive/remove", removeBody{Index: index}, nil)
}

// GetAll fetches the full primitive list in server order.
func (c *Client) GetAll(ctx context.Context) ([]document.Raw, error) {
	var out []document.Raw
	if err := c.post(ctx, "get_all", "/engine/primitive/get_all", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetGlobalOptions replaces the engine-wide options.
func (c *Client) SetGlobalOptions(ctx context.Context, opts GlobalOptions) error {
	return c.post(ctx, "set_global_options", "/engine/set_global_options", globalOptionsBody{GlobalOptions: opts}, nil)
}

func (c *Client) post(ctx context.Context, op, path string, body, out any) error {
	var payload io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", op, err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, payload)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(EngineHeader, c.engineName)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		slog.Warn("render request failed", "op", op, "engine", c.engineName, "error", err)
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	slog.Debug("render request", "op", op, "engine", c.engineName, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &NetworkError{
			Op:     op,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("%s", strings.TrimSpace(string(snippet))),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &NetworkError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
