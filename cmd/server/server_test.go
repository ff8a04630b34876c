package main

import (
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/inamate/inamate/canvas-go/internal/config"
	"github.com/inamate/inamate/canvas-go/internal/engine"
	"github.com/inamate/inamate/canvas-go/internal/render"
	"github.com/inamate/inamate/canvas-go/internal/schema"
	"github.com/inamate/inamate/canvas-go/internal/surface"
)

// fakeRenderService accepts every call and reports an empty primitive list.
type fakeRenderService struct {
	mu      sync.Mutex
	paths   []string
	engines map[string]bool
}

func (f *fakeRenderService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.paths = append(f.paths, r.URL.Path)
	f.engines[r.Header.Get(render.EngineHeader)] = true
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if r.URL.Path == "/engine/primitive/get_all" {
		w.Write([]byte(`[]`))
		return
	}
	w.Write([]byte(`{}`))
}

func (f *fakeRenderService) saw(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Contains(f.paths, path)
}

func setup(t *testing.T) (*httptest.Server, *fakeRenderService) {
	t.Helper()
	fake := &fakeRenderService{engines: map[string]bool{}}
	renderSrv := httptest.NewServer(fake)
	t.Cleanup(renderSrv.Close)

	cfg := &config.Config{
		RenderServiceURL: renderSrv.URL,
		RequestTimeout:   time.Second,
		ViewportWidth:    320,
		ViewportHeight:   200,
		AllowedOrigins:   "*",
	}
	reg := schema.NewBuiltinRegistry()
	hub := surface.NewHub(newSessionFactory(cfg, reg))
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	srv := httptest.NewServer(newRouter(cfg, reg, hub))
	t.Cleanup(srv.Close)
	return srv, fake
}

func TestHealthAndSchemas(t *testing.T) {
	srv, _ := setup(t)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/schemas")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var tools []struct {
		ID       string `json:"id"`
		Endpoint string `json:"endpoint"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tools); err != nil {
		t.Fatalf("decode schemas: %v", err)
	}
	found := false
	for _, tool := range tools {
		if tool.ID == "bspline" && tool.Endpoint == "BsplineCurve" {
			found = true
		}
	}
	if !found {
		t.Errorf("schemas = %+v, want bspline", tools)
	}
}

func TestUnknownSession(t *testing.T) {
	srv, _ := setup(t)
	for _, path := range []string{"/sessions/sess_missing/state", "/sessions/sess_missing/overlay.png"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s status = %d, want 404", path, resp.StatusCode)
		}
	}
}

func TestSessionStateAndOverlay(t *testing.T) {
	srv, fake := setup(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/session", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	var sessionID string
	for sessionID == "" {
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var msg surface.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatal(err)
		}
		if msg.Type == surface.TypeWelcome {
			sessionID = msg.SessionID
		}
	}

	var o engine.Overlay
	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get(srv.URL + "/sessions/" + sessionID + "/state")
		if err != nil {
			t.Fatal(err)
		}
		err = json.NewDecoder(resp.Body).Decode(&o)
		resp.Body.Close()
		if err != nil {
			t.Fatalf("decode state: %v", err)
		}
		if !o.Busy && fake.saw("/engine/primitive/get_all") {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("session stayed busy")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if o.Width != 320 || o.Height != 200 || o.Notice != nil {
		t.Errorf("overlay = %dx%d notice %+v", o.Width, o.Height, o.Notice)
	}

	fake.mu.Lock()
	named := fake.engines[sessionID]
	fake.mu.Unlock()
	if !named {
		t.Errorf("render service never saw engine %q", sessionID)
	}

	resp, err := http.Get(srv.URL + "/sessions/" + sessionID + "/overlay.png")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content type = %q", ct)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 200 {
		t.Errorf("png size = %dx%d", b.Dx(), b.Dy())
	}
}
