package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/inamate/inamate/canvas-go/internal/config"
	"github.com/inamate/inamate/canvas-go/internal/engine"
	mw "github.com/inamate/inamate/canvas-go/internal/middleware"
	"github.com/inamate/inamate/canvas-go/internal/overlay"
	"github.com/inamate/inamate/canvas-go/internal/schema"
	"github.com/inamate/inamate/canvas-go/internal/surface"
)

func newRouter(cfg *config.Config, reg *schema.Registry, hub *surface.Hub) http.Handler {
	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	r.HandleFunc("/schemas", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, reg.List())
	}).Methods("GET", "OPTIONS")

	r.HandleFunc("/sessions", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string][]string{"sessions": hub.Sessions()})
	}).Methods("GET", "OPTIONS")

	r.HandleFunc("/sessions/{sessionId}/state", func(w http.ResponseWriter, r *http.Request) {
		o, ok := sessionOverlay(w, r, hub)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, o)
	}).Methods("GET", "OPTIONS")

	r.HandleFunc("/sessions/{sessionId}/overlay.png", func(w http.ResponseWriter, r *http.Request) {
		o, ok := sessionOverlay(w, r, hub)
		if !ok {
			return
		}
		var buf bytes.Buffer
		if err := overlay.Render(o, &buf); err != nil {
			slog.Error("render overlay", "error", err)
			http.Error(w, "render failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		w.Write(buf.Bytes())
	}).Methods("GET")

	// WebSocket endpoint
	r.HandleFunc("/ws/session", hub.ServeWS(cfg.Origins()))

	return r
}

func sessionOverlay(w http.ResponseWriter, r *http.Request, hub *surface.Hub) (engine.Overlay, bool) {
	id := mux.Vars(r)["sessionId"]
	sess, ok := hub.Session(id)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return engine.Overlay{}, false
	}
	o, err := sess.Overlay(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, engine.ErrSessionClosed) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return engine.Overlay{}, false
	}
	return o, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("write response", "error", err)
	}
}
