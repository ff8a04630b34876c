package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/inamate/inamate/canvas-go/internal/config"
	"github.com/inamate/inamate/canvas-go/internal/engine"
	"github.com/inamate/inamate/canvas-go/internal/render"
	"github.com/inamate/inamate/canvas-go/internal/schema"
	"github.com/inamate/inamate/canvas-go/internal/surface"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := schema.NewBuiltinRegistry()

	hub := surface.NewHub(newSessionFactory(cfg, reg))
	hubDone := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(hubDone)
	}()

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      newRouter(cfg, reg, hub),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Closing the hub stops every session and its pending jobs.
		cancel()
		<-hubDone

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "render_service", cfg.RenderServiceURL)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

// newSessionFactory binds each session to its own render engine, named after
// the session id.
func newSessionFactory(cfg *config.Config, reg *schema.Registry) surface.SessionFactory {
	opts := engine.Options{
		Width:        cfg.ViewportWidth,
		Height:       cfg.ViewportHeight,
		HandleOffset: cfg.HandleOffset,
		HitRadius:    cfg.HandleRadius,
		CloseRadius:  cfg.CloseRadius,
		ClipDebounce: cfg.ClipDebounce,
	}
	return func(id string) *engine.Session {
		svc := render.NewClient(cfg.RenderServiceURL, id, cfg.RequestTimeout)
		slog.Info("render client bound", "session", id, "engine", svc.EngineName(), "render_service", cfg.RenderServiceURL)
		// Each request is already bounded by the client timeout.
		return engine.NewSession(id, reg, svc, opts, 0)
	}
}
