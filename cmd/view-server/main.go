package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goliatone/go-view/pkg/config"
	"github.com/goliatone/go-view/pkg/httpview"
	"github.com/goliatone/go-view/pkg/render"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "config file (VIEW_CONFIG if empty)")
	addr := flag.String("addr", "", "listen address (overrides config)")
	verbose := flag.Bool("v", false, "log render state transitions")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("view-server: %v", err)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	handler, err := newHandler(cfg, logger)
	if err != nil {
		log.Fatalf("view-server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg.Addr, handler, logger); err != nil {
		log.Fatalf("view-server: %v", err)
	}
}

// newHandler builds the route mux behind the registry middleware.
func newHandler(cfg config.Config, logger *slog.Logger) (http.Handler, error) {
	renderer, err := render.New(append(cfg.RenderOptions(), render.WithLogger(logger))...)
	if err != nil {
		return nil, fmt.Errorf("new renderer: %w", err)
	}

	registry := render.NewRegistry()
	if err := registry.Register(cfg.PropertyName, renderer); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	for _, route := range cfg.Routes {
		page := route.Page
		data := route.Data
		opts := render.RenderOptions{Layout: route.Layout}
		name := cfg.PropertyName

		mux.HandleFunc("GET "+route.Path, func(w http.ResponseWriter, r *http.Request) {
			renderer, err := httpview.Lookup(r, name)
			if err != nil {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			httpview.Render(renderer, w, r, page, data, opts)
		})
		logger.Debug("view-server: route", "path", route.Path, "page", page, "layout", route.Layout)
	}

	return httpview.Middleware(registry, logger)(mux), nil
}

func serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("view-server: listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("view-server: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
