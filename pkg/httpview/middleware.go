package httpview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-view/internal/ctxlog"
	"github.com/goliatone/go-view/pkg/render"
)

// RequestIDHeader is read from incoming requests and echoed on responses.
const RequestIDHeader = "X-Request-ID"

var (
	// ErrNoRegistry is returned by Lookup when Middleware did not run.
	ErrNoRegistry = errors.New("httpview: no renderer registry on request")

	errNoResponse = errors.New("httpview: renderer delivered no response")
)

type registryKey struct{}

type requestIDKey struct{}

// Middleware exposes registry to downstream handlers and attaches a request
// scoped logger carrying the request id. A nil logger uses slog.Default.
func Middleware(registry *render.Registry, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, id)

			reqLogger := logger.With("request_id", id, "method", r.Method, "path", r.URL.Path)

			ctx := r.Context()
			ctx = context.WithValue(ctx, registryKey{}, registry)
			ctx = context.WithValue(ctx, requestIDKey{}, id)
			ctx = ctxlog.WithLogger(ctx, reqLogger)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestID returns the id assigned to the request by Middleware.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Registry returns the registry installed by Middleware.
func Registry(ctx context.Context) (*render.Registry, bool) {
	registry, ok := ctx.Value(registryKey{}).(*render.Registry)
	return registry, ok && registry != nil
}

// Lookup returns the renderer registered as name, or render.DefaultName when
// name is empty.
func Lookup(r *http.Request, name string) (*render.Renderer, error) {
	registry, ok := Registry(r.Context())
	if !ok {
		return nil, ErrNoRegistry
	}
	renderer, err := registry.Get(name)
	if err != nil {
		return nil, fmt.Errorf("httpview: lookup: %w", err)
	}
	return renderer, nil
}

// SetLocals returns r carrying locals merged over any set before. Locals are
// visible to every render for the request.
func SetLocals(r *http.Request, locals map[string]any) *http.Request {
	return r.WithContext(render.WithLocals(r.Context(), locals))
}
