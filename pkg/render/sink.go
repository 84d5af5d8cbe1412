package render

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/goliatone/go-view/pkg/async"
)

// Sink receives the outcome of a render call. Send is invoked exactly once per
// call, with either the rendered body or an error.
type Sink interface {
	GetHeader(name string) string
	SetHeader(name, value string)
	Send(body string, err error)
}

// LocalsProvider is implemented by sinks carrying request-scoped template data
// set by upstream handlers. Locals override the default context and are
// overridden by the data passed to Render.
type LocalsProvider interface {
	Locals() map[string]any
}

// RequestPathProvider is implemented by sinks bound to a request; the path is
// matched against the minifier exclusion list.
type RequestPathProvider interface {
	RequestPath() string
}

func localsOf(sink Sink) map[string]any {
	if lp, ok := sink.(LocalsProvider); ok {
		return lp.Locals()
	}
	return nil
}

func requestPathOf(sink Sink) string {
	if rp, ok := sink.(RequestPathProvider); ok {
		return rp.RequestPath()
	}
	return ""
}

// onceSink drops every delivery after the first.
type onceSink struct {
	Sink
	sent   atomic.Bool
	logger *slog.Logger
}

func (s *onceSink) Send(body string, err error) {
	if !s.sent.CompareAndSwap(false, true) {
		s.logger.Warn("render: dropped duplicate delivery", "error", err)
		return
	}
	s.Sink.Send(body, err)
}

func (s *onceSink) Locals() map[string]any { return localsOf(s.Sink) }

func (s *onceSink) RequestPath() string { return requestPathOf(s.Sink) }

// captureSink stands in for the real sink while the page inside a layout is
// rendered. Headers are ignored; a successful body is handed to onBody and
// failures go straight to the parent.
type captureSink struct {
	parent Sink
	onBody func(body string)
}

func (s *captureSink) GetHeader(string) string { return "" }

func (s *captureSink) SetHeader(string, string) {}

func (s *captureSink) Send(body string, err error) {
	if err != nil {
		s.parent.Send("", err)
		return
	}
	s.onBody(body)
}

func (s *captureSink) RequestPath() string { return requestPathOf(s.parent) }

// futureSink settles a future instead of writing a response.
type futureSink struct {
	future *async.Future[string]
	locals map[string]any
}

func newFutureSink(ctx context.Context) *futureSink {
	return &futureSink{
		future: async.New[string](),
		locals: LocalsFromContext(ctx),
	}
}

func (s *futureSink) GetHeader(string) string { return "" }

func (s *futureSink) SetHeader(string, string) {}

func (s *futureSink) Send(body string, err error) {
	if err != nil {
		s.future.Reject(err)
		return
	}
	s.future.Resolve(body)
}

func (s *futureSink) Locals() map[string]any { return s.locals }

type localsKey struct{}

// WithLocals attaches template locals to ctx. Locals set this way are merged
// into every render that runs with ctx, after the default context.
func WithLocals(ctx context.Context, locals map[string]any) context.Context {
	merged := mergeData(LocalsFromContext(ctx), locals)
	return context.WithValue(ctx, localsKey{}, merged)
}

// LocalsFromContext returns the locals attached to ctx, if any.
func LocalsFromContext(ctx context.Context) map[string]any {
	if ctx == nil {
		return nil
	}
	locals, _ := ctx.Value(localsKey{}).(map[string]any)
	return locals
}
