package render

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/goliatone/go-view/internal/ctxlog"
	"github.com/goliatone/go-view/pkg/async"
	"github.com/goliatone/go-view/pkg/engine"
	"github.com/goliatone/go-view/pkg/loader"
)

// Render call states, reported in debug logs.
const (
	stateStart            = "start"
	stateValidatingLayout = "validating_layout"
	stateLoadingTemplate  = "loading_template"
	stateResolvePartials  = "resolving_partials"
	stateExecuting        = "executing"
	stateDelivered        = "delivered"
	stateFailed           = "failed"
)

type renderFunc func(ctx context.Context, sink Sink, page string, data map[string]any, opts RenderOptions)

// Renderer loads, composes and executes page templates. A Renderer is safe
// for concurrent use; its engine is shared by every call.
type Renderer struct {
	charset        string
	loader         *loader.Loader
	engine         *engine.Engine
	defaultContext map[string]any
	partials       map[string]string
	layout         string
	logger         *slog.Logger

	render renderFunc
}

// New constructs a Renderer. A global layout that cannot be accessed fails
// construction.
func New(options ...Option) (*Renderer, error) {
	cfg := &config{
		charset: DefaultCharset,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	fsys, err := templatesFS(cfg)
	if err != nil {
		return nil, err
	}

	loaderOpts := []loader.Option{
		loader.WithCharset(cfg.charset),
		loader.WithExtension(cfg.extension),
		loader.WithMinifyExclusions(cfg.minifyExclusions...),
	}
	if cfg.minifier != nil {
		loaderOpts = append(loaderOpts, loader.WithMinifier(cfg.minifier, cfg.minifierOptions))
	}
	l, err := loader.New(fsys, loaderOpts...)
	if err != nil {
		return nil, newError(ErrConfig, "", fmt.Errorf("render: configure loader: %w", err))
	}

	e := cfg.engine
	if e == nil {
		e, err = engine.New(engine.WithFS(fsys))
		if err != nil {
			return nil, fmt.Errorf("render: configure engine: %w", err)
		}
	}
	for name, fn := range cfg.helpers {
		if err := e.RegisterHelper(name, fn); err != nil {
			return nil, newError(ErrConfig, "", fmt.Errorf("render: register helper %q: %w", name, err))
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &Renderer{
		charset:        cfg.charset,
		loader:         l,
		engine:         e,
		defaultContext: cfg.defaultContext,
		partials:       cfg.partials,
		layout:         cfg.layout,
		logger:         logger,
	}

	if r.layout != "" {
		if err := r.layoutIsValid(r.layout); err != nil {
			return nil, err
		}
	}
	r.render = r.withLayout(r.view, r.layout)

	return r, nil
}

func templatesFS(cfg *config) (fs.FS, error) {
	if cfg.templates != nil {
		return cfg.templates, nil
	}
	root := cfg.root
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, newError(ErrConfig, "", fmt.Errorf("render: resolve root %q: %w", root, err))
	}
	return os.DirFS(abs), nil
}

// ContentType is the header value set on sinks that have none.
func (r *Renderer) ContentType() string {
	return "text/html; charset=" + r.charset
}

// Charset reports the configured charset.
func (r *Renderer) Charset() string {
	return r.charset
}

// Engine exposes the shared template engine, e.g. to register helpers after
// construction.
func (r *Renderer) Engine() *engine.Engine {
	return r.engine
}

// Loader exposes the template loader.
func (r *Renderer) Loader() *loader.Loader {
	return r.loader
}

// Render renders page with data and delivers the result, or the failure, to
// sink. Send is called exactly once before Render returns.
func (r *Renderer) Render(ctx context.Context, sink Sink, page string, data map[string]any, opts RenderOptions) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := ctxlog.FromContext(ctx, r.logger)
	guarded := &onceSink{Sink: sink, logger: logger}

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("render: panic", "page", page, "panic", rec)
			guarded.Send("", newError(ErrCompile, page, fmt.Errorf("render: panic: %v", rec)))
		}
	}()

	logger.Debug("render: state", "page", page, "state", stateStart)
	r.render(ctx, guarded, page, data, opts)
}

// RenderString runs the pipeline without a live response. Locals attached to
// ctx with WithLocals are merged as they would be for a response.
func (r *Renderer) RenderString(ctx context.Context, page string, data map[string]any, opts RenderOptions) *async.Future[string] {
	if ctx == nil {
		ctx = context.Background()
	}
	sink := newFutureSink(ctx)
	go r.Render(ctx, sink, page, data, opts)
	return sink.future
}

// RenderFunc is RenderString for callers using a completion callback. done
// receives the body on success, or the error.
func (r *Renderer) RenderFunc(ctx context.Context, page string, data map[string]any, opts RenderOptions, done func(string, error)) {
	r.RenderString(ctx, page, data, opts).Then(done)
}

// view is the layout-free pipeline: load, resolve partials, execute, deliver.
func (r *Renderer) view(ctx context.Context, sink Sink, page string, data map[string]any, opts RenderOptions) {
	logger := ctxlog.FromContext(ctx, r.logger).With("page", page)

	if opts.Layout != "" {
		logger.Debug("render: state", "state", stateValidatingLayout, "layout", opts.Layout)
		if err := r.layoutIsValid(opts.Layout); err != nil {
			r.fail(logger, sink, err)
			return
		}
		r.withLayout(r.view, opts.Layout)(ctx, sink, page, data, RenderOptions{})
		return
	}

	if page == "" {
		r.fail(logger, sink, newError(ErrConfig, page, ErrMissingPage))
		return
	}

	data = r.mergeContext(sink, data)
	name := r.loader.PageName(page)
	requestedPath := requestPathOf(sink)

	logger.Debug("render: state", "state", stateLoadingTemplate, "template", name)
	source, err := r.loader.Load(name, requestedPath)
	if err != nil {
		r.fail(logger, sink, newError(ErrRead, name, err))
		return
	}

	logger.Debug("render: state", "state", stateResolvePartials, "partials", len(r.partials))
	partials, err := r.loader.ResolveAll(r.partials, requestedPath)
	if err != nil {
		r.fail(logger, sink, newError(ErrRead, name, err))
		return
	}

	logger.Debug("render: state", "state", stateExecuting, "template", name)
	out, err := r.execute(ctx, sink, source, partials, data)
	if err != nil {
		r.fail(logger, sink, newError(ErrCompile, name, err))
		return
	}

	logger.Debug("render: state", "state", stateDelivered, "template", name, "bytes", len(out))
	sink.Send(out, nil)
}

func (r *Renderer) execute(ctx context.Context, sink Sink, source string, partials map[string]string, data map[string]any) (out string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("render: panic: %v", rec)
		}
	}()

	if err := r.engine.RegisterPartials(partials); err != nil {
		return "", err
	}

	if sink.GetHeader("Content-Type") == "" {
		sink.SetHeader("Content-Type", r.ContentType())
	}

	tpl, err := r.engine.Compile(source)
	if err != nil {
		return "", err
	}

	// the call runs to completion even if the caller stopped waiting.
	detached := context.WithoutCancel(ctx)
	return r.engine.Execute(detached, tpl, data).Await(detached)
}

func (r *Renderer) fail(logger *slog.Logger, sink Sink, err error) {
	var rerr *Error
	if errors.As(err, &rerr) && rerr.Kind == ErrConfig {
		logger.Warn("render: state", "state", stateFailed, "error", err)
	} else {
		logger.Error("render: state", "state", stateFailed, "error", err)
	}
	sink.Send("", err)
}

func (r *Renderer) mergeContext(sink Sink, data map[string]any) map[string]any {
	return mergeData(r.defaultContext, localsOf(sink), data)
}

// mergeData shallow-merges sources into a new map; later sources win.
func mergeData(sources ...map[string]any) map[string]any {
	size := 0
	for _, src := range sources {
		size += len(src)
	}
	out := make(map[string]any, size)
	for _, src := range sources {
		for key, value := range src {
			out[key] = value
		}
	}
	return out
}
