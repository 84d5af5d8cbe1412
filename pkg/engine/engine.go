package engine

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-view/pkg/async"
)

// HTML marks a string as already-rendered markup; it is inserted into
// templates without escaping.
type HTML string

// Option configures the engine before construction.
type Option func(*config)

type config struct {
	templates fs.FS
	helpers   map[string]any
}

// WithFS lets templates include or extend files from fsys when no registered
// partial matches the requested name.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = files
	}
}

// WithHelpers registers helper functions when the engine is constructed.
func WithHelpers(helpers map[string]any) Option {
	return func(cfg *config) {
		if len(helpers) == 0 {
			return
		}
		if cfg.helpers == nil {
			cfg.helpers = make(map[string]any, len(helpers))
		}
		for name, fn := range helpers {
			cfg.helpers[strings.TrimSpace(name)] = fn
		}
	}
}

// Template is a compiled template handle.
type Template struct {
	tpl    *pongo2.Template
	source string
	sum    [sha256.Size]byte
}

// Source returns the text the template was compiled from.
func (t *Template) Source() string {
	if t == nil {
		return ""
	}
	return t.source
}

// Engine wraps a pongo2 template set shared across render calls.
type Engine struct {
	mu      sync.RWMutex
	helpers map[string]any

	// pongo2 mutates set state while parsing.
	compileMu sync.Mutex

	templateSet *pongo2.TemplateSet
	partials    *partialLoader
}

// New constructs an Engine applying the provided options.
func New(options ...Option) (*Engine, error) {
	cfg := &config{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	partials := newPartialLoader()
	loaders := []pongo2.TemplateLoader{partials}
	if cfg.templates != nil {
		loaders = append(loaders, pongo2.NewFSLoader(cfg.templates))
	}

	e := &Engine{
		helpers:     make(map[string]any),
		templateSet: pongo2.NewSet("view", loaders...),
		partials:    partials,
	}
	registerDefaultFilters()

	for name, fn := range cfg.helpers {
		if err := e.RegisterHelper(name, fn); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Compile parses source synchronously.
func (e *Engine) Compile(source string) (*Template, error) {
	if e == nil || e.templateSet == nil {
		return nil, errors.New("engine: engine is nil")
	}

	e.compileMu.Lock()
	tpl, err := e.templateSet.FromString(source)
	e.compileMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("engine: compile: %w", err)
	}
	return &Template{
		tpl:    tpl,
		source: source,
		sum:    sha256.Sum256([]byte(source)),
	}, nil
}

// Execute renders tpl against data on its own goroutine. Pending values found
// in data or returned by helpers are awaited before the template consumes
// them; any failure rejects the returned future.
func (e *Engine) Execute(ctx context.Context, tpl *Template, data any) *async.Future[string] {
	if e == nil || e.templateSet == nil {
		return async.Rejected[string](errors.New("engine: engine is nil"))
	}
	if tpl == nil || tpl.tpl == nil {
		return async.Rejected[string](errors.New("engine: template is nil"))
	}
	if ctx == nil {
		ctx = context.Background()
	}

	return async.Go(func() (string, error) {
		viewContext, err := convertToContext(data)
		if err != nil {
			return "", fmt.Errorf("engine: convert data: %w", err)
		}
		if err := awaitPendingValues(ctx, viewContext); err != nil {
			return "", fmt.Errorf("engine: resolve pending data: %w", err)
		}

		e.mu.RLock()
		for name, fn := range e.helpers {
			viewContext[name] = bindHelper(ctx, fn)
		}
		e.mu.RUnlock()

		out, err := tpl.tpl.Execute(viewContext)
		if err != nil {
			return "", fmt.Errorf("engine: execute: %w", err)
		}
		return out, nil
	})
}

// RegisterHelper makes fn callable from templates as name. pongo2 filter
// functions are registered as filters instead. Re-registering a name replaces
// the previous helper.
func (e *Engine) RegisterHelper(name string, fn any) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || fn == nil {
		return errors.New("engine: helper name and function required")
	}

	if filter, ok := fn.(pongo2.FilterFunction); ok {
		return registerFilter(trimmed, filter)
	}
	if filter, ok := fn.(func(*pongo2.Value, *pongo2.Value) (*pongo2.Value, *pongo2.Error)); ok {
		return registerFilter(trimmed, filter)
	}

	if !isCallable(fn) {
		return fmt.Errorf("engine: helper %q is not a function", trimmed)
	}

	e.mu.Lock()
	e.helpers[trimmed] = fn
	e.mu.Unlock()
	return nil
}

// RegisterFilter registers a template filter. Re-registering a name replaces
// the previous filter.
func (e *Engine) RegisterFilter(name string, fn func(input any, param any) (any, error)) error {
	if strings.TrimSpace(name) == "" || fn == nil {
		return errors.New("engine: filter name and function required")
	}

	filter := func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		var paramVal any
		if param != nil {
			paramVal = param.Interface()
		}
		result, err := fn(in.Interface(), paramVal)
		if err != nil {
			return nil, &pongo2.Error{Sender: "filter:" + name, OrigError: err}
		}
		return pongo2.AsValue(result), nil
	}
	return registerFilter(strings.TrimSpace(name), filter)
}

// RegisterPartial makes tpl available to {% include "name" %}.
func (e *Engine) RegisterPartial(name string, tpl *Template) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || tpl == nil {
		return errors.New("engine: partial name and template required")
	}
	e.partials.set(trimmed, tpl.source, tpl.sum)
	return nil
}

// RegisterPartials publishes every source before compiling any of them, so
// partials may include each other regardless of order. Sources identical to
// the current registration are not recompiled.
func (e *Engine) RegisterPartials(sources map[string]string) error {
	if len(sources) == 0 {
		return nil
	}

	type change struct {
		name   string
		source string
		prev   partialSource
		had    bool
	}
	changed := make([]change, 0, len(sources))
	for name, source := range sources {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			return errors.New("engine: partial name required")
		}
		sum := sha256.Sum256([]byte(source))
		if e.partials.current(trimmed, sum) {
			continue
		}
		prev, had := e.partials.swap(trimmed, source, sum)
		changed = append(changed, change{name: trimmed, source: source, prev: prev, had: had})
	}

	for _, c := range changed {
		if _, err := e.Compile(c.source); err != nil {
			// roll every changed name back to its last good source.
			for _, r := range changed {
				e.partials.restore(r.name, r.prev, r.had)
			}
			return fmt.Errorf("engine: partial %q: %w", c.name, err)
		}
	}
	return nil
}

// Helpers lists the registered helper names.
func (e *Engine) Helpers() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]string, 0, len(e.helpers))
	for name := range e.helpers {
		out = append(out, name)
	}
	return out
}

var (
	pendingType = reflect.TypeOf((*async.Pending)(nil)).Elem()
	anyType     = reflect.TypeOf((*any)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// bindHelper wraps helpers whose first result is an async.Pending so the
// template receives the settled value, or an error when it rejects.
func bindHelper(ctx context.Context, fn any) any {
	rv := reflect.ValueOf(fn)
	rt := rv.Type()
	if rt.NumOut() == 0 || !rt.Out(0).Implements(pendingType) {
		return fn
	}

	in := make([]reflect.Type, rt.NumIn())
	for i := range in {
		in[i] = rt.In(i)
	}
	wrapped := reflect.FuncOf(in, []reflect.Type{anyType, errorType}, rt.IsVariadic())

	return reflect.MakeFunc(wrapped, func(args []reflect.Value) []reflect.Value {
		var out []reflect.Value
		if rt.IsVariadic() {
			out = rv.CallSlice(args)
		} else {
			out = rv.Call(args)
		}

		if rt.NumOut() > 1 {
			if err, _ := out[rt.NumOut()-1].Interface().(error); err != nil {
				return helperResult(nil, err)
			}
		}

		first := out[0]
		if (first.Kind() == reflect.Pointer || first.Kind() == reflect.Interface) && first.IsNil() {
			return helperResult(nil, nil)
		}
		pending := first.Interface().(async.Pending)
		value, err := pending.AwaitValue(ctx)
		return helperResult(value, err)
	}).Interface()
}

func helperResult(value any, err error) []reflect.Value {
	return []reflect.Value{
		reflect.ValueOf(&value).Elem(),
		reflect.ValueOf(&err).Elem(),
	}
}

func awaitPendingValues(ctx context.Context, data pongo2.Context) error {
	for key, value := range data {
		pending, ok := value.(async.Pending)
		if !ok {
			continue
		}
		settled, err := pending.AwaitValue(ctx)
		if err != nil {
			return fmt.Errorf("%q: %w", key, err)
		}
		converted, err := convertValue(settled)
		if err != nil {
			return fmt.Errorf("%q: %w", key, err)
		}
		data[key] = converted
	}
	return nil
}

func isCallable(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	return rv.IsValid() && rv.Kind() == reflect.Func
}
