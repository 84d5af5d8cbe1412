package render

import (
	"io/fs"
	"log/slog"
	"strings"

	"github.com/goliatone/go-view/pkg/engine"
	"github.com/goliatone/go-view/pkg/minify"
)

// DefaultCharset is advertised in the Content-Type header and used to decode
// templates unless WithCharset overrides it.
const DefaultCharset = "utf-8"

// RenderOptions describe per-call overrides.
type RenderOptions struct {
	// Layout wraps this call's output in the named layout template. It
	// cannot be combined with a layout configured through WithLayout.
	Layout string
}

// Option configures a Renderer before construction.
type Option func(*config)

type config struct {
	charset          string
	root             string
	templates        fs.FS
	extension        string
	defaultContext   map[string]any
	layout           string
	helpers          map[string]any
	partials         map[string]string
	minifier         minify.Minifier
	minifierOptions  minify.Options
	minifyExclusions []string
	logger           *slog.Logger
	engine           *engine.Engine
}

// WithCharset sets the charset used to decode templates and advertised in the
// Content-Type header.
func WithCharset(charset string) Option {
	return func(cfg *config) {
		if trimmed := strings.TrimSpace(charset); trimmed != "" {
			cfg.charset = trimmed
		}
	}
}

// WithRoot loads templates from a directory on disk. Relative paths are
// resolved against the working directory at construction.
func WithRoot(dir string) Option {
	return func(cfg *config) {
		cfg.root = strings.TrimSpace(dir)
	}
}

// WithFS loads templates from an fs.FS. It takes precedence over WithRoot.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = files
	}
}

// WithExtension overrides the template extension forced onto page names.
func WithExtension(ext string) Option {
	return func(cfg *config) {
		cfg.extension = strings.TrimSpace(ext)
	}
}

// WithDefaultContext seeds data available to every render. Locals and
// per-call data override it key by key.
func WithDefaultContext(data map[string]any) Option {
	return func(cfg *config) {
		if len(data) == 0 {
			return
		}
		if cfg.defaultContext == nil {
			cfg.defaultContext = make(map[string]any, len(data))
		}
		for key, value := range data {
			cfg.defaultContext[key] = value
		}
	}
}

// WithLayout wraps every render in the named layout template. The layout
// must exist when the Renderer is constructed.
func WithLayout(name string) Option {
	return func(cfg *config) {
		cfg.layout = strings.TrimSpace(name)
	}
}

// WithHelpers registers template helpers once, at construction. A helper
// returning an async.Pending is awaited before its value reaches the template.
func WithHelpers(helpers map[string]any) Option {
	return func(cfg *config) {
		if len(helpers) == 0 {
			return
		}
		if cfg.helpers == nil {
			cfg.helpers = make(map[string]any, len(helpers))
		}
		for name, fn := range helpers {
			cfg.helpers[name] = fn
		}
	}
}

// WithPartials maps partial names to file paths relative to the template root.
// Partials are loaded and registered on every render call.
func WithPartials(partials map[string]string) Option {
	return func(cfg *config) {
		if len(partials) == 0 {
			return
		}
		if cfg.partials == nil {
			cfg.partials = make(map[string]string, len(partials))
		}
		for name, file := range partials {
			cfg.partials[strings.TrimSpace(name)] = strings.TrimSpace(file)
		}
	}
}

// WithMinifier passes template and partial sources through m before they are
// compiled.
func WithMinifier(m minify.Minifier) Option {
	return func(cfg *config) {
		cfg.minifier = m
	}
}

// WithMinifierOptions sets the options forwarded to the minifier.
func WithMinifierOptions(opts minify.Options) Option {
	return func(cfg *config) {
		cfg.minifierOptions = opts
	}
}

// WithMinifyExclusions lists request paths whose templates skip minification.
func WithMinifyExclusions(paths ...string) Option {
	return func(cfg *config) {
		cfg.minifyExclusions = append(cfg.minifyExclusions, paths...)
	}
}

// WithLogger sets the logger used when the render context carries none.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithEngine shares an existing engine instead of constructing one. Helpers
// from WithHelpers are registered on it.
func WithEngine(e *engine.Engine) Option {
	return func(cfg *config) {
		cfg.engine = e
	}
}
