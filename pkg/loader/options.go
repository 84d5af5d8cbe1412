package loader

import (
	"strings"

	"github.com/goliatone/go-view/pkg/minify"
)

// DefaultExtension is appended to every page name.
const DefaultExtension = ".tpl"

// DefaultCharset is used to decode template bytes when none is configured.
const DefaultCharset = "utf-8"

// Option configures the loader before construction.
type Option func(*config)

type config struct {
	extension       string
	charset         string
	minifier        minify.Minifier
	minifierOptions minify.Options
	exclude         []string
}

// WithExtension overrides the template extension forced onto page names.
func WithExtension(ext string) Option {
	return func(cfg *config) {
		trimmed := strings.TrimSpace(ext)
		if trimmed == "" {
			return
		}
		if !strings.HasPrefix(trimmed, ".") {
			trimmed = "." + trimmed
		}
		cfg.extension = trimmed
	}
}

// WithCharset sets the charset template bytes are decoded from.
func WithCharset(charset string) Option {
	return func(cfg *config) {
		if trimmed := strings.TrimSpace(charset); trimmed != "" {
			cfg.charset = trimmed
		}
	}
}

// WithMinifier enables minification of loaded sources.
func WithMinifier(m minify.Minifier, opts minify.Options) Option {
	return func(cfg *config) {
		cfg.minifier = m
		cfg.minifierOptions = opts
	}
}

// WithMinifyExclusions lists request paths whose templates are loaded verbatim.
func WithMinifyExclusions(paths ...string) Option {
	return func(cfg *config) {
		for _, p := range paths {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				cfg.exclude = append(cfg.exclude, trimmed)
			}
		}
	}
}
