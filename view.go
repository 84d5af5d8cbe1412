package view

import (
	"fmt"

	"github.com/goliatone/go-view/pkg/config"
	"github.com/goliatone/go-view/pkg/render"
)

// Renderer aliases render.Renderer for callers importing the root package.
type Renderer = render.Renderer

// RenderOptions describes per-call overrides such as a layout.
type RenderOptions = render.RenderOptions

// Sink receives a render outcome.
type Sink = render.Sink

// Option configures a Renderer.
type Option = render.Option

// New constructs a Renderer.
func New(options ...Option) (*Renderer, error) {
	return render.New(options...)
}

// NewFromConfig loads the config at path (see config.Load) and constructs a
// Renderer from it. extra options are applied after the file settings, so
// helpers and overrides can be supplied in code.
func NewFromConfig(path string, extra ...Option) (*Renderer, config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, config.Config{}, err
	}
	r, err := render.New(append(cfg.RenderOptions(), extra...)...)
	if err != nil {
		return nil, cfg, fmt.Errorf("view: new renderer: %w", err)
	}
	return r, cfg, nil
}
