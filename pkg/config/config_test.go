package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-view/pkg/minify"
	"github.com/goliatone/go-view/pkg/render"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("VIEW_CONFIG", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Charset != "utf-8" || cfg.PropertyName != "view" || cfg.Root != "views" || cfg.Extension != ".tpl" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.Addr)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "view.yaml", `
root: templates
charset: iso-8859-1
default_context:
  site: Example
options:
  partials:
    header: partials/header.html
  use_html_minifier: true
  html_minifier_options:
    keep_comments: true
  paths_to_exclude_html_minifier:
    - /raw
routes:
  - path: /
    page: home
    data:
      title: Home
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	want := Config{
		Charset:        "iso-8859-1",
		PropertyName:   "view",
		Root:           "templates",
		Extension:      ".tpl",
		DefaultContext: map[string]any{"site": "Example"},
		Options: Options{
			Partials:                   map[string]string{"header": "partials/header.html"},
			UseHTMLMinifier:            true,
			HTMLMinifierOptions:        minify.Options{KeepComments: true},
			PathsToExcludeHTMLMinifier: []string{"/raw"},
		},
		Addr: ":8080",
		Routes: []Route{
			{Path: "/", Page: "home", Data: map[string]any{"title": "Home"}},
		},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadTemplatesKey(t *testing.T) {
	dir := t.TempDir()

	cases := map[string]struct {
		content string
		want    string
	}{
		"templates only":       {content: "templates: mytpls\n", want: "mytpls"},
		"root wins":            {content: "root: site\ntemplates: mytpls\n", want: "site"},
		"neither uses default": {content: "charset: utf-8\n", want: DefaultRoot},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, dir, "view.yaml", tc.content)
			cfg, err := Load(path)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if cfg.Root != tc.want {
				t.Fatalf("root = %q, want %q", cfg.Root, tc.want)
			}
		})
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "view.yaml", "root: templates\nlayout: base\n")
	t.Setenv("VIEW_LAYOUT", "main")
	t.Setenv("VIEW_ADDR", ":9000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Layout != "main" || cfg.Addr != ":9000" {
		t.Fatalf("expected env overrides, got layout=%q addr=%q", cfg.Layout, cfg.Addr)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestLoadMergesContextFile(t *testing.T) {
	dir := t.TempDir()
	ctxPath := writeFile(t, dir, "context.json", `{"site": "From file", "year": 2024}`)
	path := writeFile(t, dir, "view.yaml", "default_context_file: "+ctxPath+"\ndefault_context:\n  site: Inline\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	want := map[string]any{"site": "Inline", "year": float64(2024)}
	if diff := cmp.Diff(want, cfg.DefaultContext); diff != "" {
		t.Fatalf("context mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{
		Root:   "views",
		Layout: "base",
		Routes: []Route{{Path: "/", Page: "home", Layout: "other"}, {}},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	if !errors.Is(err, render.ErrLayoutConflict) {
		t.Fatalf("expected layout conflict, got %v", err)
	}

	if err := (Config{Root: "views"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseContext(t *testing.T) {
	cases := map[string]struct {
		input   string
		want    map[string]any
		wantErr bool
	}{
		"json":  {input: `{"a": 1}`, want: map[string]any{"a": float64(1)}},
		"yaml":  {input: "a: 1\nb: [x, y]\n", want: map[string]any{"a": 1, "b": []any{"x", "y"}}},
		"empty": {input: "  \n", want: map[string]any{}},
		"list":  {input: "- a\n- b\n", wantErr: true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := ParseContext([]byte(tc.input), name)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRenderOptionsBuildRenderer(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "home.tpl", "<p>{{ site }}</p>")

	cfg := Config{
		Charset:        "utf-8",
		Root:           dir,
		DefaultContext: map[string]any{"site": "Example"},
		Options: Options{
			UseHTMLMinifier:     true,
			HTMLMinifierOptions: minify.Options{KeepEndTags: true, KeepDocumentTags: true},
		},
	}
	r, err := render.New(cfg.RenderOptions()...)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	got, err := r.RenderString(t.Context(), "home", nil, render.RenderOptions{}).Await(t.Context())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "<p>Example</p>" {
		t.Fatalf("unexpected output %q", got)
	}
}
