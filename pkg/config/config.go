// Package config loads renderer and server settings with viper. Values come
// from defaults, an optional config file and VIEW_ prefixed environment
// variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/goliatone/go-view/pkg/minify"
	"github.com/goliatone/go-view/pkg/render"
)

// EnvPrefix prefixes environment overrides, e.g. VIEW_ROOT or VIEW_LAYOUT.
const EnvPrefix = "VIEW"

// Config mirrors the renderer initialization keys plus server settings.
type Config struct {
	Charset            string         `mapstructure:"charset"`
	PropertyName       string         `mapstructure:"property_name"`
	Root               string         `mapstructure:"root"`
	Templates          string         `mapstructure:"templates"`
	Extension          string         `mapstructure:"extension"`
	Layout             string         `mapstructure:"layout"`
	DefaultContext     map[string]any `mapstructure:"default_context"`
	DefaultContextFile string         `mapstructure:"default_context_file"`
	Options            Options        `mapstructure:"options"`

	Addr   string  `mapstructure:"addr"`
	Routes []Route `mapstructure:"routes"`
}

// Options groups the partial and minifier settings.
type Options struct {
	Partials                   map[string]string `mapstructure:"partials"`
	UseHTMLMinifier            bool              `mapstructure:"use_html_minifier"`
	HTMLMinifierOptions        minify.Options    `mapstructure:"html_minifier_options"`
	PathsToExcludeHTMLMinifier []string          `mapstructure:"paths_to_exclude_html_minifier"`
}

// Route binds a request path to a page served by view-server.
type Route struct {
	Path   string         `mapstructure:"path"`
	Page   string         `mapstructure:"page"`
	Layout string         `mapstructure:"layout"`
	Data   map[string]any `mapstructure:"data"`
}

// Load reads configuration from path, or from the file named by VIEW_CONFIG
// when path is empty. Without either, only defaults and environment apply.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("charset", render.DefaultCharset)
	v.SetDefault("property_name", render.DefaultName)
	v.SetDefault("root", "")
	v.SetDefault("templates", "")
	v.SetDefault("extension", ".tpl")
	v.SetDefault("layout", "")
	v.SetDefault("default_context_file", "")
	v.SetDefault("options.use_html_minifier", false)
	v.SetDefault("addr", ":8080")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}

	c.Root = c.templateRoot()

	if c.DefaultContextFile != "" {
		fileContext, err := LoadContextFile(c.DefaultContextFile)
		if err != nil {
			return Config{}, err
		}
		// inline keys win over the file.
		for key, value := range c.DefaultContext {
			fileContext[key] = value
		}
		c.DefaultContext = fileContext
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// DefaultRoot is used when neither root nor templates is configured.
const DefaultRoot = "views"

// templateRoot prefers root, then templates, then DefaultRoot.
func (c Config) templateRoot() string {
	for _, candidate := range []string{c.Root, c.Templates} {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			return trimmed
		}
	}
	return DefaultRoot
}

// Validate reports settings that cannot produce a working renderer.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Root) == "" {
		errs = append(errs, errors.New("config: root is required"))
	}
	for i, route := range c.Routes {
		if strings.TrimSpace(route.Path) == "" {
			errs = append(errs, fmt.Errorf("config: routes[%d]: path is required", i))
		}
		if strings.TrimSpace(route.Page) == "" {
			errs = append(errs, fmt.Errorf("config: routes[%d]: page is required", i))
		}
		if route.Layout != "" && c.Layout != "" {
			errs = append(errs, fmt.Errorf("config: routes[%d]: %w", i, render.ErrLayoutConflict))
		}
	}
	return errors.Join(errs...)
}

// RenderOptions converts c into renderer options. Helpers cannot be expressed
// in a file and are passed to render.New separately.
func (c Config) RenderOptions() []render.Option {
	opts := []render.Option{
		render.WithCharset(c.Charset),
		render.WithRoot(c.templateRoot()),
		render.WithExtension(c.Extension),
		render.WithDefaultContext(c.DefaultContext),
		render.WithLayout(c.Layout),
		render.WithPartials(c.Options.Partials),
	}
	if c.Options.UseHTMLMinifier {
		opts = append(opts,
			render.WithMinifier(minify.NewHTML()),
			render.WithMinifierOptions(c.Options.HTMLMinifierOptions),
			render.WithMinifyExclusions(c.Options.PathsToExcludeHTMLMinifier...),
		)
	}
	return opts
}
