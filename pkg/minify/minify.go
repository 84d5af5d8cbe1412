// Package minify defines the HTML minification hook applied to template and
// partial sources before they are compiled, plus a default implementation
// backed by tdewolff/minify.
package minify

import (
	"fmt"

	tdminify "github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"
)

const mediaTypeHTML = "text/html"

// Options are forwarded verbatim to the configured Minifier on every call.
type Options struct {
	KeepComments        bool `json:"keepComments" yaml:"keep_comments" mapstructure:"keep_comments"`
	KeepWhitespace      bool `json:"keepWhitespace" yaml:"keep_whitespace" mapstructure:"keep_whitespace"`
	KeepDocumentTags    bool `json:"keepDocumentTags" yaml:"keep_document_tags" mapstructure:"keep_document_tags"`
	KeepEndTags         bool `json:"keepEndTags" yaml:"keep_end_tags" mapstructure:"keep_end_tags"`
	KeepQuotes          bool `json:"keepQuotes" yaml:"keep_quotes" mapstructure:"keep_quotes"`
	KeepDefaultAttrVals bool `json:"keepDefaultAttrVals" yaml:"keep_default_attr_vals" mapstructure:"keep_default_attr_vals"`
}

// Minifier rewrites template source text.
type Minifier interface {
	Minify(content string, opts Options) (string, error)
}

// Func adapts a plain function to the Minifier interface.
type Func func(content string, opts Options) (string, error)

// Minify implements Minifier.
func (f Func) Minify(content string, opts Options) (string, error) {
	return f(content, opts)
}

// HTML minifies markup with tdewolff/minify. Actions delimited by {{ }} are
// left untouched.
type HTML struct{}

var _ Minifier = HTML{}

// NewHTML returns the default HTML minifier.
func NewHTML() HTML {
	return HTML{}
}

// Minify implements Minifier.
func (HTML) Minify(content string, opts Options) (string, error) {
	m := tdminify.New()
	m.Add(mediaTypeHTML, &html.Minifier{
		KeepComments:        opts.KeepComments,
		KeepWhitespace:      opts.KeepWhitespace,
		KeepDocumentTags:    opts.KeepDocumentTags,
		KeepEndTags:         opts.KeepEndTags,
		KeepQuotes:          opts.KeepQuotes,
		KeepDefaultAttrVals: opts.KeepDefaultAttrVals,
		TemplateDelims:      html.GoTemplateDelims,
	})

	out, err := m.String(mediaTypeHTML, content)
	if err != nil {
		return "", fmt.Errorf("minify: html: %w", err)
	}
	return out, nil
}
