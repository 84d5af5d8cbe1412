package httpview

import (
	"net/http"

	"github.com/goliatone/go-view/internal/ctxlog"
	"github.com/goliatone/go-view/pkg/render"
)

// View renders page with the default renderer from the request registry.
func View(w http.ResponseWriter, r *http.Request, page string, data map[string]any, opts render.RenderOptions) {
	renderer, err := Lookup(r, render.DefaultName)
	if err != nil {
		NewResponseSink(w, r, "").Send("", err)
		return
	}
	Render(renderer, w, r, page, data, opts)
}

// Render renders page with renderer into the response.
func Render(renderer *render.Renderer, w http.ResponseWriter, r *http.Request, page string, data map[string]any, opts render.RenderOptions) {
	sink := NewResponseSink(w, r, renderer.Charset())
	renderer.Render(r.Context(), sink, page, data, opts)
	if !sink.Sent() {
		ctxlog.FromContext(r.Context(), nil).Error("httpview: render returned without a response", "page", page)
		sink.Send("", errNoResponse)
	}
}

// Page returns a handler rendering a fixed page. data is shared by every
// request and must not be mutated.
func Page(renderer *render.Renderer, page string, data map[string]any, opts render.RenderOptions) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		Render(renderer, w, r, page, data, opts)
	})
}
