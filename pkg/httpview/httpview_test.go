package httpview_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-view/internal/ctxlog"
	"github.com/goliatone/go-view/pkg/httpview"
	"github.com/goliatone/go-view/pkg/minify"
	"github.com/goliatone/go-view/pkg/render"
	"github.com/goliatone/go-view/pkg/testsupport"
)

func testFS() fstest.MapFS {
	return testsupport.MapFS(map[string]string{
		"home.tpl":   "<h1>{{ title }}</h1><p>{{ user }}</p>",
		"layout.tpl": "<body>{{ body }}</body>",
		"broken.tpl": "{% if %}",
	})
}

func newRegistry(t *testing.T, options ...render.Option) *render.Registry {
	t.Helper()

	options = append([]render.Option{render.WithFS(testFS())}, options...)
	renderer, err := render.New(options...)
	require.NoError(t, err)

	registry := render.NewRegistry()
	require.NoError(t, registry.Register("", renderer))
	return registry
}

func serve(registry *render.Registry, handler http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	httpview.Middleware(registry, ctxlog.Discard())(handler).ServeHTTP(rec, req)
	return rec
}

func TestViewWritesPage(t *testing.T) {
	registry := newRegistry(t, render.WithLayout("layout"))
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	rec := serve(registry, func(w http.ResponseWriter, r *http.Request) {
		httpview.View(w, r, "home", map[string]any{"title": "Hi", "user": "ada"}, render.RenderOptions{})
	}, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<body><h1>Hi</h1><p>ada</p></body>", rec.Body.String())
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get(httpview.RequestIDHeader))
}

func TestViewKeepsExistingContentType(t *testing.T) {
	registry := newRegistry(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	rec := serve(registry, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xhtml+xml")
		httpview.View(w, r, "home", nil, render.RenderOptions{})
	}, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/xhtml+xml", rec.Header().Get("Content-Type"))
}

func TestViewFailuresRespond500(t *testing.T) {
	cases := map[string]struct {
		page string
		opts render.RenderOptions
	}{
		"missing page":   {page: ""},
		"unknown page":   {page: "nope"},
		"compile error":  {page: "broken"},
		"missing layout": {page: "home", opts: render.RenderOptions{Layout: "nope"}},
	}

	registry := newRegistry(t)
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := serve(registry, func(w http.ResponseWriter, r *http.Request) {
				httpview.View(w, r, tc.page, nil, tc.opts)
			}, req)

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
			assert.Equal(t, "Internal Server Error\n", rec.Body.String())
		})
	}
}

func TestViewWithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	httpview.View(rec, req, "home", nil, render.RenderOptions{})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	_, err := httpview.Lookup(req, "")
	assert.ErrorIs(t, err, httpview.ErrNoRegistry)
}

func TestLookupByName(t *testing.T) {
	registry := newRegistry(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	serve(registry, func(w http.ResponseWriter, r *http.Request) {
		renderer, err := httpview.Lookup(r, "view")
		require.NoError(t, err)
		assert.NotNil(t, renderer)

		_, err = httpview.Lookup(r, "admin")
		assert.Error(t, err)
	}, req)
}

func TestLocalsFromUpstreamMiddleware(t *testing.T) {
	registry := newRegistry(t, render.WithDefaultContext(map[string]any{"title": "Default", "user": "nobody"}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	rec := serve(registry, func(w http.ResponseWriter, r *http.Request) {
		r = httpview.SetLocals(r, map[string]any{"user": "ada", "title": "Local"})
		httpview.View(w, r, "home", map[string]any{"title": "Data"}, render.RenderOptions{})
	}, req)

	assert.Equal(t, "<h1>Data</h1><p>ada</p>", rec.Body.String())
}

func TestRequestIDIsPropagated(t *testing.T) {
	registry := newRegistry(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(httpview.RequestIDHeader, "req-123")

	var seen string
	rec := serve(registry, func(w http.ResponseWriter, r *http.Request) {
		seen = httpview.RequestID(r.Context())
	}, req)

	assert.Equal(t, "req-123", seen)
	assert.Equal(t, "req-123", rec.Header().Get(httpview.RequestIDHeader))
}

func TestResponseSinkEncodesCharset(t *testing.T) {
	fsys := fstest.MapFS{"page.tpl": {Data: []byte("caf\xe9 {{ name }}")}}
	renderer, err := render.New(render.WithFS(fsys), render.WithCharset("iso-8859-1"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	httpview.Render(renderer, rec, req, "page", map[string]any{"name": "crème"}, render.RenderOptions{})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []byte("caf\xe9 cr\xe8me"), rec.Body.Bytes())
	assert.Equal(t, "text/html; charset=iso-8859-1", rec.Header().Get("Content-Type"))
}

func TestResponseSinkSendsOnce(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/about", nil)
	rec := httptest.NewRecorder()
	sink := httpview.NewResponseSink(rec, req, "utf-8")

	sink.Send("first", nil)
	sink.Send("", errors.New("late failure"))

	assert.True(t, sink.Sent())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "first", rec.Body.String())
	assert.Equal(t, "/about", sink.RequestPath())
}

func TestMinifierExcludedByRequestPath(t *testing.T) {
	tags := strings.NewReplacer("h1>", "H1>", "p>", "P>")
	upper := minify.Func(func(content string, _ minify.Options) (string, error) {
		return tags.Replace(content), nil
	})
	registry := newRegistry(t, render.WithMinifier(upper), render.WithMinifyExclusions("/raw"))

	handler := func(w http.ResponseWriter, r *http.Request) {
		httpview.View(w, r, "home", map[string]any{"title": "t", "user": "u"}, render.RenderOptions{})
	}

	minified := serve(registry, handler, httptest.NewRequest(http.MethodGet, "/", nil))
	raw := serve(registry, handler, httptest.NewRequest(http.MethodGet, "/raw", nil))

	assert.Equal(t, "<H1>t</H1><P>u</P>", minified.Body.String())
	assert.Equal(t, "<h1>t</h1><p>u</p>", raw.Body.String())
}

func TestPageHandler(t *testing.T) {
	renderer, err := render.New(render.WithFS(testFS()))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	httpview.Page(renderer, "home", map[string]any{"title": "x", "user": "y"}, render.RenderOptions{}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "<h1>x</h1><p>y</p>", rec.Body.String())
}
