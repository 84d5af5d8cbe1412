package httpview

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"

	"github.com/goliatone/go-view/internal/ctxlog"
	"github.com/goliatone/go-view/pkg/render"
)

// ResponseSink writes a render outcome to an HTTP response. The first Send
// wins; later calls are ignored.
type ResponseSink struct {
	w       http.ResponseWriter
	r       *http.Request
	charset string
	logger  *slog.Logger
	sent    atomic.Bool
}

var (
	_ render.Sink                = (*ResponseSink)(nil)
	_ render.LocalsProvider      = (*ResponseSink)(nil)
	_ render.RequestPathProvider = (*ResponseSink)(nil)
)

// NewResponseSink binds w and r. charset selects the encoding of the written
// body; an empty charset writes the body as UTF-8.
func NewResponseSink(w http.ResponseWriter, r *http.Request, charset string) *ResponseSink {
	return &ResponseSink{
		w:       w,
		r:       r,
		charset: charset,
		logger:  ctxlog.FromContext(r.Context(), nil),
	}
}

func (s *ResponseSink) GetHeader(name string) string {
	return s.w.Header().Get(name)
}

func (s *ResponseSink) SetHeader(name, value string) {
	s.w.Header().Set(name, value)
}

// Send writes body with status 200, or a plain 500 response when err is set.
func (s *ResponseSink) Send(body string, err error) {
	if !s.sent.CompareAndSwap(false, true) {
		return
	}
	if err != nil {
		s.logger.Error("httpview: render failed", "path", s.RequestPath(), "error", err)
		s.internalError()
		return
	}

	payload, encErr := s.encode(body)
	if encErr != nil {
		s.logger.Error("httpview: encode body", "charset", s.charset, "error", encErr)
		s.internalError()
		return
	}

	s.w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
	s.w.WriteHeader(http.StatusOK)
	if _, err := s.w.Write(payload); err != nil {
		s.logger.Warn("httpview: write body", "error", err)
	}
}

// Sent reports whether a response has been written.
func (s *ResponseSink) Sent() bool {
	return s.sent.Load()
}

// Locals returns the template locals attached to the request with SetLocals.
func (s *ResponseSink) Locals() map[string]any {
	return render.LocalsFromContext(s.r.Context())
}

// RequestPath is the URL path of the bound request.
func (s *ResponseSink) RequestPath() string {
	if s.r == nil || s.r.URL == nil {
		return ""
	}
	return s.r.URL.Path
}

func (s *ResponseSink) internalError() {
	s.w.Header().Del("Content-Length")
	http.Error(s.w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (s *ResponseSink) encode(body string) ([]byte, error) {
	if s.charset == "" {
		return []byte(body), nil
	}
	enc, err := htmlindex.Get(s.charset)
	if err != nil {
		return nil, err
	}
	if enc == unicode.UTF8 {
		return []byte(body), nil
	}
	return enc.NewEncoder().Bytes([]byte(body))
}
