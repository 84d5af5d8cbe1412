// Package httpview binds the render pipeline to net/http. Middleware exposes a
// render.Registry on the request context, View renders a page into the
// response, and ResponseSink adapts an http.ResponseWriter to render.Sink.
package httpview
