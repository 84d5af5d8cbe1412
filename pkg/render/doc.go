// Package render drives the view pipeline: it loads a page template, resolves
// and registers partials, executes the page on the shared engine and delivers
// the result to a Sink. Layouts wrap a page by rendering it first and
// injecting the output into the layout data under "body".
//
// A layout is configured either globally with WithLayout or per call through
// RenderOptions.Layout; combining both fails the call with ErrConfig.
package render
