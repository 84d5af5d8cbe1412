// Package view renders server-side HTML pages from templates on disk, with
// optional layouts, partials and helpers that may resolve asynchronously.
//
// Quick start:
//
//	r, err := view.New(
//		render.WithRoot("views"),
//		render.WithLayout("layouts/main"),
//	)
//	if err != nil {
//		return err
//	}
//	html, err := r.RenderString(ctx, "home", map[string]any{"title": "Hi"}, view.RenderOptions{}).Await(ctx)
//
// HTTP handlers use pkg/httpview; configuration files are read by pkg/config.
package view
