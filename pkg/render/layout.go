package render

import (
	"context"

	"github.com/goliatone/go-view/internal/ctxlog"
	"github.com/goliatone/go-view/pkg/engine"
)

// bodyKey is the layout data key holding the rendered page.
const bodyKey = "body"

// withLayout wraps render so its output is injected into layout under
// bodyKey. An empty layout returns render unchanged.
func (r *Renderer) withLayout(render renderFunc, layout string) renderFunc {
	if layout == "" {
		return render
	}

	return func(ctx context.Context, sink Sink, page string, data map[string]any, opts RenderOptions) {
		if opts.Layout != "" {
			r.fail(ctxlog.FromContext(ctx, r.logger).With("page", page), sink, newError(ErrConfig, page, ErrLayoutConflict))
			return
		}

		data = r.mergeContext(sink, data)

		inner := &captureSink{
			parent: sink,
			onBody: func(body string) {
				layoutData := mergeData(data, map[string]any{bodyKey: engine.HTML(body)})
				render(ctx, sink, layout, layoutData, opts)
			},
		}
		render(ctx, inner, page, data, opts)
	}
}

// layoutIsValid reports whether the normalized layout template can be
// accessed under the template root.
func (r *Renderer) layoutIsValid(layout string) error {
	if err := r.loader.Exists(layout); err != nil {
		return templateAccessError(layout)
	}
	return nil
}
