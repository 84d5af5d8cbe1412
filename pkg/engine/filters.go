package engine

import (
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"
)

var (
	defaultFiltersOnce sync.Once

	sanitizePolicyOnce sync.Once
	sanitizePolicy     *bluemonday.Policy
)

// pongo2 keeps filters in a process-wide registry.
func registerFilter(name string, fn pongo2.FilterFunction) error {
	if pongo2.FilterExists(name) {
		return pongo2.ReplaceFilter(name, fn)
	}
	return pongo2.RegisterFilter(name, fn)
}

func registerDefaultFilters() {
	defaultFiltersOnce.Do(func() {
		if !pongo2.FilterExists("trim") {
			_ = pongo2.RegisterFilter("trim", filterTrim)
		}
		if !pongo2.FilterExists("sanitize") {
			_ = pongo2.RegisterFilter("sanitize", filterSanitize)
		}
	})
}

func filterTrim(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in.Len() <= 0 {
		return pongo2.AsValue(""), nil
	}
	return pongo2.AsValue(strings.TrimSpace(in.String())), nil
}

// filterSanitize strips user-supplied markup down to the UGC allow list and
// marks the result safe for output.
func filterSanitize(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	trimmed := strings.TrimSpace(in.String())
	if trimmed == "" {
		return pongo2.AsValue(""), nil
	}
	return pongo2.AsSafeValue(sanitizer().Sanitize(trimmed)), nil
}

func sanitizer() *bluemonday.Policy {
	sanitizePolicyOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.RequireNoFollowOnLinks(true)
		policy.AddTargetBlankToFullyQualifiedLinks(true)
		sanitizePolicy = policy
	})
	return sanitizePolicy
}
