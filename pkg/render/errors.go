package render

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is against any error delivered to a Sink.
var (
	// ErrConfig reports conflicting or missing render configuration.
	ErrConfig = errors.New("render: configuration error")
	// ErrTemplateAccess reports a layout that cannot be reached on disk.
	ErrTemplateAccess = errors.New("render: template not accessible")
	// ErrRead reports an I/O failure loading a template or partial.
	ErrRead = errors.New("render: read error")
	// ErrCompile reports a failure compiling or executing a template or helper.
	ErrCompile = errors.New("render: compile or execute error")
)

var (
	// ErrMissingPage is delivered when render is called without a page.
	ErrMissingPage = errors.New("Missing page")
	// ErrLayoutConflict is delivered when a per-call layout is combined with a
	// global one.
	ErrLayoutConflict = errors.New("A layout can either be set globally or on render, not both.")
)

// Error carries the kind of a pipeline failure alongside its cause. Its
// message is the cause's message, unchanged.
type Error struct {
	Kind error
	Page string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return e.Err.Error()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func newError(kind error, page string, err error) *Error {
	return &Error{Kind: kind, Page: page, Err: err}
}

func templateAccessError(name string) *Error {
	return newError(ErrTemplateAccess, name, fmt.Errorf("unable to access template %q", name))
}

// KindOf returns the kind of err, or nil when err did not come from the
// render pipeline.
func KindOf(err error) error {
	for _, kind := range []error{ErrConfig, ErrTemplateAccess, ErrRead, ErrCompile} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
