// Package engine adapts pongo2 to the compile/execute contract used by the
// render pipeline. Execution returns an async.Future and settles only after
// every helper invocation, including helpers that hand back async.Pending
// values, has completed. Helpers and partials live on a shared Engine and are
// overwritten by later registrations under the same name.
package engine
