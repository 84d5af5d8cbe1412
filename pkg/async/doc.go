// Package async provides the deferred values used by the render pipeline.
// A Future settles once; template execution, helpers and the value-returning
// render entry points all hand results back through it.
package async
