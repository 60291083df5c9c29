// Package render provides a blocking task hand-off onto the rendering
// execution context.
//
// GPU drivers typically require resource creation to happen on the thread
// that owns the graphics queue. The decode worker therefore never calls a
// Device directly for uploads: it submits a closure to a render.Context and
// blocks until the rendering side has executed it. The host application
// drives the context from its render loop:
//
//	rc := render.NewContext(16)
//	go renderLoop(rc) // calls rc.Drain() once per frame, or rc.Run()
//
// For headless use (and the software device) an immediate context executes
// submitted tasks inline on the calling goroutine; see NewImmediate.
package render
