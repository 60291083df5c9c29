// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package imageload

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/gogpu/imageload/gpu"
	"github.com/gogpu/imageload/internal/decode"
	"github.com/gogpu/imageload/internal/reader"
	"github.com/gogpu/imageload/render"
)

// Loader errors.
var (
	// ErrClosed is returned when a request is submitted after Close.
	ErrClosed = errors.New("imageload: loader is closed")

	// ErrNilCallback is returned by the async paths when onDone is nil.
	ErrNilCallback = errors.New("imageload: completion callback is nil")

	// ErrCubemapUnsupported is returned by the cubemap paths on platforms
	// where cubemap loading is disabled.
	ErrCubemapUnsupported = errors.New("imageload: cubemap loading is not supported on this platform")
)

// TransformParams describes the decode-time transforms applied to a load.
type TransformParams struct {
	// PercentSizeX and PercentSizeY resize the decoded image to the given
	// percentage of its original dimensions. Both must be in [1, 100] to
	// take effect; zero means no resize.
	PercentSizeX int
	PercentSizeY int

	// ForUI normalizes the pixel data to 8-bit BGRA before upload so the
	// texture is directly usable by UI widgets regardless of the source
	// format.
	ForUI bool
}

// Result is the outcome of a load, delivered by value. Exactly one of
// Texture and Err is meaningful: a non-nil Err means the load failed and
// Texture must not be read.
type Result struct {
	// Filename is the requested image path.
	Filename string

	// Texture is the populated texture object on success.
	Texture *gpu.Texture

	// Err is the decode, format, or upload error on failure.
	Err error
}

// Ok reports whether the load succeeded.
func (r Result) Ok() bool { return r.Err == nil && r.Texture != nil }

// Callback receives the result of an asynchronous load. It is invoked on
// the goroutine that calls Tick, at most once per request.
type Callback func(Result)

// loadRequest is one queued asynchronous load.
type loadRequest struct {
	id       string
	filename string
	params   TransformParams
	kind     gpu.TextureKind
	ctx      context.Context
	onDone   Callback
}

// Loader decodes image files into GPU textures off the caller's main loop.
//
// A Loader exclusively owns one decode worker, created in New and torn down
// in Close. Asynchronous loads flow through a FIFO with a single active
// slot: at most one request is in flight end to end, and callbacks fire in
// enqueue order.
//
// Thread safety: Load, LoadCubemap, Tick, and CancelAll must be called from
// the control goroutine that drives the host loop. LoadSync degrades the
// pipeline to strict sequencing and may be called from the same goroutine.
type Loader struct {
	device     gpu.Device
	ownsDevice bool
	renderCtx  *render.Context
	ownsRctx   bool
	worker     *reader.Reader

	mu      sync.Mutex
	pending []loadRequest
	active  *loadRequest
	closed  bool
}

// New creates a Loader and starts its decode worker.
//
// Without options, New opens the best available device driver and runs an
// immediate rendering context, which makes the loader fully functional in
// headless programs. Hosts with a real render loop pass WithRenderContext
// and drive render.Context.Drain from it.
func New(opts ...Option) (*Loader, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	l := &Loader{}

	switch {
	case o.device != nil:
		l.device = o.device
	case o.driver != "":
		dev, err := gpu.Open(o.driver)
		if err != nil {
			return nil, err
		}
		l.device = dev
		l.ownsDevice = true
	default:
		dev, err := gpu.Default()
		if err != nil {
			return nil, err
		}
		l.device = dev
		l.ownsDevice = true
	}
	if o.renderCtx != nil {
		l.renderCtx = o.renderCtx
	} else {
		l.renderCtx = render.NewImmediate()
		l.ownsRctx = true
	}

	w, err := reader.New(reader.Config{
		Device:       l.device,
		RenderCtx:    l.renderCtx,
		Sampler:      o.sampler,
		WaitInterval: o.waitEvery,
	})
	if err != nil {
		if l.ownsDevice {
			l.device.Close()
		}
		return nil, err
	}
	l.worker = w
	l.worker.Start()
	registerLoggerSink(l.device)

	Logger().Info("imageload: loader created", "device", l.device.Name())
	return l, nil
}

// Load enqueues an asynchronous 2D texture load and returns its request ID.
//
// onDone fires exactly once from a later Tick call, unless the request is
// discarded by CancelAll or ctx is done by delivery time, in which case it
// never fires. ctx may be nil.
func (l *Loader) Load(ctx context.Context, filename string, params TransformParams, onDone Callback) (string, error) {
	return l.enqueue(ctx, filename, params, gpu.KindTexture2D, onDone)
}

// LoadCubemap enqueues an asynchronous cubemap load. The source image must
// be a vertical strip of six square faces (+X -X +Y -Y +Z -Z, top to
// bottom). Returns ErrCubemapUnsupported immediately on platforms without
// cubemap support.
func (l *Loader) LoadCubemap(ctx context.Context, filename string, params TransformParams, onDone Callback) (string, error) {
	if !cubemapSupported {
		return "", ErrCubemapUnsupported
	}
	return l.enqueue(ctx, filename, params, gpu.KindCubemap, onDone)
}

func (l *Loader) enqueue(ctx context.Context, filename string, params TransformParams, kind gpu.TextureKind, onDone Callback) (string, error) {
	if onDone == nil {
		return "", ErrNilCallback
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return "", ErrClosed
	}

	req := loadRequest{
		id:       uuid.NewString(),
		filename: filename,
		params:   params,
		kind:     kind,
		ctx:      ctx,
		onDone:   onDone,
	}
	l.pending = append(l.pending, req)

	Logger().Debug("imageload: request enqueued",
		"id", req.id, "filename", filename, "kind", kind.String())
	return req.id, nil
}

// Tick advances the loader by one frame. It must be called once per frame
// on the control goroutine: it services the texture construction rendezvous
// (the decode worker may be blocked waiting on it), starts the next queued
// request if the active slot is free, and delivers at most one completed
// result.
func (l *Loader) Tick() {
	l.worker.TickConstruct()

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}

	if l.active == nil && len(l.pending) > 0 {
		req := l.pending[0]
		l.pending = l.pending[1:]
		l.active = &req
		l.worker.AddRequest(l.project(req))
		l.worker.Trigger()
	}

	var deliver *loadRequest
	var res reader.Result
	if l.active != nil && l.worker.IsWorkCompleted() {
		if r, ok := l.worker.PopResult(); ok {
			deliver = l.active
			res = r
			l.active = nil
		}
	}
	l.mu.Unlock()

	if deliver != nil {
		l.deliver(*deliver, res)
	}
}

// project maps a queued load to a worker request.
func (l *Loader) project(req loadRequest) reader.Request {
	return reader.Request{
		ID:       req.id,
		Filename: req.filename,
		Decode: decode.Options{
			PercentSizeX: req.params.PercentSizeX,
			PercentSizeY: req.params.PercentSizeY,
		},
		ForUI: req.params.ForUI,
		Kind:  req.kind,
	}
}

// deliver invokes the request's callback with the worker result, outside
// the loader lock. A request whose context is done by delivery time is
// dropped silently.
func (l *Loader) deliver(req loadRequest, res reader.Result) {
	if req.ctx != nil && req.ctx.Err() != nil {
		Logger().Debug("imageload: dropping result, caller context is done",
			"id", req.id, "filename", req.filename)
		return
	}
	if res.Err != nil {
		Logger().Error("imageload: load failed",
			"id", req.id, "filename", req.filename, "error", res.Err)
	}
	req.onDone(Result{Filename: req.filename, Texture: res.Texture, Err: res.Err})
}

// LoadSync loads a 2D texture and blocks until its result is ready.
//
// The synchronous path bypasses the FIFO: it forces the worker to finish
// any outstanding drain, pushes the request directly, drains again on the
// calling goroutine, and pops exactly that request's result. Texture
// allocation happens inline, so no per-frame ticking is required.
func (l *Loader) LoadSync(filename string, params TransformParams) Result {
	return l.loadSync(filename, params, gpu.KindTexture2D)
}

// LoadCubemapSync is the blocking variant of LoadCubemap.
func (l *Loader) LoadCubemapSync(filename string, params TransformParams) Result {
	if !cubemapSupported {
		return Result{Filename: filename, Err: ErrCubemapUnsupported}
	}
	return l.loadSync(filename, params, gpu.KindCubemap)
}

func (l *Loader) loadSync(filename string, params TransformParams, kind gpu.TextureKind) Result {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return Result{Filename: filename, Err: ErrClosed}
	}
	l.mu.Unlock()

	req := loadRequest{
		id:       uuid.NewString(),
		filename: filename,
		params:   params,
		kind:     kind,
	}

	// Flush whatever the worker already has queued so the result popped
	// below cannot belong to an earlier request.
	l.worker.DrainBlocking()
	l.worker.AddRequest(l.project(req))
	l.worker.DrainBlocking()

	res, ok := l.worker.PopResult()
	if !ok {
		return Result{Filename: filename, Err: errors.New("imageload: no result produced")}
	}
	if res.Err != nil {
		Logger().Error("imageload: load failed",
			"id", req.id, "filename", filename, "error", res.Err)
	}
	return Result{Filename: filename, Texture: res.Texture, Err: res.Err}
}

// CancelAll discards every queued request and suppresses delivery of the
// active one. Cancellation is cooperative: a request already picked up by
// the decode worker runs to completion, but its callback never fires.
func (l *Loader) CancelAll() {
	l.mu.Lock()
	n := len(l.pending)
	l.pending = nil
	l.active = nil
	l.mu.Unlock()

	l.worker.Clear()
	Logger().Debug("imageload: canceled all requests", "queued", n)
}

// Close tears the loader down: discards pending requests, stops the decode
// worker, and closes the device and rendering context if the loader owns
// them. No requests are accepted afterwards. Close returns once the worker
// goroutine has exited.
func (l *Loader) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.pending = nil
	l.active = nil
	l.mu.Unlock()

	l.worker.Clear()
	l.worker.RequestStop()
	if l.ownsRctx {
		// Unblocks the worker if it is waiting on an upload dispatch.
		l.renderCtx.Close()
	}
	l.worker.Join()

	unregisterLoggerSink(l.device)
	if l.ownsDevice {
		l.device.Close()
	}
	Logger().Info("imageload: loader closed")
}
