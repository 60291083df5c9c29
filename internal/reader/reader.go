// Package reader implements the decode worker of the loader: a dedicated
// goroutine that drains read requests, decodes image files, maps pixel
// formats, and orchestrates the texture construction and upload rendezvous
// with the control and rendering contexts.
package reader

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/imageload/gpu"
	"github.com/gogpu/imageload/internal/decode"
	"github.com/gogpu/imageload/internal/raw"
	"github.com/gogpu/imageload/render"
)

// Worker errors.
var (
	// ErrNilDevice is returned by New when no device is configured.
	ErrNilDevice = errors.New("reader: device is nil")

	// ErrNilRenderContext is returned by New when no render context is
	// configured.
	ErrNilRenderContext = errors.New("reader: render context is nil")

	// ErrBadCubemapSource is returned when a cubemap request decodes to an
	// image that is not a vertical strip of six square faces.
	ErrBadCubemapSource = errors.New("reader: cubemap source must be a vertical strip of six square faces")
)

// defaultWaitInterval is the bounded wait used while blocking on the
// construction rendezvous. Short enough to keep shutdown responsive.
const defaultWaitInterval = 100 * time.Millisecond

// Request is one unit of work for the decode worker.
type Request struct {
	// ID correlates log records and results with the originating call.
	ID string

	// Filename is the image file path.
	Filename string

	// Decode carries the transform options applied at decode time.
	Decode decode.Options

	// ForUI forces the 8-bit BGRA normalization pass before upload.
	ForUI bool

	// Kind selects a 2D texture or a cubemap.
	Kind gpu.TextureKind
}

// Result is the outcome of one request. Exactly one of Texture and Err is
// meaningful; a nil Texture with a nil Err marks a request abandoned by a
// shutdown race (see the drain loop).
type Result struct {
	ID       string
	Filename string
	Texture  *gpu.Texture
	Err      error
}

// constructTask asks the control thread to allocate a placeholder texture.
type constructTask struct {
	filename string
	kind     gpu.TextureKind
	format   gputypes.TextureFormat
}

// Config configures a Reader.
type Config struct {
	// Device is the graphics backend boundary. Required.
	Device gpu.Device

	// RenderCtx executes the upload dispatches. Required.
	RenderCtx *render.Context

	// Sampler is the sampler state applied after upload. Zero value means
	// gpu.DefaultSamplerConfig().
	Sampler gpu.SamplerConfig

	// WaitInterval bounds each wait on the construction rendezvous.
	// Zero means the 100ms default.
	WaitInterval time.Duration
}

// Reader owns the pending-request queue and drains it on a dedicated
// goroutine.
//
// Life cycle: New -> Start -> (AddRequest/Trigger/Drain...) -> RequestStop ->
// Join. The completed flag is owned by the worker: it is true iff the
// request queue was empty at the end of the most recent drain pass.
type Reader struct {
	cfg Config

	mu       sync.Mutex
	requests []Request
	results  []Result

	cmu         sync.Mutex
	constructs  []constructTask
	constructed []*gpu.Texture

	// wake unblocks the idle worker; constructedSig reports a new entry
	// (or a refused allocation) in the construction pool.
	wake           chan struct{}
	constructedSig chan struct{}

	stopped   atomic.Bool
	completed atomic.Bool
	wg        sync.WaitGroup
}

// New creates a Reader. The worker goroutine is not started yet.
func New(cfg Config) (*Reader, error) {
	if cfg.Device == nil {
		return nil, ErrNilDevice
	}
	if cfg.RenderCtx == nil {
		return nil, ErrNilRenderContext
	}
	if cfg.WaitInterval <= 0 {
		cfg.WaitInterval = defaultWaitInterval
	}
	if cfg.Sampler == (gpu.SamplerConfig{}) {
		cfg.Sampler = gpu.DefaultSamplerConfig()
	}

	return &Reader{
		cfg:            cfg,
		wake:           make(chan struct{}, 1),
		constructedSig: make(chan struct{}, 1),
	}, nil
}

// Start launches the worker goroutine.
func (r *Reader) Start() {
	r.wg.Add(1)
	go r.run()
	logger().Info("imageload: decode worker started", "device", r.cfg.Device.Name())
}

// run is the worker loop: idle on the wake signal, drain, repeat.
func (r *Reader) run() {
	defer r.wg.Done()

	for {
		<-r.wake
		if r.stopped.Load() {
			return
		}
		r.drain(false)
	}
}

// AddRequest enqueues a request and clears the completed flag.
// Call Trigger afterwards to wake the worker (the control thread batches
// the two so the synchronous path can drain without waking it).
func (r *Reader) AddRequest(req Request) {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	r.completed.Store(false)
	r.mu.Unlock()
}

// Trigger wakes the worker if it is idle.
func (r *Reader) Trigger() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// IsWorkCompleted reports whether the request queue was empty at the end of
// the worker's most recent drain pass.
func (r *Reader) IsWorkCompleted() bool {
	return r.completed.Load()
}

// PopResult pops the most recent result. Reports false when the store is
// empty.
func (r *Reader) PopResult() (Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.results)
	if n == 0 {
		return Result{}, false
	}
	res := r.results[n-1]
	r.results = r.results[:n-1]
	return res, true
}

// Clear empties the request queue and the result store. Requests already
// picked up by the worker are not interrupted.
func (r *Reader) Clear() {
	r.mu.Lock()
	r.requests = nil
	r.results = nil
	r.mu.Unlock()
}

// DrainBlocking runs drain passes on the calling goroutine until the
// completed flag is set. Used by the synchronous load path on the control
// thread; texture allocation happens directly instead of through the
// rendezvous.
func (r *Reader) DrainBlocking() {
	r.drain(true)
}

// RequestStop raises the stop flag and wakes the worker.
func (r *Reader) RequestStop() {
	r.stopped.Store(true)
	r.Trigger()
}

// Join blocks until the worker goroutine has exited.
func (r *Reader) Join() {
	r.wg.Wait()
}

// Stop is RequestStop followed by Join.
func (r *Reader) Stop() {
	r.RequestStop()
	r.Join()
	logger().Info("imageload: decode worker stopped")
}

// TickConstruct drains the construction task queue. Control thread only;
// must run every frame, since the worker may be blocked waiting on it.
func (r *Reader) TickConstruct() {
	for !r.stopped.Load() {
		task, ok := r.popConstructTask()
		if !ok {
			return
		}

		tex, err := r.cfg.Device.AllocateTexture(task.filename, task.kind, task.format)
		if err != nil {
			// The worker is woken regardless; it observes the empty
			// pool and fails the request.
			logger().Error("imageload: texture allocation failed",
				"filename", task.filename, "error", err)
		} else {
			r.pushConstructed(tex)
		}

		select {
		case r.constructedSig <- struct{}{}:
		default:
		}
	}
}

// drain processes queued requests until the queue is empty, then publishes
// the completed flag. direct marks execution on the control thread, where
// texture objects are allocated without the rendezvous.
func (r *Reader) drain(direct bool) {
	for !r.completed.Load() && !r.stopped.Load() {
		for {
			req, ok := r.popRequest()
			if !ok {
				break
			}
			if !r.process(req, direct) {
				// Construction pool yielded nothing (shutdown raced the
				// wait). The pass is abandoned with the last result left
				// incomplete.
				return
			}
		}

		// Snapshot and store happen under mu; AddRequest clears the flag
		// under the same lock, so the flag is never stale-true with a
		// request pending.
		r.mu.Lock()
		empty := len(r.requests) == 0
		r.completed.Store(empty)
		r.mu.Unlock()
	}
}

// process handles a single request end to end. It reports false only when
// the construction rendezvous produced no texture and the drain pass must
// be abandoned.
func (r *Reader) process(req Request, direct bool) bool {
	res := Result{ID: req.ID, Filename: req.Filename}

	img, err := decode.File(req.Filename, req.Decode)
	if err != nil {
		res.Err = err
		r.pushResult(res)
		return true
	}

	pf, err := gpu.PixelFormatFor(img.Format(), req.ForUI)
	if err != nil {
		res.Err = err
		r.pushResult(res)
		return true
	}

	if req.Kind == gpu.KindCubemap && img.Height() != 6*img.Width() {
		res.Err = fmt.Errorf("%w: got %dx%d", ErrBadCubemapSource, img.Width(), img.Height())
		r.pushResult(res)
		return true
	}

	tex, ok := r.obtainTexture(req, pf, direct)
	if !ok {
		r.pushResult(res)
		return false
	}
	if tex == nil {
		// Allocation was refused; the device error was logged where it
		// occurred, surface a generic one to the caller.
		res.Err = fmt.Errorf("reader: texture allocation failed for %q", req.Filename)
		r.pushResult(res)
		return true
	}

	tex.SetSize(img.Width(), img.Height())

	if req.ForUI {
		converted, err := img.ToBGRA8()
		if err != nil {
			res.Err = err
			r.pushResult(res)
			return true
		}
		img = converted
	}

	if err := r.upload(tex, img, pf, req.Kind); err != nil {
		res.Err = err
		r.pushResult(res)
		return true
	}

	res.Texture = tex
	r.pushResult(res)
	return true
}

// obtainTexture returns an unpopulated texture object for the request.
//
// On the control thread it allocates directly. On the worker thread it
// queues a construction task and blocks on a bounded-interval wait until
// the pool yields an object, re-checking the stop flag at every interval so
// shutdown stays responsive. A nil texture with a true boolean means the
// allocation was refused and the request must fail; the boolean is false
// only when shutdown raced the wait and the drain pass must be abandoned.
func (r *Reader) obtainTexture(req Request, pf gputypes.TextureFormat, direct bool) (*gpu.Texture, bool) {
	if direct {
		tex, err := r.cfg.Device.AllocateTexture(req.Filename, req.Kind, pf)
		if err != nil {
			logger().Error("imageload: texture allocation failed",
				"filename", req.Filename, "error", err)
			return nil, true
		}
		r.pushConstructed(tex)
	} else {
		r.pushConstructTask(constructTask{
			filename: req.Filename,
			kind:     req.Kind,
			format:   pf,
		})

	wait:
		for {
			select {
			case <-r.constructedSig:
				break wait
			case <-time.After(r.cfg.WaitInterval):
				if r.stopped.Load() || r.constructedLen() > 0 {
					break wait
				}
			}
		}
	}

	tex, ok := r.popConstructed()
	if !ok {
		if r.stopped.Load() {
			return nil, false
		}
		// The control thread signaled without filling the pool: the
		// allocation was refused. The request fails, the drain goes on.
		return nil, true
	}
	return tex, true
}

// upload performs the two awaited dispatches on the rendering context:
// resource creation plus bind, then sampler initialization.
func (r *Reader) upload(tex *gpu.Texture, img *raw.Image, pf gputypes.TextureFormat, kind gpu.TextureKind) error {
	width, height := img.Width(), img.Height()
	layers := kind.Layers()
	if kind == gpu.KindCubemap {
		height /= 6
	}

	var created gpu.Resource
	err := r.cfg.RenderCtx.Submit(func() error {
		res, err := r.cfg.Device.CreateResource(img.Data(), width, height, layers, pf, img.SRGB())
		if err != nil {
			return err
		}
		created = res
		if old := tex.BindResource(res); old != nil {
			old.Release()
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("reader: create texture resource: %w", err)
	}

	err = r.cfg.RenderCtx.Submit(func() error {
		return r.cfg.Device.InitSampler(created, r.cfg.Sampler)
	})
	if err != nil {
		return fmt.Errorf("reader: init sampler state: %w", err)
	}
	return nil
}

// popRequest pops the oldest pending request.
func (r *Reader) popRequest() (Request, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.requests) == 0 {
		return Request{}, false
	}
	req := r.requests[0]
	r.requests = r.requests[1:]
	return req, true
}

// pushResult appends a result to the store.
func (r *Reader) pushResult(res Result) {
	r.mu.Lock()
	r.results = append(r.results, res)
	r.mu.Unlock()
}

// popConstructTask pops the oldest pending construction task.
func (r *Reader) popConstructTask() (constructTask, bool) {
	r.cmu.Lock()
	defer r.cmu.Unlock()

	if len(r.constructs) == 0 {
		return constructTask{}, false
	}
	task := r.constructs[0]
	r.constructs = r.constructs[1:]
	return task, true
}

// pushConstructTask appends a construction task for the control thread.
func (r *Reader) pushConstructTask(task constructTask) {
	r.cmu.Lock()
	r.constructs = append(r.constructs, task)
	r.cmu.Unlock()
}

// pushConstructed appends a freshly allocated texture to the pool.
func (r *Reader) pushConstructed(tex *gpu.Texture) {
	r.cmu.Lock()
	r.constructed = append(r.constructed, tex)
	r.cmu.Unlock()
}

// popConstructed pops the most recent texture from the pool.
func (r *Reader) popConstructed() (*gpu.Texture, bool) {
	r.cmu.Lock()
	defer r.cmu.Unlock()

	n := len(r.constructed)
	if n == 0 {
		return nil, false
	}
	tex := r.constructed[n-1]
	r.constructed = r.constructed[:n-1]
	return tex, true
}

// constructedLen returns the construction pool size.
func (r *Reader) constructedLen() int {
	r.cmu.Lock()
	defer r.cmu.Unlock()
	return len(r.constructed)
}
