package imageload

import (
	"time"

	"github.com/gogpu/imageload/gpu"
	"github.com/gogpu/imageload/render"
)

// options collects the configurable pieces of a Loader.
type options struct {
	device    gpu.Device
	driver    string
	renderCtx *render.Context
	sampler   gpu.SamplerConfig
	waitEvery time.Duration
}

// Option configures a Loader created by New.
type Option func(*options)

// WithDevice uses an existing device instead of opening one. The caller
// keeps ownership: Close does not close the device.
func WithDevice(dev gpu.Device) Option {
	return func(o *options) { o.device = dev }
}

// WithDriver opens the named registered driver ("software", "wgpu", ...)
// instead of the default priority selection.
func WithDriver(name string) Option {
	return func(o *options) { o.driver = name }
}

// WithRenderContext uses the given rendering context for upload dispatches.
// The caller keeps ownership and must keep draining it; Close does not
// close the context. Without this option the Loader runs an immediate
// context that executes uploads inline.
func WithRenderContext(rc *render.Context) Option {
	return func(o *options) { o.renderCtx = rc }
}

// WithSampler overrides the sampler state applied to every loaded texture.
// The default is repeat addressing with trilinear filtering.
func WithSampler(cfg gpu.SamplerConfig) Option {
	return func(o *options) { o.sampler = cfg }
}

// WithConstructWaitInterval overrides the bounded interval the decode
// worker waits on the texture construction rendezvous before re-checking
// its stop flag. Mainly useful in tests; the default is 100ms.
func WithConstructWaitInterval(d time.Duration) Option {
	return func(o *options) { o.waitEvery = d }
}
