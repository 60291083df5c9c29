package gpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
)

// Driver name constants.
const (
	// DriverSoftware is the name of the in-memory software device.
	DriverSoftware = "software"
	// DriverWGPU is the name of the Pure Go WebGPU device (gpu/wgpudev).
	DriverWGPU = "wgpu"
)

// SoftwareDevice is an in-memory Device implementation.
//
// It performs no real GPU work: resources keep a copy of the uploaded pixel
// data and record their sampler configuration. This makes the full pipeline
// runnable headless and observable from tests.
type SoftwareDevice struct {
	mu        sync.Mutex
	closed    bool
	allocated int
}

// init registers the software driver on package import.
func init() {
	Register(DriverSoftware, func() (Device, error) {
		return NewSoftwareDevice(), nil
	})
}

// NewSoftwareDevice creates a new in-memory device.
func NewSoftwareDevice() *SoftwareDevice {
	return &SoftwareDevice{}
}

// Name returns the driver identifier.
func (d *SoftwareDevice) Name() string {
	return DriverSoftware
}

// AllocateTexture creates an unpopulated texture object.
func (d *SoftwareDevice) AllocateTexture(label string, kind TextureKind, format gputypes.TextureFormat) (*Texture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrDeviceClosed
	}
	d.allocated++
	return NewTexture(label, kind, format), nil
}

// AllocatedTextures returns the number of textures allocated so far.
func (d *SoftwareDevice) AllocatedTextures() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.allocated
}

// CreateResource copies the pixel buffer into an in-memory resource.
func (d *SoftwareDevice) CreateResource(data []byte, width, height, layers int, format gputypes.TextureFormat, srgb bool) (Resource, error) {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return nil, ErrDeviceClosed
	}

	if width <= 0 || height <= 0 || layers <= 0 {
		return nil, ErrInvalidTextureSize
	}
	bpp := TexelSize(format)
	if bpp == 0 {
		return nil, fmt.Errorf("gpu: unsupported texture format %v", format)
	}
	need := width * height * layers * bpp
	if len(data) < need {
		return nil, fmt.Errorf("gpu: pixel buffer too small: have %d bytes, need %d", len(data), need)
	}

	pixels := make([]byte, need)
	copy(pixels, data[:need])

	return &SoftwareResource{
		data:   pixels,
		width:  width,
		height: height,
		layers: layers,
		format: format,
		srgb:   srgb,
	}, nil
}

// InitSampler records the sampler configuration on the resource.
func (d *SoftwareDevice) InitSampler(res Resource, cfg SamplerConfig) error {
	if res == nil {
		return ErrNilResource
	}
	sr, ok := res.(*SoftwareResource)
	if !ok {
		return fmt.Errorf("gpu: resource does not belong to the software device")
	}

	sr.mu.Lock()
	sr.sampler = cfg
	sr.samplerSet = true
	sr.mu.Unlock()
	return nil
}

// Close marks the device closed. Subsequent allocations fail.
func (d *SoftwareDevice) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
}

// SoftwareResource is the in-memory resource produced by SoftwareDevice.
type SoftwareResource struct {
	data   []byte
	width  int
	height int
	layers int
	format gputypes.TextureFormat
	srgb   bool

	mu         sync.Mutex
	sampler    SamplerConfig
	samplerSet bool
	released   bool
}

// Data returns the uploaded pixel bytes.
func (r *SoftwareResource) Data() []byte { return r.data }

// Size returns the resource dimensions.
func (r *SoftwareResource) Size() (width, height, layers int) {
	return r.width, r.height, r.layers
}

// Format returns the upload pixel format.
func (r *SoftwareResource) Format() gputypes.TextureFormat { return r.format }

// SRGB reports whether the resource was uploaded as sRGB data.
func (r *SoftwareResource) SRGB() bool { return r.srgb }

// Sampler returns the recorded sampler configuration and whether
// InitSampler has run.
func (r *SoftwareResource) Sampler() (SamplerConfig, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sampler, r.samplerSet
}

// Released reports whether Release has been called.
func (r *SoftwareResource) Released() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.released
}

// Release frees the resource.
func (r *SoftwareResource) Release() {
	r.mu.Lock()
	r.released = true
	r.data = nil
	r.mu.Unlock()
}
