// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

// Package wgpudev provides the Pure Go WebGPU device driver for imageload,
// built on gogpu/wgpu's hardware abstraction layer. Importing the package
// registers the "wgpu" driver:
//
//	import _ "github.com/gogpu/imageload/gpu/wgpudev"
package wgpudev

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/imageload/gpu"
)

func init() {
	gpu.Register(gpu.DriverWGPU, func() (gpu.Device, error) {
		return Open()
	})
}

// Device implements gpu.Device on a hal.Device/hal.Queue pair.
//
// Thread safety: AllocateTexture may race with CreateResource/InitSampler;
// all hal calls are serialized by a mutex.
type Device struct {
	mu       sync.Mutex
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	closed   bool
	external bool // true when the device is shared, don't destroy on Close

	logger *slog.Logger
}

// Open creates a standalone Vulkan device for the loader's exclusive use.
func Open() (*Device, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("wgpudev: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("wgpudev: create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("wgpudev: no GPU adapters found")
	}

	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("wgpudev: open device: %w", err)
	}

	return &Device{
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
	}, nil
}

// FromProvider wraps a shared GPU device exposed by an external
// gpucontext.DeviceProvider (e.g. a gogpu window context). The provider must
// additionally implement HalDevice() any and HalQueue() any returning
// hal.Device and hal.Queue. The provider keeps ownership; Close does not
// destroy the shared device.
func FromProvider(provider gpucontext.DeviceProvider) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("wgpudev: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("wgpudev: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("wgpudev: provider HalQueue is not hal.Queue")
	}

	return &Device{
		device:   device,
		queue:    queue,
		external: true,
	}, nil
}

// Name returns the driver identifier.
func (d *Device) Name() string { return gpu.DriverWGPU }

// SetLogger configures the driver's logger. Called by imageload.SetLogger.
func (d *Device) SetLogger(l *slog.Logger) {
	d.mu.Lock()
	d.logger = l
	d.mu.Unlock()
}

func (d *Device) log() *slog.Logger {
	if d.logger != nil {
		return d.logger
	}
	return slog.New(discardHandler{})
}

// discardHandler silently drops all log records.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }

// AllocateTexture creates an unpopulated texture object. The hal texture is
// created later, in CreateResource, once the pixel data is known.
func (d *Device) AllocateTexture(label string, kind gpu.TextureKind, format gputypes.TextureFormat) (*gpu.Texture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, gpu.ErrDeviceClosed
	}
	return gpu.NewTexture(label, kind, format), nil
}

// CreateResource creates a hal texture of the given shape and uploads the
// pixel buffer to it through the queue.
func (d *Device) CreateResource(data []byte, width, height, layers int, format gputypes.TextureFormat, srgb bool) (gpu.Resource, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, gpu.ErrDeviceClosed
	}

	if width <= 0 || height <= 0 || layers <= 0 {
		return nil, gpu.ErrInvalidTextureSize
	}
	bpp := gpu.TexelSize(format)
	if bpp == 0 {
		return nil, fmt.Errorf("wgpudev: unsupported texture format %v", format)
	}
	need := width * height * layers * bpp
	if len(data) < need {
		return nil, fmt.Errorf("wgpudev: pixel buffer too small: have %d bytes, need %d", len(data), need)
	}

	halFormat := format
	if srgb && format == gputypes.TextureFormatBGRA8Unorm {
		halFormat = gputypes.TextureFormatBGRA8UnormSrgb
	}

	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label: "imageload_texture",
		Size: hal.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: uint32(layers),
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        halFormat,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpudev: create texture: %w", err)
	}

	d.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   hal.Origin3D{X: 0, Y: 0, Z: 0},
			Aspect:   gputypes.TextureAspectAll,
		},
		data[:need],
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(width * bpp),
			RowsPerImage: uint32(height),
		},
		&hal.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: uint32(layers),
		},
	)

	d.log().Debug("wgpudev: texture uploaded",
		"width", width, "height", height, "layers", layers, "format", halFormat)

	return &resource{dev: d, tex: tex}, nil
}

// InitSampler creates the sampler state for a resource created by this
// device.
func (d *Device) InitSampler(res gpu.Resource, cfg gpu.SamplerConfig) error {
	if res == nil {
		return gpu.ErrNilResource
	}
	r, ok := res.(*resource)
	if !ok || r.dev != d {
		return fmt.Errorf("wgpudev: resource does not belong to this device")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return gpu.ErrDeviceClosed
	}

	sampler, err := d.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "imageload_sampler",
		AddressModeU: cfg.AddressModeU,
		AddressModeV: cfg.AddressModeV,
		AddressModeW: cfg.AddressModeW,
		MagFilter:    cfg.MagFilter,
		MinFilter:    cfg.MinFilter,
		MipmapFilter: cfg.MipmapFilter,
	})
	if err != nil {
		return fmt.Errorf("wgpudev: create sampler: %w", err)
	}

	r.mu.Lock()
	r.sampler = sampler
	r.mu.Unlock()
	return nil
}

// Close destroys the device and instance unless they are shared.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true

	if d.external {
		// Don't destroy shared resources -- we don't own them.
		d.device = nil
		d.queue = nil
		return
	}
	if d.device != nil {
		d.device.Destroy()
		d.device = nil
	}
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
	d.queue = nil
}

// resource pairs a hal texture with its sampler.
type resource struct {
	dev *Device

	mu       sync.Mutex
	tex      hal.Texture
	sampler  hal.Sampler
	released bool
}

// Release destroys the hal texture and sampler.
func (r *resource) Release() {
	r.mu.Lock()
	tex, sampler := r.tex, r.sampler
	released := r.released
	r.released = true
	r.tex = nil
	r.sampler = nil
	r.mu.Unlock()
	if released {
		return
	}

	r.dev.mu.Lock()
	defer r.dev.mu.Unlock()
	if r.dev.closed || r.dev.device == nil {
		return
	}
	if sampler != nil {
		r.dev.device.DestroySampler(sampler)
	}
	if tex != nil {
		r.dev.device.DestroyTexture(tex)
	}
}
