// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"errors"

	"github.com/gogpu/gputypes"
)

// Common device errors.
var (
	// ErrDeviceClosed is returned when operating on a closed device.
	ErrDeviceClosed = errors.New("gpu: device is closed")

	// ErrNilResource is returned when a nil resource is passed to the device.
	ErrNilResource = errors.New("gpu: resource is nil")

	// ErrInvalidTextureSize is returned when texture dimensions are invalid.
	ErrInvalidTextureSize = errors.New("gpu: invalid texture size")
)

// TextureKind selects the shape of a texture object.
type TextureKind uint8

const (
	// KindTexture2D is a regular two-dimensional texture.
	KindTexture2D TextureKind = iota

	// KindCubemap is a six-face cube texture.
	KindCubemap
)

// Layers returns the number of array layers backing this kind.
func (k TextureKind) Layers() int {
	if k == KindCubemap {
		return 6
	}
	return 1
}

// String returns a string representation of the kind.
func (k TextureKind) String() string {
	if k == KindCubemap {
		return "Cubemap"
	}
	return "Texture2D"
}

// SamplerConfig describes the sampler state attached to an uploaded resource.
type SamplerConfig struct {
	AddressModeU gputypes.AddressMode
	AddressModeV gputypes.AddressMode
	AddressModeW gputypes.AddressMode
	MagFilter    gputypes.FilterMode
	MinFilter    gputypes.FilterMode
	MipmapFilter gputypes.FilterMode
}

// DefaultSamplerConfig returns the loader's sampler defaults: wrap
// addressing with trilinear filtering.
func DefaultSamplerConfig() SamplerConfig {
	return SamplerConfig{
		AddressModeU: gputypes.AddressModeRepeat,
		AddressModeV: gputypes.AddressModeRepeat,
		AddressModeW: gputypes.AddressModeRepeat,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
	}
}

// Resource is a GPU-resident texture resource created by a Device.
type Resource interface {
	// Release frees the underlying GPU objects. Safe to call once.
	Release()
}

// Device is the graphics backend boundary.
//
// AllocateTexture is only ever called on the control thread (directly or via
// the construction rendezvous). CreateResource and InitSampler are called
// from whatever execution context the driver requires; the loader dispatches
// them through a render.Context so drivers may assume a single consistent
// goroutine.
type Device interface {
	// Name returns the driver identifier (e.g. "software", "wgpu").
	Name() string

	// AllocateTexture creates an unpopulated texture object of the given
	// kind and pixel format. No GPU resources are created yet.
	AllocateTexture(label string, kind TextureKind, format gputypes.TextureFormat) (*Texture, error)

	// CreateResource creates a GPU-resident resource from a tightly packed
	// pixel buffer. layers is 1 for 2D textures and 6 for cubemaps; the
	// buffer holds the layers contiguously.
	CreateResource(data []byte, width, height, layers int, format gputypes.TextureFormat, srgb bool) (Resource, error)

	// InitSampler initializes the sampler state of a resource previously
	// returned by CreateResource on this device.
	InitSampler(res Resource, cfg SamplerConfig) error

	// Close releases the device. Textures allocated from it become inert.
	Close()
}

// TexelSize returns the bytes per texel for the formats the loader emits,
// or 0 for formats outside the mapping table. Drivers use it to compute
// upload row pitches.
func TexelSize(format gputypes.TextureFormat) int {
	switch format {
	case gputypes.TextureFormatR8Unorm:
		return 1
	case gputypes.TextureFormatR16Uint:
		return 2
	case gputypes.TextureFormatBGRA8Unorm:
		return 4
	case gputypes.TextureFormatRGBA16Sint, gputypes.TextureFormatRGBA16Float:
		return 8
	default:
		return 0
	}
}
