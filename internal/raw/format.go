// Package raw provides the decoded-image data model for imageload.
//
// A raw.Image is the hand-off between the codec boundary and the GPU upload
// path: a contiguous pixel buffer tagged with a semantic Format and
// dimensions. The semantic formats mirror what the supported codecs can
// produce, not what the GPU consumes; mapping to GPU pixel formats happens
// in the gpu package.
package raw

// Format represents a semantic pixel layout as produced by a codec.
type Format uint8

const (
	// FormatGray8 is 8-bit grayscale (1 byte per pixel).
	FormatGray8 Format = iota

	// FormatGray16 is 16-bit grayscale (2 bytes per pixel, big-endian
	// as decoded by the standard library).
	FormatGray16

	// FormatBGRA8 is 32-bit BGRA (4 bytes per pixel). The default format
	// for 8-bit color images.
	FormatBGRA8

	// FormatBGRE8 is 32-bit BGR with a shared exponent byte (Radiance
	// RGBE layout stored in BGRE channel order). Produced by the HDR codec.
	FormatBGRE8

	// FormatRGBA16 is 64-bit integer RGBA (8 bytes per pixel).
	FormatRGBA16

	// FormatRGBA16F is 64-bit half-float RGBA (8 bytes per pixel).
	// No bundled codec produces this format; it exists for callers that
	// hand pre-decoded buffers to the pipeline.
	FormatRGBA16F

	// formatCount is the number of formats (for internal use).
	formatCount
)

// FormatInfo contains metadata about a semantic pixel format.
type FormatInfo struct {
	// BytesPerPixel is the number of bytes per pixel.
	BytesPerPixel int

	// Channels is the number of color channels.
	Channels int

	// HasAlpha indicates if the format has an alpha channel.
	HasAlpha bool

	// IsGrayscale indicates if this is a grayscale format.
	IsGrayscale bool

	// BitsPerChannel is the number of bits per color channel.
	BitsPerChannel int
}

// formatInfoTable contains metadata for each format.
var formatInfoTable = [formatCount]FormatInfo{
	FormatGray8: {
		BytesPerPixel:  1,
		Channels:       1,
		HasAlpha:       false,
		IsGrayscale:    true,
		BitsPerChannel: 8,
	},
	FormatGray16: {
		BytesPerPixel:  2,
		Channels:       1,
		HasAlpha:       false,
		IsGrayscale:    true,
		BitsPerChannel: 16,
	},
	FormatBGRA8: {
		BytesPerPixel:  4,
		Channels:       4,
		HasAlpha:       true,
		IsGrayscale:    false,
		BitsPerChannel: 8,
	},
	FormatBGRE8: {
		BytesPerPixel:  4,
		Channels:       4,
		HasAlpha:       false,
		IsGrayscale:    false,
		BitsPerChannel: 8,
	},
	FormatRGBA16: {
		BytesPerPixel:  8,
		Channels:       4,
		HasAlpha:       true,
		IsGrayscale:    false,
		BitsPerChannel: 16,
	},
	FormatRGBA16F: {
		BytesPerPixel:  8,
		Channels:       4,
		HasAlpha:       true,
		IsGrayscale:    false,
		BitsPerChannel: 16,
	},
}

// Info returns the FormatInfo for this format.
func (f Format) Info() FormatInfo {
	if f >= formatCount {
		return FormatInfo{}
	}
	return formatInfoTable[f]
}

// BytesPerPixel returns the number of bytes per pixel for this format.
func (f Format) BytesPerPixel() int {
	return f.Info().BytesPerPixel
}

// IsGrayscale returns true if this is a grayscale format.
func (f Format) IsGrayscale() bool {
	return f.Info().IsGrayscale
}

// IsValid returns true if the format is a valid known format.
func (f Format) IsValid() bool {
	return f < formatCount
}

// RowBytes calculates the number of bytes needed for a row of the given width.
func (f Format) RowBytes(width int) int {
	return width * f.BytesPerPixel()
}

// ImageBytes calculates the total number of bytes needed for an image.
func (f Format) ImageBytes(width, height int) int {
	return f.RowBytes(width) * height
}

// String returns a string representation of the format.
func (f Format) String() string {
	switch f {
	case FormatGray8:
		return "Gray8"
	case FormatGray16:
		return "Gray16"
	case FormatBGRA8:
		return "BGRA8"
	case FormatBGRE8:
		return "BGRE8"
	case FormatRGBA16:
		return "RGBA16"
	case FormatRGBA16F:
		return "RGBA16F"
	default:
		return "Unknown"
	}
}
