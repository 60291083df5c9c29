package raw

import "errors"

// Common errors for raw image buffers.
var (
	// ErrInvalidDimensions is returned when width or height is non-positive.
	ErrInvalidDimensions = errors.New("raw: invalid dimensions")

	// ErrInvalidFormat is returned when the format is not recognized.
	ErrInvalidFormat = errors.New("raw: invalid format")

	// ErrDataTooSmall is returned when provided data is smaller than required.
	ErrDataTooSmall = errors.New("raw: data buffer too small")
)

// Image is a decoded pixel buffer tagged with its semantic format.
//
// The buffer is tightly packed (stride == Format.RowBytes(width)).
// Thread safety: an Image is treated as immutable once produced by a codec;
// conversions allocate new buffers.
type Image struct {
	data   []byte
	width  int
	height int
	format Format

	// srgb records whether the pixel data is sRGB-encoded. 8-bit color
	// images are; 16-bit and HDR images are linear.
	srgb bool
}

// NewImage creates a zeroed image buffer with the given dimensions and format.
func NewImage(width, height int, format Format) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if !format.IsValid() {
		return nil, ErrInvalidFormat
	}

	return &Image{
		data:   make([]byte, format.ImageBytes(width, height)),
		width:  width,
		height: height,
		format: format,
		srgb:   format == FormatBGRA8,
	}, nil
}

// FromRaw creates an Image from existing data without copying.
// The caller must ensure data remains valid for the lifetime of the Image.
func FromRaw(data []byte, width, height int, format Format, srgb bool) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if !format.IsValid() {
		return nil, ErrInvalidFormat
	}

	required := format.ImageBytes(width, height)
	if len(data) < required {
		return nil, ErrDataTooSmall
	}

	return &Image{
		data:   data[:required],
		width:  width,
		height: height,
		format: format,
		srgb:   srgb,
	}, nil
}

// Width returns the image width in pixels.
func (m *Image) Width() int { return m.width }

// Height returns the image height in pixels.
func (m *Image) Height() int { return m.height }

// Format returns the semantic pixel format.
func (m *Image) Format() Format { return m.format }

// SRGB reports whether the pixel data is sRGB-encoded.
func (m *Image) SRGB() bool { return m.srgb }

// Data returns the raw pixel data.
func (m *Image) Data() []byte { return m.data }

// Stride returns the number of bytes per row.
func (m *Image) Stride() int { return m.format.RowBytes(m.width) }

// Clone creates a deep copy of the image.
func (m *Image) Clone() *Image {
	data := make([]byte, len(m.data))
	copy(data, m.data)
	return &Image{
		data:   data,
		width:  m.width,
		height: m.height,
		format: m.format,
		srgb:   m.srgb,
	}
}
