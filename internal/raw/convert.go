package raw

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ToBGRA8 converts an image of any supported format to 8-bit BGRA.
//
// This is the display-safe normalization pass used for UI textures: wide
// formats are truncated to 8 bits per channel, grayscale is replicated
// across B/G/R, and shared-exponent HDR data is clamped to [0, 1].
// The returned image is marked sRGB, matching how the converted buffer is
// sampled by UI materials. Returns the receiver's clone if it is already BGRA8.
func (m *Image) ToBGRA8() (*Image, error) {
	if m.format == FormatBGRA8 {
		out := m.Clone()
		out.srgb = true
		return out, nil
	}

	out, err := NewImage(m.width, m.height, FormatBGRA8)
	if err != nil {
		return nil, err
	}
	out.srgb = true

	n := m.width * m.height
	src := m.data
	dst := out.data

	switch m.format {
	case FormatGray8:
		for i := range n {
			g := src[i]
			dst[i*4+0] = g
			dst[i*4+1] = g
			dst[i*4+2] = g
			dst[i*4+3] = 0xff
		}

	case FormatGray16:
		for i := range n {
			g := byte(binary.BigEndian.Uint16(src[i*2:]) >> 8)
			dst[i*4+0] = g
			dst[i*4+1] = g
			dst[i*4+2] = g
			dst[i*4+3] = 0xff
		}

	case FormatBGRE8:
		for i := range n {
			r, g, b := decodeRGBE(src[i*4+2], src[i*4+1], src[i*4+0], src[i*4+3])
			dst[i*4+0] = clampUnitByte(b)
			dst[i*4+1] = clampUnitByte(g)
			dst[i*4+2] = clampUnitByte(r)
			dst[i*4+3] = 0xff
		}

	case FormatRGBA16:
		for i := range n {
			r := byte(binary.BigEndian.Uint16(src[i*8+0:]) >> 8)
			g := byte(binary.BigEndian.Uint16(src[i*8+2:]) >> 8)
			b := byte(binary.BigEndian.Uint16(src[i*8+4:]) >> 8)
			a := byte(binary.BigEndian.Uint16(src[i*8+6:]) >> 8)
			dst[i*4+0] = b
			dst[i*4+1] = g
			dst[i*4+2] = r
			dst[i*4+3] = a
		}

	case FormatRGBA16F:
		for i := range n {
			r := halfToFloat(binary.LittleEndian.Uint16(src[i*8+0:]))
			g := halfToFloat(binary.LittleEndian.Uint16(src[i*8+2:]))
			b := halfToFloat(binary.LittleEndian.Uint16(src[i*8+4:]))
			a := halfToFloat(binary.LittleEndian.Uint16(src[i*8+6:]))
			dst[i*4+0] = clampUnitByte(b)
			dst[i*4+1] = clampUnitByte(g)
			dst[i*4+2] = clampUnitByte(r)
			dst[i*4+3] = clampUnitByte(a)
		}

	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidFormat, m.format)
	}

	return out, nil
}

// decodeRGBE expands a Radiance shared-exponent pixel to linear float RGB.
func decodeRGBE(r, g, b, e byte) (fr, fg, fb float64) {
	if e == 0 {
		return 0, 0, 0
	}
	scale := math.Ldexp(1, int(e)-136) // 2^(e-128) / 256
	return float64(r) * scale, float64(g) * scale, float64(b) * scale
}

// clampUnitByte maps a linear float in [0, 1] to a byte, clamping outliers.
func clampUnitByte(v float64) byte {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 0xff
	}
	return byte(v*255 + 0.5)
}

// halfToFloat converts an IEEE 754 half-precision value to float64.
func halfToFloat(h uint16) float64 {
	sign := uint32(h>>15) << 31
	exp := uint32(h >> 10 & 0x1f)
	mant := uint32(h & 0x3ff)

	var bits uint32
	switch {
	case exp == 0 && mant == 0:
		bits = sign
	case exp == 0:
		// Subnormal: normalize.
		for mant&0x400 == 0 {
			mant <<= 1
			exp--
		}
		exp++
		mant &= 0x3ff
		bits = sign | (exp+112)<<23 | mant<<13
	case exp == 0x1f:
		bits = sign | 0xff<<23 | mant<<13
	default:
		bits = sign | (exp+112)<<23 | mant<<13
	}

	return float64(math.Float32frombits(bits))
}
