// Package decode implements the codec boundary of the loader: file bytes in,
// a raw.Image tagged with a semantic format out.
//
// Formats handled: PNG and JPEG via the standard library, BMP, TIFF and WebP
// via golang.org/x/image, and Radiance HDR (.hdr / .pic) via the decoder in
// this package. Grayscale and 16-bit variants keep their bit depth; all other
// 8-bit color inputs normalize to BGRA8.
package decode

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	// Standard and extended codecs register themselves with image.Decode.
	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/gogpu/imageload/internal/raw"
)

// Codec errors.
var (
	// ErrUnsupportedFormat is returned when no codec recognizes the file.
	ErrUnsupportedFormat = errors.New("decode: unsupported image format")

	// ErrEmptyImage is returned when a decoded image has no pixels.
	ErrEmptyImage = errors.New("decode: image has no pixels")
)

// Options carries the transform parameters applied at decode time.
type Options struct {
	// PercentSizeX scales the decoded width; 0 or 100 leaves it unchanged.
	PercentSizeX int

	// PercentSizeY scales the decoded height; 0 or 100 leaves it unchanged.
	PercentSizeY int
}

// wantsResize reports whether the options request a size change.
func (o Options) wantsResize() bool {
	return (o.PercentSizeX > 0 && o.PercentSizeX != 100) ||
		(o.PercentSizeY > 0 && o.PercentSizeY != 100)
}

// File decodes the image file at path into a raw.Image.
//
// The codec is selected by content sniffing, not extension. Radiance HDR
// images decode to BGRE8 and ignore resize options (HDR sources keep their
// native resolution).
func File(path string, opts Options) (*raw.Image, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("decode: open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	br := bufio.NewReader(f)
	if isRadiance(br) {
		return DecodeHDR(br)
	}

	img, _, err := image.Decode(br)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Base(path))
		}
		return nil, fmt.Errorf("decode %q: %w", filepath.Base(path), err)
	}

	if opts.wantsResize() {
		img = resize(img, opts)
	}

	return fromStdImage(img)
}

// resize scales img by the percentages in opts, preserving the concrete
// pixel type so that bit depth survives the transform.
func resize(img image.Image, opts Options) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if opts.PercentSizeX > 0 {
		w = w * opts.PercentSizeX / 100
	}
	if opts.PercentSizeY > 0 {
		h = h * opts.PercentSizeY / 100
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if w == b.Dx() && h == b.Dy() {
		return img
	}

	r := image.Rect(0, 0, w, h)
	var dst xdraw.Image
	switch img.(type) {
	case *image.Gray:
		dst = image.NewGray(r)
	case *image.Gray16:
		dst = image.NewGray16(r)
	case *image.RGBA64, *image.NRGBA64:
		dst = image.NewRGBA64(r)
	default:
		dst = image.NewRGBA(r)
	}

	xdraw.BiLinear.Scale(dst, r, img, b, xdraw.Src, nil)
	return dst
}

// fromStdImage converts a standard library image into a raw.Image, picking
// the narrowest semantic format that preserves the source data.
func fromStdImage(img image.Image) (*raw.Image, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, ErrEmptyImage
	}

	switch src := img.(type) {
	case *image.Gray:
		out, err := raw.NewImage(w, h, raw.FormatGray8)
		if err != nil {
			return nil, err
		}
		copyRows(out.Data(), src.Pix, h, w, src.Stride)
		return out, nil

	case *image.Gray16:
		out, err := raw.NewImage(w, h, raw.FormatGray16)
		if err != nil {
			return nil, err
		}
		copyRows(out.Data(), src.Pix, h, w*2, src.Stride)
		return out, nil

	case *image.RGBA64:
		out, err := raw.NewImage(w, h, raw.FormatRGBA16)
		if err != nil {
			return nil, err
		}
		copyRows(out.Data(), src.Pix, h, w*8, src.Stride)
		return out, nil

	case *image.NRGBA64:
		out, err := raw.NewImage(w, h, raw.FormatRGBA16)
		if err != nil {
			return nil, err
		}
		copyRows(out.Data(), src.Pix, h, w*8, src.Stride)
		return out, nil
	}

	// Generic 8-bit color path: draw into RGBA, then swizzle to BGRA.
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(rgba, rgba.Bounds(), img, b.Min, xdraw.Src)

	out, err := raw.NewImage(w, h, raw.FormatBGRA8)
	if err != nil {
		return nil, err
	}
	dst := out.Data()
	src := rgba.Pix
	for i := 0; i < len(dst); i += 4 {
		dst[i+0] = src[i+2]
		dst[i+1] = src[i+1]
		dst[i+2] = src[i+0]
		dst[i+3] = src[i+3]
	}
	return out, nil
}

// copyRows copies height rows of rowBytes each from a strided source.
func copyRows(dst, src []byte, height, rowBytes, srcStride int) {
	for y := range height {
		copy(dst[y*rowBytes:(y+1)*rowBytes], src[y*srcStride:y*srcStride+rowBytes])
	}
}
