package decode

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gogpu/imageload/internal/raw"
)

// Radiance HDR errors.
var (
	// ErrBadHDRHeader is returned when the Radiance header is malformed.
	ErrBadHDRHeader = errors.New("decode: malformed Radiance header")

	// ErrBadHDRScanline is returned when a scanline fails to decode.
	ErrBadHDRScanline = errors.New("decode: malformed Radiance scanline")
)

// isRadiance peeks at the stream and reports whether it starts with a
// Radiance magic line ("#?RADIANCE" or "#?RGBE"). The stream position is
// not advanced.
func isRadiance(br *bufio.Reader) bool {
	head, err := br.Peek(2)
	if err != nil {
		return false
	}
	return string(head) == "#?"
}

// DecodeHDR decodes a Radiance HDR stream into a BGRE8 raw.Image.
//
// Both the flat and the run-length encoded scanline layouts are handled.
// Only the common "-Y height +X width" orientation is accepted.
func DecodeHDR(r *bufio.Reader) (*raw.Image, error) {
	width, height, err := readHDRHeader(r)
	if err != nil {
		return nil, err
	}

	img, err := raw.NewImage(width, height, raw.FormatBGRE8)
	if err != nil {
		return nil, err
	}

	row := make([]byte, width*4) // RGBE scanline scratch
	dst := img.Data()
	for y := range height {
		if err := readHDRScanline(r, row, width); err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", ErrBadHDRScanline, y, err)
		}
		// Store in BGRE channel order.
		out := dst[y*width*4:]
		for x := range width {
			out[x*4+0] = row[x*4+2]
			out[x*4+1] = row[x*4+1]
			out[x*4+2] = row[x*4+0]
			out[x*4+3] = row[x*4+3]
		}
	}

	return img, nil
}

// readHDRHeader parses the Radiance header and resolution line.
func readHDRHeader(r *bufio.Reader) (width, height int, err error) {
	magic, err := r.ReadString('\n')
	if err != nil {
		return 0, 0, ErrBadHDRHeader
	}
	if !strings.HasPrefix(magic, "#?") {
		return 0, 0, ErrBadHDRHeader
	}

	// Header lines until the blank separator. FORMAT is optional in
	// practice; when present it must name the rle_rgbe encoding.
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return 0, 0, ErrBadHDRHeader
		}
		line = strings.TrimRight(line, "\n")
		if line == "" {
			break
		}
		if strings.HasPrefix(line, "FORMAT=") && line != "FORMAT=32-bit_rle_rgbe" {
			return 0, 0, fmt.Errorf("%w: unsupported format %q", ErrBadHDRHeader, line)
		}
	}

	res, err := r.ReadString('\n')
	if err != nil {
		return 0, 0, ErrBadHDRHeader
	}
	fields := strings.Fields(res)
	if len(fields) != 4 || fields[0] != "-Y" || fields[2] != "+X" {
		return 0, 0, fmt.Errorf("%w: unsupported orientation %q", ErrBadHDRHeader, strings.TrimSpace(res))
	}
	height, err = strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, ErrBadHDRHeader
	}
	width, err = strconv.Atoi(fields[3])
	if err != nil {
		return 0, 0, ErrBadHDRHeader
	}
	if width <= 0 || height <= 0 {
		return 0, 0, ErrBadHDRHeader
	}
	return width, height, nil
}

// readHDRScanline reads one RGBE scanline of the given width into row.
func readHDRScanline(r *bufio.Reader, row []byte, width int) error {
	var head [4]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return err
	}

	// New-style RLE scanlines start with (2, 2, width).
	if head[0] == 2 && head[1] == 2 && int(head[2])<<8|int(head[3]) == width && width >= 8 && width <= 0x7fff {
		return readRLEComponents(r, row, width)
	}

	// Flat scanline: head is the first pixel. Old-style run markers
	// ((1,1,1) pixels) repeat the previous pixel.
	copy(row[0:4], head[:])
	shift := uint(0)
	for x := 1; x < width; x++ {
		if _, err := io.ReadFull(r, row[x*4:x*4+4]); err != nil {
			return err
		}
		if row[x*4] == 1 && row[x*4+1] == 1 && row[x*4+2] == 1 {
			count := int(row[x*4+3]) << shift
			if count <= 0 || x+count > width {
				return ErrBadHDRScanline
			}
			prev := row[(x-1)*4 : x*4]
			for i := range count {
				copy(row[(x+i)*4:(x+i+1)*4], prev)
			}
			x += count - 1
			shift += 8
		} else {
			shift = 0
		}
	}
	return nil
}

// readRLEComponents reads the four run-length encoded component streams of a
// new-style scanline and interleaves them into row.
func readRLEComponents(r *bufio.Reader, row []byte, width int) error {
	for c := range 4 {
		x := 0
		for x < width {
			n, err := r.ReadByte()
			if err != nil {
				return err
			}
			if n > 128 {
				// Run of identical bytes.
				count := int(n) - 128
				if x+count > width {
					return ErrBadHDRScanline
				}
				v, err := r.ReadByte()
				if err != nil {
					return err
				}
				for range count {
					row[x*4+c] = v
					x++
				}
			} else {
				// Literal bytes.
				count := int(n)
				if count == 0 || x+count > width {
					return ErrBadHDRScanline
				}
				for range count {
					v, err := r.ReadByte()
					if err != nil {
						return err
					}
					row[x*4+c] = v
					x++
				}
			}
		}
	}
	return nil
}
