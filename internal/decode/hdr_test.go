package decode

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/imageload/internal/raw"
)

const hdrHeader = "#?RADIANCE\nFORMAT=32-bit_rle_rgbe\n\n"

func TestIsRadiance(t *testing.T) {
	br := bufio.NewReader(strings.NewReader(hdrHeader))
	if !isRadiance(br) {
		t.Error("radiance stream not recognized")
	}
	// Peek must not consume the magic.
	if line, _ := br.ReadString('\n'); line != "#?RADIANCE\n" {
		t.Errorf("stream advanced by isRadiance: %q", line)
	}

	if isRadiance(bufio.NewReader(strings.NewReader("\x89PNG..."))) {
		t.Error("png stream recognized as radiance")
	}
}

func TestDecodeHDRFlat(t *testing.T) {
	// 2x2 flat scanlines, one RGBE pixel each: red, green, blue, gray.
	var buf bytes.Buffer
	buf.WriteString(hdrHeader)
	buf.WriteString("-Y 2 +X 2\n")
	buf.Write([]byte{
		255, 0, 0, 128, 0, 255, 0, 128, // row 0: red, green
		0, 0, 255, 128, 128, 128, 128, 128, // row 1: blue, gray
	})

	img, err := DecodeHDR(bufio.NewReader(&buf))
	if err != nil {
		t.Fatalf("DecodeHDR failed: %v", err)
	}
	if img.Format() != raw.FormatBGRE8 {
		t.Fatalf("format = %s, want %s", img.Format(), raw.FormatBGRE8)
	}
	if img.Width() != 2 || img.Height() != 2 {
		t.Fatalf("size = %dx%d, want 2x2", img.Width(), img.Height())
	}

	// Pixels are stored B, G, R, E.
	d := img.Data()
	if d[0] != 0 || d[1] != 0 || d[2] != 255 || d[3] != 128 {
		t.Errorf("pixel 0 BGRE = %v, want [0 0 255 128]", d[:4])
	}
	if d[13] != 128 || d[14] != 128 || d[15] != 128 {
		t.Errorf("pixel 3 BGRE = %v, want gray", d[12:16])
	}
}

func TestDecodeHDRFlatRunMarker(t *testing.T) {
	// 4x1: first pixel, then an old-style (1,1,1,count) marker repeating it
	// three times.
	var buf bytes.Buffer
	buf.WriteString(hdrHeader)
	buf.WriteString("-Y 1 +X 4\n")
	buf.Write([]byte{
		10, 20, 30, 128,
		1, 1, 1, 3,
	})

	img, err := DecodeHDR(bufio.NewReader(&buf))
	if err != nil {
		t.Fatalf("DecodeHDR failed: %v", err)
	}
	d := img.Data()
	for x := range 4 {
		if d[x*4+2] != 10 || d[x*4+1] != 20 || d[x*4+0] != 30 || d[x*4+3] != 128 {
			t.Fatalf("pixel %d BGRE = %v, want [30 20 10 128]", x, d[x*4:x*4+4])
		}
	}
}

func TestDecodeHDRRLE(t *testing.T) {
	// 8x1 new-style scanline: header (2, 2, 0, 8), then four component
	// streams, each a single run of 8 identical bytes.
	var buf bytes.Buffer
	buf.WriteString(hdrHeader)
	buf.WriteString("-Y 1 +X 8\n")
	buf.Write([]byte{2, 2, 0, 8})
	for _, v := range []byte{100, 150, 200, 129} { // R, G, B, E streams
		buf.Write([]byte{128 + 8, v})
	}

	img, err := DecodeHDR(bufio.NewReader(&buf))
	if err != nil {
		t.Fatalf("DecodeHDR failed: %v", err)
	}
	if img.Width() != 8 || img.Height() != 1 {
		t.Fatalf("size = %dx%d, want 8x1", img.Width(), img.Height())
	}
	d := img.Data()
	for x := range 8 {
		b, g, r, e := d[x*4], d[x*4+1], d[x*4+2], d[x*4+3]
		if r != 100 || g != 150 || b != 200 || e != 129 {
			t.Fatalf("pixel %d BGRE = %v, want [200 150 100 129]", x, d[x*4:x*4+4])
		}
	}
}

func TestDecodeHDRRLELiterals(t *testing.T) {
	// 8x1 scanline mixing a literal block and a run per component.
	var buf bytes.Buffer
	buf.WriteString(hdrHeader)
	buf.WriteString("-Y 1 +X 8\n")
	buf.Write([]byte{2, 2, 0, 8})
	for c := range 4 {
		base := byte(c * 10)
		// 4 literal bytes, then a run of 4.
		buf.Write([]byte{4, base, base + 1, base + 2, base + 3})
		buf.Write([]byte{128 + 4, base + 9})
	}

	img, err := DecodeHDR(bufio.NewReader(&buf))
	if err != nil {
		t.Fatalf("DecodeHDR failed: %v", err)
	}
	d := img.Data()
	// Component 0 is R, stored at offset 2 in BGRE.
	if d[0*4+2] != 0 || d[3*4+2] != 3 || d[7*4+2] != 9 {
		t.Errorf("red stream mismatch: %v %v %v", d[0*4+2], d[3*4+2], d[7*4+2])
	}
	// Component 3 is E, stored at offset 3.
	if d[0*4+3] != 30 || d[7*4+3] != 39 {
		t.Errorf("exponent stream mismatch: %v %v", d[0*4+3], d[7*4+3])
	}
}

func TestDecodeHDRBadHeader(t *testing.T) {
	tests := []string{
		"not radiance\n\n-Y 1 +X 1\n",
		"#?RADIANCE\nFORMAT=32-bit_rle_xyze\n\n-Y 1 +X 1\n",
		"#?RADIANCE\n\n+Y 1 +X 1\n",
		"#?RADIANCE\n\n-Y 0 +X 4\n",
	}
	for _, in := range tests {
		if _, err := DecodeHDR(bufio.NewReader(strings.NewReader(in))); !errors.Is(err, ErrBadHDRHeader) {
			t.Errorf("input %q: err = %v, want ErrBadHDRHeader", in, err)
		}
	}
}

func TestDecodeHDRTruncated(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(hdrHeader)
	buf.WriteString("-Y 2 +X 2\n")
	buf.Write([]byte{255, 0, 0, 128}) // only one of four pixels

	if _, err := DecodeHDR(bufio.NewReader(&buf)); !errors.Is(err, ErrBadHDRScanline) {
		t.Errorf("err = %v, want ErrBadHDRScanline", err)
	}
}
