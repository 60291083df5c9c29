package gpu

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/imageload/internal/raw"
)

// TestPixelFormatFor verifies the full mapping table, including the for-UI
// branches that force display-safe BGRA8.
func TestPixelFormatFor(t *testing.T) {
	tests := []struct {
		name  string
		in    raw.Format
		forUI bool
		want  gputypes.TextureFormat
	}{
		{"gray8", raw.FormatGray8, false, gputypes.TextureFormatR8Unorm},
		{"gray8 for UI", raw.FormatGray8, true, gputypes.TextureFormatBGRA8Unorm},
		{"gray16", raw.FormatGray16, false, gputypes.TextureFormatR16Uint},
		{"gray16 for UI", raw.FormatGray16, true, gputypes.TextureFormatR16Uint},
		{"bgra8", raw.FormatBGRA8, false, gputypes.TextureFormatBGRA8Unorm},
		{"bgra8 for UI", raw.FormatBGRA8, true, gputypes.TextureFormatBGRA8Unorm},
		{"bgre8", raw.FormatBGRE8, false, gputypes.TextureFormatBGRA8Unorm},
		{"rgba16", raw.FormatRGBA16, false, gputypes.TextureFormatRGBA16Sint},
		{"rgba16 for UI", raw.FormatRGBA16, true, gputypes.TextureFormatBGRA8Unorm},
		{"rgba16f", raw.FormatRGBA16F, false, gputypes.TextureFormatRGBA16Float},
		{"rgba16f for UI", raw.FormatRGBA16F, true, gputypes.TextureFormatRGBA16Float},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PixelFormatFor(tt.in, tt.forUI)
			if err != nil {
				t.Fatalf("PixelFormatFor(%s, %v) failed: %v", tt.in, tt.forUI, err)
			}
			if got != tt.want {
				t.Errorf("PixelFormatFor(%s, %v) = %v, want %v", tt.in, tt.forUI, got, tt.want)
			}
		})
	}
}

func TestPixelFormatForUnmappable(t *testing.T) {
	got, err := PixelFormatFor(raw.Format(200), false)
	if !errors.Is(err, ErrCorruptImage) {
		t.Fatalf("err = %v, want ErrCorruptImage", err)
	}
	if got != gputypes.TextureFormatUndefined {
		t.Errorf("format = %v, want Undefined", got)
	}
}

func TestTexelSize(t *testing.T) {
	tests := []struct {
		format gputypes.TextureFormat
		want   int
	}{
		{gputypes.TextureFormatR8Unorm, 1},
		{gputypes.TextureFormatR16Uint, 2},
		{gputypes.TextureFormatBGRA8Unorm, 4},
		{gputypes.TextureFormatRGBA16Sint, 8},
		{gputypes.TextureFormatRGBA16Float, 8},
		{gputypes.TextureFormatUndefined, 0},
	}
	for _, tt := range tests {
		if got := TexelSize(tt.format); got != tt.want {
			t.Errorf("TexelSize(%v) = %d, want %d", tt.format, got, tt.want)
		}
	}
}
