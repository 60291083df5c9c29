package gpu

import (
	"errors"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/imageload/internal/raw"
)

// ErrCorruptImage is returned when a decoded image carries a semantic format
// that has no GPU mapping. The message is surfaced verbatim to clients.
var ErrCorruptImage = errors.New("gpu: image data is corrupted")

// PixelFormatFor maps a semantic decoded format to the GPU texture format
// used for upload.
//
// forUI selects display-safe formats: grayscale and 16-bit integer images
// are forced to BGRA8 so that UI compositors can sample them directly (the
// pixel data itself is normalized separately by the decode worker).
//
// The mapping is fixed:
//
//	Gray8          -> R8Unorm     (BGRA8Unorm when forUI)
//	Gray16         -> R16Uint
//	BGRA8, BGRE8   -> BGRA8Unorm
//	RGBA16         -> RGBA16Sint  (BGRA8Unorm when forUI)
//	RGBA16F        -> RGBA16Float
func PixelFormatFor(f raw.Format, forUI bool) (gputypes.TextureFormat, error) {
	switch f {
	case raw.FormatGray8:
		if forUI {
			return gputypes.TextureFormatBGRA8Unorm, nil
		}
		return gputypes.TextureFormatR8Unorm, nil

	case raw.FormatGray16:
		return gputypes.TextureFormatR16Uint, nil

	case raw.FormatBGRA8, raw.FormatBGRE8:
		return gputypes.TextureFormatBGRA8Unorm, nil

	case raw.FormatRGBA16:
		if forUI {
			return gputypes.TextureFormatBGRA8Unorm, nil
		}
		return gputypes.TextureFormatRGBA16Sint, nil

	case raw.FormatRGBA16F:
		return gputypes.TextureFormatRGBA16Float, nil

	default:
		return gputypes.TextureFormatUndefined, ErrCorruptImage
	}
}
