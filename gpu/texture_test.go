package gpu

import (
	"testing"

	"github.com/gogpu/gputypes"
)

func TestTextureKind(t *testing.T) {
	if KindTexture2D.Layers() != 1 || KindCubemap.Layers() != 6 {
		t.Error("unexpected layer counts")
	}
	if KindCubemap.String() != "Cubemap" {
		t.Errorf("String() = %q", KindCubemap.String())
	}
}

func TestTextureSetSize(t *testing.T) {
	tex := NewTexture("a.png", KindTexture2D, gputypes.TextureFormatR8Unorm)
	tex.SetSize(640, 480)
	w, h := tex.Size()
	if w != 640 || h != 480 {
		t.Errorf("size = %dx%d, want 640x480", w, h)
	}
	if tex.Format() != gputypes.TextureFormatR8Unorm {
		t.Errorf("format = %v", tex.Format())
	}
}

// TestTextureBindResource checks the atomic swap semantics: binding returns
// the previous resource so the caller can release it.
func TestTextureBindResource(t *testing.T) {
	dev := NewSoftwareDevice()
	defer dev.Close()

	tex := NewTexture("a.png", KindTexture2D, gputypes.TextureFormatBGRA8Unorm)

	first, err := dev.CreateResource(make([]byte, 4), 1, 1, 1, gputypes.TextureFormatBGRA8Unorm, true)
	if err != nil {
		t.Fatal(err)
	}
	if old := tex.BindResource(first); old != nil {
		t.Error("first bind returned a previous resource")
	}
	if tex.Resource() != first {
		t.Error("Resource() does not return the bound resource")
	}

	second, err := dev.CreateResource(make([]byte, 4), 1, 1, 1, gputypes.TextureFormatBGRA8Unorm, true)
	if err != nil {
		t.Fatal(err)
	}
	if old := tex.BindResource(second); old != first {
		t.Error("rebind did not return the displaced resource")
	}
	if tex.Resource() != second {
		t.Error("rebind did not install the new resource")
	}
}
