package gpu

import (
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
)

// Texture is the client-visible texture object.
//
// A Texture is allocated unpopulated by a Device on the control thread and
// later receives its GPU resource from the decode worker via BindResource.
// The resource reference is swapped atomically, so a renderer may sample the
// texture on one thread while the loader binds the freshly uploaded resource
// on another.
//
// Thread safety: all methods are safe for concurrent use.
type Texture struct {
	label  string
	kind   TextureKind
	format gputypes.TextureFormat

	mu     sync.RWMutex
	width  int
	height int

	resource atomic.Pointer[resourceRef]
}

// resourceRef boxes a Resource so it can live in an atomic.Pointer.
type resourceRef struct {
	res Resource
}

// NewTexture creates an unpopulated texture object. Drivers call this from
// their AllocateTexture implementations.
func NewTexture(label string, kind TextureKind, format gputypes.TextureFormat) *Texture {
	return &Texture{
		label:  label,
		kind:   kind,
		format: format,
	}
}

// Label returns the texture's debug label (normally the source filename).
func (t *Texture) Label() string { return t.label }

// Kind returns the texture kind.
func (t *Texture) Kind() TextureKind { return t.kind }

// Format returns the GPU pixel format chosen by the format policy.
func (t *Texture) Format() gputypes.TextureFormat { return t.format }

// Size returns the texture dimensions in pixels. Zero until the loader has
// populated the texture.
func (t *Texture) Size() (width, height int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.width, t.height
}

// SetSize records the texture dimensions. Called by the loader once the
// source image has been decoded.
func (t *Texture) SetSize(width, height int) {
	t.mu.Lock()
	t.width = width
	t.height = height
	t.mu.Unlock()
}

// BindResource atomically swaps the texture's GPU resource reference and
// returns the previous resource, if any. The caller owns releasing the
// returned resource.
func (t *Texture) BindResource(res Resource) Resource {
	old := t.resource.Swap(&resourceRef{res: res})
	if old == nil {
		return nil
	}
	return old.res
}

// Resource returns the currently bound GPU resource, or nil if the texture
// has not been populated yet.
func (t *Texture) Resource() Resource {
	ref := t.resource.Load()
	if ref == nil {
		return nil
	}
	return ref.res
}
