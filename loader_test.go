package imageload

import (
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/imageload/gpu"
)

func newTestLoader(t *testing.T) *Loader {
	t.Helper()
	l, err := New(
		WithDriver(gpu.DriverSoftware),
		WithConstructWaitInterval(10*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(l.Close)
	return l
}

func writeGrayPNG(t *testing.T, width, height int) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, width, height))
	path := filepath.Join(t.TempDir(), "img.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

// tickUntil drives the loader until pred holds or the deadline expires.
func tickUntil(t *testing.T, l *Loader, pred func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !pred() {
		if time.Now().After(deadline) {
			t.Fatal("condition never reached")
		}
		l.Tick()
		time.Sleep(time.Millisecond)
	}
}

func TestLoadAsync(t *testing.T) {
	l := newTestLoader(t)
	path := writeGrayPNG(t, 4, 4)

	var got Result
	done := false
	id, err := l.Load(context.Background(), path, TransformParams{}, func(res Result) {
		got = res
		done = true
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if id == "" {
		t.Error("empty request ID")
	}

	tickUntil(t, l, func() bool { return done })

	if got.Err != nil {
		t.Fatalf("callback error: %v", got.Err)
	}
	if !got.Ok() {
		t.Fatal("result not ok")
	}
	w, h := got.Texture.Size()
	if w != 4 || h != 4 {
		t.Errorf("texture size = %dx%d, want 4x4", w, h)
	}
}

// TestLoadCallbackOrder checks the active-slot invariant from the outside:
// completions are delivered in the order requests were enqueued.
func TestLoadCallbackOrder(t *testing.T) {
	l := newTestLoader(t)

	var order []int
	for i := range 5 {
		i := i
		path := writeGrayPNG(t, i+1, 1)
		if _, err := l.Load(context.Background(), path, TransformParams{}, func(res Result) {
			if res.Err != nil {
				t.Errorf("request %d failed: %v", i, res.Err)
			}
			order = append(order, i)
		}); err != nil {
			t.Fatalf("Load %d failed: %v", i, err)
		}
	}

	tickUntil(t, l, func() bool { return len(order) == 5 })

	for i, v := range order {
		if v != i {
			t.Fatalf("callback order = %v, want FIFO", order)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	l := newTestLoader(t)

	var got Result
	done := false
	_, err := l.Load(context.Background(), filepath.Join(t.TempDir(), "missing.png"),
		TransformParams{}, func(res Result) {
			got = res
			done = true
		})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tickUntil(t, l, func() bool { return done })

	if got.Err == nil {
		t.Fatal("expected error for missing file")
	}
	if got.Texture != nil {
		t.Error("failed load delivered a texture")
	}
	if got.Ok() {
		t.Error("failed result reports ok")
	}
}

func TestLoadForUI(t *testing.T) {
	l := newTestLoader(t)
	path := writeGrayPNG(t, 2, 2)

	var got Result
	done := false
	_, err := l.Load(context.Background(), path, TransformParams{ForUI: true}, func(res Result) {
		got = res
		done = true
	})
	if err != nil {
		t.Fatal(err)
	}
	tickUntil(t, l, func() bool { return done })

	if got.Err != nil {
		t.Fatalf("load failed: %v", got.Err)
	}
	if got.Texture.Format() != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("format = %v, want BGRA8Unorm (not R8Unorm)", got.Texture.Format())
	}
}

func TestCancelAllSuppressesCallbacks(t *testing.T) {
	l := newTestLoader(t)

	fired := 0
	for range 4 {
		path := writeGrayPNG(t, 1, 1)
		if _, err := l.Load(context.Background(), path, TransformParams{}, func(Result) {
			fired++
		}); err != nil {
			t.Fatal(err)
		}
	}

	l.CancelAll()

	// Generous settling time: nothing should ever fire.
	for range 50 {
		l.Tick()
		time.Sleep(time.Millisecond)
	}
	if fired != 0 {
		t.Errorf("%d callbacks fired after CancelAll, want 0", fired)
	}
}

func TestLoadDroppedWhenContextDone(t *testing.T) {
	l := newTestLoader(t)
	path := writeGrayPNG(t, 1, 1)

	ctx, cancel := context.WithCancel(context.Background())
	fired := false
	_, err := l.Load(ctx, path, TransformParams{}, func(Result) { fired = true })
	if err != nil {
		t.Fatal(err)
	}
	cancel()

	for range 50 {
		l.Tick()
		time.Sleep(time.Millisecond)
	}
	if fired {
		t.Error("callback fired although the caller context was done")
	}
}

func TestLoadSync(t *testing.T) {
	l := newTestLoader(t)
	path := writeGrayPNG(t, 6, 3)

	res := l.LoadSync(path, TransformParams{})
	if res.Err != nil {
		t.Fatalf("LoadSync failed: %v", res.Err)
	}
	w, h := res.Texture.Size()
	if w != 6 || h != 3 {
		t.Errorf("texture size = %dx%d, want 6x3", w, h)
	}
}

// TestLoadSyncDuringAsync checks that the blocking path returns its own
// request's result even with async requests queued around it.
func TestLoadSyncDuringAsync(t *testing.T) {
	l := newTestLoader(t)

	asyncDone := false
	if _, err := l.Load(context.Background(), writeGrayPNG(t, 1, 1), TransformParams{},
		func(Result) { asyncDone = true }); err != nil {
		t.Fatal(err)
	}

	syncPath := writeGrayPNG(t, 5, 5)
	res := l.LoadSync(syncPath, TransformParams{})
	if res.Err != nil {
		t.Fatalf("LoadSync failed: %v", res.Err)
	}
	if res.Filename != syncPath {
		t.Errorf("LoadSync returned result for %q", res.Filename)
	}
	w, _ := res.Texture.Size()
	if w != 5 {
		t.Errorf("LoadSync got someone else's texture (width %d)", w)
	}

	tickUntil(t, l, func() bool { return asyncDone })
}

func TestLoadCubemapSync(t *testing.T) {
	l := newTestLoader(t)
	path := writeGrayPNG(t, 2, 12)

	res := l.LoadCubemapSync(path, TransformParams{})
	if res.Err != nil {
		t.Fatalf("LoadCubemapSync failed: %v", res.Err)
	}
	if res.Texture.Kind() != gpu.KindCubemap {
		t.Errorf("kind = %v, want cubemap", res.Texture.Kind())
	}
}

func TestLoadNilCallback(t *testing.T) {
	l := newTestLoader(t)
	if _, err := l.Load(context.Background(), "x.png", TransformParams{}, nil); !errors.Is(err, ErrNilCallback) {
		t.Errorf("err = %v, want ErrNilCallback", err)
	}
}

func TestLoadAfterClose(t *testing.T) {
	l, err := New(WithDriver(gpu.DriverSoftware))
	if err != nil {
		t.Fatal(err)
	}
	l.Close()
	l.Close() // idempotent

	if _, err := l.Load(context.Background(), "x.png", TransformParams{}, func(Result) {}); !errors.Is(err, ErrClosed) {
		t.Errorf("Load: err = %v, want ErrClosed", err)
	}
	if res := l.LoadSync("x.png", TransformParams{}); !errors.Is(res.Err, ErrClosed) {
		t.Errorf("LoadSync: err = %v, want ErrClosed", res.Err)
	}
}

// TestCloseWhileWorkerBlocked verifies teardown stays bounded when a load is
// mid-flight and the construction rendezvous is never serviced again.
func TestCloseWhileWorkerBlocked(t *testing.T) {
	l, err := New(
		WithDriver(gpu.DriverSoftware),
		WithConstructWaitInterval(20*time.Millisecond),
	)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := l.Load(context.Background(), writeGrayPNG(t, 1, 1), TransformParams{},
		func(Result) {}); err != nil {
		t.Fatal(err)
	}
	// One tick hands the request to the worker; no further ticks happen,
	// so the worker parks on the rendezvous.
	l.Tick()
	time.Sleep(40 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		l.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked on a parked worker")
	}
}

// failAllocDevice refuses every texture allocation.
type failAllocDevice struct {
	*gpu.SoftwareDevice
}

func (d *failAllocDevice) AllocateTexture(string, gpu.TextureKind, gputypes.TextureFormat) (*gpu.Texture, error) {
	return nil, errors.New("out of texture memory")
}

// TestLoadAllocFailureDeliversError verifies an async load whose texture
// allocation is refused still delivers an error result and frees the active
// slot for the next request.
func TestLoadAllocFailureDeliversError(t *testing.T) {
	dev := &failAllocDevice{SoftwareDevice: gpu.NewSoftwareDevice()}
	t.Cleanup(dev.Close)
	l, err := New(WithDevice(dev), WithConstructWaitInterval(10*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(l.Close)

	for i := range 2 {
		var got Result
		done := false
		if _, err := l.Load(context.Background(), writeGrayPNG(t, 1, 1), TransformParams{},
			func(res Result) {
				got = res
				done = true
			}); err != nil {
			t.Fatalf("Load %d failed: %v", i, err)
		}

		tickUntil(t, l, func() bool { return done })

		if got.Err == nil {
			t.Fatalf("load %d: allocation failure did not surface as an error", i)
		}
		if got.Texture != nil {
			t.Errorf("load %d: failed result carries a texture", i)
		}
	}
}

func TestWithDeviceNotOwned(t *testing.T) {
	dev := gpu.NewSoftwareDevice()
	l, err := New(WithDevice(dev))
	if err != nil {
		t.Fatal(err)
	}
	l.Close()

	// The loader must not close a caller-owned device.
	if _, err := dev.AllocateTexture("still-open", gpu.KindTexture2D, gputypes.TextureFormatR8Unorm); err != nil {
		t.Errorf("device closed by loader: %v", err)
	}
	dev.Close()
}
