// Package gpu defines the graphics backend boundary of imageload.
//
// The loader core never talks to a graphics API directly; it goes through
// the Device interface. A Device allocates placeholder Texture objects on
// the control thread, creates GPU-resident resources from decoded pixel
// buffers, and initializes sampler state. Drivers register by name:
//
//   - "software": an in-memory device, always available. Used for headless
//     operation and tests.
//   - "wgpu": the Pure Go WebGPU device in gpu/wgpudev, backed by
//     github.com/gogpu/wgpu.
//
// The package also hosts the pixel format policy: the fixed mapping from
// semantic decoded formats to WebGPU texture formats (see PixelFormatFor).
package gpu
