// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package imageload decodes image files into GPU textures at runtime,
// off the host application's main loop.
//
// A Loader owns a dedicated decode worker goroutine. Clients submit a
// filename plus transform parameters and receive a 2D texture or cubemap
// through either a tick-driven callback path or a one-shot blocking call:
//
//	loader, err := imageload.New()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer loader.Close()
//
//	loader.Load(ctx, "hero.png", imageload.TransformParams{ForUI: true},
//		func(res imageload.Result) {
//			if res.Err != nil {
//				log.Println(res.Err)
//				return
//			}
//			use(res.Texture)
//		})
//
//	for running { // host main loop
//		loader.Tick()
//		...
//	}
//
// Supported formats: PNG, JPEG, BMP, TIFF, WebP, and Radiance HDR.
// 16-bit and float images keep their precision on the GPU unless ForUI
// requests 8-bit BGRA normalization.
//
// GPU backends register as drivers (see package gpu). The pure Go WebGPU
// driver is linked in with:
//
//	import _ "github.com/gogpu/imageload/gpu/wgpudev"
//
// Without it, an in-memory software device keeps the pipeline fully
// functional for headless use and tests.
package imageload
