//go:build android

package imageload

// cubemapSupported gates the cubemap load paths. Cubemap creation from a
// runtime pixel upload is not available on Android, so the cubemap API
// fails fast without touching the pipeline.
const cubemapSupported = false
