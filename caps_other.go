//go:build !android

package imageload

// cubemapSupported gates the cubemap load paths.
const cubemapSupported = true
