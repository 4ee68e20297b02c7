//go:build darwin

package platform

const (
	osName = "macos"
	libExt = "dylib"
)
