//go:build windows

package platform

const (
	osName = "windows"
	libExt = "dll"
)
