//go:build arm64

package platform

const (
	archName = "arm64"
	archBits = 64
)
