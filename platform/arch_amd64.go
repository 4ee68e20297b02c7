//go:build amd64

package platform

const (
	archName = "x64"
	archBits = 64
)
