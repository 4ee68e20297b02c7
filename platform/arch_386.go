//go:build 386

package platform

const (
	archName = "x86"
	archBits = 32
)
