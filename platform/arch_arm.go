//go:build arm

package platform

const (
	archName = "arm"
	archBits = 32
)
