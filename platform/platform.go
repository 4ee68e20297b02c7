// Package platform derives a canonical descriptor of the running host.
//
// The descriptor is pure compile-time fact: architectures the build does not
// cover fail at compile time (there is no arch_*.go file for them), so there
// is no runtime error path.
package platform

import "fmt"

// Descriptor identifies the host for module path construction.
type Descriptor struct {
	OS     string
	Arch   string
	Bits   int
	LibExt string
}

// Current returns the descriptor for the running process.
func Current() Descriptor {
	return Descriptor{
		OS:     osName,
		Arch:   archName,
		Bits:   archBits,
		LibExt: libExt,
	}
}

// Triple renders the descriptor as "{os}_{arch}_{bits}".
func (d Descriptor) Triple() string {
	return fmt.Sprintf("%s_%s_%d", d.OS, d.Arch, d.Bits)
}

func (d Descriptor) String() string {
	return d.Triple()
}
