//go:build windows

package memmod

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

// mapModuleFile copies the file into a VirtualAlloc'd read/write region. The
// region plays the role of the unix private mapping: validated first, then
// marked executable.
func mapModuleFile(path string, size int) ([]byte, func() error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read: %w", err)
	}
	if len(data) != size {
		return nil, nil, fmt.Errorf("read: short image (%d/%d bytes)", len(data), size)
	}

	addr, err := windows.VirtualAlloc(0, uintptr(size),
		windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return nil, nil, fmt.Errorf("VirtualAlloc: %w", err)
	}
	mapping := unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
	copy(mapping, data)

	release := func() error {
		return windows.VirtualFree(addr, 0, windows.MEM_RELEASE)
	}
	return mapping, release, nil
}

// markExecutable switches the region to read+execute.
func markExecutable(mapping []byte) error {
	var old uint32
	return windows.VirtualProtect(
		uintptr(unsafe.Pointer(&mapping[0])),
		uintptr(len(mapping)),
		windows.PAGE_EXECUTE_READ,
		&old,
	)
}
