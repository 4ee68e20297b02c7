//go:build linux || darwin

package memmod

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// mapModuleFile maps the file at path read/write-private so the header and
// export table can be validated in place before any permission change.
func mapModuleFile(path string, size int) ([]byte, func() error, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("open: %w", err)
	}
	mapping, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE)
	closeErr := unix.Close(fd)
	if err != nil {
		return nil, nil, fmt.Errorf("mmap: %w", err)
	}
	if closeErr != nil {
		_ = unix.Munmap(mapping)
		return nil, nil, fmt.Errorf("close: %w", closeErr)
	}
	release := func() error {
		return unix.Munmap(mapping)
	}
	return mapping, release, nil
}

// markExecutable switches the whole mapping to read+execute.
func markExecutable(mapping []byte) error {
	return unix.Mprotect(mapping, unix.PROT_READ|unix.PROT_EXEC)
}
