//go:build !linux && !darwin && !windows

package memmod

import "errors"

func mapModuleFile(path string, size int) ([]byte, func() error, error) {
	_ = path
	_ = size
	return nil, nil, errors.New("module mapping is only supported on linux, darwin, and windows")
}

func markExecutable(mapping []byte) error {
	_ = mapping
	return errors.New("module mapping is only supported on linux, darwin, and windows")
}
