//go:build !windows && !(linux && (386 || amd64 || arm64))

package memmod

import "errors"

func openDynamicLibrary(path string) (Module, error) {
	_ = path
	return nil, errors.New("OS dynamic-library loading is only supported on linux and windows")
}
