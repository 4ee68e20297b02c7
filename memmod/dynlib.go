package memmod

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/astcrun/astcrun/platform"
)

// DynlibStrategy loads a module through the host OS loader. The handle is
// opaque: exports are found with the host's symbol lookup, never by
// inspecting the file format directly.
type DynlibStrategy struct{}

func (DynlibStrategy) Name() string { return "dynlib" }

// Load resolves the dynamic-library path for base and asks the OS to load it.
// One attempt, no retries.
func (s DynlibStrategy) Load(dir, base string, desc platform.Descriptor) (Module, error) {
	if !invokeSupported {
		return nil, fmt.Errorf("%w: native invocation unavailable", ErrUnsupported)
	}

	path := DynlibModulePath(dir, base, desc)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrModuleNotFound, path, err)
	}

	m, err := openDynamicLibrary(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	Logger().Debug("dynamic library loaded", zap.String("module", path))
	return m, nil
}
