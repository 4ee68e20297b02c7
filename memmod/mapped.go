package memmod

import (
	"fmt"
	"os"
	"sync"
	"unsafe"

	"go.uber.org/zap"

	"github.com/astcrun/astcrun/natv"
	"github.com/astcrun/astcrun/platform"
)

// MappedStrategy loads a .native file by mapping it into the process and
// validating the NATV container in place.
type MappedStrategy struct {
	// Style selects the file name spelling; zero value means PathStyleFull.
	Style PathStyle
	// SkipInvokeCheck lets a load proceed even when native invocation is
	// unavailable, for inspection tooling that never calls into the module.
	SkipInvokeCheck bool
}

func (MappedStrategy) Name() string { return "mapped" }

// Load maps the module file read/write-private, validates the header and
// export table bounds, then attempts to mark the mapping executable. A failed
// executable marking is logged and tolerated; not every host permits it.
func (s MappedStrategy) Load(dir, base string, desc platform.Descriptor) (Module, error) {
	if !invokeSupported && !s.SkipInvokeCheck {
		return nil, fmt.Errorf("%w: native invocation unavailable", ErrUnsupported)
	}

	path := MappedModulePath(dir, base, desc, s.Style)
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrModuleNotFound, path, err)
	}
	if info.Size() < natv.HeaderSize {
		return nil, fmt.Errorf("%s: %w: %d bytes", path, natv.ErrTruncated, info.Size())
	}

	mapping, release, err := mapModuleFile(path, int(info.Size()))
	if err != nil {
		return nil, fmt.Errorf("map %s: %w", path, err)
	}

	view, err := natv.Parse(mapping)
	if err != nil {
		_ = release()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := view.CheckArch(natv.ArchValue(desc.Arch, desc.Bits)); err != nil {
		_ = release()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	executable := true
	if err := markExecutable(mapping); err != nil {
		// Degraded but usable for inspection and resolution.
		executable = false
		Logger().Warn("cannot mark module mapping executable",
			zap.String("module", path), zap.Error(err))
	}

	Logger().Debug("mapped module loaded",
		zap.String("module", path),
		zap.Uint32("code_size", view.Header.CodeSize),
		zap.Uint32("exports", view.Header.ExportCount),
		zap.Bool("executable", executable))

	return &mappedModule{
		path:       path,
		mapping:    mapping,
		release:    release,
		view:       view,
		executable: executable,
	}, nil
}

type mappedModule struct {
	mu         sync.RWMutex
	path       string
	mapping    []byte
	release    func() error
	view       *natv.Module
	executable bool
	closed     bool
}

func (m *mappedModule) Path() string { return m.path }

// Lookup scans the validated export table. The returned address is
// code-section base plus the entry offset, which Parse and Lookup have both
// bounds checked against the code size.
func (m *mappedModule) Lookup(name string) (Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return Entry{}, ErrModuleClosed
	}
	export, err := m.view.Lookup(name)
	if err != nil {
		return Entry{}, err
	}
	code := m.view.Code()
	addr := uintptr(unsafe.Pointer(&code[0])) + uintptr(export.Offset)
	return Entry{Name: name, Addr: addr}, nil
}

func (m *mappedModule) Invoke(e Entry, programPath string, args []string) (int32, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return 0, ErrModuleClosed
	}
	if !m.executable {
		return 0, fmt.Errorf("%w: mapping is not executable", ErrUnsupported)
	}
	return invokeEntry(e.Addr, programPath, args)
}

// Unload releases the mapping. Safe to call more than once; only the first
// call does work.
func (m *mappedModule) Unload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	m.view = nil
	m.mapping = nil
	if m.release != nil {
		return m.release()
	}
	return nil
}
