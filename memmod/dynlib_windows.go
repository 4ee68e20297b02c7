//go:build windows

package memmod

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sys/windows"
)

type dynlibModule struct {
	mu     sync.RWMutex
	path   string
	handle windows.Handle
	closed bool
}

func openDynamicLibrary(path string) (Module, error) {
	handle, err := windows.LoadLibraryEx(path, 0, windows.LOAD_WITH_ALTERED_SEARCH_PATH)
	if err != nil {
		return nil, fmt.Errorf("LoadLibraryEx: %w", err)
	}
	return &dynlibModule{path: path, handle: handle}, nil
}

func (m *dynlibModule) Path() string { return m.path }

func (m *dynlibModule) Lookup(name string) (Entry, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Entry{}, errors.New("export name cannot be empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed || m.handle == 0 {
		return Entry{}, ErrModuleClosed
	}

	addr, err := windows.GetProcAddress(m.handle, name)
	if err != nil {
		return Entry{}, fmt.Errorf("GetProcAddress(%s): %w", name, err)
	}
	return Entry{Name: name, Addr: addr}, nil
}

func (m *dynlibModule) Invoke(e Entry, programPath string, args []string) (int32, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return 0, ErrModuleClosed
	}
	return invokeEntry(e.Addr, programPath, args)
}

func (m *dynlibModule) Unload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	if m.handle != 0 {
		err := windows.FreeLibrary(m.handle)
		m.handle = 0
		return err
	}
	return nil
}
