//go:build linux && (386 || amd64 || arm64)

package memmod

import (
	"debug/elf"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
)

const (
	rtldNow   = 2
	rtldLocal = 0
)

// linuxDynAPI holds the runtime addresses of the libc dynamic-loader entry
// points, resolved once per process by walking /proc/self/maps and the
// mapped libc's symbol tables.
type linuxDynAPI struct {
	dlopen  uintptr
	dlsym   uintptr
	dlclose uintptr
	dlerror uintptr
}

var (
	linuxAPIOnce sync.Once
	linuxAPI     linuxDynAPI
	linuxAPIErr  error
)

type dynlibModule struct {
	mu     sync.RWMutex
	path   string
	handle uintptr
	closed bool
}

func openDynamicLibrary(path string) (Module, error) {
	api, err := getLinuxDynAPI()
	if err != nil {
		return nil, err
	}

	cPath, err := cStringBytes(path)
	if err != nil {
		return nil, err
	}

	// clear stale dlerror
	_ = cCall0(api.dlerror)
	handle := cCall2(api.dlopen, cStringPtr(cPath), uintptr(rtldNow|rtldLocal))
	runtime.KeepAlive(cPath)
	if handle == 0 {
		return nil, fmt.Errorf("dlopen(%s): %w", path, lastDLErrorWithFallback(api, "unknown dlopen error"))
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

	api, err := getLinuxDynAPI()
	if err != nil {
		return Entry{}, err
	}

	cName, err := cStringBytes(name)
	if err != nil {
		return Entry{}, err
	}

	// clear stale dlerror
	_ = cCall0(api.dlerror)
	sym := cCall2(api.dlsym, m.handle, cStringPtr(cName))
	runtime.KeepAlive(cName)
	if err := lastDLError(api); err != nil {
		return Entry{}, fmt.Errorf("dlsym(%s): %w", name, err)
	}
	if sym == 0 {
		return Entry{}, fmt.Errorf("dlsym(%s): symbol address is nil", name)
	}
	return Entry{Name: name, Addr: sym}, nil
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
		if api, err := getLinuxDynAPI(); err == nil {
			_ = cCall1(api.dlclose, m.handle)
		}
		m.handle = 0
	}
	return nil
}

func lastDLError(api *linuxDynAPI) error {
	msg := cStringFromPtr(cCall0(api.dlerror))
	if msg == "" {
		return nil
	}
	return errors.New(msg)
}

func lastDLErrorWithFallback(api *linuxDynAPI, fallback string) error {
	if err := lastDLError(api); err != nil {
		return err
	}
	return errors.New(fallback)
}

func getLinuxDynAPI() (*linuxDynAPI, error) {
	linuxAPIOnce.Do(func() {
		linuxAPIErr = initLinuxDynAPI()
	})
	if linuxAPIErr != nil {
		return nil, linuxAPIErr
	}
	return &linuxAPI, nil
}

func initLinuxDynAPI() error {
	libcPath, baseAddr, err := findRuntimeLibc()
	if err != nil {
		return err
	}

	offsets := make(map[string]uintptr, 4)
	for _, symbol := range []string{"dlopen", "dlsym", "dlclose", "dlerror"} {
		off, err := findELFSymbolOffset(libcPath, symbol)
		if err != nil {
			return fmt.Errorf("resolve libc symbol %s: %w", symbol, err)
		}
		offsets[symbol] = off
	}

	linuxAPI = linuxDynAPI{
		dlopen:  baseAddr + offsets["dlopen"],
		dlsym:   baseAddr + offsets["dlsym"],
		dlclose: baseAddr + offsets["dlclose"],
		dlerror: baseAddr + offsets["dlerror"],
	}
	return nil
}

type procMapEntry struct {
	start  uintptr
	offset uintptr
	path   string
}

func findRuntimeLibc() (string, uintptr, error) {
	entries, err := readProcMaps()
	if err != nil {
		return "", 0, err
	}

	bestScore := -1
	var best procMapEntry
	for _, entry := range entries {
		score := libcPathScore(entry.path)
		if score > bestScore {
			bestScore = score
			best = entry
		}
	}
	if bestScore < 0 || best.path == "" {
		return "", 0, errors.New("failed to locate runtime libc mapping")
	}
	if best.start < best.offset {
		return "", 0, fmt.Errorf("invalid libc mapping base for %s", best.path)
	}
	return best.path, best.start - best.offset, nil
}

func libcPathScore(path string) int {
	p := strings.ToLower(path)
	switch {
	case strings.Contains(p, "libc.so"):
		return 100
	case strings.Contains(p, "libc-"):
		return 95
	case strings.Contains(p, "ld-musl"):
		return 90
	case strings.Contains(p, "musl"):
		return 85
	case strings.Contains(p, "ld-linux"):
		return 80
	default:
		return -1
	}
}

func readProcMaps() ([]procMapEntry, error) {
	raw, err := os.ReadFile("/proc/self/maps")
	if err != nil {
		return nil, fmt.Errorf("read /proc/self/maps: %w", err)
	}

	lines := strings.Split(string(raw), "\n")
	entries := make([]procMapEntry, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 5 {
			continue
		}
		if !strings.Contains(fields[1], "x") {
			continue
		}

		rangeParts := strings.SplitN(fields[0], "-", 2)
		if len(rangeParts) != 2 {
			continue
		}
		start, startErr := parseHexUintptr(rangeParts[0])
		offset, offsetErr := parseHexUintptr(fields[2])
		if startErr != nil || offsetErr != nil {
			continue
		}

		path := ""
		if len(fields) >= 6 {
			path = strings.Join(fields[5:], " ")
			path = strings.TrimSuffix(path, " (deleted)")
		}
		if path == "" || !strings.HasPrefix(path, "/") {
			continue
		}

		entries = append(entries, procMapEntry{
			start:  start,
			offset: offset,
			path:   path,
		})
	}
	return entries, nil
}

func parseHexUintptr(s string) (uintptr, error) {
	var out uintptr
	for _, r := range s {
		out <<= 4
		switch {
		case r >= '0' && r <= '9':
			out += uintptr(r - '0')
		case r >= 'a' && r <= 'f':
			out += uintptr(r-'a') + 10
		case r >= 'A' && r <= 'F':
			out += uintptr(r-'A') + 10
		default:
			return 0, fmt.Errorf("invalid hex string %q", s)
		}
	}
	return out, nil
}

func findELFSymbolOffset(path string, symbol string) (uintptr, error) {
	f, err := elf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open elf %s: %w", path, err)
	}
	defer f.Close()

	if syms, err := f.DynamicSymbols(); err == nil {
		if off, ok := matchSymbolOffset(syms, symbol); ok {
			return off, nil
		}
	}
	if syms, err := f.Symbols(); err == nil {
		if off, ok := matchSymbolOffset(syms, symbol); ok {
			return off, nil
		}
	}
	return 0, fmt.Errorf("symbol %s not found in %s", symbol, path)
}

func matchSymbolOffset(symbols []elf.Symbol, want string) (uintptr, bool) {
	for _, s := range symbols {
		if s.Value == 0 {
			continue
		}
		if s.Name == want || strings.HasPrefix(s.Name, want+"@") {
			return uintptr(s.Value), true
		}
	}
	return 0, false
}
