// Package memmod loads NATV native modules and resolves their exports.
//
// Two interchangeable strategies exist behind the Strategy interface: a
// mapped-binary strategy that maps a .native file and walks its export table
// directly, and an OS dynamic-library strategy that defers to the host's
// loader and symbol lookup. Which strategies run, and in what order, is
// configuration, not code.
package memmod

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/astcrun/astcrun/platform"
)

var (
	// ErrModuleNotFound reports that the constructed module path does not
	// resolve to a readable file.
	ErrModuleNotFound = errors.New("memmod: module not found")
	// ErrUnsupported reports that a strategy cannot operate on this host
	// (wrong OS, or native invocation is unavailable in this build).
	ErrUnsupported = errors.New("memmod: strategy unsupported on this host")
	// ErrModuleClosed reports use of an already unloaded module.
	ErrModuleClosed = errors.New("memmod: module is unloaded")
)

// Entry is a resolved, callable export address inside a loaded module.
type Entry struct {
	Name string
	Addr uintptr
}

// Module is an opaque handle over a loaded native module. It exclusively owns
// its backing memory or OS handle; Unload releases it and is idempotent.
// Entries become invalid once the module is unloaded.
type Module interface {
	// Path returns the file path the module was loaded from.
	Path() string
	// Lookup resolves a single export name to a callable entry.
	Lookup(name string) (Entry, error)
	// Invoke calls a resolved entry with the fixed v1 convention
	// (program path, argument count, argument vector) and returns the
	// module's own result verbatim.
	Invoke(e Entry, programPath string, args []string) (int32, error)
	// Unload releases the backing mapping or handle exactly once.
	Unload() error
}

// Strategy loads a module for a platform descriptor. Exactly one load attempt
// is made per call; retries are the caller's policy, not the strategy's.
type Strategy interface {
	Name() string
	Load(dir, base string, desc platform.Descriptor) (Module, error)
}

// PathStyle selects which mapped-module file name spelling the locator uses.
type PathStyle string

const (
	// PathStyleFull is "{base}_{os}_{arch}_{bits}.native".
	PathStyleFull PathStyle = "full"
	// PathStyleLegacy is "{base}_{arch}_{bits}.native", the spelling older
	// toolchains emitted.
	PathStyleLegacy PathStyle = "legacy"
)

// MappedModulePath returns the deterministic mapped-strategy path for base
// under dir. The path never substitutes a different module than requested.
func MappedModulePath(dir, base string, desc platform.Descriptor, style PathStyle) string {
	var name string
	if style == PathStyleLegacy {
		name = fmt.Sprintf("%s_%s_%d.native", base, desc.Arch, desc.Bits)
	} else {
		name = fmt.Sprintf("%s_%s.native", base, desc.Triple())
	}
	return filepath.Join(dir, name)
}

// DynlibModulePath returns the deterministic dynamic-library path for base
// under dir, using the host's library extension.
func DynlibModulePath(dir, base string, desc platform.Descriptor) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.%s", base, desc.Triple(), desc.LibExt))
}

// ResolutionError reports that no candidate name matched an export. It keeps
// every attempted name for diagnostics.
type ResolutionError struct {
	ModulePath string
	Attempted  []string
	last       error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("memmod: no entry point in %s, tried [%s]: %v",
		e.ModulePath, strings.Join(e.Attempted, ", "), e.last)
}

func (e *ResolutionError) Unwrap() error { return e.last }

// Resolve tries candidate names strictly in order against a loaded module and
// returns the first match along with the name that matched. It never mutates
// the module.
func Resolve(m Module, names []string) (Entry, string, error) {
	if len(names) == 0 {
		return Entry{}, "", &ResolutionError{ModulePath: m.Path(), last: errors.New("empty candidate list")}
	}
	failure := &ResolutionError{ModulePath: m.Path()}
	for _, name := range names {
		entry, err := m.Lookup(name)
		if err == nil {
			return entry, name, nil
		}
		failure.Attempted = append(failure.Attempted, name)
		failure.last = err
	}
	return Entry{}, "", failure
}

// InvokeSupported reports whether this build can call into native module code.
// Without it, native strategies refuse to load and the caller degrades to the
// builtin interpreter.
func InvokeSupported() bool {
	return invokeSupported
}
