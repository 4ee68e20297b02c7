package memmod

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astcrun/astcrun/platform"
)

var testDesc = platform.Descriptor{OS: "linux", Arch: "x64", Bits: 64, LibExt: "so"}

func TestMappedModulePath(t *testing.T) {
	full := MappedModulePath("bin", "pipeline", testDesc, PathStyleFull)
	assert.Equal(t, filepath.Join("bin", "pipeline_linux_x64_64.native"), full)

	legacy := MappedModulePath("bin", "pipeline", testDesc, PathStyleLegacy)
	assert.Equal(t, filepath.Join("bin", "pipeline_x64_64.native"), legacy)
}

func TestDynlibModulePath(t *testing.T) {
	path := DynlibModulePath("bin", "pipeline", testDesc)
	assert.Equal(t, filepath.Join("bin", "pipeline_linux_x64_64.so"), path)
}

// stubModule resolves only the names it was given and records lookups.
type stubModule struct {
	exports map[string]uintptr
	looked  []string
}

func (s *stubModule) Path() string { return "stub.native" }

func (s *stubModule) Lookup(name string) (Entry, error) {
	s.looked = append(s.looked, name)
	if addr, ok := s.exports[name]; ok {
		return Entry{Name: name, Addr: addr}, nil
	}
	return Entry{}, fmt.Errorf("export %q not found", name)
}

func (s *stubModule) Invoke(Entry, string, []string) (int32, error) { return 0, nil }

func (s *stubModule) Unload() error { return nil }

func TestResolveFirstMatchWins(t *testing.T) {
	m := &stubModule{exports: map[string]uintptr{
		"vm_execute_astc": 0x1000,
		"native_main":     0x2000,
	}}

	entry, matched, err := Resolve(m, []string{"vm_execute_astc", "native_main"})
	require.NoError(t, err)
	assert.Equal(t, "vm_execute_astc", matched)
	assert.Equal(t, uintptr(0x1000), entry.Addr)
	assert.Equal(t, []string{"vm_execute_astc"}, m.looked)
}

func TestResolveFallsThroughInOrder(t *testing.T) {
	m := &stubModule{exports: map[string]uintptr{"execute_astc": 0x40}}

	entry, matched, err := Resolve(m, []string{"vm_execute_astc", "execute_astc", "native_main"})
	require.NoError(t, err)
	assert.Equal(t, "execute_astc", matched)
	assert.Equal(t, uintptr(0x40), entry.Addr)
	assert.Equal(t, []string{"vm_execute_astc", "execute_astc"}, m.looked)
}

func TestResolveFailureListsEveryAttempt(t *testing.T) {
	m := &stubModule{}

	_, _, err := Resolve(m, []string{"a", "b", "c"})
	require.Error(t, err)

	var resErr *ResolutionError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, []string{"a", "b", "c"}, resErr.Attempted)
	assert.Contains(t, resErr.Error(), "a, b, c")
}

func TestResolveEmptyCandidateList(t *testing.T) {
	_, _, err := Resolve(&stubModule{}, nil)
	require.Error(t, err)
}
