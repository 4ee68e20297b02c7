package main

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astcrun/astcrun/astc"
	"github.com/astcrun/astcrun/config"
	"github.com/astcrun/astcrun/natv"
)

func writeProgram(t *testing.T, dir string, code []byte) string {
	t.Helper()
	var buf bytes.Buffer
	buf.Write(astc.Magic[:])
	for _, v := range []uint32{astc.VersionV1, 0, 0, 0} {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, v))
	}
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(len(code))))
	buf.Write(code)

	path := filepath.Join(dir, "program.astc")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestApplyFlagsOverridesConfig(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.Flags().Set("module", "vm"))
	require.NoError(t, cmd.Flags().Set("path-style", "legacy"))
	require.NoError(t, cmd.Flags().Set("strategy", "mapped"))

	cfg := config.Default()
	cfg.ModuleDir = "/opt/astc/modules"
	require.NoError(t, applyFlags(cmd, &cfg))

	assert.Equal(t, "vm", cfg.Module)
	assert.Equal(t, "legacy", cfg.PathStyle)
	assert.Equal(t, []string{"mapped"}, cfg.Strategies)
	// untouched flags leave config-file values alone
	assert.Equal(t, "/opt/astc/modules", cfg.ModuleDir)
	assert.False(t, cfg.NoFallback)
}

func TestApplyFlagsWithoutChangesKeepsConfig(t *testing.T) {
	cmd := newRootCmd()

	cfg := config.Default()
	cfg.Module = "custom"
	require.NoError(t, applyFlags(cmd, &cfg))

	assert.Equal(t, "custom", cfg.Module)
	assert.Equal(t, config.Default().Strategies, cfg.Strategies)
}

func TestRootRunsWithFlagsOverConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "astcrun.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
module = "vm"
module_dir = "`+filepath.ToSlash(filepath.Join(dir, "no-modules"))+`"
strategies = ["dynlib"]
`), 0o644))
	program := writeProgram(t, dir, []byte{astc.OpPrint, astc.OpHalt})

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{
		"--config", cfgPath,
		"--strategy", "mapped",
		"--path-style", "legacy",
		program,
	})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, 0, exitCode)
	assert.Equal(t, 1, strings.Count(out.String(), "Hello World from VM!"))
}

func TestInspectListsExports(t *testing.T) {
	img, err := natv.NewBuilder(natv.ArchX8664).
		SetCode(make([]byte, 32)).
		AddExport("vm_execute_astc", 0, 16).
		AddExport("native_main", 16, 16).
		Build()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "pipeline_linux_x64_64.native")
	require.NoError(t, os.WriteFile(path, img, 0o644))

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"inspect", path})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "vm_execute_astc")
	assert.Contains(t, out.String(), "native_main")
	assert.Contains(t, out.String(), "exports:      2")
}

func TestInspectRejectsInvalidModule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.native")
	require.NoError(t, os.WriteFile(path, []byte("not a module"), 0o644))

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"inspect", path})

	require.Error(t, cmd.Execute())
}
