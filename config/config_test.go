package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astcrun/astcrun/memmod"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "pipeline", cfg.Module)
	assert.Equal(t, "bin", cfg.ModuleDir)
	assert.Equal(t, []string{"dynlib", "mapped"}, cfg.Strategies)
	assert.Equal(t, string(memmod.PathStyleFull), cfg.PathStyle)
	assert.False(t, cfg.NoFallback)
}

func TestLoadMissingDefaultFileIsFine(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "astcrun.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
module = "vm"
module_dir = "/opt/astc/modules"
strategies = ["mapped"]
entry_symbols = ["run_astc"]
path_style = "legacy"
no_fallback = true
verbose = true
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "vm", cfg.Module)
	assert.Equal(t, "/opt/astc/modules", cfg.ModuleDir)
	assert.Equal(t, []string{"mapped"}, cfg.Strategies)
	assert.Equal(t, []string{"run_astc"}, cfg.EntrySymbols)
	assert.Equal(t, "legacy", cfg.PathStyle)
	assert.True(t, cfg.NoFallback)
	assert.True(t, cfg.Verbose)
}

func TestLoadRejectsUnknownStrategy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "astcrun.toml")
	require.NoError(t, os.WriteFile(path, []byte(`strategies = ["jit"]`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsUnknownPathStyle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "astcrun.toml")
	require.NoError(t, os.WriteFile(path, []byte(`path_style = "fancy"`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestBuildStrategiesPreservesOrder(t *testing.T) {
	cfg := Default()
	cfg.Strategies = []string{"mapped", "dynlib"}
	cfg.PathStyle = "legacy"

	out := cfg.BuildStrategies()
	require.Len(t, out, 2)
	assert.Equal(t, "mapped", out[0].Name())
	assert.Equal(t, "dynlib", out[1].Name())

	mapped, ok := out[0].(memmod.MappedStrategy)
	require.True(t, ok)
	assert.Equal(t, memmod.PathStyleLegacy, mapped.Style)
}
