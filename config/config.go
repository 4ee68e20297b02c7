// Package config reads the optional loader configuration file. Everything it
// holds has a working default; a missing file is not an error.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/astcrun/astcrun/memmod"
)

// DefaultFileName is looked up in the working directory when no --config
// flag is given.
const DefaultFileName = "astcrun.toml"

// Config is the loader configuration. Strategy order and entry-symbol
// priority are configuration, never code.
type Config struct {
	// Module is the native module base name, e.g. "pipeline".
	Module string `toml:"module"`
	// ModuleDir is where module files are searched.
	ModuleDir string `toml:"module_dir"`
	// Strategies is the ordered load-strategy chain; the builtin
	// interpreter always terminates it implicitly.
	Strategies []string `toml:"strategies"`
	// EntrySymbols overrides the entry-point priority list.
	EntrySymbols []string `toml:"entry_symbols"`
	// PathStyle is "full" or "legacy" (older toolchains wrote
	// {module}_{arch}_{bits}.native without the OS).
	PathStyle string `toml:"path_style"`
	// NoFallback disables the builtin interpreter, surfacing loader
	// failures as reserved exit codes.
	NoFallback bool `toml:"no_fallback"`
	Verbose    bool `toml:"verbose"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Module:     "pipeline",
		ModuleDir:  "bin",
		Strategies: []string{"dynlib", "mapped"},
		PathStyle:  string(memmod.PathStyleFull),
	}
}

// Load merges the TOML file at path over the defaults. An empty path tries
// DefaultFileName; if that does not exist, the defaults are returned as-is.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFileName
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse error in %s: %w", path, err)
	}
	return cfg, cfg.validate(path)
}

func (c Config) validate(path string) error {
	switch memmod.PathStyle(c.PathStyle) {
	case memmod.PathStyleFull, memmod.PathStyleLegacy:
	default:
		return fmt.Errorf("config: %s: unknown path_style %q", path, c.PathStyle)
	}
	for _, name := range c.Strategies {
		if name != "dynlib" && name != "mapped" {
			return fmt.Errorf("config: %s: unknown strategy %q", path, name)
		}
	}
	return nil
}

// BuildStrategies turns the configured strategy names into concrete
// strategies, preserving order.
func (c Config) BuildStrategies() []memmod.Strategy {
	out := make([]memmod.Strategy, 0, len(c.Strategies))
	for _, name := range c.Strategies {
		switch name {
		case "dynlib":
			out = append(out, memmod.DynlibStrategy{})
		case "mapped":
			out = append(out, memmod.MappedStrategy{Style: memmod.PathStyle(c.PathStyle)})
		}
	}
	return out
}
