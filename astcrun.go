// Package astcrun executes ASTC bytecode programs: it locates a native
// execution module for the running platform, resolves its entry point, and
// invokes it, degrading to a builtin interpreter when no module is usable.
package astcrun

import (
	"io"

	"go.uber.org/zap"

	"github.com/astcrun/astcrun/astc"
	"github.com/astcrun/astcrun/config"
	"github.com/astcrun/astcrun/dispatch"
	"github.com/astcrun/astcrun/memmod"
	"github.com/astcrun/astcrun/platform"
)

// Options configures one invocation.
type Options struct {
	// Config supplies module name, search dir, strategy order and entry
	// symbols. The zero value is replaced by config.Default().
	Config config.Config
	// Logger, when set, receives loader and interpreter diagnostics.
	Logger *zap.Logger
	// Out receives program output from the builtin interpreter; nil means
	// stdout.
	Out io.Writer
}

// Run executes the program at programPath with the forwarded arguments and
// returns the process exit code. A successfully invoked native module's
// return value is final, zero or not; reserved loader and interpreter codes
// are documented in package dispatch.
func Run(programPath string, args []string, opts Options) int {
	cfg := opts.Config
	if cfg.Module == "" {
		cfg = config.Default()
	}
	if opts.Logger != nil {
		SetLogger(opts.Logger)
	}

	d := dispatch.New(platform.Current(), cfg.ModuleDir, cfg.Module)
	d.Strategies = cfg.BuildStrategies()
	if len(cfg.EntrySymbols) > 0 {
		d.EntrySymbols = cfg.EntrySymbols
	}
	d.NoFallback = cfg.NoFallback
	d.Out = opts.Out
	return d.Run(programPath, args)
}

// SetLogger installs one logger across every package of the loader.
func SetLogger(l *zap.Logger) {
	memmod.SetLogger(l)
	dispatch.SetLogger(l)
	astc.SetLogger(l)
}
