// Package dispatch drives one program invocation through the load → resolve
// → invoke → cleanup state machine, with the builtin interpreter as the final
// fallback.
package dispatch

import (
	"io"

	"go.uber.org/zap"

	"github.com/astcrun/astcrun/astc"
	"github.com/astcrun/astcrun/memmod"
	"github.com/astcrun/astcrun/platform"
)

// State of one invocation. Done is the only terminal state; Failed is
// reachable only when the interpreter itself errors.
type State uint8

const (
	StateInit State = iota
	StateModuleLoaded
	StateResolved
	StateFallback
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateModuleLoaded:
		return "module-loaded"
	case StateResolved:
		return "resolved"
	case StateFallback:
		return "fallback"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DefaultEntrySymbols is the documented entry-point priority list: the
// primary execution symbol, its older spelling, then the generic module main
// as last resort.
var DefaultEntrySymbols = []string{"vm_execute_astc", "execute_astc", "native_main"}

// Dispatcher holds everything one invocation needs. It is an explicit
// per-invocation context value, not process state; construct one per run.
type Dispatcher struct {
	Descriptor   platform.Descriptor
	Strategies   []memmod.Strategy
	ModuleDir    string
	ModuleBase   string
	EntrySymbols []string
	// NoFallback surfaces load/resolution failures as reserved exit codes
	// instead of degrading to the builtin interpreter.
	NoFallback bool
	// Out receives program output from the builtin interpreter.
	Out io.Writer

	state State
}

// New returns a dispatcher with the default strategy order (dynlib, then
// mapped) and entry-symbol priority for the given platform.
func New(desc platform.Descriptor, moduleDir, moduleBase string) *Dispatcher {
	return &Dispatcher{
		Descriptor: desc,
		Strategies: []memmod.Strategy{
			memmod.DynlibStrategy{},
			memmod.MappedStrategy{},
		},
		ModuleDir:    moduleDir,
		ModuleBase:   moduleBase,
		EntrySymbols: DefaultEntrySymbols,
	}
}

// Run executes the program at programPath and returns the process exit code.
// A native module's return value is authoritative: nonzero results are passed
// through verbatim and never retried or overridden, because the module may
// already have produced side effects.
func (d *Dispatcher) Run(programPath string, args []string) int {
	log := Logger()
	d.transition(StateInit)

	symbols := d.EntrySymbols
	if len(symbols) == 0 {
		symbols = DefaultEntrySymbols
	}

	if !memmod.InvokeSupported() {
		log.Info("native invocation unavailable in this build; builtin interpreter only")
	}

	var lastErr error
	for _, strategy := range d.Strategies {
		m, err := strategy.Load(d.ModuleDir, d.ModuleBase, d.Descriptor)
		if err != nil {
			lastErr = err
			log.Warn("module load failed, degrading",
				zap.String("strategy", strategy.Name()),
				zap.Error(err))
			continue
		}
		d.transition(StateModuleLoaded)

		code, final, err := d.runModule(m, symbols, programPath, args)
		if final {
			d.transition(StateDone)
			return code
		}
		lastErr = err
	}

	if d.NoFallback {
		d.transition(StateFailed)
		return classifyLoadError(lastErr)
	}

	d.transition(StateFallback)
	err := astc.NewInterpreter(d.Out).Execute(programPath, args)
	if err != nil {
		log.Error("builtin interpreter failed",
			zap.String("program", programPath), zap.Error(err))
		d.transition(StateFailed)
		return classifyInterpError(err)
	}
	d.transition(StateDone)
	return ExitOK
}

// runModule resolves and invokes inside a loaded module. The module is
// unloaded exactly once on every path out of here, including invocation
// failure. final is false only when resolution failed and the caller should
// keep degrading.
func (d *Dispatcher) runModule(m memmod.Module, symbols []string, programPath string, args []string) (code int, final bool, err error) {
	log := Logger()
	defer func() {
		if uerr := m.Unload(); uerr != nil {
			log.Warn("module unload failed", zap.String("module", m.Path()), zap.Error(uerr))
		}
	}()

	entry, matched, err := memmod.Resolve(m, symbols)
	if err != nil {
		log.Warn("entry point resolution failed, degrading",
			zap.String("module", m.Path()),
			zap.Strings("tried", symbols),
			zap.Error(err))
		return 0, false, err
	}
	d.transition(StateResolved)
	log.Debug("entry point resolved",
		zap.String("module", m.Path()),
		zap.String("symbol", matched))

	result, err := m.Invoke(entry, programPath, args)
	if err != nil {
		// The module may have run partially; never fall back past here.
		log.Error("entry point invocation failed",
			zap.String("module", m.Path()),
			zap.String("symbol", matched),
			zap.Error(err))
		return ExitResolutionFailure, true, err
	}
	return int(result), true, nil
}

// LastState reports the most recent state transition, for diagnostics.
func (d *Dispatcher) LastState() State {
	return d.state
}

func (d *Dispatcher) transition(next State) {
	Logger().Debug("dispatcher transition",
		zap.Stringer("from", d.state),
		zap.Stringer("to", next))
	d.state = next
}
