package dispatch

import (
	"errors"

	"github.com/astcrun/astcrun/astc"
	"github.com/astcrun/astcrun/memmod"
	"github.com/astcrun/astcrun/natv"
)

// Stable process exit codes. 0 and anything a native module returns are
// passed through verbatim; the codes below are reserved for loader and
// interpreter failures. With fallback enabled (the default) only the
// interpreter codes can actually surface, because every earlier failure
// degrades down the fallback chain.
const (
	ExitOK = 0
	// ExitUsage mirrors the conventional shell usage-error status.
	ExitUsage = 2

	ExitModuleNotFound      = 120
	ExitModuleFormatInvalid = 121
	ExitResolutionFailure   = 122
	ExitInterpreterIO       = 123
	ExitInterpreterFormat   = 124
)

// classifyLoadError maps a load or resolution failure to its reserved code.
func classifyLoadError(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, memmod.ErrModuleNotFound), errors.Is(err, memmod.ErrUnsupported):
		return ExitModuleNotFound
	case errors.Is(err, natv.ErrBadMagic),
		errors.Is(err, natv.ErrUnsupportedVersion),
		errors.Is(err, natv.ErrTruncated),
		errors.Is(err, natv.ErrBounds),
		errors.Is(err, natv.ErrArchMismatch):
		return ExitModuleFormatInvalid
	default:
		return ExitResolutionFailure
	}
}

// classifyInterpError maps a builtin interpreter failure to its exit code.
func classifyInterpError(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, astc.ErrFormat):
		return ExitInterpreterFormat
	default:
		return ExitInterpreterIO
	}
}
