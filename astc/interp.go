package astc

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
)

// Opcodes understood by the builtin interpreter. Every other byte value is a
// no-op so that containers produced for richer VMs still run to completion.
const (
	OpPrint byte = 0x61
	OpHalt  byte = 0xFF
)

// printLine is the fixed diagnostic emitted by OpPrint.
const printLine = "Hello World from VM!"

// Interpreter executes the minimal opcode subset directly from a container,
// with no native module involved. It owns its own buffers and never consults
// the module search path.
type Interpreter struct {
	Out io.Writer
}

// NewInterpreter returns an interpreter writing program output to out.
// A nil out defaults to stdout.
func NewInterpreter(out io.Writer) *Interpreter {
	if out == nil {
		out = os.Stdout
	}
	return &Interpreter{Out: out}
}

// Execute opens and runs the container at path. The argument vector is
// accepted for contract parity with native modules; the minimal opcode set
// has no instruction that observes it.
func (in *Interpreter) Execute(path string, args []string) error {
	log := Logger()
	log.Debug("builtin interpreter start",
		zap.String("program", path),
		zap.Int("args", len(args)))

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrIO, path, err)
	}
	defer f.Close()

	prog, err := ReadProgram(f)
	if err != nil {
		return err
	}
	log.Debug("container loaded",
		zap.Uint32("source_size", prog.Header.SourceSize),
		zap.Int("bytecode", len(prog.Bytecode)))

	in.run(prog.Bytecode)
	return nil
}

// run walks the bytecode one byte at a time. OpHalt stops immediately and
// any trailing bytes are never inspected; exhausting the stream without a
// halt is also a normal completion.
func (in *Interpreter) run(code []byte) {
	for _, op := range code {
		switch op {
		case OpPrint:
			fmt.Fprintln(in.Out, printLine)
		case OpHalt:
			return
		}
	}
}
