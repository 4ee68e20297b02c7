// Package astc parses the ASTC bytecode container and provides the builtin
// interpreter used when no native module is available.
//
// The container layout is version-gated: only magic and version may be read
// before the version is known, because recorded layouts of the fixed fields
// differ between versions.
package astc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Magic tags the first four bytes of every ASTC container.
var Magic = [4]byte{'A', 'S', 'T', 'C'}

// VersionV1 is the only container version the builtin interpreter accepts.
const VersionV1 = 1

var (
	// ErrFormat reports a malformed or unsupported container.
	ErrFormat = errors.New("astc: invalid container format")
	// ErrIO reports a read failure or size mismatch while consuming the container.
	ErrIO = errors.New("astc: container read failed")
)

// HeaderV1 is the version 1 fixed header that follows magic and version.
type HeaderV1 struct {
	Flags      uint32
	Entry      uint32
	SourceSize uint32
}

// Program is a fully read v1 container: the retained source text has been
// skipped and Bytecode holds exactly the declared opcode bytes.
type Program struct {
	Header   HeaderV1
	Bytecode []byte
}

// ReadProgram consumes an ASTC container from r. The magic is validated
// before any later field is read; a mismatch fails without touching the rest
// of the stream.
func ReadProgram(r io.Reader) (*Program, error) {
	var tag [4]byte
	if _, err := io.ReadFull(r, tag[:]); err != nil {
		return nil, fmt.Errorf("%w: reading magic: %v", ErrIO, err)
	}
	if !bytes.Equal(tag[:], Magic[:]) {
		return nil, fmt.Errorf("%w: bad magic % x", ErrFormat, tag[:])
	}

	version, err := readU32(r, "version")
	if err != nil {
		return nil, err
	}
	if version != VersionV1 {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrFormat, version)
	}

	var h HeaderV1
	if h.Flags, err = readU32(r, "flags"); err != nil {
		return nil, err
	}
	if h.Entry, err = readU32(r, "entry"); err != nil {
		return nil, err
	}
	if h.SourceSize, err = readU32(r, "source size"); err != nil {
		return nil, err
	}

	// Retained source text is provenance only, never executed.
	if _, err := io.CopyN(io.Discard, r, int64(h.SourceSize)); err != nil {
		return nil, fmt.Errorf("%w: skipping %d source bytes: %v", ErrIO, h.SourceSize, err)
	}

	size, err := readU32(r, "bytecode size")
	if err != nil {
		return nil, err
	}
	code := make([]byte, size)
	if _, err := io.ReadFull(r, code); err != nil {
		return nil, fmt.Errorf("%w: reading %d bytecode bytes: %v", ErrIO, size, err)
	}

	return &Program{Header: h, Bytecode: code}, nil
}

func readU32(r io.Reader, field string) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, fmt.Errorf("%w: reading %s: %v", ErrIO, field, err)
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}
