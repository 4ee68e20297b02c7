// Package natv reads and validates the NATV native module container:
// a fixed header, a code section, and a table of named exports.
package natv

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Magic tags the first four bytes of every NATV module.
var Magic = [4]byte{'N', 'A', 'T', 'V'}

// VersionV1 is the only container version this loader accepts.
const VersionV1 = 1

// Architecture values recorded in the header.
const (
	ArchX8664 uint32 = 1
	ArchARM64 uint32 = 2
	ArchX8632 uint32 = 3
)

// Module type values recorded in the header.
const (
	TypeVM   uint32 = 1
	TypeLibc uint32 = 2
	TypeUser uint32 = 3
)

const (
	// HeaderSize is the fixed on-disk header length, reserved words included.
	HeaderSize = 64
	// ExportEntrySize is the fixed on-disk export record length.
	ExportEntrySize = 80
	// exportNameLen is the NUL-padded name field width inside an export record.
	exportNameLen = 64
)

var (
	ErrBadMagic           = errors.New("natv: bad magic")
	ErrUnsupportedVersion = errors.New("natv: unsupported container version")
	ErrTruncated          = errors.New("natv: truncated container")
	ErrBounds             = errors.New("natv: section exceeds container size")
	ErrArchMismatch       = errors.New("natv: module built for a different architecture")
)

// Header is the fixed NATV header. Fields are little-endian on disk.
type Header struct {
	Version      uint32
	Arch         uint32
	ModuleType   uint32
	Flags        uint32
	HeaderSize   uint32
	CodeSize     uint32
	DataSize     uint32
	ExportCount  uint32
	ExportOffset uint32
}

// ExportEntry is one record of the export table. Offset is relative to the
// start of the code section.
type ExportEntry struct {
	Name   string
	Offset uint32
	Size   uint32
	Flags  uint32
}

// Module is a validated view over a raw NATV image. The underlying bytes are
// not copied; the view is invalid once the backing memory is released.
type Module struct {
	Header  Header
	Exports []ExportEntry
	raw     []byte
}

// Parse validates data as a NATV container. The magic is checked before any
// other field is trusted, and the export table and code section are bounds
// checked against the full image length before either is touched.
func Parse(data []byte) (*Module, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncated, len(data))
	}
	if !bytes.Equal(data[:4], Magic[:]) {
		return nil, fmt.Errorf("%w: % x", ErrBadMagic, data[:4])
	}
	version := binary.LittleEndian.Uint32(data[4:8])
	if version != VersionV1 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes, header needs %d", ErrTruncated, len(data), HeaderSize)
	}

	h := Header{
		Version:      version,
		Arch:         binary.LittleEndian.Uint32(data[8:12]),
		ModuleType:   binary.LittleEndian.Uint32(data[12:16]),
		Flags:        binary.LittleEndian.Uint32(data[16:20]),
		HeaderSize:   binary.LittleEndian.Uint32(data[20:24]),
		CodeSize:     binary.LittleEndian.Uint32(data[24:28]),
		DataSize:     binary.LittleEndian.Uint32(data[28:32]),
		ExportCount:  binary.LittleEndian.Uint32(data[32:36]),
		ExportOffset: binary.LittleEndian.Uint32(data[36:40]),
	}

	total := uint64(len(data))
	if h.HeaderSize < HeaderSize {
		// A shrunken header_size would make the code section overlap the
		// header itself, letting resolved offsets land outside real code.
		return nil, fmt.Errorf("%w: header size %d below fixed header length %d",
			ErrBounds, h.HeaderSize, HeaderSize)
	}
	if uint64(h.HeaderSize)+uint64(h.CodeSize) > total {
		return nil, fmt.Errorf("%w: code section [%d,%d) beyond %d",
			ErrBounds, h.HeaderSize, uint64(h.HeaderSize)+uint64(h.CodeSize), total)
	}
	tableEnd := uint64(h.ExportOffset) + uint64(h.ExportCount)*ExportEntrySize
	if tableEnd > total {
		return nil, fmt.Errorf("%w: export table [%d,%d) beyond %d",
			ErrBounds, h.ExportOffset, tableEnd, total)
	}

	exports := make([]ExportEntry, 0, h.ExportCount)
	for i := uint32(0); i < h.ExportCount; i++ {
		rec := data[h.ExportOffset+i*ExportEntrySize:][:ExportEntrySize]
		exports = append(exports, ExportEntry{
			Name:   cstr(rec[:exportNameLen]),
			Offset: binary.LittleEndian.Uint32(rec[exportNameLen : exportNameLen+4]),
			Size:   binary.LittleEndian.Uint32(rec[exportNameLen+4 : exportNameLen+8]),
			Flags:  binary.LittleEndian.Uint32(rec[exportNameLen+8 : exportNameLen+12]),
		})
	}

	return &Module{Header: h, Exports: exports, raw: data}, nil
}

// CheckArch verifies the header's architecture tag against the given loader
// architecture value.
func (m *Module) CheckArch(want uint32) error {
	if m.Header.Arch != want {
		return fmt.Errorf("%w: module arch %d, host arch %d", ErrArchMismatch, m.Header.Arch, want)
	}
	return nil
}

// Code returns the code section as a sub-slice of the backing image.
func (m *Module) Code() []byte {
	return m.raw[m.Header.HeaderSize : uint64(m.Header.HeaderSize)+uint64(m.Header.CodeSize)]
}

// Lookup scans the export table for an exact name match and returns the
// matching entry. The entry offset is re-validated against the code section
// so a resolved address can never point outside it.
func (m *Module) Lookup(name string) (ExportEntry, error) {
	for _, e := range m.Exports {
		if e.Name != name {
			continue
		}
		if e.Offset >= m.Header.CodeSize {
			return ExportEntry{}, fmt.Errorf("%w: export %q offset %d beyond code size %d",
				ErrBounds, name, e.Offset, m.Header.CodeSize)
		}
		return e, nil
	}
	return ExportEntry{}, fmt.Errorf("natv: export %q not found", name)
}

// ArchValue maps a loader architecture name to the header's numeric tag.
// Unknown names return 0, which never matches a valid header.
func ArchValue(arch string, bits int) uint32 {
	switch {
	case arch == "x64" && bits == 64:
		return ArchX8664
	case arch == "arm64" && bits == 64:
		return ArchARM64
	case arch == "x86" && bits == 32:
		return ArchX8632
	default:
		return 0
	}
}

func cstr(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
