package natv

import (
	"encoding/binary"
	"fmt"
)

// Builder assembles a NATV image in memory. It exists for the module tooling
// and for tests; the production loader only ever reads modules.
type Builder struct {
	Arch       uint32
	ModuleType uint32
	Flags      uint32
	code       []byte
	exports    []ExportEntry
}

// NewBuilder returns a builder for a module of the given architecture.
func NewBuilder(arch uint32) *Builder {
	return &Builder{Arch: arch, ModuleType: TypeVM}
}

// SetCode sets the code section bytes.
func (b *Builder) SetCode(code []byte) *Builder {
	b.code = code
	return b
}

// AddExport appends an export record. Offset is relative to the code section.
func (b *Builder) AddExport(name string, offset, size uint32) *Builder {
	b.exports = append(b.exports, ExportEntry{Name: name, Offset: offset, Size: size})
	return b
}

// Build serializes the image: header, code section, export table.
func (b *Builder) Build() ([]byte, error) {
	for _, e := range b.exports {
		if len(e.Name) >= exportNameLen {
			return nil, fmt.Errorf("natv: export name %q longer than %d bytes", e.Name, exportNameLen-1)
		}
	}

	exportOffset := HeaderSize + len(b.code)
	total := exportOffset + len(b.exports)*ExportEntrySize
	out := make([]byte, total)

	copy(out[:4], Magic[:])
	put := func(off int, v uint32) { binary.LittleEndian.PutUint32(out[off:], v) }
	put(4, VersionV1)
	put(8, b.Arch)
	put(12, b.ModuleType)
	put(16, b.Flags)
	put(20, HeaderSize)
	put(24, uint32(len(b.code)))
	put(28, 0) // no data section
	put(32, uint32(len(b.exports)))
	put(36, uint32(exportOffset))

	copy(out[HeaderSize:], b.code)
	for i, e := range b.exports {
		rec := out[exportOffset+i*ExportEntrySize:]
		copy(rec[:exportNameLen], e.Name)
		binary.LittleEndian.PutUint32(rec[exportNameLen:], e.Offset)
		binary.LittleEndian.PutUint32(rec[exportNameLen+4:], e.Size)
		binary.LittleEndian.PutUint32(rec[exportNameLen+8:], e.Flags)
	}
	return out, nil
}
