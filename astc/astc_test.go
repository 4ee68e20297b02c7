package astc

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// container assembles a v1 ASTC image around the given source and bytecode.
func container(t *testing.T, source string, code []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.Write(Magic[:])
	for _, v := range []uint32{VersionV1, 0, 0, uint32(len(source))} {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, v))
	}
	buf.WriteString(source)
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(len(code))))
	buf.Write(code)
	return buf.Bytes()
}

func TestReadProgram(t *testing.T) {
	img := container(t, "int main(void) { return 0; }", []byte{OpPrint, OpHalt})

	prog, err := ReadProgram(bytes.NewReader(img))
	require.NoError(t, err)
	assert.Equal(t, uint32(28), prog.Header.SourceSize)
	assert.Equal(t, []byte{OpPrint, OpHalt}, prog.Bytecode)
}

func TestReadProgramBadMagicFailsBeforeAnythingElse(t *testing.T) {
	// Only four bytes exist: if the reader tried to go past the magic it
	// would hit EOF and misreport an IO failure.
	_, err := ReadProgram(bytes.NewReader([]byte{'B', 'A', 'D', '!'}))
	require.ErrorIs(t, err, ErrFormat)
	require.NotErrorIs(t, err, ErrIO)
}

func TestReadProgramUnsupportedVersion(t *testing.T) {
	img := container(t, "", nil)
	binary.LittleEndian.PutUint32(img[4:], 2)

	_, err := ReadProgram(bytes.NewReader(img))
	require.ErrorIs(t, err, ErrFormat)
}

func TestReadProgramTruncated(t *testing.T) {
	img := container(t, "source text", []byte{OpHalt})
	for _, n := range []int{2, 6, 12, 18, len(img) - 1} {
		_, err := ReadProgram(bytes.NewReader(img[:n]))
		require.ErrorIs(t, err, ErrIO, "length %d", n)
	}
}

func TestReadProgramEmptyBytecode(t *testing.T) {
	prog, err := ReadProgram(bytes.NewReader(container(t, "", nil)))
	require.NoError(t, err)
	assert.Empty(t, prog.Bytecode)
}
