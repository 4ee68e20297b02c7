package astcrun_test

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astcrun/astcrun"
	"github.com/astcrun/astcrun/astc"
	"github.com/astcrun/astcrun/config"
	"github.com/astcrun/astcrun/dispatch"
)

func writeProgram(t *testing.T, code []byte) string {
	t.Helper()
	var buf bytes.Buffer
	buf.Write(astc.Magic[:])
	for _, v := range []uint32{astc.VersionV1, 0, 0, 0} {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, v))
	}
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(len(code))))
	buf.Write(code)

	path := filepath.Join(t.TempDir(), "program.astc")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

// With no module anywhere on disk, Run must degrade through every strategy to
// the builtin interpreter and still succeed.
func TestRunFallsBackToInterpreter(t *testing.T) {
	cfg := config.Default()
	cfg.ModuleDir = t.TempDir()

	var out bytes.Buffer
	code := astcrun.Run(writeProgram(t, []byte{astc.OpPrint, astc.OpHalt}), nil, astcrun.Options{
		Config: cfg,
		Out:    &out,
	})

	assert.Equal(t, dispatch.ExitOK, code)
	assert.Equal(t, 1, strings.Count(out.String(), "Hello World from VM!"))
}

func TestRunReportsInterpreterFormatError(t *testing.T) {
	cfg := config.Default()
	cfg.ModuleDir = t.TempDir()

	path := filepath.Join(t.TempDir(), "junk.astc")
	require.NoError(t, os.WriteFile(path, []byte("PK\x03\x04zipfile"), 0o644))

	code := astcrun.Run(path, nil, astcrun.Options{Config: cfg, Out: &bytes.Buffer{}})
	assert.Equal(t, dispatch.ExitInterpreterFormat, code)
}

func TestRunNoFallbackSurfacesModuleNotFound(t *testing.T) {
	cfg := config.Default()
	cfg.ModuleDir = t.TempDir()
	cfg.NoFallback = true

	code := astcrun.Run(writeProgram(t, []byte{astc.OpHalt}), nil, astcrun.Options{
		Config: cfg,
		Out:    &bytes.Buffer{},
	})
	assert.Equal(t, dispatch.ExitModuleNotFound, code)
}
