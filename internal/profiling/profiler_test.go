package profiling

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nonEmpty(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0), path)
}

func TestSession_AllProfiles(t *testing.T) {
	// Given: every profile requested
	dir := t.TempDir()
	paths := Paths{
		CPU:   filepath.Join(dir, "cpu.prof"),
		Heap:  filepath.Join(dir, "heap.prof"),
		Trace: filepath.Join(dir, "trace.out"),
	}
	require.True(t, paths.Enabled())

	// When: running some work between Start and Stop
	s, err := Start(paths)
	require.NoError(t, err)
	sum := 0
	for i := 0; i < 1_000_000; i++ {
		sum += i
	}
	_ = sum
	require.NoError(t, s.Stop())

	// Then: all three files have content
	nonEmpty(t, paths.CPU)
	nonEmpty(t, paths.Heap)
	nonEmpty(t, paths.Trace)
}

func TestSession_StopTwice(t *testing.T) {
	s, err := Start(Paths{Heap: filepath.Join(t.TempDir(), "heap.prof")})
	require.NoError(t, err)

	require.NoError(t, s.Stop())
	assert.NoError(t, s.Stop())
}

func TestStart_BadPath(t *testing.T) {
	s, err := Start(Paths{CPU: filepath.Join(t.TempDir(), "missing", "cpu.prof")})

	require.Error(t, err)
	assert.Nil(t, s)
}

func TestStart_BadTracePath_StopsCPU(t *testing.T) {
	dir := t.TempDir()

	_, err := Start(Paths{
		CPU:   filepath.Join(dir, "cpu.prof"),
		Trace: filepath.Join(dir, "missing", "trace.out"),
	})
	require.Error(t, err)

	// CPU profiling was released: a new session can start it again
	s, err := Start(Paths{CPU: filepath.Join(dir, "cpu2.prof")})
	require.NoError(t, err)
	require.NoError(t, s.Stop())
}

func TestPaths_Enabled(t *testing.T) {
	assert.False(t, Paths{}.Enabled())
	assert.True(t, Paths{Trace: "t.out"}.Enabled())
}
