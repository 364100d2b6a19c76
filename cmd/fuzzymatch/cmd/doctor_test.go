package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoctor_JSON_BeforeCreate(t *testing.T) {
	// Given: a valid project with nothing built
	dir := setupProject(t)

	// When: running doctor with JSON output
	out, err := run(t, "-C", dir, "doctor", "--json")

	// Then: no required check fails and the missing indices are a warning
	require.NoError(t, err)
	var result struct {
		Status   string   `json:"status"`
		Warnings []string `json:"warnings"`
		Checks   []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"checks"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "ready_with_warnings", result.Status)
	assert.NotEmpty(t, result.Checks)

	// And: doctor created nothing on disk
	_, statErr := os.Stat(filepath.Join(dir, "store"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestDoctor_BrokenConfig_Fails(t *testing.T) {
	dir := setupProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".fuzzymatch.yaml"), []byte("top_n: [\n"), 0o644))

	out, err := run(t, "-C", dir, "doctor")

	require.Error(t, err)
	assert.Contains(t, out, "fuzzymatch doctor")
}
