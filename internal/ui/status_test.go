package ui

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleStatus() StatusInfo {
	built := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	return NewStatusInfo("/data/storage", []string{"joined_date", "name", "vec"}, []FieldStatus{
		{Field: "joined_date", Algorithm: "timedelta", Weight: 2, Records: 3, Indexed: 3, Bytes: 512, BuiltAt: built},
		{Field: "name", Algorithm: "levenshtein", Weight: 1, Records: 3, Indexed: 3, Bytes: 2048, BuiltAt: built.Add(time.Minute)},
	})
}

func TestNewStatusInfo_Totals(t *testing.T) {
	info := sampleStatus()

	assert.Equal(t, int64(2560), info.TotalBytes)
	assert.Equal(t, time.Date(2026, 1, 15, 10, 31, 0, 0, time.UTC), info.LastBuilt)
	assert.Equal(t, []string{"vec"}, info.Missing())
}

func TestStatusRenderer_Table(t *testing.T) {
	// Given: status for two built fields
	var buf bytes.Buffer
	r := NewStatusRenderer(&buf, true)

	// When: rendering
	require.NoError(t, r.Render(sampleStatus()))

	// Then: a table row per field plus totals and missing fields
	out := buf.String()
	assert.Contains(t, out, "Index Status: /data/storage")
	assert.Contains(t, out, "ALGORITHM")
	assert.Contains(t, out, "levenshtein")
	assert.Contains(t, out, "2.0 KB")
	assert.Contains(t, out, "Total size: 2.5 KB")
	assert.Contains(t, out, "not built: vec")
}

func TestStatusRenderer_Empty(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, NewStatusRenderer(&buf, true).Render(NewStatusInfo("/s", []string{"a"}, nil)))

	assert.Contains(t, buf.String(), "No field indices built")
}

func TestStatusRenderer_JSON(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, NewStatusRenderer(&buf, true).RenderJSON(sampleStatus()))

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	assert.Equal(t, "/data/storage", parsed["storage_path"])
	assert.Equal(t, float64(2560), parsed["total_bytes"])
	fields, ok := parsed["fields"].([]any)
	require.True(t, ok)
	assert.Len(t, fields, 2)
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBytes(tt.in))
	}
}

func TestFormatTime(t *testing.T) {
	now := time.Now()

	assert.Equal(t, "-", formatTime(time.Time{}))
	assert.Equal(t, "just now", formatTime(now.Add(-10*time.Second)))
	assert.Equal(t, "1 minute ago", formatTime(now.Add(-90*time.Second)))
	assert.Equal(t, "3 hours ago", formatTime(now.Add(-3*time.Hour-time.Minute)))
	assert.Equal(t, "2 days ago", formatTime(now.Add(-49*time.Hour)))
	old := time.Date(2020, 5, 1, 8, 0, 0, 0, time.Local)
	assert.Equal(t, "2020-05-01 08:00", formatTime(old))
}
