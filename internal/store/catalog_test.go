package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := OpenCatalog(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCatalog_RecordAndList(t *testing.T) {
	// Given: two recorded fields
	c := openTestCatalog(t)
	ctx := context.Background()
	builtAt := time.Unix(1700000000, 0)

	require.NoError(t, c.Record(ctx, FieldIndexInfo{
		Field: "name", Algorithm: "levenshtein", Weight: 1, Records: 3, Indexed: 3, Bytes: 120, BuiltAt: builtAt,
	}))
	require.NoError(t, c.Record(ctx, FieldIndexInfo{
		Field: "joined_date", Algorithm: "timedelta", Weight: 2, Records: 3, Indexed: 2, Bytes: 90, BuiltAt: builtAt,
	}))

	// When: listing
	infos, err := c.List(ctx)

	// Then: rows come back ordered by field
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "joined_date", infos[0].Field)
	assert.Equal(t, "name", infos[1].Field)
	assert.Equal(t, 2.0, infos[0].Weight)
	assert.Equal(t, 2, infos[0].Indexed)
	assert.True(t, builtAt.Equal(infos[1].BuiltAt))
}

func TestCatalog_Record_Upserts(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	require.NoError(t, c.Record(ctx, FieldIndexInfo{Field: "name", Algorithm: "levenshtein", Weight: 1, Records: 3}))
	require.NoError(t, c.Record(ctx, FieldIndexInfo{Field: "name", Algorithm: "jaro", Weight: 0.5, Records: 10}))

	infos, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "jaro", infos[0].Algorithm)
	assert.Equal(t, 10, infos[0].Records)
}

func TestCatalog_Remove(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()
	require.NoError(t, c.Record(ctx, FieldIndexInfo{Field: "name", Algorithm: "levenshtein", Weight: 1}))

	require.NoError(t, c.Remove(ctx, "name"))
	require.NoError(t, c.Remove(ctx, "name"))

	infos, err := c.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestCatalog_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	c, err := OpenCatalog(dir)
	require.NoError(t, err)
	require.NoError(t, c.Record(ctx, FieldIndexInfo{Field: "name", Algorithm: "levenshtein", Weight: 1}))
	require.NoError(t, c.Close())

	c2, err := OpenCatalog(dir)
	require.NoError(t, err)
	defer c2.Close()

	infos, err := c2.List(ctx)
	require.NoError(t, err)
	assert.Len(t, infos, 1)
}
