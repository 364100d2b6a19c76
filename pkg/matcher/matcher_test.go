package matcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "matcher test key"

func newTestMatcher(t *testing.T, opts ...Option) *Matcher {
	t.Helper()
	base := []Option{
		WithTopN(2),
		WithField("name", Field{Algorithm: "levenshtein"}),
		WithField("city", Field{Algorithm: "jaro-winkler", Weight: 0.5}),
		WithEncryptionKey(testKey),
		WithStoragePath(t.TempDir()),
	}
	m, err := New(context.Background(), append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

var (
	columns = []string{"customer_id", "name", "city"}
	rows    = [][]string{
		{"c1", "Anna Berg", "Oslo"},
		{"c2", "Anne Berg", "Bergen"},
		{"c3", "Piotr Nowak", "Krakow"},
	}
)

func TestMatcher_CreateAndGet(t *testing.T) {
	// Given: three customers indexed on name and city
	ctx := context.Background()
	m := newTestMatcher(t)
	require.NoError(t, m.Create(ctx, columns, rows, "customer_id"))

	// When: looking up an exact copy of c2
	got, err := m.Get(ctx, map[string]string{"name": "Anne Berg", "city": "Bergen"})

	// Then: c2 ranks first with the full weighted score
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c2", got[0].ID)
	assert.InDelta(t, 1.5, got[0].Similarity, 1e-9)
	assert.Equal(t, []string{"city", "name"}, m.Fields())
}

func TestMatcher_CreateFromFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "customers.csv")
	csv := "customer_id,name,city\nc1,Anna Berg,Oslo\nc2,Anne Berg,Bergen\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))
	m := newTestMatcher(t)

	require.NoError(t, m.CreateFromFile(ctx, path, "customer_id"))

	got, err := m.Get(ctx, map[string]string{"name": "Anna Berg", "city": "Oslo"})
	require.NoError(t, err)
	assert.Equal(t, "c1", got[0].ID)
}

func TestMatcher_ProgressCallback(t *testing.T) {
	var fields []string
	m := newTestMatcher(t, WithWorkers(1), WithProgress(func(p Progress) {
		fields = append(fields, p.Field)
	}))

	require.NoError(t, m.Create(context.Background(), columns, rows, "customer_id"))

	assert.ElementsMatch(t, []string{"name", "city"}, fields)
}

func TestMatcher_DeleteThenGet(t *testing.T) {
	ctx := context.Background()
	m := newTestMatcher(t)
	require.NoError(t, m.Create(ctx, columns, rows, "customer_id"))

	require.NoError(t, m.Delete(ctx))

	_, err := m.Get(ctx, map[string]string{"name": "Anna Berg", "city": "Oslo"})
	require.Error(t, err)
	assert.Equal(t, "ERR_506_NO_RESULT", ErrorCode(err))
	assert.NotEmpty(t, ErrorField(err))
}

func TestNew_RequiresFields(t *testing.T) {
	_, err := New(context.Background(),
		WithTopN(1),
		WithEncryptionKey(testKey),
		WithStoragePath(t.TempDir()))

	require.Error(t, err)
	assert.Equal(t, "ERR_102_CONFIG_INVALID", ErrorCode(err))
}

func TestAlgorithms_IncludesEveryKind(t *testing.T) {
	algos := Algorithms()

	for _, want := range []string{"levenshtein", "jaro-winkler", "vector", "timedelta", "null"} {
		assert.Contains(t, algos, want)
	}
}
