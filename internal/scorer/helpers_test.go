package scorer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/fuzzymatch/internal/store"
)

// testDeps opens a vault in a temp dir for one test.
func testDeps(t *testing.T) Deps {
	t.Helper()
	v, err := store.OpenVault(t.TempDir(), "test-key")
	require.NoError(t, err)
	t.Cleanup(func() { _ = v.Close() })
	return Deps{Vault: v}
}

// buildScorer constructs and builds a scorer over ids/values.
func buildScorer(t *testing.T, deps Deps, field string, s Settings, ids, values []string) Scorer {
	t.Helper()
	sc, err := New(field, s, deps)
	require.NoError(t, err)
	_, err = sc.Build(context.Background(), Column{IDs: ids, Values: values})
	require.NoError(t, err)
	return sc
}

// rawByID flattens a result for assertions.
func rawByID(r *Result) map[string]float64 {
	out := make(map[string]float64, len(r.Scores))
	for _, s := range r.Scores {
		out[s.ID] = s.Raw
	}
	return out
}

func idsOf(r *Result) []string {
	ids := make([]string, len(r.Scores))
	for i, s := range r.Scores {
		ids[i] = s.ID
	}
	return ids
}
