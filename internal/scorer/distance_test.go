package scorer

import (
	"context"
	"testing"

	"github.com/hbollon/go-edlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance_Query_ScoresEveryRowInOrder(t *testing.T) {
	// Given: a levenshtein field over three names
	deps := testDeps(t)
	sc := buildScorer(t, deps, "name", Settings{Algorithm: "levenshtein", Weight: Float64(2)},
		[]string{"1", "2", "3"},
		[]string{"John", "Jane", "Jon"})

	// When: probing with "john"
	res, err := sc.Query(context.Background(), "john")

	// Then: rows come back in dataset order, weighted by 2
	require.NoError(t, err)
	assert.Equal(t, "name", res.Field)
	assert.Equal(t, 2.0, res.Weight)
	assert.Equal(t, []string{"1", "2", "3"}, idsOf(res))

	raw := rawByID(res)
	assert.Equal(t, 1.0, raw["1"])
	assert.InDelta(t, 0.25, raw["2"], 1e-6)
	assert.InDelta(t, 0.75, raw["3"], 1e-6)
	assert.InDelta(t, 1.5, res.Scores[2].Weighted, 1e-6)
}

func TestDistance_Dedupe_ExpandsToAllMembers(t *testing.T) {
	// Given: duplicate values differing only in case and spacing
	deps := testDeps(t)
	ids := []string{"a", "b", "c", "d"}
	values := []string{"Acme  Corp", "acme corp", "Globex", "ACME CORP"}

	deduped := buildScorer(t, deps, "company", Settings{Algorithm: "jaro-winkler", Dedupe: true}, ids, values)

	plainDeps := testDeps(t)
	plain := buildScorer(t, plainDeps, "company", Settings{Algorithm: "jaro-winkler"}, ids, values)

	// When: querying both
	got, err := deduped.Query(context.Background(), "Acme Corporation")
	require.NoError(t, err)
	want, err := plain.Query(context.Background(), "Acme Corporation")
	require.NoError(t, err)

	// Then: every member carries the group's score, identical to the undeduplicated result
	assert.Equal(t, want.Scores, got.Scores)
	raw := rawByID(got)
	assert.Equal(t, raw["a"], raw["b"])
	assert.Equal(t, raw["a"], raw["d"])
}

func TestDistance_Dedupe_IndexHoldsDistinctValues(t *testing.T) {
	deps := testDeps(t)
	sc := buildScorer(t, deps, "city", Settings{Algorithm: "levenshtein", Dedupe: true},
		[]string{"1", "2", "3"},
		[]string{"Berlin", "berlin", "Paris"})

	var idx distanceIndex
	require.NoError(t, sc.(*Distance).load(context.Background(), &idx))

	assert.Len(t, idx.Entries, 2)
	assert.Equal(t, []int{0, 1}, idx.Entries[0].Rows)
	assert.Len(t, idx.IDs, 3)
}

func TestDistance_Hamming_UnequalLengthsScoreZero(t *testing.T) {
	deps := testDeps(t)
	sc := buildScorer(t, deps, "code", Settings{Algorithm: "hamming"},
		[]string{"1", "2"},
		[]string{"abcd", "abc"})

	res, err := sc.Query(context.Background(), "abce")

	require.NoError(t, err)
	raw := rawByID(res)
	assert.InDelta(t, 0.75, raw["1"], 1e-6)
	assert.Equal(t, 0.0, raw["2"])
}

func TestDistance_AllAlgorithms_BoundedAndExactMatchIsOne(t *testing.T) {
	for name := range distanceAlgorithms {
		t.Run(name, func(t *testing.T) {
			deps := testDeps(t)
			sc := buildScorer(t, deps, "name", Settings{Algorithm: name},
				[]string{"1", "2", "3"},
				[]string{"Margaret", "Margerat", "Zq"})

			res, err := sc.Query(context.Background(), "margaret")
			require.NoError(t, err)

			raw := rawByID(res)
			assert.Equal(t, 1.0, raw["1"])
			for _, s := range res.Scores {
				assert.GreaterOrEqual(t, s.Raw, 0.0)
				assert.LessOrEqual(t, s.Raw, 1.0)
			}
		})
	}
}

func TestDistance_EmptyValues(t *testing.T) {
	deps := testDeps(t)
	sc := buildScorer(t, deps, "name", Settings{Algorithm: "levenshtein"},
		[]string{"1", "2"},
		[]string{"", "Jane"})

	res, err := sc.Query(context.Background(), "")
	require.NoError(t, err)

	raw := rawByID(res)
	assert.Equal(t, 1.0, raw["1"])
	assert.Equal(t, 0.0, raw["2"])
}

func TestDistance_Query_BeforeBuild_NoResult(t *testing.T) {
	sc, err := New("name", Settings{Algorithm: "levenshtein"}, testDeps(t))
	require.NoError(t, err)

	_, err = sc.Query(context.Background(), "x")

	assert.ErrorIs(t, err, ErrNoResult)
}

func TestDistance_Query_EmptyIndex_NoResult(t *testing.T) {
	deps := testDeps(t)
	sc := buildScorer(t, deps, "name", Settings{Algorithm: "levenshtein"}, nil, nil)

	_, err := sc.Query(context.Background(), "x")

	assert.ErrorIs(t, err, ErrNoResult)
}

func TestDistance_Build_ReplacesPreviousIndex(t *testing.T) {
	deps := testDeps(t)
	sc := buildScorer(t, deps, "name", Settings{Algorithm: "levenshtein"},
		[]string{"1", "2"}, []string{"a", "b"})

	_, err := sc.Build(context.Background(), Column{IDs: []string{"9"}, Values: []string{"z"}})
	require.NoError(t, err)

	res, err := sc.Query(context.Background(), "z")
	require.NoError(t, err)
	assert.Equal(t, []string{"9"}, idsOf(res))
}

func TestDistance_Build_Stats(t *testing.T) {
	sc, err := New("name", Settings{Algorithm: "levenshtein"}, testDeps(t))
	require.NoError(t, err)

	stats, err := sc.Build(context.Background(), Column{IDs: []string{"1", "2"}, Values: []string{"a", "b"}})

	require.NoError(t, err)
	assert.Equal(t, 2, stats.Records)
	assert.Equal(t, 2, stats.Indexed)
	assert.Greater(t, stats.Bytes, int64(0))
}

func TestDistance_Build_LengthMismatch(t *testing.T) {
	sc, err := New("name", Settings{Algorithm: "levenshtein"}, testDeps(t))
	require.NoError(t, err)

	_, err = sc.Build(context.Background(), Column{IDs: []string{"1"}, Values: nil})

	assert.Error(t, err)
}

func TestDistance_Teardown(t *testing.T) {
	// Given: a built field
	deps := testDeps(t)
	sc := buildScorer(t, deps, "name", Settings{Algorithm: "levenshtein"},
		[]string{"1"}, []string{"a"})

	// When: tearing it down twice
	require.NoError(t, sc.Teardown(context.Background()))
	require.NoError(t, sc.Teardown(context.Background()))

	// Then: queries have no result
	_, err := sc.Query(context.Background(), "a")
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Jane Doe", "jane doe"},
		{"  Jane \t\n Doe  ", "jane doe"},
		{"ＪＡＮＥ", "jane"},
		{"Straße", "strasse"},
		{"a\x00b", "ab"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestSimilarity_Guards(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("", "", edlib.Levenshtein))
	assert.Equal(t, 0.0, Similarity("", "a", edlib.Jaro))
	assert.Equal(t, 0.0, Similarity("ab", "abc", edlib.Hamming))
	assert.Equal(t, 1.0, Similarity("same", "same", edlib.Qgram))
}
