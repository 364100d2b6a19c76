package scorer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fmerrors "github.com/Aman-CERP/fuzzymatch/internal/errors"
)

func TestCanonicalAlgorithm(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"levenshtein", "levenshtein"},
		{"  Levenshtein ", "levenshtein"},
		{"Jaro_Winkler", "jaro-winkler"},
		{"jaro winkler", "jaro-winkler"},
		{"SORENSEN_DICE", "sorensen-dice"},
		{"Null", "null"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalAlgorithm(tt.in))
		})
	}
}

func TestNew_ResolvesKinds(t *testing.T) {
	deps := testDeps(t)

	tests := []struct {
		algorithm string
		kind      Kind
	}{
		{"levenshtein", KindDistance},
		{"Damerau-Levenshtein", KindDistance},
		{"osa_damerau_levenshtein", KindDistance},
		{"lcs", KindDistance},
		{"hamming", KindDistance},
		{"jaro", KindDistance},
		{"JaroWinkler", ""},
		{"jaro-winkler", KindDistance},
		{"cosine", KindDistance},
		{"jaccard", KindDistance},
		{"sorensen-dice", KindDistance},
		{"qgram", KindDistance},
		{"vector", KindVector},
		{"TimeDelta", KindTimedelta},
		{"null", KindNull},
	}

	for _, tt := range tests {
		t.Run(tt.algorithm, func(t *testing.T) {
			sc, err := New("f", Settings{Algorithm: tt.algorithm}, deps)
			if tt.kind == "" {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, sc.Kind())
			assert.Equal(t, "f", sc.Field())
			assert.Equal(t, CanonicalAlgorithm(tt.algorithm), sc.Algorithm())
		})
	}
}

func TestNew_UnknownAlgorithm(t *testing.T) {
	// Given: a field configured with an algorithm that does not exist
	deps := testDeps(t)

	// When: building the scorer
	sc, err := New("name", Settings{Algorithm: "soundex"}, deps)

	// Then: ERR_104 names the algorithm and the field
	require.Error(t, err)
	assert.Nil(t, sc)
	assert.Equal(t, fmerrors.ErrCodeUnknownAlgorithm, fmerrors.GetCode(err))
	assert.Equal(t, "name", fmerrors.GetField(err))
	assert.Contains(t, err.Error(), "soundex")
}

func TestNew_EmptyAlgorithmIsUnknown(t *testing.T) {
	_, err := New("name", Settings{}, testDeps(t))

	assert.Equal(t, fmerrors.ErrCodeUnknownAlgorithm, fmerrors.GetCode(err))
}

func TestNew_Weight(t *testing.T) {
	deps := testDeps(t)

	sc, err := New("name", Settings{Algorithm: "jaro"}, deps)
	require.NoError(t, err)
	assert.Equal(t, DefaultWeight, sc.Weight())

	sc, err = New("name", Settings{Algorithm: "jaro", Weight: Float64(2.5)}, deps)
	require.NoError(t, err)
	assert.Equal(t, 2.5, sc.Weight())

	sc, err = New("name", Settings{Algorithm: "jaro", Weight: Float64(0)}, deps)
	require.NoError(t, err)
	assert.Equal(t, 0.0, sc.Weight())
}

func TestNew_InvalidWeight(t *testing.T) {
	deps := testDeps(t)

	for _, w := range []float64{-1, math.NaN(), math.Inf(1)} {
		_, err := New("name", Settings{Algorithm: "jaro", Weight: Float64(w)}, deps)
		assert.Equal(t, fmerrors.ErrCodeConfigInvalid, fmerrors.GetCode(err))
	}
}

func TestNew_InvalidDateFormat(t *testing.T) {
	_, err := New("joined", Settings{Algorithm: "timedelta", Format: "day-month-year"}, testDeps(t))

	require.Error(t, err)
	assert.Equal(t, fmerrors.ErrCodeConfigInvalid, fmerrors.GetCode(err))
	assert.Equal(t, "joined", fmerrors.GetField(err))
}

func TestNew_EmptyFieldName(t *testing.T) {
	_, err := New(" ", Settings{Algorithm: "jaro"}, testDeps(t))

	assert.Equal(t, fmerrors.ErrCodeConfigInvalid, fmerrors.GetCode(err))
}

func TestNew_RequiresVault(t *testing.T) {
	_, err := New("name", Settings{Algorithm: "jaro"}, Deps{})

	assert.Equal(t, fmerrors.ErrCodeInternal, fmerrors.GetCode(err))
}

func TestAlgorithms_SortedAndComplete(t *testing.T) {
	names := Algorithms()

	assert.Len(t, names, 14)
	assert.IsIncreasing(t, names)
	for _, name := range names {
		_, ok := KindOf(name)
		assert.True(t, ok, name)
	}
}

func TestSettings_Defaults(t *testing.T) {
	var s Settings
	assert.Equal(t, DefaultFormat, s.FormatOrDefault())
	assert.Equal(t, DefaultWeight, s.WeightOrDefault())

	s.Format = "%Y-%m-%d"
	assert.Equal(t, "%Y-%m-%d", s.FormatOrDefault())
}
