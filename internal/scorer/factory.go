package scorer

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/Aman-CERP/fuzzymatch/internal/embed"
	fmerrors "github.com/Aman-CERP/fuzzymatch/internal/errors"
)

// Algorithm names accepted besides the distance algorithms.
const (
	AlgorithmVector    = "vector"
	AlgorithmTimedelta = "timedelta"
	AlgorithmNull      = "null"
)

// distanceAlgorithms maps canonical names to go-edlib algorithms.
var distanceAlgorithms = map[string]edlib.Algorithm{
	"levenshtein":             edlib.Levenshtein,
	"damerau-levenshtein":     edlib.DamerauLevenshtein,
	"osa-damerau-levenshtein": edlib.OSADamerauLevenshtein,
	"lcs":                     edlib.Lcs,
	"hamming":                 edlib.Hamming,
	"jaro":                    edlib.Jaro,
	"jaro-winkler":            edlib.JaroWinkler,
	"cosine":                  edlib.Cosine,
	"jaccard":                 edlib.Jaccard,
	"sorensen-dice":           edlib.SorensenDice,
	"qgram":                   edlib.Qgram,
}

// CanonicalAlgorithm folds case, trims, and treats '_' and spaces as '-',
// so "Jaro_Winkler" and "jaro-winkler" name the same algorithm.
func CanonicalAlgorithm(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer("_", "-", " ", "-").Replace(name)
}

// Algorithms lists every accepted canonical algorithm name, sorted.
func Algorithms() []string {
	names := make([]string, 0, len(distanceAlgorithms)+3)
	for name := range distanceAlgorithms {
		names = append(names, name)
	}
	names = append(names, AlgorithmVector, AlgorithmTimedelta, AlgorithmNull)
	sort.Strings(names)
	return names
}

// KindOf resolves an algorithm name to its scorer kind.
func KindOf(algorithm string) (Kind, bool) {
	canonical := CanonicalAlgorithm(algorithm)
	if _, ok := distanceAlgorithms[canonical]; ok {
		return KindDistance, true
	}
	switch canonical {
	case AlgorithmVector:
		return KindVector, true
	case AlgorithmTimedelta:
		return KindTimedelta, true
	case AlgorithmNull:
		return KindNull, true
	}
	return "", false
}

// New builds the scorer for field from its settings.
// Unknown algorithms fail with ERR_104; invalid weights or date formats
// fail with ERR_102. Nothing is written to the vault.
func New(field string, s Settings, deps Deps) (Scorer, error) {
	if strings.TrimSpace(field) == "" {
		return nil, fmerrors.New(fmerrors.ErrCodeConfigInvalid, "field name must not be empty", nil)
	}
	if deps.Vault == nil {
		return nil, fmerrors.InternalError("scorer requires a vault", nil).WithField(field)
	}

	weight := s.WeightOrDefault()
	if math.IsNaN(weight) || math.IsInf(weight, 0) || weight < 0 {
		return nil, fmerrors.New(fmerrors.ErrCodeConfigInvalid,
			fmt.Sprintf("weight for field %s must be a finite number >= 0", field), nil).
			WithField(field)
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	canonical := CanonicalAlgorithm(s.Algorithm)
	kind, ok := KindOf(canonical)
	if !ok {
		return nil, fmerrors.New(fmerrors.ErrCodeUnknownAlgorithm,
			fmt.Sprintf("unknown algorithm %q for field %s", s.Algorithm, field), nil).
			WithField(field).
			WithDetail(fmerrors.DetailAlgorithm, s.Algorithm).
			WithSuggestion("Use one of: " + strings.Join(Algorithms(), ", "))
	}

	b := base{
		field:     field,
		algorithm: canonical,
		kind:      kind,
		weight:    weight,
		vault:     deps.Vault,
		logger:    logger.With(slog.String("field", field), slog.String("algorithm", canonical)),
	}

	switch kind {
	case KindDistance:
		return newDistance(b, distanceAlgorithms[canonical], s.Dedupe), nil
	case KindVector:
		embedder := deps.Embedder
		if embedder == nil {
			embedder = embed.NewDefaultValueCache()
		}
		return newVector(b, embedder), nil
	case KindTimedelta:
		td, err := newTimedelta(b, s.FormatOrDefault())
		if err != nil {
			return nil, err
		}
		return td, nil
	default:
		return newNull(b), nil
	}
}
