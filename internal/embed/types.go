// Package embed turns record values into vectors for the vector scorer.
//
// Every embedder sees values through Normalize, so two cells that differ
// only in case, Unicode width or spacing get the same vector. The string
// scorers compare values in the same normalized form.
package embed

import (
	"context"
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// StaticDimensions is the vector size of the static embedder.
const StaticDimensions = 256

// Embedder maps record values to vectors of a fixed dimension.
type Embedder interface {
	// Embed returns the vector of one value. A blank value yields the
	// zero vector, which the vector scorer treats as missing.
	Embed(ctx context.Context, value string) ([]float32, error)

	// EmbedColumn returns one vector per value, in input order.
	EmbedColumn(ctx context.Context, values []string) ([][]float32, error)

	// Dimensions is the length of every returned vector.
	Dimensions() int

	// Name identifies the embedding scheme. Vectors from embedders with
	// different names are not comparable.
	Name() string
}

// Normalize returns the canonical form of a cell value: NFKC
// compatibility normalization, Unicode case folding, control characters
// dropped and whitespace runs collapsed to a single space.
func Normalize(value string) string {
	folded := cases.Fold().String(norm.NFKC.String(value))
	folded = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, folded)
	return strings.Join(strings.Fields(folded), " ")
}

// unitLength scales v in place to length 1. The zero vector is left alone.
func unitLength(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := 1 / math.Sqrt(sum)
	for i, x := range v {
		v[i] = float32(float64(x) * inv)
	}
	return v
}
