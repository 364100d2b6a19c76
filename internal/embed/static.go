package embed

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"
)

// Feature weights of the static embedder.
const (
	wordWeight    = 0.6
	trigramWeight = 0.4
	trigramSize   = 3
)

// StaticEmbedder hashes the words and character trigrams of a value into
// StaticDimensions buckets. It needs no model, so names, addresses and
// company strings that share words or spelling fragments land close
// together without any download.
type StaticEmbedder struct{}

// NewStaticEmbedder creates a static embedder.
func NewStaticEmbedder() *StaticEmbedder {
	return &StaticEmbedder{}
}

// Embed returns the unit vector of value, or the zero vector when value
// has no letters or digits.
func (e *StaticEmbedder) Embed(_ context.Context, value string) ([]float32, error) {
	return e.vector(Normalize(value)), nil
}

func (e *StaticEmbedder) vector(normalized string) []float32 {
	vec := make([]float32, StaticDimensions)
	ws := words(normalized)
	if len(ws) == 0 {
		return vec
	}

	for _, w := range ws {
		vec[bucket(w)] += wordWeight
	}
	// Padding gives word boundaries their own trigrams
	for _, g := range trigrams(" " + strings.Join(ws, " ") + " ") {
		vec[bucket(g)] += trigramWeight
	}
	return unitLength(vec)
}

// EmbedColumn embeds every value of a column.
func (e *StaticEmbedder) EmbedColumn(ctx context.Context, values []string) ([][]float32, error) {
	out := make([][]float32, len(values))
	for i, value := range values {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		out[i] = e.vector(Normalize(value))
	}
	return out, nil
}

// Dimensions returns StaticDimensions.
func (e *StaticEmbedder) Dimensions() int {
	return StaticDimensions
}

// Name returns the scheme identifier.
func (e *StaticEmbedder) Name() string {
	return "static-trigram-256"
}

// words splits a value into runs of letters and digits.
func words(value string) []string {
	return strings.FieldsFunc(value, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// trigrams returns the sliding three-rune windows of s.
func trigrams(s string) []string {
	runes := []rune(s)
	if len(runes) < trigramSize {
		return nil
	}
	out := make([]string, 0, len(runes)-trigramSize+1)
	for i := 0; i+trigramSize <= len(runes); i++ {
		out = append(out, string(runes[i:i+trigramSize]))
	}
	return out
}

func bucket(feature string) int {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	return int(h.Sum64() % StaticDimensions)
}

var _ Embedder = (*StaticEmbedder)(nil)
