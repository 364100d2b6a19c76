package embed

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func length(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func mustEmbed(t *testing.T, e Embedder, value string) []float32 {
	t.Helper()
	vec, err := e.Embed(context.Background(), value)
	require.NoError(t, err)
	return vec
}

// recordingEmbedder wraps the static embedder and records every value it
// is asked to embed.
type recordingEmbedder struct {
	StaticEmbedder

	mu      sync.Mutex
	single  []string
	columns [][]string
}

func (r *recordingEmbedder) Embed(ctx context.Context, value string) ([]float32, error) {
	r.mu.Lock()
	r.single = append(r.single, value)
	r.mu.Unlock()
	return r.StaticEmbedder.Embed(ctx, value)
}

func (r *recordingEmbedder) EmbedColumn(ctx context.Context, values []string) ([][]float32, error) {
	r.mu.Lock()
	r.columns = append(r.columns, append([]string(nil), values...))
	r.mu.Unlock()
	return r.StaticEmbedder.EmbedColumn(ctx, values)
}

func (r *recordingEmbedder) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.single) + len(r.columns)
}
