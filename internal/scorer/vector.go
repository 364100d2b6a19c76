package scorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Aman-CERP/fuzzymatch/internal/embed"
	"github.com/Aman-CERP/fuzzymatch/internal/store"
)

// Vector scores values by cosine similarity of their embeddings, searched
// through an HNSW graph. A value written as a JSON array of numbers is
// taken as a ready-made embedding; anything else goes through the embedder.
type Vector struct {
	base
	embedder embed.Embedder
}

// vectorIndex is the persisted form of a vector field. Blank rows are not
// in the graph; they score 0.
type vectorIndex struct {
	IDs   []string
	Graph []byte // store.VectorIndex binary form
	Rows  []int  // graph position -> row
}

func newVector(b base, embedder embed.Embedder) *Vector {
	return &Vector{base: b, embedder: embedder}
}

// Build embeds the column, builds the graph and writes the index.
func (v *Vector) Build(ctx context.Context, col Column) (BuildStats, error) {
	if len(col.IDs) != len(col.Values) {
		return BuildStats{}, fmt.Errorf("ids and values length mismatch: %d vs %d", len(col.IDs), len(col.Values))
	}

	vectors, rows, err := v.embedColumn(ctx, col.Values)
	if err != nil {
		return BuildStats{}, err
	}

	dims := v.embedder.Dimensions()
	if len(vectors) > 0 {
		dims = len(vectors[0])
	}

	graphIDs := make([]string, len(rows))
	for i, row := range rows {
		graphIDs[i] = col.IDs[row]
	}

	graph := store.NewVectorIndex(store.VectorIndexConfig{Dimensions: dims})
	if err := graph.Build(ctx, graphIDs, vectors); err != nil {
		return BuildStats{}, fmt.Errorf("build graph: %w", err)
	}
	data, err := graph.MarshalBinary()
	if err != nil {
		return BuildStats{}, err
	}

	n, err := v.save(ctx, vectorIndex{IDs: col.IDs, Graph: data, Rows: rows})
	if err != nil {
		return BuildStats{}, err
	}

	attrs := []any{
		slog.Int("records", len(col.IDs)),
		slog.Int("vectors", len(rows)),
		slog.Int("dimensions", dims),
	}
	if c, ok := v.embedder.(*embed.ValueCache); ok {
		stats := c.Stats()
		attrs = append(attrs, slog.Int64("cache_hits", stats.Hits), slog.Int64("cache_misses", stats.Misses))
	}
	v.logger.Debug("vector_index_built", attrs...)

	return BuildStats{Records: len(col.IDs), Indexed: len(col.IDs), Bytes: n}, nil
}

// embedColumn returns one vector per non-blank value and the row each
// vector came from. Pre-computed and embedded vectors may be mixed as long
// as every vector has the same dimension.
func (v *Vector) embedColumn(ctx context.Context, values []string) ([][]float32, []int, error) {
	vectors := make([][]float32, 0, len(values))
	rows := make([]int, 0, len(values))

	var texts []string
	var textSlots []int
	for row, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if vec, ok, err := parseVector(value); ok {
			if err != nil {
				return nil, nil, fmt.Errorf("row %d: %w", row+1, err)
			}
			vectors = append(vectors, vec)
		} else {
			textSlots = append(textSlots, len(vectors))
			texts = append(texts, value)
			vectors = append(vectors, nil)
		}
		rows = append(rows, row)
	}

	if len(texts) > 0 {
		embedded, err := v.embedder.EmbedColumn(ctx, texts)
		if err != nil {
			return nil, nil, fmt.Errorf("embed values: %w", err)
		}
		for i, slot := range textSlots {
			vectors[slot] = embedded[i]
		}
	}

	// Zero vectors have no direction; those rows are treated as blank
	kept, keptRows := vectors[:0], rows[:0]
	for i, vec := range vectors {
		if len(kept) > 0 && len(vec) != len(kept[0]) {
			return nil, nil, fmt.Errorf("row %d: %w", rows[i]+1, store.ErrDimensionMismatch{
				Expected: len(kept[0]),
				Got:      len(vec),
			})
		}
		if isZero(vec) {
			continue
		}
		kept = append(kept, vec)
		keptRows = append(keptRows, rows[i])
	}

	return kept, keptRows, nil
}

func isZero(vec []float32) bool {
	for _, x := range vec {
		if x != 0 {
			return false
		}
	}
	return true
}

// Query scores every row against the embedding of value. A blank value or
// one whose dimension differs from the index has no result.
func (v *Vector) Query(ctx context.Context, value string) (*Result, error) {
	var idx vectorIndex
	if err := v.load(ctx, &idx); err != nil {
		return nil, err
	}
	if len(idx.IDs) == 0 {
		return nil, v.noResult("index is empty")
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return nil, v.noResult("value is blank")
	}

	query, ok, err := parseVector(value)
	if ok && err != nil {
		return nil, v.noResult(err.Error())
	}
	if !ok {
		query, err = v.embedder.Embed(ctx, value)
		if err != nil {
			return nil, fmt.Errorf("embed value: %w", err)
		}
	}
	if isZero(query) {
		return nil, v.noResult("value has no embedding")
	}

	graph := &store.VectorIndex{}
	if err := graph.UnmarshalBinary(idx.Graph); err != nil {
		return nil, fmt.Errorf("load graph: %w", err)
	}

	scored, err := graph.ScoreAll(ctx, query)
	var dimErr store.ErrDimensionMismatch
	if errors.As(err, &dimErr) {
		return nil, v.noResult(dimErr.Error())
	}
	if err != nil {
		return nil, err
	}

	raw := make([]float64, len(idx.IDs))
	for i, r := range scored {
		raw[idx.Rows[i]] = clamp01(float64(r.Score))
	}
	return v.result(idx.IDs, raw), nil
}

// parseVector interprets value as a JSON array of numbers. ok reports
// whether value looks like an array at all; err reports a malformed one.
func parseVector(value string) (vec []float32, ok bool, err error) {
	if !strings.HasPrefix(value, "[") {
		return nil, false, nil
	}
	if err := json.Unmarshal([]byte(value), &vec); err != nil {
		return nil, true, fmt.Errorf("invalid embedding: %w", err)
	}
	if len(vec) == 0 {
		return nil, true, errors.New("invalid embedding: empty array")
	}
	return vec, true, nil
}

var _ Scorer = (*Vector)(nil)
