package scorer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hbollon/go-edlib"

	"github.com/Aman-CERP/fuzzymatch/internal/embed"
)

// Distance scores values by string similarity (edit distance, Jaro,
// token set overlap). Values are normalized before indexing and query
// values are normalized the same way before comparison.
type Distance struct {
	base
	algo   edlib.Algorithm
	dedupe bool
}

// distanceIndex is the persisted form of a distance field.
// Each entry holds one normalized value and the rows that carry it; with
// dedupe off every row is its own entry.
type distanceIndex struct {
	IDs     []string
	Entries []distanceEntry
}

type distanceEntry struct {
	Value string
	Rows  []int
}

func newDistance(b base, algo edlib.Algorithm, dedupe bool) *Distance {
	return &Distance{base: b, algo: algo, dedupe: dedupe}
}

// Build normalizes the column and writes the index.
func (d *Distance) Build(ctx context.Context, col Column) (BuildStats, error) {
	if len(col.IDs) != len(col.Values) {
		return BuildStats{}, fmt.Errorf("ids and values length mismatch: %d vs %d", len(col.IDs), len(col.Values))
	}

	idx := distanceIndex{IDs: col.IDs}
	positions := make(map[string]int)
	for row, value := range col.Values {
		normalized := Normalize(value)
		if d.dedupe {
			if pos, ok := positions[normalized]; ok {
				idx.Entries[pos].Rows = append(idx.Entries[pos].Rows, row)
				continue
			}
			positions[normalized] = len(idx.Entries)
		}
		idx.Entries = append(idx.Entries, distanceEntry{Value: normalized, Rows: []int{row}})
	}

	n, err := d.save(ctx, idx)
	if err != nil {
		return BuildStats{}, err
	}

	d.logger.Debug("distance_index_built",
		slog.Int("records", len(col.IDs)),
		slog.Int("distinct", len(idx.Entries)))

	return BuildStats{Records: len(col.IDs), Indexed: len(col.IDs), Bytes: n}, nil
}

// Query scores every row against value. Each distinct entry is compared
// once and its score is expanded to all of its rows.
func (d *Distance) Query(ctx context.Context, value string) (*Result, error) {
	var idx distanceIndex
	if err := d.load(ctx, &idx); err != nil {
		return nil, err
	}
	if len(idx.IDs) == 0 {
		return nil, d.noResult("index is empty")
	}

	target := Normalize(value)
	raw := make([]float64, len(idx.IDs))
	for i, entry := range idx.Entries {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		sim := Similarity(target, entry.Value, d.algo)
		for _, row := range entry.Rows {
			raw[row] = sim
		}
	}

	return d.result(idx.IDs, raw), nil
}

// Similarity returns the similarity of two normalized strings in [0, 1].
// Identical strings score 1 and a single empty side scores 0. Algorithms
// that cannot compare the pair (hamming on unequal lengths) score 0.
func Similarity(a, b string, algo edlib.Algorithm) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}

	sim, err := edlib.StringsSimilarity(a, b, algo)
	if err != nil {
		return 0
	}
	return clamp01(float64(sim))
}

// Normalize prepares a value for string comparison. It is the same
// canonical form the vector embedder sees.
func Normalize(value string) string {
	return embed.Normalize(value)
}

var _ Scorer = (*Distance)(nil)
