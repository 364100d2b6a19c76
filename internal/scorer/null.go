package scorer

import (
	"context"
	"fmt"
)

// Null keeps a field in the join without contributing similarity: every
// identity scores 0.
type Null struct {
	base
}

type nullIndex struct {
	IDs []string
}

func newNull(b base) *Null {
	return &Null{base: b}
}

// Build records the column's identities.
func (n *Null) Build(ctx context.Context, col Column) (BuildStats, error) {
	if len(col.IDs) != len(col.Values) {
		return BuildStats{}, fmt.Errorf("ids and values length mismatch: %d vs %d", len(col.IDs), len(col.Values))
	}

	size, err := n.save(ctx, nullIndex{IDs: col.IDs})
	if err != nil {
		return BuildStats{}, err
	}
	return BuildStats{Records: len(col.IDs), Indexed: len(col.IDs), Bytes: size}, nil
}

// Query scores every identity 0 regardless of value.
func (n *Null) Query(ctx context.Context, _ string) (*Result, error) {
	var idx nullIndex
	if err := n.load(ctx, &idx); err != nil {
		return nil, err
	}
	if len(idx.IDs) == 0 {
		return nil, n.noResult("index is empty")
	}
	return n.result(idx.IDs, make([]float64, len(idx.IDs))), nil
}

var _ Scorer = (*Null)(nil)
