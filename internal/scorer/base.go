package scorer

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"log/slog"
	"math"

	fmerrors "github.com/Aman-CERP/fuzzymatch/internal/errors"
	"github.com/Aman-CERP/fuzzymatch/internal/store"
)

// indexBlob is the vault blob name every scorer keeps its index under.
const indexBlob = "index"

// base carries what every scorer kind shares: identity, weight, and
// persistence of a gob-encoded index through the vault.
type base struct {
	field     string
	algorithm string
	kind      Kind
	weight    float64
	vault     *store.Vault
	logger    *slog.Logger
}

func (b *base) Field() string { return b.field }

func (b *base) Kind() Kind { return b.kind }

func (b *base) Algorithm() string { return b.algorithm }

func (b *base) Weight() float64 { return b.weight }

// Teardown removes the field's scope from the vault.
func (b *base) Teardown(ctx context.Context) error {
	if err := b.vault.Remove(ctx, b.field); err != nil {
		return fmt.Errorf("teardown %s: %w", b.field, err)
	}
	return nil
}

// save gob-encodes idx and writes it as the field's index blob.
func (b *base) save(ctx context.Context, idx any) (int64, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(idx); err != nil {
		return 0, fmt.Errorf("encode index: %w", err)
	}
	return b.vault.Put(ctx, b.field, indexBlob, buf.Bytes())
}

// load reads the field's index blob into idx. A missing blob is reported
// as ErrNoResult.
func (b *base) load(ctx context.Context, idx any) error {
	data, err := b.vault.Get(ctx, b.field, indexBlob)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("field %s has no index: %w", b.field, ErrNoResult)
	}
	if err != nil {
		return err
	}

	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(idx); err != nil {
		return fmerrors.New(fmerrors.ErrCodeCorruptIndex, "field index cannot be decoded", err).
			WithField(b.field).
			WithDetail(fmerrors.DetailAlgorithm, b.algorithm)
	}
	return nil
}

// result pairs ids with raw scores, applying the field weight.
// NaN raw scores are kept so ranking can push them last.
func (b *base) result(ids []string, raw []float64) *Result {
	scores := make([]Score, len(ids))
	for i, id := range ids {
		scores[i] = Score{ID: id, Raw: raw[i], Weighted: raw[i] * b.weight}
	}
	return &Result{Field: b.field, Weight: b.weight, Scores: scores}
}

// noResult wraps ErrNoResult with the reason.
func (b *base) noResult(reason string) error {
	return fmt.Errorf("field %s: %s: %w", b.field, reason, ErrNoResult)
}

// clamp01 bounds a similarity to [0, 1], mapping NaN to 0.
func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
