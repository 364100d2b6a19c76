// Package scorer provides per-field similarity scorers and the factory that
// builds them from declarative settings.
//
// A scorer owns one field: Build indexes the field's column into the vault,
// Query scores every indexed identity against a query value, and Teardown
// wipes the field's index. Four kinds exist: distance (string similarity),
// vector (embedding cosine), timedelta (date proximity) and null (constant
// zero).
package scorer

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Aman-CERP/fuzzymatch/internal/embed"
	"github.com/Aman-CERP/fuzzymatch/internal/store"
)

// ErrNoResult reports that a scorer has nothing to score against: its index
// is missing or empty, or the query value cannot be interpreted.
var ErrNoResult = errors.New("scorer: no result")

// Kind is the scorer family an algorithm resolves to.
type Kind string

const (
	KindDistance  Kind = "distance"
	KindVector    Kind = "vector"
	KindTimedelta Kind = "timedelta"
	KindNull      Kind = "null"
)

// Settings holds one field's declarative scorer configuration.
type Settings struct {
	// Algorithm selects the scorer, e.g. "levenshtein", "vector", "timedelta", "null".
	Algorithm string

	// Weight multiplies every raw score. Nil means DefaultWeight.
	Weight *float64

	// Dedupe collapses identical normalized values before scoring (distance only).
	Dedupe bool

	// Format is the strftime date format (timedelta only). Empty means DefaultFormat.
	Format string
}

const (
	// DefaultWeight is used when Settings.Weight is nil.
	DefaultWeight = 1.0

	// DefaultFormat is the timedelta date format used when none is given.
	DefaultFormat = "%d-%m-%Y"
)

// WeightOrDefault returns the configured weight or DefaultWeight.
func (s Settings) WeightOrDefault() float64 {
	if s.Weight == nil {
		return DefaultWeight
	}
	return *s.Weight
}

// FormatOrDefault returns the configured date format or DefaultFormat.
func (s Settings) FormatOrDefault() string {
	if strings.TrimSpace(s.Format) == "" {
		return DefaultFormat
	}
	return s.Format
}

// Float64 returns a pointer to v, for filling Settings.Weight.
func Float64(v float64) *float64 {
	return &v
}

// Deps are the shared handles scorers persist through and embed with.
type Deps struct {
	Vault    *store.Vault
	Embedder embed.Embedder // vector scorers only; defaults to a static embedder behind a ValueCache
	Logger   *slog.Logger
}

// Column is one field's values with the identity of each row.
type Column struct {
	IDs    []string
	Values []string
}

// Score is one identity's similarity for one field.
type Score struct {
	ID       string
	Raw      float64 // algorithm similarity, higher is more similar
	Weighted float64 // Raw * field weight
}

// Result holds one field's scores in dataset row order.
type Result struct {
	Field  string
	Weight float64
	Scores []Score
}

// BuildStats summarizes a Build for the catalog.
type BuildStats struct {
	Records int   // rows handed to Build
	Indexed int   // identities present in the index
	Bytes   int64 // sealed blob size
}

// Scorer indexes and scores one field.
// Implementations are safe for concurrent Query calls.
type Scorer interface {
	// Field returns the field this scorer owns.
	Field() string

	// Kind returns the scorer family.
	Kind() Kind

	// Algorithm returns the resolved algorithm name.
	Algorithm() string

	// Weight returns the field weight.
	Weight() float64

	// Build indexes col, replacing any previous index for the field.
	Build(ctx context.Context, col Column) (BuildStats, error)

	// Query scores every indexed identity against value.
	// Returns an error wrapping ErrNoResult when there is nothing to score.
	Query(ctx context.Context, value string) (*Result, error)

	// Teardown deletes the field's index. Tearing down an absent index is not an error.
	Teardown(ctx context.Context) error
}
