// Package match implements the matching orchestrator: one scorer per
// configured field, batch index creation, point queries aggregated under
// inner-join semantics, and teardown of the persisted indices.
package match

import (
	"log/slog"
	"time"

	"github.com/Aman-CERP/fuzzymatch/internal/embed"
	"github.com/Aman-CERP/fuzzymatch/internal/scorer"
)

// IDField is the canonical identity column every table is renamed to.
const IDField = "id"

// Options configures a MatchingSet.
type Options struct {
	// TopN is the maximum number of matches Get returns. Must be > 0.
	TopN int

	// Fields maps each field name to its scorer settings.
	Fields map[string]scorer.Settings

	// EncryptionKey is the passphrase the field indices are sealed with.
	EncryptionKey string

	// StoragePath is the storage root. Created if absent.
	StoragePath string

	// Workers bounds how many fields Create builds at once. 0 means
	// runtime.NumCPU(). Get always queries every field at once.
	Workers int

	// Logger receives lifecycle events. Nil means slog.Default().
	Logger *slog.Logger

	// Embedder is shared by vector fields. Nil gives each vector field its own ValueCache over the static embedder.
	Embedder embed.Embedder

	// OnProgress, if set, is called once per field as Create finishes it.
	// Calls are serialized.
	OnProgress func(Progress)

	// newScorer overrides scorer.New in tests.
	newScorer func(field string, s scorer.Settings, deps scorer.Deps) (scorer.Scorer, error)
}

// Match is one ranked identity.
type Match struct {
	ID         string
	Similarity float64            // sum of the weighted field scores
	Fields     map[string]float64 // weighted score per field
}

// Progress reports one field finishing during Create.
type Progress struct {
	Field     string
	Algorithm string
	Done      int // fields finished so far, this one included
	Total     int
	Stats     scorer.BuildStats
	Duration  time.Duration
	Err       error
}
