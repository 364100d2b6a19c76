package matcher

import (
	"context"
	"log/slog"

	fmerrors "github.com/Aman-CERP/fuzzymatch/internal/errors"
	"github.com/Aman-CERP/fuzzymatch/internal/match"
	"github.com/Aman-CERP/fuzzymatch/internal/scorer"
	"github.com/Aman-CERP/fuzzymatch/internal/table"
)

// Field configures the scorer of one field.
type Field struct {
	// Algorithm is one of Algorithms().
	Algorithm string

	// Weight multiplies the field's scores. Zero means 1.
	Weight float64

	// Dedupe collapses identical values before scoring (distance algorithms).
	Dedupe bool

	// Format is the strftime date format (timedelta). Empty means "%d-%m-%Y".
	Format string
}

// Match is one ranked identity.
type Match = match.Match

// Progress reports one field finishing during Create.
type Progress = match.Progress

// Option configures a Matcher.
type Option func(*match.Options)

// WithTopN sets the maximum number of matches Get returns.
func WithTopN(n int) Option {
	return func(o *match.Options) { o.TopN = n }
}

// WithField adds or replaces the scorer settings of a field.
func WithField(name string, f Field) Option {
	return func(o *match.Options) {
		if o.Fields == nil {
			o.Fields = make(map[string]scorer.Settings)
		}
		s := scorer.Settings{Algorithm: f.Algorithm, Dedupe: f.Dedupe, Format: f.Format}
		if f.Weight != 0 {
			s.Weight = scorer.Float64(f.Weight)
		}
		o.Fields[name] = s
	}
}

// WithEncryptionKey sets the passphrase the indices are sealed with.
func WithEncryptionKey(key string) Option {
	return func(o *match.Options) { o.EncryptionKey = key }
}

// WithStoragePath sets the directory the indices are persisted in.
func WithStoragePath(path string) Option {
	return func(o *match.Options) { o.StoragePath = path }
}

// WithWorkers bounds how many fields are built at once.
func WithWorkers(n int) Option {
	return func(o *match.Options) { o.Workers = n }
}

// WithLogger sets the logger for lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(o *match.Options) { o.Logger = l }
}

// WithProgress registers a callback invoked once per field during Create.
func WithProgress(fn func(Progress)) Option {
	return func(o *match.Options) { o.OnProgress = fn }
}

// Matcher matches records across the configured fields.
type Matcher struct {
	set *match.MatchingSet
}

// New opens a Matcher. Top-N, at least one field, an encryption key and a
// storage path are required.
func New(ctx context.Context, opts ...Option) (*Matcher, error) {
	var o match.Options
	for _, opt := range opts {
		opt(&o)
	}
	set, err := match.New(ctx, o)
	if err != nil {
		return nil, err
	}
	return &Matcher{set: set}, nil
}

// Create indexes every configured field of the records, replacing any
// previous index. idColumn names the identity column.
func (m *Matcher) Create(ctx context.Context, columns []string, rows [][]string, idColumn string) error {
	t, err := table.New(columns, rows)
	if err != nil {
		return err
	}
	return m.set.Create(ctx, t, idColumn)
}

// CreateFromFile indexes a CSV or JSON file.
func (m *Matcher) CreateFromFile(ctx context.Context, path, idColumn string) error {
	t, err := table.LoadFile(path)
	if err != nil {
		return err
	}
	return m.set.Create(ctx, t, idColumn)
}

// Get returns up to top-N identities ranked by total similarity to target.
// Target needs a value for every configured field.
func (m *Matcher) Get(ctx context.Context, target map[string]string) ([]Match, error) {
	return m.set.Get(ctx, target)
}

// Delete removes every persisted field index.
func (m *Matcher) Delete(ctx context.Context) error {
	return m.set.Delete(ctx)
}

// Fields returns the configured field names, sorted.
func (m *Matcher) Fields() []string {
	return m.set.Fields()
}

// Close releases the storage handles.
func (m *Matcher) Close() error {
	return m.set.Close()
}

// Algorithms lists the accepted algorithm names.
func Algorithms() []string {
	return scorer.Algorithms()
}

// ErrorCode returns the fuzzymatch error code of err (for example
// "ERR_506_NO_RESULT"), or "" when err carries none.
func ErrorCode(err error) string {
	return fmerrors.GetCode(err)
}

// ErrorField returns the field an error refers to, or "".
func ErrorField(err error) string {
	return fmerrors.GetField(err)
}
