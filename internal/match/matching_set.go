package match

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	fmerrors "github.com/Aman-CERP/fuzzymatch/internal/errors"
	"github.com/Aman-CERP/fuzzymatch/internal/scorer"
	"github.com/Aman-CERP/fuzzymatch/internal/store"
	"github.com/Aman-CERP/fuzzymatch/internal/table"
)

// MatchingSet owns one scorer per configured field and the storage they
// persist to. The field to scorer mapping is fixed at construction.
//
// Get is safe for concurrent use. Create and Delete are serialized within
// the process and across processes sharing the storage root.
type MatchingSet struct {
	topN    int
	fields  []string // sorted
	scorers map[string]scorer.Scorer
	workers int

	vault   *store.Vault
	catalog *store.Catalog
	logger  *slog.Logger

	onProgress func(Progress)
	progressMu sync.Mutex
	done       int

	mu     sync.Mutex // serializes Create, Delete and Close
	closed bool
}

// New validates opts, opens the storage root and builds every field's
// scorer. On any error nothing is left open.
func New(ctx context.Context, opts Options) (*MatchingSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateOptions(opts); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := opts.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	newScorer := opts.newScorer
	if newScorer == nil {
		newScorer = scorer.New
	}

	if err := os.MkdirAll(opts.StoragePath, 0o700); err != nil {
		return nil, fmerrors.IOError("failed to create storage root", err).
			WithDetail(fmerrors.DetailPath, opts.StoragePath)
	}

	vault, err := store.OpenVault(opts.StoragePath, opts.EncryptionKey, store.WithVaultLogger(logger))
	if err != nil {
		return nil, err
	}

	fields := make([]string, 0, len(opts.Fields))
	for f := range opts.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	deps := scorer.Deps{Vault: vault, Embedder: opts.Embedder, Logger: logger}
	scorers := make(map[string]scorer.Scorer, len(fields))
	for _, f := range fields {
		sc, err := newScorer(f, opts.Fields[f], deps)
		if err != nil {
			_ = vault.Close()
			return nil, err
		}
		scorers[f] = sc
	}

	catalog, err := store.OpenCatalog(opts.StoragePath)
	if err != nil {
		_ = vault.Close()
		return nil, fmerrors.IOError("failed to open catalog", err).
			WithDetail(fmerrors.DetailPath, opts.StoragePath)
	}

	logger.Debug("matching_set_ready",
		slog.Int("fields", len(fields)),
		slog.Int("top_n", opts.TopN),
		slog.Int("workers", workers),
		slog.String("storage", opts.StoragePath))

	return &MatchingSet{
		topN:       opts.TopN,
		fields:     fields,
		scorers:    scorers,
		workers:    workers,
		vault:      vault,
		catalog:    catalog,
		logger:     logger,
		onProgress: opts.OnProgress,
	}, nil
}

func validateOptions(opts Options) error {
	if opts.TopN <= 0 {
		return fmerrors.ConfigError(fmt.Sprintf("top_n must be > 0, got %d", opts.TopN), nil)
	}
	if len(opts.Fields) == 0 {
		return fmerrors.ConfigError("at least one field must be configured", nil).
			WithSuggestion("Add a fields section to the configuration")
	}
	if _, ok := opts.Fields[IDField]; ok {
		return fmerrors.New(fmerrors.ErrCodeIdentityCollision,
			fmt.Sprintf("field name %q is reserved for the identity column", IDField), nil).
			WithField(IDField)
	}
	if opts.Workers < 0 {
		return fmerrors.ConfigError(fmt.Sprintf("workers must be >= 0, got %d", opts.Workers), nil)
	}
	if strings.TrimSpace(opts.StoragePath) == "" {
		return fmerrors.ConfigError("storage path must not be empty", nil)
	}
	if opts.EncryptionKey == "" {
		return fmerrors.New(fmerrors.ErrCodeEncryptionKeyMissing, "encryption key is required", nil).
			WithSuggestion("Set FUZZYMATCH_ENCRYPTION_KEY")
	}
	return nil
}

// Fields returns the configured field names, sorted.
func (m *MatchingSet) Fields() []string {
	out := make([]string, len(m.fields))
	copy(out, m.fields)
	return out
}

// TopN returns the maximum number of matches Get returns.
func (m *MatchingSet) TopN() int {
	return m.topN
}

// Scorer returns the scorer bound to field.
func (m *MatchingSet) Scorer(field string) (scorer.Scorer, bool) {
	sc, ok := m.scorers[field]
	return sc, ok
}

// Create validates t and rebuilds every field index from it. idColumn is
// renamed to the identity field. All validation happens before any index
// is touched. When a build fails, the fields that had not finished are
// torn down and leave the catalog.
func (m *MatchingSet) Create(ctx context.Context, t *table.Table, idColumn string) error {
	columns, err := m.prepare(t, idColumn)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return store.ErrClosed
	}

	unlock, err := m.vault.Lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	start := time.Now()
	m.logger.Info("create_started",
		slog.Int("records", len(columns[IDField])),
		slog.Int("fields", len(m.fields)))

	ids := columns[IDField]
	m.done = 0
	var (
		builtMu sync.Mutex
		built   = make(map[string]bool, len(m.fields))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)
	for _, f := range m.fields {
		sc := m.scorers[f]
		values := columns[f]
		g.Go(func() error {
			if err := m.buildField(gctx, sc, scorer.Column{IDs: ids, Values: values}); err != nil {
				return err
			}
			builtMu.Lock()
			built[sc.Field()] = true
			builtMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		m.logger.Error("create_failed", slog.String("error", err.Error()))
		m.discardUnbuilt(context.WithoutCancel(ctx), built)
		return err
	}

	m.logger.Info("create_complete",
		slog.Int("records", len(ids)),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// discardUnbuilt tears down every field a failed Create did not rebuild,
// so the persisted set never mixes indices of two tables. Fields that did
// finish keep the new data. Failures here are logged; the build error is
// what Create reports.
func (m *MatchingSet) discardUnbuilt(ctx context.Context, built map[string]bool) {
	for _, f := range m.fields {
		if built[f] {
			continue
		}
		if err := m.scorers[f].Teardown(ctx); err != nil {
			m.logger.Warn("discard_failed", slog.String("field", f), slog.String("error", err.Error()))
			continue
		}
		if err := m.catalog.Remove(ctx, f); err != nil {
			m.logger.Warn("discard_failed", slog.String("field", f), slog.String("error", err.Error()))
			continue
		}
		m.logger.Info("field_discarded", slog.String("field", f))
	}
}

// prepare checks the table schema and identities and returns each needed
// column by field name, identities under IDField.
func (m *MatchingSet) prepare(t *table.Table, idColumn string) (map[string][]string, error) {
	if t == nil {
		return nil, fmerrors.ValidationError("table is nil", nil)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	if !t.Has(idColumn) {
		return nil, fmerrors.New(fmerrors.ErrCodeMissingIDColumn,
			fmt.Sprintf("identity column %q not found", idColumn), nil).
			WithDetail(fmerrors.DetailColumn, idColumn).
			WithSuggestion("Pass the name of the column holding record identities")
	}
	renamed := t.Rename(idColumn, IDField)
	if renamed.Count(IDField) > 1 {
		return nil, fmerrors.New(fmerrors.ErrCodeIdentityCollision,
			fmt.Sprintf("table already has a %q column besides %q", IDField, idColumn), nil).
			WithDetail(fmerrors.DetailColumn, IDField)
	}

	var missing []string
	for _, f := range m.fields {
		if !renamed.Has(f) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, fmerrors.New(fmerrors.ErrCodeMissingFields,
			"missing fields: "+strings.Join(missing, ", "), nil).
			WithDetail(fmerrors.DetailColumn, strings.Join(missing, ", "))
	}

	ids, _ := renamed.Column(IDField)
	seen := make(map[string]int, len(ids))
	for row, id := range ids {
		if strings.TrimSpace(id) == "" {
			return nil, fmerrors.ValidationError(fmt.Sprintf("row %d has an empty identity", row+1), nil).
				WithDetail(fmerrors.DetailColumn, idColumn)
		}
		if prev, dup := seen[id]; dup {
			return nil, fmerrors.ValidationError(
				fmt.Sprintf("identity %q appears in rows %d and %d", id, prev+1, row+1), nil).
				WithDetail(fmerrors.DetailColumn, idColumn)
		}
		seen[id] = row
	}

	columns := make(map[string][]string, len(m.fields)+1)
	columns[IDField] = ids
	for _, f := range m.fields {
		columns[f], _ = renamed.Column(f)
	}
	return columns, nil
}

func (m *MatchingSet) buildField(ctx context.Context, sc scorer.Scorer, col scorer.Column) (err error) {
	start := time.Now()
	var stats scorer.BuildStats
	defer func() { m.report(sc, stats, time.Since(start), err) }()

	stats, err = sc.Build(ctx, col)
	if err != nil {
		return fmerrors.New(fmerrors.ErrCodeIndexFailed,
			fmt.Sprintf("failed to index field %s", sc.Field()), err).
			WithField(sc.Field()).
			WithDetail(fmerrors.DetailAlgorithm, sc.Algorithm())
	}

	info := store.FieldIndexInfo{
		Field:     sc.Field(),
		Algorithm: sc.Algorithm(),
		Weight:    sc.Weight(),
		Records:   stats.Records,
		Indexed:   stats.Indexed,
		Bytes:     stats.Bytes,
		BuiltAt:   time.Now(),
	}
	if err := m.catalog.Record(ctx, info); err != nil {
		return fmerrors.New(fmerrors.ErrCodeIndexFailed,
			fmt.Sprintf("failed to record field %s", sc.Field()), err).
			WithField(sc.Field())
	}

	m.logger.Debug("field_indexed",
		slog.String("field", sc.Field()),
		slog.String("algorithm", sc.Algorithm()),
		slog.Int("records", stats.Records),
		slog.Int("indexed", stats.Indexed),
		slog.Int64("bytes", stats.Bytes),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (m *MatchingSet) report(sc scorer.Scorer, stats scorer.BuildStats, d time.Duration, err error) {
	if m.onProgress == nil {
		return
	}
	m.progressMu.Lock()
	defer m.progressMu.Unlock()
	m.done++
	m.onProgress(Progress{
		Field:     sc.Field(),
		Algorithm: sc.Algorithm(),
		Done:      m.done,
		Total:     len(m.fields),
		Stats:     stats,
		Duration:  d,
		Err:       err,
	})
}

// Get scores target against every field and returns at most TopN matches,
// best first. Only identities every field scored are returned. Any field
// without a result fails the whole query.
func (m *MatchingSet) Get(ctx context.Context, target map[string]string) ([]Match, error) {
	var missing []string
	for _, f := range m.fields {
		if _, ok := target[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, fmerrors.New(fmerrors.ErrCodeInvalidTarget,
			"target is missing fields: "+strings.Join(missing, ", "), nil).
			WithField(missing[0])
	}

	start := time.Now()
	results := make([]*scorer.Result, len(m.fields))

	// All fields run at once; Workers bounds builds only.
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range m.fields {
		sc := m.scorers[f]
		value := target[f]
		g.Go(func() error {
			res, err := sc.Query(gctx, value)
			if err != nil {
				return queryError(sc, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	matches := Aggregate(results, m.topN)

	m.logger.Debug("match_complete",
		slog.Int("fields", len(results)),
		slog.Int("matches", len(matches)),
		slog.Duration("duration", time.Since(start)))
	return matches, nil
}

func queryError(sc scorer.Scorer, err error) error {
	if errors.Is(err, scorer.ErrNoResult) {
		return fmerrors.New(fmerrors.ErrCodeNoResult,
			fmt.Sprintf("field %s returned no result", sc.Field()), err).
			WithField(sc.Field()).
			WithSuggestion("Run 'fuzzymatch create' first, and check the target value is valid for the field")
	}
	return fmerrors.New(fmerrors.ErrCodeMatchFailed,
		fmt.Sprintf("failed to match field %s", sc.Field()), err).
		WithField(sc.Field()).
		WithDetail(fmerrors.DetailAlgorithm, sc.Algorithm())
}

// Delete tears down every field index, continuing past failures. Every
// failure is reported in one ERR_507 error.
func (m *MatchingSet) Delete(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return store.ErrClosed
	}

	unlock, err := m.vault.Lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	var errs []error
	for _, f := range m.fields {
		if err := m.scorers[f].Teardown(ctx); err != nil {
			m.logger.Warn("teardown_failed", slog.String("field", f), slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("field %s: %w", f, err))
			continue
		}
		if err := m.catalog.Remove(ctx, f); err != nil {
			errs = append(errs, fmt.Errorf("field %s: %w", f, err))
		}
	}

	if len(errs) > 0 {
		return fmerrors.New(fmerrors.ErrCodeTeardownFailed,
			fmt.Sprintf("failed to tear down %d of %d fields", len(errs), len(m.fields)), errors.Join(errs...))
	}

	m.logger.Info("delete_complete", slog.Int("fields", len(m.fields)))
	return nil
}

// Status returns the catalog rows of the built field indices.
func (m *MatchingSet) Status(ctx context.Context) ([]store.FieldIndexInfo, error) {
	return m.catalog.List(ctx)
}

// StoragePath returns the storage root.
func (m *MatchingSet) StoragePath() string {
	return m.vault.Root()
}

// Close releases the catalog and vault. Persisted indices are kept.
func (m *MatchingSet) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	return errors.Join(m.catalog.Close(), m.vault.Close())
}
