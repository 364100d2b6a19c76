package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

// CatalogFile is the catalog database name inside the storage root.
const CatalogFile = "catalog.db"

// Catalog records which field indices exist and how they were built.
// It holds no record data; blobs live in the Vault.
type Catalog struct {
	db   *sql.DB
	path string
}

// OpenCatalog opens (or creates) the catalog in dir.
func OpenCatalog(dir string) (*Catalog, error) {
	path := filepath.Join(dir, CatalogFile)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	// Single writer to prevent lock contention
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// DSN params may be ignored by modernc.org/sqlite, so set pragmas directly
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	c := &Catalog{db: db, path: path}
	if err := c.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return c, nil
}

func (c *Catalog) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS field_indexes (
		field     TEXT PRIMARY KEY,
		algorithm TEXT NOT NULL,
		weight    REAL NOT NULL,
		records   INTEGER NOT NULL,
		indexed   INTEGER NOT NULL,
		bytes     INTEGER NOT NULL,
		built_at  INTEGER NOT NULL
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`
	_, err := c.db.Exec(schema)
	return err
}

// Path returns the catalog database path.
func (c *Catalog) Path() string {
	return c.path
}

// Record upserts the row for a freshly built field index.
func (c *Catalog) Record(ctx context.Context, info FieldIndexInfo) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO field_indexes (field, algorithm, weight, records, indexed, bytes, built_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(field) DO UPDATE SET
			algorithm = excluded.algorithm,
			weight    = excluded.weight,
			records   = excluded.records,
			indexed   = excluded.indexed,
			bytes     = excluded.bytes,
			built_at  = excluded.built_at`,
		info.Field, info.Algorithm, info.Weight, info.Records, info.Indexed, info.Bytes, info.BuiltAt.UnixNano())
	if err != nil {
		return fmt.Errorf("record field index %s: %w", info.Field, err)
	}
	return nil
}

// Remove deletes the row for field. Removing an absent row is not an error.
func (c *Catalog) Remove(ctx context.Context, field string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM field_indexes WHERE field = ?`, field); err != nil {
		return fmt.Errorf("remove field index %s: %w", field, err)
	}
	return nil
}

// List returns all recorded field indices ordered by field name.
func (c *Catalog) List(ctx context.Context) ([]FieldIndexInfo, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT field, algorithm, weight, records, indexed, bytes, built_at
		FROM field_indexes
		ORDER BY field`)
	if err != nil {
		return nil, fmt.Errorf("list field indexes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var infos []FieldIndexInfo
	for rows.Next() {
		var info FieldIndexInfo
		var builtAt int64
		if err := rows.Scan(&info.Field, &info.Algorithm, &info.Weight, &info.Records, &info.Indexed, &info.Bytes, &builtAt); err != nil {
			return nil, fmt.Errorf("scan field index: %w", err)
		}
		info.BuiltAt = time.Unix(0, builtAt)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}
