// Package store provides the persistence layer for field indices: an
// encrypted, field-scoped blob Vault, a SQLite Catalog of built indices,
// and an in-memory HNSW VectorIndex that round-trips through the vault.
package store

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a blob or scope does not exist.
var ErrNotFound = errors.New("store: not found")

// ErrClosed is returned when using a closed handle.
var ErrClosed = errors.New("store: closed")

var (
	errBadMagic   = errors.New("not a vault blob")
	errTruncated  = errors.New("vault blob truncated")
	errAuthFailed = errors.New("vault blob failed authentication")
)

// FieldIndexInfo describes one built field index as recorded in the catalog.
type FieldIndexInfo struct {
	Field     string
	Algorithm string
	Weight    float64
	Records   int       // rows handed to the scorer
	Indexed   int       // identities present in the index
	Bytes     int64     // sealed blob size on disk
	BuiltAt   time.Time // when the index was written
}

// VectorResult represents a vector search result.
type VectorResult struct {
	ID       string
	Distance float32
	Score    float32 // Normalized score (0-1)
}

// ErrDimensionMismatch indicates vector dimension mismatch.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}
