// Package table is the tabular boundary of fuzzymatch: it loads record sets
// from CSV or JSON into an ordered, string-valued Table and parses target
// records.
package table

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	fmerrors "github.com/Aman-CERP/fuzzymatch/internal/errors"
)

// Table is an ordered set of records. Every row has exactly len(Columns)
// values. Row order is the dataset order scorers report results in.
type Table struct {
	Columns []string
	Rows    [][]string
}

// New builds a table, validating the header and row widths.
func New(columns []string, rows [][]string) (*Table, error) {
	t := &Table{Columns: columns, Rows: rows}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks for blank or duplicate column names and ragged rows.
func (t *Table) Validate() error {
	seen := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		if strings.TrimSpace(c) == "" {
			return fmerrors.New(fmerrors.ErrCodeInvalidInput, "table has a blank column name", nil)
		}
		if _, dup := seen[c]; dup {
			return fmerrors.New(fmerrors.ErrCodeInvalidInput, "table has a duplicate column name", nil).
				WithDetail(fmerrors.DetailColumn, c)
		}
		seen[c] = struct{}{}
	}

	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmerrors.New(fmerrors.ErrCodeInvalidInput,
				fmt.Sprintf("row %d has %d values, expected %d", i+1, len(row), len(t.Columns)), nil)
		}
	}
	return nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Index returns the position of column name, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Has reports whether the table has column name.
func (t *Table) Has(name string) bool {
	return t.Index(name) >= 0
}

// Column returns a copy of the values of column name in row order.
func (t *Table) Column(name string) ([]string, bool) {
	idx := t.Index(name)
	if idx < 0 {
		return nil, false
	}
	values := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[idx]
	}
	return values, true
}

// Rename returns a copy of the table whose column from is called to.
// Rows are shared with the receiver.
func (t *Table) Rename(from, to string) *Table {
	columns := make([]string, len(t.Columns))
	copy(columns, t.Columns)
	for i, c := range columns {
		if c == from {
			columns[i] = to
		}
	}
	return &Table{Columns: columns, Rows: t.Rows}
}

// Count reports how many columns are named name.
func (t *Table) Count(name string) int {
	n := 0
	for _, c := range t.Columns {
		if c == name {
			n++
		}
	}
	return n
}

// LoadFile reads a table from path, choosing the format by extension:
// .json for an array of objects, anything else as CSV.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmerrors.New(fmerrors.ErrCodeFileNotFound, "data file not found", err).
				WithDetail(fmerrors.DetailPath, path)
		}
		return nil, fmerrors.IOError("failed to open data file", err).WithDetail(fmerrors.DetailPath, path)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ReadJSON(f)
	}
	return ReadCSV(f)
}

// ReadCSV reads a header row followed by records. A UTF-8 byte order mark
// on the first header is dropped. Rows of the wrong width are rejected.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmerrors.New(fmerrors.ErrCodeInvalidInput, "data has no header row", nil)
	}
	if err != nil {
		return nil, fmerrors.New(fmerrors.ErrCodeInvalidInput, "failed to read CSV header", err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}
	if len(columns) > 0 {
		columns[0] = strings.TrimPrefix(columns[0], "\ufeff")
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmerrors.New(fmerrors.ErrCodeInvalidInput, "failed to read CSV record", err)
		}
		rows = append(rows, record)
	}

	return New(columns, rows)
}

// ReadJSON reads an array of flat objects. Columns are the union of all
// keys, sorted; a key missing from an object yields an empty value.
func ReadJSON(r io.Reader) (*Table, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var objects []map[string]any
	if err := dec.Decode(&objects); err != nil {
		return nil, fmerrors.New(fmerrors.ErrCodeInvalidInput, "data must be a JSON array of objects", err)
	}

	keys := make(map[string]struct{})
	for _, obj := range objects {
		for k := range obj {
			keys[k] = struct{}{}
		}
	}
	columns := make([]string, 0, len(keys))
	for k := range keys {
		columns = append(columns, k)
	}
	sort.Strings(columns)

	rows := make([][]string, len(objects))
	for i, obj := range objects {
		row := make([]string, len(columns))
		for j, c := range columns {
			v, err := stringify(obj[c])
			if err != nil {
				return nil, fmerrors.New(fmerrors.ErrCodeInvalidInput,
					fmt.Sprintf("record %d has an unreadable value", i+1), err).WithDetail(fmerrors.DetailColumn, c)
			}
			row[j] = v
		}
		rows[i] = row
	}

	return New(columns, rows)
}

// stringify renders a decoded JSON value as a field value. Arrays and
// objects are kept as compact JSON so vector fields can carry embeddings.
func stringify(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case json.Number:
		return x.String(), nil
	case bool:
		return strconv.FormatBool(x), nil
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(x); err != nil {
			return "", err
		}
		return strings.TrimSuffix(buf.String(), "\n"), nil
	}
}

// ParseTarget parses field=value pairs into a target record. Only the
// first '=' separates; values may contain further '=' characters.
func ParseTarget(pairs []string) (map[string]string, error) {
	target := make(map[string]string, len(pairs))
	for _, p := range pairs {
		field, value, ok := strings.Cut(p, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return nil, fmerrors.New(fmerrors.ErrCodeInvalidTarget,
				fmt.Sprintf("target %q is not field=value", p), nil)
		}
		target[field] = value
	}
	return target, nil
}

// ReadTargetJSON reads a single JSON object as a target record.
func ReadTargetJSON(r io.Reader) (map[string]string, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmerrors.New(fmerrors.ErrCodeInvalidTarget, "target must be a JSON object", err)
	}

	target := make(map[string]string, len(obj))
	for k, v := range obj {
		s, err := stringify(v)
		if err != nil {
			return nil, fmerrors.New(fmerrors.ErrCodeInvalidTarget, "target has an unreadable value", err).
				WithField(k)
		}
		target[k] = s
	}
	return target, nil
}
