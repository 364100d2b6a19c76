package scorer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"

	fmerrors "github.com/Aman-CERP/fuzzymatch/internal/errors"
)

// Timedelta scores dates by proximity: 1 for the same instant, falling
// as 1 / (1 + |days apart|). Dates are read with a strftime format.
type Timedelta struct {
	base
	format string
	layout string
}

// timedeltaIndex is the persisted form of a timedelta field. Only rows
// whose value parsed are present.
type timedeltaIndex struct {
	IDs   []string
	Unix  []int64 // seconds, UTC
	Total int
}

func newTimedelta(b base, format string) (*Timedelta, error) {
	layout, err := strftime.Layout(format)
	if err == nil && !strings.Contains(format, "%") {
		err = errors.New("format has no date directives")
	}
	if err != nil {
		return nil, fmerrors.New(fmerrors.ErrCodeConfigInvalid,
			fmt.Sprintf("invalid date format %q for field %s", format, b.field), err).
			WithField(b.field).
			WithDetail(fmerrors.DetailAlgorithm, b.algorithm).
			WithSuggestion("Use strftime directives such as %d-%m-%Y or %Y-%m-%d")
	}
	return &Timedelta{base: b, format: format, layout: layout}, nil
}

// Format returns the strftime format dates are read with.
func (t *Timedelta) Format() string {
	return t.format
}

// Parse reads value with the field's date format.
func (t *Timedelta) Parse(value string) (time.Time, error) {
	return time.Parse(t.layout, strings.TrimSpace(value))
}

// Build parses the column and writes the index. Values that do not parse
// are left out of the index and logged at warn.
func (t *Timedelta) Build(ctx context.Context, col Column) (BuildStats, error) {
	if len(col.IDs) != len(col.Values) {
		return BuildStats{}, fmt.Errorf("ids and values length mismatch: %d vs %d", len(col.IDs), len(col.Values))
	}

	idx := timedeltaIndex{Total: len(col.IDs)}
	skipped := 0
	for row, value := range col.Values {
		ts, err := t.Parse(value)
		if err != nil {
			skipped++
			continue
		}
		idx.IDs = append(idx.IDs, col.IDs[row])
		idx.Unix = append(idx.Unix, ts.UTC().Unix())
	}

	if skipped > 0 {
		t.logger.Warn("timedelta_values_skipped",
			slog.Int("skipped", skipped),
			slog.Int("records", len(col.IDs)),
			slog.String("format", t.format))
	}

	n, err := t.save(ctx, idx)
	if err != nil {
		return BuildStats{}, err
	}

	return BuildStats{Records: len(col.IDs), Indexed: len(idx.IDs), Bytes: n}, nil
}

// Query scores every parsed date against value. An unparsable value has
// no result.
func (t *Timedelta) Query(ctx context.Context, value string) (*Result, error) {
	var idx timedeltaIndex
	if err := t.load(ctx, &idx); err != nil {
		return nil, err
	}
	if len(idx.IDs) == 0 {
		return nil, t.noResult("index is empty")
	}

	target, err := t.Parse(value)
	if err != nil {
		return nil, t.noResult(fmt.Sprintf("value does not match format %s", t.format))
	}
	targetUnix := target.UTC().Unix()

	raw := make([]float64, len(idx.IDs))
	for i, ts := range idx.Unix {
		raw[i] = DaySimilarity(targetUnix, ts)
	}
	return t.result(idx.IDs, raw), nil
}

// DaySimilarity maps the distance between two Unix times to (0, 1].
func DaySimilarity(a, b int64) float64 {
	days := math.Abs(float64(a-b)) / (24 * 60 * 60)
	return 1 / (1 + days)
}

var _ Scorer = (*Timedelta)(nil)
