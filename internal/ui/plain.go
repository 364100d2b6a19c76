package ui

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// PlainRenderer prints one line per finished field, for CI and pipes.
type PlainRenderer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewPlainRenderer creates a plain text renderer.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	return &PlainRenderer{out: cfg.Output}
}

// Start implements Renderer.
func (r *PlainRenderer) Start(_ context.Context, total int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = fmt.Fprintf(r.out, "Indexing %d fields\n", total)
	return nil
}

// FieldDone implements Renderer.
func (r *PlainRenderer) FieldDone(event FieldEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if event.Err != nil {
		_, _ = fmt.Fprintf(r.out, "[%d/%d] %s (%s): FAILED: %v\n",
			event.Done, event.Total, event.Field, event.Algorithm, event.Err)
		return
	}
	_, _ = fmt.Fprintf(r.out, "[%d/%d] %s (%s): %d records, %d indexed, %s in %s\n",
		event.Done, event.Total, event.Field, event.Algorithm,
		event.Records, event.Indexed, FormatBytes(event.Bytes), event.Duration.Round(time.Millisecond))
}

// Complete implements Renderer.
func (r *PlainRenderer) Complete(summary Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintf(r.out, "Complete: %d records across %d fields in %s",
		summary.Records, summary.Fields, summary.Duration.Round(100*time.Millisecond))
	if summary.Failed > 0 {
		_, _ = fmt.Fprintf(r.out, " (%d failed)", summary.Failed)
	}
	_, _ = fmt.Fprintln(r.out)
}

// Stop implements Renderer.
func (r *PlainRenderer) Stop() error {
	return nil
}

var _ Renderer = (*PlainRenderer)(nil)
