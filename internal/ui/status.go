package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// FieldStatus describes one built field index.
type FieldStatus struct {
	Field     string    `json:"field"`
	Algorithm string    `json:"algorithm"`
	Weight    float64   `json:"weight"`
	Records   int       `json:"records"`
	Indexed   int       `json:"indexed"`
	Bytes     int64     `json:"bytes"`
	BuiltAt   time.Time `json:"built_at"`
}

// StatusInfo is what `fuzzymatch info` shows.
type StatusInfo struct {
	StoragePath string        `json:"storage_path"`
	Configured  []string      `json:"configured_fields"`
	Fields      []FieldStatus `json:"fields"`
	TotalBytes  int64         `json:"total_bytes"`
	LastBuilt   time.Time     `json:"last_built"`
}

// NewStatusInfo totals fields into a StatusInfo.
func NewStatusInfo(storagePath string, configured []string, fields []FieldStatus) StatusInfo {
	info := StatusInfo{StoragePath: storagePath, Configured: configured, Fields: fields}
	for _, f := range fields {
		info.TotalBytes += f.Bytes
		if f.BuiltAt.After(info.LastBuilt) {
			info.LastBuilt = f.BuiltAt
		}
	}
	return info
}

// Missing returns configured fields that have no built index.
func (s StatusInfo) Missing() []string {
	built := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		built[f.Field] = true
	}
	var missing []string
	for _, f := range s.Configured {
		if !built[f] {
			missing = append(missing, f)
		}
	}
	return missing
}

// StatusRenderer displays index status.
type StatusRenderer struct {
	out    io.Writer
	styles Styles
}

// NewStatusRenderer creates a status renderer.
func NewStatusRenderer(out io.Writer, noColor bool) *StatusRenderer {
	return &StatusRenderer{out: out, styles: GetStyles(noColor)}
}

// Render writes status as a table.
func (r *StatusRenderer) Render(info StatusInfo) error {
	_, _ = fmt.Fprintf(r.out, "%s\n\n", r.styles.Header.Render("Index Status: "+info.StoragePath))

	if len(info.Fields) == 0 {
		_, _ = fmt.Fprintln(r.out, r.styles.Warning.Render("  No field indices built. Run `fuzzymatch create`."))
		return nil
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(r.styles.Border).
		Headers("FIELD", "ALGORITHM", "WEIGHT", "RECORDS", "INDEXED", "SIZE", "BUILT").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.styles.Active.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	for _, f := range info.Fields {
		t.Row(
			f.Field,
			f.Algorithm,
			strconv.FormatFloat(f.Weight, 'g', -1, 64),
			strconv.Itoa(f.Records),
			strconv.Itoa(f.Indexed),
			FormatBytes(f.Bytes),
			formatTime(f.BuiltAt),
		)
	}
	_, _ = fmt.Fprintln(r.out, t.Render())

	_, _ = fmt.Fprintf(r.out, "\n  %s %s\n", r.styles.Label.Render("Total size:"), FormatBytes(info.TotalBytes))
	if missing := info.Missing(); len(missing) > 0 {
		for _, f := range missing {
			_, _ = fmt.Fprintf(r.out, "  %s\n", r.styles.Warning.Render("not built: "+f))
		}
	}
	return nil
}

// RenderJSON writes status as indented JSON.
func (r *StatusRenderer) RenderJSON(info StatusInfo) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}

// formatTime formats t relative to now.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minute") + " ago"
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour") + " ago"
	case diff < 7*24*time.Hour:
		return plural(int(diff.Hours()/24), "day") + " ago"
	default:
		return t.Format("2006-01-02 15:04")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// FormatBytes formats bytes for humans.
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
