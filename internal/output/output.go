// Package output formats CLI results: status lines and ranked match tables.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"

	"github.com/Aman-CERP/fuzzymatch/internal/match"
)

// Writer provides formatted output for CLI.
type Writer struct {
	out io.Writer

	ok   lipgloss.Style
	warn lipgloss.Style
	bad  lipgloss.Style
	head lipgloss.Style
	dim  lipgloss.Style
}

// New creates a Writer. Color is used only on a terminal without NO_COLOR.
func New(out io.Writer) *Writer {
	return NewWithColor(out, detectColor(out))
}

// NewWithColor creates a Writer with color forced on or off.
func NewWithColor(out io.Writer, useColor bool) *Writer {
	w := &Writer{
		out:  out,
		ok:   lipgloss.NewStyle(),
		warn: lipgloss.NewStyle(),
		bad:  lipgloss.NewStyle(),
		head: lipgloss.NewStyle(),
		dim:  lipgloss.NewStyle(),
	}
	if useColor {
		w.ok = w.ok.Foreground(lipgloss.Color("42"))
		w.warn = w.warn.Foreground(lipgloss.Color("220"))
		w.bad = w.bad.Foreground(lipgloss.Color("196"))
		w.head = w.head.Bold(true).Foreground(lipgloss.Color("39"))
		w.dim = w.dim.Foreground(lipgloss.Color("245"))
	}
	return w
}

func detectColor(out io.Writer) bool {
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Status prints a status message with an icon.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success message with checkmark.
func (w *Writer) Success(msg string) {
	w.Status(w.ok.Render("✓"), msg)
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status(w.warn.Render("!"), msg)
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status(w.bad.Render("✗"), msg)
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Code prints a code block with indentation.
func (w *Writer) Code(content string) {
	_, _ = fmt.Fprintln(w.out)
	for _, line := range strings.Split(content, "\n") {
		_, _ = fmt.Fprintf(w.out, "  %s\n", line)
	}
	_, _ = fmt.Fprintln(w.out)
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// Matches prints ranked matches as a table: rank, id, total similarity and
// one weighted score column per field.
func (w *Writer) Matches(matches []match.Match, fields []string) {
	if len(matches) == 0 {
		w.Warning("No matches")
		return
	}

	headers := append([]string{"#", "ID", "SIMILARITY"}, upper(fields)...)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(w.dim).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return w.head.Padding(0, 1)
			}
			if col != 1 {
				s = s.Align(lipgloss.Right)
			}
			return s
		})

	for i, m := range matches {
		row := []string{strconv.Itoa(i + 1), m.ID, FormatScore(m.Similarity)}
		for _, f := range fields {
			row = append(row, FormatScore(m.Fields[f]))
		}
		t.Row(row...)
	}
	_, _ = fmt.Fprintln(w.out, t.Render())
}

// jsonMatch is the wire shape of a match.
type jsonMatch struct {
	ID         string             `json:"id"`
	Similarity float64            `json:"similarity"`
	Fields     map[string]float64 `json:"fields"`
}

// MatchesJSON prints matches as an indented JSON array, best first.
func (w *Writer) MatchesJSON(matches []match.Match) error {
	out := make([]jsonMatch, len(matches))
	for i, m := range matches {
		out[i] = jsonMatch{ID: m.ID, Similarity: m.Similarity, Fields: m.Fields}
	}
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// FormatScore renders a score with four decimals.
func FormatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func upper(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToUpper(s)
	}
	return out
}
