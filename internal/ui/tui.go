package ui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TUIRenderer renders a live field list with a progress bar using bubbletea.
type TUIRenderer struct {
	mu      sync.Mutex
	cfg     Config
	program *tea.Program
	model   *createModel
	started bool
	done    chan struct{}
}

// NewTUIRenderer creates a TUI renderer. Fails when output is not a terminal.
func NewTUIRenderer(cfg Config) (*TUIRenderer, error) {
	if !IsTTY(cfg.Output) {
		return nil, fmt.Errorf("output is not a TTY")
	}

	model := newCreateModel(cfg.Title)
	if cfg.NoColor {
		model.styles = NoColorStyles()
	}

	return &TUIRenderer{
		cfg:   cfg,
		model: model,
		done:  make(chan struct{}),
	}, nil
}

// Start implements Renderer.
func (r *TUIRenderer) Start(ctx context.Context, total int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return nil
	}
	r.model.total = total

	opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithInput(nil)}
	if f, ok := r.cfg.Output.(*os.File); ok {
		opts = append(opts, tea.WithOutput(f))
	}
	r.program = tea.NewProgram(r.model, opts...)
	r.started = true

	go func() {
		defer close(r.done)
		_, _ = r.program.Run()
	}()
	return nil
}

// FieldDone implements Renderer.
func (r *TUIRenderer) FieldDone(event FieldEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.program != nil {
		r.program.Send(fieldDoneMsg(event))
	}
}

// Complete implements Renderer.
func (r *TUIRenderer) Complete(summary Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.program != nil {
		r.program.Send(completeMsg(summary))
	}
}

// Stop implements Renderer. Waits briefly for the final frame.
func (r *TUIRenderer) Stop() error {
	r.mu.Lock()
	program := r.program
	r.mu.Unlock()

	if program == nil {
		return nil
	}
	select {
	case <-r.done:
	case <-time.After(500 * time.Millisecond):
		program.Quit()
		select {
		case <-r.done:
		case <-time.After(2 * time.Second):
		}
	}
	return nil
}

type fieldDoneMsg FieldEvent
type completeMsg Summary

// createModel is the bubbletea model for index creation.
type createModel struct {
	title    string
	total    int
	events   []FieldEvent
	summary  *Summary
	width    int
	spinner  spinner.Model
	bar      progress.Model
	styles   Styles
	quitting bool
}

func newCreateModel(title string) *createModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccent))

	return &createModel{
		title:   title,
		width:   80,
		spinner: s,
		bar: progress.New(
			progress.WithSolidFill(ColorAccent),
			progress.WithWidth(40),
			progress.WithoutPercentage(),
		),
		styles: DefaultStyles(),
	}
}

// Init implements tea.Model.
func (m *createModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m *createModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = max(msg.Width-30, 20)

	case fieldDoneMsg:
		m.events = append(m.events, FieldEvent(msg))
		if m.total < msg.Total {
			m.total = msg.Total
		}

	case completeMsg:
		s := Summary(msg)
		m.summary = &s
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *createModel) View() string {
	if m.quitting {
		return "Cancelled.\n"
	}

	var lines []string
	lines = append(lines, m.styles.Header.Render(m.title), "")

	for _, ev := range m.events {
		lines = append(lines, m.renderField(ev))
	}

	if m.summary != nil {
		lines = append(lines, "", m.renderSummary(*m.summary))
		return m.styles.Panel.Render(strings.Join(lines, "\n")) + "\n"
	}

	pct := 0.0
	if m.total > 0 {
		pct = float64(len(m.events)) / float64(m.total)
	}
	lines = append(lines, "",
		fmt.Sprintf("%s %s  %s", m.spinner.View(), m.bar.ViewAs(pct),
			m.styles.Label.Render(fmt.Sprintf("%d / %d fields", len(m.events), m.total))))

	return m.styles.Panel.Render(strings.Join(lines, "\n")) + "\n"
}

func (m *createModel) renderField(ev FieldEvent) string {
	if ev.Err != nil {
		return m.styles.Error.Render("✗ "+ev.Field) + " " + m.styles.Dim.Render(ev.Err.Error())
	}
	detail := fmt.Sprintf("%s  %d records  %s  %s",
		ev.Algorithm, ev.Records, FormatBytes(ev.Bytes), formatDuration(ev.Duration))
	return m.styles.Success.Render("✓ "+ev.Field) + "  " + m.styles.Label.Render(detail)
}

func (m *createModel) renderSummary(s Summary) string {
	line := fmt.Sprintf("%d records across %d fields in %s", s.Records, s.Fields, formatDuration(s.Duration))
	if s.Failed > 0 {
		return m.styles.Error.Render(fmt.Sprintf("✗ %s, %d failed", line, s.Failed))
	}
	return m.styles.Success.Render("✓ " + line)
}

// formatDuration formats a duration for humans.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		d = d.Round(time.Second)
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		d = d.Round(time.Minute)
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

var _ Renderer = (*TUIRenderer)(nil)
