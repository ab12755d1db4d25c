// Package ui renders a bubbletea progress view for long codec jobs.
package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/thesyncim/gocelt/internal/cli"
)

// ErrInterrupted is returned by Run when the user quits before the job ends.
var ErrInterrupted = errors.New("ui: interrupted")

// Progress reports the frames processed so far.
type Progress struct {
	Frames int64 // frames done
	Total  int64 // 0 when unknown
	Bytes  int64 // packet bytes so far
	Lost   int64 // frames concealed
}

// Done ends the job. Err is nil on success.
type Done struct {
	Err error
}

// Model is the bubbletea model for one job.
type Model struct {
	title   string
	bar     progress.Model
	state   Progress
	start   time.Time
	elapsed time.Duration
	done    bool
	err     error
	aborted bool
}

// NewModel returns a model showing title above the bar.
func NewModel(title string) *Model {
	return &Model{
		title: title,
		bar: progress.New(
			progress.WithGradient(string(cli.Teal), string(cli.Cyan)),
			progress.WithWidth(40),
			progress.WithoutPercentage(),
		),
		start: time.Now(),
	}
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = max(10, min(msg.Width-30, 60))
	case Progress:
		m.state = msg
		m.elapsed = time.Since(m.start)
	case Done:
		m.done = true
		m.err = msg.Err
		m.elapsed = time.Since(m.start)
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			m.aborted = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// Fraction returns the completed share of the job in [0, 1].
func (m *Model) Fraction() float64 {
	if m.done && m.err == nil {
		return 1
	}
	if m.state.Total <= 0 {
		return 0
	}
	return min(1, float64(m.state.Frames)/float64(m.state.Total))
}

func (m *Model) View() string {
	var s strings.Builder
	s.WriteString(cli.TitleStyle.Render(m.title))
	s.WriteString("\n\n")
	s.WriteString(m.bar.ViewAs(m.Fraction()))
	fmt.Fprintf(&s, "  %3.0f%%\n", m.Fraction()*100)

	stats := fmt.Sprintf("Frames: %d", m.state.Frames)
	if m.state.Total > 0 {
		stats += fmt.Sprintf("/%d", m.state.Total)
	}
	stats += fmt.Sprintf("  │  Packets: %s", cli.FormatBytes(m.state.Bytes))
	if m.state.Lost > 0 {
		stats += fmt.Sprintf("  │  Lost: %d", m.state.Lost)
	}
	stats += "  │  " + cli.FormatDuration(m.elapsed)
	s.WriteString(lipgloss.NewStyle().Faint(true).Render(stats))
	s.WriteString("\n")

	switch {
	case m.done && m.err != nil:
		s.WriteString(cli.ErrorStyle.Render("Failed: " + m.err.Error()))
		s.WriteString("\n")
	case m.done:
		s.WriteString(cli.SuccessStyle.Render("✓ Complete"))
		s.WriteString("\n")
	}
	return s.String()
}

// Run shows the progress view on out while work runs. work reports
// progress through the callback; its error is returned.
func Run(out io.Writer, title string, work func(report func(Progress)) error) error {
	p := tea.NewProgram(NewModel(title), tea.WithOutput(out), tea.WithInput(nil))

	result := make(chan error, 1)
	go func() {
		err := work(func(pr Progress) { p.Send(pr) })
		result <- err
		p.Send(Done{Err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("ui: %w", err)
	}
	if m, ok := final.(*Model); ok && m.aborted {
		return ErrInterrupted
	}
	return <-result
}
