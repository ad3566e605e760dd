package visualizer

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/crptomonkeys/greenwiz/history"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true).
			MarginLeft(2)

	txStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#00FFFF")).
		Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00"))
)

type attemptMsg history.Attempt

type doneMsg struct {
	result string
	err    error
}

// ConfirmUI is the bubbletea model for one confirmation wait.
type ConfirmUI struct {
	title    string
	spinner  spinner.Model
	bar      progress.Model
	progress *ConfirmProgress
	now      func() time.Time
}

// NewConfirmUI creates the model. title is shown above the progress bar.
func NewConfirmUI(title string) *ConfirmUI {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &ConfirmUI{
		title:    title,
		spinner:  s,
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		progress: newConfirmProgress(time.Now()),
		now:      time.Now,
	}
}

// Progress returns the state rendered so far.
func (m *ConfirmUI) Progress() *ConfirmProgress {
	return m.progress
}

func (m *ConfirmUI) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *ConfirmUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if k := msg.String(); k == "ctrl+c" || k == "q" {
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		if w := msg.Width - 10; w > 10 {
			m.bar.Width = w
		}

	case attemptMsg:
		m.progress.update(history.Attempt(msg), m.now())
		return m, nil

	case doneMsg:
		m.progress.finish(msg.result, msg.err, m.now())
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *ConfirmUI) View() string {
	p := m.progress
	var sb strings.Builder

	sb.WriteString("\n" + titleStyle.Render(m.title) + "\n\n")
	if p.TxID != "" {
		sb.WriteString("  Transaction: " + txStyle.Render(p.TxID) + "\n")
	}

	status := m.spinner.View() + " waiting for the first poll"
	switch {
	case p.Done && p.Error != nil:
		status = errorStyle.Render("✗ " + p.Error.Error())
	case p.Done:
		status = successStyle.Render("✓ confirmed " + p.Result)
	case p.Last != "":
		status = fmt.Sprintf("%s cycle %d/%d via %s: %s", m.spinner.View(), p.Cycle+1, p.Max, p.Endpoint, p.Last)
	}
	sb.WriteString("  " + status + "\n")
	sb.WriteString("  " + m.bar.ViewAs(p.Fraction()) + "\n")

	for _, a := range p.Recent {
		line := fmt.Sprintf("    %-9s %s", a.Outcome, a.Endpoint)
		if a.Delay > 0 {
			line += fmt.Sprintf(" (next in %s)", a.Delay)
		}
		sb.WriteString(mutedStyle.Render(line) + "\n")
	}
	sb.WriteString(fmt.Sprintf("\n  Elapsed: %s\n", p.LastUpdateTime.Sub(p.StartTime).Round(time.Second)))
	return sb.String()
}

// Track runs work while rendering its confirmation attempts to out.
func Track(ctx context.Context, title string, out io.Writer, work func(ctx context.Context, progress history.Progress) (string, error)) (string, error) {
	ui := NewConfirmUI(title)
	p := tea.NewProgram(ui, tea.WithContext(ctx), tea.WithOutput(out), tea.WithInput(nil))

	type outcome struct {
		result string
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := work(ctx, func(a history.Attempt) {
			p.Send(attemptMsg(a))
		})
		p.Send(doneMsg{result: result, err: err})
		done <- outcome{result, err}
	}()

	// A terminal failure only loses the rendering.
	_, _ = p.Run()
	res := <-done
	return res.result, res.err
}
