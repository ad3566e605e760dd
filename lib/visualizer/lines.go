package visualizer

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/crptomonkeys/greenwiz/history"
)

// LineView prints one colored line per attempt, for output that is not a
// terminal.
type LineView struct {
	out      io.Writer
	mu       sync.Mutex
	progress *ConfirmProgress
	now      func() time.Time
}

func NewLineView(out io.Writer) *LineView {
	return &LineView{out: out, progress: newConfirmProgress(time.Now()), now: time.Now}
}

func outcomeColor(o history.Outcome) *color.Color {
	switch o {
	case history.OutcomeConfirmed:
		return color.New(color.FgGreen)
	case history.OutcomeFailed, history.OutcomeGone:
		return color.New(color.FgRed)
	case history.OutcomeRefilled:
		return color.New(color.FgMagenta)
	}
	return color.New(color.FgYellow)
}

// Progress is a history.Progress callback.
func (v *LineView) Progress(a history.Attempt) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.progress.update(a, v.now())

	line := fmt.Sprintf("[%d/%d] %s %s", a.Cycle+1, a.Max, outcomeColor(a.Outcome).Sprint(a.Outcome), a.Endpoint)
	if a.Detail != "" {
		line += " - " + a.Detail
	}
	if a.Delay > 0 {
		line += fmt.Sprintf(" (next in %s)", a.Delay)
	}
	fmt.Fprintln(v.out, line)
}

// Render summarizes the attempts seen so far.
func (v *LineView) Render() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	p := v.progress
	if p.TxID == "" {
		return "No confirmation in progress"
	}

	var sb strings.Builder
	sb.WriteString(color.New(color.FgCyan).Sprint(p.TxID))
	sb.WriteString(fmt.Sprintf(" cycle %d/%d, last %s", p.Cycle+1, p.Max, outcomeColor(p.Last).Sprint(p.Last)))
	width := 20
	filled := int(float64(width) * p.Fraction())
	sb.WriteString(" [" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]")
	return sb.String()
}
