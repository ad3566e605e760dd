// Package visualizer renders confirmation progress for long-running
// transaction waits, either as a bubbletea terminal UI or as colored lines.
package visualizer

import (
	"time"

	"github.com/crptomonkeys/greenwiz/history"
)

const recentAttempts = 6

// ConfirmProgress tracks the polling of one transaction.
type ConfirmProgress struct {
	TxID           string
	Cycle          int
	Max            int
	Endpoint       string
	Last           history.Outcome
	Recent         []history.Attempt
	StartTime      time.Time
	LastUpdateTime time.Time
	Done           bool
	Result         string
	Error          error
}

func newConfirmProgress(now time.Time) *ConfirmProgress {
	return &ConfirmProgress{StartTime: now, LastUpdateTime: now}
}

// update folds one attempt into the progress.
func (p *ConfirmProgress) update(a history.Attempt, now time.Time) {
	p.TxID = a.TxID
	p.Cycle = a.Cycle
	if a.Max > 0 {
		p.Max = a.Max
	}
	p.Endpoint = a.Endpoint
	p.Last = a.Outcome
	p.LastUpdateTime = now
	p.Recent = append(p.Recent, a)
	if len(p.Recent) > recentAttempts {
		p.Recent = p.Recent[len(p.Recent)-recentAttempts:]
	}
}

func (p *ConfirmProgress) finish(result string, err error, now time.Time) {
	p.Done = true
	p.Result = result
	p.Error = err
	p.LastUpdateTime = now
}

// Fraction is how much of the cycle budget has been used, in [0, 1].
func (p *ConfirmProgress) Fraction() float64 {
	if p.Done && p.Error == nil {
		return 1
	}
	if p.Max <= 0 {
		return 0
	}
	f := float64(p.Cycle+1) / float64(p.Max)
	if f > 1 {
		f = 1
	}
	return f
}
