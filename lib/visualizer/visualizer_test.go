package visualizer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crptomonkeys/greenwiz/history"
)

func attempts() []history.Attempt {
	return []history.Attempt{
		{TxID: "abc", Cycle: 0, Max: 30, Endpoint: "https://a.example", Outcome: history.OutcomePending, Delay: time.Second},
		{TxID: "abc", Cycle: 1, Max: 30, Endpoint: "https://b.example", Outcome: history.OutcomeFailed, Detail: "status 502"},
		{TxID: "abc", Cycle: 1, Max: 30, Endpoint: "https://a.example", Outcome: history.OutcomeConfirmed},
	}
}

func TestConfirmProgress(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	p := newConfirmProgress(start)
	assert.Zero(t, p.Fraction())

	for i := 0; i < 10; i++ {
		p.update(history.Attempt{TxID: "abc", Cycle: i, Max: 20, Outcome: history.OutcomePending}, start.Add(time.Duration(i)*time.Second))
	}
	assert.Len(t, p.Recent, recentAttempts)
	assert.Equal(t, 4, p.Recent[0].Cycle)
	assert.InDelta(t, 0.5, p.Fraction(), 1e-9)

	p.finish("777", nil, start.Add(time.Minute))
	assert.True(t, p.Done)
	assert.Equal(t, 1.0, p.Fraction())

	failed := newConfirmProgress(start)
	failed.update(history.Attempt{Cycle: 40, Max: 30}, start)
	assert.Equal(t, 1.0, failed.Fraction())
	failed.finish("", errors.New("timeout"), start)
	assert.Equal(t, 1.0, failed.Fraction())
}

func TestConfirmUIUpdates(t *testing.T) {
	ui := NewConfirmUI("Creating claim link")
	assert.Contains(t, ui.View(), "waiting for the first poll")

	for _, a := range attempts()[:2] {
		_, cmd := ui.Update(attemptMsg(a))
		assert.Nil(t, cmd)
	}
	view := ui.View()
	assert.Contains(t, view, "Creating claim link")
	assert.Contains(t, view, "abc")
	assert.Contains(t, view, "cycle 2/30 via https://b.example")
	assert.Contains(t, view, "(next in 1s)")

	_, cmd := ui.Update(doneMsg{result: "777"})
	require.NotNil(t, cmd)
	assert.Contains(t, ui.View(), "confirmed 777")
	assert.True(t, ui.Progress().Done)
}

func TestConfirmUIShowsFailure(t *testing.T) {
	ui := NewConfirmUI("Creating claim link")
	ui.Update(doneMsg{err: errors.New("confirmation timeout")})
	assert.Contains(t, ui.View(), "confirmation timeout")
}

func TestTrackReturnsWorkResult(t *testing.T) {
	var out bytes.Buffer
	got, err := Track(context.Background(), "Confirming", &out, func(_ context.Context, progress history.Progress) (string, error) {
		for _, a := range attempts() {
			progress(a)
		}
		return "777", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "777", got)

	_, err = Track(context.Background(), "Confirming", &out, func(context.Context, history.Progress) (string, error) {
		return "", errors.New("gone")
	})
	require.EqualError(t, err, "gone")
}

func TestLineView(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	var out bytes.Buffer
	v := NewLineView(&out)
	assert.Equal(t, "No confirmation in progress", v.Render())

	for _, a := range attempts() {
		v.Progress(a)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, []string{
		"[1/30] pending https://a.example (next in 1s)",
		"[2/30] failed https://b.example - status 502",
		"[2/30] confirmed https://a.example",
	}, lines)
	assert.True(t, strings.HasPrefix(v.Render(), "abc cycle 2/30, last confirmed ["))
}
