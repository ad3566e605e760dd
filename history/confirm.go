package history

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"cosmossdk.io/log"

	"github.com/crptomonkeys/greenwiz/lib"
	"github.com/crptomonkeys/greenwiz/lib/chainregistry"
	"github.com/crptomonkeys/greenwiz/types"
)

const (
	DefaultMaxCycles  = 30
	DefaultMaxBackoff = 64 * time.Second

	getTransactionPath = "/v2/history/get_transaction"
)

// Outcome of a single confirmation attempt.
type Outcome string

const (
	OutcomeConfirmed Outcome = "confirmed"
	OutcomePending   Outcome = "pending"
	OutcomeGone      Outcome = "gone"
	OutcomeFailed    Outcome = "failed"
	OutcomeRefilled  Outcome = "refilled"
)

// Attempt describes one poll, reported through a Progress callback.
type Attempt struct {
	TxID     string
	Cycle    int
	Max      int
	Endpoint string
	Delay    time.Duration
	Outcome  Outcome
	Detail   string
}

// Progress receives every attempt as it completes.
type Progress func(Attempt)

// PollerOptions tunes a Poller. Zero values take defaults.
type PollerOptions struct {
	MaxCycles  int
	MaxBackoff time.Duration
}

// Poller confirms submitted transactions against history endpoints.
type Poller struct {
	registry   *chainregistry.Registry
	http       *http.Client
	maxCycles  int
	maxBackoff time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
	logger     log.Logger
}

// NewPoller creates a Poller over the registry's history rotation.
func NewPoller(registry *chainregistry.Registry, httpClient *http.Client, opts PollerOptions, logger log.Logger) *Poller {
	if opts.MaxCycles <= 0 {
		opts.MaxCycles = DefaultMaxCycles
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = DefaultMaxBackoff
	}
	return &Poller{
		registry:   registry,
		http:       httpClient,
		maxCycles:  opts.MaxCycles,
		maxBackoff: opts.MaxBackoff,
		sleep:      lib.Sleep,
		logger:     logger.With("module", "confirm"),
	}
}

// WithSleep replaces the backoff sleep, for tests.
func (p *Poller) WithSleep(sleep func(ctx context.Context, d time.Duration) error) *Poller {
	p.sleep = sleep
	return p
}

// Backoff returns the delay before attempt cycle: min(2^cycle seconds, max).
func (p *Poller) Backoff(cycle int) time.Duration {
	if cycle >= 30 {
		return p.maxBackoff
	}
	d := time.Duration(1<<uint(cycle)) * time.Second
	if d > p.maxBackoff {
		return p.maxBackoff
	}
	return d
}

// Confirm polls until txID is reported executed and extract yields a value.
// progress may be nil.
//
// Endpoints answering 404 or 410 are removed from the registry for the life of
// the process; the cycle counter restarts after each. Server errors and
// malformed bodies drop the endpoint for this call only. An emptied rotation is
// refilled once from configuration.
func (p *Poller) Confirm(ctx context.Context, txID string, extract Extractor, progress Progress) (string, error) {
	if extract == nil {
		extract = LinkIDExtractor
	}
	report := func(a Attempt) {
		if progress != nil {
			a.TxID = txID
			a.Max = p.maxCycles
			progress(a)
		}
	}

	rotation := p.registry.Endpoints(chainregistry.RoleHistory)
	gone := make(map[string]bool)
	refilled := false

	cycle := 0
	for cycle < p.maxCycles {
		delay := p.Backoff(cycle)
		p.logger.Debug("waiting for confirmation", "tx", txID, "cycle", cycle, "max", p.maxCycles, "delay", delay)
		if err := p.sleep(ctx, delay); err != nil {
			return "", fmt.Errorf("confirming %s: %w", txID, err)
		}

		if len(rotation) == 0 {
			if !refilled {
				refilled = true
				rotation = without(p.registry.Refill(chainregistry.RoleHistory), gone)
				report(Attempt{Cycle: cycle, Delay: delay, Outcome: OutcomeRefilled})
			}
			if len(rotation) == 0 {
				p.registry.Refill(chainregistry.RoleHistory)
				p.logger.Warn("all history endpoints exhausted", "tx", txID)
				return "", fmt.Errorf("%w: every history endpoint reported invalid results for %s", types.ErrConfirmationTimeout, txID)
			}
		}

		endpoint := rotation[cycle%len(rotation)]
		value, outcome, detail := p.attempt(ctx, endpoint, txID, extract)
		report(Attempt{Cycle: cycle, Endpoint: endpoint, Delay: delay, Outcome: outcome, Detail: detail})
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("confirming %s: %w", txID, err)
		}

		switch outcome {
		case OutcomeConfirmed:
			p.logger.Info("transaction confirmed", "tx", txID, "endpoint", endpoint, "cycle", cycle)
			return value, nil
		case OutcomeGone:
			p.logger.Warn("history endpoint reported get_transaction gone, removing it", "endpoint", endpoint, "detail", detail)
			gone[chainregistry.Normalize(endpoint)] = true
			p.registry.Remove(chainregistry.RoleHistory, endpoint)
			rotation = without(rotation, gone)
			cycle = 0
			continue
		case OutcomeFailed:
			p.logger.Warn("history endpoint failed, skipping it for this transaction", "endpoint", endpoint, "detail", detail)
			rotation = without(rotation, map[string]bool{chainregistry.Normalize(endpoint): true})
		}
		cycle++
	}

	p.logger.Warn("timed out confirming transaction", "tx", txID, "cycles", p.maxCycles)
	return "", fmt.Errorf("%w: %s not confirmed after %d cycles; it may still be applied", types.ErrConfirmationTimeout, txID, p.maxCycles)
}

func (p *Poller) attempt(ctx context.Context, endpoint, txID string, extract Extractor) (string, Outcome, string) {
	resp, err := lib.HTTPGet(ctx, p.http, lib.JoinURL(endpoint, getTransactionPath), url.Values{"id": {txID}})
	if err != nil {
		return "", OutcomeFailed, err.Error()
	}

	switch {
	case resp.Code == http.StatusGone || resp.Code == http.StatusNotFound:
		return "", OutcomeGone, fmt.Sprintf("status %d", resp.Code)
	case resp.Code >= 500:
		return "", OutcomeFailed, fmt.Sprintf("status %d", resp.Code)
	case resp.Code >= 400:
		return "", OutcomePending, fmt.Sprintf("status %d", resp.Code)
	}

	var tx transactionBody
	if err := json.Unmarshal(resp.Body, &tx); err != nil {
		return "", OutcomeFailed, "malformed response: " + err.Error()
	}
	if !tx.Executed {
		return "", OutcomePending, "not executed yet"
	}
	value, err := extract(resp.Body)
	if err != nil {
		return "", OutcomeFailed, "executed but " + err.Error()
	}
	return value, OutcomeConfirmed, ""
}

func without(urls []string, drop map[string]bool) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if !drop[chainregistry.Normalize(u)] {
			out = append(out, u)
		}
	}
	return out
}
