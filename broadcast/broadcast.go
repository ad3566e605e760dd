package broadcast

import (
	"context"
	"errors"
	"net/http"
	"time"

	"cosmossdk.io/log"

	"github.com/crptomonkeys/greenwiz/lib/chainregistry"
	"github.com/crptomonkeys/greenwiz/types"
)

const (
	DefaultDeadline   = 60 * time.Second
	DefaultExpiration = 2 * time.Minute
)

// TimingMetrics records how long each stage of one submission took.
type TimingMetrics struct {
	PrepStart  time.Time
	SignStart  time.Time
	BroadStart time.Time
	Complete   time.Time
}

// LogTiming writes the stage durations of one submission.
func (t *TimingMetrics) LogTiming(logger log.Logger, txID, endpoint string, err error) {
	keyvals := []any{
		"tx", txID,
		"prep", t.SignStart.Sub(t.PrepStart),
		"sign", t.BroadStart.Sub(t.SignStart),
		"broadcast", t.Complete.Sub(t.BroadStart),
		"total", t.Complete.Sub(t.PrepStart),
	}
	if err != nil {
		logger.Error("transaction failed", append(keyvals, "err", err)...)
		return
	}
	logger.Info("transaction broadcast", append(keyvals, "endpoint", endpoint)...)
}

// Broadcaster builds, signs and races transactions across core endpoints.
type Broadcaster struct {
	builder  *Builder
	registry *chainregistry.Registry
	pool     *clientPool
	deadline time.Duration
	usage    *NodeUsage
	logger   log.Logger
}

// Options tunes a Broadcaster. Zero values take defaults.
type Options struct {
	Deadline   time.Duration
	Expiration time.Duration
	// ChainID, when set, rejects endpoints reporting a different chain.
	ChainID string
}

// NewBroadcaster creates a Broadcaster over the registry's core endpoints.
func NewBroadcaster(registry *chainregistry.Registry, httpClient *http.Client, opts Options, logger log.Logger) *Broadcaster {
	if opts.Deadline <= 0 {
		opts.Deadline = DefaultDeadline
	}
	if opts.Expiration <= 0 {
		opts.Expiration = DefaultExpiration
	}
	pool := newClientPool(httpClient)
	logger = logger.With("module", "broadcast")
	return &Broadcaster{
		builder: &Builder{
			registry:   registry,
			pool:       pool,
			expiration: opts.Expiration,
			chainID:    opts.ChainID,
			logger:     logger,
		},
		registry: registry,
		pool:     pool,
		deadline: opts.Deadline,
		usage:    NewNodeUsage(),
		logger:   logger,
	}
}

// Usage returns per-endpoint broadcast counters.
func (b *Broadcaster) Usage() []NodeStat { return b.usage.Stats() }

// Execute prepares actions against the first healthy core endpoint, signs
// one serialization with identity, then races it to every core endpoint.
func (b *Broadcaster) Execute(ctx context.Context, identity types.SigningIdentity, actions ...types.Action) (*PushResult, error) {
	metrics := &TimingMetrics{PrepStart: time.Now()}
	b.logger.Debug("executing transaction", "signer", identity.Account, "actions", len(actions))

	prepared, err := b.builder.Prepare(ctx, actions)
	if err != nil {
		return nil, err
	}

	metrics.SignStart = time.Now()
	signed, err := Sign(prepared, identity.Key)
	if err != nil {
		return nil, err
	}

	metrics.BroadStart = time.Now()
	result, err := b.Broadcast(ctx, signed)
	metrics.Complete = time.Now()
	endpoint := ""
	if result != nil {
		endpoint = result.Endpoint
	}
	metrics.LogTiming(b.logger, signed.ID, endpoint, err)
	return result, err
}

// Broadcast sends the identical signed payload to every live core endpoint
// and returns the first structurally valid result.
func (b *Broadcaster) Broadcast(ctx context.Context, signed *SignedTransaction) (*PushResult, error) {
	endpoints := b.registry.Endpoints(chainregistry.RoleCore)
	if len(endpoints) == 0 {
		return nil, &types.BroadcastError{Stage: "broadcast", Cause: types.ErrConfigurationUnavailable}
	}

	ctx, cancel := context.WithTimeout(ctx, b.deadline)
	defer cancel()

	attempts := make([]Attempt[*PushResult], 0, len(endpoints))
	for _, endpoint := range endpoints {
		client := b.pool.get(endpoint)
		attempts = append(attempts, Attempt[*PushResult]{
			Name: endpoint,
			Run: func(ctx context.Context) (*PushResult, error) {
				return client.PushTransaction(ctx, signed.Packed)
			},
		})
	}

	result, winner, failures, err := FirstSuccess(ctx, attempts)
	for _, f := range failures {
		b.usage.RecordFailure(f.URL)
		b.logger.Debug("broadcast attempt failed", "endpoint", f.URL, "reason", f.Reason)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			b.logger.Warn("timed out waiting for a valid result from any node", "tx", signed.ID)
		}
		return nil, &types.BroadcastError{Stage: "broadcast", Failures: failures, Cause: err}
	}
	b.usage.RecordWin(winner)
	return result, nil
}
