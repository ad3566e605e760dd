// Package inventory keeps the pool of undistributed assets per collection.
package inventory

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"cosmossdk.io/log"

	"github.com/crptomonkeys/greenwiz/types"
)

const DefaultRefreshInterval = 5 * time.Minute

// Holding names the account whose assets back a collection's pool.
type Holding struct {
	Collection string
	Owner      string
}

// RefreshCallback is called after each collection refresh attempt.
type RefreshCallback func(collection string, size int, err error)

// Options tunes an Inventory. Zero values take defaults.
type Options struct {
	RefreshInterval time.Duration
	// Shuffle orders a freshly listed pool. Defaults to a uniform shuffle.
	Shuffle func([]types.Asset)
}

type pool struct {
	mu        sync.Mutex
	assets    []types.Asset
	refreshed time.Time
}

// Inventory holds shuffled pools of assets, one per collection. Each pool has
// its own lock so selection in one collection never waits on another.
type Inventory struct {
	source   Source
	holdings []Holding
	interval time.Duration
	shuffle  func([]types.Asset)
	logger   log.Logger

	mu        sync.RWMutex
	pools     map[string]*pool
	onRefresh RefreshCallback
}

// New creates an Inventory with an empty pool for every holding.
func New(source Source, holdings []Holding, opts Options, logger log.Logger) *Inventory {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = DefaultRefreshInterval
	}
	if opts.Shuffle == nil {
		opts.Shuffle = func(a []types.Asset) {
			rand.Shuffle(len(a), func(i, j int) { a[i], a[j] = a[j], a[i] })
		}
	}
	inv := &Inventory{
		source:   source,
		holdings: holdings,
		interval: opts.RefreshInterval,
		shuffle:  opts.Shuffle,
		logger:   logger.With("module", "inventory"),
		pools:    make(map[string]*pool, len(holdings)),
	}
	for _, h := range holdings {
		inv.pools[h.Collection] = &pool{}
	}
	return inv
}

// SetRefreshCallback sets the callback for refresh results.
func (inv *Inventory) SetRefreshCallback(cb RefreshCallback) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.onRefresh = cb
}

func (inv *Inventory) notify(collection string, size int, err error) {
	inv.mu.RLock()
	cb := inv.onRefresh
	inv.mu.RUnlock()
	if cb != nil {
		cb(collection, size, err)
	}
}

func (inv *Inventory) pool(collection string) (*pool, bool) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	p, ok := inv.pools[collection]
	return p, ok
}

// Replace swaps a collection's pool for a shuffled copy of assets.
func (inv *Inventory) Replace(collection string, assets []types.Asset) {
	fresh := append([]types.Asset(nil), assets...)
	inv.shuffle(fresh)

	inv.mu.Lock()
	p, ok := inv.pools[collection]
	if !ok {
		p = &pool{}
		inv.pools[collection] = p
	}
	inv.mu.Unlock()

	p.mu.Lock()
	p.assets = fresh
	p.refreshed = time.Now()
	p.mu.Unlock()
}

// Refresh relists one holding. On failure the old pool stays in place.
func (inv *Inventory) Refresh(ctx context.Context, h Holding) error {
	assets, err := inv.source.OwnedAssets(ctx, h.Owner, h.Collection)
	if err != nil {
		inv.logger.Warn("failed to refresh assets, keeping the previous pool", "collection", h.Collection, "err", err)
		inv.notify(h.Collection, inv.Size(h.Collection), err)
		return fmt.Errorf("refresh %s: %w", h.Collection, err)
	}
	inv.Replace(h.Collection, assets)
	inv.logger.Debug("refreshed assets", "collection", h.Collection, "owner", h.Owner, "count", len(assets))
	inv.notify(h.Collection, len(assets), nil)
	return nil
}

// RefreshAll refreshes every holding in parallel.
func (inv *Inventory) RefreshAll(ctx context.Context) error {
	var wg sync.WaitGroup
	errCh := make(chan error, len(inv.holdings))

	for _, h := range inv.holdings {
		wg.Add(1)
		go func(h Holding) {
			defer wg.Done()
			if err := inv.Refresh(ctx, h); err != nil {
				errCh <- err
			}
		}(h)
	}

	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to refresh %d of %d collections: %w", len(errs), len(inv.holdings), errs[0])
	}
	return nil
}

// Run refreshes immediately and then on every interval until ctx ends.
func (inv *Inventory) Run(ctx context.Context) error {
	_ = inv.RefreshAll(ctx)

	ticker := time.NewTicker(inv.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			_ = inv.RefreshAll(ctx)
		}
	}
}

// Select removes n assets from collection's pool. If fewer than n remain,
// nothing is taken.
func (inv *Inventory) Select(collection string, n int) ([]types.Asset, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: cannot select %d assets", types.ErrInvalidQuantity, n)
	}
	p, ok := inv.pool(collection)
	if !ok {
		return nil, fmt.Errorf("%w: no pool for collection %s", types.ErrInventoryExhausted, collection)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.assets) < n {
		return nil, fmt.Errorf("%w: %s has %d assets, %d requested", types.ErrInventoryExhausted, collection, len(p.assets), n)
	}
	out := append([]types.Asset(nil), p.assets[:n]...)
	p.assets = p.assets[n:]
	return out, nil
}

// Size returns how many assets collection's pool holds.
func (inv *Inventory) Size(collection string) int {
	p, ok := inv.pool(collection)
	if !ok {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.assets)
}

// PoolStatus is one collection's pool size and last refresh time.
type PoolStatus struct {
	Collection string    `json:"collection"`
	Size       int       `json:"size"`
	Refreshed  time.Time `json:"refreshed"`
}

// Sizes reports every pool, sorted by collection.
func (inv *Inventory) Sizes() []PoolStatus {
	inv.mu.RLock()
	names := make([]string, 0, len(inv.pools))
	for name := range inv.pools {
		names = append(names, name)
	}
	inv.mu.RUnlock()
	sort.Strings(names)

	out := make([]PoolStatus, 0, len(names))
	for _, name := range names {
		p, _ := inv.pool(name)
		p.mu.Lock()
		out = append(out, PoolStatus{Collection: name, Size: len(p.assets), Refreshed: p.refreshed})
		p.mu.Unlock()
	}
	return out
}
