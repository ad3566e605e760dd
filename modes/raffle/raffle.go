// Package raffle runs the two-hourly mining raffle: it scans mine actions on
// configured lands, filters miners by a whitelist and sends one asset to a
// randomly chosen winner.
package raffle

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"cosmossdk.io/log"

	"github.com/crptomonkeys/greenwiz/broadcast"
	"github.com/crptomonkeys/greenwiz/history"
	"github.com/crptomonkeys/greenwiz/lib"
	"github.com/crptomonkeys/greenwiz/types"
)

const (
	WindowLength = 2 * time.Hour

	// SenderName labels raffle transfers in logs.
	SenderName = "monKeymining raffle"
	detailsURL = "https://www.cryptomonkeys.cc/monkeymining"
	timeLayout = "2006-01-02 15:04"
)

// Window is a closed raffle period.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) String() string {
	return fmt.Sprintf("%s to %s UTC", w.Start.Format(timeLayout), w.End.Format(timeLayout))
}

// LatestWindow returns the latest closed two hour UTC window ending on an even hour.
func LatestWindow(now time.Time) Window {
	end := now.UTC().Truncate(time.Hour)
	if end.Hour()%2 != 0 {
		end = end.Add(-time.Hour)
	}
	return Window{Start: end.Add(-WindowLength), End: end}
}

// Scanner reads action history over a time window.
type Scanner interface {
	Scan(ctx context.Context, req history.ScanRequest) (*history.ScanResult, error)
}

// Sender transfers specific assets from a collection account.
type Sender interface {
	SendAssets(ctx context.Context, collection, to string, assetIDs []uint64, memo, sender string) (*broadcast.PushResult, error)
}

// AssetSelector hands out assets from a collection's pool.
type AssetSelector interface {
	Select(collection string, n int) ([]types.Asset, error)
}

// Announcer posts public messages.
type Announcer interface {
	Announce(ctx context.Context, destination, text string) error
}

// WindowStore persists processed windows across restarts.
type WindowStore interface {
	WindowProcessed(ctx context.Context, end time.Time) (bool, error)
	MarkWindow(ctx context.Context, end time.Time, winner, assetID string) error
	RecentWinners(ctx context.Context, since time.Time) ([]string, error)
}

// Deps are the runner's collaborators. Store may be nil, in which case only
// the last processed window is remembered in memory.
type Deps struct {
	Scanner   Scanner
	Whitelist WhitelistSource
	Assets    AssetSelector
	Sender    Sender
	Announcer Announcer
	Store     WindowStore
	Validator *lib.AccountValidator
}

// Outcome describes one raffle run.
type Outcome struct {
	Window        Window   `json:"window"`
	Skipped       bool     `json:"skipped"`
	Mines         int      `json:"mines"`
	Unique        int      `json:"unique_miners"`
	Eligible      int      `json:"eligible"`
	Winner        string   `json:"winner,omitempty"`
	WinnerIDs     []string `json:"winner_ids,omitempty"`
	AssetID       uint64   `json:"asset_id,omitempty"`
	TransactionID string   `json:"transaction_id,omitempty"`
	Announcement  string   `json:"announcement,omitempty"`
}

// Runner runs the raffle for one collection.
type Runner struct {
	cfg        types.RaffleConfig
	collection types.CollectionConfig
	lands      map[string]bool
	deps       Deps

	mu     sync.Mutex
	rng    *rand.Rand
	last   time.Time
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
	logger log.Logger
}

// NewRunner creates a runner. A zero cfg.Seed seeds the winner draw randomly.
func NewRunner(cfg types.RaffleConfig, collection types.CollectionConfig, deps Deps, logger log.Logger) *Runner {
	lands := make(map[string]bool, len(cfg.LandIDs))
	for _, id := range cfg.LandIDs {
		if id = strings.TrimSpace(id); id != "" {
			lands[id] = true
		}
	}
	seed := uint64(cfg.Seed)
	if seed == 0 {
		seed = rand.Uint64()
	}
	if deps.Validator == nil {
		deps.Validator = lib.NewAccountValidator()
	}
	return &Runner{
		cfg:        cfg,
		collection: collection,
		lands:      lands,
		deps:       deps,
		rng:        rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now:        time.Now,
		sleep:      lib.Sleep,
		logger:     logger.With("module", "raffle", "collection", collection.Name),
	}
}

// WithClock replaces the runner's time source.
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

// WithSleep replaces the wait between runs.
func (r *Runner) WithSleep(sleep func(ctx context.Context, d time.Duration) error) *Runner {
	r.sleep = sleep
	return r
}

func (r *Runner) processed(ctx context.Context, w Window) (bool, error) {
	if r.last.Equal(w.End) {
		return true, nil
	}
	if r.deps.Store == nil {
		return false, nil
	}
	return r.deps.Store.WindowProcessed(ctx, w.End)
}

func (r *Runner) markProcessed(ctx context.Context, w Window, winner string, assetID uint64) error {
	r.last = w.End
	if r.deps.Store == nil {
		return nil
	}
	asset := ""
	if assetID != 0 {
		asset = strconv.FormatUint(assetID, 10)
	}
	return r.deps.Store.MarkWindow(ctx, w.End, winner, asset)
}

// match accepts a mine on a configured land by a valid miner.
func (r *Runner) match(rec history.ActionRecord) (string, bool) {
	land := rec.StringField("land_id")
	if !r.lands[land] {
		return "", false
	}
	miner := strings.ToLower(rec.StringField("miner"))
	if miner == "" || !r.deps.Validator.Valid(miner) {
		return "", false
	}
	return miner + ":" + land, true
}

// RunOnce runs the raffle for the latest closed window unless it was already
// processed.
func (r *Runner) RunOnce(ctx context.Context) (*Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	window := LatestWindow(r.now())
	out := &Outcome{Window: window}
	if len(r.lands) == 0 {
		r.logger.Warn("mining raffle is disabled because no land ids are configured")
		out.Skipped = true
		return out, nil
	}
	done, err := r.processed(ctx, window)
	if err != nil {
		return nil, err
	}
	if done {
		out.Skipped = true
		return out, nil
	}

	scan, err := r.deps.Scanner.Scan(ctx, history.ScanRequest{
		Account: r.cfg.ActionAccount,
		Action:  r.cfg.ActionName,
		Start:   window.Start,
		End:     window.End,
		Match:   r.match,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to collect raffle participants: %w", err)
	}
	participants := make(map[string]bool)
	for _, rec := range scan.Records {
		participants[strings.ToLower(rec.StringField("miner"))] = true
	}
	out.Mines = scan.Matched
	out.Unique = len(participants)

	if out.Unique == 0 {
		r.logger.Info("no eligible miners found", "window", window.String())
		return out, r.markProcessed(ctx, window, "", 0)
	}

	whitelist, err := r.deps.Whitelist.Whitelist(ctx)
	if err != nil {
		return nil, err
	}
	eligible := make([]string, 0, len(participants))
	for miner := range participants {
		if _, ok := whitelist[miner]; ok {
			eligible = append(eligible, miner)
		}
	}
	if r.cfg.ExcludeRecentWinners && r.deps.Store != nil {
		eligible, err = r.excludeRecent(ctx, window, eligible)
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(eligible)
	out.Eligible = len(eligible)

	if len(eligible) == 0 {
		r.logger.Info("no eligible miners were on the whitelist", "window", window.String())
		out.Announcement = NoEligibleAnnouncement(r.collection, window, len(whitelist), out.Mines, out.Unique)
		r.announce(ctx, out.Announcement)
		return out, r.markProcessed(ctx, window, "", 0)
	}

	out.Winner = eligible[r.rng.IntN(len(eligible))]
	out.WinnerIDs = whitelist.IDs(out.Winner)

	assets, err := r.deps.Assets.Select(r.collection.Name, 1)
	if err != nil {
		return nil, err
	}
	out.AssetID = assets[0].ID
	memo := fmt.Sprintf("Mining raffle reward (%s UTC)", window.End.Format(timeLayout))
	result, err := r.deps.Sender.SendAssets(ctx, r.collection.Name, out.Winner, []uint64{out.AssetID}, memo, SenderName)
	if err != nil {
		return nil, fmt.Errorf("failed to send raffle prize: %w", err)
	}
	out.TransactionID = result.TransactionID
	r.logger.Info("mining raffle prize sent", "asset", out.AssetID, "winner", out.Winner, "entrants", out.Eligible, "tx", out.TransactionID)

	out.Announcement = WinnerAnnouncement(r.collection, window, out.Eligible, out.Winner, out.WinnerIDs, out.AssetID)
	r.announce(ctx, out.Announcement)
	return out, r.markProcessed(ctx, window, out.Winner, out.AssetID)
}

func (r *Runner) excludeRecent(ctx context.Context, w Window, eligible []string) ([]string, error) {
	recent, err := r.deps.Store.RecentWinners(ctx, w.End.Add(-24*time.Hour))
	if err != nil {
		return nil, err
	}
	skip := make(map[string]bool, len(recent))
	for _, winner := range recent {
		skip[winner] = true
	}
	kept := eligible[:0]
	for _, miner := range eligible {
		if !skip[miner] {
			kept = append(kept, miner)
		}
	}
	return kept, nil
}

func (r *Runner) announce(ctx context.Context, text string) {
	if r.deps.Announcer == nil || r.collection.AnnounceTo == "" {
		return
	}
	if err := r.deps.Announcer.Announce(ctx, r.collection.AnnounceTo, text); err != nil {
		r.logger.Warn("failed to post raffle announcement", "err", err)
	}
}

// NextRun is the next even UTC hour strictly after now.
func NextRun(now time.Time) time.Time {
	return LatestWindow(now).End.Add(WindowLength)
}

// Run raffles every even UTC hour until ctx is cancelled. Failed runs are
// logged and retried at the next boundary.
func (r *Runner) Run(ctx context.Context) error {
	for {
		wait := NextRun(r.now()).Sub(r.now())
		if err := r.sleep(ctx, wait); err != nil {
			return err
		}
		if _, err := r.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.logger.Error("mining raffle failed", "err", err)
		}
	}
}

func formatWinner(ids []string) string {
	if len(ids) == 0 {
		return "Unknown"
	}
	return fmt.Sprintf("<@%s> (`%s`)", ids[0], ids[0])
}

// WinnerAnnouncement is the public message for a drawn window.
func WinnerAnnouncement(col types.CollectionConfig, w Window, entrants int, wallet string, ids []string, assetID uint64) string {
	return fmt.Sprintf("%s **Mining Raffle Winner**\n"+
		"Window: %s\n"+
		"Eligible miners: %d\n"+
		"Winner: %s - `%s`\n"+
		"Prize: [#%d](<https://neftyblocks.com/assets/%d>) from `%s`."+
		"[Click here](<%s>) for details on how to participate.",
		col.Emoji, w, entrants, formatWinner(ids), wallet, assetID, assetID, col.Name, detailsURL)
}

// NoEligibleAnnouncement is posted when miners were seen but none were whitelisted.
func NoEligibleAnnouncement(col types.CollectionConfig, w Window, whitelisted, mines, unique int) string {
	return fmt.Sprintf("%s **Mining Raffle**\n"+
		"Window: %s\n"+
		"No eligible miners for the raffle were on the whitelist out of %d whitelisted addresses, "+
		"%d mines and %d unique miners.\n"+
		"[Click here](<%s>) for details on how to participate.",
		col.Emoji, w, whitelisted, mines, unique, detailsURL)
}
