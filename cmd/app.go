package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"cosmossdk.io/log"
	"github.com/rs/zerolog"

	"github.com/crptomonkeys/greenwiz/broadcast"
	"github.com/crptomonkeys/greenwiz/drops"
	"github.com/crptomonkeys/greenwiz/history"
	"github.com/crptomonkeys/greenwiz/lib"
	"github.com/crptomonkeys/greenwiz/lib/chainregistry"
	"github.com/crptomonkeys/greenwiz/lib/inventory"
	"github.com/crptomonkeys/greenwiz/modes/raffle"
	"github.com/crptomonkeys/greenwiz/store"
	"github.com/crptomonkeys/greenwiz/types"
)

// newLogger builds the process logger from the [log] section.
func newLogger(out io.Writer, cfg types.LogConfig) (log.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	opts := []log.Option{log.LevelOption(level)}
	if cfg.JSON {
		opts = append(opts, log.OutputJSONOption())
	}
	return log.NewLogger(out, opts...), nil
}

// app holds what every command needs. Heavier services are built on first
// use so read-only commands work without signing keys.
type app struct {
	config   types.Config
	logger   log.Logger
	http     *http.Client
	registry *chainregistry.Registry

	db       *store.SQLite
	services *services
}

type services struct {
	collections drops.Collections
	broadcaster *broadcast.Broadcaster
	poller      *history.Poller
	indexer     *history.Indexer
	inventory   *inventory.Inventory
	announcer   drops.Announcer
	usage       usageStore
	links       *drops.ClaimLinkService
	distributor *drops.Distributor
	validator   *lib.AccountValidator
}

func newApp() (*app, error) {
	config, err := types.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		config.Log.Level = logLevel
	}
	logger, err := newLogger(os.Stderr, config.Log)
	if err != nil {
		return nil, err
	}
	registry, err := chainregistry.FromConfig(config)
	if err != nil {
		return nil, err
	}
	return &app{
		config:   config,
		logger:   logger,
		http:     lib.NewHTTPClient(config.Chain.RequestTimeout.Duration),
		registry: registry,
	}, nil
}

func (a *app) close() {
	if a.services != nil {
		a.services.distributor.Stop()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close database", "err", err)
		}
	}
}

// store opens the SQLite database holding wallets and raffle windows.
func (a *app) store() (*store.SQLite, error) {
	if a.db != nil {
		return a.db, nil
	}
	db, err := store.OpenSQLite(a.config.Store.Database)
	if err != nil {
		return nil, err
	}
	a.db = db
	return db, nil
}

// usageStore is a daily drop counter that can also list a whole day.
type usageStore interface {
	drops.UsageLedger
	Day(ctx context.Context, day string) (map[string]int, error)
}

// usageLedger is the configured daily drop counter.
func (a *app) usageLedger() (usageStore, error) {
	if a.config.Store.Usage == "sqlite" {
		return a.store()
	}
	return store.NewFileLedger(a.config.Store.UsageFile), nil
}

func (a *app) build() (*services, error) {
	if a.services != nil {
		return a.services, nil
	}
	cfg := a.config
	collections, err := drops.LoadCollections(cfg.Collections)
	if err != nil {
		return nil, err
	}
	db, err := a.store()
	if err != nil {
		return nil, err
	}
	usage, err := a.usageLedger()
	if err != nil {
		return nil, err
	}

	holdings := make([]inventory.Holding, 0, len(cfg.Collections))
	for _, c := range cfg.Collections {
		holdings = append(holdings, inventory.Holding{Collection: c.Name, Owner: c.Account})
	}

	s := &services{
		collections: collections,
		broadcaster: broadcast.NewBroadcaster(a.registry, a.http, broadcast.Options{
			Deadline:   cfg.Chain.BroadcastDeadline.Duration,
			Expiration: cfg.Chain.Expiration.Duration,
			ChainID:    cfg.Chain.ChainID,
		}, a.logger),
		poller: history.NewPoller(a.registry, a.http, history.PollerOptions{
			MaxCycles:  cfg.History.MaxCycles,
			MaxBackoff: cfg.History.MaxBackoff.Duration,
		}, a.logger),
		indexer: history.NewIndexer(a.registry, a.http, history.IndexerOptions{
			PageSize:    cfg.Indexer.PageSize,
			MaxRequests: cfg.Indexer.MaxRequests,
			Retries:     cfg.Indexer.Retries,
			RetryBase:   cfg.Indexer.RetryBase.Duration,
			Cooldown:    cfg.Indexer.Cooldown.Duration,
		}, a.logger),
		inventory: inventory.New(
			inventory.NewMarketSource(a.registry, a.http, cfg.Inventory.PageSize, a.logger),
			holdings,
			inventory.Options{RefreshInterval: cfg.Inventory.RefreshInterval.Duration},
			a.logger,
		),
		usage:     usage,
		validator: lib.NewAccountValidator(cfg.SpecialAccounts...),
	}

	var announcer drops.Announcer = drops.NewConsoleAnnouncer(os.Stdout, a.logger)
	if cfg.Announce.Webhook != "" {
		announcer = drops.NewWebhookAnnouncer(cfg.Announce.Webhook, a.http, announcer)
	}
	s.announcer = announcer

	s.links = drops.NewClaimLinkService(collections, s.broadcaster, s.poller, s.inventory, a.registry, a.http, a.logger)
	s.distributor = drops.NewDistributor(
		collections,
		drops.NewConfigPolicy(cfg.Senders),
		db,
		usage,
		announcer,
		s.broadcaster,
		s.links,
		s.inventory,
		s.validator,
		a.logger,
	)
	a.services = s
	return s, nil
}

// raffleRunner wires the mining raffle, or returns nil when it is disabled.
func (a *app) raffleRunner(s *services) (*raffle.Runner, error) {
	cfg := a.config.Raffle
	if !cfg.Enabled {
		return nil, nil
	}
	col, ok := a.config.Collection(cfg.Collection)
	if !ok {
		return nil, fmt.Errorf("%w: raffle collection %q", types.ErrConfigurationUnavailable, cfg.Collection)
	}
	db, err := a.store()
	if err != nil {
		return nil, err
	}
	var whitelist raffle.WhitelistSource = raffle.StaticWhitelist{}
	if cfg.WhitelistURL != "" {
		whitelist = raffle.NewHTTPWhitelist(cfg.WhitelistURL, a.http, cfg.WhitelistTTL.Duration)
	}
	return raffle.NewRunner(cfg, col, raffle.Deps{
		Scanner:   s.indexer,
		Whitelist: whitelist,
		Assets:    s.inventory,
		Sender:    s.distributor,
		Announcer: s.announcer,
		Store:     db,
		Validator: s.validator,
	}, a.logger), nil
}

// collectionName resolves a --collection flag, defaulting to the only
// configured collection.
func (a *app) collectionName(flag string) (string, error) {
	if flag != "" {
		if _, ok := a.config.Collection(flag); !ok {
			return "", fmt.Errorf("%w: unknown collection %q", types.ErrConfigurationUnavailable, flag)
		}
		return flag, nil
	}
	if len(a.config.Collections) != 1 {
		return "", fmt.Errorf("%d collections configured, pass --collection", len(a.config.Collections))
	}
	return a.config.Collections[0].Name, nil
}
