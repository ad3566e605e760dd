package types

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultLinkMessageAppend is appended to every claim link memo.
const DefaultLinkMessageAppend = "WARNING: Tip bot claimlinks may be cancelled 91 days after issuance."

// Duration is a time.Duration that decodes from strings such as "5m" in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config is the top level greenwiz configuration, read from greenwiz.toml.
type Config struct {
	Chain       ChainConfig        `toml:"chain"`
	Endpoints   []EndpointConfig   `toml:"endpoints"`
	History     HistoryConfig      `toml:"history"`
	Indexer     IndexerConfig      `toml:"indexer"`
	Inventory   InventoryConfig    `toml:"inventory"`
	Collections []CollectionConfig `toml:"collections"`
	Senders     []SenderConfig     `toml:"senders"`
	Raffle      RaffleConfig       `toml:"raffle"`
	Store       StoreConfig        `toml:"store"`
	API         APIConfig          `toml:"api"`
	Log         LogConfig          `toml:"log"`
	Announce    AnnounceConfig     `toml:"announce"`

	// SpecialAccounts are premium name suffixes accepted as valid account names
	// in addition to the built-in ones.
	SpecialAccounts []string `toml:"special_accounts"`
}

type ChainConfig struct {
	// ChainID, when set, must match what the core endpoints report.
	ChainID           string   `toml:"chain_id"`
	RequestTimeout    Duration `toml:"request_timeout"`
	BroadcastDeadline Duration `toml:"broadcast_deadline"`
	Expiration        Duration `toml:"expiration"`
}

type EndpointConfig struct {
	URL    string `toml:"url"`
	Role   string `toml:"role"`
	Weight int    `toml:"weight"`
}

type HistoryConfig struct {
	MaxCycles  int      `toml:"max_cycles"`
	MaxBackoff Duration `toml:"max_backoff"`
}

type IndexerConfig struct {
	Preferred   []string `toml:"preferred"`
	Cooldown    Duration `toml:"cooldown"`
	PageSize    int      `toml:"page_size"`
	MaxRequests int      `toml:"max_requests"`
	Retries     int      `toml:"retries"`
	RetryBase   Duration `toml:"retry_base"`
}

type InventoryConfig struct {
	RefreshInterval Duration `toml:"refresh_interval"`
	PageSize        int      `toml:"page_size"`
}

// CollectionConfig describes one asset collection and the account that drops it.
type CollectionConfig struct {
	Name              string `toml:"name"`
	DisplayName       string `toml:"display_name"`
	Web               string `toml:"web"`
	Account           string `toml:"account"`
	Permission        string `toml:"permission"`
	KeyEnv            string `toml:"key_env"`
	KeyFile           string `toml:"key_file"`
	Emoji             string `toml:"emoji"`
	AnnounceTo        string `toml:"announce_to"`
	DailyLimit        int    `toml:"daily_limit"`
	MaxQuantity       int    `toml:"max_quantity"`
	LinkMessageAppend string `toml:"link_message_append"`
}

// SenderConfig grants a sender a drop tier for a collection.
type SenderConfig struct {
	ID         string `toml:"id"`
	Scope      string `toml:"scope"`
	Tier       string `toml:"tier"`
	Collection string `toml:"collection"`
}

type RaffleConfig struct {
	Enabled              bool     `toml:"enabled"`
	Collection           string   `toml:"collection"`
	ActionAccount        string   `toml:"action_account"`
	ActionName           string   `toml:"action_name"`
	LandIDs              []string `toml:"land_ids"`
	WhitelistURL         string   `toml:"whitelist_url"`
	WhitelistTTL         Duration `toml:"whitelist_ttl"`
	ExcludeRecentWinners bool     `toml:"exclude_recent_winners"`
	Seed                 int64    `toml:"seed"`
}

type StoreConfig struct {
	// Usage selects the daily ledger backend: "file" or "sqlite".
	Usage     string `toml:"usage"`
	UsageFile string `toml:"usage_file"`
	Database  string `toml:"database"`
}

type APIConfig struct {
	Listen string `toml:"listen"`
	Token  string `toml:"token"`
}

type LogConfig struct {
	Level string `toml:"level"`
	JSON  bool   `toml:"json"`
}

type AnnounceConfig struct {
	// Webhook, when set, receives announcements as {"content": ...} posts.
	Webhook string `toml:"webhook"`
}

// LoadConfig reads a TOML config file, applies defaults and validates it.
func LoadConfig(path string) (Config, error) {
	var config Config
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return Config{}, fmt.Errorf("failed to load %s: %w", path, err)
	}
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// ApplyDefaults fills every zero value that has a sensible default.
func (c *Config) ApplyDefaults() {
	setDuration(&c.Chain.RequestTimeout, 10*time.Second)
	setDuration(&c.Chain.BroadcastDeadline, 60*time.Second)
	setDuration(&c.Chain.Expiration, 2*time.Minute)

	setInt(&c.History.MaxCycles, 30)
	setDuration(&c.History.MaxBackoff, 64*time.Second)

	setDuration(&c.Indexer.Cooldown, 10*time.Minute)
	setInt(&c.Indexer.PageSize, 1000)
	setInt(&c.Indexer.MaxRequests, 2000)
	setInt(&c.Indexer.Retries, 4)
	setDuration(&c.Indexer.RetryBase, 500*time.Millisecond)
	if c.Indexer.Preferred == nil {
		c.Indexer.Preferred = []string{
			"https://api.waxsweden.org",
			"https://wax.eosphere.io",
			"https://wax.cryptolions.io",
		}
	}

	setDuration(&c.Inventory.RefreshInterval, 5*time.Minute)
	setInt(&c.Inventory.PageSize, 1000)

	for i := range c.Collections {
		col := &c.Collections[i]
		if col.DisplayName == "" {
			col.DisplayName = col.Name
		}
		if col.Permission == "" {
			col.Permission = "active"
		}
		setInt(&col.DailyLimit, 5)
		setInt(&col.MaxQuantity, 10)
		if col.LinkMessageAppend == "" {
			col.LinkMessageAppend = DefaultLinkMessageAppend
		}
	}

	if c.Raffle.ActionAccount == "" {
		c.Raffle.ActionAccount = "m.federation"
	}
	if c.Raffle.ActionName == "" {
		c.Raffle.ActionName = "logmine"
	}
	setDuration(&c.Raffle.WhitelistTTL, 10*time.Minute)

	if c.Store.Usage == "" {
		c.Store.Usage = "file"
	}
	if c.Store.UsageFile == "" {
		c.Store.UsageFile = "card_sends.json"
	}
	if c.Store.Database == "" {
		c.Store.Database = "greenwiz.db"
	}
	if c.API.Listen == "" {
		c.API.Listen = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate reports configuration mistakes that would only surface later at runtime.
func (c *Config) Validate() error {
	var errs []error
	seen := make(map[string]bool)
	for _, col := range c.Collections {
		if col.Name == "" {
			errs = append(errs, errors.New("collection without a name"))
			continue
		}
		if seen[col.Name] {
			errs = append(errs, fmt.Errorf("collection %s configured twice", col.Name))
		}
		seen[col.Name] = true
		if col.Account == "" {
			errs = append(errs, fmt.Errorf("collection %s has no account", col.Name))
		}
	}
	for _, s := range c.Senders {
		if _, err := ParseTier(s.Tier); err != nil {
			errs = append(errs, fmt.Errorf("sender %s: %w", s.ID, err))
		}
		if !seen[s.Collection] {
			errs = append(errs, fmt.Errorf("sender %s references unknown collection %q", s.ID, s.Collection))
		}
	}
	if c.Raffle.Enabled && !seen[c.Raffle.Collection] {
		errs = append(errs, fmt.Errorf("raffle references unknown collection %q", c.Raffle.Collection))
	}
	switch c.Store.Usage {
	case "file", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unknown usage store %q", c.Store.Usage))
	}
	return errors.Join(errs...)
}

// Collection returns the named collection config.
func (c *Config) Collection(name string) (CollectionConfig, bool) {
	for _, col := range c.Collections {
		if col.Name == name {
			return col, true
		}
	}
	return CollectionConfig{}, false
}

// PrivateKeyText returns the collection's key material from its env var or key file.
func (c CollectionConfig) PrivateKeyText() (string, error) {
	if c.KeyEnv != "" {
		if v := strings.TrimSpace(os.Getenv(c.KeyEnv)); v != "" {
			return v, nil
		}
	}
	if c.KeyFile != "" {
		data, err := os.ReadFile(c.KeyFile)
		if err != nil {
			return "", fmt.Errorf("failed to read key file for %s: %w", c.Name, err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	return "", fmt.Errorf("%w: no signing key available for collection %s", ErrConfigurationUnavailable, c.Name)
}

func setDuration(d *Duration, def time.Duration) {
	if d.Duration <= 0 {
		d.Duration = def
	}
}

func setInt(v *int, def int) {
	if *v <= 0 {
		*v = def
	}
}
