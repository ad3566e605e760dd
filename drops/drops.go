// Package drops issues claim links and distributes assets to recipients.
package drops

import (
	"context"
	"fmt"

	"github.com/crptomonkeys/greenwiz/broadcast"
	"github.com/crptomonkeys/greenwiz/history"
	"github.com/crptomonkeys/greenwiz/lib"
	"github.com/crptomonkeys/greenwiz/types"
)

// Recipient is whoever receives a drop. ID is the stable external id used to
// look up a linked wallet; Name is shown in memos and messages.
type Recipient struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// WalletBook stores the wallet a recipient linked, if any.
type WalletBook interface {
	LinkedWallet(ctx context.Context, recipientID string) (string, bool, error)
	LinkWallet(ctx context.Context, recipientID, wallet string) error
}

// UsageLedger counts drops per sender per UTC day (YYYY-MM-DD).
type UsageLedger interface {
	Used(ctx context.Context, day, sender string) (int, error)
	Increment(ctx context.Context, day, sender string) (int, error)
}

// Grant is what a Policy allows a sender to do in a scope.
type Grant struct {
	Tier       types.Tier
	Collection string
}

// Policy decides a sender's tier. Scope is wherever the request came from,
// for example a guild id or "cli".
type Policy interface {
	Authorize(ctx context.Context, sender, scope string) (Grant, error)
}

// Announcer posts public announcements and delivers private messages.
type Announcer interface {
	Announce(ctx context.Context, destination, text string) error
	Deliver(ctx context.Context, recipient Recipient, text string) error
}

// Executor submits actions as one signed transaction.
type Executor interface {
	Execute(ctx context.Context, identity types.SigningIdentity, actions ...types.Action) (*broadcast.PushResult, error)
}

// Confirmer waits for a transaction to be executed and extracts a value from it.
type Confirmer interface {
	Confirm(ctx context.Context, txID string, extract history.Extractor, progress history.Progress) (string, error)
}

// AssetSelector hands out assets a collection's drop account holds.
type AssetSelector interface {
	Select(collection string, n int) ([]types.Asset, error)
}

// Collection is a configured collection together with its signing identity.
type Collection struct {
	Config   types.CollectionConfig
	Identity types.SigningIdentity
}

// Collections indexes collections by name.
type Collections map[string]Collection

// LoadCollections parses every collection's key material.
func LoadCollections(configs []types.CollectionConfig) (Collections, error) {
	out := make(Collections, len(configs))
	for _, cfg := range configs {
		text, err := cfg.PrivateKeyText()
		if err != nil {
			return nil, err
		}
		key, err := lib.ParsePrivateKey(text)
		if err != nil {
			return nil, fmt.Errorf("collection %s: %w", cfg.Name, err)
		}
		out[cfg.Name] = Collection{
			Config: cfg,
			Identity: types.SigningIdentity{
				Account:    cfg.Account,
				Permission: cfg.Permission,
				Key:        key,
			},
		}
	}
	return out, nil
}

// Get returns the named collection.
func (c Collections) Get(name string) (Collection, error) {
	col, ok := c[name]
	if !ok {
		return Collection{}, fmt.Errorf("%w: collection %q is not configured", types.ErrConfigurationUnavailable, name)
	}
	return col, nil
}
