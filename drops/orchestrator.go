package drops

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cosmossdk.io/log"
	"github.com/google/uuid"

	"github.com/crptomonkeys/greenwiz/broadcast"
	"github.com/crptomonkeys/greenwiz/lib"
	"github.com/crptomonkeys/greenwiz/modules/atomicassets"
	"github.com/crptomonkeys/greenwiz/modules/atomictoolsx"
	"github.com/crptomonkeys/greenwiz/modules/eosiotoken"
	"github.com/crptomonkeys/greenwiz/types"
)

// DeliveryRetryDelay is how long a failed delivery waits before its one retry.
const DeliveryRetryDelay = 15 * time.Minute

// DayKey is the usage ledger key for t.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Request asks for quantity random assets to be dropped on recipient.
type Request struct {
	Sender    string    `json:"sender"`
	Scope     string    `json:"scope"`
	Recipient Recipient `json:"recipient"`
	Reason    string    `json:"reason"`
	Quantity  int       `json:"quantity"`
}

// Result describes a completed drop. Exactly one of Wallet and Link is set.
type Result struct {
	RequestID     string                  `json:"request_id"`
	Collection    string                  `json:"collection"`
	Memo          string                  `json:"memo"`
	Wallet        string                  `json:"wallet,omitempty"`
	AssetIDs      []uint64                `json:"asset_ids"`
	Link          *atomictoolsx.Claimlink `json:"-"`
	LinkID        string                  `json:"link_id,omitempty"`
	TransactionID string                  `json:"transaction_id,omitempty"`
	UsedToday     int                     `json:"used_today"`
	// DeliveryPending is set when the recipient message could not be sent
	// and a retry was scheduled.
	DeliveryPending bool `json:"delivery_pending"`
}

// Distributor decides between direct transfer and claim link per recipient
// and enforces sender tiers, daily limits and one drop per sender at a time.
type Distributor struct {
	collections Collections
	policy      Policy
	wallets     WalletBook
	usage       UsageLedger
	announcer   Announcer
	executor    Executor
	links       *ClaimLinkService
	assets      AssetSelector
	locks       *lib.KeyedLocks
	validator   *lib.AccountValidator
	now         func() time.Time
	retryDelay  time.Duration
	afterFunc   func(time.Duration, func()) *time.Timer

	// timers holds pending delivery retries by request id until they fire.
	timersMu sync.Mutex
	timers   map[string]*time.Timer

	logger log.Logger
}

// NewDistributor wires a Distributor.
func NewDistributor(
	collections Collections,
	policy Policy,
	wallets WalletBook,
	usage UsageLedger,
	announcer Announcer,
	executor Executor,
	links *ClaimLinkService,
	assets AssetSelector,
	validator *lib.AccountValidator,
	logger log.Logger,
) *Distributor {
	return &Distributor{
		collections: collections,
		policy:      policy,
		wallets:     wallets,
		usage:       usage,
		announcer:   announcer,
		executor:    executor,
		links:       links,
		assets:      assets,
		locks:       lib.NewKeyedLocks(),
		validator:   validator,
		now:         time.Now,
		retryDelay:  DeliveryRetryDelay,
		afterFunc:   time.AfterFunc,
		timers:      make(map[string]*time.Timer),
		logger:      logger.With("module", "drops"),
	}
}

// Stop cancels pending delivery retries.
func (d *Distributor) Stop() {
	d.timersMu.Lock()
	defer d.timersMu.Unlock()
	for id, t := range d.timers {
		t.Stop()
		delete(d.timers, id)
	}
}

// pendingDeliveries counts scheduled retries that have not fired.
func (d *Distributor) pendingDeliveries() int {
	d.timersMu.Lock()
	defer d.timersMu.Unlock()
	return len(d.timers)
}

func checkQuantity(tier types.Tier, quantity, max int) error {
	switch tier {
	case types.TierLimited:
		if quantity != 1 {
			return fmt.Errorf("%w: limited senders may drop one asset at a time", types.ErrInvalidQuantity)
		}
	case types.TierUnlimited:
		if quantity < 1 || quantity > max {
			return fmt.Errorf("%w: quantity must be between 1 and %d", types.ErrInvalidQuantity, max)
		}
	default:
		return types.ErrNotAuthorized
	}
	return nil
}

// Distribute performs one drop. Nothing is counted unless the drop succeeds.
func (d *Distributor) Distribute(ctx context.Context, req Request) (*Result, error) {
	requestID := uuid.NewString()
	logger := d.logger.With("request", requestID, "sender", req.Sender)

	if req.Recipient.ID == "" {
		return nil, fmt.Errorf("%w: recipient has no id", types.ErrInvalidRecipient)
	}
	if req.Recipient.Name == "" {
		req.Recipient.Name = req.Recipient.ID
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	grant, err := d.policy.Authorize(ctx, req.Sender, req.Scope)
	if err != nil {
		return nil, fmt.Errorf("failed to authorize %s: %w", req.Sender, err)
	}
	if grant.Tier == types.TierDisallowed {
		return nil, fmt.Errorf("%w: %s may not drop here", types.ErrNotAuthorized, req.Sender)
	}
	col, err := d.collections.Get(grant.Collection)
	if err != nil {
		return nil, err
	}
	if err := checkQuantity(grant.Tier, req.Quantity, col.Config.MaxQuantity); err != nil {
		return nil, err
	}
	memo, err := Memo(req.Recipient.Name, req.Reason, col.Config.Name, col.Config.LinkMessageAppend)
	if err != nil {
		return nil, err
	}

	release, ok := d.locks.TryLock(req.Sender)
	if !ok {
		return nil, types.ErrBusy
	}
	defer release()

	day := DayKey(d.now())
	if grant.Tier == types.TierLimited {
		used, err := d.usage.Used(ctx, day, req.Sender)
		if err != nil {
			return nil, fmt.Errorf("failed to read usage of %s: %w", req.Sender, err)
		}
		if used >= col.Config.DailyLimit {
			return nil, types.ErrDailyLimit
		}
	}

	wallet, linked, err := d.wallets.LinkedWallet(ctx, req.Recipient.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up wallet of %s: %w", req.Recipient.ID, err)
	}
	if linked && !d.validator.Valid(wallet) {
		return nil, fmt.Errorf("%w: linked wallet %q of %s is not a valid account", types.ErrInvalidRecipient, wallet, req.Recipient.ID)
	}

	result := &Result{RequestID: requestID, Collection: col.Config.Name, Memo: memo}
	var message, announcement string
	if linked {
		assets, err := d.assets.Select(col.Config.Name, req.Quantity)
		if err != nil {
			return nil, err
		}
		ids := types.AssetIDs(assets)
		push, err := d.executor.Execute(ctx, col.Identity,
			atomicassets.Transfer(col.Identity.Authorization(), col.Identity.Account, wallet, ids, memo))
		if err != nil {
			return nil, fmt.Errorf("failed to transfer %v to %s: %w", ids, wallet, err)
		}
		result.Wallet = wallet
		result.AssetIDs = ids
		result.TransactionID = push.TransactionID
		message = DirectDropMessage(col.Config, wallet, assets)
		announcement = DropAnnouncement(col.Config, memo, req.Recipient, assets)
		logger.Info("sent assets directly", "wallet", wallet, "assets", ids, "tx", push.TransactionID)
	} else {
		link, assets, err := d.links.RandomClaimLink(ctx, col.Config.Name, req.Recipient.Name, req.Reason, req.Quantity)
		if err != nil {
			return nil, err
		}
		result.Link = link
		result.LinkID = link.LinkID
		result.AssetIDs = types.AssetIDs(assets)
		message = ClaimLinkMessage(col.Config, link, req.Quantity)
		announcement = LinkAnnouncement(col.Config, memo, req.Recipient, link)
		logger.Info("created claim link", "link", link.LinkID, "assets", result.AssetIDs)
	}

	used, err := d.usage.Increment(ctx, day, req.Sender)
	if err != nil {
		logger.Error("failed to record usage", "err", err)
	}
	result.UsedToday = used

	if err := d.announcer.Deliver(ctx, req.Recipient, message); err != nil {
		logger.Warn("could not deliver drop, retrying later", "recipient", req.Recipient.ID, "in", d.retryDelay, "err", err)
		result.DeliveryPending = true
		d.scheduleDelivery(result.RequestID, req.Recipient, message, logger)
	}
	if col.Config.AnnounceTo != "" {
		if err := d.announcer.Announce(ctx, col.Config.AnnounceTo, announcement); err != nil {
			logger.Warn("failed to announce drop", "destination", col.Config.AnnounceTo, "err", err)
		}
	}
	return result, nil
}

func (d *Distributor) scheduleDelivery(requestID string, recipient Recipient, message string, logger log.Logger) {
	d.timersMu.Lock()
	defer d.timersMu.Unlock()
	d.timers[requestID] = d.afterFunc(d.retryDelay, func() {
		d.timersMu.Lock()
		delete(d.timers, requestID)
		d.timersMu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := d.announcer.Deliver(ctx, recipient, message); err != nil {
			logger.Error("retried delivery failed, giving up", "recipient", recipient.ID, "err", err)
			return
		}
		logger.Info("delivered drop on retry", "recipient", recipient.ID)
	})
}

// SendAssets transfers specific assets from a collection's drop account.
func (d *Distributor) SendAssets(ctx context.Context, collection, to string, assetIDs []uint64, memo, sender string) (*broadcast.PushResult, error) {
	if !d.validator.Valid(to) {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidRecipient, to)
	}
	if len(assetIDs) == 0 {
		return nil, fmt.Errorf("%w: no assets to send", types.ErrInvalidQuantity)
	}
	col, err := d.collections.Get(collection)
	if err != nil {
		return nil, err
	}
	if memo == "" {
		memo = fmt.Sprintf("Asset transfer by %s on behalf of %s by the NFT Tip Bot.", sender, collection)
	}
	return d.executor.Execute(ctx, col.Identity,
		atomicassets.Transfer(col.Identity.Authorization(), col.Identity.Account, to, assetIDs, memo))
}

// SendFunds transfers WAX from a collection's account.
func (d *Distributor) SendFunds(ctx context.Context, collection, to, amount, sender string) (*broadcast.PushResult, error) {
	if !d.validator.Valid(to) {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidRecipient, to)
	}
	parsed, err := eosiotoken.ParseAmount(amount)
	if err != nil {
		return nil, errors.Join(types.ErrInvalidQuantity, err)
	}
	col, err := d.collections.Get(collection)
	if err != nil {
		return nil, err
	}
	memo := fmt.Sprintf("Funds transfer by %s on behalf of NFT Tip Bot.", sender)
	return d.executor.Execute(ctx, col.Identity,
		eosiotoken.Transfer(col.Identity.Authorization(), col.Identity.Account, to, eosiotoken.FormatAmount(parsed), memo))
}

// Mint mints amount assets of templateID to to. An empty schema defaults to
// the collection name.
func (d *Distributor) Mint(ctx context.Context, collection, schema string, templateID int32, to string, amount int) (*broadcast.PushResult, error) {
	if !d.validator.Valid(to) {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidRecipient, to)
	}
	col, err := d.collections.Get(collection)
	if err != nil {
		return nil, err
	}
	if amount < 1 || amount > col.Config.MaxQuantity {
		return nil, fmt.Errorf("%w: amount must be between 1 and %d", types.ErrInvalidQuantity, col.Config.MaxQuantity)
	}
	if templateID <= 0 {
		return nil, fmt.Errorf("%w: template id must be positive", types.ErrInvalidQuantity)
	}
	if schema == "" {
		schema = collection
	}
	action := atomicassets.MintAsset(col.Identity.Authorization(), col.Identity.Account, collection, schema, templateID, to)
	actions := make([]types.Action, amount)
	for i := range actions {
		actions[i] = action
	}
	return d.executor.Execute(ctx, col.Identity, actions...)
}
