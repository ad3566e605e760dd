package drops

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"cosmossdk.io/log"

	"github.com/crptomonkeys/greenwiz/history"
	"github.com/crptomonkeys/greenwiz/lib"
	"github.com/crptomonkeys/greenwiz/lib/chainregistry"
	"github.com/crptomonkeys/greenwiz/modules/atomictoolsx"
	"github.com/crptomonkeys/greenwiz/types"
)

const (
	// DefaultCancelBatch is the most links one cancel transaction may carry,
	// bounded by on-chain CPU limits.
	DefaultCancelBatch = 50
	// DefaultStaleAge is how old an unclaimed link must be before cleanup.
	DefaultStaleAge = 91 * 24 * time.Hour

	linksPath = "/atomictools/v1/links"
)

// CancelResult is the outcome of a cancel transaction.
type CancelResult struct {
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
}

// StaleLink is an unclaimed link old enough to be cancelled.
type StaleLink struct {
	LinkID  uint64    `json:"link_id"`
	Created time.Time `json:"created"`
}

// ClaimLinkService creates and cancels claim links for configured collections.
type ClaimLinkService struct {
	collections Collections
	executor    Executor
	confirmer   Confirmer
	assets      AssetSelector
	registry    *chainregistry.Registry
	http        *http.Client
	progressMu  sync.RWMutex
	progress    history.Progress
	now         func() time.Time
	logger      log.Logger
}

// NewClaimLinkService wires the service. registry and httpClient are used to
// look up stale links on the market API.
func NewClaimLinkService(
	collections Collections,
	executor Executor,
	confirmer Confirmer,
	assets AssetSelector,
	registry *chainregistry.Registry,
	httpClient *http.Client,
	logger log.Logger,
) *ClaimLinkService {
	return &ClaimLinkService{
		collections: collections,
		executor:    executor,
		confirmer:   confirmer,
		assets:      assets,
		registry:    registry,
		http:        httpClient,
		now:         time.Now,
		logger:      logger.With("module", "claimlink"),
	}
}

// SetProgress installs a callback receiving every confirmation attempt of
// later Create calls. It is shared by concurrent creates.
func (s *ClaimLinkService) SetProgress(progress history.Progress) {
	s.progressMu.Lock()
	defer s.progressMu.Unlock()
	s.progress = progress
}

func (s *ClaimLinkService) currentProgress() history.Progress {
	s.progressMu.RLock()
	defer s.progressMu.RUnlock()
	return s.progress
}

// Create escrows assetIDs in a new claim link. With wait set the link id is
// read from the confirmed transaction, otherwise it is taken from the push
// result, which nodes do not always include.
func (s *ClaimLinkService) Create(ctx context.Context, collection string, assetIDs []uint64, memo string, wait bool) (*atomictoolsx.Claimlink, error) {
	if len(assetIDs) == 0 {
		return nil, fmt.Errorf("%w: a claim link needs at least one asset", types.ErrInvalidQuantity)
	}
	col, err := s.collections.Get(collection)
	if err != nil {
		return nil, err
	}

	key, err := lib.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	memo = LinkMemo(memo, col.Config.LinkMessageAppend)
	actions := atomictoolsx.CreateLink(col.Identity.Authorization(), col.Identity.Account, key.PublicKey(), assetIDs, memo)

	result, err := s.executor.Execute(ctx, col.Identity, actions...)
	if err != nil {
		return nil, fmt.Errorf("failed to submit claim link: %w", err)
	}
	s.logger.Info("claim link submitted", "collection", collection, "tx", result.TransactionID, "assets", len(assetIDs))

	var linkID string
	if wait {
		linkID, err = s.confirmer.Confirm(ctx, result.TransactionID, history.LinkIDExtractor, s.currentProgress())
		if err != nil {
			return nil, fmt.Errorf("claim link transaction %s: %w", result.TransactionID, err)
		}
	} else {
		var ok bool
		if linkID, ok = history.FindField(result.Raw, "link_id"); !ok {
			return nil, fmt.Errorf("claim link transaction %s: push result has no link_id: %w", result.TransactionID, history.ErrFieldNotFound)
		}
	}
	return &atomictoolsx.Claimlink{LinkID: linkID, PrivateKey: key.String()}, nil
}

// RandomClaimLink takes n assets from the inventory and links them for user.
func (s *ClaimLinkService) RandomClaimLink(ctx context.Context, collection, user, reason string, n int) (*atomictoolsx.Claimlink, []types.Asset, error) {
	col, err := s.collections.Get(collection)
	if err != nil {
		return nil, nil, err
	}
	memo, err := Memo(user, reason, collection, col.Config.LinkMessageAppend)
	if err != nil {
		return nil, nil, err
	}
	assets, err := s.assets.Select(collection, n)
	if err != nil {
		return nil, nil, err
	}
	link, err := s.Create(ctx, collection, types.AssetIDs(assets), memo, true)
	if err != nil {
		return nil, nil, err
	}
	return link, assets, nil
}

// Cancel returns one link's assets to the collection account.
func (s *ClaimLinkService) Cancel(ctx context.Context, collection string, linkID uint64) (*CancelResult, error) {
	return s.CancelMany(ctx, collection, []uint64{linkID}, DefaultCancelBatch)
}

// CancelMany cancels links in a single transaction. Batches larger than
// maxBatch are rejected before anything is sent.
func (s *ClaimLinkService) CancelMany(ctx context.Context, collection string, linkIDs []uint64, maxBatch int) (*CancelResult, error) {
	if maxBatch <= 0 {
		maxBatch = DefaultCancelBatch
	}
	if len(linkIDs) == 0 {
		return nil, fmt.Errorf("%w: no claim links to cancel", types.ErrInvalidQuantity)
	}
	if len(linkIDs) > maxBatch {
		return nil, fmt.Errorf("%w: %d is too many claim links to cancel in one transaction, max is %d",
			types.ErrInvalidQuantity, len(linkIDs), maxBatch)
	}
	col, err := s.collections.Get(collection)
	if err != nil {
		return nil, err
	}

	actions := make([]types.Action, len(linkIDs))
	for i, id := range linkIDs {
		actions[i] = atomictoolsx.CancelLink(col.Identity.Authorization(), id)
	}
	result, err := s.executor.Execute(ctx, col.Identity, actions...)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel claim links: %w", err)
	}
	s.logger.Info("claim links cancelled", "collection", collection, "links", len(linkIDs), "tx", result.TransactionID, "status", result.Status())
	return &CancelResult{Status: result.Status(), TransactionID: result.TransactionID}, nil
}

type linkEntry struct {
	LinkID  json.RawMessage `json:"link_id"`
	Creator string          `json:"creator"`
	State   json.RawMessage `json:"state"`
	Created json.RawMessage `json:"created_at_time"`
}

type linksPage struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    []linkEntry `json:"data"`
}

// FindStaleLinks lists the collection account's unclaimed links created more
// than olderThan ago, oldest first, at most limit of them.
func (s *ClaimLinkService) FindStaleLinks(ctx context.Context, collection string, olderThan time.Duration, limit int) ([]StaleLink, error) {
	if olderThan <= 0 {
		olderThan = DefaultStaleAge
	}
	if limit <= 0 {
		limit = DefaultCancelBatch
	}
	col, err := s.collections.Get(collection)
	if err != nil {
		return nil, err
	}
	endpoints, err := s.registry.Require(chainregistry.RoleMarket)
	if err != nil {
		return nil, err
	}

	params := url.Values{
		"creator": {col.Identity.Account},
		"state":   {"1"},
		"sort":    {"created"},
		"order":   {"asc"},
		"limit":   {"100"},
		"page":    {"1"},
	}
	var failures []types.EndpointFailure
	for _, endpoint := range endpoints {
		page, err := s.fetchLinks(ctx, endpoint, params)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			failures = append(failures, types.EndpointFailure{URL: endpoint, Reason: err.Error()})
			continue
		}
		return staleFrom(page, col.Identity.Account, s.now().Add(-olderThan), limit), nil
	}
	return nil, fmt.Errorf("every market endpoint failed listing links: %v", failures)
}

func (s *ClaimLinkService) fetchLinks(ctx context.Context, endpoint string, params url.Values) (*linksPage, error) {
	resp, err := lib.HTTPGet(ctx, s.http, lib.JoinURL(endpoint, linksPath), params)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("status %d", resp.Code)
	}
	var page linksPage
	if err := json.Unmarshal(resp.Body, &page); err != nil {
		return nil, fmt.Errorf("malformed links page: %w", err)
	}
	if !page.Success {
		return nil, fmt.Errorf("links query unsuccessful: %s", page.Message)
	}
	return &page, nil
}

func staleFrom(page *linksPage, creator string, cutoff time.Time, limit int) []StaleLink {
	var out []StaleLink
	for _, entry := range page.Data {
		if len(out) >= limit {
			break
		}
		if history.Scalar(entry.State) != "1" || entry.Creator != creator {
			continue
		}
		ms, err := strconv.ParseInt(history.Scalar(entry.Created), 10, 64)
		if err != nil {
			continue
		}
		created := time.UnixMilli(ms).UTC()
		if created.After(cutoff) {
			continue
		}
		id, err := strconv.ParseUint(history.Scalar(entry.LinkID), 10, 64)
		if err != nil {
			continue
		}
		out = append(out, StaleLink{LinkID: id, Created: created})
	}
	return out
}
