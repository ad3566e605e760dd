package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"cosmossdk.io/log"

	"github.com/crptomonkeys/greenwiz/lib"
	"github.com/crptomonkeys/greenwiz/lib/chainregistry"
	"github.com/crptomonkeys/greenwiz/types"
)

const (
	DefaultPageSize = 1000
	assetsPath      = "/atomicassets/v1/assets"
)

// Source lists the assets an account holds in one collection.
type Source interface {
	OwnedAssets(ctx context.Context, owner, collection string) ([]types.Asset, error)
}

// MarketSource reads holdings from the atomicassets API of the market rotation.
type MarketSource struct {
	registry *chainregistry.Registry
	http     *http.Client
	pageSize int
	logger   log.Logger
}

// NewMarketSource creates a MarketSource. pageSize <= 0 uses DefaultPageSize.
func NewMarketSource(registry *chainregistry.Registry, httpClient *http.Client, pageSize int, logger log.Logger) *MarketSource {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &MarketSource{registry: registry, http: httpClient, pageSize: pageSize, logger: logger.With("module", "market")}
}

type marketAsset struct {
	AssetID    string `json:"asset_id"`
	Name       string `json:"name"`
	Collection struct {
		CollectionName string `json:"collection_name"`
	} `json:"collection"`
	Data map[string]any `json:"data"`
}

type assetsPage struct {
	Success bool          `json:"success"`
	Data    []marketAsset `json:"data"`
}

// OwnedAssets pages through every asset owner holds in collection. A failing
// endpoint is abandoned and the listing restarts on the next one.
func (m *MarketSource) OwnedAssets(ctx context.Context, owner, collection string) ([]types.Asset, error) {
	endpoints, err := m.registry.Require(chainregistry.RoleMarket)
	if err != nil {
		return nil, err
	}

	var failures []types.EndpointFailure
	for _, endpoint := range endpoints {
		assets, err := m.listFrom(ctx, endpoint, owner, collection)
		if err == nil {
			return assets, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		m.logger.Debug("asset listing failed", "endpoint", endpoint, "collection", collection, "err", err)
		failures = append(failures, types.EndpointFailure{URL: endpoint, Reason: err.Error()})
	}
	return nil, fmt.Errorf("every market endpoint failed listing %s assets: %v", collection, failures)
}

func (m *MarketSource) listFrom(ctx context.Context, endpoint, owner, collection string) ([]types.Asset, error) {
	var assets []types.Asset
	for page := 1; ; page++ {
		params := url.Values{
			"owner":                {owner},
			"collection_whitelist": {collection},
			"limit":                {strconv.Itoa(m.pageSize)},
			"page":                 {strconv.Itoa(page)},
		}
		resp, err := lib.HTTPGet(ctx, m.http, lib.JoinURL(endpoint, assetsPath), params)
		if err != nil {
			return nil, err
		}
		if !resp.OK() {
			return nil, fmt.Errorf("status %d", resp.Code)
		}
		var parsed assetsPage
		if err := json.Unmarshal(resp.Body, &parsed); err != nil {
			return nil, fmt.Errorf("malformed assets page: %w", err)
		}
		for _, a := range parsed.Data {
			id, err := strconv.ParseUint(a.AssetID, 10, 64)
			if err != nil {
				continue
			}
			img, _ := a.Data["img"].(string)
			name := a.Name
			if name == "" {
				name, _ = a.Data["name"].(string)
			}
			assets = append(assets, types.Asset{
				ID:         id,
				Collection: a.Collection.CollectionName,
				Name:       name,
				ImageHash:  img,
			})
		}
		if len(parsed.Data) < m.pageSize {
			return assets, nil
		}
	}
}
