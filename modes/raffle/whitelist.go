package raffle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/crptomonkeys/greenwiz/lib"
)

// Whitelist maps a wallet to the external user ids linked to it.
type Whitelist map[string][]string

// IDs returns the sorted ids linked to wallet.
func (w Whitelist) IDs(wallet string) []string {
	return w[wallet]
}

// WhitelistSource supplies the wallets allowed to win.
type WhitelistSource interface {
	Whitelist(ctx context.Context) (Whitelist, error)
}

// StaticWhitelist is a fixed whitelist, mostly for tests and one-off runs.
type StaticWhitelist Whitelist

func (s StaticWhitelist) Whitelist(context.Context) (Whitelist, error) {
	return Whitelist(s), nil
}

// HTTPWhitelist fetches {"success": true, "data": [{"<id>": "<wallet>"}, ...]}
// and caches the parsed result for its TTL.
type HTTPWhitelist struct {
	url   string
	http  *http.Client
	cache *lib.Cache[string, Whitelist]
}

func NewHTTPWhitelist(url string, httpClient *http.Client, ttl time.Duration) *HTTPWhitelist {
	w := &HTTPWhitelist{url: url, http: httpClient}
	w.cache = lib.NewCache(ttl, w.fetch)
	return w
}

// Cache exposes the underlying cache so callers can force a reload.
func (w *HTTPWhitelist) Cache() *lib.Cache[string, Whitelist] {
	return w.cache
}

func (w *HTTPWhitelist) Whitelist(ctx context.Context) (Whitelist, error) {
	return w.cache.Get(ctx, w.url)
}

func (w *HTTPWhitelist) fetch(ctx context.Context, url string) (Whitelist, error) {
	resp, err := lib.HTTPGet(ctx, w.http, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch whitelist: %w", err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("failed to fetch whitelist: status %d", resp.Code)
	}
	return ParseWhitelist(resp.Body)
}

// ParseWhitelist reads the whitelist document. Wallets are trimmed and
// lowercased; entries with blank wallets are ignored.
func ParseWhitelist(body []byte) (Whitelist, error) {
	var doc struct {
		Success bool                `json:"success"`
		Data    []map[string]string `json:"data"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("malformed whitelist: %w", err)
	}
	if !doc.Success {
		return nil, fmt.Errorf("whitelist request was not successful")
	}

	out := make(Whitelist)
	for _, entry := range doc.Data {
		for id, wallet := range entry {
			wallet = strings.ToLower(strings.TrimSpace(wallet))
			id = strings.TrimSpace(id)
			if wallet == "" || id == "" {
				continue
			}
			out[wallet] = append(out[wallet], id)
		}
	}
	for _, ids := range out {
		sort.Slice(ids, func(i, j int) bool { return numericLess(ids[i], ids[j]) })
	}
	return out, nil
}

// numericLess orders decimal ids by value, falling back to text order.
func numericLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
