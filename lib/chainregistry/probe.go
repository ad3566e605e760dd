package chainregistry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/crptomonkeys/greenwiz/lib"
)

// DefaultProbeConcurrency bounds parallel health checks.
const DefaultProbeConcurrency = 8

// ProbeResult is the outcome of checking one endpoint.
type ProbeResult struct {
	URL       string        `json:"url"`
	Role      Role          `json:"role"`
	Healthy   bool          `json:"healthy"`
	Latency   time.Duration `json:"latency"`
	HeadBlock uint64        `json:"head_block,omitempty"`
	ChainID   string        `json:"chain_id,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// healthPath is the cheapest request each role answers.
func healthPath(role Role) (string, url.Values) {
	switch role {
	case RoleIndexer, RoleHistory:
		return "/v2/health", nil
	case RoleMarket:
		return "/health", nil
	default:
		return "/v1/chain/get_info", nil
	}
}

// Probe checks every live endpoint of role with at most concurrency requests
// in flight. Results are sorted healthy first, then by latency.
func (r *Registry) Probe(ctx context.Context, client *http.Client, role Role, concurrency int) ([]ProbeResult, error) {
	urls, err := r.Require(role)
	if err != nil {
		return nil, err
	}
	if concurrency <= 0 {
		concurrency = DefaultProbeConcurrency
	}

	results := make([]ProbeResult, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, u := range urls {
		g.Go(func() error {
			results[i] = probeOne(gctx, client, role, u)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Healthy != results[j].Healthy {
			return results[i].Healthy
		}
		return results[i].Latency < results[j].Latency
	})
	return results, nil
}

func probeOne(ctx context.Context, client *http.Client, role Role, endpoint string) ProbeResult {
	res := ProbeResult{URL: endpoint, Role: role}
	path, params := healthPath(role)

	start := time.Now()
	var resp lib.Response
	var err error
	if role == RoleCore {
		resp, err = lib.HTTPPostJSON(ctx, client, lib.JoinURL(endpoint, path), struct{}{})
	} else {
		resp, err = lib.HTTPGet(ctx, client, lib.JoinURL(endpoint, path), params)
	}
	res.Latency = time.Since(start)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if !resp.OK() {
		res.Error = fmt.Sprintf("status %d", resp.Code)
		return res
	}

	if role == RoleCore {
		var info struct {
			ChainID      string `json:"chain_id"`
			HeadBlockNum uint64 `json:"head_block_num"`
		}
		if err := json.Unmarshal(resp.Body, &info); err != nil || info.HeadBlockNum == 0 {
			res.Error = "malformed get_info response"
			return res
		}
		res.HeadBlock = info.HeadBlockNum
		res.ChainID = info.ChainID
	}
	res.Healthy = true
	return res
}
