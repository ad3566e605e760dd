package broadcast

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/crptomonkeys/greenwiz/lib"
	"github.com/crptomonkeys/greenwiz/types"
)

// Client talks to one node's chain API.
type Client struct {
	baseURL string
	http    *http.Client
}

// clientPool caches one Client per endpoint URL.
type clientPool struct {
	http    *http.Client
	clients map[string]*Client
	mu      sync.RWMutex
}

func newClientPool(httpClient *http.Client) *clientPool {
	return &clientPool{http: httpClient, clients: make(map[string]*Client)}
}

func (p *clientPool) get(endpoint string) *Client {
	p.mu.RLock()
	if client, exists := p.clients[endpoint]; exists {
		p.mu.RUnlock()
		return client
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	// Double-check after acquiring write lock
	if client, exists := p.clients[endpoint]; exists {
		return client
	}
	client := NewClient(endpoint, p.http)
	p.clients[endpoint] = client
	return client
}

// NewClient creates a chain API client for baseURL.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// URL returns the endpoint the client talks to.
func (c *Client) URL() string { return c.baseURL }

// ChainInfo is the subset of get_info the builder needs.
type ChainInfo struct {
	ChainID      string `json:"chain_id"`
	HeadBlockNum uint32 `json:"head_block_num"`
}

// Block is the subset of get_block the builder needs.
type Block struct {
	BlockNum       uint32 `json:"block_num"`
	RefBlockPrefix uint32 `json:"ref_block_prefix"`
	Timestamp      string `json:"timestamp"`
}

// Time parses the block timestamp, which nodes report without a zone.
func (b Block) Time() (time.Time, error) {
	for _, layout := range []string{"2006-01-02T15:04:05.000", "2006-01-02T15:04:05", time.RFC3339Nano} {
		if t, err := time.ParseInLocation(layout, b.Timestamp, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable block timestamp %q", b.Timestamp)
}

// ActionTrace is one executed action in a push_transaction result.
type ActionTrace struct {
	Act struct {
		Account       string                  `json:"account"`
		Name          string                  `json:"name"`
		Authorization []types.PermissionLevel `json:"authorization"`
		Data          json.RawMessage         `json:"data"`
	} `json:"act"`
}

// PushResult is the decoded push_transaction response. Raw keeps the full body.
type PushResult struct {
	TransactionID string `json:"transaction_id"`
	Processed     struct {
		ID       string `json:"id"`
		BlockNum uint32 `json:"block_num"`
		Receipt  struct {
			Status string `json:"status"`
		} `json:"receipt"`
		ActionTraces []ActionTrace `json:"action_traces"`
	} `json:"processed"`
	Endpoint string          `json:"-"`
	Raw      json.RawMessage `json:"-"`
}

// Status returns the receipt status, "errored" when missing.
func (r *PushResult) Status() string {
	if r.Processed.Receipt.Status == "" {
		return "errored"
	}
	return r.Processed.Receipt.Status
}

// Valid reports whether the result looks like an applied transaction: it
// carries an id, a block number and an authorized action trace.
func (r *PushResult) Valid() bool {
	if r.TransactionID == "" || r.Processed.BlockNum == 0 {
		return false
	}
	for _, tr := range r.Processed.ActionTraces {
		if len(tr.Act.Authorization) > 0 {
			return true
		}
	}
	return false
}

// PackedTransaction is the push_transaction request body.
type PackedTransaction struct {
	Signatures            []string `json:"signatures"`
	Compression           int      `json:"compression"`
	PackedContextFreeData string   `json:"packed_context_free_data"`
	PackedTrx             string   `json:"packed_trx"`
}

// checkResponse turns node error bodies, including 200 replies carrying an
// error code, into a *types.ChainError.
func checkResponse(resp lib.Response) error {
	if chainErr := types.DecodeChainError(resp.Status, resp.Body); chainErr != nil {
		return chainErr
	}
	if resp.Code >= 400 {
		return &types.ChainError{HTTPStatus: resp.Status, Code: resp.Code, Raw: resp.Body}
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	resp, err := lib.HTTPPostJSON(ctx, c.http, lib.JoinURL(c.baseURL, path), body)
	if err != nil {
		return err
	}
	if err := checkResponse(resp); err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("malformed %s response: %w", path, err)
	}
	return nil
}

// GetInfo calls /v1/chain/get_info.
func (c *Client) GetInfo(ctx context.Context) (*ChainInfo, error) {
	var info ChainInfo
	if err := c.post(ctx, "/v1/chain/get_info", struct{}{}, &info); err != nil {
		return nil, err
	}
	if info.ChainID == "" || info.HeadBlockNum == 0 {
		return nil, errors.New("get_info response missing chain id or head block")
	}
	return &info, nil
}

// GetBlock calls /v1/chain/get_block.
func (c *Client) GetBlock(ctx context.Context, num uint32) (*Block, error) {
	var block Block
	req := map[string]any{"block_num_or_id": num}
	if err := c.post(ctx, "/v1/chain/get_block", req, &block); err != nil {
		return nil, err
	}
	if block.BlockNum == 0 {
		return nil, errors.New("get_block response missing block number")
	}
	return &block, nil
}

// GetHeadBlock returns the chain id and the current head block.
func (c *Client) GetHeadBlock(ctx context.Context) (string, *Block, error) {
	info, err := c.GetInfo(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("get_info: %w", err)
	}
	block, err := c.GetBlock(ctx, info.HeadBlockNum)
	if err != nil {
		return "", nil, fmt.Errorf("get_block %d: %w", info.HeadBlockNum, err)
	}
	return info.ChainID, block, nil
}

// ABIJSONToBin encodes action args with the node's copy of the contract ABI.
func (c *Client) ABIJSONToBin(ctx context.Context, code, action string, args any) ([]byte, error) {
	var out struct {
		Binargs string `json:"binargs"`
	}
	req := map[string]any{"code": code, "action": action, "args": args}
	if err := c.post(ctx, "/v1/chain/abi_json_to_bin", req, &out); err != nil {
		return nil, err
	}
	data, err := hex.DecodeString(out.Binargs)
	if err != nil {
		return nil, fmt.Errorf("invalid binargs from %s: %w", c.baseURL, err)
	}
	return data, nil
}

// PushTransaction submits a signed packed transaction.
func (c *Client) PushTransaction(ctx context.Context, trx *PackedTransaction) (*PushResult, error) {
	resp, err := lib.HTTPPostJSON(ctx, c.http, lib.JoinURL(c.baseURL, "/v1/chain/push_transaction"), trx)
	if err != nil {
		return nil, err
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	var result PushResult
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("malformed push_transaction response: %w", err)
	}
	result.Endpoint = c.baseURL
	result.Raw = resp.Body
	if !result.Valid() {
		return nil, errors.New("transaction response does not contain expected fields")
	}
	return &result, nil
}
