// Package broadcasttest provides a fake chain API node for tests.
package broadcasttest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// ChainID is the WAX mainnet chain id, reported by default.
const ChainID = "1064487b3cd1a897ce03ae5b6a865651747e2e152090f99c1d19d44e01aea5a4"

// BlockTime is the timestamp of every block the node serves.
var BlockTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// Node is a fake node serving get_info, get_block, abi_json_to_bin and
// push_transaction. Every request body it receives is recorded.
type Node struct {
	*httptest.Server

	chainID    string
	headBlock  uint32
	infoStatus int
	pushStatus int
	pushBody   string
	pushDelay  time.Duration
	traces     []map[string]any

	mu     sync.Mutex
	pushes []map[string]any
	abi    []map[string]any
}

// Option configures a Node.
type Option func(*Node)

// WithChainID makes the node report id from get_info.
func WithChainID(id string) Option { return func(n *Node) { n.chainID = id } }

// FailingInfo makes get_info answer with status.
func FailingInfo(status int) Option { return func(n *Node) { n.infoStatus = status } }

// FailingPush makes push_transaction answer with status and body.
func FailingPush(status int, body string) Option {
	return func(n *Node) {
		n.pushStatus = status
		n.pushBody = body
	}
}

// SlowPush delays push_transaction by d, or until the caller gives up.
func SlowPush(d time.Duration) Option { return func(n *Node) { n.pushDelay = d } }

// WithTraces replaces the action traces of successful push results.
func WithTraces(traces ...map[string]any) Option { return func(n *Node) { n.traces = traces } }

// NewNode starts a node that is closed when the test ends.
func NewNode(t testing.TB, opts ...Option) *Node {
	t.Helper()
	n := &Node{chainID: ChainID, headBlock: 300_000_123}
	for _, opt := range opts {
		opt(n)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chain/get_info", n.getInfo)
	mux.HandleFunc("/v1/chain/get_block", n.getBlock)
	mux.HandleFunc("/v1/chain/abi_json_to_bin", n.abiJSONToBin)
	mux.HandleFunc("/v1/chain/push_transaction", n.pushTransaction)
	n.Server = httptest.NewServer(mux)
	t.Cleanup(n.Close)
	return n
}

// Pushes returns the push_transaction bodies received so far.
func (n *Node) Pushes() []map[string]any {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]map[string]any(nil), n.pushes...)
}

// ABIRequests returns the abi_json_to_bin bodies received so far.
func (n *Node) ABIRequests() []map[string]any {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]map[string]any(nil), n.abi...)
}

func (n *Node) getInfo(w http.ResponseWriter, r *http.Request) {
	if n.infoStatus != 0 {
		writeJSON(w, n.infoStatus, map[string]any{"code": n.infoStatus, "message": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"chain_id": n.chainID, "head_block_num": n.headBlock})
}

func (n *Node) getBlock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BlockNumOrID uint32 `json:"block_num_or_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"code": 400, "message": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"block_num":        req.BlockNumOrID,
		"ref_block_prefix": 2_864_434_397,
		"timestamp":        BlockTime.Format("2006-01-02T15:04:05.000"),
	})
}

// abiJSONToBin returns the JSON args themselves as the binary encoding.
func (n *Node) abiJSONToBin(w http.ResponseWriter, r *http.Request) {
	var req map[string]any
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"code": 400, "message": err.Error()})
		return
	}
	n.mu.Lock()
	n.abi = append(n.abi, req)
	n.mu.Unlock()
	args, _ := json.Marshal(req["args"])
	writeJSON(w, http.StatusOK, map[string]any{"binargs": hex.EncodeToString(args)})
}

func (n *Node) pushTransaction(w http.ResponseWriter, r *http.Request) {
	var req map[string]any
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"code": 400, "message": err.Error()})
		return
	}
	n.mu.Lock()
	n.pushes = append(n.pushes, req)
	n.mu.Unlock()

	if n.pushDelay > 0 {
		select {
		case <-time.After(n.pushDelay):
		case <-r.Context().Done():
			return
		}
	}
	if n.pushStatus != 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(n.pushStatus)
		_, _ = w.Write([]byte(n.pushBody))
		return
	}

	packed, _ := req["packed_trx"].(string)
	raw, _ := hex.DecodeString(packed)
	sum := sha256.Sum256(raw)
	id := hex.EncodeToString(sum[:])

	traces := n.traces
	if traces == nil {
		traces = []map[string]any{{
			"act": map[string]any{
				"account":       "atomicassets",
				"name":          "transfer",
				"authorization": []map[string]string{{"actor": "crptomonkeys", "permission": "active"}},
				"data":          map[string]any{},
			},
		}}
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"transaction_id": id,
		"processed": map[string]any{
			"id":            id,
			"block_num":     n.headBlock + 2,
			"receipt":       map[string]any{"status": "executed"},
			"action_traces": traces,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
