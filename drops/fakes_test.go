package drops

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"cosmossdk.io/log"
	"github.com/stretchr/testify/require"

	"github.com/crptomonkeys/greenwiz/broadcast"
	"github.com/crptomonkeys/greenwiz/history"
	"github.com/crptomonkeys/greenwiz/lib"
	"github.com/crptomonkeys/greenwiz/lib/inventory"
	"github.com/crptomonkeys/greenwiz/types"
)

const pushRawWithLink = `{"transaction_id":"tx1","processed":{"action_traces":[
	{"act":{"account":"atomictoolsx","name":"announcelink","data":{"creator":"crptomonkeys"}}},
	{"act":{"account":"atomictoolsx","name":"lognewlink","data":{"link_id":"777"}}}
]}}`

type fakeExecutor struct {
	mu      sync.Mutex
	calls   [][]types.Action
	err     error
	raw     string
	started chan struct{}
	block   chan struct{}
}

func (f *fakeExecutor) Execute(ctx context.Context, _ types.SigningIdentity, actions ...types.Action) (*broadcast.PushResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, actions)
	err, raw := f.err, f.raw
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if raw == "" {
		raw = pushRawWithLink
	}
	result := &broadcast.PushResult{TransactionID: "tx1", Raw: json.RawMessage(raw)}
	result.Processed.Receipt.Status = "executed"
	return result, nil
}

func (f *fakeExecutor) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeExecutor) Calls() [][]types.Action {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]types.Action(nil), f.calls...)
}

type fakeConfirmer struct {
	mu    sync.Mutex
	id    string
	err   error
	calls []string
}

func (f *fakeConfirmer) Confirm(_ context.Context, txID string, extract history.Extractor, progress history.Progress) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, txID)
	if progress != nil {
		progress(history.Attempt{TxID: txID, Outcome: history.OutcomeConfirmed})
	}
	if extract == nil {
		return "", errors.New("no extractor")
	}
	return f.id, f.err
}

type memWallets struct {
	mu      sync.Mutex
	wallets map[string]string
}

func (m *memWallets) LinkedWallet(_ context.Context, id string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wallets[id]
	return w, ok, nil
}

func (m *memWallets) LinkWallet(_ context.Context, id, wallet string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.wallets == nil {
		m.wallets = make(map[string]string)
	}
	m.wallets[id] = wallet
	return nil
}

type memLedger struct {
	mu     sync.Mutex
	counts map[string]map[string]int
}

func (m *memLedger) Used(_ context.Context, day, sender string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[day][sender], nil
}

func (m *memLedger) Increment(_ context.Context, day, sender string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = make(map[string]map[string]int)
	}
	if m.counts[day] == nil {
		m.counts[day] = make(map[string]int)
	}
	m.counts[day][sender]++
	return m.counts[day][sender], nil
}

type announcement struct {
	Destination string
	Text        string
}

type recordingAnnouncer struct {
	mu             sync.Mutex
	failDeliveries int
	announcements  []announcement
	deliveries     []string
}

func (r *recordingAnnouncer) Announce(_ context.Context, destination, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.announcements = append(r.announcements, announcement{destination, text})
	return nil
}

func (r *recordingAnnouncer) Deliver(_ context.Context, _ Recipient, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failDeliveries > 0 {
		r.failDeliveries--
		return errors.New("recipient does not accept messages")
	}
	r.deliveries = append(r.deliveries, text)
	return nil
}

func testCollectionConfig() types.CollectionConfig {
	return types.CollectionConfig{
		Name:              "crptomonkeys",
		DisplayName:       "cryptomonKeys",
		Web:               "https://cryptomonkeys.cc",
		Account:           "crptomonkeys",
		Permission:        "active",
		Emoji:             ":monkey:",
		AnnounceTo:        "#drops",
		DailyLimit:        2,
		MaxQuantity:       10,
		LinkMessageAppend: types.DefaultLinkMessageAppend,
	}
}

func testCollections(t *testing.T) Collections {
	t.Helper()
	key, err := lib.GeneratePrivateKey()
	require.NoError(t, err)
	cfg := testCollectionConfig()
	return Collections{cfg.Name: {
		Config:   cfg,
		Identity: types.SigningIdentity{Account: cfg.Account, Permission: cfg.Permission, Key: key},
	}}
}

func testInventory(collection string, n int) *inventory.Inventory {
	inv := inventory.New(nil, nil, inventory.Options{Shuffle: func([]types.Asset) {}}, log.NewNopLogger())
	assets := make([]types.Asset, n)
	for i := range assets {
		assets[i] = types.Asset{ID: uint64(1099512000000 + i), Collection: collection, Name: "card"}
	}
	inv.Replace(collection, assets)
	return inv
}
