package history

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cosmossdk.io/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crptomonkeys/greenwiz/lib"
	"github.com/crptomonkeys/greenwiz/lib/chainregistry"
	"github.com/crptomonkeys/greenwiz/types"
)

type mine struct {
	tx    string
	seq   int
	at    time.Time
	miner string
	land  string
}

// actionSource serves a fixed set of logmine actions the way the indexer
// does: ascending, at or after the cursor, at most limit per page.
type actionSource struct {
	*httptest.Server
	mu     sync.Mutex
	afters []string
}

func newActionSource(t *testing.T, mines []mine) *actionSource {
	t.Helper()
	sorted := append([]mine(nil), mines...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].at.Before(sorted[j].at) })

	s := &actionSource{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/v2/history/get_actions", r.URL.Path)
		assert.Equal(t, "m.federation", q.Get("account"))
		assert.Equal(t, "logmine", q.Get("act.name"))
		assert.Equal(t, "m.federation:logmine", q.Get("filter"))
		assert.Equal(t, "asc", q.Get("sort"))
		assert.Equal(t, "true", q.Get("simple"))

		s.mu.Lock()
		s.afters = append(s.afters, q.Get("after"))
		s.mu.Unlock()

		after, err := time.ParseInLocation(cursorLayout, q.Get("after"), time.UTC)
		require.NoError(t, err)
		limit, err := strconv.Atoi(q.Get("limit"))
		require.NoError(t, err)

		page := []map[string]any{}
		for _, m := range sorted {
			if m.at.Before(after) || len(page) == limit {
				continue
			}
			page = append(page, map[string]any{
				"block":           300000000 + m.seq,
				"timestamp":       m.at.Format("2006-01-02T15:04:05.000"),
				"transaction_id":  m.tx,
				"global_sequence": strconv.Itoa(m.seq),
				"contract":        "m.federation",
				"action":          "logmine",
				"data":            map[string]any{"miner": m.miner, "land_id": m.land},
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"simple_actions": page})
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *actionSource) Afters() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.afters...)
}

func indexerRegistry(urls ...string) *chainregistry.Registry {
	entries := make([]chainregistry.Endpoint, len(urls))
	for i, u := range urls {
		entries[i] = chainregistry.Endpoint{URL: u, Role: chainregistry.RoleIndexer, Weight: 10}
	}
	return chainregistry.NewRegistry(entries)
}

func newTestIndexer(registry *chainregistry.Registry, opts IndexerOptions) (*Indexer, *sleepRecorder) {
	rec := &sleepRecorder{}
	ix := NewIndexer(registry, lib.NewHTTPClient(2*time.Second), opts, log.NewNopLogger())
	return ix.WithSleep(rec.sleep), rec
}

var (
	windowStart = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	windowEnd   = windowStart.Add(2 * time.Hour)
)

func at(h, m, s, ms int) time.Time {
	return time.Date(2024, 5, 1, h, m, s, ms*int(time.Millisecond), time.UTC)
}

func TestScanPagesWithTimeCursor(t *testing.T) {
	source := newActionSource(t, []mine{
		{tx: "a", seq: 1, at: at(10, 0, 0, 0), miner: "alice.wam", land: "1"},
		{tx: "b", seq: 2, at: at(10, 0, 0, 0), miner: "bob.wam", land: "1"},
		{tx: "c", seq: 3, at: at(10, 30, 0, 500), miner: "carol.wam", land: "2"},
		{tx: "d", seq: 4, at: at(11, 0, 0, 0), miner: "dave.wam", land: "1"},
		{tx: "d", seq: 4, at: at(11, 0, 0, 0), miner: "dave.wam", land: "1"},
		{tx: "e", seq: 5, at: at(11, 59, 59, 999), miner: "erin.wam", land: "1"},
		{tx: "f", seq: 6, at: at(12, 0, 0, 1), miner: "frank.wam", land: "1"},
	})
	ix, _ := newTestIndexer(indexerRegistry(source.URL), IndexerOptions{PageSize: 3})

	result, err := ix.Scan(context.Background(), ScanRequest{
		Account: "m.federation",
		Action:  "logmine",
		Start:   windowStart,
		End:     windowEnd,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"2024-05-01T10:00:00.000",
		"2024-05-01T10:30:00.501",
		"2024-05-01T12:00:00.000",
	}, source.Afters())
	assert.Equal(t, 3, result.Requests)
	assert.False(t, result.Capped)

	var txs []string
	for _, r := range result.Records {
		txs = append(txs, r.TxID)
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, txs)
	assert.Equal(t, 5, result.Matched)
	assert.Equal(t, "alice.wam", result.Records[0].StringField("miner"))
	assert.Equal(t, "300000001", result.Records[0].Block)
}

func TestScanMatchAndKeySuffix(t *testing.T) {
	source := newActionSource(t, []mine{
		{tx: "a", seq: 1, at: at(10, 5, 0, 0), miner: "alice.wam", land: "1"},
		{tx: "b", seq: 2, at: at(10, 6, 0, 0), miner: "bob.wam", land: "9"},
		{tx: "c", seq: 3, at: at(10, 7, 0, 0), miner: "alice.wam", land: "1"},
	})
	ix, _ := newTestIndexer(indexerRegistry(source.URL), IndexerOptions{})

	result, err := ix.Scan(context.Background(), ScanRequest{
		Account: "m.federation",
		Action:  "logmine",
		Start:   windowStart,
		End:     windowEnd,
		Match: func(r ActionRecord) (string, bool) {
			land := r.StringField("land_id")
			return r.StringField("miner") + ":" + land, land == "1"
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Matched)
	assert.Equal(t, 1, result.Requests)
}

func TestScanAdvancesByMinimalIncrementOnStalePages(t *testing.T) {
	stale := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"simple_actions":[
			{"timestamp":"2024-05-01T09:00:00.000","transaction_id":"x","data":{}},
			{"timestamp":"2024-05-01T09:00:00.000","transaction_id":"y","data":{}}
		]}`))
	}))
	defer stale.Close()

	var afters []string
	var mu sync.Mutex
	recorder := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		afters = append(afters, r.URL.Query().Get("after"))
		mu.Unlock()
		stale.Config.Handler.ServeHTTP(w, r)
	}))
	defer recorder.Close()

	ix, _ := newTestIndexer(indexerRegistry(recorder.URL), IndexerOptions{PageSize: 2, MaxRequests: 3})
	result, err := ix.Scan(context.Background(), ScanRequest{Account: "m.federation", Action: "logmine", Start: windowStart, End: windowEnd})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"2024-05-01T10:00:00.000",
		"2024-05-01T10:00:00.001",
		"2024-05-01T10:00:00.002",
	}, afters)
	assert.True(t, result.Capped)
	assert.Empty(t, result.Records)
}

func TestScanStopsOnEmptyOrInvalidPages(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty page", body: `{"simple_actions":[]}`},
		{name: "no actions key", body: `{"query_time_ms":3}`},
		{name: "unparseable timestamps", body: `{"actions":[{"timestamp":"yesterday","act":{"data":{}}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			ix, _ := newTestIndexer(indexerRegistry(srv.URL), IndexerOptions{PageSize: 1})
			result, err := ix.Scan(context.Background(), ScanRequest{Account: "m.federation", Action: "logmine", Start: windowStart, End: windowEnd})
			require.NoError(t, err)
			assert.Equal(t, 1, result.Requests)
			assert.Empty(t, result.Records)
		})
	}
}

func TestGetActionsRateLimitCooldown(t *testing.T) {
	limited := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer limited.Close()
	source := newActionSource(t, []mine{{tx: "a", seq: 1, at: at(10, 1, 0, 0), miner: "alice.wam", land: "1"}})

	ix, rec := newTestIndexer(indexerRegistry(limited.URL, source.URL), IndexerOptions{})
	result, err := ix.Scan(context.Background(), ScanRequest{Account: "m.federation", Action: "logmine", Start: windowStart, End: windowEnd})
	require.NoError(t, err)
	assert.Len(t, result.Records, 1)
	assert.Equal(t, []time.Duration{DefaultCooldown}, rec.delays)
}

func TestGetActionsAllEndpointsFail(t *testing.T) {
	var hits atomic.Int32
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()
	quirky := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":503,"message":"elasticsearch unavailable"}`))
	}))
	defer quirky.Close()

	ix, rec := newTestIndexer(indexerRegistry(broken.URL, quirky.URL), IndexerOptions{})
	_, err := ix.Scan(context.Background(), ScanRequest{Account: "m.federation", Action: "logmine", Start: windowStart, End: windowEnd})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrIndexerExhausted))

	var ie *types.IndexerExhaustedError
	require.True(t, errors.As(err, &ie))
	require.Len(t, ie.Failures, 2)
	assert.Equal(t, "status 503", ie.Failures[1].Reason)

	assert.EqualValues(t, DefaultRetries, hits.Load())
	assert.Equal(t, []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second}, rec.delays)
}

func TestGetActionsNoIndexers(t *testing.T) {
	ix, rec := newTestIndexer(indexerRegistry(), IndexerOptions{})
	_, err := ix.Scan(context.Background(), ScanRequest{Start: windowStart, End: windowEnd})
	assert.True(t, errors.Is(err, types.ErrConfigurationUnavailable))
	assert.Empty(t, rec.delays)
}

func TestParseActionsShapes(t *testing.T) {
	full := `{"actions":[{"@timestamp":"2024-05-01T10:00:00.500","timestamp":"2024-05-01T10:00:00.500","block_num":12,
		"trx_id":"abc","global_sequence":99,"act":{"account":"m.federation","name":"logmine","data":{"miner":"alice.wam","land_id":"7"}}}]}`
	simple := `{"simple_actions":[{"block":12,"timestamp":"2024-05-01T10:00:00.500Z","transaction_id":"abc","global_sequence":"99",
		"contract":"m.federation","action":"logmine","data":{"miner":"alice.wam","land_id":7}}]}`

	for name, body := range map[string]string{"actions": full, "simple_actions": simple} {
		t.Run(name, func(t *testing.T) {
			records, err := ParseActions([]byte(body))
			require.NoError(t, err)
			require.Len(t, records, 1)
			r := records[0]
			assert.Equal(t, "abc", r.TxID)
			assert.Equal(t, "99", r.GlobalSequence)
			assert.Equal(t, "12", r.Block)
			assert.Equal(t, "m.federation", r.Contract)
			assert.Equal(t, "logmine", r.Action)
			assert.Equal(t, at(10, 0, 0, 500), r.Timestamp)
			assert.Equal(t, "alice.wam", r.StringField("miner"))
			assert.Equal(t, "7", r.StringField("land_id"))
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2024-05-01T10:00:00.500", at(10, 0, 0, 500), true},
		{"2024-05-01T10:00:00.500Z", at(10, 0, 0, 500), true},
		{"2024-05-01T12:00:00+02:00", at(10, 0, 0, 0), true},
		{"2024-05-01T10:00:00", at(10, 0, 0, 0), true},
		{"", time.Time{}, false},
		{"yesterday", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseTimestamp(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.True(t, tt.want.Equal(got), "%s: got %s", tt.in, got)
		}
	}
}
