package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cosmossdk.io/log"

	"github.com/crptomonkeys/greenwiz/lib"
	"github.com/crptomonkeys/greenwiz/lib/chainregistry"
	"github.com/crptomonkeys/greenwiz/types"
)

const (
	DefaultPageSize    = 1000
	DefaultMaxRequests = 2000
	DefaultRetries     = 4
	DefaultRetryBase   = 500 * time.Millisecond
	DefaultCooldown    = 10 * time.Minute

	getActionsPath = "/v2/history/get_actions"
	cursorLayout   = "2006-01-02T15:04:05.000"
)

// errInvalidPayload marks a page that has neither actions nor simple_actions.
var errInvalidPayload = errors.New("invalid actions payload")

// IndexerOptions tunes an Indexer. Zero values take defaults.
type IndexerOptions struct {
	PageSize    int
	MaxRequests int
	Retries     int
	RetryBase   time.Duration
	Cooldown    time.Duration
}

// Indexer reads action history from the indexer rotation.
type Indexer struct {
	registry *chainregistry.Registry
	http     *http.Client
	opts     IndexerOptions
	sleep    func(ctx context.Context, d time.Duration) error
	logger   log.Logger
}

// NewIndexer creates an Indexer over the registry's indexer rotation.
func NewIndexer(registry *chainregistry.Registry, httpClient *http.Client, opts IndexerOptions, logger log.Logger) *Indexer {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.MaxRequests <= 0 {
		opts.MaxRequests = DefaultMaxRequests
	}
	if opts.Retries <= 0 {
		opts.Retries = DefaultRetries
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = DefaultRetryBase
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultCooldown
	}
	return &Indexer{
		registry: registry,
		http:     httpClient,
		opts:     opts,
		sleep:    lib.Sleep,
		logger:   logger.With("module", "indexer"),
	}
}

// WithSleep replaces the cooldown and retry sleep, for tests.
func (ix *Indexer) WithSleep(sleep func(ctx context.Context, d time.Duration) error) *Indexer {
	ix.sleep = sleep
	return ix
}

// ActionRecord is one action from either response shape.
type ActionRecord struct {
	Timestamp      time.Time
	TxID           string
	GlobalSequence string
	Block          string
	Contract       string
	Action         string
	Data           map[string]any
	Raw            json.RawMessage
}

// Key is the dedupe key of the record extended with suffix.
func (r ActionRecord) Key(suffix string) string {
	return strings.Join([]string{
		r.TxID,
		r.GlobalSequence,
		r.Block,
		r.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
		suffix,
	}, "|")
}

// StringField returns Data[key] as trimmed text.
func (r ActionRecord) StringField(key string) string {
	switch v := r.Data[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	}
	return ""
}

// ParseTimestamp reads indexer timestamps, which may omit the zone.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05.999999999", s, time.UTC); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// FormatCursor renders t the way the after parameter expects it.
func FormatCursor(t time.Time) string {
	return t.UTC().Format(cursorLayout)
}

// GetActions makes one pass over the indexer rotation and returns the first
// body served with a status below 400. A 429 also waits out the cooldown
// before moving on.
func (ix *Indexer) GetActions(ctx context.Context, params url.Values) ([]byte, error) {
	endpoints, err := ix.registry.Require(chainregistry.RoleIndexer)
	if err != nil {
		return nil, err
	}

	var failures []types.EndpointFailure
	for _, endpoint := range endpoints {
		resp, err := lib.HTTPGet(ctx, ix.http, lib.JoinURL(endpoint, getActionsPath), params)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			failures = append(failures, types.EndpointFailure{URL: endpoint, Reason: err.Error()})
			continue
		}
		if resp.Code >= 400 {
			failures = append(failures, types.EndpointFailure{URL: endpoint, Reason: fmt.Sprintf("status %d", resp.Code)})
			if resp.Code == http.StatusTooManyRequests {
				ix.logger.Warn("indexer rate limited, pausing before continuing", "endpoint", endpoint, "cooldown", ix.opts.Cooldown)
				if err := ix.sleep(ctx, ix.opts.Cooldown); err != nil {
					return nil, err
				}
			}
			continue
		}
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(resp.Body, &probe); err != nil {
			failures = append(failures, types.EndpointFailure{URL: endpoint, Reason: "non-object response"})
			continue
		}
		return resp.Body, nil
	}
	return nil, &types.IndexerExhaustedError{Failures: failures}
}

// ScanRequest selects one contract action over a time window.
type ScanRequest struct {
	Account string
	Action  string
	Start   time.Time
	End     time.Time
	// Match decides whether an in-window record counts. The returned suffix
	// completes the record's dedupe key. A nil Match accepts everything.
	Match func(ActionRecord) (suffix string, ok bool)
}

// ScanResult is the deduplicated set of matching records.
type ScanResult struct {
	Records  []ActionRecord
	Matched  int
	Requests int
	Capped   bool
}

// Page fetches one page of actions after cursor, retrying a failed pass
// with doubling backoff.
func (ix *Indexer) Page(ctx context.Context, req ScanRequest, cursor time.Time) ([]ActionRecord, error) {
	params := url.Values{
		"account":  {req.Account},
		"act.name": {req.Action},
		"filter":   {req.Account + ":" + req.Action},
		"after":    {FormatCursor(cursor)},
		"limit":    {strconv.Itoa(ix.opts.PageSize)},
		"sort":     {"asc"},
		"simple":   {"true"},
	}

	delay := ix.opts.RetryBase
	for attempt := 1; ; attempt++ {
		body, err := ix.GetActions(ctx, params)
		if err == nil {
			return ParseActions(body)
		}
		if attempt >= ix.opts.Retries || ctx.Err() != nil || errors.Is(err, types.ErrConfigurationUnavailable) {
			return nil, err
		}
		ix.logger.Warn("indexer query failed, retrying", "attempt", attempt, "retries", ix.opts.Retries, "delay", delay, "err", err)
		if err := ix.sleep(ctx, delay); err != nil {
			return nil, err
		}
		delay *= 2
	}
}

// Scan pages through the window with a time cursor. After each page the
// cursor moves to the latest timestamp seen plus one millisecond, and always
// at least one millisecond forward.
func (ix *Indexer) Scan(ctx context.Context, req ScanRequest) (*ScanResult, error) {
	result := &ScanResult{}
	seen := make(map[string]bool)
	cursor := req.Start

	for !cursor.After(req.End) && result.Requests < ix.opts.MaxRequests {
		records, err := ix.Page(ctx, req, cursor)
		result.Requests++
		if errors.Is(err, errInvalidPayload) {
			ix.logger.Warn("indexer returned an invalid actions payload, ending scan early")
			break
		}
		if err != nil {
			return result, err
		}
		if len(records) == 0 {
			break
		}

		var latest time.Time
		for _, rec := range records {
			if !rec.Timestamp.IsZero() && rec.Timestamp.After(latest) {
				latest = rec.Timestamp
			}
			if rec.Timestamp.IsZero() || rec.Timestamp.Before(req.Start) || rec.Timestamp.After(req.End) {
				continue
			}
			suffix := ""
			if req.Match != nil {
				s, ok := req.Match(rec)
				if !ok {
					continue
				}
				suffix = s
			}
			key := rec.Key(suffix)
			if seen[key] {
				continue
			}
			seen[key] = true
			result.Records = append(result.Records, rec)
		}

		if latest.IsZero() {
			ix.logger.Warn("could not parse timestamps from indexer page, ending scan early")
			break
		}
		if latest.After(req.End) {
			break
		}
		next := latest.Add(time.Millisecond)
		if !next.After(cursor) {
			next = cursor.Add(time.Millisecond)
		}
		cursor = next

		if len(records) < ix.opts.PageSize {
			break
		}
	}

	if result.Requests >= ix.opts.MaxRequests {
		result.Capped = true
		ix.logger.Warn("indexer scan hit its request cap", "cap", ix.opts.MaxRequests, "start", req.Start, "end", req.End)
	}
	result.Matched = len(result.Records)
	return result, nil
}

type rawAction map[string]json.RawMessage

// ParseActions normalizes a get_actions body. simple_actions is preferred
// over actions when both are present.
func ParseActions(body []byte) ([]ActionRecord, error) {
	var page struct {
		SimpleActions []json.RawMessage `json:"simple_actions"`
		Actions       []json.RawMessage `json:"actions"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidPayload, err)
	}
	entries := page.SimpleActions
	if entries == nil {
		entries = page.Actions
	}
	if entries == nil {
		return nil, errInvalidPayload
	}

	records := make([]ActionRecord, 0, len(entries))
	for _, raw := range entries {
		var fields rawAction
		if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
			continue
		}
		records = append(records, fields.record(raw))
	}
	return records, nil
}

func (a rawAction) first(keys ...string) string {
	for _, k := range keys {
		if v := Scalar(a[k]); v != "" {
			return v
		}
	}
	return ""
}

func (a rawAction) record(raw json.RawMessage) ActionRecord {
	rec := ActionRecord{
		TxID:           a.first("transaction_id", "trx_id"),
		GlobalSequence: a.first("global_sequence"),
		Block:          a.first("block", "block_num"),
		Contract:       a.first("contract"),
		Action:         a.first("action"),
		Raw:            raw,
	}
	rec.Timestamp, _ = ParseTimestamp(a.first("timestamp", "@timestamp"))

	var data map[string]any
	if err := json.Unmarshal(a["data"], &data); err != nil || data == nil {
		var act struct {
			Account string         `json:"account"`
			Name    string         `json:"name"`
			Data    map[string]any `json:"data"`
		}
		if err := json.Unmarshal(a["act"], &act); err == nil {
			data = act.Data
			if rec.Contract == "" {
				rec.Contract = act.Account
			}
			if rec.Action == "" {
				rec.Action = act.Name
			}
		}
	}
	rec.Data = data
	return rec
}
