package types

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
special_accounts = ["gm"]

[chain]
broadcast_deadline = "30s"

[[collections]]
name = "crptomonkeys"
account = "crptomonkeys"
key_env = "GREENWIZ_TEST_KEY"
daily_limit = 3

[[senders]]
id = "123"
scope = "guild"
tier = "unlimited"
collection = "crptomonkeys"

[raffle]
enabled = true
collection = "crptomonkeys"
land_ids = ["1099512958747"]

[store]
usage = "sqlite"
`

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "greenwiz.toml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, config.Chain.BroadcastDeadline.Duration)
	assert.Equal(t, 2*time.Minute, config.Chain.Expiration.Duration)
	assert.Equal(t, 10*time.Second, config.Chain.RequestTimeout.Duration)
	assert.Equal(t, 30, config.History.MaxCycles)
	assert.Equal(t, 64*time.Second, config.History.MaxBackoff.Duration)
	assert.Len(t, config.Indexer.Preferred, 3)

	col, ok := config.Collection("crptomonkeys")
	require.True(t, ok)
	assert.Equal(t, 3, col.DailyLimit)
	assert.Equal(t, 10, col.MaxQuantity)
	assert.Equal(t, "active", col.Permission)
	assert.Equal(t, "crptomonkeys", col.DisplayName)
	assert.Equal(t, DefaultLinkMessageAppend, col.LinkMessageAppend)

	assert.Equal(t, "m.federation", config.Raffle.ActionAccount)
	assert.Equal(t, "logmine", config.Raffle.ActionName)
	assert.Equal(t, "sqlite", config.Store.Usage)
	assert.Equal(t, "card_sends.json", config.Store.UsageFile)
	assert.Equal(t, "info", config.Log.Level)
	assert.Equal(t, []string{"gm"}, config.SpecialAccounts)

	_, ok = config.Collection("other")
	assert.False(t, ok)
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.toml"))
	require.Error(t, err)

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[chain]\nexpiration = \"soon\"\n"), 0o600))
	_, err = LoadConfig(bad)
	require.ErrorContains(t, err, "invalid duration")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   []string
	}{
		{
			name: "valid",
			config: Config{
				Collections: []CollectionConfig{{Name: "a", Account: "acct"}},
				Senders:     []SenderConfig{{ID: "1", Tier: "limited", Collection: "a"}},
			},
		},
		{
			name: "collection problems",
			config: Config{Collections: []CollectionConfig{
				{Name: "a", Account: "acct"},
				{Name: "a", Account: "acct"},
				{Name: "b"},
				{Account: "acct"},
			}},
			want: []string{"collection a configured twice", "collection b has no account", "collection without a name"},
		},
		{
			name: "sender problems",
			config: Config{
				Collections: []CollectionConfig{{Name: "a", Account: "acct"}},
				Senders: []SenderConfig{
					{ID: "1", Tier: "admin", Collection: "a"},
					{ID: "2", Tier: "limited", Collection: "zzz"},
				},
			},
			want: []string{`sender 1: unknown tier "admin"`, `sender 2 references unknown collection "zzz"`},
		},
		{
			name:   "raffle and store",
			config: Config{Raffle: RaffleConfig{Enabled: true, Collection: "x"}, Store: StoreConfig{Usage: "redis"}},
			want:   []string{`raffle references unknown collection "x"`, `unknown usage store "redis"`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.ApplyDefaults()
			err := tt.config.Validate()
			if len(tt.want) == 0 {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, w := range tt.want {
				assert.Contains(t, err.Error(), w)
			}
		})
	}
}

func TestPrivateKeyText(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "key")
	require.NoError(t, os.WriteFile(keyFile, []byte(" PVT_K1_file\n"), 0o600))
	t.Setenv("GREENWIZ_TEST_KEY", "PVT_K1_env")

	key, err := CollectionConfig{Name: "a", KeyEnv: "GREENWIZ_TEST_KEY", KeyFile: keyFile}.PrivateKeyText()
	require.NoError(t, err)
	assert.Equal(t, "PVT_K1_env", key)

	key, err = CollectionConfig{Name: "a", KeyEnv: "GREENWIZ_UNSET_KEY", KeyFile: keyFile}.PrivateKeyText()
	require.NoError(t, err)
	assert.Equal(t, "PVT_K1_file", key)

	_, err = CollectionConfig{Name: "a"}.PrivateKeyText()
	require.ErrorIs(t, err, ErrConfigurationUnavailable)
}

func TestParseTier(t *testing.T) {
	tests := []struct {
		in      string
		want    Tier
		wantErr bool
	}{
		{in: "", want: TierDisallowed},
		{in: "none", want: TierDisallowed},
		{in: "limited", want: TierLimited},
		{in: "unlimited", want: TierUnlimited},
		{in: "admin", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTier(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "unlimited", TierUnlimited.String())
	assert.Equal(t, "disallowed", Tier(9).String())
}

func TestDecodeChainError(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantNil  bool
		wantCode int
		wantMsg  string
	}{
		{
			name:    "success body",
			status:  200,
			body:    `{"transaction_id":"abc"}`,
			wantNil: true,
		},
		{
			name:     "assertion",
			status:   500,
			body:     `{"code":500,"message":"Internal Service Error","error":{"code":3050003,"name":"eosio_assert_message_exception","what":"eosio_assert_message assertion failure","details":[{"message":"assertion failure with message: asset not owned"}]}}`,
			wantCode: 3050003,
			wantMsg:  "asset not owned",
		},
		{
			name:     "string status code",
			status:   500,
			body:     `{"statusCode":"429","message":"Too many requests"}`,
			wantCode: 429,
			wantMsg:  "Too many requests",
		},
		{
			name:     "html",
			status:   502,
			body:     `<html>bad gateway</html>`,
			wantCode: 502,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce := DecodeChainError(tt.status, []byte(tt.body))
			if tt.wantNil {
				assert.Nil(t, ce)
				return
			}
			require.NotNil(t, ce)
			assert.Equal(t, tt.wantCode, ce.Code)
			assert.Equal(t, tt.wantMsg, ce.Message())
		})
	}
}

func TestBroadcastErrorUnwrap(t *testing.T) {
	cause := errors.New("expired transaction")
	err := error(&BroadcastError{
		Stage:    "broadcast",
		Cause:    cause,
		Failures: []EndpointFailure{{URL: "https://a.example", Reason: "status 500"}},
	})
	assert.ErrorIs(t, err, ErrBroadcastExhausted)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "broadcast exhausted during broadcast: expired transaction (https://a.example -> status 500)", err.Error())

	many := make([]EndpointFailure, 10)
	for i := range many {
		many[i] = EndpointFailure{URL: "u", Reason: "r"}
	}
	idx := error(&IndexerExhaustedError{Failures: many})
	assert.ErrorIs(t, idx, ErrIndexerExhausted)
	assert.Contains(t, idx.Error(), "and 2 more")
}
