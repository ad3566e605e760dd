package drops

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crptomonkeys/greenwiz/types"
)

func TestMemo(t *testing.T) {
	tests := []struct {
		name       string
		user       string
		reason     string
		linkAppend string
		want       string
		wantErr    error
	}{
		{name: "no reason", user: "carol", want: "Random crptomonkeys reward for (carol)."},
		{name: "reason", user: "carol", reason: "Welcome", want: "Welcome (carol)"},
		{name: "long user is truncated", user: strings.Repeat("u", 60), reason: "Hi", want: "Hi (" + strings.Repeat("u", 50) + ")"},
		{name: "just fits", user: "u", reason: strings.Repeat("r", 250), want: strings.Repeat("r", 250) + " (u)"},
		{name: "one over", user: "u", reason: strings.Repeat("r", 251), wantErr: types.ErrInvalidMemo},
		{name: "append counts", user: "u", reason: strings.Repeat("r", 200), linkAppend: strings.Repeat("a", 51), wantErr: types.ErrInvalidMemo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Memo(tt.user, tt.reason, "crptomonkeys", tt.linkAppend)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLinkMemo(t *testing.T) {
	assert.Equal(t, DefaultLinkMemo, LinkMemo("", ""))
	assert.Equal(t, DefaultLinkMemo+" tail", LinkMemo("", "tail"))
	assert.Equal(t, "hi tail", LinkMemo("hi", "tail"))
}

func TestConfigPolicy(t *testing.T) {
	policy := NewConfigPolicy([]types.SenderConfig{
		{ID: "alice", Tier: "limited", Collection: "crptomonkeys"},
		{ID: "alice", Scope: "guild-2", Tier: "unlimited", Collection: "other"},
		{ID: "bob", Scope: "guild-1", Tier: "unlimited", Collection: "crptomonkeys"},
		{ID: "typo", Tier: "superuser", Collection: "crptomonkeys"},
	})
	tests := []struct {
		sender, scope string
		want          Grant
	}{
		{"alice", "guild-1", Grant{Tier: types.TierLimited, Collection: "crptomonkeys"}},
		{"alice", "guild-2", Grant{Tier: types.TierUnlimited, Collection: "other"}},
		{"bob", "guild-1", Grant{Tier: types.TierUnlimited, Collection: "crptomonkeys"}},
		{"bob", "guild-9", Grant{Tier: types.TierDisallowed}},
		{"typo", "", Grant{Tier: types.TierDisallowed}},
		{"nobody", "", Grant{Tier: types.TierDisallowed}},
	}
	for _, tt := range tests {
		t.Run(tt.sender+"@"+tt.scope, func(t *testing.T) {
			got, err := policy.Authorize(context.Background(), tt.sender, tt.scope)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
