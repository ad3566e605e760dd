package drops

import (
	"context"

	"github.com/crptomonkeys/greenwiz/types"
)

// ConfigPolicy grants tiers from the [[senders]] config table. A sender entry
// with an empty scope applies everywhere; a scoped entry wins over it.
type ConfigPolicy struct {
	grants map[string]map[string]Grant
}

// NewConfigPolicy indexes sender configs. Tiers were checked by Config.Validate.
func NewConfigPolicy(senders []types.SenderConfig) *ConfigPolicy {
	p := &ConfigPolicy{grants: make(map[string]map[string]Grant)}
	for _, s := range senders {
		tier, err := types.ParseTier(s.Tier)
		if err != nil {
			continue
		}
		if p.grants[s.ID] == nil {
			p.grants[s.ID] = make(map[string]Grant)
		}
		p.grants[s.ID][s.Scope] = Grant{Tier: tier, Collection: s.Collection}
	}
	return p
}

func (p *ConfigPolicy) Authorize(_ context.Context, sender, scope string) (Grant, error) {
	scopes := p.grants[sender]
	if g, ok := scopes[scope]; ok {
		return g, nil
	}
	if g, ok := scopes[""]; ok {
		return g, nil
	}
	return Grant{Tier: types.TierDisallowed}, nil
}
