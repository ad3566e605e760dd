package types

import "fmt"

// Tier is the authorization level a sender holds for dropping a collection.
type Tier int

const (
	TierDisallowed Tier = iota
	TierLimited
	TierUnlimited
)

func (t Tier) String() string {
	switch t {
	case TierLimited:
		return "limited"
	case TierUnlimited:
		return "unlimited"
	default:
		return "disallowed"
	}
}

// ParseTier parses the config spelling of a tier.
func ParseTier(s string) (Tier, error) {
	switch s {
	case "disallowed", "none", "":
		return TierDisallowed, nil
	case "limited":
		return TierLimited, nil
	case "unlimited":
		return TierUnlimited, nil
	}
	return TierDisallowed, fmt.Errorf("unknown tier %q", s)
}
