package chainregistry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/crptomonkeys/greenwiz/types"
)

// Role is the kind of service an endpoint offers.
type Role string

const (
	// RoleCore is a node's chain API, used for chain metadata and submission.
	RoleCore Role = "core"
	// RoleHistory serves /v2/history/get_transaction.
	RoleHistory Role = "history"
	// RoleIndexer serves /v2/history/get_actions.
	RoleIndexer Role = "indexer"
	// RoleMarket serves the atomicassets and atomictools APIs.
	RoleMarket Role = "market"
)

// Roles lists every role in display order.
var Roles = []Role{RoleCore, RoleHistory, RoleIndexer, RoleMarket}

// ParseRole maps config spellings, including the legacy api/hyperion/atomic
// names, onto a Role.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "core", "api":
		return RoleCore, nil
	case "history":
		return RoleHistory, nil
	case "indexer", "hyperion":
		return RoleIndexer, nil
	case "market", "atomic":
		return RoleMarket, nil
	}
	return "", fmt.Errorf("unknown endpoint role %q", s)
}

// Endpoint is one provider URL serving one role.
type Endpoint struct {
	URL    string `json:"url"`
	Role   Role   `json:"role"`
	Weight int    `json:"weight"`
	Alive  bool   `json:"alive"`
}

// Normalize makes URLs comparable regardless of a trailing slash.
func Normalize(url string) string {
	return strings.TrimRight(strings.TrimSpace(url), "/")
}

// Prioritize moves URLs in preferred to the front, ordered as in preferred,
// then appends the rest in their original order. Duplicates by normalized URL
// are dropped, keeping the first occurrence.
func Prioritize(endpoints, preferred []string) []string {
	order := make(map[string]int, len(preferred))
	for i, p := range preferred {
		n := Normalize(p)
		if _, ok := order[n]; !ok {
			order[n] = i
		}
	}

	seen := make(map[string]bool, len(endpoints))
	var first, rest []string
	for _, e := range endpoints {
		n := Normalize(e)
		if seen[n] {
			continue
		}
		seen[n] = true
		if _, ok := order[n]; ok {
			first = append(first, e)
		} else {
			rest = append(rest, e)
		}
	}
	sort.SliceStable(first, func(i, j int) bool {
		return order[Normalize(first[i])] < order[Normalize(first[j])]
	})
	return append(first, rest...)
}

// Registry holds the live rotation list of each role. It is safe for
// concurrent use; every mutation completes under the lock.
type Registry struct {
	mu         sync.RWMutex
	configured map[Role][]Endpoint
	live       map[Role][]string
	preferred  map[Role][]string
	// removed URLs never return to a rotation, not even on Refill.
	removed map[Role]map[string]bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithPreferred puts the given URLs first in role's rotation, now and on every refill.
func WithPreferred(role Role, urls []string) Option {
	return func(r *Registry) {
		r.preferred[role] = append([]string(nil), urls...)
	}
}

// NewRegistry classifies entries by role. Zero weight entries are dropped and
// each role keeps a URL once.
func NewRegistry(entries []Endpoint, opts ...Option) *Registry {
	r := &Registry{
		configured: make(map[Role][]Endpoint),
		live:       make(map[Role][]string),
		preferred:  make(map[Role][]string),
		removed:    make(map[Role]map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}

	seen := make(map[Role]map[string]bool)
	for _, e := range entries {
		if e.Weight <= 0 || Normalize(e.URL) == "" {
			continue
		}
		if seen[e.Role] == nil {
			seen[e.Role] = make(map[string]bool)
		}
		n := Normalize(e.URL)
		if seen[e.Role][n] {
			continue
		}
		seen[e.Role][n] = true
		e.Alive = true
		r.configured[e.Role] = append(r.configured[e.Role], e)
	}
	for role := range r.configured {
		r.live[role] = r.initialList(role)
	}
	return r
}

// FromConfig builds a registry from config, falling back to the built-in
// WAX mainnet list when no endpoints are configured.
func FromConfig(config types.Config) (*Registry, error) {
	var entries []Endpoint
	for _, e := range config.Endpoints {
		role, err := ParseRole(e.Role)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Endpoint{URL: e.URL, Role: role, Weight: e.Weight})
	}
	if len(entries) == 0 {
		entries = DefaultEndpoints()
	}
	return NewRegistry(entries, WithPreferred(RoleIndexer, config.Indexer.Preferred)), nil
}

func (r *Registry) initialList(role Role) []string {
	urls := make([]string, 0, len(r.configured[role]))
	for _, e := range r.configured[role] {
		if !r.removed[role][Normalize(e.URL)] {
			urls = append(urls, e.URL)
		}
	}
	if p := r.preferred[role]; len(p) > 0 {
		urls = Prioritize(urls, p)
	}
	return urls
}

// Endpoints returns a copy of role's current rotation.
func (r *Registry) Endpoints(role Role) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.live[role]...)
}

// Require is Endpoints but fails when the rotation is empty.
func (r *Registry) Require(role Role) ([]string, error) {
	urls := r.Endpoints(role)
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: no %s endpoints", types.ErrConfigurationUnavailable, role)
	}
	return urls, nil
}

// Prioritize reorders role's rotation so preferred URLs come first.
func (r *Registry) Prioritize(role Role, preferred []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.live[role] = Prioritize(r.live[role], preferred)
}

// Demote removes every entry for url from role's rotation and returns how
// many remain. A later Refill restores it.
func (r *Registry) Demote(role Role, url string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.demote(role, url)
}

// Remove is Demote for the life of the process: Refill skips url from now on.
func (r *Registry) Remove(role Role, url string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.removed[role] == nil {
		r.removed[role] = make(map[string]bool)
	}
	r.removed[role][Normalize(url)] = true
	return r.demote(role, url)
}

func (r *Registry) demote(role Role, url string) int {
	n := Normalize(url)
	kept := r.live[role][:0:0]
	for _, u := range r.live[role] {
		if Normalize(u) != n {
			kept = append(kept, u)
		}
	}
	r.live[role] = kept
	return len(kept)
}

// Refill restores role's rotation from configuration, minus removed URLs,
// and returns it.
func (r *Registry) Refill(role Role) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.live[role] = r.initialList(role)
	return append([]string(nil), r.live[role]...)
}

// Snapshot lists every configured endpoint per role with its current state.
func (r *Registry) Snapshot() map[Role][]Endpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[Role][]Endpoint, len(r.configured))
	for role, eps := range r.configured {
		alive := make(map[string]bool, len(r.live[role]))
		for _, u := range r.live[role] {
			alive[Normalize(u)] = true
		}
		list := make([]Endpoint, len(eps))
		for i, e := range eps {
			e.Alive = alive[Normalize(e.URL)]
			list[i] = e
		}
		out[role] = list
	}
	return out
}
