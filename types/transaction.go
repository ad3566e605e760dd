package types

import (
	"time"
)

// PermissionLevel is an actor@permission pair authorizing an action.
type PermissionLevel struct {
	Actor      string `json:"actor"`
	Permission string `json:"permission"`
}

// Action is one contract call. Data holds JSON args until the action is
// encoded against a node's ABI; []byte data is already binary.
type Action struct {
	Account       string            `json:"account"`
	Name          string            `json:"name"`
	Authorization []PermissionLevel `json:"authorization"`
	Data          any               `json:"data"`
}

// Transaction is a transaction header plus its binary encoded actions.
type Transaction struct {
	Expiration     time.Time
	RefBlockNum    uint16
	RefBlockPrefix uint32
	Actions        []Action
}

// Signer signs a 32 byte digest and returns the chain's signature string form.
type Signer interface {
	Sign(digest []byte) (string, error)
	PublicKey() string
}

// SigningIdentity is the account that signs transactions for one collection.
type SigningIdentity struct {
	Account    string
	Permission string
	Key        Signer
}

// Authorization returns the identity's permission level.
func (s SigningIdentity) Authorization() []PermissionLevel {
	perm := s.Permission
	if perm == "" {
		perm = "active"
	}
	return []PermissionLevel{{Actor: s.Account, Permission: perm}}
}

// Asset is an atomicassets NFT held by a drop account.
type Asset struct {
	ID         uint64 `json:"asset_id,string"`
	Collection string `json:"collection"`
	Name       string `json:"name"`
	ImageHash  string `json:"img"`
}

// AssetIDs returns the ids of the given assets in order.
func AssetIDs(assets []Asset) []uint64 {
	ids := make([]uint64, len(assets))
	for i, a := range assets {
		ids[i] = a.ID
	}
	return ids
}
