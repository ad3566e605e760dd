// Package atomictoolsx builds claim link actions and URLs.
package atomictoolsx

import (
	"strconv"

	"github.com/crptomonkeys/greenwiz/modules/atomicassets"
	"github.com/crptomonkeys/greenwiz/types"
)

const (
	Contract = "atomictoolsx"
	// EscrowMemo is the memo of the transfer that funds a link.
	EscrowMemo = "link"
)

// AnnounceLinkData is the announcelink action payload.
type AnnounceLinkData struct {
	Creator  string   `json:"creator"`
	Key      string   `json:"key"`
	AssetIDs []string `json:"asset_ids"`
	Memo     string   `json:"memo"`
}

// AnnounceLink registers a link guarded by the public key.
func AnnounceLink(auth []types.PermissionLevel, creator, publicKey string, assetIDs []uint64, memo string) types.Action {
	return types.Action{
		Account:       Contract,
		Name:          "announcelink",
		Authorization: auth,
		Data: AnnounceLinkData{
			Creator:  creator,
			Key:      publicKey,
			AssetIDs: atomicassets.FormatIDs(assetIDs),
			Memo:     memo,
		},
	}
}

// CreateLink returns the announce and escrow actions that make up one link.
func CreateLink(auth []types.PermissionLevel, creator, publicKey string, assetIDs []uint64, memo string) []types.Action {
	return []types.Action{
		AnnounceLink(auth, creator, publicKey, assetIDs, memo),
		atomicassets.Transfer(auth, creator, Contract, assetIDs, EscrowMemo),
	}
}

// CancelLinkData is the cancellink action payload.
type CancelLinkData struct {
	LinkID string `json:"link_id"`
}

// CancelLink returns a link's escrowed assets to its creator.
func CancelLink(auth []types.PermissionLevel, linkID uint64) types.Action {
	return types.Action{
		Account:       Contract,
		Name:          "cancellink",
		Authorization: auth,
		Data:          CancelLinkData{LinkID: strconv.FormatUint(linkID, 10)},
	}
}

// Claimlink is a created link and the private key that claims it.
type Claimlink struct {
	LinkID     string `json:"link_id"`
	PrivateKey string `json:"-"`
}

// AtomicHubURL is the claim URL on AtomicHub, including the key.
func (c Claimlink) AtomicHubURL() string {
	return "https://wax.atomichub.io/trading/link/wax-mainnet/" + c.LinkID + "?key=" + c.PrivateKey
}

// NeftyURL is the claim URL on NeftyBlocks, including the key.
func (c Claimlink) NeftyURL() string {
	return "https://neftyblocks.com/links/" + c.LinkID + "?key=" + c.PrivateKey
}

// PublicURL shows the link without the key, safe to announce.
func (c Claimlink) PublicURL() string {
	return "https://wax.atomichub.io/trading/link/wax-mainnet/" + c.LinkID
}
