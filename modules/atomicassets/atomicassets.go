// Package atomicassets builds actions for the atomicassets NFT contract.
package atomicassets

import (
	"strconv"

	"github.com/crptomonkeys/greenwiz/types"
)

const Contract = "atomicassets"

// TransferData is the transfer action payload.
type TransferData struct {
	From     string   `json:"from"`
	To       string   `json:"to"`
	AssetIDs []string `json:"asset_ids"`
	Memo     string   `json:"memo"`
}

// Transfer moves assets between accounts.
func Transfer(auth []types.PermissionLevel, from, to string, assetIDs []uint64, memo string) types.Action {
	return types.Action{
		Account:       Contract,
		Name:          "transfer",
		Authorization: auth,
		Data: TransferData{
			From:     from,
			To:       to,
			AssetIDs: FormatIDs(assetIDs),
			Memo:     memo,
		},
	}
}

// MintData is the mintasset action payload.
type MintData struct {
	AuthorizedMinter string `json:"authorized_minter"`
	CollectionName   string `json:"collection_name"`
	SchemaName       string `json:"schema_name"`
	TemplateID       int32  `json:"template_id"`
	NewAssetOwner    string `json:"new_asset_owner"`
	ImmutableData    []any  `json:"immutable_data"`
	MutableData      []any  `json:"mutable_data"`
	TokensToBack     []any  `json:"tokens_to_back"`
}

// MintAsset mints one asset of templateID to owner.
func MintAsset(auth []types.PermissionLevel, minter, collection, schema string, templateID int32, owner string) types.Action {
	return types.Action{
		Account:       Contract,
		Name:          "mintasset",
		Authorization: auth,
		Data: MintData{
			AuthorizedMinter: minter,
			CollectionName:   collection,
			SchemaName:       schema,
			TemplateID:       templateID,
			NewAssetOwner:    owner,
			ImmutableData:    []any{},
			MutableData:      []any{},
			TokensToBack:     []any{},
		},
	}
}

// FormatIDs renders uint64 ids as decimal strings, which the ABI encoder
// accepts without losing precision.
func FormatIDs(ids []uint64) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = strconv.FormatUint(id, 10)
	}
	return out
}

// AssetURL is the explorer page of an asset.
func AssetURL(id uint64) string {
	return "https://wax.atomichub.io/explorer/asset/wax-mainnet/" + strconv.FormatUint(id, 10)
}

// ImageURL is the IPFS gateway URL of an asset image hash.
func ImageURL(hash string) string {
	return "https://ipfs.neftyblocks.io/ipfs/" + hash
}
