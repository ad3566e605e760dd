package atomicassets

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintAssetPayload(t *testing.T) {
	act := MintAsset(nil, "crptomonkeys", "crptomonkeys", "crptomonkeys", 12345, "abcde.wam")
	assert.Equal(t, "mintasset", act.Name)

	raw, err := json.Marshal(act.Data)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"authorized_minter":"crptomonkeys",
		"collection_name":"crptomonkeys",
		"schema_name":"crptomonkeys",
		"template_id":12345,
		"new_asset_owner":"abcde.wam",
		"immutable_data":[],
		"mutable_data":[],
		"tokens_to_back":[]
	}`, string(raw))
}

func TestFormatIDs(t *testing.T) {
	assert.Equal(t, []string{"18446744073709551615", "0"}, FormatIDs([]uint64{18446744073709551615, 0}))
}

func TestURLs(t *testing.T) {
	assert.Equal(t, "https://wax.atomichub.io/explorer/asset/wax-mainnet/99", AssetURL(99))
	assert.Equal(t, "https://ipfs.neftyblocks.io/ipfs/Qmabc", ImageURL("Qmabc"))
}
