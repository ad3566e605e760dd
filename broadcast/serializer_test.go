package broadcast

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"testing"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crptomonkeys/greenwiz/lib"
	"github.com/crptomonkeys/greenwiz/types"
)

const devPrivateKey = "5KQwrPbwdL6PhXujxW37FSSQZ1JiwsST4cqQzDeyXtP79zkvFD3"

func name(t *testing.T, s string) []byte {
	t.Helper()
	v, err := lib.StringToName(s)
	require.NoError(t, err)
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, v)
	return out
}

func TestSerializeTransaction(t *testing.T) {
	trx := &types.Transaction{
		Expiration:     time.Unix(1609459200, 0),
		RefBlockNum:    0x1234,
		RefBlockPrefix: 0xdeadbeef,
		Actions: []types.Action{{
			Account:       "eosio.token",
			Name:          "transfer",
			Authorization: []types.PermissionLevel{{Actor: "crptomonkeys", Permission: "active"}},
			Data:          []byte{0x01, 0x02, 0x03},
		}},
	}

	got, err := SerializeTransaction(trx)
	require.NoError(t, err)

	var want bytes.Buffer
	want.Write([]byte{0x00, 0x66, 0xee, 0x5f}) // expiration
	want.Write([]byte{0x34, 0x12})             // ref_block_num
	want.Write([]byte{0xef, 0xbe, 0xad, 0xde}) // ref_block_prefix
	want.Write([]byte{0x00, 0x00, 0x00})       // net, cpu, delay
	want.Write([]byte{0x00, 0x01})             // context free actions, actions
	want.Write(name(t, "eosio.token"))
	want.Write(name(t, "transfer"))
	want.WriteByte(0x01)
	want.Write(name(t, "crptomonkeys"))
	want.Write(name(t, "active"))
	want.Write([]byte{0x03, 0x01, 0x02, 0x03})
	want.WriteByte(0x00) // extensions

	assert.Equal(t, hex.EncodeToString(want.Bytes()), hex.EncodeToString(got))
}

func TestSerializeTransactionErrors(t *testing.T) {
	tests := []struct {
		name   string
		action types.Action
	}{
		{
			name:   "unencoded data",
			action: types.Action{Account: "atomicassets", Name: "transfer", Data: map[string]any{"from": "a"}},
		},
		{
			name:   "invalid account name",
			action: types.Action{Account: "Not_A_Name", Name: "transfer", Data: []byte{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SerializeTransaction(&types.Transaction{Actions: []types.Action{tt.action}})
			assert.Error(t, err)
		})
	}
}

func TestVaruint32(t *testing.T) {
	tests := []struct {
		in   uint32
		want []byte
	}{
		{0, []byte{0x00}},
		{127, []byte{0x7f}},
		{128, []byte{0x80, 0x01}},
		{300, []byte{0xac, 0x02}},
	}
	for _, tt := range tests {
		var e encoder
		e.varuint32(tt.in)
		assert.Equal(t, tt.want, e.buf.Bytes(), "varuint32(%d)", tt.in)
	}
}

func TestSigningDigest(t *testing.T) {
	chainID := "1064487b3cd1a897ce03ae5b6a865651747e2e152090f99c1d19d44e01aea5a4"
	packed := []byte{0xaa, 0xbb}

	got, err := SigningDigest(chainID, packed)
	require.NoError(t, err)

	id, _ := hex.DecodeString(chainID)
	want := sha256.Sum256(append(append(id, packed...), make([]byte, 32)...))
	assert.Equal(t, want[:], got)

	_, err = SigningDigest("not-hex", packed)
	assert.Error(t, err)
}

func TestSignProducesRecoverableSignature(t *testing.T) {
	key, err := lib.ParsePrivateKey(devPrivateKey)
	require.NoError(t, err)

	prepared := &PreparedTransaction{
		ChainID: "1064487b3cd1a897ce03ae5b6a865651747e2e152090f99c1d19d44e01aea5a4",
		Transaction: types.Transaction{
			Expiration:     time.Unix(1700000000, 0),
			RefBlockNum:    7,
			RefBlockPrefix: 99,
			Actions: []types.Action{{
				Account:       "atomicassets",
				Name:          "transfer",
				Authorization: []types.PermissionLevel{{Actor: "crptomonkeys", Permission: "active"}},
				Data:          []byte("payload"),
			}},
		},
	}

	signed, err := Sign(prepared, key)
	require.NoError(t, err)
	require.Len(t, signed.Packed.Signatures, 1)
	assert.Equal(t, 0, signed.Packed.Compression)
	assert.Empty(t, signed.Packed.PackedContextFreeData)

	packed, err := hex.DecodeString(signed.Packed.PackedTrx)
	require.NoError(t, err)
	id := sha256.Sum256(packed)
	assert.Equal(t, hex.EncodeToString(id[:]), signed.ID)

	digest, err := SigningDigest(prepared.ChainID, packed)
	require.NoError(t, err)
	sig, err := lib.ParseSignature(signed.Packed.Signatures[0])
	require.NoError(t, err)
	pub, _, err := ecdsa.RecoverCompact(sig, digest)
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), lib.LegacyPublicKey(pub.SerializeCompressed()))
}
