package lib

import (
	"crypto/sha256"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Well known development key pair.
const (
	devPrivateKey = "5KQwrPbwdL6PhXujxW37FSSQZ1JiwsST4cqQzDeyXtP79zkvFD3"
	devPublicKey  = "EOS6MRyAjQq8ud7hVNYcfnVPJqcVpscN5So8BhtHuGYqET5GDW5CV"
)

func TestParsePrivateKeyWIF(t *testing.T) {
	key, err := ParsePrivateKey(devPrivateKey)
	require.NoError(t, err)
	assert.Equal(t, devPublicKey, key.PublicKey())
	assert.Equal(t, devPrivateKey, key.String())
}

func TestParsePrivateKeyRejectsBadChecksum(t *testing.T) {
	bad := devPrivateKey[:len(devPrivateKey)-1] + "4"
	_, err := ParsePrivateKey(bad)
	assert.Error(t, err)
}

func TestSignIsCanonicalAndRecoverable(t *testing.T) {
	key, err := ParsePrivateKey(devPrivateKey)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		digest := sha256.Sum256([]byte{byte(i), 'g', 'w'})

		sig, err := key.Sign(digest[:])
		require.NoError(t, err)

		raw, err := ParseSignature(sig)
		require.NoError(t, err)
		assert.True(t, isCanonical(raw))

		pub, compressed, err := ecdsa.RecoverCompact(raw, digest[:])
		require.NoError(t, err)
		assert.True(t, compressed)
		assert.Equal(t, devPublicKey, LegacyPublicKey(pub.SerializeCompressed()))
	}
}

func TestSignIsDeterministic(t *testing.T) {
	key, err := ParsePrivateKey(devPrivateKey)
	require.NoError(t, err)
	digest := sha256.Sum256([]byte("same bytes"))

	first, err := key.Sign(digest[:])
	require.NoError(t, err)
	second, err := key.Sign(digest[:])
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGeneratePrivateKeyRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)

	parsed, err := ParsePrivateKey(key.String())
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), parsed.PublicKey())
}

func TestSignRejectsShortDigest(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)
	_, err = key.Sign([]byte("short"))
	assert.Error(t, err)
}
