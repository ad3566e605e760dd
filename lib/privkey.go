package lib

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // EOSIO key checksums are defined over RIPEMD-160
)

const (
	legacyPubPrefix = "EOS"
	pubK1Prefix     = "PUB_K1_"
	pvtK1Prefix     = "PVT_K1_"
	sigK1Prefix     = "SIG_K1_"
	wifVersion      = 0x80

	// maxSignAttempts bounds the search for a canonical signature. Roughly
	// one in four signatures is canonical, so this is never reached in practice.
	maxSignAttempts = 128
)

// PrivateKey is an EOSIO K1 private key.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// GeneratePrivateKey creates a fresh random key, used for one time claim link keys.
func GeneratePrivateKey() (*PrivateKey, error) {
	k, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return &PrivateKey{key: k}, nil
}

// ParsePrivateKey accepts the legacy WIF form and the PVT_K1_ form.
func ParsePrivateKey(s string) (*PrivateKey, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, pvtK1Prefix) {
		raw, err := decodeChecked(strings.TrimPrefix(s, pvtK1Prefix), "K1")
		if err != nil {
			return nil, fmt.Errorf("invalid private key: %w", err)
		}
		if len(raw) != 32 {
			return nil, fmt.Errorf("invalid private key length %d", len(raw))
		}
		return &PrivateKey{key: secp256k1.PrivKeyFromBytes(raw)}, nil
	}

	raw, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("invalid private key encoding: %w", err)
	}
	// version byte + 32 key bytes (+ optional compression flag) + 4 checksum bytes
	if len(raw) != 37 && len(raw) != 38 {
		return nil, fmt.Errorf("invalid WIF length %d", len(raw))
	}
	payload, checksum := raw[:len(raw)-4], raw[len(raw)-4:]
	if payload[0] != wifVersion {
		return nil, fmt.Errorf("invalid WIF version byte 0x%x", payload[0])
	}
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	if !bytes.Equal(second[:4], checksum) {
		return nil, errors.New("invalid WIF checksum")
	}
	return &PrivateKey{key: secp256k1.PrivKeyFromBytes(payload[1:33])}, nil
}

// String returns the key in legacy WIF form, which claim link URLs carry.
func (k *PrivateKey) String() string {
	payload := make([]byte, 0, 37)
	payload = append(payload, wifVersion)
	payload = append(payload, k.key.Serialize()...)
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	return base58.Encode(append(payload, second[:4]...))
}

// PublicKey returns the legacy EOS-prefixed public key.
func (k *PrivateKey) PublicKey() string {
	return LegacyPublicKey(k.key.PubKey().SerializeCompressed())
}

// LegacyPublicKey formats a compressed public key as EOS...
func LegacyPublicKey(compressed []byte) string {
	sum := ripemd(compressed)
	return legacyPubPrefix + base58.Encode(append(append([]byte{}, compressed...), sum[:4]...))
}

// K1PublicKey formats a compressed public key as PUB_K1_...
func K1PublicKey(compressed []byte) string {
	sum := ripemd(compressed, []byte("K1"))
	return pubK1Prefix + base58.Encode(append(append([]byte{}, compressed...), sum[:4]...))
}

// Sign produces a canonical compact signature over digest in SIG_K1_ form.
func (k *PrivateKey) Sign(digest []byte) (string, error) {
	if len(digest) != 32 {
		return "", fmt.Errorf("digest must be 32 bytes, got %d", len(digest))
	}
	sig, err := k.signCanonical(digest)
	if err != nil {
		return "", err
	}
	sum := ripemd(sig, []byte("K1"))
	return sigK1Prefix + base58.Encode(append(sig, sum[:4]...)), nil
}

// signCanonical returns a 65 byte compact signature (recovery byte, r, s)
// that satisfies the chain's canonical form. Nonces are RFC 6979 with an
// attempt counter mixed in as extra data.
func (k *PrivateKey) signCanonical(digest []byte) ([]byte, error) {
	privBytes := k.key.Serialize()
	var e secp256k1.ModNScalar
	e.SetByteSlice(digest)

	for attempt := uint32(0); attempt < maxSignAttempts; attempt++ {
		var extra []byte
		if attempt > 0 {
			var counter [4]byte
			binary.BigEndian.PutUint32(counter[:], attempt)
			h := sha256.Sum256(counter[:])
			extra = h[:]
		}
		nonce := secp256k1.NonceRFC6979(privBytes, digest, extra, nil, 0)
		sig, ok := signWithNonce(&k.key.Key, nonce, &e)
		nonce.Zero()
		if ok && isCanonical(sig) {
			return sig, nil
		}
	}
	return nil, errors.New("failed to produce a canonical signature")
}

func signWithNonce(priv, k, e *secp256k1.ModNScalar) ([]byte, bool) {
	var kG secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(k, &kG)
	kG.ToAffine()

	var r secp256k1.ModNScalar
	xBytes := kG.X.Bytes()
	overflow := r.SetByteSlice(xBytes[:])
	if r.IsZero() {
		return nil, false
	}
	var recovery byte
	if kG.Y.IsOdd() {
		recovery = 0x01
	}
	if overflow {
		recovery |= 0x02
	}

	var kinv secp256k1.ModNScalar
	kinv.InverseValNonConst(k)
	var s secp256k1.ModNScalar
	s.Mul2(priv, &r).Add(e).Mul(&kinv)
	if s.IsZero() {
		return nil, false
	}
	if s.IsOverHalfOrder() {
		s.Negate()
		recovery ^= 0x01
	}

	out := make([]byte, 65)
	out[0] = 27 + 4 + recovery
	r.PutBytesUnchecked(out[1:33])
	s.PutBytesUnchecked(out[33:65])
	return out, true
}

// isCanonical applies the chain's rule that neither r nor s may carry a
// leading byte that would need padding in DER form.
func isCanonical(c []byte) bool {
	return c[1]&0x80 == 0 &&
		!(c[1] == 0 && c[2]&0x80 == 0) &&
		c[33]&0x80 == 0 &&
		!(c[33] == 0 && c[34]&0x80 == 0)
}

// ParseSignature decodes a SIG_K1_ string to its 65 compact bytes.
func ParseSignature(s string) ([]byte, error) {
	if !strings.HasPrefix(s, sigK1Prefix) {
		return nil, fmt.Errorf("unsupported signature format %q", s)
	}
	raw, err := decodeChecked(strings.TrimPrefix(s, sigK1Prefix), "K1")
	if err != nil {
		return nil, err
	}
	if len(raw) != 65 {
		return nil, fmt.Errorf("invalid signature length %d", len(raw))
	}
	return raw, nil
}

func decodeChecked(s, suffix string) ([]byte, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return nil, err
	}
	if len(raw) < 5 {
		return nil, errors.New("encoded value too short")
	}
	payload, checksum := raw[:len(raw)-4], raw[len(raw)-4:]
	sum := ripemd(payload, []byte(suffix))
	if !bytes.Equal(sum[:4], checksum) {
		return nil, errors.New("checksum mismatch")
	}
	return payload, nil
}

func ripemd(parts ...[]byte) []byte {
	h := ripemd160.New()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}
