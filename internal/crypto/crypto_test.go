package crypto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalstore/internal/crypto"
	"signalstore/internal/domain"
)

func TestGenerateX25519_Clamped(t *testing.T) {
	priv, pub, err := crypto.GenerateX25519()
	require.NoError(t, err)
	assert.Equal(t, byte(0), priv[0]&7)
	assert.Equal(t, byte(64), priv[31]&192)
	assert.NotEqual(t, domain.X25519Public{}, pub)
}

func TestEd25519_SignVerify(t *testing.T) {
	priv, pub, err := crypto.GenerateEd25519()
	require.NoError(t, err)

	msg := []byte("bundle")
	sig := crypto.SignEd25519(priv.Slice(), msg)
	assert.True(t, crypto.VerifyEd25519(pub.Slice(), msg, sig))
	assert.False(t, crypto.VerifyEd25519(pub.Slice(), []byte("other"), sig))
	assert.False(t, crypto.VerifyEd25519([]byte{1, 2}, msg, sig))
}

func TestNewBundle_Verifies(t *testing.T) {
	id, err := crypto.NewIdentity()
	require.NoError(t, err)
	pre, err := crypto.NewPreKey(123)
	require.NoError(t, err)
	signed, err := crypto.NewSignedPreKey(id, 456)
	require.NoError(t, err)

	b := crypto.NewBundle(id, 9, pre, signed)
	assert.Equal(t, domain.KeyID(123), b.PreKey.KeyID)
	assert.Equal(t, domain.KeyID(456), b.SignedPreKey.KeyID)
	assert.Equal(t, id.PubKey, b.IdentityKey)
	assert.True(t, crypto.VerifyBundle(b))

	b.SignedPreKey.PublicKey = pre.KeyPair.PubKey
	assert.False(t, crypto.VerifyBundle(b))
}

func TestNewSignedPreKey_NeedsSigningKey(t *testing.T) {
	_, err := crypto.NewSignedPreKey(domain.IdentityKeyPair{}, 1)
	require.Error(t, err)
}

func TestNewRegistrationID_Range(t *testing.T) {
	for i := 0; i < 200; i++ {
		id, err := crypto.NewRegistrationID()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, id, domain.RegistrationID(1))
		assert.LessOrEqual(t, id, domain.RegistrationID(crypto.MaxRegistrationID))
	}
}

func TestFingerprint_Stable(t *testing.T) {
	a := crypto.Fingerprint([]byte{1, 2, 3})
	b := crypto.Fingerprint([]byte{1, 2, 3})
	assert.Equal(t, a, b)
	assert.Len(t, a.String(), 24)
	assert.NotEqual(t, a, crypto.Fingerprint([]byte{3, 2, 1}))
}
