package store

import (
	"bytes"
	"crypto/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"signalstore/internal/domain"
)

func TestEnvelope_SealOpen_OK(t *testing.T) {
	key, err := generateKey(rand.Reader)
	require.NoError(t, err)

	for _, pt := range [][]byte{
		[]byte(`{}`),
		[]byte(`{"a":42}`),
		bytes.Repeat([]byte("x"), 16),
		bytes.Repeat([]byte("y"), 4099),
	} {
		env, err := seal(key.Bytes(), pt, rand.Reader)
		require.NoError(t, err)
		got, err := open(key.Bytes(), env)
		require.NoError(t, err)
		assert.Equal(t, pt, got)
	}
}

func TestEnvelope_Open_WrongKey(t *testing.T) {
	k1, err := generateKey(rand.Reader)
	require.NoError(t, err)
	k2, err := generateKey(rand.Reader)
	require.NoError(t, err)

	env, err := seal(k1.Bytes(), []byte(`{"a":1}`), rand.Reader)
	require.NoError(t, err)

	pt, err := open(k2.Bytes(), env)
	if err == nil {
		// CBC with the wrong key occasionally yields valid padding.
		assert.NotEqual(t, []byte(`{"a":1}`), pt)
		return
	}
	assert.ErrorIs(t, err, domain.ErrDecryption)
}

func TestEnvelope_Open_Malformed(t *testing.T) {
	key, err := generateKey(rand.Reader)
	require.NoError(t, err)

	for name, env := range map[string]string{
		"not base64":   "!!!",
		"not zlib":     "aGVsbG8=",
		"no separator": "eJzLSM3JyVcozy/KSQEAGgsEXQ==",
		"empty":        "",
	} {
		_, err := open(key.Bytes(), env)
		assert.ErrorIs(t, err, domain.ErrDecryption, name)
	}
}

func TestPKCS7_Unpad_Rejects(t *testing.T) {
	good := pkcs7Pad([]byte("abc"), 16)
	require.Len(t, good, 16)
	out, err := pkcs7Unpad(good, 16)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), out)

	full := pkcs7Pad(bytes.Repeat([]byte{1}, 16), 16)
	assert.Len(t, full, 32)

	bad := append([]byte{}, good...)
	bad[15] = 0
	_, err = pkcs7Unpad(bad, 16)
	assert.ErrorIs(t, err, domain.ErrDecryption)

	bad[15] = 17
	_, err = pkcs7Unpad(bad, 16)
	assert.ErrorIs(t, err, domain.ErrDecryption)

	_, err = pkcs7Unpad(good[:15], 16)
	assert.ErrorIs(t, err, domain.ErrDecryption)
}

func TestCodec_Coin_Bounds(t *testing.T) {
	c := &Codec{rand: rand.Reader}
	for i := 0; i < 50; i++ {
		c.rotateP = 0
		got, err := c.coin()
		require.NoError(t, err)
		assert.False(t, got)

		c.rotateP = 1
		got, err = c.coin()
		require.NoError(t, err)
		assert.True(t, got)
	}
}

func TestParseKey_Formats(t *testing.T) {
	gen, err := generateKey(rand.Reader)
	require.NoError(t, err)
	assert.Len(t, gen.String(), 43)
	assert.NotContains(t, gen.String(), ":")

	parsed, err := parseKey(gen.String())
	require.NoError(t, err)
	assert.Equal(t, gen.Bytes(), parsed.Bytes())

	legacy, err := parseKey(strings.Repeat("k", 32))
	require.NoError(t, err)
	assert.Equal(t, []byte(strings.Repeat("k", 32)), legacy.Bytes())

	_, err = parseKey("short")
	assert.Error(t, err)
}

func TestParseBundle_HashKeepsColons(t *testing.T) {
	key := strings.Repeat("k", 32)
	k, hash, err := parseBundle(key + ":$2a$10$abc:def")
	require.NoError(t, err)
	assert.Equal(t, key, k.String())
	assert.Equal(t, "$2a$10$abc:def", hash)

	_, _, err = parseBundle("nocolon")
	assert.Error(t, err)
	_, _, err = parseBundle(key + ":")
	assert.Error(t, err)
}

func TestHashInput_Truncated(t *testing.T) {
	long := strings.Repeat("p", 100)
	assert.Len(t, hashInput(long, "id"), bcryptInputLimit)
	assert.Equal(t, []byte("pwdXNlcjE="), hashInput("pw", "user1"))
}

func TestKeyMaterial_Wipe(t *testing.T) {
	k, err := generateKey(rand.Reader)
	require.NoError(t, err)
	k.wipe()
	assert.Equal(t, make([]byte, keyBytes), k.Bytes())
}

func TestCodec_Rollback_RestoresKeyWhenBundleWriteFails(t *testing.T) {
	creds, err := OpenCredentials(t.TempDir(), "user1", "pw", bcrypt.MinCost, rand.Reader)
	require.NoError(t, err)
	before := creds.Key().String()
	oldEnv, err := seal(creds.Key().Bytes(), []byte(`{"a":1}`), rand.Reader)
	require.NoError(t, err)

	c := NewCodec(creds, 1, rand.Reader)
	sealed, err := c.Encrypt([]byte(`{}`))
	require.NoError(t, err)
	require.True(t, sealed.Rotated)
	require.NotEqual(t, before, creds.Key().String())

	// A non-empty directory in place of the bundle makes the rewrite fail.
	require.NoError(t, os.Remove(creds.Path()))
	require.NoError(t, os.MkdirAll(filepath.Join(creds.Path(), "blocked"), 0o700))

	err = c.Rollback(sealed)
	require.ErrorIs(t, err, domain.ErrPersistence)
	assert.Equal(t, before, creds.Key().String())

	pt, err := c.Decrypt(oldEnv)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(pt))

	_, err = os.Stat(creds.journalPath())
	assert.NoError(t, err, "journal is kept for recovery on the next open")
}
