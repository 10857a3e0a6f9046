package protocolstore_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"signalstore/internal/cache"
	"signalstore/internal/domain"
	"signalstore/internal/logger"
	"signalstore/internal/protocolstore"
	"signalstore/internal/store"
)

func newAdapter(t *testing.T) (*protocolstore.Store, *store.FileStore) {
	t.Helper()
	fs, err := store.Open(context.Background(), store.Options{
		Root:       t.TempDir(),
		Identity:   "user1",
		Password:   "pw",
		BcryptCost: bcrypt.MinCost,
		Logger:     logger.Discard(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = fs.Close() })
	return protocolstore.New(cache.New(fs, logger.Discard(), nil), logger.Discard()), fs
}

func TestStore_RemoveAllSessions_ByPrefix(t *testing.T) {
	ctx := context.Background()
	s, fs := newAdapter(t)

	require.NoError(t, s.Set(ctx, "session:X:1", "one"))
	require.NoError(t, s.Set(ctx, "session:X:2", "two"))
	require.NoError(t, s.Set(ctx, "session:XY:1", "other user"))
	require.NoError(t, s.Set(ctx, "other:X", "keep"))

	require.NoError(t, s.RemoveAllSessions(ctx, "X"))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"other:X", "session:XY:1"}, keys)

	// The removal reached the disk, not only the cache.
	persisted, err := fs.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"other:X", "session:XY:1"}, persisted)
}

func TestStore_RemoveAllSessions_BareKey(t *testing.T) {
	ctx := context.Background()
	s, _ := newAdapter(t)

	require.NoError(t, s.Set(ctx, "session:X", "legacy"))
	require.NoError(t, s.RemoveAllSessions(ctx, "X"))

	var v string
	ok, err := s.Get(ctx, "session:X", &v)
	require.NoError(t, err)
	assert.False(t, ok)

	require.ErrorIs(t, s.RemoveAllSessions(ctx, ""), domain.ErrInvalidKey)
}

func TestStore_Session_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newAdapter(t)
	addr := domain.Address{Name: "bob", DeviceID: 7}

	_, ok, err := s.LoadSession(ctx, addr)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.StoreSession(ctx, addr, domain.SessionRecord(`{"state":1}`)))
	rec, ok, err := s.LoadSession(ctx, addr)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.SessionRecord(`{"state":1}`), rec)

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"session:bob:7"}, keys)

	require.NoError(t, s.RemoveSession(ctx, addr))
	_, ok, err = s.LoadSession(ctx, addr)
	require.NoError(t, err)
	assert.False(t, ok)

	require.ErrorIs(t, s.StoreSession(ctx, domain.Address{}, nil), domain.ErrInvalidKey)
}

func TestStore_IdentityKeyPair_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newAdapter(t)

	_, ok, err := s.GetIdentityKeyPair(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	id := domain.IdentityKeyPair{PubKey: domain.Bytes{1, 2}, PrivKey: domain.Bytes{3, 4}}
	require.NoError(t, s.PutIdentityKeyPair(ctx, id))
	require.NoError(t, s.PutLocalRegistrationID(ctx, 4242))

	got, ok, err := s.GetIdentityKeyPair(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, id.PubKey, got.PubKey)
	assert.Equal(t, id.PrivKey, got.PrivKey)

	reg, ok, err := s.GetLocalRegistrationID(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.RegistrationID(4242), reg)

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"identityKey", "registrationId"}, keys)
}

func TestStore_IsTrustedIdentity(t *testing.T) {
	ctx := context.Background()
	s, _ := newAdapter(t)
	key := []byte{5, 5, 5}

	trusted, err := s.IsTrustedIdentity(ctx, "bob", key)
	require.NoError(t, err)
	assert.True(t, trusted, "unknown remote is trusted on first use")

	changed, err := s.SaveIdentity(ctx, "bob:1", key)
	require.NoError(t, err)
	assert.False(t, changed)

	trusted, err = s.IsTrustedIdentity(ctx, "bob", key)
	require.NoError(t, err)
	assert.True(t, trusted)

	trusted, err = s.IsTrustedIdentity(ctx, "bob", []byte{6})
	require.NoError(t, err)
	assert.False(t, trusted)

	changed, err = s.SaveIdentity(ctx, "bob:2", []byte{6})
	require.NoError(t, err)
	assert.True(t, changed)

	pinned, ok, err := s.LoadIdentityKey(ctx, "bob")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.Bytes{6}, pinned)

	_, err = s.IsTrustedIdentity(ctx, "", key)
	require.ErrorIs(t, err, domain.ErrInvalidKey)
	_, err = s.IsTrustedIdentity(ctx, "bob", nil)
	require.ErrorIs(t, err, domain.ErrInvalidKey)
	_, err = s.SaveIdentity(ctx, "", key)
	require.ErrorIs(t, err, domain.ErrInvalidKey)
}

func TestStore_PreKeys_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newAdapter(t)

	pair := domain.KeyPair{PubKey: domain.Bytes{1}, PrivKey: domain.Bytes{2}}
	require.NoError(t, s.StorePreKey(ctx, 123, pair))
	rec := domain.SignedPreKeyRecord{PubKey: domain.Bytes{3}, PrivKey: domain.Bytes{4}, Signature: domain.Bytes{5}}
	require.NoError(t, s.StoreSignedPreKey(ctx, 456, rec))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"25519KeypreKey123", "25519KeysignedKey456"}, keys)

	got, ok, err := s.LoadPreKey(ctx, 123)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, pair, got)

	gotRec, ok, err := s.LoadSignedPreKey(ctx, 456)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rec, gotRec)

	require.NoError(t, s.RemovePreKey(ctx, 123))
	require.NoError(t, s.RemoveSignedPreKey(ctx, 456))
	_, ok, err = s.LoadPreKey(ctx, 123)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = s.LoadSignedPreKey(ctx, 456)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_LoadPreKey_LegacyBufferJSON(t *testing.T) {
	ctx := context.Background()
	s, _ := newAdapter(t)

	legacy := json.RawMessage(`{"pubKey":{"type":"Buffer","data":[1,2,3]},"privKey":{"type":"Buffer","data":[4,5]}}`)
	require.NoError(t, s.Set(ctx, "25519KeypreKey9", legacy))

	got, ok, err := s.LoadPreKey(ctx, 9)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.Bytes{1, 2, 3}, got.PubKey)
	assert.Equal(t, domain.Bytes{4, 5}, got.PrivKey)
}

func TestStore_SessionCipher_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newAdapter(t)

	_, ok, err := s.LoadSessionCipherAddress(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, ok)

	addr := domain.Address{Name: "Ym9i", DeviceID: 123}
	require.NoError(t, s.StoreSessionCipher(ctx, "bob", addr))

	got, ok, err := s.LoadSessionCipherAddress(ctx, "bob")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, addr, got)

	var raw json.RawMessage
	ok, err = s.Get(ctx, "cipherbob", &raw)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"addr":{"id":"Ym9i","deviceId":123}}`, string(raw))

	require.NoError(t, s.RemoveSessionCipher(ctx, "bob"))
	require.NoError(t, s.RemoveSessionCipher(ctx, "never"))
	_, ok, err = s.LoadSessionCipherAddress(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, ok)
}
