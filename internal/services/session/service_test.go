package session_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"signalstore/internal/cache"
	"signalstore/internal/crypto"
	"signalstore/internal/directory"
	"signalstore/internal/domain"
	"signalstore/internal/logger"
	"signalstore/internal/protocolstore"
	"signalstore/internal/retry"
	"signalstore/internal/services/session"
	"signalstore/internal/store"
)

type countingEngine struct {
	domain.SessionEngine
	inits atomic.Int32
}

func (e *countingEngine) InitOutgoing(context.Context, domain.ProtocolStore, domain.Address, domain.PreKeyBundle) error {
	e.inits.Add(1)
	return nil
}

func newService(t *testing.T, dir domain.Directory, engine domain.SessionEngine) (*session.Service, *protocolstore.Store) {
	t.Helper()
	fs, err := store.Open(context.Background(), store.Options{
		Root:       t.TempDir(),
		Identity:   "alice",
		Password:   "pw",
		BcryptCost: bcrypt.MinCost,
		Logger:     logger.Discard(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = fs.Close() })
	ps := protocolstore.New(cache.New(fs, logger.Discard(), nil), logger.Discard())
	return session.New(ps, dir, engine, retry.Policy{Attempts: 1}, 123, logger.Discard()), ps
}

func publish(t *testing.T, dir *directory.Memory, user domain.UserID) domain.PreKeyBundle {
	t.Helper()
	id, err := crypto.NewIdentity()
	require.NoError(t, err)
	pre, err := crypto.NewPreKey(1)
	require.NoError(t, err)
	signed, err := crypto.NewSignedPreKey(id, 2)
	require.NoError(t, err)
	b := crypto.NewBundle(id, 7, pre, signed)
	_, err = dir.Publish(context.Background(), user, b)
	require.NoError(t, err)
	return b
}

func TestService_Address(t *testing.T) {
	s, _ := newService(t, directory.NewMemory(), &countingEngine{})
	assert.Equal(t, domain.Address{Name: "Ym9i", DeviceID: 123}, s.Address("bob"))
}

func TestService_Ensure_RejectsBadSignature(t *testing.T) {
	ctx := context.Background()
	dir := directory.NewMemory()
	b := publish(t, dir, "bob")
	b.SignedPreKey.Signature[0] ^= 0xff
	_, err := dir.Publish(ctx, "bob", b)
	require.NoError(t, err)

	engine := &countingEngine{}
	s, _ := newService(t, dir, engine)
	_, err = s.Ensure(ctx, "bob")
	require.ErrorIs(t, err, session.ErrBadSignature)
	assert.Equal(t, int32(0), engine.inits.Load())

	state, err := s.State(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, domain.NoSession, state)
}

func TestService_Ensure_UsesCachedAddress(t *testing.T) {
	ctx := context.Background()
	engine := &countingEngine{}
	s, ps := newService(t, directory.NewMemory(), engine)

	cached := domain.Address{Name: "b2xk", DeviceID: 9}
	require.NoError(t, ps.StoreSessionCipher(ctx, "bob", cached))

	state, err := s.State(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, domain.SessionEstablished, state)

	addr, err := s.Ensure(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, cached, addr)
	assert.Equal(t, int32(0), engine.inits.Load())
}

func TestService_Accept_CachesFreshAddress(t *testing.T) {
	ctx := context.Background()
	s, ps := newService(t, directory.NewMemory(), &countingEngine{})

	addr, err := s.Accept(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, s.Address("carol"), addr)

	got, ok, err := ps.LoadSessionCipherAddress(ctx, "carol")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, addr, got)

	_, err = s.Accept(ctx, "")
	require.ErrorIs(t, err, domain.ErrInvalidKey)
	_, err = s.Ensure(ctx, "")
	require.ErrorIs(t, err, domain.ErrInvalidKey)
}

func TestService_Ensure_EstablishesOnce(t *testing.T) {
	ctx := context.Background()
	dir := directory.NewMemory()
	publish(t, dir, "bob")
	engine := &countingEngine{}
	s, _ := newService(t, dir, engine)

	for i := 0; i < 3; i++ {
		addr, err := s.Ensure(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, s.Address("bob"), addr)
	}
	assert.Equal(t, int32(1), engine.inits.Load())
}
