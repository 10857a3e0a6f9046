package interfaces

import (
	"context"
	"encoding/json"

	domaintypes "signalstore/internal/domain/types"
)

// KeyValueStore is the generic record namespace of one identity.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (json.RawMessage, bool, error)
	Set(ctx context.Context, key string, value any) error
	Remove(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// ProtocolStore is the capability object handed to the protocol engine.
type ProtocolStore interface {
	// Generic access to the semantic namespace.
	Get(ctx context.Context, key string, out any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Remove(ctx context.Context, key string) error

	// Local identity
	GetIdentityKeyPair(ctx context.Context) (domaintypes.IdentityKeyPair, bool, error)
	PutIdentityKeyPair(ctx context.Context, id domaintypes.IdentityKeyPair) error
	GetLocalRegistrationID(ctx context.Context) (domaintypes.RegistrationID, bool, error)
	PutLocalRegistrationID(ctx context.Context, id domaintypes.RegistrationID) error

	// Remote identities
	IsTrustedIdentity(ctx context.Context, remote string, identityKey []byte) (bool, error)
	LoadIdentityKey(ctx context.Context, remote string) (domaintypes.Bytes, bool, error)
	SaveIdentity(ctx context.Context, address string, identityKey []byte) (bool, error)

	// One-time pre-keys
	LoadPreKey(ctx context.Context, id domaintypes.KeyID) (domaintypes.KeyPair, bool, error)
	StorePreKey(ctx context.Context, id domaintypes.KeyID, pair domaintypes.KeyPair) error
	RemovePreKey(ctx context.Context, id domaintypes.KeyID) error

	// Signed pre-keys
	LoadSignedPreKey(ctx context.Context, id domaintypes.KeyID) (domaintypes.SignedPreKeyRecord, bool, error)
	StoreSignedPreKey(ctx context.Context, id domaintypes.KeyID, rec domaintypes.SignedPreKeyRecord) error
	RemoveSignedPreKey(ctx context.Context, id domaintypes.KeyID) error

	// Sessions
	LoadSession(ctx context.Context, addr domaintypes.Address) (domaintypes.SessionRecord, bool, error)
	StoreSession(ctx context.Context, addr domaintypes.Address, rec domaintypes.SessionRecord) error
	RemoveSession(ctx context.Context, addr domaintypes.Address) error
	RemoveAllSessions(ctx context.Context, name string) error

	// Session-cipher address cache
	StoreSessionCipher(ctx context.Context, remote string, addr domaintypes.Address) error
	LoadSessionCipherAddress(ctx context.Context, remote string) (domaintypes.Address, bool, error)
	RemoveSessionCipher(ctx context.Context, remote string) error
}
