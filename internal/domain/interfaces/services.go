package interfaces

import (
	"context"

	domaintypes "signalstore/internal/domain/types"
)

// SessionEngine is the external protocol engine. It owns key agreement and
// ratchet state and reads/writes everything through the ProtocolStore.
type SessionEngine interface {
	InitOutgoing(
		ctx context.Context,
		store ProtocolStore,
		addr domaintypes.Address,
		bundle domaintypes.PreKeyBundle,
	) error
	Encrypt(
		ctx context.Context,
		store ProtocolStore,
		addr domaintypes.Address,
		plaintext []byte,
	) (domaintypes.CipherMessage, error)
	Decrypt(
		ctx context.Context,
		store ProtocolStore,
		addr domaintypes.Address,
		msg domaintypes.CipherMessage,
	) ([]byte, error)
}

// Directory publishes and looks up pre-key bundles of users.
type Directory interface {
	Exists(ctx context.Context, user domaintypes.UserID) (bool, error)
	Publish(ctx context.Context, user domaintypes.UserID, bundle domaintypes.PreKeyBundle) (bool, error)
	Fetch(ctx context.Context, user domaintypes.UserID) (domaintypes.PreKeyBundle, bool, error)
}
