// Package manager is the per-user entry point to the protocol: it registers
// the local identity and encrypts or decrypts messages with remote users.
package manager

import (
	"context"
	"log/slog"

	"signalstore/internal/domain"
	"signalstore/internal/retry"
	"signalstore/internal/services/identity"
	"signalstore/internal/services/message"
	"signalstore/internal/services/prekey"
	"signalstore/internal/services/session"
)

// Options configures New.
type Options struct {
	PreKeyID       domain.KeyID
	SignedPreKeyID domain.KeyID
	DeviceID       uint32
	Retry          retry.Policy
	Logger         *slog.Logger
}

// Manager wires the identity, session and message services of one user.
type Manager struct {
	identity *identity.Service
	sessions *session.Service
	messages *message.Service
}

// New returns a manager for user.
func New(
	user domain.UserID,
	store domain.ProtocolStore,
	dir domain.Directory,
	engine domain.SessionEngine,
	opts Options,
) *Manager {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	prekeys := prekey.New(store, opts.PreKeyID, opts.SignedPreKeyID)
	sessions := session.New(store, dir, engine, opts.Retry, opts.DeviceID, log)
	return &Manager{
		identity: identity.New(user, store, dir, prekeys, opts.Retry, log),
		sessions: sessions,
		messages: message.New(store, engine, sessions),
	}
}

// Initialize registers the local identity if it is missing locally or on the
// directory. It reports whether a new identity was created.
func (m *Manager) Initialize(ctx context.Context) (bool, error) {
	return m.identity.Initialize(ctx)
}

// Fingerprint returns the local identity fingerprint.
func (m *Manager) Fingerprint(ctx context.Context) (domain.Fingerprint, error) {
	return m.identity.Fingerprint(ctx)
}

// Encrypt encrypts plaintext for remote.
func (m *Manager) Encrypt(ctx context.Context, remote string, plaintext []byte) (domain.CipherMessage, error) {
	return m.messages.Encrypt(ctx, remote, plaintext)
}

// Decrypt decrypts msg from remote.
func (m *Manager) Decrypt(ctx context.Context, remote string, msg domain.CipherMessage) ([]byte, error) {
	return m.messages.Decrypt(ctx, remote, msg)
}

// SessionState returns the session state with remote.
func (m *Manager) SessionState(ctx context.Context, remote string) (domain.SessionState, error) {
	return m.sessions.State(ctx, remote)
}

// ForgetSessions removes every session with remote.
func (m *Manager) ForgetSessions(ctx context.Context, remote string) error {
	return m.sessions.Forget(ctx, remote)
}
