// Package protocolstore maps the protocol engine's storage capabilities onto
// the cached key-value namespace of one identity.
package protocolstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"signalstore/internal/convert"
	"signalstore/internal/domain"
)

// Record keys. They are part of the on-disk format.
const (
	keyIdentity        = "identityKey"
	keyRegistrationID  = "registrationId"
	prefixTrust        = "identityKey"
	prefixPreKey       = "25519KeypreKey"
	prefixSignedPreKey = "25519KeysignedKey"
	prefixSession      = "session:"
	prefixCipher       = "cipher"
)

// Namespace is the cached record namespace the adapter works on.
type Namespace interface {
	domain.KeyValueStore
	RemovePrefix(ctx context.Context, prefix string) (int, error)
}

// Store implements domain.ProtocolStore over a Namespace.
type Store struct {
	ns  Namespace
	log *slog.Logger
}

// New returns an adapter over ns.
func New(ns Namespace, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{ns: ns, log: log.With("component", "protocolstore")}
}

// Get decodes the record under key into out and reports whether it existed.
func (s *Store) Get(ctx context.Context, key string, out any) (bool, error) {
	raw, ok, err := s.ns.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode %q: %w", key, err)
	}
	return true, nil
}

// Set stores value under key.
func (s *Store) Set(ctx context.Context, key string, value any) error {
	return s.ns.Set(ctx, key, value)
}

// Remove deletes key.
func (s *Store) Remove(ctx context.Context, key string) error {
	return s.ns.Remove(ctx, key)
}

// Keys lists every key of the namespace.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	return s.ns.Keys(ctx)
}

// GetIdentityKeyPair returns the local identity key pair.
func (s *Store) GetIdentityKeyPair(ctx context.Context) (domain.IdentityKeyPair, bool, error) {
	var id domain.IdentityKeyPair
	ok, err := s.Get(ctx, keyIdentity, &id)
	return id, ok, err
}

// PutIdentityKeyPair stores the local identity key pair.
func (s *Store) PutIdentityKeyPair(ctx context.Context, id domain.IdentityKeyPair) error {
	return s.Set(ctx, keyIdentity, id)
}

// GetLocalRegistrationID returns the local registration id.
func (s *Store) GetLocalRegistrationID(ctx context.Context) (domain.RegistrationID, bool, error) {
	var id domain.RegistrationID
	ok, err := s.Get(ctx, keyRegistrationID, &id)
	return id, ok, err
}

// PutLocalRegistrationID stores the local registration id.
func (s *Store) PutLocalRegistrationID(ctx context.Context, id domain.RegistrationID) error {
	return s.Set(ctx, keyRegistrationID, id)
}

// IsTrustedIdentity reports whether identityKey matches the key pinned for
// remote. An unknown remote is trusted on first use.
func (s *Store) IsTrustedIdentity(ctx context.Context, remote string, identityKey []byte) (bool, error) {
	if remote == "" {
		return false, fmt.Errorf("%w: empty remote identity", domain.ErrInvalidKey)
	}
	if identityKey == nil {
		return false, fmt.Errorf("%w: nil identity key for %q", domain.ErrInvalidKey, remote)
	}
	trusted, ok, err := s.LoadIdentityKey(ctx, remote)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	return convert.Equal(identityKey, trusted)
}

// LoadIdentityKey returns the key pinned for remote.
func (s *Store) LoadIdentityKey(ctx context.Context, remote string) (domain.Bytes, bool, error) {
	if remote == "" {
		return nil, false, fmt.Errorf("%w: empty remote identity", domain.ErrInvalidKey)
	}
	var key domain.Bytes
	ok, err := s.Get(ctx, prefixTrust+remote, &key)
	return key, ok, err
}

// SaveIdentity pins identityKey for the user of address, which may carry a
// ":deviceId" suffix. It reports whether a different key was replaced.
func (s *Store) SaveIdentity(ctx context.Context, address string, identityKey []byte) (bool, error) {
	if address == "" {
		return false, fmt.Errorf("%w: empty address", domain.ErrInvalidKey)
	}
	name := address
	if addr, err := domain.ParseAddress(address); err == nil {
		name = addr.Name
	}

	existing, had, err := s.LoadIdentityKey(ctx, name)
	if err != nil {
		return false, err
	}
	if err := s.Set(ctx, prefixTrust+name, domain.Bytes(identityKey)); err != nil {
		return false, err
	}
	if !had {
		return false, nil
	}
	same, err := convert.Equal(identityKey, existing)
	if err != nil {
		return false, err
	}
	if !same {
		s.log.Warn("remote identity key changed", "remote", name)
	}
	return !same, nil
}

// LoadPreKey returns the one-time pre-key with id.
func (s *Store) LoadPreKey(ctx context.Context, id domain.KeyID) (domain.KeyPair, bool, error) {
	var kp domain.KeyPair
	ok, err := s.Get(ctx, preKeyKey(id), &kp)
	return kp, ok, err
}

// StorePreKey stores pair as the one-time pre-key id.
func (s *Store) StorePreKey(ctx context.Context, id domain.KeyID, pair domain.KeyPair) error {
	return s.Set(ctx, preKeyKey(id), pair)
}

// RemovePreKey deletes the one-time pre-key id.
func (s *Store) RemovePreKey(ctx context.Context, id domain.KeyID) error {
	return s.Remove(ctx, preKeyKey(id))
}

// LoadSignedPreKey returns the signed pre-key with id.
func (s *Store) LoadSignedPreKey(ctx context.Context, id domain.KeyID) (domain.SignedPreKeyRecord, bool, error) {
	var rec domain.SignedPreKeyRecord
	ok, err := s.Get(ctx, signedPreKeyKey(id), &rec)
	return rec, ok, err
}

// StoreSignedPreKey stores rec as the signed pre-key id.
func (s *Store) StoreSignedPreKey(ctx context.Context, id domain.KeyID, rec domain.SignedPreKeyRecord) error {
	return s.Set(ctx, signedPreKeyKey(id), rec)
}

// RemoveSignedPreKey deletes the signed pre-key id.
func (s *Store) RemoveSignedPreKey(ctx context.Context, id domain.KeyID) error {
	return s.Remove(ctx, signedPreKeyKey(id))
}

// LoadSession returns the session record of addr.
func (s *Store) LoadSession(ctx context.Context, addr domain.Address) (domain.SessionRecord, bool, error) {
	var rec domain.SessionRecord
	ok, err := s.Get(ctx, sessionKey(addr), &rec)
	return rec, ok, err
}

// StoreSession stores the session record of addr.
func (s *Store) StoreSession(ctx context.Context, addr domain.Address, rec domain.SessionRecord) error {
	if addr.Name == "" {
		return fmt.Errorf("%w: empty session address", domain.ErrInvalidKey)
	}
	return s.Set(ctx, sessionKey(addr), rec)
}

// RemoveSession deletes the session record of addr.
func (s *Store) RemoveSession(ctx context.Context, addr domain.Address) error {
	return s.Remove(ctx, sessionKey(addr))
}

// RemoveAllSessions deletes every session record of name, on any device.
func (s *Store) RemoveAllSessions(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty remote identity", domain.ErrInvalidKey)
	}
	n, err := s.ns.RemovePrefix(ctx, prefixSession+name+":")
	if err != nil {
		return err
	}
	bare := prefixSession + name
	if _, ok, err := s.ns.Get(ctx, bare); err != nil {
		return err
	} else if ok {
		if err := s.ns.Remove(ctx, bare); err != nil {
			return err
		}
		n++
	}
	s.log.Debug("removed sessions", "remote", name, "count", n)
	return nil
}

// StoreSessionCipher caches the session-cipher address used for remote.
func (s *Store) StoreSessionCipher(ctx context.Context, remote string, addr domain.Address) error {
	if remote == "" {
		return fmt.Errorf("%w: empty remote identity", domain.ErrInvalidKey)
	}
	return s.Set(ctx, prefixCipher+remote, domain.CipherAddress{Addr: addr})
}

// LoadSessionCipherAddress returns the cached session-cipher address for remote.
func (s *Store) LoadSessionCipherAddress(ctx context.Context, remote string) (domain.Address, bool, error) {
	if remote == "" {
		return domain.Address{}, false, fmt.Errorf("%w: empty remote identity", domain.ErrInvalidKey)
	}
	var c domain.CipherAddress
	ok, err := s.Get(ctx, prefixCipher+remote, &c)
	return c.Addr, ok, err
}

// RemoveSessionCipher drops the cached session-cipher address of remote.
func (s *Store) RemoveSessionCipher(ctx context.Context, remote string) error {
	if remote == "" {
		return fmt.Errorf("%w: empty remote identity", domain.ErrInvalidKey)
	}
	key := prefixCipher + remote
	if _, ok, err := s.ns.Get(ctx, key); err != nil || !ok {
		return err
	}
	return s.ns.Remove(ctx, key)
}

func preKeyKey(id domain.KeyID) string {
	return prefixPreKey + strconv.FormatUint(uint64(id), 10)
}

func signedPreKeyKey(id domain.KeyID) string {
	return prefixSignedPreKey + strconv.FormatUint(uint64(id), 10)
}

func sessionKey(addr domain.Address) string {
	return prefixSession + addr.String()
}

var _ domain.ProtocolStore = (*Store)(nil)
