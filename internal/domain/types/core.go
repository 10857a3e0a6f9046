package types

// UserID identifies a local or remote user of the protocol.
type UserID string

// String returns the string form of the user id.
func (u UserID) String() string { return string(u) }

// Fingerprint is a short identifier for public keys presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }

// KeyID identifies a one-time or signed pre-key.
type KeyID uint32

// RegistrationID is the protocol registration id of a local install.
type RegistrationID uint32
