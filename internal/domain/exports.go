package domain

import (
	interfaces "signalstore/internal/domain/interfaces"
	types "signalstore/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	UserID             = types.UserID
	Fingerprint        = types.Fingerprint
	KeyID              = types.KeyID
	RegistrationID     = types.RegistrationID
	Bytes              = types.Bytes
	KeyPair            = types.KeyPair
	IdentityKeyPair    = types.IdentityKeyPair
	PreKey             = types.PreKey
	SignedPreKey       = types.SignedPreKey
	SignedPreKeyRecord = types.SignedPreKeyRecord
	BundlePreKey       = types.BundlePreKey
	BundleSignedPreKey = types.BundleSignedPreKey
	PreKeyBundle       = types.PreKeyBundle
	Address            = types.Address
	SessionRecord      = types.SessionRecord
	CipherAddress      = types.CipherAddress
	SessionState       = types.SessionState
	CipherMessage      = types.CipherMessage
	X25519Public       = types.X25519Public
	X25519Private      = types.X25519Private
	Ed25519Public      = types.Ed25519Public
	Ed25519Private     = types.Ed25519Private
)

// Session states and message types re-exported from the types subpackage.
const (
	NoSession          = types.NoSession
	SessionPending     = types.SessionPending
	SessionEstablished = types.SessionEstablished

	WhisperMessage       = types.WhisperMessage
	PreKeyWhisperMessage = types.PreKeyWhisperMessage
)

// ParseAddress parses the String form of an Address.
var ParseAddress = types.ParseAddress

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	KeyValueStore = interfaces.KeyValueStore
	ProtocolStore = interfaces.ProtocolStore
	SessionEngine = interfaces.SessionEngine
	Directory     = interfaces.Directory
)
