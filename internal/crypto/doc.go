// Package crypto generates the key material a local identity publishes.
//
// Contents
//
//   - X25519 key generation with RFC 7748 clamping (GenerateX25519)
//   - Ed25519 key generation, signing and verification (GenerateEd25519,
//     SignEd25519, VerifyEd25519)
//   - identity, pre-key and signed pre-key construction (NewIdentity,
//     NewPreKey, NewSignedPreKey, VerifyBundle)
//   - registration ids (NewRegistrationID)
//   - short public-key fingerprints for display (Fingerprint)
//
// Private keys are returned in domain types; callers persist them through
// the protocol store and never log them.
package crypto
