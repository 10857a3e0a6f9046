package types

// PreKey is a one-time pre-key held locally.
type PreKey struct {
	KeyID   KeyID   `json:"keyId"`
	KeyPair KeyPair `json:"keyPair"`
}

// SignedPreKey is a medium-term pre-key signed by the identity signing key.
type SignedPreKey struct {
	KeyID     KeyID   `json:"keyId"`
	KeyPair   KeyPair `json:"keyPair"`
	Signature Bytes   `json:"signature"`
}

// SignedPreKeyRecord is what the store keeps for a signed pre-key.
type SignedPreKeyRecord struct {
	PubKey    Bytes `json:"pubKey"`
	PrivKey   Bytes `json:"privKey"`
	Signature Bytes `json:"signature,omitempty"`
}

// BundlePreKey is the public half of a one-time pre-key in a bundle.
type BundlePreKey struct {
	KeyID     KeyID `json:"keyId"`
	PublicKey Bytes `json:"publicKey"`
}

// BundleSignedPreKey is the public half of a signed pre-key in a bundle.
type BundleSignedPreKey struct {
	KeyID     KeyID `json:"keyId"`
	PublicKey Bytes `json:"publicKey"`
	Signature Bytes `json:"signature"`
}

// PreKeyBundle is the set of public keys published to the directory.
type PreKeyBundle struct {
	IdentityKey    Bytes              `json:"identityKey"`
	SigningKey     Bytes              `json:"signingKey,omitempty"`
	RegistrationID RegistrationID     `json:"registrationId"`
	PreKey         BundlePreKey       `json:"preKey"`
	SignedPreKey   BundleSignedPreKey `json:"signedPreKey"`
}
