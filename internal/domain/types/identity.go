package types

// IdentityKeyPair is the long-term identity of the local user.
//
// PubKey/PrivKey are the X25519 pair used for key agreement; the signing
// pair signs the signed pre-key. Stores written without a signing pair leave
// those fields empty.
type IdentityKeyPair struct {
	PubKey         Bytes `json:"pubKey"`
	PrivKey        Bytes `json:"privKey"`
	SigningPubKey  Bytes `json:"signingPubKey,omitempty"`
	SigningPrivKey Bytes `json:"signingPrivKey,omitempty"`
}

// KeyPair returns the key agreement half of the identity.
func (id IdentityKeyPair) KeyPair() KeyPair {
	return KeyPair{PubKey: id.PubKey, PrivKey: id.PrivKey}
}
