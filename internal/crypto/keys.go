package crypto

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"signalstore/internal/domain"
)

// MaxRegistrationID is the largest registration id NewRegistrationID draws.
const MaxRegistrationID = 16380

// NewIdentity generates an X25519 agreement pair and an Ed25519 signing pair.
func NewIdentity() (domain.IdentityKeyPair, error) {
	xPriv, xPub, err := GenerateX25519()
	if err != nil {
		return domain.IdentityKeyPair{}, fmt.Errorf("identity agreement key: %w", err)
	}
	edPriv, edPub, err := GenerateEd25519()
	if err != nil {
		return domain.IdentityKeyPair{}, fmt.Errorf("identity signing key: %w", err)
	}
	return domain.IdentityKeyPair{
		PubKey:         domain.Bytes(xPub.Slice()),
		PrivKey:        domain.Bytes(xPriv.Slice()),
		SigningPubKey:  domain.Bytes(edPub.Slice()),
		SigningPrivKey: domain.Bytes(edPriv.Slice()),
	}, nil
}

// NewRegistrationID returns a uniformly random id in [1, MaxRegistrationID].
func NewRegistrationID() (domain.RegistrationID, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(MaxRegistrationID))
	if err != nil {
		return 0, fmt.Errorf("registration id: %w", err)
	}
	return domain.RegistrationID(n.Int64() + 1), nil
}

// NewPreKey generates the one-time pre-key id.
func NewPreKey(id domain.KeyID) (domain.PreKey, error) {
	kp, err := GenerateKeyPair()
	if err != nil {
		return domain.PreKey{}, fmt.Errorf("pre-key %d: %w", id, err)
	}
	return domain.PreKey{KeyID: id, KeyPair: kp}, nil
}

// NewSignedPreKey generates pre-key id and signs its public key with the
// identity signing key.
func NewSignedPreKey(identity domain.IdentityKeyPair, id domain.KeyID) (domain.SignedPreKey, error) {
	if len(identity.SigningPrivKey) == 0 {
		return domain.SignedPreKey{}, fmt.Errorf("signed pre-key %d: identity has no signing key", id)
	}
	kp, err := GenerateKeyPair()
	if err != nil {
		return domain.SignedPreKey{}, fmt.Errorf("signed pre-key %d: %w", id, err)
	}
	return domain.SignedPreKey{
		KeyID:     id,
		KeyPair:   kp,
		Signature: domain.Bytes(SignEd25519(identity.SigningPrivKey, kp.PubKey)),
	}, nil
}

// NewBundle assembles the public bundle of a local identity.
func NewBundle(identity domain.IdentityKeyPair, reg domain.RegistrationID, pre domain.PreKey, signed domain.SignedPreKey) domain.PreKeyBundle {
	return domain.PreKeyBundle{
		IdentityKey:    identity.PubKey,
		SigningKey:     identity.SigningPubKey,
		RegistrationID: reg,
		PreKey:         domain.BundlePreKey{KeyID: pre.KeyID, PublicKey: pre.KeyPair.PubKey},
		SignedPreKey: domain.BundleSignedPreKey{
			KeyID:     signed.KeyID,
			PublicKey: signed.KeyPair.PubKey,
			Signature: signed.Signature,
		},
	}
}

// VerifyBundle checks the signed pre-key signature of b.
func VerifyBundle(b domain.PreKeyBundle) bool {
	return VerifyEd25519(b.SigningKey, b.SignedPreKey.PublicKey, b.SignedPreKey.Signature)
}
