package prekey

import (
	"context"
	"fmt"

	"signalstore/internal/crypto"
	"signalstore/internal/domain"
)

// Service manages pre-key pairs and builds the public bundle.
type Service struct {
	store          domain.ProtocolStore
	preKeyID       domain.KeyID
	signedPreKeyID domain.KeyID
}

// New returns a service that issues pre-key preKeyID and signed pre-key
// signedPreKeyID.
func New(store domain.ProtocolStore, preKeyID, signedPreKeyID domain.KeyID) *Service {
	return &Service{store: store, preKeyID: preKeyID, signedPreKeyID: signedPreKeyID}
}

// GenerateBundle creates a fresh one-time pre-key and signed pre-key, stores
// both pairs and returns the bundle to publish. The identity and
// registration id must already be stored.
func (s *Service) GenerateBundle(ctx context.Context) (domain.PreKeyBundle, error) {
	id, ok, err := s.store.GetIdentityKeyPair(ctx)
	if err != nil {
		return domain.PreKeyBundle{}, err
	}
	if !ok {
		return domain.PreKeyBundle{}, domain.ErrNotInitialized
	}
	reg, ok, err := s.store.GetLocalRegistrationID(ctx)
	if err != nil {
		return domain.PreKeyBundle{}, err
	}
	if !ok {
		return domain.PreKeyBundle{}, fmt.Errorf("%w: no registration id", domain.ErrNotInitialized)
	}

	pre, err := crypto.NewPreKey(s.preKeyID)
	if err != nil {
		return domain.PreKeyBundle{}, err
	}
	signed, err := crypto.NewSignedPreKey(id, s.signedPreKeyID)
	if err != nil {
		return domain.PreKeyBundle{}, err
	}

	if err := s.store.StorePreKey(ctx, pre.KeyID, pre.KeyPair); err != nil {
		return domain.PreKeyBundle{}, err
	}
	rec := domain.SignedPreKeyRecord{
		PubKey:    signed.KeyPair.PubKey,
		PrivKey:   signed.KeyPair.PrivKey,
		Signature: signed.Signature,
	}
	if err := s.store.StoreSignedPreKey(ctx, signed.KeyID, rec); err != nil {
		return domain.PreKeyBundle{}, err
	}
	return crypto.NewBundle(id, reg, pre, signed), nil
}
