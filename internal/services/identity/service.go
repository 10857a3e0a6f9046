package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"signalstore/internal/crypto"
	"signalstore/internal/domain"
	"signalstore/internal/retry"
	"signalstore/internal/services/prekey"
)

// ErrPublishRejected is returned when the directory refuses the bundle.
var ErrPublishRejected = errors.New("directory rejected pre-key bundle")

// Service manages the local identity of one user.
type Service struct {
	user    domain.UserID
	store   domain.ProtocolStore
	dir     domain.Directory
	prekeys *prekey.Service
	policy  retry.Policy
	log     *slog.Logger
}

// New returns an identity service for user.
func New(
	user domain.UserID,
	store domain.ProtocolStore,
	dir domain.Directory,
	prekeys *prekey.Service,
	policy retry.Policy,
	log *slog.Logger,
) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		user:    user,
		store:   store,
		dir:     dir,
		prekeys: prekeys,
		policy:  policy,
		log:     log.With("component", "identity", "user", string(user)),
	}
}

// Initialize makes sure the user exists both locally and on the directory.
// If either side is missing, a new identity, registration id and pre-key
// bundle are generated, stored and published. It reports whether that
// happened.
func (s *Service) Initialize(ctx context.Context) (bool, error) {
	var onDirectory bool
	err := retry.Do(ctx, s.policy, isUnavailable, func(ctx context.Context) error {
		var err error
		onDirectory, err = s.dir.Exists(ctx, s.user)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("check directory: %w", err)
	}
	_, onClient, err := s.store.GetIdentityKeyPair(ctx)
	if err != nil {
		return false, err
	}
	if onDirectory && onClient {
		s.log.Debug("identity already registered")
		return false, nil
	}
	if onClient {
		s.log.Warn("identity missing from directory, regenerating")
	}

	id, err := crypto.NewIdentity()
	if err != nil {
		return false, err
	}
	reg, err := crypto.NewRegistrationID()
	if err != nil {
		return false, err
	}
	if err := s.store.PutIdentityKeyPair(ctx, id); err != nil {
		return false, err
	}
	if err := s.store.PutLocalRegistrationID(ctx, reg); err != nil {
		return false, err
	}

	bundle, err := s.prekeys.GenerateBundle(ctx)
	if err != nil {
		return false, err
	}

	var accepted bool
	err = retry.Do(ctx, s.policy, isUnavailable, func(ctx context.Context) error {
		var err error
		accepted, err = s.dir.Publish(ctx, s.user, bundle)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("publish bundle: %w", err)
	}
	if !accepted {
		return false, ErrPublishRejected
	}

	s.log.Info("registered identity",
		"registration_id", reg,
		"fingerprint", crypto.Fingerprint(id.PubKey).String(),
	)
	return true, nil
}

// Fingerprint returns a short fingerprint of the local identity public key.
func (s *Service) Fingerprint(ctx context.Context) (domain.Fingerprint, error) {
	id, ok, err := s.store.GetIdentityKeyPair(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", domain.ErrNotInitialized
	}
	return crypto.Fingerprint(id.PubKey), nil
}

func isUnavailable(err error) bool { return errors.Is(err, domain.ErrRemoteUnavailable) }
