package session

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"signalstore/internal/crypto"
	"signalstore/internal/domain"
	"signalstore/internal/retry"
)

// ErrBadSignature is returned when a fetched bundle's signed pre-key does not
// verify against its signing key.
var ErrBadSignature = errors.New("pre-key bundle signature does not verify")

type build struct {
	state domain.SessionState
	done  chan struct{}
	addr  domain.Address
	err   error
}

// Service builds and caches sessions with remote users.
type Service struct {
	store    domain.ProtocolStore
	dir      domain.Directory
	engine   domain.SessionEngine
	policy   retry.Policy
	deviceID uint32
	log      *slog.Logger

	mu     sync.Mutex
	builds map[string]*build
}

// New returns a session service. Addresses it creates use deviceID.
func New(
	store domain.ProtocolStore,
	dir domain.Directory,
	engine domain.SessionEngine,
	policy retry.Policy,
	deviceID uint32,
	log *slog.Logger,
) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:    store,
		dir:      dir,
		engine:   engine,
		policy:   policy,
		deviceID: deviceID,
		log:      log.With("component", "session"),
		builds:   make(map[string]*build),
	}
}

// Address returns the protocol address used for remote.
func (s *Service) Address(remote string) domain.Address {
	return domain.Address{
		Name:     base64.StdEncoding.EncodeToString([]byte(remote)),
		DeviceID: s.deviceID,
	}
}

// State returns the session state of remote.
func (s *Service) State(ctx context.Context, remote string) (domain.SessionState, error) {
	s.mu.Lock()
	b, ok := s.builds[remote]
	var state domain.SessionState
	if ok {
		state = b.state
	}
	s.mu.Unlock()
	if ok {
		return state, nil
	}
	_, cached, err := s.store.LoadSessionCipherAddress(ctx, remote)
	if err != nil {
		return domain.NoSession, err
	}
	if cached {
		return domain.SessionEstablished, nil
	}
	return domain.NoSession, nil
}

// Ensure returns the address of an established session with remote,
// building one from the directory bundle when none exists.
func (s *Service) Ensure(ctx context.Context, remote string) (domain.Address, error) {
	if remote == "" {
		return domain.Address{}, fmt.Errorf("%w: empty remote identity", domain.ErrInvalidKey)
	}

	s.mu.Lock()
	if b, ok := s.builds[remote]; ok {
		s.mu.Unlock()
		select {
		case <-b.done:
			return b.addr, b.err
		case <-ctx.Done():
			return domain.Address{}, ctx.Err()
		}
	}
	b := &build{state: domain.SessionPending, done: make(chan struct{})}
	s.builds[remote] = b
	s.mu.Unlock()

	addr, err := s.establish(ctx, remote)

	s.mu.Lock()
	b.addr, b.err = addr, err
	if err != nil {
		delete(s.builds, remote)
	} else {
		b.state = domain.SessionEstablished
	}
	close(b.done)
	s.mu.Unlock()
	return addr, err
}

// Accept returns the address used to decrypt messages from remote, caching a
// fresh one when the remote opened the session.
func (s *Service) Accept(ctx context.Context, remote string) (domain.Address, error) {
	if remote == "" {
		return domain.Address{}, fmt.Errorf("%w: empty remote identity", domain.ErrInvalidKey)
	}
	addr, ok, err := s.store.LoadSessionCipherAddress(ctx, remote)
	if err != nil {
		return domain.Address{}, err
	}
	if !ok {
		addr = s.Address(remote)
		if err := s.store.StoreSessionCipher(ctx, remote, addr); err != nil {
			return domain.Address{}, err
		}
		s.log.Debug("accepted incoming session", "remote", remote)
	}
	s.markEstablished(remote, addr)
	return addr, nil
}

// Forget drops every session with remote, locally and in the store.
func (s *Service) Forget(ctx context.Context, remote string) error {
	s.mu.Lock()
	if b, ok := s.builds[remote]; ok && b.state == domain.SessionEstablished {
		delete(s.builds, remote)
	}
	s.mu.Unlock()

	if err := s.store.RemoveAllSessions(ctx, s.Address(remote).Name); err != nil {
		return err
	}
	return s.store.RemoveSessionCipher(ctx, remote)
}

func (s *Service) establish(ctx context.Context, remote string) (domain.Address, error) {
	if addr, ok, err := s.store.LoadSessionCipherAddress(ctx, remote); err != nil {
		return domain.Address{}, err
	} else if ok {
		return addr, nil
	}

	var bundle domain.PreKeyBundle
	err := retry.Do(ctx, s.policy, isUnavailable, func(ctx context.Context) error {
		b, found, err := s.dir.Fetch(ctx, domain.UserID(remote))
		if err != nil {
			return err
		}
		if !found {
			return domain.ErrNoPreKeyBundle
		}
		bundle = b
		return nil
	})
	if err != nil {
		return domain.Address{}, fmt.Errorf("fetch bundle of %q: %w", remote, err)
	}
	if len(bundle.SigningKey) > 0 && !crypto.VerifyBundle(bundle) {
		return domain.Address{}, fmt.Errorf("bundle of %q: %w", remote, ErrBadSignature)
	}

	addr := s.Address(remote)
	if err := s.engine.InitOutgoing(ctx, s.store, addr, bundle); err != nil {
		return domain.Address{}, fmt.Errorf("init session with %q: %w", remote, err)
	}
	if err := s.store.StoreSessionCipher(ctx, remote, addr); err != nil {
		return domain.Address{}, err
	}
	s.log.Info("established session", "remote", remote, "address", addr.String())
	return addr, nil
}

func (s *Service) markEstablished(remote string, addr domain.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.builds[remote]; ok {
		return
	}
	done := make(chan struct{})
	close(done)
	s.builds[remote] = &build{state: domain.SessionEstablished, done: done, addr: addr}
}

func isUnavailable(err error) bool { return errors.Is(err, domain.ErrRemoteUnavailable) }
