package message

import (
	"context"
	"errors"
	"fmt"

	"signalstore/internal/domain"
	"signalstore/internal/services/session"
)

// ErrUnknownMessageType is returned for cipher messages the engine does not
// produce.
var ErrUnknownMessageType = errors.New("unknown cipher message type")

// Service encrypts and decrypts messages for one local identity.
type Service struct {
	store    domain.ProtocolStore
	engine   domain.SessionEngine
	sessions *session.Service
}

// New constructs a message service.
func New(store domain.ProtocolStore, engine domain.SessionEngine, sessions *session.Service) *Service {
	return &Service{store: store, engine: engine, sessions: sessions}
}

// Encrypt encrypts plaintext for remote, building a session first if needed.
func (s *Service) Encrypt(ctx context.Context, remote string, plaintext []byte) (domain.CipherMessage, error) {
	addr, err := s.sessions.Ensure(ctx, remote)
	if err != nil {
		return domain.CipherMessage{}, err
	}
	msg, err := s.engine.Encrypt(ctx, s.store, addr, plaintext)
	if err != nil {
		return domain.CipherMessage{}, fmt.Errorf("encrypt for %q: %w", remote, err)
	}
	return msg, nil
}

// Decrypt decrypts a message from remote. A PreKeyWhisperMessage may open a
// new incoming session.
func (s *Service) Decrypt(ctx context.Context, remote string, msg domain.CipherMessage) ([]byte, error) {
	if msg.Type != domain.WhisperMessage && msg.Type != domain.PreKeyWhisperMessage {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMessageType, msg.Type)
	}
	addr, err := s.sessions.Accept(ctx, remote)
	if err != nil {
		return nil, err
	}
	pt, err := s.engine.Decrypt(ctx, s.store, addr, msg)
	if err != nil {
		return nil, fmt.Errorf("decrypt from %q: %w", remote, err)
	}
	return pt, nil
}
