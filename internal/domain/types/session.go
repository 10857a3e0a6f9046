package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Address names one device of a remote user.
type Address struct {
	Name     string `json:"id"`
	DeviceID uint32 `json:"deviceId"`
}

// String returns "name:deviceID".
func (a Address) String() string {
	return a.Name + ":" + strconv.FormatUint(uint64(a.DeviceID), 10)
}

// ParseAddress parses the String form of an Address.
func ParseAddress(s string) (Address, error) {
	i := strings.LastIndexByte(s, ':')
	if i <= 0 {
		return Address{}, fmt.Errorf("address %q: missing device id", s)
	}
	dev, err := strconv.ParseUint(s[i+1:], 10, 32)
	if err != nil {
		return Address{}, fmt.Errorf("address %q: %w", s, err)
	}
	return Address{Name: s[:i], DeviceID: uint32(dev)}, nil
}

// SessionRecord is the serialised session state owned by the protocol engine.
type SessionRecord []byte

// CipherAddress is the cached session-cipher address for a remote user.
type CipherAddress struct {
	Addr Address `json:"addr"`
}

// SessionState tracks whether an outgoing session exists for a remote user.
type SessionState int

const (
	// NoSession means no session has been built yet.
	NoSession SessionState = iota
	// SessionPending means a build is in flight.
	SessionPending
	// SessionEstablished means a cipher address is cached.
	SessionEstablished
)

// String returns a lower-case name for the state.
func (s SessionState) String() string {
	switch s {
	case NoSession:
		return "no_session"
	case SessionPending:
		return "pending"
	case SessionEstablished:
		return "established"
	default:
		return "unknown"
	}
}

// Message types produced by the protocol engine.
const (
	WhisperMessage       = 1
	PreKeyWhisperMessage = 3
)

// CipherMessage is an encrypted message produced by the protocol engine.
type CipherMessage struct {
	Type int    `json:"type"`
	Body []byte `json:"body"`
}
