package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthentication is returned when the password does not match the
	// stored credential hash. The store is not opened.
	ErrAuthentication = errors.New("authentication failed")

	// ErrInvalidKey is returned when an empty key or a nil value is passed
	// to a store operation. The store remains usable.
	ErrInvalidKey = errors.New("invalid key or value")

	// ErrDecryption is returned for malformed, truncated or foreign envelopes.
	ErrDecryption = errors.New("decryption failed")

	// ErrPersistence matches every *PersistenceError.
	ErrPersistence = errors.New("persistence failure")

	// ErrRemoteUnavailable matches every *RemoteUnavailableError.
	ErrRemoteUnavailable = errors.New("remote directory unavailable")

	// ErrNoPreKeyBundle is returned when the directory has no bundle for a
	// remote user, so no outgoing session can be built.
	ErrNoPreKeyBundle = errors.New("no pre-key bundle for remote user")

	// ErrNotInitialized is returned when the local identity has not been
	// generated yet.
	ErrNotInitialized = errors.New("local identity not initialized")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store closed")
)

// PersistenceError reports a failed read or write of a store file.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

// RemoteUnavailableError reports that the directory could not be reached or
// answered with a server error. Callers may retry with backoff.
type RemoteUnavailableError struct {
	Op  string
	Err error
}

func (e *RemoteUnavailableError) Error() string {
	return fmt.Sprintf("directory %s: %v", e.Op, e.Err)
}

func (e *RemoteUnavailableError) Unwrap() []error { return []error{ErrRemoteUnavailable, e.Err} }
