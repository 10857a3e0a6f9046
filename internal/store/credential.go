package store

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"signalstore/internal/domain"
	"signalstore/internal/util/memzero"
)

const (
	keyFileExt     = ".key"
	dataFileExt    = ".db"
	journalFileExt = ".key.prev"

	// bcryptInputLimit is the number of input bytes bcrypt consumes.
	bcryptInputLimit = 72

	// keyBytes is the AES-256 key size.
	keyBytes = 32

	// legacyKeyLen is the length of the 32-character keys written by older
	// stores; their ASCII bytes are the AES key.
	legacyKeyLen = 32
)

var keyEncoding = base64.RawURLEncoding

// KeyMaterial is the symmetric key of a store, in its stored text form and
// as raw AES key bytes.
type KeyMaterial struct {
	text string
	raw  []byte
}

// String returns the form written to the credential file.
func (k KeyMaterial) String() string { return k.text }

// Bytes returns the AES-256 key.
func (k KeyMaterial) Bytes() []byte { return k.raw }

// IsZero reports whether k holds no key.
func (k KeyMaterial) IsZero() bool { return len(k.raw) == 0 }

// wipe zeroes the raw key bytes.
func (k KeyMaterial) wipe() { memzero.Zero(k.raw) }

// generateKey draws 32 bytes from r and encodes them as unpadded base64url,
// so the stored form never contains the bundle separator.
func generateKey(r io.Reader) (KeyMaterial, error) {
	raw := make([]byte, keyBytes)
	if _, err := io.ReadFull(r, raw); err != nil {
		return KeyMaterial{}, fmt.Errorf("generate key: %w", err)
	}
	return KeyMaterial{text: keyEncoding.EncodeToString(raw), raw: raw}, nil
}

// parseKey accepts generated keys and legacy 32-character keys.
func parseKey(s string) (KeyMaterial, error) {
	if len(s) == legacyKeyLen {
		return KeyMaterial{text: s, raw: []byte(s)}, nil
	}
	raw, err := keyEncoding.DecodeString(s)
	if err != nil {
		return KeyMaterial{}, fmt.Errorf("decode key: %w", err)
	}
	if len(raw) != keyBytes {
		return KeyMaterial{}, fmt.Errorf("key: want %d bytes, got %d", keyBytes, len(raw))
	}
	return KeyMaterial{text: s, raw: raw}, nil
}

// Credentials is the credential bundle of one identity: the current
// symmetric key and the immutable password hash, kept in <base>.key as
// "key:hash".
type Credentials struct {
	path    string
	hash    string
	key     KeyMaterial
	created bool
}

// OpenCredentials authenticates password for identity against the bundle
// under root, creating the bundle when none exists. A mismatch returns
// domain.ErrAuthentication and leaves the disk untouched.
func OpenCredentials(root, identity, password string, cost int, rand io.Reader) (*Credentials, error) {
	path := basePath(root, identity) + keyFileExt
	secret := hashInput(password, identity)

	b, err := readFile(path)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "read credentials", Path: path, Err: err}
	}
	if b == nil {
		return createCredentials(path, secret, cost, rand)
	}

	key, hash, err := parseBundle(strings.TrimRight(string(b), "\r\n"))
	if err != nil {
		return nil, fmt.Errorf("credential file %s: %w", path, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), secret); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, domain.ErrAuthentication
		}
		return nil, fmt.Errorf("%w: credential hash: %v", domain.ErrAuthentication, err)
	}
	return &Credentials{path: path, hash: hash, key: key}, nil
}

func createCredentials(path string, secret []byte, cost int, rand io.Reader) (*Credentials, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword(secret, cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	key, err := generateKey(rand)
	if err != nil {
		return nil, err
	}
	c := &Credentials{path: path, hash: string(hash), key: key, created: true}
	if err := writeFile(path, c.bundle(key), 0o600); err != nil {
		return nil, &domain.PersistenceError{Op: "write credentials", Path: path, Err: err}
	}
	return c, nil
}

// Key returns the current symmetric key.
func (c *Credentials) Key() KeyMaterial { return c.key }

// Created reports whether this open generated a fresh bundle.
func (c *Credentials) Created() bool { return c.created }

// Path returns the credential file path.
func (c *Credentials) Path() string { return c.path }

// rotate journals the current bundle, then persists next as the current key.
// It returns the replaced key.
func (c *Credentials) rotate(next KeyMaterial) (KeyMaterial, error) {
	prev := c.key
	if err := writeFile(c.journalPath(), c.bundle(prev), 0o600); err != nil {
		return KeyMaterial{}, &domain.PersistenceError{Op: "journal key rotation", Path: c.journalPath(), Err: err}
	}
	if err := c.replaceKey(next); err != nil {
		_ = os.Remove(c.journalPath())
		return KeyMaterial{}, err
	}
	return prev, nil
}

// restoreKey makes k current again after a rotation. The in-memory key is
// restored even when the bundle rewrite fails; the journal still holds k on
// disk, so the next open recovers it.
func (c *Credentials) restoreKey(k KeyMaterial) error {
	err := writeFile(c.path, c.bundle(k), 0o600)
	c.key = k
	if err != nil {
		return &domain.PersistenceError{Op: "restore credentials", Path: c.path, Err: err}
	}
	return nil
}

// replaceKey rewrites the bundle with k and the unchanged hash.
func (c *Credentials) replaceKey(k KeyMaterial) error {
	if err := writeFile(c.path, c.bundle(k), 0o600); err != nil {
		return &domain.PersistenceError{Op: "write credentials", Path: c.path, Err: err}
	}
	c.key = k
	return nil
}

// finishRotation drops the rotation journal.
func (c *Credentials) finishRotation() error {
	if err := os.Remove(c.journalPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &domain.PersistenceError{Op: "remove rotation journal", Path: c.journalPath(), Err: err}
	}
	return nil
}

// journalKey returns the key recorded by an interrupted rotation, if any.
func (c *Credentials) journalKey() (KeyMaterial, bool, error) {
	b, err := readFile(c.journalPath())
	if err != nil {
		return KeyMaterial{}, false, &domain.PersistenceError{Op: "read rotation journal", Path: c.journalPath(), Err: err}
	}
	if b == nil {
		return KeyMaterial{}, false, nil
	}
	key, _, err := parseBundle(string(b))
	if err != nil {
		return KeyMaterial{}, false, fmt.Errorf("rotation journal %s: %w", c.journalPath(), err)
	}
	return key, true, nil
}

func (c *Credentials) journalPath() string {
	return strings.TrimSuffix(c.path, keyFileExt) + journalFileExt
}

func (c *Credentials) bundle(k KeyMaterial) []byte {
	return []byte(k.String() + ":" + c.hash)
}

// wipe zeroes the in-memory key.
func (c *Credentials) wipe() { c.key.wipe() }

// parseBundle splits "key:hash". The hash keeps any further colons.
func parseBundle(s string) (KeyMaterial, string, error) {
	keyText, hash, ok := strings.Cut(s, ":")
	if !ok || hash == "" {
		return KeyMaterial{}, "", errors.New("malformed credential bundle")
	}
	key, err := parseKey(keyText)
	if err != nil {
		return KeyMaterial{}, "", err
	}
	return key, hash, nil
}

// hashInput is password + base64(identity), truncated to what bcrypt reads.
func hashInput(password, identity string) []byte {
	b := []byte(password + base64.StdEncoding.EncodeToString([]byte(identity)))
	if len(b) > bcryptInputLimit {
		b = b[:bcryptInputLimit]
	}
	return b
}
