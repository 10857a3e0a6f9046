package types

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"signalstore/internal/convert"
)

// X25519Public is a Curve25519 public key.
type X25519Public [32]byte

// Slice returns the key as a []byte.
func (p X25519Public) Slice() []byte { return p[:] }

// X25519Private is a Curve25519 private key.
type X25519Private [32]byte

// Slice returns the key as a []byte.
func (k X25519Private) Slice() []byte { return k[:] }

// Ed25519Public is an Ed25519 signing public key.
type Ed25519Public [32]byte

// Slice returns the key as a []byte.
func (p Ed25519Public) Slice() []byte { return p[:] }

// Ed25519Private is an Ed25519 signing private key.
type Ed25519Private [64]byte

// Slice returns the key as a []byte.
func (k Ed25519Private) Slice() []byte { return k[:] }

// Bytes is key material as stored in records.
//
// It marshals as a base64 string. On unmarshal it also accepts a plain array
// of byte values and the {"type":"Buffer","data":[...]} object written by
// older stores.
type Bytes []byte

// MarshalJSON encodes b as a base64 string.
func (b Bytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(base64.StdEncoding.EncodeToString(b))
}

// UnmarshalJSON mirrors MarshalJSON and accepts legacy buffer shapes.
func (b *Bytes) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*b = nil
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return fmt.Errorf("bytes: %w", err)
		}
		*b = raw
		return nil
	case '[':
		var values []int
		if err := json.Unmarshal(data, &values); err != nil {
			return err
		}
		return b.fromValues(values)
	case '{':
		var buf struct {
			Type string `json:"type"`
			Data []int  `json:"data"`
		}
		if err := json.Unmarshal(data, &buf); err != nil {
			return err
		}
		if buf.Type != "Buffer" {
			return fmt.Errorf("bytes: unsupported object type %q", buf.Type)
		}
		return b.fromValues(buf.Data)
	default:
		return fmt.Errorf("bytes: unsupported encoding %q", data)
	}
}

func (b *Bytes) fromValues(values []int) error {
	out, err := convert.FromByteValues(values)
	if err != nil {
		return err
	}
	*b = out
	return nil
}

// KeyPair is a Curve25519 key pair as stored in records.
type KeyPair struct {
	PubKey  Bytes `json:"pubKey"`
	PrivKey Bytes `json:"privKey"`
}
