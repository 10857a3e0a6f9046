package store

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zlib"

	"signalstore/internal/domain"
)

const (
	// ivSize is the AES block size; a fresh IV is drawn for every envelope.
	ivSize = aes.BlockSize

	// maxInflatedSize caps decompression of an envelope read from disk.
	maxInflatedSize = 64 << 20
)

// Codec encrypts and decrypts whole-namespace envelopes with the current
// key of a credential bundle, rotating that key on a random subset of writes.
type Codec struct {
	creds    *Credentials
	rotateP  float64
	rand     io.Reader
	onRotate func()
}

// Sealed is the result of Codec.Encrypt. When Rotated is set the credential
// file already holds the new key and the caller must finish with Commit or
// Rollback once the envelope has (or has not) reached disk.
type Sealed struct {
	Envelope string
	Rotated  bool
	prev     KeyMaterial
}

// NewCodec returns a codec bound to creds. rotateP is the probability that
// an Encrypt call re-keys first; 0 disables rotation.
func NewCodec(creds *Credentials, rotateP float64, rand io.Reader) *Codec {
	return &Codec{creds: creds, rotateP: rotateP, rand: rand}
}

// Encrypt seals plaintext into a new envelope, possibly after rotating the key.
func (c *Codec) Encrypt(plaintext []byte) (Sealed, error) {
	var out Sealed

	rotate, err := c.coin()
	if err != nil {
		return Sealed{}, err
	}
	if rotate {
		next, err := generateKey(c.rand)
		if err != nil {
			return Sealed{}, err
		}
		prev, err := c.creds.rotate(next)
		if err != nil {
			return Sealed{}, err
		}
		out.Rotated = true
		out.prev = prev
		if c.onRotate != nil {
			c.onRotate()
		}
	}

	env, err := seal(c.creds.Key().Bytes(), plaintext, c.rand)
	if err != nil {
		if out.Rotated {
			_ = c.Rollback(out)
		}
		return Sealed{}, err
	}
	out.Envelope = env
	return out, nil
}

// Commit finishes a rotation after the envelope was written.
func (c *Codec) Commit(s Sealed) error {
	if !s.Rotated {
		return nil
	}
	if err := c.creds.finishRotation(); err != nil {
		return err
	}
	s.prev.wipe()
	return nil
}

// Rollback restores the pre-rotation key after the envelope failed to reach disk.
func (c *Codec) Rollback(s Sealed) error {
	if !s.Rotated {
		return nil
	}
	if err := c.creds.restoreKey(s.prev); err != nil {
		return err
	}
	return c.creds.finishRotation()
}

// Decrypt opens env with the current key.
func (c *Codec) Decrypt(env string) ([]byte, error) {
	return open(c.creds.Key().Bytes(), env)
}

// coin reports whether this write rotates the key.
func (c *Codec) coin() (bool, error) {
	if c.rotateP <= 0 {
		return false, nil
	}
	var b [8]byte
	if _, err := io.ReadFull(c.rand, b[:]); err != nil {
		return false, fmt.Errorf("rotation coin: %w", err)
	}
	u := float64(binary.BigEndian.Uint64(b[:])>>11) / (1 << 53)
	return u < c.rotateP, nil
}

// seal produces base64(deflate(hex(iv) ":" hex(AES-256-CBC(plaintext)))).
func seal(key, plaintext []byte, rand io.Reader) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand, iv); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ct := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ct, padded)

	info := hex.EncodeToString(iv) + ":" + hex.EncodeToString(ct)

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write([]byte(info)); err != nil {
		return "", err
	}
	if err := zw.Close(); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// open reverses seal. Every malformed input maps to domain.ErrDecryption.
func open(key []byte, env string) ([]byte, error) {
	compressed, err := base64.StdEncoding.DecodeString(strings.TrimSpace(env))
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %v", domain.ErrDecryption, err)
	}
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("%w: inflate: %v", domain.ErrDecryption, err)
	}
	defer zr.Close()
	info, err := io.ReadAll(io.LimitReader(zr, maxInflatedSize))
	if err != nil {
		return nil, fmt.Errorf("%w: inflate: %v", domain.ErrDecryption, err)
	}

	ivHex, ctHex, ok := strings.Cut(string(info), ":")
	if !ok {
		return nil, fmt.Errorf("%w: missing iv separator", domain.ErrDecryption)
	}
	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != ivSize {
		return nil, fmt.Errorf("%w: bad iv", domain.ErrDecryption)
	}
	ct, err := hex.DecodeString(ctHex)
	if err != nil || len(ct) == 0 || len(ct)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: bad ciphertext", domain.ErrDecryption)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecryption, err)
	}
	pt := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(pt, ct)
	return pkcs7Unpad(pt, aes.BlockSize)
}

func pkcs7Pad(b []byte, size int) []byte {
	n := size - len(b)%size
	out := make([]byte, len(b), len(b)+n)
	copy(out, b)
	return append(out, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, size int) ([]byte, error) {
	if len(b) == 0 || len(b)%size != 0 {
		return nil, fmt.Errorf("%w: bad padding", domain.ErrDecryption)
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size {
		return nil, fmt.Errorf("%w: bad padding", domain.ErrDecryption)
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, fmt.Errorf("%w: bad padding", domain.ErrDecryption)
		}
	}
	return b[:len(b)-n], nil
}
