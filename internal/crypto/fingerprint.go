package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"signalstore/internal/domain"
)

// Fingerprint returns a short hex fingerprint of a public key.
//
// It hashes with SHA-256, truncates to 10 bytes and groups the 20 hex
// characters in fours.
func Fingerprint(pub []byte) domain.Fingerprint {
	sum := sha256.Sum256(pub)
	h := hex.EncodeToString(sum[:10])
	var b strings.Builder
	for i := 0; i < len(h); i += 4 {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(h[i : i+4])
	}
	return domain.Fingerprint(b.String())
}
