// Package prekey generates the one-time and signed pre-keys of the local
// identity, stores their private halves and builds the public bundle.
package prekey
