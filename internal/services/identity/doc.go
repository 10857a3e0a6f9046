// Package identity creates the local identity and registers it with the
// directory.
//
// The identity is an X25519 agreement pair plus an Ed25519 signing pair,
// stored with a random registration id through the protocol store.
package identity
