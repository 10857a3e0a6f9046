// Package store provides the encrypted, password-gated file store.
//
// Each identity owns three files under the store root, named after the
// base64url form of the identity:
//   - <base>.key holds "key:hash", the current symmetric key and the bcrypt
//     hash of the password
//   - <base>.db holds the whole namespace as one encrypted envelope
//   - <base>.key.prev exists only while a key rotation is in flight
//
// FileStore serialises every operation through a single worker, so the
// last write always wins and a read never observes a half-written file.
package store
