// Package message encrypts and decrypts messages through the protocol engine,
// making sure a session exists first.
package message
