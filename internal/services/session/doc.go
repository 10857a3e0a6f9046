// Package session tracks outgoing sessions per remote user.
//
// A remote moves from NoSession to Pending while its bundle is fetched and
// the engine builds the session, then to Established once the session-cipher
// address is cached. Callers that arrive while a build is Pending wait for
// it instead of starting another.
package session
