// Package directory provides implementations of domain.Directory, the
// remote service that publishes and looks up pre-key bundles.
//
// HTTP talks to a directory server over JSON:
//
//	GET  /exists/{id}   {"exists": bool}
//	POST /bundles/{id}  store the caller's PreKeyBundle
//	GET  /bundles/{id}  the latest PreKeyBundle, or 404
//
// Transport failures and 5xx answers are returned as
// *domain.RemoteUnavailableError so callers can retry them. A 404 on fetch
// means the identity has not published a bundle.
//
// Memory is an in-process directory, and Handler serves any domain.Directory
// over the same HTTP API.
package directory
