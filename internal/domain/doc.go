// Package domain defines core data models, errors and interfaces shared across
// the store, cache, adapter and protocol manager.
// It contains plain types (records/wire) and contracts (interfaces) only.
package domain
