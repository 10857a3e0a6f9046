// Package app wires the signalstore dependency graph for the CLI.
//
// Open builds, from a config.Config, the logger, the metrics, the encrypted
// file store of one identity, its cache proxy, the protocol store adapter
// and, when a directory is configured, the protocol manager. Close stops the
// store worker and wipes the key material held in memory.
package app
