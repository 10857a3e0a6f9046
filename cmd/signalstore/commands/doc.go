// Package commands defines the signalstore CLI.
//
// Commands
//
//   - get <key>             Print the JSON value stored under key
//   - set <key> <json>      Store a JSON value under key
//   - rm <key>              Remove key
//   - keys                  List every key of the identity
//   - rm-sessions <remote>  Remove every session with a remote user
//   - init                  Generate and publish the identity if needed
//   - fingerprint           Print the identity fingerprint
//
// # Implementation
//
// The root command loads configuration (defaults, --config YAML file,
// SIGNALSTORE_* environment, then flags), opens the encrypted store of the
// selected identity before a subcommand runs and closes it afterwards.
package commands
