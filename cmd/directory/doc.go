// Command directory runs the in-memory pre-key directory used by signalstore
// during development and tests.
//
// HTTP API
//
//	GET /exists/{id}
//	    {"exists": true|false} depending on whether {id} published a bundle.
//
//	POST /bundles/{id}
//	    Store the PreKeyBundle in the body as the latest bundle of {id}.
//	    Answers 204; 400 for a malformed bundle.
//
//	GET /bundles/{id}
//	    Return the latest bundle of {id}, or 404.
//
//	GET /metrics
//	    Prometheus metrics of the process.
//
// Behaviour
//
//   - All state is held in memory and lost on process exit.
//   - Every request gets an X-Request-Id and one access log line.
//   - A token bucket (--rate, --burst) answers 429 with Retry-After when
//     clients exceed it.
//   - The default listen address is :8080.
//
// The directory only ever sees public keys.
package main
