package app

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"signalstore/internal/domain"
)

// Options carries collaborators that do not come from configuration.
type Options struct {
	// Password unlocks the credential bundle of the configured identity.
	Password string

	Logger     *slog.Logger          // optional; built from cfg.Log when nil
	Registerer prometheus.Registerer // optional; metrics stay unregistered when nil
	HTTPClient *http.Client          // optional; used by the directory client

	// Directory overrides the HTTP directory client built from
	// cfg.Directory.URL.
	Directory domain.Directory
	// Engine is the protocol engine. Encrypt and Decrypt fail with
	// ErrNoEngine when it is nil.
	Engine domain.SessionEngine
}
