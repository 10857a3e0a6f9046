package app

import (
	"log/slog"

	"signalstore/internal/cache"
	"signalstore/internal/protocolstore"
	"signalstore/internal/services/manager"
	"signalstore/internal/store"
)

// App holds the opened store of one identity and the services built on it.
type App struct {
	files   *store.FileStore
	cache   *cache.Proxy
	store   *protocolstore.Store
	manager *manager.Manager
	log     *slog.Logger
}

// Store returns the protocol store adapter of the identity.
func (a *App) Store() *protocolstore.Store { return a.store }

// Cache returns the cached namespace under the adapter.
func (a *App) Cache() *cache.Proxy { return a.cache }

// Files returns the underlying encrypted file store.
func (a *App) Files() *store.FileStore { return a.files }

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger { return a.log }

// Manager returns the protocol manager, or ErrNoDirectory when the app was
// opened without a directory.
func (a *App) Manager() (*manager.Manager, error) {
	if a.manager == nil {
		return nil, ErrNoDirectory
	}
	return a.manager, nil
}

// Close stops the store worker and wipes key material. Calls after the
// first return nil.
func (a *App) Close() error {
	return a.files.Close()
}
