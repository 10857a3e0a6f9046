package app

import (
	"context"
	"errors"
	"fmt"

	"signalstore/internal/cache"
	"signalstore/internal/config"
	"signalstore/internal/directory"
	"signalstore/internal/domain"
	"signalstore/internal/logger"
	"signalstore/internal/metrics"
	"signalstore/internal/protocolstore"
	"signalstore/internal/retry"
	"signalstore/internal/services/manager"
	"signalstore/internal/store"
)

var (
	// ErrNoDirectory is returned by Manager when no directory is configured.
	ErrNoDirectory = errors.New("no directory configured")
	// ErrNoEngine is returned by manager Encrypt and Decrypt when the app was opened
	// without a protocol engine.
	ErrNoEngine = errors.New("no protocol engine configured")
)

// Open authenticates the configured identity and builds the dependency
// graph around its store.
func Open(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	if cfg.Identity == "" {
		return nil, fmt.Errorf("%w: no identity configured", domain.ErrInvalidKey)
	}

	log := opts.Logger
	if log == nil {
		log = logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	}

	fs, err := store.Open(ctx, store.Options{
		Root:                cfg.Store.Root,
		Identity:            cfg.Identity,
		Password:            opts.Password,
		IOTimeout:           cfg.Store.IOTimeout,
		RotationProbability: cfg.Store.RotationProbability,
		BcryptCost:          cfg.Store.BcryptCost,
		Logger:              log,
		Metrics:             metrics.NewStoreMetrics(opts.Registerer, cfg.Identity),
	})
	if err != nil {
		return nil, err
	}

	proxy := cache.New(fs, log, metrics.NewCacheMetrics(opts.Registerer, cfg.Identity))
	ps := protocolstore.New(proxy, log)

	a := &App{files: fs, cache: proxy, store: ps, log: log}

	dir := opts.Directory
	if dir == nil && cfg.Directory.URL != "" {
		c := directory.NewHTTP(cfg.Directory.URL, cfg.Directory.Timeout)
		if opts.HTTPClient != nil {
			c.HTTP = opts.HTTPClient
		}
		dir = c
	}
	if dir != nil {
		engine := opts.Engine
		if engine == nil {
			engine = noEngine{}
		}
		a.manager = manager.New(domain.UserID(cfg.Identity), ps, dir, engine, manager.Options{
			PreKeyID:       domain.KeyID(cfg.Protocol.PreKeyID),
			SignedPreKeyID: domain.KeyID(cfg.Protocol.SignedPreKeyID),
			DeviceID:       cfg.Protocol.DeviceID,
			Retry: retry.Policy{
				Attempts:  cfg.Directory.RetryAttempts,
				BaseDelay: cfg.Directory.RetryBaseDelay,
				MaxDelay:  cfg.Directory.RetryMaxDelay,
			},
			Logger: log,
		})
	}
	return a, nil
}

type noEngine struct{}

func (noEngine) InitOutgoing(context.Context, domain.ProtocolStore, domain.Address, domain.PreKeyBundle) error {
	return ErrNoEngine
}

func (noEngine) Encrypt(context.Context, domain.ProtocolStore, domain.Address, []byte) (domain.CipherMessage, error) {
	return domain.CipherMessage{}, ErrNoEngine
}

func (noEngine) Decrypt(context.Context, domain.ProtocolStore, domain.Address, domain.CipherMessage) ([]byte, error) {
	return nil, ErrNoEngine
}
