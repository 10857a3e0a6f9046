// Package config defines the signalstore configuration and loads it from
// defaults, a YAML file, environment variables and flag overrides.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config is the full runtime configuration.
type Config struct {
	Identity  string           `koanf:"identity"`
	Store     StoreSection     `koanf:"store"`
	Directory DirectorySection `koanf:"directory"`
	Log       LogSection       `koanf:"log"`
	Protocol  ProtocolSection  `koanf:"protocol"`
}

// StoreSection configures the encrypted file store.
type StoreSection struct {
	// Root is the directory holding <identity>.key and <identity>.db files.
	Root string `koanf:"root"`
	// IOTimeout bounds every queued store operation.
	IOTimeout time.Duration `koanf:"io_timeout"`
	// RotationProbability is the chance that a write re-keys the store.
	RotationProbability float64 `koanf:"rotation_probability"`
	// BcryptCost is the cost factor for new credential hashes.
	BcryptCost int `koanf:"bcrypt_cost"`
}

// DirectorySection configures the remote pre-key directory client.
type DirectorySection struct {
	URL            string        `koanf:"url"`
	Timeout        time.Duration `koanf:"timeout"`
	RetryAttempts  int           `koanf:"retry_attempts"`
	RetryBaseDelay time.Duration `koanf:"retry_base_delay"`
	RetryMaxDelay  time.Duration `koanf:"retry_max_delay"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// ProtocolSection holds ids used when generating a fresh pre-key bundle.
type ProtocolSection struct {
	PreKeyID       uint32 `koanf:"prekey_id"`
	SignedPreKeyID uint32 `koanf:"signed_prekey_id"`
	DeviceID       uint32 `koanf:"device_id"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Store: StoreSection{
			Root:                ".signalstore",
			IOTimeout:           5 * time.Second,
			RotationProbability: 0.5,
			BcryptCost:          10,
		},
		Directory: DirectorySection{
			Timeout:        10 * time.Second,
			RetryAttempts:  5,
			RetryBaseDelay: 50 * time.Millisecond,
			RetryMaxDelay:  2 * time.Second,
		},
		Log: LogSection{Level: "info", Format: "json"},
		Protocol: ProtocolSection{
			PreKeyID:       123,
			SignedPreKeyID: 456,
			DeviceID:       123,
		},
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	var errs []error
	if c.Store.Root == "" {
		errs = append(errs, errors.New("store.root is required"))
	}
	if c.Store.IOTimeout <= 0 {
		errs = append(errs, fmt.Errorf("store.io_timeout must be positive, got %s", c.Store.IOTimeout))
	}
	if c.Store.RotationProbability < 0 || c.Store.RotationProbability > 1 {
		errs = append(errs, fmt.Errorf("store.rotation_probability must be in [0,1], got %v", c.Store.RotationProbability))
	}
	if c.Store.BcryptCost < 4 || c.Store.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("store.bcrypt_cost must be in [4,31], got %d", c.Store.BcryptCost))
	}
	if c.Directory.RetryAttempts < 1 {
		errs = append(errs, fmt.Errorf("directory.retry_attempts must be at least 1, got %d", c.Directory.RetryAttempts))
	}
	return errors.Join(errs...)
}
