package store

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"signalstore/internal/domain"
	"signalstore/internal/metrics"
	"signalstore/internal/util/memzero"
)

const (
	defaultIOTimeout = 5 * time.Second
	opQueueSize      = 64
)

// Options configures Open.
type Options struct {
	// Root is the directory holding the credential and data files.
	Root     string
	Identity string
	Password string

	// IOTimeout bounds each queued operation. Zero means 5s.
	IOTimeout time.Duration
	// RotationProbability is the chance that a write re-keys the store
	// first. Zero disables rotation.
	RotationProbability float64
	// BcryptCost is used when a new credential bundle is created. Zero
	// means bcrypt.DefaultCost.
	BcryptCost int

	Logger  *slog.Logger
	Metrics *metrics.StoreMetrics
	// Rand supplies keys, IVs and rotation coins. Nil means crypto/rand.
	Rand io.Reader
}

// FileStore is the encrypted single-file namespace of one identity.
//
// Every operation runs on one worker goroutine in submission order, so
// writes are totally ordered and never overlap a read. Each Set or Remove
// rewrites the whole envelope.
type FileStore struct {
	identity string
	path     string
	creds    *Credentials
	codec    *Codec
	timeout  time.Duration
	log      *slog.Logger
	metrics  *metrics.StoreMetrics

	ops       chan *storeOp
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// Op states. A queued op is either started by the worker or abandoned by
// its caller, never both.
const (
	opQueued int32 = iota
	opRunning
	opAbandoned
)

type storeOp struct {
	ctx    context.Context
	name   string
	fn     func(ctx context.Context) error
	result chan error
	state  atomic.Int32
}

// Open authenticates and opens the store of opts.Identity under opts.Root,
// creating it on first use.
func Open(ctx context.Context, opts Options) (*FileStore, error) {
	if opts.Identity == "" {
		return nil, fmt.Errorf("%w: empty identity", domain.ErrInvalidKey)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewStoreMetrics(nil, opts.Identity)
	}
	if opts.Rand == nil {
		opts.Rand = rand.Reader
	}
	if opts.IOTimeout <= 0 {
		opts.IOTimeout = defaultIOTimeout
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(opts.Root, 0o700); err != nil {
		return nil, &domain.PersistenceError{Op: "create store root", Path: opts.Root, Err: err}
	}

	creds, err := OpenCredentials(opts.Root, opts.Identity, opts.Password, opts.BcryptCost, opts.Rand)
	if err != nil {
		return nil, err
	}

	s := &FileStore{
		identity: opts.Identity,
		path:     strings.TrimSuffix(creds.Path(), keyFileExt) + dataFileExt,
		creds:    creds,
		codec:    NewCodec(creds, opts.RotationProbability, opts.Rand),
		timeout:  opts.IOTimeout,
		log:      opts.Logger.With("component", "store", "identity", opts.Identity),
		metrics:  opts.Metrics,
		ops:      make(chan *storeOp, opQueueSize),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	s.codec.onRotate = func() {
		s.metrics.KeyRotations.Inc()
		s.log.Debug("rotated store key")
	}

	if err := s.recoverRotation(); err != nil {
		creds.wipe()
		return nil, err
	}
	if _, err := s.load(); err != nil {
		creds.wipe()
		return nil, err
	}

	if creds.Created() {
		s.log.Info("created store", "path", s.path)
	} else {
		s.log.Info("opened store", "path", s.path)
	}

	go s.run()
	return s, nil
}

// Identity returns the identity the store is scoped to.
func (s *FileStore) Identity() string { return s.identity }

// Path returns the data file path.
func (s *FileStore) Path() string { return s.path }

// KeyPath returns the credential file path.
func (s *FileStore) KeyPath() string { return s.creds.Path() }

// Get returns the raw JSON value of key and whether it exists.
func (s *FileStore) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	var (
		val json.RawMessage
		ok  bool
	)
	err := s.submit(ctx, "get", func(context.Context) error {
		ns, err := s.load()
		if err != nil {
			return err
		}
		val, ok = ns[key]
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return val, ok, nil
}

// Set stores value under key and rewrites the envelope.
func (s *FileStore) Set(ctx context.Context, key string, value any) error {
	raw, err := encodeValue(key, value)
	if err != nil {
		return err
	}
	return s.submit(ctx, "set", func(ctx context.Context) error {
		ns, err := s.load()
		if err != nil {
			return err
		}
		ns[key] = raw
		return s.commit(ctx, ns)
	})
}

// Remove deletes key and rewrites the envelope.
func (s *FileStore) Remove(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", domain.ErrInvalidKey)
	}
	return s.submit(ctx, "remove", func(ctx context.Context) error {
		ns, err := s.load()
		if err != nil {
			return err
		}
		delete(ns, key)
		return s.commit(ctx, ns)
	})
}

// Keys returns every persisted key in sorted order.
func (s *FileStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := s.submit(ctx, "keys", func(context.Context) error {
		ns, err := s.load()
		if err != nil {
			return err
		}
		keys = make([]string, 0, len(ns))
		for k := range ns {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return nil
	})
	return keys, err
}

// Close stops the worker once the running operation returns and wipes the
// key from memory. Queued and later calls fail with domain.ErrClosed.
func (s *FileStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.quit)
		<-s.done
		s.creds.wipe()
		s.log.Debug("closed store")
	})
	return nil
}

// submit queues fn on the worker and waits for it, bounded by the store
// timeout and ctx. An op that expires while queued never runs. An op the
// worker already started is waited for: commit checks ctx before replacing
// the data file, so a returned error always means nothing was written.
func (s *FileStore) submit(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	op := &storeOp{ctx: ctx, name: name, fn: fn, result: make(chan error, 1)}
	select {
	case <-s.quit:
		return domain.ErrClosed
	default:
	}
	select {
	case s.ops <- op:
	case <-s.quit:
		return domain.ErrClosed
	case <-ctx.Done():
		return s.fail(name, &domain.PersistenceError{Op: name, Path: s.path, Err: ctx.Err()})
	}

	select {
	case err := <-op.result:
		return s.finish(name, err)
	case <-s.done:
		return s.closed(name, op)
	case <-ctx.Done():
	}
	if op.state.CompareAndSwap(opQueued, opAbandoned) {
		return s.fail(name, &domain.PersistenceError{Op: name, Path: s.path, Err: ctx.Err()})
	}
	select {
	case err := <-op.result:
		return s.finish(name, err)
	case <-s.done:
		return s.closed(name, op)
	}
}

func (s *FileStore) finish(name string, err error) error {
	if err != nil {
		return s.fail(name, err)
	}
	return nil
}

// closed reports the result of op if the worker finished it before exiting.
func (s *FileStore) closed(name string, op *storeOp) error {
	select {
	case err := <-op.result:
		return s.finish(name, err)
	default:
		return domain.ErrClosed
	}
}

func (s *FileStore) fail(name string, err error) error {
	s.metrics.Failures.WithLabelValues(name).Inc()
	return err
}

func (s *FileStore) run() {
	defer close(s.done)
	for {
		select {
		case <-s.quit:
			return
		case op := <-s.ops:
			if !op.state.CompareAndSwap(opQueued, opRunning) {
				continue
			}
			if err := op.ctx.Err(); err != nil {
				op.result <- &domain.PersistenceError{Op: op.name, Path: s.path, Err: err}
				continue
			}
			op.result <- op.fn(op.ctx)
		}
	}
}

// load reads and decrypts the namespace. A missing data file is empty.
func (s *FileStore) load() (map[string]json.RawMessage, error) {
	b, err := readFile(s.path)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "read", Path: s.path, Err: err}
	}
	s.metrics.Reads.Inc()
	ns := make(map[string]json.RawMessage)
	if b == nil {
		return ns, nil
	}
	pt, err := s.codec.Decrypt(string(b))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	if err := json.Unmarshal(pt, &ns); err != nil {
		return nil, fmt.Errorf("%s: %w: namespace: %v", s.path, domain.ErrDecryption, err)
	}
	if ns == nil {
		ns = make(map[string]json.RawMessage)
	}
	return ns, nil
}

// commit serialises, encrypts and replaces the data file. If a rotation
// happened and the data file is not written, the old key is restored. An
// expired ctx stops the commit before the data file is replaced.
func (s *FileStore) commit(ctx context.Context, ns map[string]json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return &domain.PersistenceError{Op: "write", Path: s.path, Err: err}
	}
	pt, err := json.Marshal(ns)
	if err != nil {
		return fmt.Errorf("encode namespace: %w", err)
	}
	sealed, err := s.codec.Encrypt(pt)
	memzero.Zero(pt)
	if err != nil {
		return err
	}
	err = ctx.Err()
	if err == nil {
		err = writeFile(s.path, []byte(sealed.Envelope), 0o600)
	}
	if err != nil {
		if rbErr := s.codec.Rollback(sealed); rbErr != nil {
			s.log.Error("restore key after failed write", "error", rbErr)
		}
		return &domain.PersistenceError{Op: "write", Path: s.path, Err: err}
	}
	if err := s.codec.Commit(sealed); err != nil {
		s.log.Warn("finish key rotation", "error", err)
	}
	s.metrics.Writes.Inc()
	return nil
}

// recoverRotation resolves a rotation interrupted between the credential
// write and the data write: whichever key opens the data file wins.
func (s *FileStore) recoverRotation() error {
	prev, ok, err := s.creds.journalKey()
	if err != nil || !ok {
		return err
	}
	b, err := readFile(s.path)
	if err != nil {
		return &domain.PersistenceError{Op: "read", Path: s.path, Err: err}
	}
	if b == nil {
		return s.creds.finishRotation()
	}
	if opens(s.creds.Key(), b) {
		return s.creds.finishRotation()
	}
	if !opens(prev, b) {
		return fmt.Errorf("%s: %w: no key opens the data file", s.path, domain.ErrDecryption)
	}
	if err := s.creds.replaceKey(prev); err != nil {
		return err
	}
	s.log.Warn("recovered interrupted key rotation")
	return s.creds.finishRotation()
}

// opens reports whether k decrypts env into a JSON document.
func opens(k KeyMaterial, env []byte) bool {
	pt, err := open(k.Bytes(), string(env))
	return err == nil && json.Valid(pt)
}

// encodeValue validates and serialises a value for key.
func encodeValue(key string, value any) (json.RawMessage, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: empty key", domain.ErrInvalidKey)
	}
	if value == nil {
		return nil, fmt.Errorf("%w: nil value for %q", domain.ErrInvalidKey, key)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode %q: %w", key, err)
	}
	if string(raw) == "null" {
		return nil, fmt.Errorf("%w: nil value for %q", domain.ErrInvalidKey, key)
	}
	return raw, nil
}

// EncodeValue validates and serialises a value the way Set does.
func EncodeValue(key string, value any) (json.RawMessage, error) {
	return encodeValue(key, value)
}

// basePath is root/<base64url(identity)>. A store created under the
// standard base64 name is used in place when only that one exists and
// the name stays a single path element.
func basePath(root, identity string) string {
	name := filepath.Join(root, base64.URLEncoding.EncodeToString([]byte(identity)))
	std := base64.StdEncoding.EncodeToString([]byte(identity))
	if strings.Contains(std, "/") {
		return name
	}
	legacy := filepath.Join(root, std)
	if legacy == name || exists(name+keyFileExt) || !exists(legacy+keyFileExt) {
		return name
	}
	return legacy
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Compile-time assertion that FileStore implements domain.KeyValueStore.
var _ domain.KeyValueStore = (*FileStore)(nil)
