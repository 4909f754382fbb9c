package store

import (
	"context"
	"path/filepath"
	"time"

	"github.com/matzehuels/postkit/pkg/errors"
)

// Backend names accepted by Open.
const (
	BackendNull   = "null"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Backends lists every backend name.
var Backends = []string{BackendNull, BackendFile, BackendSQLite, BackendRedis, BackendMongo}

// Config selects and configures a backend.
type Config struct {
	Backend       string
	Dir           string
	SQLitePath    string
	RedisAddr     string
	MongoURI      string
	MongoDatabase string

	// ConnectAttempts bounds connection retries for network backends.
	ConnectAttempts int
	ConnectDelay    time.Duration
}

// Open returns the backend named by cfg.Backend. Network backends are
// retried with exponential backoff while connecting.
func Open(ctx context.Context, cfg Config) (Store, error) {
	attempts := cfg.ConnectAttempts
	if attempts <= 0 {
		attempts = 3
	}
	delay := cfg.ConnectDelay
	if delay <= 0 {
		delay = time.Second
	}

	switch cfg.Backend {
	case "", BackendNull:
		return NewNullStore(), nil
	case BackendFile:
		if cfg.Dir == "" {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "file store needs a directory")
		}
		return NewFileStore(cfg.Dir)
	case BackendSQLite:
		path := cfg.SQLitePath
		if path == "" {
			if cfg.Dir == "" {
				return nil, errors.New(errors.ErrCodeInvalidConfig, "sqlite store needs a path")
			}
			path = filepath.Join(cfg.Dir, "drafts.db")
		}
		return NewSQLiteStore(path)
	case BackendRedis:
		if cfg.RedisAddr == "" {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "redis store needs an address")
		}
		var st *RedisStore
		err := RetryWithBackoff(ctx, attempts, delay, func() error {
			var err error
			st, err = NewRedisStore(ctx, cfg.RedisAddr)
			return Retryable(err)
		})
		if err != nil {
			return nil, err
		}
		return st, nil
	case BackendMongo:
		if cfg.MongoURI == "" || cfg.MongoDatabase == "" {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "mongo store needs a uri and a database")
		}
		var st *MongoStore
		err := RetryWithBackoff(ctx, attempts, delay, func() error {
			var err error
			st, err = NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
			return Retryable(err)
		})
		if err != nil {
			return nil, err
		}
		return st, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown store backend %q", cfg.Backend)
}
