package cursor

import (
	"context"
	"fmt"
	"time"
)

// Store is a cursor backend that holds resources until closed.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	Close() error
}

// Open returns the backend named by backend. For BackendFile path is a
// directory, for BackendSQLite a database file. An empty path selects the
// backend's default location.
func Open(backend, path string) (Store, error) {
	switch backend {
	case BackendFile, "":
		if path == "" {
			path = DefaultFileDir
		}
		return NewFileStore(path)
	case BackendSQLite:
		if path == "" {
			path = DefaultSQLitePath
		}
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown cursor backend %q", backend)
	}
}
