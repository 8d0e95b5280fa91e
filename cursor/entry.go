package cursor

import (
	"errors"
	"time"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Default locations used when no path is configured.
const (
	DefaultFileDir    = ".sheetcrm/cursors"
	DefaultSQLitePath = ".sheetcrm/cursor.db"
)

var (
	ErrInvalidKey = errors.New("cursor key cannot be empty")
	ErrInvalidTTL = errors.New("cursor TTL must be positive")
)

// Entry is a stored value with its expiry.
type Entry struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func newEntry(key, value string, now time.Time, ttl time.Duration) Entry {
	return Entry{
		Key:       key,
		Value:     value,
		UpdatedAt: now.UTC(),
		ExpiresAt: now.Add(ttl).UTC(),
	}
}

// ExpiredAt reports whether the entry has expired at t.
func (e Entry) ExpiredAt(t time.Time) bool {
	return !t.Before(e.ExpiresAt)
}

func validate(key string, ttl time.Duration) error {
	if key == "" {
		return ErrInvalidKey
	}
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	return nil
}
