package cursor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const fileExtension = ".json"

// FileStore keeps each cursor in its own JSON file under a directory.
type FileStore struct {
	directory string
	now       func() time.Time
	mu        sync.RWMutex
}

// NewFileStore creates the directory if needed and returns a store rooted there.
func NewFileStore(directory string) (*FileStore, error) {
	if directory == "" {
		return nil, errors.New("cursor directory cannot be empty")
	}
	if err := os.MkdirAll(directory, 0o750); err != nil {
		return nil, fmt.Errorf("creating cursor directory: %w", err)
	}
	return &FileStore{directory: directory, now: time.Now}, nil
}

// Get returns the value stored under key. Missing and expired entries
// report ok=false; expired files are removed.
func (s *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrInvalidKey
	}

	s.mu.RLock()
	path := s.keyToFilePath(key)
	data, err := os.ReadFile(path)
	s.mu.RUnlock()
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading cursor file: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return "", false, fmt.Errorf("decoding cursor file %s: %w", path, err)
	}

	if entry.ExpiredAt(s.now()) {
		s.mu.Lock()
		_ = os.Remove(path)
		s.mu.Unlock()
		return "", false, nil
	}
	return entry.Value, true, nil
}

// Put stores value under key, replacing any previous entry and resetting its expiry.
func (s *FileStore) Put(_ context.Context, key, value string, ttl time.Duration) error {
	if err := validate(key, ttl); err != nil {
		return err
	}

	data, err := json.MarshalIndent(newEntry(key, value, s.now(), ttl), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding cursor entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.keyToFilePath(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing cursor file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("renaming cursor file: %w", err)
	}
	return nil
}

// Close is a no-op; it lets FileStore share the SQLiteStore lifecycle.
func (s *FileStore) Close() error { return nil }

// Directory returns the directory holding the cursor files.
func (s *FileStore) Directory() string {
	return s.directory
}

func (s *FileStore) keyToFilePath(key string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(key)
	return filepath.Join(s.directory, safe+fileExtension)
}
