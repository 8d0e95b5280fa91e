package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/99designs/keyring"
	"golang.org/x/oauth2"
)

// ErrNoToken means no token has been saved yet and the browser flow must run.
var ErrNoToken = errors.New("no saved oauth token")

// TokenStore persists the OAuth token between runs.
type TokenStore interface {
	Load() (*oauth2.Token, error)
	Save(tok *oauth2.Token) error
}

// FileTokenStore keeps the token as JSON in a file.
type FileTokenStore struct {
	Path string
}

func (s FileTokenStore) Load() (*oauth2.Token, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoToken
		}
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("decoding token file %s: %w", s.Path, err)
	}
	return tok, nil
}

func (s FileTokenStore) Save(tok *oauth2.Token) error {
	f, err := os.OpenFile(s.Path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("unable to save oauth token: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(tok)
}

const (
	keyringService = "sheetcrm"
	keyringItem    = "oauth-token"
)

// KeyringTokenStore keeps the token in the OS keyring.
type KeyringTokenStore struct {
	ring keyring.Keyring
}

// OpenKeyring opens the system keyring, falling back to an encrypted file
// under fileDir on systems without a keyring daemon.
func OpenKeyring(fileDir string) (*KeyringTokenStore, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: keyringService,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  fileDir,
		FilePasswordFunc:         keyring.FixedStringPrompt("sheetcrm-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return NewKeyringTokenStore(ring), nil
}

// NewKeyringTokenStore wraps an already opened keyring.
func NewKeyringTokenStore(ring keyring.Keyring) *KeyringTokenStore {
	return &KeyringTokenStore{ring: ring}
}

func (s *KeyringTokenStore) Load() (*oauth2.Token, error) {
	item, err := s.ring.Get(keyringItem)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return nil, ErrNoToken
		}
		return nil, fmt.Errorf("getting token from keyring: %w", err)
	}
	tok := &oauth2.Token{}
	if err := json.Unmarshal(item.Data, tok); err != nil {
		return nil, fmt.Errorf("decoding keyring token: %w", err)
	}
	return tok, nil
}

func (s *KeyringTokenStore) Save(tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	err = s.ring.Set(keyring.Item{
		Key:         keyringItem,
		Data:        data,
		Label:       "sheetcrm OAuth token",
		Description: "Gmail and Sheets access for sheetcrm",
	})
	if err != nil {
		return fmt.Errorf("saving token to keyring: %w", err)
	}
	return nil
}
