package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/sheets/v4"
)

// Scopes are the permissions requested: read mail, edit the contact sheet.
var Scopes = []string{gmail.GmailReadonlyScope, sheets.SpreadsheetsScope}

// Prompt is where the installed-app flow prints the consent URL and reads
// the authorization code back.
type Prompt struct {
	In  io.Reader
	Out io.Writer
}

// NewHTTPClient returns an authorized client for the Google APIs. A saved
// token is reused; otherwise the consent flow runs through prompt. Refreshed
// tokens are written back to store.
func NewHTTPClient(ctx context.Context, credentialsFile string, store TokenStore, prompt Prompt) (*http.Client, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file: %w", err)
	}
	cfg, err := google.ConfigFromJSON(b, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}

	tok, err := store.Load()
	if errors.Is(err, ErrNoToken) {
		tok, err = getTokenFromWeb(ctx, cfg, prompt)
		if err != nil {
			return nil, err
		}
		if err := store.Save(tok); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	src := &savingTokenSource{
		base:  cfg.TokenSource(ctx, tok),
		store: store,
		last:  tok.AccessToken,
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, src)), nil
}

func getTokenFromWeb(ctx context.Context, cfg *oauth2.Config, prompt Prompt) (*oauth2.Token, error) {
	authURL := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(prompt.Out, "Go to the following link in your browser then type the "+
		"authorization code: \n%v\n", authURL)
	var authCode string
	if _, err := fmt.Fscan(prompt.In, &authCode); err != nil {
		return nil, fmt.Errorf("unable to read authorization code: %w", err)
	}
	tok, err := cfg.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve token from web: %w", err)
	}
	return tok, nil
}

// savingTokenSource persists every newly minted access token.
type savingTokenSource struct {
	base  oauth2.TokenSource
	store TokenStore
	mu    sync.Mutex
	last  string
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := s.store.Save(tok); err != nil {
			return nil, err
		}
	}
	return tok, nil
}
