package cli

import (
	"context"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/bassamadnan/sheetcrm/auth"
	"github.com/bassamadnan/sheetcrm/config"
	"github.com/bassamadnan/sheetcrm/crm"
	"github.com/bassamadnan/sheetcrm/cursor"
	"github.com/bassamadnan/sheetcrm/gmail"
	"github.com/bassamadnan/sheetcrm/logging"
	"github.com/bassamadnan/sheetcrm/sheets"
)

func tokenStore(cfg config.Config) (auth.TokenStore, error) {
	if cfg.Auth.TokenStore == "keyring" {
		return auth.OpenKeyring(filepath.Dir(cfg.Auth.TokenFile))
	}
	return auth.FileTokenStore{Path: cfg.Auth.TokenFile}, nil
}

// googleClient authorizes against Google. The consent prompt, if needed,
// runs on the real terminal before any screen takes it over.
func googleClient(ctx context.Context, cfg config.Config) (*http.Client, error) {
	store, err := tokenStore(cfg)
	if err != nil {
		return nil, err
	}
	return auth.NewHTTPClient(ctx, cfg.Auth.CredentialsFile, store, auth.Prompt{In: os.Stdin, Out: os.Stdout})
}

func newSheetStore(ctx context.Context, httpClient *http.Client, cfg config.Config, logger zerolog.Logger) (*sheets.Store, error) {
	return sheets.NewStore(ctx, httpClient, sheets.Options{
		SpreadsheetID:     cfg.SpreadsheetID,
		SheetName:         cfg.SheetName,
		AddressColumn:     cfg.AddressColumn,
		OutputStartColumn: cfg.OutputStartColumn,
	}, logger)
}

func scanOptions(cfg config.Config) crm.Options {
	return crm.Options{
		StepBudget: cfg.StepBudget,
		CursorKey:  cfg.Cursor.Key,
		CursorTTL:  cfg.Cursor.TTL,
		Throttle:   cfg.Throttle,
	}
}

// buildScanner assembles a Scanner on the live Google APIs. The returned
// cursor store must be closed by the caller.
func buildScanner(ctx context.Context, cfg config.Config, log *logging.Logger) (*crm.Scanner, cursor.Store, error) {
	formatter, err := crm.NewFormatter(cfg.Formatter)
	if err != nil {
		return nil, nil, err
	}

	httpClient, err := googleClient(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	mail, err := gmail.NewClient(ctx, httpClient, cfg.Gmail.Query, log.Logger)
	if err != nil {
		return nil, nil, err
	}
	sheet, err := newSheetStore(ctx, httpClient, cfg, log.Logger)
	if err != nil {
		return nil, nil, err
	}

	var identity crm.Identity = mail
	if cfg.SelfAddress != "" {
		identity = crm.StaticIdentity(cfg.SelfAddress)
	}

	cursors, err := cursor.Open(cfg.Cursor.Backend, cfg.Cursor.Path)
	if err != nil {
		return nil, nil, err
	}

	scanner, err := crm.NewScanner(crm.Deps{
		Rows:      sheet,
		Cursors:   cursors,
		Threads:   mail,
		Identity:  identity,
		Formatter: formatter,
		Logger:    log.Logger,
	}, scanOptions(cfg))
	if err != nil {
		cursors.Close()
		return nil, nil, err
	}
	return scanner, cursors, nil
}
