package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SHEETCRM_SPREADSHEET_ID.
const EnvPrefix = "SHEETCRM"

var (
	ErrMissingSpreadsheet = errors.New("spreadsheet_id is required")
	ErrInvalidColumn      = errors.New("columns are 1-indexed and must be positive")
	ErrColumnOverlap      = errors.New("address column falls inside the output block")
)

// CursorConfig selects where the resume cursor is persisted.
type CursorConfig struct {
	Key     string        `mapstructure:"key"`
	TTL     time.Duration `mapstructure:"ttl"`
	Backend string        `mapstructure:"backend"`
	// Path is a directory for the file backend and a database file for
	// sqlite. Empty selects .sheetcrm/cursors or .sheetcrm/cursor.db.
	Path string `mapstructure:"path"`
}

// AuthConfig points at the OAuth client secret and token storage.
type AuthConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
	TokenFile       string `mapstructure:"token_file"`
	TokenStore      string `mapstructure:"token_store"`
}

// GmailConfig controls how threads are searched.
type GmailConfig struct {
	// Query is a Gmail search with an {address} placeholder.
	Query string `mapstructure:"query"`
}

// WatchConfig drives the periodic trigger.
type WatchConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	InitialDelay time.Duration `mapstructure:"initial_delay"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// Config is the full application configuration.
type Config struct {
	SpreadsheetID     string        `mapstructure:"spreadsheet_id"`
	SheetName         string        `mapstructure:"sheet_name"`
	AddressColumn     int           `mapstructure:"address_column"`
	OutputStartColumn int           `mapstructure:"output_start_column"`
	StepBudget        int           `mapstructure:"step_budget"`
	Throttle          time.Duration `mapstructure:"throttle"`
	Formatter         string        `mapstructure:"formatter"`
	SelfAddress       string        `mapstructure:"self_address"`

	Cursor CursorConfig `mapstructure:"cursor"`
	Auth   AuthConfig   `mapstructure:"auth"`
	Gmail  GmailConfig  `mapstructure:"gmail"`
	Watch  WatchConfig  `mapstructure:"watch"`
	Log    LogConfig    `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("spreadsheet_id", "")
	v.SetDefault("sheet_name", "Sheet1")
	v.SetDefault("address_column", 2)
	v.SetDefault("output_start_column", 10)
	v.SetDefault("step_budget", 100)
	v.SetDefault("throttle", "20ms")
	v.SetDefault("formatter", "status")
	v.SetDefault("self_address", "")

	v.SetDefault("cursor.key", "lastRow")
	v.SetDefault("cursor.ttl", "24h")
	v.SetDefault("cursor.backend", "file")
	v.SetDefault("cursor.path", "") // per-backend default

	v.SetDefault("auth.credentials_file", "credentials.json")
	v.SetDefault("auth.token_file", "token.json")
	v.SetDefault("auth.token_store", "file")

	v.SetDefault("gmail.query", "(from:me to:{address}) OR (from:{address} to:me)")

	v.SetDefault("watch.interval", "5m")
	v.SetDefault("watch.initial_delay", "1s")

	v.SetDefault("log.file", "sheetcrm.log")
	v.SetDefault("log.level", "info")
}

// Validate checks the settings the scanner cannot run without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SpreadsheetID) == "" {
		return ErrMissingSpreadsheet
	}
	if c.AddressColumn < 1 || c.OutputStartColumn < 1 {
		return ErrInvalidColumn
	}
	if c.AddressColumn >= c.OutputStartColumn && c.AddressColumn < c.OutputStartColumn+4 {
		return fmt.Errorf("%w: address %d, output %d-%d", ErrColumnOverlap,
			c.AddressColumn, c.OutputStartColumn, c.OutputStartColumn+3)
	}
	if c.StepBudget < 1 || c.StepBudget > 10000 {
		return fmt.Errorf("step_budget must be between 1 and 10000, got %d", c.StepBudget)
	}
	if c.Throttle < 0 {
		return fmt.Errorf("throttle cannot be negative, got %s", c.Throttle)
	}
	if c.Cursor.TTL <= 0 {
		return fmt.Errorf("cursor.ttl must be positive, got %s", c.Cursor.TTL)
	}
	switch c.Cursor.Backend {
	case "file", "sqlite":
	default:
		return fmt.Errorf("unknown cursor.backend %q", c.Cursor.Backend)
	}
	switch c.Auth.TokenStore {
	case "file", "keyring":
	default:
		return fmt.Errorf("unknown auth.token_store %q", c.Auth.TokenStore)
	}
	switch c.Formatter {
	case "status", "reply_flag":
	default:
		return fmt.Errorf("unknown formatter %q", c.Formatter)
	}
	if !strings.Contains(c.Gmail.Query, "{address}") {
		return errors.New("gmail.query must contain an {address} placeholder")
	}
	if c.Watch.Interval <= 0 {
		return fmt.Errorf("watch.interval must be positive, got %s", c.Watch.Interval)
	}
	return nil
}

// Manager loads the configuration once and hands out copies.
type Manager struct {
	filePath string
	v        *viper.Viper
	cfg      *Config
	mu       sync.RWMutex
}

// NewManager reads .env (if present), the optional config file at filePath and
// SHEETCRM_* environment variables, in increasing order of precedence.
func NewManager(filePath string) (*Manager, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	m := &Manager{filePath: filePath, v: v}
	if err := m.Load(); err != nil {
		return nil, err
	}
	return m, nil
}

// Load (re)reads the configuration file. A missing file is not an error;
// defaults and environment overrides still apply.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.filePath != "" {
		m.v.SetConfigFile(m.filePath)
		if err := m.v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return fmt.Errorf("reading config %s: %w", m.filePath, err)
			}
		}
	}

	var cfg Config
	if err := m.v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	m.cfg = &cfg
	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return *m.cfg
}

// Set overrides a single key, e.g. from a command-line flag, and re-parses.
func (m *Manager) Set(key string, value any) error {
	m.mu.Lock()
	m.v.Set(key, value)
	var cfg Config
	err := m.v.Unmarshal(&cfg)
	if err == nil {
		m.cfg = &cfg
	}
	m.mu.Unlock()
	if err != nil {
		return fmt.Errorf("applying %s: %w", key, err)
	}
	return nil
}

// FilePath returns the configuration file path, which may not exist.
func (m *Manager) FilePath() string {
	return m.filePath
}
