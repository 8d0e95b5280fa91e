// Package cli wires configuration, logging and the Google clients into the
// sheetcrm commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/bassamadnan/sheetcrm/config"
	"github.com/bassamadnan/sheetcrm/logging"
)

const defaultConfigPath = "sheetcrm.yaml"

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// app carries the state shared by every subcommand.
type app struct {
	configPath string
	logLevel   string
	manager    *config.Manager
}

// NewRootCmd creates the root command with the scan, watch, review and
// cursor subcommands.
func NewRootCmd(version string) *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "sheetcrm",
		Short:         "Annotate a contact sheet with Gmail correspondence status",
		Long:          "sheetcrm walks the rows of a Google Sheet in resumable batches and writes when you last corresponded with each address.",
		Version:       version,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.loadConfig(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", defaultConfigPath, "path to the configuration file")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides log.level")
	cmd.AddCommand(newScanCmd(a), newWatchCmd(a), newReviewCmd(a), newCursorCmd(a))
	return cmd
}

const rootCmdExample = `  # Enrich the next batch of rows
  sheetcrm scan

  # Enrich up to 500 rows in one invocation
  sheetcrm scan --budget 500

  # Re-run the scan every 10 minutes with a live view
  sheetcrm watch --interval 10m

  # Browse the annotated sheet
  sheetcrm review

  # Show or reset the resume cursor
  sheetcrm cursor
  sheetcrm cursor --reset`

func (a *app) loadConfig(cmd *cobra.Command) error {
	m, err := config.NewManager(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		if err := m.Set("log.level", a.logLevel); err != nil {
			return err
		}
	}
	a.manager = m
	return nil
}

// config returns the validated configuration.
func (a *app) config() (config.Config, error) {
	cfg := a.manager.Get()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration (%s): %w", a.manager.FilePath(), err)
	}
	return cfg, nil
}

// openLogger logs to the configured file, and to stderr for commands that do
// not take over the terminal.
func (a *app) openLogger(cfg config.Config, console bool) (*logging.Logger, error) {
	opts := logging.Options{Level: cfg.Log.Level, File: cfg.Log.File}
	if console {
		opts.Console = os.Stderr
		opts.NoColor = !isTerminal(os.Stderr)
	}
	l, err := logging.New(opts)
	if err != nil {
		return nil, fmt.Errorf("opening log file %s: %w", cfg.Log.File, err)
	}
	return l, nil
}
