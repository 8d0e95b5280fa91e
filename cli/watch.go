package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/bassamadnan/sheetcrm/crm"
	"github.com/bassamadnan/sheetcrm/trigger"
	"github.com/bassamadnan/sheetcrm/tui"
)

const rowBuffer = 64

func newWatchCmd(a *app) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run the scan on a schedule with a live view",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("interval") {
				if err := a.manager.Set("watch.interval", interval); err != nil {
					return err
				}
			}
			cfg, err := a.config()
			if err != nil {
				return err
			}
			if !isTerminal(os.Stdout) {
				return fmt.Errorf("watch needs a terminal; use scan from scripts and schedulers")
			}
			log, err := a.openLogger(cfg, false)
			if err != nil {
				return err
			}
			defer log.Close()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			scanner, cursors, err := buildScanner(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer cursors.Close()

			// The view may lag behind the scanner; rows it misses are still in the log.
			rows := make(chan crm.RowResult, rowBuffer)
			scanner.WithProgress(func(r crm.RowResult) {
				select {
				case rows <- r:
				default:
				}
			})

			events := make(chan trigger.Event, 1)
			sched := trigger.NewScheduler(scanner, log.Logger)
			done := make(chan struct{})
			go func() {
				defer close(done)
				sched.Run(ctx, events, cfg.Watch.InitialDelay, cfg.Watch.Interval)
				close(rows)
			}()

			log.Info().Dur("interval", cfg.Watch.Interval).Msg("watch started")
			p := tea.NewProgram(tui.NewWatchModel(events, rows, cfg.Watch.Interval),
				tea.WithAltScreen(), tea.WithContext(ctx))
			_, runErr := p.Run()

			cancel()
			<-done
			log.Info().Msg("watch stopped")
			if runErr != nil && ctx.Err() == nil {
				return fmt.Errorf("running watch screen: %w", runErr)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "time between scans (overrides watch.interval)")
	return cmd
}
