package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bassamadnan/sheetcrm/tui"
)

func newReviewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "review",
		Short: "Browse the annotated sheet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			if !isTerminal(os.Stdout) {
				return fmt.Errorf("review needs a terminal")
			}
			log, err := a.openLogger(cfg, false)
			if err != nil {
				return err
			}
			defer log.Close()

			ctx := cmd.Context()
			httpClient, err := googleClient(ctx, cfg)
			if err != nil {
				return err
			}
			sheet, err := newSheetStore(ctx, httpClient, cfg, log.Logger)
			if err != nil {
				return err
			}

			review := tui.NewApp(ctx, sheet.Records, log.Logger)
			go func() {
				<-ctx.Done()
				review.Stop()
			}()
			if err := review.Run(); err != nil {
				return fmt.Errorf("running review screen: %w", err)
			}
			return nil
		},
	}
}
