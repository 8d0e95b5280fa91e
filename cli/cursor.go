package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bassamadnan/sheetcrm/cursor"
)

func newCursorCmd(a *app) *cobra.Command {
	var (
		set   int
		reset bool
	)

	cmd := &cobra.Command{
		Use:   "cursor",
		Short: "Show or move the resume cursor",
		Long: `Prints the row the next scan will start from. --set moves it; --reset
returns it to the top of the sheet. The cursor expires after cursor.ttl
without a scan, after which scanning restarts from the top.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if reset && cmd.Flags().Changed("set") {
				return errors.New("--set and --reset are mutually exclusive")
			}
			if cmd.Flags().Changed("set") && set < 1 {
				return fmt.Errorf("--set must be a row number >= 1, got %d", set)
			}
			cfg, err := a.config()
			if err != nil {
				return err
			}
			log, err := a.openLogger(cfg, true)
			if err != nil {
				return err
			}
			defer log.Close()

			store, err := cursor.Open(cfg.Cursor.Backend, cfg.Cursor.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			if reset {
				set = 1
			}
			if reset || cmd.Flags().Changed("set") {
				if err := store.Put(ctx, cfg.Cursor.Key, strconv.Itoa(set), cfg.Cursor.TTL); err != nil {
					return err
				}
				log.Info().Str("key", cfg.Cursor.Key).Int("row", set).Msg("cursor moved")
				fmt.Fprintf(out, "%s = %d\n", cfg.Cursor.Key, set)
				return nil
			}

			value, ok, err := store.Get(ctx, cfg.Cursor.Key)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintf(out, "%s not set (next scan starts at the top)\n", cfg.Cursor.Key)
				return nil
			}
			fmt.Fprintf(out, "%s = %s\n", cfg.Cursor.Key, value)
			return nil
		},
	}

	cmd.Flags().IntVar(&set, "set", 0, "move the cursor to this row")
	cmd.Flags().BoolVar(&reset, "reset", false, "move the cursor back to the top")
	return cmd
}
