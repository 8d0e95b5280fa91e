package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/bassamadnan/sheetcrm/crm"
)

func newScanCmd(a *app) *cobra.Command {
	var (
		budget  int
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Enrich the next batch of rows and exit",
		Long: `Resumes from the persisted cursor, looks up each row's address in Gmail and
writes the last-contact summary next to it. At most --budget rows are visited;
run it again (or use "watch") to continue.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("budget") {
				if err := a.manager.Set("step_budget", budget); err != nil {
					return err
				}
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

			ctx := cmd.Context()
			scanner, cursors, err := buildScanner(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer cursors.Close()

			out := cmd.OutOrStdout()
			if verbose {
				scanner.WithProgress(func(r crm.RowResult) { printRow(out, r) })
			}

			report, err := scanner.Scan(ctx, time.Now())
			if report != nil {
				printReport(out, report)
			}
			return err
		},
	}

	cmd.Flags().IntVar(&budget, "budget", 0, "rows to visit in this invocation (overrides step_budget)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print every visited row")
	return cmd
}

func printRow(w io.Writer, r crm.RowResult) {
	if r.Skipped {
		fmt.Fprintf(w, "%6d  (blank)\n", r.Row)
		return
	}
	fmt.Fprintf(w, "%6d  %-36s %s | %s | %s | %s\n", r.Row, r.Address, r.Fields[0], r.Fields[1], r.Fields[2], r.Fields[3])
}

func printReport(w io.Writer, r *crm.Report) {
	fmt.Fprintf(w, "run %s: visited %d rows from row %d (%d enriched, %d blank, %d never contacted)\n",
		r.RunID, r.Advanced(), r.StartingRow, r.Enriched, r.Skipped, r.Never)
	fmt.Fprintf(w, "cursor at row %d of %d, stopped: %s\n", r.Cursor, r.TotalRows, r.Stop)
}
