package cmd

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/rotation/core/calendar"
	"github.com/kilianp07/rotation/core/milp"
	"github.com/kilianp07/rotation/infra/store"
)

var runsOpts struct {
	status  string
	backend string
	since   string
	limit   int
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded solve runs",
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().StringVar(&runsOpts.status, "status", "", "only runs with this status")
	runsCmd.Flags().StringVar(&runsOpts.backend, "backend", "", "only runs of this backend")
	runsCmd.Flags().StringVar(&runsOpts.since, "since", "", "only runs from this date (YYYY-MM-DD)")
	runsCmd.Flags().IntVar(&runsOpts.limit, "limit", 20, "maximum number of runs, most recent kept")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Store.Type == "none" {
		return fmt.Errorf("no run store configured")
	}
	st, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, st.Close()) }()

	q := store.RunQuery{Status: milp.Status(runsOpts.status), Backend: runsOpts.backend, Limit: runsOpts.limit}
	if runsOpts.since != "" {
		if q.Since, err = calendar.ParseDate(runsOpts.since); err != nil {
			return err
		}
	}
	runs, err := st.Query(context.Background(), q)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIME\tBACKEND\tSTATUS\tOBJECTIVE\tATTEMPTS\tDURATION")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.3f\t%d\t%dms\n",
			r.ID, r.Time.Format("2006-01-02 15:04:05"), r.Backend, r.Status, r.Objective, r.Attempts, r.DurationMS)
	}
	return tw.Flush()
}
