package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwygoda/harvest/internal/domain"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.ensureSettings()
			if err != nil {
				return err
			}
			svc, closeLedger, err := ctx.openLedger(s)
			if err != nil {
				return err
			}
			defer closeLedger()

			runs, err := svc.List(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.ID,
					run.Profile,
					string(run.Status),
					run.StartedAt.Local().Format(time.DateTime),
					formatDuration(run.Duration()),
					strconv.Itoa(run.Summary.Total),
					strconv.Itoa(run.Summary.Succeeded),
					strconv.Itoa(run.Summary.Skipped),
					strconv.Itoa(run.Summary.Failed),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Profile", "Status", "Started", "Took", "Total", "Downloaded", "Skipped", "Failed"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var failedOnly bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the outcome of every row of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.ensureSettings()
			if err != nil {
				return err
			}
			svc, closeLedger, err := ctx.openLedger(s)
			if err != nil {
				return err
			}
			defer closeLedger()

			id := args[0]
			run, err := svc.Get(cmd.Context(), id)
			if errors.Is(err, domain.ErrRunNotFound) {
				return fmt.Errorf("run %s not found", id)
			}
			if err != nil {
				return fmt.Errorf("get run: %w", err)
			}
			entries, err := svc.Outcomes(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("get outcomes: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run:      %s\n", run.ID)
			fmt.Fprintf(out, "Profile:  %s\n", run.Profile)
			fmt.Fprintf(out, "Input:    %s\n", run.Input)
			fmt.Fprintf(out, "Status:   %s\n", run.Status)
			fmt.Fprintf(out, "Started:  %s\n", run.StartedAt.Local().Format(time.DateTime))
			if run.Finished() {
				fmt.Fprintf(out, "Took:     %s\n", formatDuration(run.Duration()))
			}
			fmt.Fprintln(out, renderTable([]string{"Outcome", "Rows"}, summaryRows(run.Summary), []columnAlignment{alignLeft, alignRight}))

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				if failedOnly && e.Succeeded {
					continue
				}
				rows = append(rows, []string{e.Name, yesNo(e.Succeeded), yesNo(e.Skipped), e.SourceURL, e.FailureDetails})
			}
			if len(rows) > 0 {
				fmt.Fprintln(out, renderTable([]string{"Name", "Success", "Skipped", "From URL", "Exceptions"}, rows, nil))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&failedOnly, "failed", false, "Only list failed rows")
	return cmd
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Second).String()
}
