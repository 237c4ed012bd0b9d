package main

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cwygoda/harvest/internal/adapter/fetch"
	"github.com/cwygoda/harvest/internal/adapter/filestore"
	"github.com/cwygoda/harvest/internal/adapter/sheet"
	"github.com/cwygoda/harvest/internal/config"
	"github.com/cwygoda/harvest/internal/domain"
	"github.com/cwygoda/harvest/internal/worker"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var workers int
	var downloadAll bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Download the file of every input row and write the report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.ensureSettings()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("workers") {
				s.Workers = workers
			}
			if downloadAll {
				s.DownloadAll = true
			}
			if err := s.Validate(); err != nil {
				return err
			}
			return runHarvest(cmd, ctx, s)
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Maximum concurrent downloads (0 = one per row)")
	cmd.Flags().BoolVar(&downloadAll, "download-all", false, "Re-download rows whose file already exists")
	return cmd
}

func runHarvest(cmd *cobra.Command, ctx *commandContext, s config.Settings) error {
	if err := s.EnsureDirectories(); err != nil {
		return err
	}
	if err := s.CheckPaths(); err != nil {
		return err
	}

	log, err := ctx.logger(s, cmd.ErrOrStderr())
	if err != nil {
		return &config.ConfigError{Path: s.ConfigPath, Problems: []string{err.Error()}}
	}
	log = log.With().Str("profile", s.ProfileName).Logger()

	store := filestore.New(filestore.Options{
		FinalDir:   s.DownloadsDir,
		StagingDir: s.StagingDir,
		Ext:        s.Filetype,
		Binary:     s.Binary,
	}, log)
	unlock, err := store.Lock()
	if err != nil {
		return err
	}
	defer unlock()
	if n, err := store.Sweep(); err != nil {
		log.Warn().Err(err).Msg("sweep staging directory")
	} else if n > 0 {
		log.Info().Int("files", n).Msg("removed stale staged files")
	}

	records, err := sheet.Load(s.InputFile, s.NamingColumn, s.Links())
	if err != nil {
		return err
	}
	rows := make([]domain.Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, domain.NewRow(rec, s.NamingColumn, s.Links()))
	}

	runCtx := context.WithoutCancel(cmd.Context())
	var ledger *domain.RunService
	if s.LedgerPath != "" {
		svc, closeLedger, err := ctx.openLedger(s)
		if err != nil {
			log.Warn().Err(err).Str("path", s.LedgerPath).Msg("open run ledger")
		} else {
			defer closeLedger()
			ledger = svc
		}
	}
	runID := beginLedgerRun(runCtx, ledger, s, log)

	client := fetch.NewClient(fetch.DefaultOptions())
	gate := domain.NewGate(store, s.DownloadAll)
	resolver := domain.NewResolver(client, s.Filetype, s.RequestTimeout())
	w := worker.New(gate, resolver, store, s.Workers, log)

	var done atomic.Int64
	total := len(rows)
	w.OnRowFinished(func(r worker.RowResult) {
		n := done.Add(1)
		log.Debug().
			Str("name", r.Row.Name).
			Str("state", string(r.State)).
			Int64("done", n).
			Int("total", total).
			Msg("row finished")
	})

	entries, err := w.Run(runCtx, rows)
	if err != nil {
		return err
	}

	if err := sheet.WriteReport(s.ReportFile, entries); err != nil {
		return err
	}
	log.Info().Str("path", s.ReportFile).Msg("report written")

	finishLedgerRun(runCtx, ledger, runID, entries, log)

	out := cmd.OutOrStdout()
	summary := domain.Summarize(entries)
	fmt.Fprintln(out, renderTable([]string{"Outcome", "Rows"}, summaryRows(summary), []columnAlignment{alignLeft, alignRight}))
	fmt.Fprintf(out, "Report: %s\n", s.ReportFile)
	if runID != "" {
		fmt.Fprintf(out, "Run:    %s\n", runID)
	}
	return nil
}

// beginLedgerRun records the start of a run and returns its ID, or "" when
// there is no ledger. Ledger problems are logged and never stop the download.
func beginLedgerRun(ctx context.Context, svc *domain.RunService, s config.Settings, log zerolog.Logger) string {
	if svc == nil {
		return ""
	}
	if n, err := svc.RecoverStale(ctx); err != nil {
		log.Warn().Err(err).Msg("recover stale runs")
	} else if n > 0 {
		log.Info().Int64("runs", n).Msg("marked interrupted runs abandoned")
	}

	run, err := svc.Begin(ctx, s.ProfileName, s.InputFile)
	if err != nil {
		log.Warn().Err(err).Msg("record run start")
		return ""
	}
	log.Debug().Str("run", run.ID).Msg("run recorded")
	return run.ID
}

func finishLedgerRun(ctx context.Context, svc *domain.RunService, id string, entries []domain.ReportEntry, log zerolog.Logger) {
	if svc == nil || id == "" {
		return
	}
	if err := svc.Finish(ctx, id, entries); err != nil {
		log.Warn().Err(err).Str("run", id).Msg("record run outcome")
	}
}
