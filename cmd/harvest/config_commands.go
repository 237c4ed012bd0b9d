package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cwygoda/harvest/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigValidateCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "init [path]",
		Short:       "Create a sample configuration file",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := config.DefaultConfigPath()
			if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
				target = config.ExpandPath(args[0])
			}

			if err := config.WriteSample(target); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit the profiles to point at your input sheet before running harvest.")
			return nil
		},
	}
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and the selected profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.ensureSettings()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Configuration valid (%s)\n", s.ConfigPath)
			rows := [][]string{
				{"profile", s.ProfileName},
				{"input_file", s.InputFile},
				{"report_file", s.ReportFile},
				{"downloads_dir", s.DownloadsDir},
				{"staging_dir", s.StagingDir},
				{"link_columns", strings.Join(s.Links(), ", ")},
				{"naming_column", s.NamingColumn},
				{"filetype", s.Filetype},
				{"binary", yesNo(s.Binary)},
				{"download_all", yesNo(s.DownloadAll)},
				{"timeout", s.RequestTimeout().String()},
				{"workers", workersLabel(s.Workers)},
				{"ledger", ledgerLabel(s.LedgerPath)},
			}
			fmt.Fprintln(out, renderTable([]string{"Setting", "Value"}, rows, nil))
			return nil
		},
	}
}

func workersLabel(n int) string {
	if n <= 0 {
		return "unbounded"
	}
	return fmt.Sprint(n)
}

func ledgerLabel(path string) string {
	if path == "" {
		return "disabled"
	}
	return path
}
