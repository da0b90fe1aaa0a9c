package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"uibench/internal/metrics"
)

var (
	reportShow bool
	reportHTML bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Regenerate CSV, Markdown and charts from all-results.json",
	Args:  cobra.NoArgs,
	RunE:  rebuildReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().BoolVar(&reportShow, "show", false, "Render report.md in the terminal")
	reportCmd.Flags().BoolVar(&reportHTML, "html", false, "Also write an interactive plots/charts.html")
}

func rebuildReport(cmd *cobra.Command, args []string) error {
	cfg, logger, release, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer release()

	summary, err := newOrchestratorFunc(cfg, metrics.NewMetrics(), logger, reportHTML).Rebuild(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to rebuild report: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), summaryTable(summary))
	if reportShow {
		return showReport(cmd, cfg.OutDir)
	}
	return nil
}
