package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"uibench/internal/benchmark"
	"uibench/internal/browser"
	"uibench/internal/chart"
	"uibench/internal/config"
	"uibench/internal/metrics"
	"uibench/internal/orchestrator"
	"uibench/internal/report"
	"uibench/internal/runner"
	"uibench/internal/server"
	"uibench/internal/telemetry"
	"uibench/internal/utils"
)

// benchOrchestrator is the part of the orchestrator the commands use.
type benchOrchestrator interface {
	Run(ctx context.Context, targets []benchmark.Target, iterations int) (*benchmark.RunSummary, error)
	Rebuild(ctx context.Context) (*benchmark.RunSummary, error)
}

// newOrchestratorFunc allows mocking in tests.
var newOrchestratorFunc = newOrchestrator

func newOrchestrator(cfg *config.Config, m *metrics.Metrics, logger *slog.Logger, html bool) benchOrchestrator {
	lifecycle := server.NewLifecycle(logger)
	lifecycle.PollInterval = cfg.PollInterval
	lifecycle.StopGrace = cfg.Timeouts.StopGrace

	launcher := browser.NewLauncher(browser.Options{
		Headless:   cfg.Browser.Headless,
		NoSandbox:  cfg.Browser.NoSandbox,
		ExecPath:   cfg.Browser.ExecPath,
		APITimeout: cfg.Timeouts.APIReady,
		NavTimeout: cfg.Timeouts.Navigation,
	}, logger)

	opts := runner.Options{
		ServerReadyTimeout: cfg.Timeouts.ServerReady,
		NavigationTimeout:  cfg.Timeouts.Navigation,
		APIReadyTimeout:    cfg.Timeouts.APIReady,
		Retry:              runner.RetryPolicy{MaxAttempts: cfg.Retry.MaxAttempts, Pause: cfg.Retry.Pause},
		Cooldown:           cfg.Cooldown,
		RenderSelector:     cfg.RenderSelector,
		Bulk:               cfg.Bulk,
		Churn:              cfg.Churn,
	}

	o := orchestrator.New(cfg.OutDir, func(store benchmark.Store) orchestrator.TargetRunner {
		return runner.New(lifecycle, runner.BrowserOpener(launcher), store, m, logger, opts)
	}, report.Params{Bulk: cfg.Bulk, Churn: cfg.Churn}, logger)
	if html {
		o.Page = chart.NewHTML()
	}
	return o
}

var (
	runShow bool
	runHTML bool
)

var runCmd = &cobra.Command{
	Use:   "run [target|all] [iterations]",
	Short: "Benchmark one or all targets",
	Long: `Builds, serves and benchmarks the selected target (default: all) for the
given number of iterations (default: iterations from the configuration), then
writes results.csv, report.md, all-results.json and the comparison charts.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runBenchmarks,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runShow, "show", false, "Render report.md in the terminal when done")
	runCmd.Flags().BoolVar(&runHTML, "html", false, "Also write an interactive plots/charts.html")
}

func runBenchmarks(cmd *cobra.Command, args []string) error {
	cfg, logger, release, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer release()

	selector := orchestrator.SelectAll
	if len(args) > 0 {
		selector = args[0]
	}
	iterations := cfg.Iterations
	if len(args) > 1 {
		iterations, err = strconv.Atoi(args[1])
		if err != nil || iterations < 1 {
			return fmt.Errorf("iterations must be a positive integer, got %q", args[1])
		}
	}

	targets, err := orchestrator.ResolveTargets(cfg.Targets, selector)
	if err != nil {
		return err
	}

	logger.Info("benchmark run starting", "targets", len(targets), "iterations", iterations, "out_dir", cfg.OutDir)

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	m := metrics.NewMetrics()
	if cfg.MetricsAddr != "" {
		go func() {
			if err := telemetry.StartMetricsServer(ctx, cfg.MetricsAddr, m.Handler()); err != nil {
				telemetry.LogError("metrics server stopped", err, "addr", cfg.MetricsAddr)
			}
		}()
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("Benchmarking %d target(s), %d iteration(s)", len(targets), iterations)))

	start := time.Now()
	summary, runErr := newOrchestratorFunc(cfg, m, logger, runHTML).Run(ctx, targets, iterations)
	if summary != nil {
		fmt.Fprintln(out, summaryTable(summary))
		fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("Artifacts written to %s in %s",
			cfg.OutDir, utils.FormatDuration(time.Since(start)))))
		if runShow {
			if err := showReport(cmd, cfg.OutDir); err != nil {
				return err
			}
		}
	}
	return runErr
}

// showReport prints report.md rendered for the terminal.
func showReport(cmd *cobra.Command, outDir string) error {
	data, err := os.ReadFile(filepath.Join(outDir, orchestrator.MarkdownFile))
	if err != nil {
		return fmt.Errorf("failed to read report: %w", err)
	}
	rendered, err := renderMarkdown(string(data))
	if err != nil {
		// Fallback to plain text
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), rendered)
	return nil
}
