// Package orchestrator runs every selected target and writes the run artifacts.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"uibench/internal/benchmark"
	"uibench/internal/chart"
	"uibench/internal/report"
	"uibench/internal/runner"
)

// Artifact names, relative to the output directory.
const (
	CSVFile      = "results.csv"
	MarkdownFile = "report.md"
)

// SelectAll selects every configured target.
const SelectAll = "all"

// ErrUnknownTarget is returned for a selector naming no configured target.
var ErrUnknownTarget = errors.New("unknown target")

// TargetRunner benchmarks one target.
type TargetRunner interface {
	Run(ctx context.Context, t benchmark.Target, iterations int) (*benchmark.TargetReport, error)
}

// StoreFunc opens the artifact store of an output directory.
type StoreFunc func(dir string) (benchmark.Store, error)

// RunnerFunc builds the TargetRunner that persists into store.
type RunnerFunc func(store benchmark.Store) TargetRunner

// Orchestrator drives a whole run.
type Orchestrator struct {
	OutDir    string
	NewStore  StoreFunc
	NewRunner RunnerFunc
	Charts    chart.Renderer
	// Page renders plots/charts.html; nil skips it.
	Page   chart.PageRenderer
	Params report.Params
	Logger *slog.Logger
	Now    func() time.Time
}

// New returns an Orchestrator writing PNG charts into a FileStore at outDir.
func New(outDir string, newRunner RunnerFunc, params report.Params, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		OutDir:    outDir,
		NewStore:  FileStore,
		NewRunner: newRunner,
		Charts:    chart.NewPNG(),
		Params:    params,
		Logger:    logger,
		Now:       time.Now,
	}
}

// FileStore is the default StoreFunc.
func FileStore(dir string) (benchmark.Store, error) {
	s, err := benchmark.NewFileStore(dir)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ResolveTargets picks the targets named by selector; "all" or "" selects
// every configured target.
func ResolveTargets(all []benchmark.Target, selector string) ([]benchmark.Target, error) {
	selector = strings.TrimSpace(selector)
	if selector == "" || strings.EqualFold(selector, SelectAll) {
		return append([]benchmark.Target(nil), all...), nil
	}
	for _, t := range all {
		if strings.EqualFold(t.Name, selector) {
			return []benchmark.Target{t}, nil
		}
	}

	names := make([]string, len(all))
	for i, t := range all {
		names[i] = t.Name
	}
	return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownTarget, selector, strings.Join(names, ", "))
}

// Run benchmarks targets one after another and writes every artifact. A
// target that fails is reported with absent statistics; only output
// failures and cancellation make Run return an error.
func (o *Orchestrator) Run(ctx context.Context, targets []benchmark.Target, iterations int) (*benchmark.RunSummary, error) {
	store, err := o.NewStore(o.OutDir)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare output directory: %w", err)
	}
	run := o.NewRunner(store)

	runID := uuid.NewString()
	log := o.Logger.With("run_id", runID)
	log.Info("starting run", "targets", len(targets), "iterations", iterations, "out_dir", o.OutDir)

	// Targets share ports, so a single worker serializes them.
	reports := make([]benchmark.TargetReport, len(targets))
	pool := runner.NewWorkerPool(1, log)
	pool.Start(ctx)
	for i, t := range targets {
		pool.Submit(func(ctx context.Context, workerID int) error {
			rep, err := run.Run(ctx, t, iterations)
			if err != nil {
				log.Error("target failed", "target", t.Name, "error", err)
				rep = benchmark.FailedReport(t.Name, iterations, err, o.now())
			}
			reports[i] = *rep
			return err
		})
	}
	pool.Wait()
	pool.Stop()

	summary := &benchmark.RunSummary{
		RunID:      runID,
		Timestamp:  o.now(),
		Iterations: iterations,
		Reports:    reports,
	}
	if err := store.SaveAll(*summary); err != nil {
		return summary, fmt.Errorf("failed to write %s: %w", benchmark.AllResultsFile, err)
	}
	if err := o.writeArtifacts(log, store, summary); err != nil {
		return summary, err
	}

	log.Info("run complete", "failed_targets", pool.FailedCount())
	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("run interrupted: %w", err)
	}
	return summary, nil
}

// Rebuild regenerates the CSV, Markdown and charts from all-results.json.
func (o *Orchestrator) Rebuild(ctx context.Context) (*benchmark.RunSummary, error) {
	store, err := o.NewStore(o.OutDir)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare output directory: %w", err)
	}
	summary, err := store.LoadAll()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log := o.Logger.With("run_id", summary.RunID)
	if err := o.writeArtifacts(log, store, summary); err != nil {
		return summary, err
	}
	log.Info("report rebuilt", "reports", len(summary.Reports))
	return summary, nil
}

// writeArtifacts writes the CSV, the Markdown report and the charts. Chart
// failures are logged and do not fail the run.
func (o *Orchestrator) writeArtifacts(log *slog.Logger, store benchmark.Store, summary *benchmark.RunSummary) error {
	reports := summary.Reports

	if err := store.WriteFile(CSVFile, []byte(report.CSV(reports, o.Params))); err != nil {
		return fmt.Errorf("failed to write %s: %w", CSVFile, err)
	}
	md := report.Markdown(reports, o.Params, summary.Timestamp)
	if err := store.WriteFile(MarkdownFile, []byte(md)); err != nil {
		return fmt.Errorf("failed to write %s: %w", MarkdownFile, err)
	}

	specs := []struct {
		file string
		spec chart.Spec
	}{
		{report.RenderChartFile, report.RenderChart(reports)},
		{report.BulkChartFile, report.BulkChart(reports)},
		{report.ChurnChartFile, report.ChurnChart(reports)},
	}
	all := make([]chart.Spec, 0, len(specs))
	for _, s := range specs {
		all = append(all, s.spec)
		if s.spec.Empty() {
			log.Warn("nothing to chart", "file", s.file)
			continue
		}
		if err := o.renderFile(store, s.file, func(w io.Writer) error { return o.Charts.Render(w, s.spec) }); err != nil {
			log.Warn("failed to render chart", "file", s.file, "error", err)
		}
	}

	if o.Page != nil {
		err := o.renderFile(store, report.HTMLChartFile, func(w io.Writer) error {
			return o.Page.RenderPage(w, "uibench results", all...)
		})
		if err != nil {
			log.Warn("failed to render chart page", "file", report.HTMLChartFile, "error", err)
		}
	}
	return nil
}

func (o *Orchestrator) renderFile(store benchmark.Store, name string, render func(w io.Writer) error) error {
	f, err := store.Create(name)
	if err != nil {
		return err
	}
	if err := render(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (o *Orchestrator) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}
