package main

import (
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"uibench/internal/benchmark"
	"uibench/internal/report"
	"uibench/internal/utils"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFF")).
			Background(lipgloss.Color("#7D56F4")).
			Bold(true).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("46")).
		Bold(true)

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// summaryTable shows one row per target with its headline medians.
func summaryTable(summary *benchmark.RunSummary) string {
	sizes := report.Sizes(summary.Reports)
	largest := "render"
	if len(sizes) > 0 {
		largest = "render@" + strconv.Itoa(slices.Max(sizes))
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("target", "status", "iterations", largest, "bulk", "churn")

	for _, r := range summary.Reports {
		status := okStyle.Render("ok")
		if r.Failed() {
			status = failStyle.Render("failed")
		}
		var render *float64
		if len(sizes) > 0 {
			render = report.Value(r.Stats.Render[slices.Max(sizes)], report.Median)
		}
		t.Row(
			r.Framework,
			status,
			strconv.Itoa(len(r.Raw)),
			utils.FormatMillis(render),
			utils.FormatMillis(report.Value(r.Stats.Bulk, report.Median)),
			utils.FormatMillis(report.Value(r.Stats.Churn, report.Median)),
		)
	}

	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		return cellStyle
	})

	var b strings.Builder
	b.WriteString(t.String())
	for _, r := range summary.Reports {
		if r.Failed() {
			b.WriteString("\n" + failStyle.Render(r.Framework+": ") + r.Error)
		}
	}
	return b.String()
}

// targetsTable lists the configured targets.
func targetsTable(targets []benchmark.Target) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("name", "url", "dir", "build", "start")

	for _, tg := range targets {
		t.Row(tg.Name, tg.URL(), tg.Dir, strings.Join(tg.Build, " "), strings.Join(tg.Start, " "))
	}

	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		return cellStyle
	})
	return t.String()
}

// renderMarkdown formats markdown for the terminal.
func renderMarkdown(md string) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", err
	}
	return renderer.Render(md)
}
