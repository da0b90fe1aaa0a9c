package chart

import (
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// HTML renders interactive bar charts with go-echarts.
type HTML struct{}

// NewHTML returns an HTML page renderer.
func NewHTML() *HTML {
	return &HTML{}
}

// RenderPage writes every non-empty chart into a single page.
func (h *HTML) RenderPage(w io.Writer, title string, specs ...Spec) error {
	page := components.NewPage()
	page.PageTitle = title
	for _, spec := range specs {
		if spec.Empty() {
			continue
		}
		page.AddCharts(h.bar(spec))
	}
	return page.Render(w)
}

func (h *HTML) Render(w io.Writer, spec Spec) error {
	return h.bar(spec).Render(w)
}

func (h *HTML) bar(spec Spec) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: spec.Title}),
		charts.WithXAxisOpts(opts.XAxis{Name: spec.XLabel}),
		charts.WithYAxisOpts(opts.YAxis{Name: spec.YLabel}),
	)

	bar.SetXAxis(spec.Categories)
	for _, s := range spec.Series {
		data := make([]opts.BarData, len(spec.Categories))
		for i := range data {
			if i < len(s.Values) && s.Values[i] != nil {
				data[i] = opts.BarData{Value: *s.Values[i]}
			} else {
				data[i] = opts.BarData{Value: "-"}
			}
		}
		bar.AddSeries(s.Name, data)
	}
	return bar
}
