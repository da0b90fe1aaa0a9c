package chart

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// PNG renders grouped bar charts with gonum/plot.
type PNG struct {
	Width    vg.Length
	Height   vg.Length
	BarWidth vg.Length
}

// NewPNG returns a renderer producing 10x5 inch images.
func NewPNG() *PNG {
	return &PNG{Width: 10 * vg.Inch, Height: 5 * vg.Inch, BarWidth: vg.Points(20)}
}

func (r *PNG) Render(w io.Writer, spec Spec) error {
	if spec.Empty() {
		return fmt.Errorf("chart %q has no data", spec.Title)
	}

	p := plot.New()
	p.Title.Text = spec.Title
	p.X.Label.Text = spec.XLabel
	p.Y.Label.Text = spec.YLabel
	p.Y.Min = 0
	p.Legend.Top = true

	barWidth := r.BarWidth
	if barWidth == 0 {
		barWidth = vg.Points(20)
	}

	n := len(spec.Series)
	for i, s := range spec.Series {
		bars, err := plotter.NewBarChart(values(s.Values, len(spec.Categories)), barWidth)
		if err != nil {
			return fmt.Errorf("series %q: %w", s.Name, err)
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = plotutil.Color(i)
		// Centre the group of bars on each category tick.
		bars.Offset = vg.Length(float64(i)-float64(n-1)/2) * barWidth
		p.Add(bars)
		if n > 1 {
			p.Legend.Add(s.Name, bars)
		}
	}
	p.NominalX(spec.Categories...)

	wt, err := p.WriterTo(r.Width, r.Height, "png")
	if err != nil {
		return fmt.Errorf("failed to render %q: %w", spec.Title, err)
	}
	_, err = wt.WriteTo(w)
	return err
}

func values(vs []*float64, n int) plotter.Values {
	out := make(plotter.Values, n)
	for i := 0; i < n && i < len(vs); i++ {
		if vs[i] != nil {
			out[i] = *vs[i]
		}
	}
	return out
}
