// Package chart turns labeled series into comparison charts.
package chart

import "io"

// Series is one named set of bars, aligned with Spec.Categories.
// A nil value is drawn as an empty bar.
type Series struct {
	Name   string
	Values []*float64
}

// Spec is the backend-independent input of a bar chart.
type Spec struct {
	Title      string
	XLabel     string
	YLabel     string
	Categories []string
	Series     []Series
}

// Empty reports whether the chart has nothing to draw.
func (s Spec) Empty() bool {
	return len(s.Categories) == 0 || len(s.Series) == 0
}

// Renderer draws a single chart as an image.
type Renderer interface {
	Render(w io.Writer, spec Spec) error
}

// PageRenderer draws several charts into one document.
type PageRenderer interface {
	RenderPage(w io.Writer, title string, specs ...Spec) error
}
