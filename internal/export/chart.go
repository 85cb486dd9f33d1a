package export

import (
	"errors"
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/joelkehle/b2g-transformer/internal/valuation"
)

var (
	ErrNoCashFlow        = errors.New("scenario has no cash flow")
	ErrUnsupportedFormat = errors.New("unsupported chart format")

	barColor  = color.RGBA{R: 148, G: 163, B: 184, A: 255}
	lineColor = color.RGBA{R: 16, G: 185, B: 129, A: 255}
)

// RenderCashFlowChart draws yearly cash flow as bars and the cumulative total
// as a line. Axis labels stay ASCII since the bundled plot fonts have no CJK
// glyphs.
func RenderCashFlowChart(w io.Writer, s *valuation.Scenario, format string) error {
	switch format {
	case "png", "svg":
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	points := valuation.CashFlowSeries(s)
	if len(points) == 0 {
		return ErrNoCashFlow
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Scenario %s cash flow (10k NTD)", s.ID)
	p.Y.Label.Text = "10k NTD"
	p.Add(plotter.NewGrid())

	yearly := make(plotter.Values, len(points))
	cumulative := make(plotter.XYs, len(points))
	labels := make([]string, len(points))
	for i, pt := range points {
		yearly[i] = pt.CashFlow
		cumulative[i].X = float64(i)
		cumulative[i].Y = pt.Cumulative
		labels[i] = fmt.Sprintf("Y%d", i)
	}
	labels[0] = "Build"

	bars, err := plotter.NewBarChart(yearly, vg.Points(12))
	if err != nil {
		return fmt.Errorf("bar chart: %w", err)
	}
	bars.Color = barColor
	bars.LineStyle.Width = vg.Length(0)

	line, err := plotter.NewLine(cumulative)
	if err != nil {
		return fmt.Errorf("cumulative line: %w", err)
	}
	line.Color = lineColor
	line.Width = vg.Points(2)

	p.Add(bars, line)
	p.Legend.Add("yearly", bars)
	p.Legend.Add("cumulative", line)
	p.Legend.Top = true
	p.NominalX(labels...)

	wt, err := p.WriterTo(8*vg.Inch, 4*vg.Inch, format)
	if err != nil {
		return fmt.Errorf("chart writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	return nil
}
