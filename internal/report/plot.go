package report

import (
	"errors"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("report: no data")

// SaveErrorHistoryPlot writes the per-iteration average error as a line
// plot. The image format follows the file extension (png, svg, pdf, ...).
func SaveErrorHistoryPlot(path string, history []float64) error {
	if len(history) == 0 {
		return ErrNoData
	}

	p := plot.New()
	p.Title.Text = "Relaxation error"
	p.X.Label.Text = "Iteration"
	p.Y.Label.Text = "Average error (px)"
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(history))
	for i, e := range history {
		pts[i] = plotter.XY{X: float64(i + 1), Y: e}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("build error line: %w", err)
	}
	line.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add("avg error", line)
	p.Legend.Top = true
	p.Legend.Left = false

	if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("save error plot: %w", err)
	}
	return nil
}
