// Package diagnostics renders developer-facing convergence plots for
// the least-squares solve. It is never called by the decoder itself;
// cmd/tvmdecode wires it behind an opt-in flag.
package diagnostics

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/tvmseq/tvmdecode/linalg"
)

// PlotResidualHistory renders one line series per solved column of
// history (iteration index vs. relative residual on a log scale) to a
// PNG at path.
func PlotResidualHistory(path string, history []linalg.ColumnResidualLog) error {
	if len(history) == 0 {
		return fmt.Errorf("diagnostics: no residual history to plot")
	}

	p := plot.New()
	p.Title.Text = "Least-squares solver convergence"
	p.X.Label.Text = "iteration"
	p.Y.Label.Text = "relative residual"
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{}

	for _, col := range history {
		if len(col.Residuals) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(col.Residuals))
		for i, r := range col.Residuals {
			pts[i].X = float64(i)
			pts[i].Y = r
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("diagnostics: building line for column %d: %w", col.Column, err)
		}
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("column %d", col.Column), line)
	}

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("diagnostics: saving plot to %s: %w", path, err)
	}
	return nil
}
