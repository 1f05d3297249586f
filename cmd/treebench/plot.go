package main

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotMeanInsertLatency renders one bar per structure, the mean
// per-key insert latency recorded during its load phase, to path.
func PlotMeanInsertLatency(path string, means map[string]float64, order []string) error {
	p := plot.New()
	p.Title.Text = "Mean insert latency"
	p.Y.Label.Text = "ns/op"

	values := make(plotter.Values, len(order))
	for i, name := range order {
		values[i] = means[name]
	}

	bars, err := plotter.NewBarChart(values, vg.Points(30))
	if err != nil {
		return fmt.Errorf("treebench: plot: %w", err)
	}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(order...)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("treebench: plot save: %w", err)
	}
	return nil
}
