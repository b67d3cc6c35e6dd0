package report

import (
	"errors"
	"fmt"
	"image/color"
	"io"

	"github.com/cepro/solarsim/telemetry"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const (
	plotWidth  = 10 * vg.Inch
	plotHeight = 5 * vg.Inch
)

var (
	rawColor     = color.RGBA{R: 230, G: 159, B: 0, A: 255}
	clippedColor = color.RGBA{R: 0, G: 114, B: 178, A: 255}
	loadColor    = color.RGBA{R: 120, G: 120, B: 120, A: 255}
	limitColor   = color.RGBA{R: 213, G: 94, B: 0, A: 255}
)

// DayPlot draws the raw solar output, the clipped output, the load and the clipping limit against the hour of day for
// the given readings, which would normally all be from the same day.
func DayPlot(readings []telemetry.PlantReading, clippingLimit float64) (*plot.Plot, error) {
	if len(readings) == 0 {
		return nil, errors.New("no readings to plot")
	}

	raw := make(plotter.XYs, len(readings))
	clipped := make(plotter.XYs, len(readings))
	load := make(plotter.XYs, len(readings))
	for i, reading := range readings {
		raw[i].X, raw[i].Y = reading.Tick.Hour, reading.SolarRawPower
		clipped[i].X, clipped[i].Y = reading.Tick.Hour, reading.SolarPower
		load[i].X, load[i].Y = reading.Tick.Hour, reading.LoadPower
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Solar output on day %d", readings[0].Tick.DayOfYear)
	p.X.Label.Text = "Hour"
	p.Y.Label.Text = "Power (kW)"
	p.X.Min, p.X.Max = 0, 24
	p.Add(plotter.NewGrid())

	for _, series := range []struct {
		name  string
		xys   plotter.XYs
		color color.Color
		width vg.Length
	}{
		{"Raw DC", raw, rawColor, vg.Points(1.5)},
		{"AC after clipping", clipped, clippedColor, vg.Points(2)},
		{"Load", load, loadColor, vg.Points(1)},
	} {
		line, err := plotter.NewLine(series.xys)
		if err != nil {
			return nil, fmt.Errorf("create %s line: %w", series.name, err)
		}
		line.Color = series.color
		line.Width = series.width
		p.Add(line)
		p.Legend.Add(series.name, line)
	}

	limit := plotter.NewFunction(func(float64) float64 { return clippingLimit })
	limit.Color = limitColor
	limit.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(limit)
	p.Legend.Add("Clipping limit", limit)
	p.Legend.Top = true

	return p, nil
}

// WritePNG renders the plot as a PNG to `w`.
func WritePNG(p *plot.Plot, w io.Writer) error {
	writerTo, err := p.WriterTo(plotWidth, plotHeight, "png")
	if err != nil {
		return fmt.Errorf("render plot: %w", err)
	}
	_, err = writerTo.WriteTo(w)
	if err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}

// SavePNG renders the plot as a PNG file at `path`.
func SavePNG(p *plot.Plot, path string) error {
	err := p.Save(plotWidth, plotHeight, path)
	if err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}
