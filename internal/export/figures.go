// Package export renders runs and sweeps to SVG or PNG figures.
//
// The output format follows the file extension of the destination path.
package export

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgsvg"

	"github.com/san-kum/jetsim/internal/jet"
	"github.com/san-kum/jetsim/internal/metrics"
	"github.com/san-kum/jetsim/internal/sweep"
)

const (
	DefaultWidth  = 8 * vg.Inch
	DefaultHeight = 6 * vg.Inch
	pngDPI        = 150
)

var loopColor = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}

func stylePlot(p *plot.Plot) {
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.Title.Padding = vg.Points(8)
	p.X.Label.TextStyle.Font.Size = vg.Points(12)
	p.Y.Label.TextStyle.Font.Size = vg.Points(12)
	p.X.Padding = vg.Points(6)
	p.Y.Padding = vg.Points(6)
	p.Add(plotter.NewGrid())
}

func xys(xs, ys []float64) plotter.XYs {
	n := min(len(xs), len(ys))
	pts := make(plotter.XYs, n)
	for i := 0; i < n; i++ {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	return pts
}

// PressureVolumeLoop draws pressure against displaced volume over the
// steady-state window the loop area is taken on.
func PressureVolumeLoop(path string, tr *jet.Trace) error {
	if tr == nil || tr.Len() < 2 {
		return fmt.Errorf("export: trace too short for a loop")
	}
	start := int(metrics.SteadyFraction * float64(tr.Len()))

	p := plot.New()
	p.Title.Text = "Pressure-volume loop"
	p.X.Label.Text = "dV (m^3)"
	p.Y.Label.Text = "p (Pa)"
	stylePlot(p)

	line, err := plotter.NewLine(xys(tr.Volume[start:], tr.Pressure[start:]))
	if err != nil {
		return err
	}
	line.LineStyle.Width = vg.Points(1.5)
	line.LineStyle.Color = loopColor
	p.Add(line)

	return save(path, DefaultWidth, DefaultHeight, func(dc draw.Canvas) { p.Draw(dc) })
}

// TraceChannels stacks one time-series panel per named channel.
func TraceChannels(path string, tr *jet.Trace, channels []string) error {
	if tr == nil || tr.Len() < 2 {
		return fmt.Errorf("export: trace too short to plot")
	}
	if len(channels) == 0 {
		return fmt.Errorf("export: no channels requested")
	}

	plots := make([][]*plot.Plot, len(channels))
	for i, name := range channels {
		values := tr.Channel(name)
		if values == nil {
			return fmt.Errorf("export: unknown channel %q", name)
		}

		p := plot.New()
		p.Y.Label.Text = name
		if i == len(channels)-1 {
			p.X.Label.Text = "time (s)"
		}
		stylePlot(p)

		line, err := plotter.NewLine(xys(tr.Time, values))
		if err != nil {
			return err
		}
		line.LineStyle.Color = plotutil.Color(i)
		p.Add(line)
		plots[i] = []*plot.Plot{p}
	}

	height := vg.Length(len(channels)) * 2 * vg.Inch
	return save(path, DefaultWidth, height, func(dc draw.Canvas) {
		tiles := draw.Tiles{Rows: len(channels), Cols: 1, PadY: vg.Points(4)}
		canvases := plot.Align(plots, tiles, dc)
		for i := range plots {
			plots[i][0].Draw(canvases[i][0])
		}
	})
}

// SweepCurves draws impulse against stroke ratio, one curve per tau_R.
func SweepCurves(path string, table *sweep.Table) error {
	rows, cols := table.Shape()
	if rows == 0 || cols == 0 {
		return fmt.Errorf("export: empty sweep table")
	}

	p := plot.New()
	p.Title.Text = "Effective impulse vs stroke ratio"
	p.X.Label.Text = "S = L/D"
	p.Y.Label.Text = "impulse (surrogate)"
	p.Legend.Top = true
	stylePlot(p)

	for i := 0; i < rows; i++ {
		row := table.Row(i)
		pts := make(plotter.XYs, len(row))
		for j, pt := range row {
			pts[j].X = pt.StrokeRatio
			pts[j].Y = pt.Impulse
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("tau_R=%g", table.TauValues[i]), line)
	}

	return save(path, DefaultWidth, DefaultHeight, func(dc draw.Canvas) { p.Draw(dc) })
}

// save renders onto an SVG or PNG canvas chosen by the path extension.
func save(path string, w, h vg.Length, render func(draw.Canvas)) error {
	var canvas interface {
		vg.CanvasSizer
		io.WriterTo
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".svg":
		canvas = vgsvg.New(w, h)
	case ".png":
		canvas = vgimg.PngCanvas{Canvas: vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(pngDPI))}
	default:
		return fmt.Errorf("export: unsupported figure format %q (want .svg or .png)", ext)
	}
	render(draw.New(canvas))

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if _, err := canvas.WriteTo(bw); err != nil {
		return fmt.Errorf("cannot write figure: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return f.Close()
}
