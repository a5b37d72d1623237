/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package plot

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	gonumplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"jinr.ru/greenlab/go-qldet/pkg/qldet"
)

const (
	FormatPNG  = "png"
	FormatHTML = "html"

	labelSample   = "Sample"
	labelHbw      = "Half bandwidth (Hz)"
	labelDetuning = "Detuning (Hz)"
)

var (
	hbwColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	detColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// Limits is a fixed y axis range
type Limits struct {
	Lo float64
	Hi float64
}

func (l Limits) String() string {
	return strconv.FormatFloat(l.Lo, 'f', -1, 64) + "," + strconv.FormatFloat(l.Hi, 'f', -1, 64)
}

// ParseLimits parses "lo,hi"
func ParseLimits(s string) (Limits, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Limits{}, fmt.Errorf("Wrong limits %q. Must be lo,hi", s)
	}
	var values [2]float64
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return Limits{}, fmt.Errorf("Wrong limits %q. %q is not a number", s, part)
		}
		values[i] = v
	}
	if values[0] >= values[1] {
		return Limits{}, fmt.Errorf("Wrong limits %q. Lower limit must be below upper", s)
	}
	return Limits{Lo: values[0], Hi: values[1]}, nil
}

// LimitsFromSlice converts a [lo, hi] config value
func LimitsFromSlice(v []float64) (Limits, error) {
	if len(v) != 2 || v[0] >= v[1] {
		return Limits{}, fmt.Errorf("Wrong limits %v. Must be [lo, hi]", v)
	}
	return Limits{Lo: v[0], Hi: v[1]}, nil
}

type Options struct {
	Title     string
	Width     float64 // inches
	Height    float64 // inches
	BwLimits  Limits
	DetLimits Limits
}

// FormatFromPath guesses the output format from the file extension
func FormatFromPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".html") {
		return FormatHTML
	}
	return FormatPNG
}

func newTracePlot(values []float64, ylabel string, c color.Color, limits Limits) (*gonumplot.Plot, error) {
	p := gonumplot.New()
	p.X.Label.Text = labelSample
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())
	if len(values) > 0 {
		pts := make(plotter.XYs, len(values))
		for i, v := range values {
			pts[i] = plotter.XY{X: float64(i), Y: v}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		line.Color = c
		line.Width = vg.Points(1)
		p.Add(line)
	}
	// Add expands the ranges to the data, the limits win
	p.Y.Min = limits.Lo
	p.Y.Max = limits.Hi
	if len(values) < 2 {
		p.X.Min = 0
		p.X.Max = 1
	}
	return p, nil
}

// RenderPNG draws the half bandwidth and the detuning side by side
func RenderPNG(w io.Writer, traces *qldet.ScaledTraces, o *Options) error {
	pHbw, err := newTracePlot(traces.HalfBandwidthHz, labelHbw, hbwColor, o.BwLimits)
	if err != nil {
		return err
	}
	pDet, err := newTracePlot(traces.DetuningHz, labelDetuning, detColor, o.DetLimits)
	if err != nil {
		return err
	}
	pHbw.Title.Text = o.Title

	img := vgimg.New(vg.Length(o.Width)*vg.Inch, vg.Length(o.Height)*vg.Inch)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      1,
		Cols:      2,
		PadX:      vg.Millimeter * 4,
		PadY:      vg.Millimeter * 2,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}
	canvases := gonumplot.Align([][]*gonumplot.Plot{{pHbw, pDet}}, tiles, dc)
	pHbw.Draw(canvases[0][0])
	pDet.Draw(canvases[0][1])

	png := vgimg.PngCanvas{Canvas: img}
	_, err = png.WriteTo(w)
	return err
}

func newTraceChart(values []float64, title, ylabel string, limits Limits, width string) *charts.Line {
	xs := make([]int, len(values))
	data := make([]opts.LineData, len(values))
	for i, v := range values {
		xs[i] = i
		data[i] = opts.LineData{Value: v}
	}
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: width, Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}),
		charts.WithXAxisOpts(opts.XAxis{Name: labelSample, NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: ylabel, Min: limits.Lo, Max: limits.Hi}),
	)
	line.SetXAxis(xs).AddSeries(ylabel, data, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	return line
}

// RenderHTML writes an interactive page with both traces
func RenderHTML(w io.Writer, traces *qldet.ScaledTraces, o *Options) error {
	width := fmt.Sprintf("%dpx", int(o.Width*96/2))
	page := components.NewPage()
	page.PageTitle = o.Title
	page.AddCharts(
		newTraceChart(traces.HalfBandwidthHz, "Half bandwidth", labelHbw, o.BwLimits, width),
		newTraceChart(traces.DetuningHz, "Detuning", labelDetuning, o.DetLimits, width),
	)
	return page.Render(w)
}

// Render ...
func Render(w io.Writer, format string, traces *qldet.ScaledTraces, o *Options) error {
	switch format {
	case FormatPNG:
		return RenderPNG(w, traces, o)
	case FormatHTML:
		return RenderHTML(w, traces, o)
	}
	return fmt.Errorf("Wrong plot format %q. Must be one of: png, html", format)
}

// WriteFile renders into a temporary file and renames it over path, so a
// viewer polling the file never sees a partial image
func WriteFile(path, format string, traces *qldet.ScaledTraces, o *Options) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".qldet-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())
	if err := Render(f, format, traces, o); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}
