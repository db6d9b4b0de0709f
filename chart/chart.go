// Copyright 2026 The coco-bonus Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package chart draws result tables as line charts.
//
// A chart has two stacked panels, one for the mean durations and one
// for the standard deviations. Each allocator of each input is one
// line, plotted against the iteration count on a logarithmic axis.
package chart

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aclements/go-gg/generic/slice"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/TypeA2/coco-bonus/report"
	"github.com/TypeA2/coco-bonus/restab"
)

// Options controls the size of a chart. Zero values select the
// defaults.
type Options struct {
	Width, Height vg.Length
}

const (
	defaultWidth  = 20 * vg.Centimeter
	defaultHeight = 24 * vg.Centimeter
)

var errNoData = errors.New("no measurements to plot")

// Draw renders inputs to a new file at path. The image format is taken
// from the file extension and may be any format supported by
// draw.NewFormattedCanvas, such as png, svg, or pdf. Draw refuses to
// overwrite an existing file.
func Draw(inputs []report.Input, path string, opts Options) error {
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if format == "" {
		return fmt.Errorf("%s: cannot determine image format", path)
	}
	if err := restab.CheckOutput(path); err != nil {
		return err
	}
	if opts.Width == 0 {
		opts.Width = defaultWidth
	}
	if opts.Height == 0 {
		opts.Height = defaultHeight
	}

	avg, sd, err := Panels(inputs)
	if err != nil {
		return err
	}
	c, err := draw.NewFormattedCanvas(opts.Width, opts.Height, format)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	tiles := draw.Tiles{
		Rows:      2,
		Cols:      1,
		PadY:      vg.Centimeter,
		PadTop:    vg.Millimeter * 5,
		PadBottom: vg.Millimeter * 5,
		PadLeft:   vg.Millimeter * 5,
		PadRight:  vg.Millimeter * 5,
	}
	canvases := plot.Align([][]*plot.Plot{{avg}, {sd}}, tiles, draw.New(c))
	avg.Draw(canvases[0][0])
	sd.Draw(canvases[1][0])

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0666)
	if err != nil {
		return err
	}
	if _, err := c.WriteTo(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// Panels builds the mean and standard deviation panels for inputs.
func Panels(inputs []report.Input) (avg, sd *plot.Plot, err error) {
	var all []int
	for _, in := range inputs {
		for _, label := range in.Table.Labels() {
			all = slice.NubAppend(all, in.Table.Series(label).Iterations()).([]int)
		}
	}
	slice.Sort(all)
	var ticks []plot.Tick
	for _, n := range all {
		if n > 0 {
			ticks = append(ticks, plot.Tick{Value: float64(n), Label: strconv.Itoa(n)})
		}
	}
	if len(ticks) == 0 {
		return nil, nil, errNoData
	}

	avg = newPanel("Average duration", ticks)
	sd = newPanel("Standard deviation", ticks)
	i := 0
	for _, in := range inputs {
		for _, label := range in.Table.Labels() {
			s := in.Table.Series(label)
			name := in.Label() + " - " + label
			if err := addLine(avg, name, i, points(s, restab.Cell.Mean)); err != nil {
				return nil, nil, err
			}
			if err := addLine(sd, name, i, points(s, restab.Cell.SD)); err != nil {
				return nil, nil, err
			}
			i++
		}
	}
	for _, p := range []*plot.Plot{avg, sd} {
		p.X.Min = ticks[0].Value
		p.X.Max = ticks[len(ticks)-1].Value
		if p.X.Min == p.X.Max {
			p.X.Min /= 2
			p.X.Max *= 2
		}
	}
	return avg, sd, nil
}

func newPanel(title string, ticks []plot.Tick) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "# of iterations"
	p.X.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.ConstantTicks(ticks)
	p.Y.Label.Text = "Duration (ns)"
	p.Legend.Top = true
	p.Legend.Left = true
	p.Legend.Padding = vg.Millimeter
	p.Add(plotter.NewGrid())
	return p
}

// points returns the values of one slot of s in increasing order of
// iteration count. Unset slots and iteration counts that cannot be
// drawn on a log axis are skipped.
func points(s *restab.Series, slot func(restab.Cell) (int64, bool)) plotter.XYs {
	iters := append([]int(nil), s.Iterations()...)
	slice.Sort(iters)
	var xys plotter.XYs
	for _, n := range iters {
		if n <= 0 {
			continue
		}
		c, _ := s.Cell(n)
		if v, ok := slot(c); ok {
			xys = append(xys, plotter.XY{X: float64(n), Y: float64(v)})
		}
	}
	return xys
}

func addLine(p *plot.Plot, name string, i int, xys plotter.XYs) error {
	if len(xys) == 0 {
		return nil
	}
	l, pts, err := plotter.NewLinePoints(xys)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	l.Color = plotutil.Color(i)
	pts.Color = plotutil.Color(i)
	pts.Shape = plotutil.Shape(i)
	p.Add(l, pts)
	p.Legend.Add(name, l, pts)
	return nil
}
