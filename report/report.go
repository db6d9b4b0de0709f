// Copyright 2026 The coco-bonus Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package report formats result tables as LaTeX and HTML tables.
//
// Each table has one row per iteration count and a mean and a standard
// deviation column per allocator. Rows start at the smallest iteration
// count of the first allocator and double up to the largest.
package report

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aclements/go-gg/generic/slice"
	"github.com/aclements/go-moremath/stats"

	"github.com/TypeA2/coco-bonus/restab"
)

// An Input is a named result table, typically one result file.
type Input struct {
	Name  string
	Table *restab.Table
}

// Label returns the name used for in in chart legends: the base name
// of in.Name up to the first dot.
func (in Input) Label() string {
	base := filepath.Base(in.Name)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		return base[:i]
	}
	return base
}

// Options controls optional parts of a report.
type Options struct {
	// Geomean adds a row with the geometric mean of each column.
	Geomean bool
}

// missing is printed for a value that was never measured.
const missing = "--"

var errEmpty = errors.New("result table has no iteration counts")

type model struct {
	Name    string
	Labels  []string
	Rows    []row
	Geomean []string
}

type row struct {
	Iters int
	Cells []string // mean and sd, per label
}

// Rows returns the iteration counts reported for t.
//
// These are the powers-of-two multiples of the first allocator's
// smallest iteration count, up to its largest. If the smallest count
// is not positive, doubling would never terminate, so the first
// allocator's iteration counts are returned in increasing order
// instead.
func Rows(t *restab.Table) ([]int, error) {
	if t.Len() == 0 {
		return nil, errEmpty
	}
	first := t.Series(t.Labels()[0])
	if first.Len() == 0 {
		return nil, errEmpty
	}
	min := slice.Min(first.Iterations()).(int)
	max := slice.Max(first.Iterations()).(int)
	if min <= 0 {
		iters := append([]int(nil), first.Iterations()...)
		slice.Sort(iters)
		return iters, nil
	}
	var iters []int
	for i := min; ; i *= 2 {
		iters = append(iters, i)
		// Stop before doubling past max, which could overflow.
		if i > max/2 {
			break
		}
	}
	return iters, nil
}

func newModel(in Input, opts Options) (*model, error) {
	iters, err := Rows(in.Table)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", in.Name, err)
	}
	labels := in.Table.Labels()
	m := &model{Name: in.Name, Labels: labels}
	cols := make([][]float64, 2*len(labels))
	complete := make([]bool, 2*len(labels))
	for i := range complete {
		complete[i] = true
	}
	for _, n := range iters {
		r := row{Iters: n}
		for j, label := range labels {
			c, _ := in.Table.Lookup(label, n)
			mean, okMean := c.Mean()
			sd, okSD := c.SD()
			r.Cells = append(r.Cells, format(mean, okMean), format(sd, okSD))
			collect(&cols[2*j], &complete[2*j], mean, okMean)
			collect(&cols[2*j+1], &complete[2*j+1], sd, okSD)
		}
		m.Rows = append(m.Rows, r)
	}
	if opts.Geomean {
		for i, xs := range cols {
			if !complete[i] || len(xs) == 0 {
				m.Geomean = append(m.Geomean, missing)
				continue
			}
			m.Geomean = append(m.Geomean, strconv.FormatFloat(stats.GeoMean(xs), 'f', 0, 64))
		}
	}
	return m, nil
}

func format(v int64, ok bool) string {
	if !ok {
		return missing
	}
	return strconv.FormatInt(v, 10)
}

// collect adds v to a geomean column. The geometric mean is only
// defined for positive values, so a missing or non-positive value
// marks the column incomplete.
func collect(xs *[]float64, complete *bool, v int64, ok bool) {
	if !ok || v <= 0 {
		*complete = false
		return
	}
	*xs = append(*xs, float64(v))
}
