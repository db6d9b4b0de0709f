// Copyright 2026 The coco-bonus Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package restab implements the result table produced by aggregating
// an allocator benchmark's protocol stream, and its JSON file format.
//
// A result table maps an allocator label to a mapping from iteration
// count to a [mean, sd] pair. Values are rounded to integers. Either
// slot of a pair may be missing if the benchmark never reported it.
//
// Tables remember the order in which labels and iteration counts were
// first inserted, so encoding is deterministic and matches the order
// of the stream.
package restab

// A Cell is a [mean, sd] record. A nil slot has not been measured.
type Cell [2]*int64

// NewCell returns a fully populated Cell.
func NewCell(mean, sd int64) Cell {
	return Cell{&mean, &sd}
}

// Mean returns the mean and whether it has been set.
func (c Cell) Mean() (int64, bool) {
	if c[0] == nil {
		return 0, false
	}
	return *c[0], true
}

// SD returns the standard deviation and whether it has been set.
func (c Cell) SD() (int64, bool) {
	if c[1] == nil {
		return 0, false
	}
	return *c[1], true
}

// A Series holds the records of a single allocator.
type Series struct {
	Label string

	iters []int
	cells map[int]*Cell
}

// Iterations returns the iteration counts of s in insertion order.
// The caller must not modify the returned slice.
func (s *Series) Iterations() []int {
	return s.iters
}

// Cell returns the record for n iterations.
func (s *Series) Cell(n int) (Cell, bool) {
	c, ok := s.cells[n]
	if !ok {
		return Cell{}, false
	}
	return *c, true
}

// Len returns the number of iteration counts in s.
func (s *Series) Len() int {
	return len(s.iters)
}

// reset installs an empty record for n, appending n to the order if it
// is new.
func (s *Series) reset(n int) *Cell {
	c, ok := s.cells[n]
	if !ok {
		c = new(Cell)
		s.cells[n] = c
		s.iters = append(s.iters, n)
		return c
	}
	*c = Cell{}
	return c
}

// cell returns the record for n, creating an empty one if needed.
func (s *Series) cell(n int) *Cell {
	if c, ok := s.cells[n]; ok {
		return c
	}
	return s.reset(n)
}

// A Table is a result table. The zero value is not usable; use
// NewTable.
type Table struct {
	labels []string
	series map[string]*Series
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{series: make(map[string]*Series)}
}

// Labels returns the allocator labels of t in insertion order.
// The caller must not modify the returned slice.
func (t *Table) Labels() []string {
	return t.labels
}

// Series returns the series for label, or nil if t has no such label.
func (t *Table) Series(label string) *Series {
	return t.series[label]
}

// Len returns the number of allocators in t.
func (t *Table) Len() int {
	return len(t.labels)
}

// Lookup returns the record for label at n iterations.
func (t *Table) Lookup(label string, n int) (Cell, bool) {
	s := t.series[label]
	if s == nil {
		return Cell{}, false
	}
	return s.Cell(n)
}

// Put stores a copy of c for label at n iterations, adding label and n
// to the insertion order if they are new.
func (t *Table) Put(label string, n int, c Cell) {
	cell := t.ensure(label).cell(n)
	for i, v := range c {
		if v != nil {
			x := *v
			cell[i] = &x
		} else {
			cell[i] = nil
		}
	}
}

// AddLabel adds an allocator with no records to t, if t does not
// already have label.
func (t *Table) AddLabel(label string) {
	t.ensure(label)
}

// ensure returns the series for label, creating an empty one if
// needed.
func (t *Table) ensure(label string) *Series {
	if s, ok := t.series[label]; ok {
		return s
	}
	s := &Series{Label: label, cells: make(map[int]*Cell)}
	t.series[label] = s
	t.labels = append(t.labels, label)
	return s
}
