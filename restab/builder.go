// Copyright 2026 The coco-bonus Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package restab

import (
	"errors"
	"fmt"
	"math"

	"github.com/TypeA2/coco-bonus/allocfmt"
)

var (
	// ErrNoAllocator is returned for a measurement that arrives
	// before any name event.
	ErrNoAllocator = errors.New("measurement before any name event")

	// ErrNoIterations is returned for a measurement that arrives
	// before any iterations event.
	ErrNoIterations = errors.New("measurement before any iterations event")

	// ErrNotFinite is returned for a NaN or infinite measurement.
	ErrNotFinite = errors.New("measurement is not finite")

	// ErrRange is returned for a measurement that does not fit in an
	// int64 once rounded.
	ErrRange = errors.New("measurement out of range")
)

// A Builder folds a stream of protocol events into a Table.
//
// The Builder's state is the current allocator and the current
// iteration count, either of which may be unset. Control events update
// the state and measurement events write into the record it selects.
type Builder struct {
	table *Table

	alloc     *Series // current allocator, or nil
	iters     int     // current iteration count, if haveIters
	haveIters bool

	minIters, maxIters int
}

// NewBuilder returns a Builder with an empty table and no state.
func NewBuilder() *Builder {
	return &Builder{table: NewTable()}
}

// Table returns the table built so far. The table continues to change
// with each call to Add.
func (b *Builder) Table() *Table {
	return b.table
}

// Current returns the current allocator label and iteration count.
// ok reports whether both are set.
func (b *Builder) Current() (label string, iters int, ok bool) {
	if b.alloc != nil {
		label = b.alloc.Label
	}
	return label, b.iters, b.alloc != nil && b.haveIters
}

// IterRange returns the first and the last iteration count seen.
// ok is false if no iterations event has been seen.
func (b *Builder) IterRange() (min, max int, ok bool) {
	return b.minIters, b.maxIters, b.haveIters
}

// Add applies a single event.
//
// A name event that repeats a label already present in the table, while
// an iteration count is active, resets that label's record for the
// count to [null, null], discarding earlier measurements for the pair.
func (b *Builder) Add(ev *allocfmt.Event) error {
	switch ev.Kind {
	case allocfmt.KindName:
		b.alloc = b.table.ensure(ev.Label)
		if b.haveIters {
			b.alloc.reset(b.iters)
		}

	case allocfmt.KindIterations:
		if !b.haveIters {
			b.minIters = ev.Iters
			b.haveIters = true
		}
		b.iters = ev.Iters
		b.maxIters = ev.Iters

	case allocfmt.KindMean, allocfmt.KindSD:
		if b.alloc == nil {
			return posError(ev, ErrNoAllocator)
		}
		if !b.haveIters {
			return posError(ev, ErrNoIterations)
		}
		if math.IsNaN(ev.Value) || math.IsInf(ev.Value, 0) {
			return posError(ev, ErrNotFinite)
		}
		if math.Abs(ev.Value) >= 1<<63 {
			return posError(ev, ErrRange)
		}
		v := int64(math.RoundToEven(ev.Value))
		slot := 0
		if ev.Kind == allocfmt.KindSD {
			slot = 1
		}
		b.alloc.cell(b.iters)[slot] = &v

	default:
		return posError(ev, fmt.Errorf("unknown event kind %v", ev.Kind))
	}
	return nil
}

// AddReader applies every record from r until EOF. It stops at the
// first syntax error, aggregation error, or I/O error.
//
// If observe is non-nil, it is called with each event before the event
// is applied. The event is only valid for the duration of the call.
func (b *Builder) AddReader(r *allocfmt.Reader, observe func(*allocfmt.Event)) error {
	for r.Scan() {
		switch rec := r.Result().(type) {
		case *allocfmt.SyntaxError:
			return rec
		case *allocfmt.Event:
			if observe != nil {
				observe(rec)
			}
			if err := b.Add(rec); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unexpected record %T", rec)
		}
	}
	return r.Err()
}

// posError annotates err with ev's position, if it has one.
func posError(ev *allocfmt.Event, err error) error {
	fileName, line := ev.Pos()
	if fileName == "" {
		return fmt.Errorf("%s: %w", ev, err)
	}
	return fmt.Errorf("%s:%d: %s: %w", fileName, line, ev, err)
}
