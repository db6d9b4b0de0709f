// Copyright 2026 The coco-bonus Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package allocfmt

import "fmt"

// Kind identifies the type of an Event.
type Kind int

const (
	// KindName is a control event. It announces that subsequent
	// measurements belong to a new allocator label.
	KindName Kind = 1 + iota
	// KindIterations announces the iteration count for which
	// subsequent measurements apply.
	KindIterations
	// KindMean is a mean measurement.
	KindMean
	// KindSD is a standard deviation measurement.
	KindSD
)

func (k Kind) String() string {
	switch k {
	case KindName:
		return "name"
	case KindIterations:
		return "iterations"
	case KindMean:
		return "mean"
	case KindSD:
		return "sd"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// An Event is a single decoded protocol line.
//
// Exactly one of the payload fields is meaningful, selected by Kind.
type Event struct {
	Kind Kind

	// Label is the allocator label of a KindName event.
	Label string

	// Iters is the iteration count of a KindIterations event.
	Iters int

	// Value is the measurement of a KindMean or KindSD event.
	Value float64

	fileName string
	line     int
}

// NameEvent returns a control event announcing label.
func NameEvent(label string) *Event {
	return &Event{Kind: KindName, Label: label}
}

// ItersEvent returns an iteration event for n iterations.
func ItersEvent(n int) *Event {
	return &Event{Kind: KindIterations, Iters: n}
}

// MeanEvent returns a mean measurement event.
func MeanEvent(v float64) *Event {
	return &Event{Kind: KindMean, Value: v}
}

// SDEvent returns a standard deviation measurement event.
func SDEvent(v float64) *Event {
	return &Event{Kind: KindSD, Value: v}
}

// Pos returns the file name and line number of e.
// If e was not read from a file, it returns "", 0.
func (e *Event) Pos() (fileName string, line int) {
	return e.fileName, e.line
}

// Clone returns a copy of e that the caller may retain.
func (e *Event) Clone() *Event {
	e2 := *e
	return &e2
}

// String formats e as it appears on the wire, without the sentinel.
func (e *Event) String() string {
	switch e.Kind {
	case KindName:
		return "name=" + e.Label
	case KindIterations:
		return fmt.Sprintf("iterations=%d", e.Iters)
	case KindMean, KindSD:
		return fmt.Sprintf("%s=%v", e.Kind, e.Value)
	}
	return e.Kind.String()
}
