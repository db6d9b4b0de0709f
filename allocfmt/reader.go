// Copyright 2026 The coco-bonus Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package allocfmt reads and writes the sentinel line protocol emitted
// by allocator benchmark executables.
//
// A benchmark writes ordinary log output to stdout interleaved with
// protocol lines. A protocol line starts with '!' and has the form
//
//	!<name>=<value>
//
// where name is one of "name", "iterations", "mean", or "sd". All other
// lines are ignored.
package allocfmt

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
)

// A Reader reads the sentinel protocol.
//
// Its API is modeled on bufio.Scanner. A Reader retains ownership of
// the Events it returns; a caller should copy anything it needs to
// retain.
//
// To construct a new Reader, either call NewReader, or call Reset on
// a zeroed Reader.
type Reader struct {
	br  *bufio.Reader
	buf []byte // current protocol line
	err error  // current I/O error

	fileName string
	line     int

	event Event
	rec   Record
}

// A SyntaxError represents a malformed protocol line.
type SyntaxError struct {
	FileName string
	Line     int
	Msg      string
}

func (e *SyntaxError) Pos() (fileName string, line int) {
	return e.FileName, e.Line
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.FileName, e.Line, e.Msg)
}

var noResult = &SyntaxError{"", 0, "Reader.Scan has not been called"}

// maxLine is the longest protocol line the Reader accepts. Other
// lines may have any length.
const maxLine = 1 << 20

// NewReader constructs a reader that parses the sentinel protocol from
// r. fileName is used in error messages; it is purely diagnostic.
func NewReader(r io.Reader, fileName string) *Reader {
	reader := new(Reader)
	reader.Reset(r, fileName)
	return reader
}

// Reset resets the reader to begin reading from a new input.
func (r *Reader) Reset(ior io.Reader, fileName string) {
	if r.br == nil {
		r.br = bufio.NewReaderSize(ior, 64<<10)
	} else {
		r.br.Reset(ior)
	}
	r.buf = r.buf[:0]
	if fileName == "" {
		fileName = "<unknown>"
	}
	r.fileName = fileName
	r.line = 0
	r.err = nil
	r.rec = nil
	r.event = Event{}
}

func (r *Reader) newSyntaxError(msg string) *SyntaxError {
	return &SyntaxError{r.fileName, r.line, msg}
}

// Scan advances the reader to the next protocol line and reports
// whether a record was read. The caller should use the Result method
// to get the record. If Scan reaches EOF or an I/O error occurs, it
// returns false, in which case the caller should use the Err method to
// check for errors.
func (r *Reader) Scan() bool {
	if r.err != nil {
		return false
	}
	for {
		line, err := r.readLine()
		if err != nil {
			if err != io.EOF {
				r.err = fmt.Errorf("%s:%d: %w", r.fileName, r.line+1, err)
			}
			return false
		}
		r.line++
		if len(line) == 0 || line[0] != '!' {
			// Noise.
			continue
		}
		if err := r.parseEventLine(line[1:]); err != nil {
			r.rec = err
		} else {
			r.rec = &r.event
		}
		return true
	}
}

// readLine returns the next line without its "\n" or "\r\n"
// terminator, or io.EOF at the end of the input. A line that does not
// start with '!' is returned as its first byte only and the rest of it
// is discarded, however long it is.
func (r *Reader) readLine() ([]byte, error) {
	r.buf = r.buf[:0]
	noise := false
	for {
		chunk, err := r.br.ReadSlice('\n')
		if len(r.buf) == 0 && len(chunk) > 0 && chunk[0] != '!' {
			noise = true
			r.buf = append(r.buf, chunk[0])
		} else if !noise {
			if len(r.buf)+len(chunk) > maxLine {
				return nil, bufio.ErrTooLong
			}
			r.buf = append(r.buf, chunk...)
		}
		switch err {
		case bufio.ErrBufferFull:
			continue
		case nil:
		case io.EOF:
			if len(r.buf) == 0 {
				return nil, io.EOF
			}
		default:
			return nil, err
		}
		line := bytes.TrimSuffix(r.buf, []byte("\n"))
		return bytes.TrimSuffix(line, []byte("\r")), nil
	}
}

// parseEventLine parses the payload of a protocol line, after the '!',
// and updates r.event.
func (r *Reader) parseEventLine(line []byte) *SyntaxError {
	if bytes.Count(line, []byte("=")) != 1 {
		return r.newSyntaxError("expected name=value")
	}
	i := bytes.IndexByte(line, '=')
	name, val := line[:i], line[i+1:]

	r.event = Event{fileName: r.fileName, line: r.line}
	switch string(name) {
	case "name":
		r.event.Kind = KindName
		r.event.Label = string(val)
	case "iterations":
		n, err := parseIters(string(val))
		if err != nil {
			return r.newSyntaxError("parsing iteration count: " + err.Error())
		}
		r.event.Kind = KindIterations
		r.event.Iters = n
	case "mean", "sd":
		v, err := strconv.ParseFloat(string(val), 64)
		if err != nil {
			if ne, ok := err.(*strconv.NumError); ok {
				err = ne.Err
			}
			return r.newSyntaxError(fmt.Sprintf("parsing %s: %s", name, err))
		}
		r.event.Kind = KindMean
		if string(name) == "sd" {
			r.event.Kind = KindSD
		}
		r.event.Value = v
	default:
		return r.newSyntaxError(fmt.Sprintf("unknown event %q", name))
	}
	return nil
}

// parseIters parses an iteration count. Benchmarks that print the count
// through a floating-point formatter produce values like "8.0", which
// are accepted as long as they are integral.
func parseIters(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err == nil {
		return n, nil
	}
	if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
		return 0, ne.Err
	}
	f, ferr := strconv.ParseFloat(s, 64)
	if ferr != nil {
		return 0, strconv.ErrSyntax
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s is not an integer", s)
	}
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, strconv.ErrRange
	}
	return int(f), nil
}

// A Record is a single record read from a protocol stream. It may be
// an *Event or a *SyntaxError.
type Record interface {
	// Pos returns the position of this record as a file name and a
	// 1-based line number within that file.
	Pos() (fileName string, line int)
}

var _ Record = (*Event)(nil)
var _ Record = (*SyntaxError)(nil)

// Result returns the record that was just read by Scan. This is either
// an *Event or a *SyntaxError.
//
// If this returns an *Event, the caller should not retain it, as it
// will be overwritten by the next call to Scan.
func (r *Reader) Result() Record {
	if r.rec == nil {
		return noResult
	}
	return r.rec
}

// Err returns the first non-EOF I/O error that was encountered by the
// Reader.
func (r *Reader) Err() error {
	return r.err
}
