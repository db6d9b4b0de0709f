// Copyright 2026 The coco-bonus Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package restab

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"

	"github.com/tidwall/gjson"
)

// Encode writes t to w as a single JSON object.
//
// Allocator labels are the top-level keys. Each value is an object
// keyed by the base-10 iteration count whose values are [mean, sd]
// arrays, with null for a missing slot. Keys appear in insertion order
// and use the same separators as Python's json.dump, so the output of
// an identical stream is byte-identical.
func Encode(w io.Writer, t *Table) error {
	_, err := w.Write(encode(t))
	return err
}

func encode(t *Table) []byte {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, label := range t.labels {
		if i > 0 {
			buf.WriteString(", ")
		}
		writeString(&buf, label)
		buf.WriteString(": {")
		s := t.series[label]
		for j, n := range s.iters {
			if j > 0 {
				buf.WriteString(", ")
			}
			writeString(&buf, strconv.Itoa(n))
			c := s.cells[n]
			buf.WriteString(": [")
			writeSlot(&buf, c[0])
			buf.WriteString(", ")
			writeSlot(&buf, c[1])
			buf.WriteByte(']')
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes()
}

func writeString(buf *bytes.Buffer, s string) {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	// Encoding a string cannot fail.
	enc.Encode(s)
	// Drop the newline Encode appends.
	buf.Truncate(buf.Len() - 1)
}

func writeSlot(buf *bytes.Buffer, v *int64) {
	if v == nil {
		buf.WriteString("null")
		return
	}
	buf.WriteString(strconv.FormatInt(*v, 10))
}

// MarshalJSON implements json.Marshaler using Encode's format.
func (t *Table) MarshalJSON() ([]byte, error) {
	return encode(t), nil
}

// UnmarshalJSON implements json.Unmarshaler using Decode.
func (t *Table) UnmarshalJSON(data []byte) error {
	t2, err := Decode(data)
	if err != nil {
		return err
	}
	*t = *t2
	return nil
}

// A FormatError reports a result file that does not have the shape
// written by Encode.
type FormatError struct {
	FileName string
	Path     string // location within the document, e.g. "bumpA.8"
	Msg      string
}

func (e *FormatError) Error() string {
	loc := e.FileName
	if e.Path != "" {
		if loc != "" {
			loc += ": "
		}
		loc += e.Path
	}
	if loc == "" {
		return e.Msg
	}
	return loc + ": " + e.Msg
}

// Decode parses a result document. Key order in the document becomes
// the insertion order of the returned table. null slots are preserved,
// and iteration keys must be base-10 integers.
func Decode(data []byte) (*Table, error) {
	return decode(data, "")
}

func decode(data []byte, fileName string) (*Table, error) {
	fail := func(path, msg string) error {
		return &FormatError{fileName, path, msg}
	}
	if !gjson.ValidBytes(data) {
		return nil, fail("", "invalid JSON")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, fail("", "top level is not an object")
	}

	t := NewTable()
	var err error
	doc.ForEach(func(label, series gjson.Result) bool {
		path := label.String()
		if !series.IsObject() {
			err = fail(path, "allocator entry is not an object")
			return false
		}
		// Register the label even if it has no records.
		t.ensure(label.String())
		series.ForEach(func(key, rec gjson.Result) bool {
			path := label.String() + "." + key.String()
			n, perr := strconv.Atoi(key.String())
			if perr != nil {
				err = fail(path, "iteration count is not an integer")
				return false
			}
			slots := rec.Array()
			if !rec.IsArray() || len(slots) != 2 {
				err = fail(path, "record is not a [mean, sd] pair")
				return false
			}
			var c Cell
			for i, slot := range slots {
				switch slot.Type {
				case gjson.Null:
				case gjson.Number:
					if slot.Num != math.Trunc(slot.Num) {
						err = fail(path, "record slot is not an integer")
						return false
					}
					v := slot.Int()
					c[i] = &v
				default:
					err = fail(path, "record slot is not a number or null")
					return false
				}
			}
			t.Put(label.String(), n, c)
			return true
		})
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// CheckOutput returns an error wrapping fs.ErrExist if path already
// exists. Callers use it to reject an output path before doing any
// work.
func CheckOutput(path string) error {
	if path == "" {
		return errors.New("output path is empty")
	}
	_, err := os.Lstat(path)
	if err == nil {
		return fmt.Errorf("output file %s must not exist: %w", path, fs.ErrExist)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// WriteFile writes t to a new file at path. It fails with an error
// wrapping fs.ErrExist if path already exists.
func WriteFile(path string, t *Table) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0666)
	if err != nil {
		return err
	}
	if err := Encode(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile reads a result file written by WriteFile.
func ReadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return decode(data, path)
}
