// Copyright 2026 The coco-bonus Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package allocfmt

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// A Writer writes the sentinel protocol.
type Writer struct {
	w   io.Writer
	buf bytes.Buffer
}

// NewWriter returns a writer that writes protocol lines to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write writes Record rec to w. SyntaxErrors are dropped.
func (w *Writer) Write(rec Record) error {
	switch rec := rec.(type) {
	case *Event:
		if rec.Kind == KindName && strings.ContainsAny(rec.Label, "=\n") {
			return fmt.Errorf("label %q cannot be encoded", rec.Label)
		}
		w.buf.WriteByte('!')
		w.buf.WriteString(rec.String())
		w.buf.WriteByte('\n')
	case *SyntaxError:
		return nil
	default:
		return fmt.Errorf("unknown Record type %T", rec)
	}

	_, err := w.w.Write(w.buf.Bytes())
	w.buf.Reset()
	return err
}
