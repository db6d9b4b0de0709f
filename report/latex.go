// Copyright 2026 The coco-bonus Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// LaTeX writes the body of a LaTeX tabular for in to w, preceded by a
// comment line naming the input and its allocators:
//
//	% a.json: bumpA, bumpB
//	Iterations & Mean (bumpA, $ns$) & SD (bumpA, $ns$) ... \\
//	\hline
//	8 & 1 & 0 ... \\
//
// Missing values are printed as "--".
func LaTeX(w io.Writer, in Input, opts Options) error {
	m, err := newModel(in, opts)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%% %s: %s\n", m.Name, strings.Join(m.Labels, ", "))

	buf.WriteString("Iterations ")
	for _, label := range m.Labels {
		fmt.Fprintf(&buf, "& Mean (%s, $ns$) & SD (%s, $ns$) ", label, label)
	}
	buf.WriteString("\\\\\n\\hline\n")

	for _, r := range m.Rows {
		fmt.Fprintf(&buf, "%d ", r.Iters)
		for i := 0; i < len(r.Cells); i += 2 {
			fmt.Fprintf(&buf, "& %s & %s ", r.Cells[i], r.Cells[i+1])
		}
		buf.WriteString("\\\\\n")
	}

	if m.Geomean != nil {
		buf.WriteString("\\hline\nGeomean ")
		for i := 0; i < len(m.Geomean); i += 2 {
			fmt.Fprintf(&buf, "& %s & %s ", m.Geomean[i], m.Geomean[i+1])
		}
		buf.WriteString("\\\\\n")
	}

	_, err = w.Write(buf.Bytes())
	return err
}
