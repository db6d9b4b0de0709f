// Copyright 2026 The coco-bonus Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Allocplot summarizes allocator benchmark results.
//
// Usage:
//
//	allocplot [options] a.json [b.json]
//
// Each input is a result file written by allocbench. For each input,
// allocplot prints a LaTeX table with a row per iteration count and
// a mean and standard deviation column per allocator:
//
//	% a.json: bumpA, bumpB
//	Iterations & Mean (bumpA, $ns$) & SD (bumpA, $ns$) & Mean (bumpB, $ns$) & SD (bumpB, $ns$) \\
//	\hline
//	8 & 1 & 0 & 3 & 1 \\
//	16 & 2 & 1 & 6 & 2 \\
//
// Rows start at the first allocator's smallest iteration count and
// double up to its largest. Values the benchmark never reported are
// printed as "--".
//
// The options are:
//
//	-geomean
//		add a row with the geometric mean of each column
//	-html file
//		also write the tables as an HTML page to file
//	-latex
//		print the LaTeX tables (default true)
//	-o file
//		draw the mean and standard deviation of every allocator
//		against the iteration count to file; the image format is
//		taken from the extension (png, svg, pdf, ...)
//
// Allocplot never overwrites an existing output file.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/TypeA2/coco-bonus/chart"
	"github.com/TypeA2/coco-bonus/report"
	"github.com/TypeA2/coco-bonus/restab"
)

var exit = os.Exit // replaced during testing

// A usageError reports a bad command line. It exits with status 2.
// An empty msg means the problem has already been printed.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func main() {
	log.SetPrefix("allocplot: ")
	log.SetFlags(0)
	err := allocplot(os.Stdout, os.Stderr, os.Args[1:])
	if err == nil {
		return
	}
	var uerr *usageError
	if errors.As(err, &uerr) {
		if uerr.msg != "" {
			log.Print(err)
		}
		exit(2)
		return
	}
	log.Print(err)
	exit(1)
}

func allocplot(stdout, stderr io.Writer, args []string) error {
	flags := flag.NewFlagSet("allocplot", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintf(stderr, "usage: allocplot [options] a.json [b.json]\n")
		fmt.Fprintf(stderr, "options:\n")
		flags.PrintDefaults()
	}
	flagGeomean := flags.Bool("geomean", false, "add a row with the geometric mean of each column")
	flagHTML := flags.String("html", "", "write the tables as an HTML page to `file`")
	flagLaTeX := flags.Bool("latex", true, "print the LaTeX tables")
	flagChart := flags.String("o", "", "draw a chart to `file`")
	if err := flags.Parse(args); err != nil {
		return &usageError{}
	}
	if flags.NArg() < 1 || flags.NArg() > 2 {
		flags.Usage()
		return &usageError{"must supply one or two result files"}
	}

	// Check every output before reading any input.
	for _, out := range []string{*flagHTML, *flagChart} {
		if out == "" {
			continue
		}
		if err := restab.CheckOutput(out); err != nil {
			return err
		}
	}

	var inputs []report.Input
	for _, path := range flags.Args() {
		if fi, err := os.Stat(path); err != nil || !fi.Mode().IsRegular() {
			return fmt.Errorf("data file path must be a file, got %s", path)
		}
		t, err := restab.ReadFile(path)
		if err != nil {
			return err
		}
		inputs = append(inputs, report.Input{Name: path, Table: t})
	}

	opts := report.Options{Geomean: *flagGeomean}
	if *flagLaTeX {
		var buf bytes.Buffer
		for _, in := range inputs {
			buf.WriteString("\nLaTeX output:\n\n")
			if err := report.LaTeX(&buf, in, opts); err != nil {
				return err
			}
		}
		if _, err := stdout.Write(buf.Bytes()); err != nil {
			return err
		}
	}

	if *flagHTML != "" {
		var buf bytes.Buffer
		buf.WriteString(report.HTMLHeader)
		if err := report.HTML(&buf, inputs, opts); err != nil {
			return err
		}
		buf.WriteString(report.HTMLFooter)
		if err := writeNew(*flagHTML, buf.Bytes()); err != nil {
			return err
		}
	}

	if *flagChart != "" {
		if err := chart.Draw(inputs, *flagChart, chart.Options{}); err != nil {
			return err
		}
	}
	return nil
}

// writeNew writes data to a new file at path.
func writeNew(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0666)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
