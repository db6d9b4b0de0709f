// Copyright 2026 The coco-bonus Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Allocbench runs an allocator benchmark and records its results.
//
// Usage:
//
//	allocbench [-q] [-config file] executable output.json
//
// The benchmark executable reports its measurements on standard output
// as protocol lines of the form
//
//	!name=<allocator>
//	!iterations=<n>
//	!mean=<nanoseconds>
//	!sd=<nanoseconds>
//
// Other lines are ignored. Allocbench folds the measurements into a
// table keyed by allocator and iteration count, rounds them to whole
// nanoseconds, and writes the table to output.json once the benchmark
// exits. For example:
//
//	{"bumpA": {"8": [1, 0], "16": [2, 1]}}
//
// Either slot of a [mean, sd] pair is null if the benchmark never
// reported it. The output file must not already exist.
//
// Allocbench prints each iteration count as the benchmark reaches it.
// The -q flag suppresses this progress output. A non-zero exit status
// of the benchmark is reported on standard error but does not fail
// the run.
//
// The -config flag names an optional JSON file (comments and trailing
// commas are allowed) supplying the executable, its arguments and
// environment, its working directory, and the output path. Command
// line arguments take precedence over the configuration file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/TypeA2/coco-bonus/config"
	"github.com/TypeA2/coco-bonus/restab"
	"github.com/TypeA2/coco-bonus/runner"
)

var exit = os.Exit // replaced during testing

// A usageError reports a bad command line. It exits with status 2.
// An empty msg means the problem has already been printed.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func main() {
	log.SetPrefix("allocbench: ")
	log.SetFlags(0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := allocbench(ctx, os.Stdout, os.Stderr, os.Args[1:])
	stop()
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

func allocbench(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	flags := flag.NewFlagSet("allocbench", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintf(stderr, "usage: allocbench [options] executable output.json\n")
		fmt.Fprintf(stderr, "options:\n")
		flags.PrintDefaults()
	}
	flagConfig := flags.String("config", "", "read the run configuration from `file`")
	flagQuiet := flags.Bool("q", false, "do not print progress")
	if err := flags.Parse(args); err != nil {
		// flags has already printed the error and usage.
		return &usageError{}
	}

	cfg, err := config.Load(*flagConfig)
	if err != nil {
		return err
	}
	switch flags.NArg() {
	case 2:
		cfg.Output = flags.Arg(1)
		fallthrough
	case 1:
		cfg.Executable = flags.Arg(0)
	case 0:
	default:
		flags.Usage()
		return &usageError{"too many arguments"}
	}
	if cfg.Executable == "" || cfg.Output == "" {
		flags.Usage()
		return &usageError{"must supply executable path and output path"}
	}

	// Check preconditions before starting the benchmark.
	exe, err := filepath.Abs(cfg.Executable)
	if err != nil {
		return err
	}
	if fi, err := os.Stat(exe); err != nil || !fi.Mode().IsRegular() {
		return fmt.Errorf("executable path must be a file, got %s", cfg.Executable)
	}
	if err := restab.CheckOutput(cfg.Output); err != nil {
		return err
	}

	r := &runner.Runner{
		Path:   exe,
		Args:   cfg.Args,
		Env:    cfg.Env,
		Dir:    cfg.Dir,
		Stderr: stderr,
		Warnf:  log.New(stderr, "allocbench: ", 0).Printf,
	}
	if !*flagQuiet {
		r.Logf = func(format string, args ...interface{}) {
			fmt.Fprintf(stdout, format+"\n", args...)
		}
	}
	b, err := r.Run(ctx)
	if err != nil {
		return err
	}
	return restab.WriteFile(cfg.Output, b.Table())
}
