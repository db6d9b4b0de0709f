// Copyright 2026 The coco-bonus Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runner runs an allocator benchmark executable and aggregates
// the protocol lines it prints on stdout into a result table.
package runner

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"os/exec"

	"github.com/TypeA2/coco-bonus/allocfmt"
	"github.com/TypeA2/coco-bonus/restab"
)

// A Runner describes a single benchmark invocation.
type Runner struct {
	// Path is the benchmark executable.
	Path string

	// Args are passed to the executable.
	Args []string

	// Env holds extra "key=value" environment entries, added to
	// the current process's environment.
	Env []string

	// Dir is the working directory of the benchmark. If empty, the
	// current directory is used.
	Dir string

	// Stderr receives the benchmark's standard error. If nil, it
	// is discarded. Standard error is never parsed.
	Stderr io.Writer

	// Logf, if non-nil, receives progress messages.
	Logf func(format string, args ...interface{})

	// Warnf receives problems that do not stop the run, such as a
	// non-zero exit status. If nil, they are printed with log.Printf.
	Warnf func(format string, args ...interface{})
}

// Run starts the benchmark and folds its stdout into a Builder, one
// line at a time as the benchmark produces it. It returns once stdout
// reaches EOF and the process has exited.
//
// If aggregation fails, the process is killed and the error returned.
// The exit status of the benchmark is not inspected beyond being
// reported to Warnf. There is no timeout: if the benchmark hangs, Run
// hangs until ctx is canceled.
func (r *Runner) Run(ctx context.Context) (*restab.Builder, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.Path, r.Args...)
	cmd.Dir = r.Dir
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}
	cmd.Stderr = r.Stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	b, err := Aggregate(stdout, r.Path, r.Logf)
	if err != nil {
		cancel()
		cmd.Wait()
		return nil, err
	}
	err = cmd.Wait()
	if cerr := ctx.Err(); cerr != nil {
		return nil, cerr
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		r.warnf("%s: %v", r.Path, err)
	} else if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *Runner) warnf(format string, args ...interface{}) {
	if r.Warnf != nil {
		r.Warnf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// Aggregate reads protocol lines from rd until EOF and folds them into
// a new Builder. name is used in error messages. Each iterations event
// is reported to logf, if non-nil.
//
// Any syntax error or aggregation error stops reading and is returned.
func Aggregate(rd io.Reader, name string, logf func(format string, args ...interface{})) (*restab.Builder, error) {
	b := restab.NewBuilder()
	var observe func(*allocfmt.Event)
	if logf != nil {
		observe = func(ev *allocfmt.Event) {
			if ev.Kind == allocfmt.KindIterations {
				logf("Iterations: %d", ev.Iters)
			}
		}
	}
	if err := b.AddReader(allocfmt.NewReader(rd, name), observe); err != nil {
		return nil, err
	}
	return b, nil
}
