// Copyright 2026 The coco-bonus Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Allocsave archives allocator benchmark results in a SQL database.
//
// Usage:
//
//	allocsave [-db driver] [-dsn source] import name file.json
//	allocsave [-db driver] [-dsn source] export id out.json
//	allocsave [-db driver] [-dsn source] list
//
// Import stores a result file written by allocbench as a new run and
// prints the run's ID. Export writes a run back out as a result file
// identical to the one imported. List prints the ID, creation time, and
// name of every run.
//
// The database is a local SQLite file by default. With -db mysql, -dsn
// is a MySQL data source name such as "user:password@tcp(host)/dbname".
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
	"strconv"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/TypeA2/coco-bonus/archive"
	_ "github.com/TypeA2/coco-bonus/archive/sqlite3"
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
	log.SetPrefix("allocsave: ")
	log.SetFlags(0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := allocsave(ctx, os.Stdout, os.Stderr, os.Args[1:])
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

func allocsave(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	flags := flag.NewFlagSet("allocsave", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintf(stderr, "usage: allocsave [options] import name file.json\n")
		fmt.Fprintf(stderr, "       allocsave [options] export id out.json\n")
		fmt.Fprintf(stderr, "       allocsave [options] list\n")
		fmt.Fprintf(stderr, "options:\n")
		flags.PrintDefaults()
	}
	flagDB := flags.String("db", "sqlite3", "database `driver`: sqlite3 or mysql")
	flagDSN := flags.String("dsn", "allocsave.db", "database data `source` name")
	if err := flags.Parse(args); err != nil {
		return &usageError{}
	}

	cmd, cmdArgs := flags.Arg(0), flags.Args()
	if len(cmdArgs) > 0 {
		cmdArgs = cmdArgs[1:]
	}
	nargs := map[string]int{"import": 2, "export": 2, "list": 0}
	if n, ok := nargs[cmd]; !ok || len(cmdArgs) != n {
		flags.Usage()
		if !ok {
			return &usageError{fmt.Sprintf("unknown command %q", cmd)}
		}
		return &usageError{fmt.Sprintf("%s takes %d arguments", cmd, n)}
	}

	// Validate arguments before touching the database.
	var id int64
	switch cmd {
	case "import":
		if _, err := os.Stat(cmdArgs[1]); err != nil {
			return err
		}
	case "export":
		var err error
		id, err = strconv.ParseInt(cmdArgs[0], 10, 64)
		if err != nil {
			return &usageError{fmt.Sprintf("bad run ID %q", cmdArgs[0])}
		}
		if err := restab.CheckOutput(cmdArgs[1]); err != nil {
			return err
		}
	}

	db, err := archive.OpenSQL(*flagDB, *flagDSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	switch cmd {
	case "import":
		t, err := restab.ReadFile(cmdArgs[1])
		if err != nil {
			return err
		}
		id, err := db.InsertRun(ctx, cmdArgs[0], t)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%d\n", id)

	case "export":
		_, t, err := db.LoadRun(ctx, id)
		if err != nil {
			return err
		}
		return restab.WriteFile(cmdArgs[1], t)

	case "list":
		runs, err := db.ListRuns(ctx)
		if err != nil {
			return err
		}
		for _, r := range runs {
			fmt.Fprintf(stdout, "%d\t%s\t%s\n", r.ID, r.Created.UTC().Format(time.RFC3339), r.Name)
		}
	}
	return nil
}
