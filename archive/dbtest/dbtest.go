// Copyright 2026 The coco-bonus Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dbtest opens result archives for tests.
package dbtest

import (
	"flag"
	"testing"

	_ "github.com/go-sql-driver/mysql"

	"github.com/TypeA2/coco-bonus/archive"
	_ "github.com/TypeA2/coco-bonus/archive/sqlite3"
)

var mysqlDSN = flag.String("mysql", "", "run archive tests against the MySQL database `dsn` instead of in-memory SQLite")

// NewDB makes a connection to a testing database, either an in-memory
// sqlite3 database or the MySQL database named by the -mysql flag.
// The database is closed when the test finishes.
func NewDB(t *testing.T) *archive.DB {
	t.Helper()
	driverName, dataSourceName := "sqlite3", ":memory:"
	if *mysqlDSN != "" {
		driverName, dataSourceName = "mysql", *mysqlDSN
	}
	d, err := archive.OpenSQL(driverName, dataSourceName)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	// Make sure the database really is empty.
	runs, err := d.CountRuns()
	if err != nil {
		t.Fatal(err)
	}
	if runs != 0 {
		t.Fatalf("found %d row(s) in Runs, want 0", runs)
	}
	return d
}
