// Copyright 2026 The coco-bonus Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sqlite3 provides the sqlite3 driver for
// github.com/TypeA2/coco-bonus/archive. It must be imported instead of
// go-sqlite3 to ensure foreign keys are properly honored.
package sqlite3

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"github.com/TypeA2/coco-bonus/archive"
)

func init() {
	archive.RegisterOpenHook("sqlite3", func(db *sql.DB) error {
		// A ":memory:" database is private to its connection, and
		// the foreign_keys pragma is per connection, so keep exactly
		// one.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		_, err := db.Exec("PRAGMA foreign_keys = ON")
		return err
	})
}
