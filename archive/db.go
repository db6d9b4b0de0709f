// Copyright 2026 The coco-bonus Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package archive stores result tables in a SQL database.
//
// Each imported result table is a run. A run has a name and a creation
// time, and holds the records of the table in insertion order, so
// a loaded table encodes to the same result file that was imported.
package archive

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/TypeA2/coco-bonus/restab"
)

// ErrNotFound is returned by LoadRun for an unknown run ID.
var ErrNotFound = errors.New("run not found")

// DB is a result archive backed by a SQL database. It's safe for
// concurrent use by multiple goroutines.
type DB struct {
	sql *sql.DB // underlying database connection
	// prepared statements
	insertRun  *sql.Stmt
	insertCell *sql.Stmt
	selectRun  *sql.Stmt
	selectCell *sql.Stmt
}

// OpenSQL creates a DB backed by a SQL database. The parameters are
// the same as the parameters for sql.Open. Only mysql and sqlite3 are
// explicitly supported; other database engines will receive MySQL
// query syntax which may or may not be compatible.
func OpenSQL(driverName, dataSourceName string) (*DB, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if hook := openHooks[driverName]; hook != nil {
		if err := hook(db); err != nil {
			db.Close()
			return nil, err
		}
	}
	d := &DB{sql: db}
	if err := d.createTables(driverName); err != nil {
		db.Close()
		return nil, err
	}
	if err := d.prepareStatements(); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

var openHooks = make(map[string]func(*sql.DB) error)

// RegisterOpenHook registers a hook to be called after opening a
// connection to driverName. It must be called from an init function.
func RegisterOpenHook(driverName string, hook func(*sql.DB) error) {
	openHooks[driverName] = hook
}

// createTmpl is the template used to prepare the CREATE statements
// for the database. It is evaluated with . as a map containing one
// entry whose key is the driver name.
var createTmpl = template.Must(template.New("create").Parse(`
CREATE TABLE IF NOT EXISTS Runs (
	RunID {{if .sqlite3}}INTEGER PRIMARY KEY AUTOINCREMENT{{else}}SERIAL PRIMARY KEY AUTO_INCREMENT{{end}},
	Name VARCHAR(255) NOT NULL,
	Created BIGINT NOT NULL
);
CREATE TABLE IF NOT EXISTS Cells (
	RunID BIGINT UNSIGNED,
	Seq BIGINT UNSIGNED,
	Allocator VARCHAR(1024) NOT NULL,
	Iterations BIGINT,
	Mean BIGINT,
	SD BIGINT,
	PRIMARY KEY (RunID, Seq),
	FOREIGN KEY (RunID) REFERENCES Runs(RunID) ON UPDATE CASCADE ON DELETE CASCADE
);
`))

// createTables creates any missing tables on the connection in
// db.sql. driverName is the same driver name passed to sql.Open and
// is used to select the correct syntax.
func (db *DB) createTables(driverName string) error {
	var buf bytes.Buffer
	if err := createTmpl.Execute(&buf, map[string]bool{driverName: true}); err != nil {
		return err
	}
	for _, q := range strings.Split(buf.String(), ";") {
		if strings.TrimSpace(q) == "" {
			continue
		}
		if _, err := db.sql.Exec(q); err != nil {
			return fmt.Errorf("create table: %v", err)
		}
	}
	return nil
}

// prepareStatements calls db.sql.Prepare on reusable SQL statements.
func (db *DB) prepareStatements() error {
	var err error
	db.insertRun, err = db.sql.Prepare("INSERT INTO Runs(Name, Created) VALUES (?, ?)")
	if err != nil {
		return err
	}
	db.insertCell, err = db.sql.Prepare("INSERT INTO Cells(RunID, Seq, Allocator, Iterations, Mean, SD) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	db.selectRun, err = db.sql.Prepare("SELECT Name, Created FROM Runs WHERE RunID = ?")
	if err != nil {
		return err
	}
	db.selectCell, err = db.sql.Prepare("SELECT Allocator, Iterations, Mean, SD FROM Cells WHERE RunID = ? ORDER BY Seq")
	if err != nil {
		return err
	}
	return nil
}

// now is the time stamped on new runs. It is a variable so tests can
// replace it.
var now = time.Now

// A Run describes an archived result table.
type Run struct {
	ID      int64
	Name    string
	Created time.Time
}

// InsertRun stores t as a new run called name and returns its ID.
// The run is inserted in a single transaction.
func (db *DB) InsertRun(ctx context.Context, name string, t *restab.Table) (id int64, err error) {
	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	res, err := tx.StmtContext(ctx, db.insertRun).ExecContext(ctx, name, now().Unix())
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	insert := tx.StmtContext(ctx, db.insertCell)
	var seq int64
	for _, label := range t.Labels() {
		s := t.Series(label)
		if s.Len() == 0 {
			// Keep the allocator even though it has no records.
			if _, err := insert.ExecContext(ctx, id, seq, label, nil, nil, nil); err != nil {
				return 0, err
			}
			seq++
			continue
		}
		for _, n := range s.Iterations() {
			c, _ := s.Cell(n)
			if _, err := insert.ExecContext(ctx, id, seq, label, n, slot(c[0]), slot(c[1])); err != nil {
				return 0, err
			}
			seq++
		}
	}
	return id, nil
}

func slot(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

// LoadRun returns the run with the given ID and its result table.
// It returns ErrNotFound if there is no such run.
func (db *DB) LoadRun(ctx context.Context, id int64) (*Run, *restab.Table, error) {
	run := &Run{ID: id}
	var created int64
	err := db.selectRun.QueryRowContext(ctx, id).Scan(&run.Name, &created)
	if err == sql.ErrNoRows {
		return nil, nil, fmt.Errorf("run %d: %w", id, ErrNotFound)
	} else if err != nil {
		return nil, nil, err
	}
	run.Created = time.Unix(created, 0)

	rows, err := db.selectCell.QueryContext(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	t := restab.NewTable()
	for rows.Next() {
		var (
			label    string
			iters    sql.NullInt64
			mean, sd sql.NullInt64
		)
		if err := rows.Scan(&label, &iters, &mean, &sd); err != nil {
			return nil, nil, err
		}
		if !iters.Valid {
			t.AddLabel(label)
			continue
		}
		var c restab.Cell
		if mean.Valid {
			c[0] = &mean.Int64
		}
		if sd.Valid {
			c[1] = &sd.Int64
		}
		t.Put(label, int(iters.Int64), c)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return run, t, nil
}

// ListRuns returns all runs in order of creation.
func (db *DB) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := db.sql.QueryContext(ctx, "SELECT RunID, Name, Created FROM Runs ORDER BY RunID")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var runs []Run
	for rows.Next() {
		var r Run
		var created int64
		if err := rows.Scan(&r.ID, &r.Name, &created); err != nil {
			return nil, err
		}
		r.Created = time.Unix(created, 0)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// CountRuns returns the number of runs in the archive.
func (db *DB) CountRuns() (int, error) {
	var count int
	err := db.sql.QueryRow("SELECT COUNT(*) FROM Runs").Scan(&count)
	return count, err
}

// Close closes the database connections, releasing any open resources.
func (db *DB) Close() error {
	for _, stmt := range []*sql.Stmt{db.insertRun, db.insertCell, db.selectRun, db.selectCell} {
		if stmt == nil {
			continue
		}
		if err := stmt.Close(); err != nil {
			return err
		}
	}
	return db.sql.Close()
}
