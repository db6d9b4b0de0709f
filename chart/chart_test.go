// Copyright 2026 The coco-bonus Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chart

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/TypeA2/coco-bonus/report"
	"github.com/TypeA2/coco-bonus/restab"
)

func inputs(t *testing.T) []report.Input {
	t.Helper()
	a, err := restab.Decode([]byte(`{"bumpA": {"8": [1, 0], "16": [2, 1]}, "bumpB": {"8": [3, null]}}`))
	if err != nil {
		t.Fatal(err)
	}
	b, err := restab.Decode([]byte(`{"refcount": {"4": [10, 2], "32": [20, 4]}}`))
	if err != nil {
		t.Fatal(err)
	}
	return []report.Input{{Name: "dir/a.json", Table: a}, {Name: "b.json", Table: b}}
}

func TestDraw(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"out.png", "out.svg", "out.pdf"} {
		path := filepath.Join(dir, name)
		if err := Draw(inputs(t), path, Options{}); err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if len(data) == 0 {
			t.Errorf("%s: empty output", name)
		}
		if name == "out.png" && !bytes.HasPrefix(data, []byte("\x89PNG")) {
			t.Errorf("%s: not a PNG file", name)
		}
	}
}

func TestDrawNoOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")
	if err := os.WriteFile(path, []byte("keep"), 0666); err != nil {
		t.Fatal(err)
	}
	err := Draw(inputs(t), path, Options{})
	if !errors.Is(err, fs.ErrExist) {
		t.Fatalf("want fs.ErrExist, got %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "keep" {
		t.Errorf("existing file modified: %q", data)
	}
}

func TestDrawBadFormat(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"out", "out.bogus"} {
		path := filepath.Join(dir, name)
		if err := Draw(inputs(t), path, Options{}); err == nil {
			t.Errorf("%s: want error", name)
		}
		if _, err := os.Stat(path); err == nil {
			t.Errorf("%s: file created despite error", name)
		}
	}
}

func TestPanels(t *testing.T) {
	avg, sd, err := Panels(inputs(t))
	if err != nil {
		t.Fatal(err)
	}
	if avg.Title.Text != "Average duration" || sd.Title.Text != "Standard deviation" {
		t.Errorf("titles: got %q, %q", avg.Title.Text, sd.Title.Text)
	}
	if avg.X.Min != 4 || avg.X.Max != 32 {
		t.Errorf("x range: want [4, 32], got [%v, %v]", avg.X.Min, avg.X.Max)
	}
	ticks := avg.X.Tick.Marker.Ticks(avg.X.Min, avg.X.Max)
	var labels []string
	for _, tk := range ticks {
		labels = append(labels, tk.Label)
	}
	if got, want := strings.Join(labels, " "), "4 8 16 32"; got != want {
		t.Errorf("ticks: want %s, got %s", want, got)
	}
}

func TestPanelsNoData(t *testing.T) {
	empty := []report.Input{{Name: "e.json", Table: restab.NewTable()}}
	if _, _, err := Panels(empty); err == nil {
		t.Error("want error for empty input")
	}
}
