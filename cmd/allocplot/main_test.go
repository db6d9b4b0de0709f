// Copyright 2026 The coco-bonus Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestLaTeX(t *testing.T) {
	golden(t, "aNew", "a.json", "b.json")
	golden(t, "geomean", "-geomean", "a.json", "b.json")
	// Rows double even where the allocators have no records.
	golden(t, "sparse", "sparse.json")
}

func TestOutputs(t *testing.T) {
	dir := t.TempDir()
	htmlPath := filepath.Join(dir, "report.html")
	chartPath := filepath.Join(dir, "chart.svg")
	golden(t, "none", "-latex=false", "-html", htmlPath, "-o", chartPath, "a.json", "b.json")

	data, err := os.ReadFile(htmlPath)
	if err != nil {
		t.Fatal(err)
	}
	html := string(data)
	for _, want := range []string{"<!doctype html>", "<caption>a.json</caption>", "<caption>b.json</caption>", "</html>"} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML output missing %q", want)
		}
	}

	data, err = os.ReadFile(chartPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte("<svg")) {
		t.Errorf("chart is not an SVG image")
	}
}

func TestNoOverwrite(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "exists")
	if err := os.WriteFile(existing, []byte("keep"), 0666); err != nil {
		t.Fatal(err)
	}
	for _, flag := range []string{"-html", "-o"} {
		var stdout, stderr bytes.Buffer
		err := allocplot(&stdout, &stderr, []string{flag, existing, "testdata/a.json"})
		if !errors.Is(err, fs.ErrExist) {
			t.Errorf("%s: want fs.ErrExist, got %v", flag, err)
		}
		if stdout.Len() != 0 {
			t.Errorf("%s: output printed despite error:\n%s", flag, stdout.String())
		}
	}
	if data, _ := os.ReadFile(existing); string(data) != "keep" {
		t.Errorf("existing file modified: %q", data)
	}
}

func TestErrors(t *testing.T) {
	for _, test := range []struct {
		args  []string
		usage bool
	}{
		{[]string{}, true},
		{[]string{"testdata/a.json", "testdata/b.json", "testdata/sparse.json"}, true},
		{[]string{"-nosuchflag", "testdata/a.json"}, true},
		{[]string{"testdata/missing.json"}, false},
		{[]string{"testdata"}, false},
		{[]string{"testdata/aNew.stdout"}, false},
	} {
		var stdout, stderr bytes.Buffer
		err := allocplot(&stdout, &stderr, test.args)
		if err == nil {
			t.Errorf("%q: want error", test.args)
			continue
		}
		var uerr *usageError
		if got := errors.As(err, &uerr); got != test.usage {
			t.Errorf("%q: usage error = %v, want %v (%v)", test.args, got, test.usage, err)
		}
		if stdout.Len() != 0 {
			t.Errorf("%q: output printed despite error:\n%s", test.args, stdout.String())
		}
	}
}

func golden(t *testing.T, name string, args ...string) {
	t.Helper()
	if err := os.Chdir("testdata"); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir("..")

	// Get the allocplot output.
	var got, gotErr bytes.Buffer
	t.Logf("allocplot %s", strings.Join(args, " "))
	if err := allocplot(&got, &gotErr, args); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	// Compare to the golden output.
	compare(t, name, "stdout", got.Bytes())
	compare(t, name, "stderr", gotErr.Bytes())
}

func compare(t *testing.T, name, sub string, got []byte) {
	t.Helper()

	wantPath := name + "." + sub
	want, err := os.ReadFile(wantPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Treat a missing file as empty.
			want = nil
		} else {
			t.Fatal(err)
		}
	}

	if !diff(t, want, got) {
		return
	}
	// diff printed the error.

	// Write a "got" file for reference.
	gotPath := name + ".got-" + sub
	if err := os.WriteFile(gotPath, got, 0666); err != nil {
		t.Fatalf("error writing %s: %s", gotPath, err)
	}
}

func diff(t *testing.T, want, got []byte) bool {
	t.Helper()
	if bytes.Equal(want, got) {
		return false
	}

	d := t.TempDir()
	wantPath, gotPath := filepath.Join(d, "want"), filepath.Join(d, "got")
	if err := os.WriteFile(wantPath, want, 0666); err != nil {
		t.Fatalf("error writing %s: %s", wantPath, err)
	}
	if err := os.WriteFile(gotPath, got, 0666); err != nil {
		t.Fatalf("error writing %s: %s", gotPath, err)
	}

	cmd := exec.Command("diff", "-Nu", "want", "got")
	cmd.Dir = d
	data, _ := cmd.CombinedOutput()
	if len(data) > 0 {
		t.Errorf("\n%s", data)
	} else {
		t.Errorf("want:\n%sgot:\n%s", want, got)
	}
	return true
}
