// Copyright 2026 The coco-bonus Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package restab

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const sampleStream = `[gc::refcount::allocator] Starting test...
!iterations=1
!name=gc::refcount::allocator
!mean=1534.25
!sd=612.9
!name=gc::refcount_managed::allocator
!mean=1402
!sd=330.5
!iterations=2
!name=gc::refcount::allocator
!mean=2755.5
!sd=87.5
!name=gc::refcount_managed::allocator
!mean=2801
`

func TestEncode(t *testing.T) {
	tab := mustBuild(t, sampleStream)
	var buf bytes.Buffer
	if err := Encode(&buf, tab); err != nil {
		t.Fatal(err)
	}
	const want = `{"gc::refcount::allocator": {"1": [1534, 613], "2": [2756, 88]}, "gc::refcount_managed::allocator": {"1": [1402, 330], "2": [2801, null]}}`
	if buf.String() != want {
		t.Errorf("want:\n%s\ngot:\n%s", want, buf.String())
	}
	if !json.Valid(buf.Bytes()) {
		t.Errorf("output is not valid JSON")
	}
}

func TestEncodeEscapes(t *testing.T) {
	tab := NewTable()
	tab.Put(`a "quoted" <label>`, 3, NewCell(1, 2))
	got := string(encode(tab))
	const want = `{"a \"quoted\" <label>": {"3": [1, 2]}}`
	if got != want {
		t.Errorf("want %s, got %s", want, got)
	}
}

func TestEncodeEmpty(t *testing.T) {
	if got := string(encode(NewTable())); got != "{}" {
		t.Errorf("want {}, got %s", got)
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	tab := mustBuild(t, sampleStream)
	got, err := Decode(encode(tab))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, tab) {
		t.Errorf("round trip mismatch:\nwant %s\ngot  %s", encode(tab), encode(got))
	}
}

func TestDecodeOrder(t *testing.T) {
	// Keys are not sorted: numeric order, lexical order, and
	// document order all differ here.
	tab, err := Decode([]byte(`{"zeta": {"16": [1, 1], "8": [2, 2], "128": [3, null]}, "alpha": {}}`))
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"zeta", "alpha"}; !reflect.DeepEqual(tab.Labels(), want) {
		t.Errorf("labels: want %v, got %v", want, tab.Labels())
	}
	if want := []int{16, 8, 128}; !reflect.DeepEqual(tab.Series("zeta").Iterations(), want) {
		t.Errorf("iterations: want %v, got %v", want, tab.Series("zeta").Iterations())
	}
	c, ok := tab.Lookup("zeta", 128)
	if !ok {
		t.Fatal("missing zeta/128")
	}
	if _, ok := c.SD(); ok {
		t.Errorf("zeta/128 sd should be null")
	}
	if tab.Series("alpha").Len() != 0 {
		t.Errorf("alpha should be empty")
	}
}

func TestDecodeErrors(t *testing.T) {
	for _, test := range []struct {
		input, want string
	}{
		{`{`, "invalid JSON"},
		{`[]`, "top level is not an object"},
		{`{"a": 1}`, "a: allocator entry is not an object"},
		{`{"a": {"x": [1, 2]}}`, "a.x: iteration count is not an integer"},
		{`{"a": {"8": [1]}}`, "a.8: record is not a [mean, sd] pair"},
		{`{"a": {"8": 5}}`, "a.8: record is not a [mean, sd] pair"},
		{`{"a": {"8": [1, "2"]}}`, "a.8: record slot is not a number or null"},
		{`{"a": {"8": [1.7, 0]}}`, "a.8: record slot is not an integer"},
		{`{"a": {"8": [1, -0.5]}}`, "a.8: record slot is not an integer"},
	} {
		_, err := Decode([]byte(test.input))
		var fe *FormatError
		if !errors.As(err, &fe) {
			t.Errorf("%s: want *FormatError, got %v", test.input, err)
			continue
		}
		if err.Error() != test.want {
			t.Errorf("%s: want %q, got %q", test.input, test.want, err)
		}
	}
}

func TestJSONMarshaler(t *testing.T) {
	tab := mustBuild(t, sampleStream)
	data, err := json.Marshal(map[string]*Table{"run": tab})
	if err != nil {
		t.Fatal(err)
	}
	var back map[string]*Table
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(back["run"], tab) {
		t.Errorf("json.Marshal round trip mismatch")
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	tab := mustBuild(t, sampleStream)

	// Identical streams yield byte-identical files.
	a, b := filepath.Join(dir, "a.json"), filepath.Join(dir, "b.json")
	if err := WriteFile(a, tab); err != nil {
		t.Fatal(err)
	}
	if err := WriteFile(b, mustBuild(t, sampleStream)); err != nil {
		t.Fatal(err)
	}
	da, err := os.ReadFile(a)
	if err != nil {
		t.Fatal(err)
	}
	db, err := os.ReadFile(b)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(da, db) {
		t.Errorf("outputs differ:\n%s\n%s", da, db)
	}

	// Existing files are never overwritten.
	if err := WriteFile(a, NewTable()); !errors.Is(err, fs.ErrExist) {
		t.Errorf("overwrite: want fs.ErrExist, got %v", err)
	}
	if err := CheckOutput(a); !errors.Is(err, fs.ErrExist) {
		t.Errorf("CheckOutput: want fs.ErrExist, got %v", err)
	}
	if err := CheckOutput(filepath.Join(dir, "new.json")); err != nil {
		t.Errorf("CheckOutput on new path: %v", err)
	}

	got, err := ReadFile(a)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, tab) {
		t.Errorf("ReadFile mismatch")
	}
}

func TestReadFileFormatError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"a": []}`), 0666); err != nil {
		t.Fatal(err)
	}
	_, err := ReadFile(path)
	var fe *FormatError
	if !errors.As(err, &fe) || fe.FileName != path {
		t.Errorf("want *FormatError for %s, got %v", path, err)
	}
}
