// Copyright 2026 The coco-bonus Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads the optional run configuration of allocbench.
//
// The configuration is a JSON object that may contain comments and
// trailing commas:
//
//	{
//		// benchmark binary, relative to the config file's directory
//		"executable": "build/refcount_test",
//		"args": ["--quiet"],
//		"env": {"MALLOC_ARENA_MAX": "1"},
//		"dir": "build",
//		"output": "results/refcount.json",
//	}
//
// Every key is optional.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/tidwall/gjson"
	"github.com/tidwall/jsonc"
)

// A Config describes how to run a benchmark.
type Config struct {
	Executable string
	Args       []string
	Env        []string // "key=value", sorted by key
	Dir        string
	Output     string
}

// Load reads the configuration file at path. Relative executable,
// dir, and output paths are resolved against the file's directory.
// An empty path yields an empty Config.
func Load(path string) (*Config, error) {
	if path == "" {
		return new(Config), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	base := filepath.Dir(path)
	resolve := func(p *string) {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
	resolve(&cfg.Executable)
	resolve(&cfg.Dir)
	resolve(&cfg.Output)
	return cfg, nil
}

// Parse parses a JSONC configuration document.
func Parse(data []byte) (*Config, error) {
	js := jsonc.ToJSON(data)
	if !gjson.ValidBytes(js) {
		return nil, fmt.Errorf("invalid configuration syntax")
	}
	doc := gjson.ParseBytes(js)
	if !doc.IsObject() {
		return nil, fmt.Errorf("configuration is not an object")
	}

	cfg := new(Config)
	var err error
	str := func(key string, dst *string) {
		v := doc.Get(key)
		if !v.Exists() || err != nil {
			return
		}
		if v.Type != gjson.String {
			err = fmt.Errorf("%s: want a string", key)
			return
		}
		*dst = v.String()
	}
	str("executable", &cfg.Executable)
	str("dir", &cfg.Dir)
	str("output", &cfg.Output)
	if err != nil {
		return nil, err
	}

	if v := doc.Get("args"); v.Exists() {
		if !v.IsArray() {
			return nil, fmt.Errorf("args: want an array of strings")
		}
		for _, a := range v.Array() {
			if a.Type != gjson.String {
				return nil, fmt.Errorf("args: want an array of strings")
			}
			cfg.Args = append(cfg.Args, a.String())
		}
	}

	if v := doc.Get("env"); v.Exists() {
		if !v.IsObject() {
			return nil, fmt.Errorf("env: want an object of strings")
		}
		v.ForEach(func(key, val gjson.Result) bool {
			if val.Type != gjson.String {
				err = fmt.Errorf("env.%s: want a string", key.String())
				return false
			}
			cfg.Env = append(cfg.Env, key.String()+"="+val.String())
			return true
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(cfg.Env)
	}
	return cfg, nil
}
