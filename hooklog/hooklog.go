// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package hooklog reads and writes the compiler hook log.
//
// The log is an append-only UTF-8 text file shared by all wrapper
// processes of a build, one JSON object per line. Concurrent writers
// rely on append-mode atomicity of the underlying filesystem for a
// single bounded write, plus an advisory lock on a sibling lock file.
package hooklog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Record is one logged compiler invocation.
//
// Compiler is only set when the wrapper runs with a non-default
// compiler, so default-config log lines keep the historical
// `{"wd": ..., "args": [...]}` shape.
type Record struct {
	WD       string   `json:"wd"`
	Compiler string   `json:"compiler,omitempty"`
	Args     []string `json:"args"`
}

// Append appends rec to the log at path as a single JSON line.
// It takes an exclusive advisory lock on the sibling lock file,
// and the line is synced and the log closed before Append returns,
// so the entry is durable before the caller execs the compiler.
func Append(path string, rec Record) (err error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal hook log record: %w", err)
	}
	b = append(b, '\n')

	unlock, err := lock(LockPath(path))
	if err != nil {
		return err
	}
	defer func() {
		uerr := unlock()
		if err == nil {
			err = uerr
		}
	}()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		cerr := f.Close()
		if err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(b); err != nil {
		return err
	}
	return f.Sync()
}

// LockPath returns the lock file path for the log at path.
// The log's extension is replaced by ".lock", e.g. "cc_hook.txt"
// locks on "cc_hook.lock".
func LockPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".lock"
}

// Open opens the log at path for reading. Logs rotated away and
// compressed as ".gz" or ".zst" are transparently decompressed.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	switch filepath.Ext(path) {
	case ".gz":
		r, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open gzip log %s: %w", path, err)
		}
		return &compressedLog{r: r, f: f}, nil
	case ".zst":
		r, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open zstd log %s: %w", path, err)
		}
		return &compressedLog{r: r.IOReadCloser(), f: f}, nil
	}
	return f, nil
}

type compressedLog struct {
	r io.ReadCloser
	f *os.File
}

func (c *compressedLog) Read(p []byte) (int, error) {
	return c.r.Read(p)
}

func (c *compressedLog) Close() error {
	err := c.r.Close()
	if cerr := c.f.Close(); err == nil {
		err = cerr
	}
	return err
}
