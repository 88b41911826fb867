// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package filtercmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"go.chromium.org/infra/build/cchook/compdb"
)

func TestRun(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	entries := []compdb.Entry{
		{Directory: "/p", Arguments: []string{"/usr/bin/gcc", "-c", "main.cc"}, File: "/p/main.cc"},
		{Directory: "/p", Arguments: []string{"/usr/bin/gcc", "-c", "third_party/lib.cc"}, File: "/p/third_party/lib.cc"},
	}
	db := filepath.Join(dir, compdb.DefaultOutput)
	if err := compdb.WriteFile(db, entries); err != nil {
		t.Fatal(err)
	}

	c := &run{}
	c.init()
	if err := c.Flags.Parse([]string{"-exclude", "third_party/", db}); err != nil {
		t.Fatal(err)
	}
	if err := c.run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	got, err := compdb.Load(db)
	if err != nil {
		t.Fatal(err)
	}
	want := entries[:1]
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("filtered database: diff -want +got:\n%s", diff)
	}

	// The original database survives as a backup.
	backup, err := compdb.Load(db + ".bak")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(entries, backup); diff != "" {
		t.Errorf("backup: diff -want +got:\n%s", diff)
	}
}

func TestRun_BadPattern(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	db := filepath.Join(dir, compdb.DefaultOutput)
	if err := os.WriteFile(db, []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := &run{}
	c.init()
	if err := c.Flags.Parse([]string{"-exclude", "(", db}); err != nil {
		t.Fatal(err)
	}
	if err := c.run(context.Background()); err == nil {
		t.Error("run succeeded with bad pattern")
	}
}
