// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package compdb_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"go.chromium.org/infra/build/cchook/compdb"
)

func TestBuild(t *testing.T) {
	for _, tc := range []struct {
		name        string
		log         string
		opts        compdb.Options
		want        []compdb.Entry
		wantSkipped []string
	}{
		{
			name: "simpleCompile",
			log:  `{"wd": "/home/u/proj", "args": ["-c", "main.cpp", "-o", "main.o"]}` + "\n",
			want: []compdb.Entry{
				{
					Directory: "/home/u/proj",
					Arguments: []string{"/usr/bin/gcc", "-c", "main.cpp", "-o", "main.o"},
					File:      "/home/u/proj/main.cpp",
				},
			},
		},
		{
			name:        "noSource",
			log:         `{"wd": "/tmp", "args": ["--version"]}` + "\n",
			wantSkipped: []string{`{"wd": "/tmp", "args": ["--version"]}`},
		},
		{
			name: "lastSourceWins",
			log:  `{"wd": "/p", "args": ["-c", "a.c", "b.cc", "c.cpp"]}` + "\n",
			want: []compdb.Entry{
				{
					Directory: "/p",
					Arguments: []string{"/usr/bin/gcc", "-c", "a.c", "b.cc", "c.cpp"},
					File:      "/p/c.cpp",
				},
			},
		},
		{
			name: "recordCompilerOverride",
			log:  `{"wd": "/p", "compiler": "/usr/bin/clang", "args": ["-c", "a.c"]}` + "\n",
			want: []compdb.Entry{
				{
					Directory: "/p",
					Arguments: []string{"/usr/bin/clang", "-c", "a.c"},
					File:      "/p/a.c",
				},
			},
		},
		{
			name: "optionCompiler",
			log:  `{"wd": "/p", "args": ["-c", "a.c"]}` + "\n",
			opts: compdb.Options{Compiler: "/opt/cc"},
			want: []compdb.Entry{
				{
					Directory: "/p",
					Arguments: []string{"/opt/cc", "-c", "a.c"},
					File:      "/p/a.c",
				},
			},
		},
		{
			name: "unrecognizedExtensions",
			log:  `{"wd": "/p", "args": ["-c", "foo.cpp.bak", "foo.cxx"]}` + "\n",
			wantSkipped: []string{
				`{"wd": "/p", "args": ["-c", "foo.cpp.bak", "foo.cxx"]}`,
			},
		},
		{
			name: "emptyLinesIgnored",
			log:  "\n" + `{"wd": "/p", "args": ["-c", "a.c"]}` + "\n\n",
			want: []compdb.Entry{
				{
					Directory: "/p",
					Arguments: []string{"/usr/bin/gcc", "-c", "a.c"},
					File:      "/p/a.c",
				},
			},
		},
		{
			name: "commandForm",
			log:  `{"wd": "/p", "args": ["-c", "a b.c", "-DX=1"]}` + "\n",
			opts: compdb.Options{CommandForm: true},
			want: []compdb.Entry{
				{
					Directory: "/p",
					Command:   `/usr/bin/gcc -c 'a b.c' -DX=1`,
					File:      "/p/a b.c",
				},
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			entries, skipped, err := compdb.Build(strings.NewReader(tc.log), tc.opts)
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if diff := cmp.Diff(tc.want, entries); diff != "" {
				t.Errorf("entries: diff -want +got:\n%s", diff)
			}
			if diff := cmp.Diff(tc.wantSkipped, skipped); diff != "" {
				t.Errorf("skipped: diff -want +got:\n%s", diff)
			}
		})
	}
}

func TestBuild_Malformed(t *testing.T) {
	for _, tc := range []struct {
		name string
		log  string
	}{
		{name: "badJSON", log: "not json\n"},
		{name: "missingWD", log: `{"args": ["-c", "a.c"]}` + "\n"},
		{name: "missingArgs", log: `{"wd": "/p"}` + "\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			entries, skipped, err := compdb.Build(strings.NewReader(tc.log), compdb.Options{})
			if err == nil {
				t.Fatalf("Build succeeded: entries=%v skipped=%v", entries, skipped)
			}
		})
	}
}

func TestBuild_MalformedAfterGoodLines(t *testing.T) {
	log := `{"wd": "/p", "args": ["-c", "a.c"]}` + "\nbroken\n"
	entries, _, err := compdb.Build(strings.NewReader(log), compdb.Options{})
	if err == nil {
		t.Fatalf("Build succeeded: entries=%v", entries)
	}
	if entries != nil {
		t.Errorf("entries=%v; want nil on error", entries)
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, compdb.DefaultOutput)
	entries := []compdb.Entry{
		{
			Directory: "/home/u/proj",
			Arguments: []string{"/usr/bin/gcc", "-c", "main.cpp", "-o", "main.o"},
			File:      "/home/u/proj/main.cpp",
		},
	}
	if err := compdb.WriteFile(dst, entries); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := `[{"directory":"/home/u/proj","arguments":["/usr/bin/gcc","-c","main.cpp","-o","main.o"],"file":"/home/u/proj/main.cpp"}]`
	if string(got) != want {
		t.Errorf("database=%s; want %s", got, want)
	}

	// No temp files left behind.
	des, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(des) != 1 {
		t.Errorf("dir has %d files; want 1", len(des))
	}
}

func TestWriteFile_Idempotent(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, compdb.DefaultOutput)
	entries := []compdb.Entry{
		{Directory: "/p", Arguments: []string{"/usr/bin/gcc", "-c", "a.c"}, File: "/p/a.c"},
		{Directory: "/p", Arguments: []string{"/usr/bin/gcc", "-c", "a.c"}, File: "/p/a.c"},
	}
	if err := compdb.WriteFile(dst, entries); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	first, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if err := compdb.WriteFile(dst, entries); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	second, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Errorf("output not byte-identical:\nfirst:  %s\nsecond: %s", first, second)
	}
}

func TestWriteFile_Empty(t *testing.T) {
	dst := filepath.Join(t.TempDir(), compdb.DefaultOutput)
	if err := compdb.WriteFile(dst, nil); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "[]" {
		t.Errorf("database=%s; want []", got)
	}
}

func TestLoad(t *testing.T) {
	dst := filepath.Join(t.TempDir(), compdb.DefaultOutput)
	want := []compdb.Entry{
		{Directory: "/p", Arguments: []string{"/usr/bin/gcc", "-c", "a.c"}, File: "/p/a.c"},
		{Directory: "/q", Command: "/usr/bin/gcc -c b.c", File: "/q/b.c"},
	}
	if err := compdb.WriteFile(dst, want); err != nil {
		t.Fatal(err)
	}
	got, err := compdb.Load(dst)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load: diff -want +got:\n%s", diff)
	}
}

func TestEntryArgv(t *testing.T) {
	e := compdb.Entry{Command: `/usr/bin/gcc -c 'a b.c' -DX=1`}
	got, err := e.Argv()
	if err != nil {
		t.Fatalf("Argv: %v", err)
	}
	want := []string{"/usr/bin/gcc", "-c", "a b.c", "-DX=1"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Argv: diff -want +got:\n%s", diff)
	}

	e = compdb.Entry{Arguments: []string{"/usr/bin/gcc", "-c", "a.c"}}
	got, err = e.Argv()
	if err != nil {
		t.Fatalf("Argv: %v", err)
	}
	if diff := cmp.Diff(e.Arguments, got); diff != "" {
		t.Errorf("Argv: diff -want +got:\n%s", diff)
	}
}
