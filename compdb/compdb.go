// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package compdb builds and manipulates compilation databases
// (compile_commands.json).
// https://clang.llvm.org/docs/JSONCompilationDatabase.html
package compdb

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/kballard/go-shellquote"

	"go.chromium.org/infra/build/cchook/hooklog"
	"go.chromium.org/infra/build/cchook/toolsupport/gccutil"
)

// DefaultCompiler is prefixed to logged args when neither the log
// record nor the caller specifies a compiler.
const DefaultCompiler = "/usr/bin/gcc"

// DefaultOutput is the database filename, relative to the directory
// the generator runs in.
const DefaultOutput = "compile_commands.json"

// Entry is one compilation database entry. Exactly one of Arguments
// and Command is set.
type Entry struct {
	Directory string   `json:"directory"`
	Arguments []string `json:"arguments,omitempty"`
	Command   string   `json:"command,omitempty"`
	File      string   `json:"file"`
}

// Argv returns the entry's argument vector, shell-splitting Command
// for entries in command form.
func (e Entry) Argv() ([]string, error) {
	if len(e.Arguments) > 0 {
		return e.Arguments, nil
	}
	argv, err := shellquote.Split(e.Command)
	if err != nil {
		return nil, fmt.Errorf("split command %q: %w", e.Command, err)
	}
	return argv, nil
}

// CommandForm converts e to command form, shell-quoting the argument
// vector.
func (e Entry) CommandForm() Entry {
	if e.Command != "" {
		return e
	}
	e.Command = shellquote.Join(e.Arguments...)
	e.Arguments = nil
	return e
}

// Options control Build.
type Options struct {
	// Compiler is prefixed to each record's args unless the record
	// carries its own compiler. Default DefaultCompiler.
	Compiler string

	// CommandForm emits entries in command form instead of an
	// argument vector.
	CommandForm bool
}

// Build reads a hook log from r and derives database entries.
//
// Each non-empty line is one hooklog.Record. The full argument vector
// is the compiler prefixed to the logged args; when it names several
// source files the last one wins. Lines with no recognized source file
// produce no entry and are returned verbatim in skipped. A line that
// is not valid JSON, or is missing wd or args, fails the whole build.
func Build(r io.Reader, opts Options) (entries []Entry, skipped []string, err error) {
	compiler := opts.Compiler
	if compiler == "" {
		compiler = DefaultCompiler
	}

	sc := bufio.NewScanner(r)
	// Compiler argument vectors can be very long.
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineno := 0
	for sc.Scan() {
		lineno++
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		var rec hooklog.Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, nil, fmt.Errorf("hook log line %d: %w", lineno, err)
		}
		if rec.WD == "" {
			return nil, nil, fmt.Errorf("hook log line %d: missing wd", lineno)
		}
		if rec.Args == nil {
			return nil, nil, fmt.Errorf("hook log line %d: missing args", lineno)
		}
		cc := rec.Compiler
		if cc == "" {
			cc = compiler
		}
		argv := append([]string{cc}, rec.Args...)
		srcs := gccutil.SourceFiles(argv, rec.WD)
		if len(srcs) == 0 {
			skipped = append(skipped, line)
			continue
		}
		e := Entry{
			Directory: rec.WD,
			Arguments: argv,
			File:      srcs[len(srcs)-1],
		}
		if opts.CommandForm {
			e = e.CommandForm()
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("read hook log: %w", err)
	}
	return entries, skipped, nil
}

// WriteFile writes entries to path as a compact JSON array, with no
// trailing newline. The database is staged in a temp file in the same
// directory and renamed into place, so path is only ever replaced by
// a fully written database.
func WriteFile(path string, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal compilation database: %w", err)
	}
	tmp := fmt.Sprintf("%s.%s.tmp", path, uuid.New())
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// Load reads a compilation database from path.
func Load(path string) ([]Entry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return entries, nil
}
