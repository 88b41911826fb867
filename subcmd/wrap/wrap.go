// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package wrap implements the compiler wrapper.
//
// The wrapper runs in place of the real compiler for every compile
// step of a build, appends one record to the hook log and then hands
// the process over to the compiler with the original arguments
// unchanged. The compiler owns stdin/stdout/stderr and the exit code
// as if it had been invoked directly.
package wrap

import (
	"context"
	"fmt"
	"os"

	"go.chromium.org/infra/build/cchook/hooklog"
)

// DefaultLogFile is the hook log path when $CC_HOOK_COMPDB_LOG_FILE
// is unset, relative to the build step's working directory.
const DefaultLogFile = "cc_hook.txt"

// DefaultCompiler is the compiler when $CC_HOOK_COMPDB_CC is unset.
const DefaultCompiler = "/usr/bin/gcc"

// Config is the wrapper configuration, resolved once at startup.
type Config struct {
	// LogFile is the hook log path.
	LogFile string

	// Compiler is the real compiler to exec.
	Compiler string
}

// ConfigFromEnv resolves the wrapper config from the environment.
func ConfigFromEnv() Config {
	cfg := Config{
		LogFile:  os.Getenv("CC_HOOK_COMPDB_LOG_FILE"),
		Compiler: os.Getenv("CC_HOOK_COMPDB_CC"),
	}
	if cfg.LogFile == "" {
		cfg.LogFile = DefaultLogFile
	}
	if cfg.Compiler == "" {
		cfg.Compiler = DefaultCompiler
	}
	return cfg
}

// Record builds the hook log record for a wrapper invocation in wd.
// The compiler is only recorded when it is not the default, so
// default-config log lines keep the plain {"wd", "args"} shape.
func (c Config) Record(wd string, args []string) hooklog.Record {
	rec := hooklog.Record{WD: wd, Args: args}
	if c.Compiler != DefaultCompiler {
		rec.Compiler = c.Compiler
	}
	return rec
}

// Main logs the invocation and execs the compiler. It only returns on
// failure; the log append completes, synced and closed, before the
// compiler can take over, so a compiler crash is never mistaken for a
// missing log entry. Any failure before the exec is fatal and the
// compiler is not run.
func Main(ctx context.Context, cfg Config, args []string) int {
	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cchook: getwd: %v\n", err)
		return 1
	}
	if err := hooklog.Append(cfg.LogFile, cfg.Record(wd, args)); err != nil {
		fmt.Fprintf(os.Stderr, "cchook: append %s: %v\n", cfg.LogFile, err)
		return 1
	}
	code, err := execCompiler(ctx, cfg.Compiler, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cchook: exec %s: %v\n", cfg.Compiler, err)
		return 1
	}
	return code
}
