// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package check is the check subcommand to verify a compilation
// database against the filesystem.
package check

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/maruel/subcommands"
	"golang.org/x/sync/errgroup"

	"go.chromium.org/luci/common/cli"
	"go.chromium.org/luci/common/system/signals"

	"go.chromium.org/infra/build/cchook/compdb"
)

const usage = `check compile_commands.json entries against the filesystem.

 $ cchook check [-compilers] [<path>]

<path> defaults to ./compile_commands.json.

Verifies that each entry's file exists. With -compilers, also verifies
that each entry's compiler resolves to an executable. Exits non-zero
when anything is missing.
`

// Cmd returns the Command for the `check` subcommand provided by this package.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "check [-compilers] [<path>]",
		ShortDesc: "verify compile_commands.json entries",
		LongDesc:  usage,
		CommandRun: func() subcommands.CommandRun {
			c := &run{}
			c.init()
			return c
		},
	}
}

type run struct {
	subcommands.CommandRunBase

	compilers bool
}

func (c *run) init() {
	c.Flags.BoolVar(&c.compilers, "compilers", false, "also verify each entry's compiler resolves to an executable")
}

func (c *run) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	err := c.run(ctx)
	if err != nil {
		switch {
		case errors.Is(err, flag.ErrHelp):
			fmt.Fprintf(os.Stderr, "%v\n%s\n", err, usage)
		default:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func (c *run) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer signals.HandleInterrupt(cancel)()

	if c.Flags.NArg() > 1 {
		return fmt.Errorf("too many arguments %q: %w", c.Flags.Args(), flag.ErrHelp)
	}
	path := "./" + compdb.DefaultOutput
	if c.Flags.NArg() == 1 {
		path = c.Flags.Arg(0)
	}
	entries, err := compdb.Load(path)
	if err != nil {
		return err
	}

	started := time.Now()
	var mu sync.Mutex
	var missing []string
	report := func(s string) {
		mu.Lock()
		missing = append(missing, s)
		mu.Unlock()
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.NumCPU() * 2)
	for _, e := range entries {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			file := e.File
			if !filepath.IsAbs(file) {
				file = filepath.Join(e.Directory, file)
			}
			if _, err := os.Stat(file); err != nil {
				report(fmt.Sprintf("file %s", file))
			}
			if !c.compilers {
				return nil
			}
			argv, err := e.Argv()
			if err != nil || len(argv) == 0 {
				report(fmt.Sprintf("command of %s", e.File))
				return nil
			}
			if _, err := exec.LookPath(argv[0]); err != nil {
				report(fmt.Sprintf("compiler %s", argv[0]))
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	sort.Strings(missing)
	missing = dedup(missing)
	for _, m := range missing {
		log.Warnf("missing %s", m)
	}
	log.Infof("checked %d entries in %s: %d missing", len(entries), time.Since(started).Round(time.Millisecond), len(missing))
	if len(missing) > 0 {
		return fmt.Errorf("%d missing", len(missing))
	}
	return nil
}

func dedup(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i > 0 && s == sorted[i-1] {
			continue
		}
		out = append(out, s)
	}
	return out
}
