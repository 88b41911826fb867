// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package generate is the generate subcommand to compile the hook log
// into compile_commands.json.
package generate

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	log "github.com/golang/glog"
	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"
	"go.chromium.org/luci/common/system/signals"

	"go.chromium.org/infra/build/cchook/compdb"
	"go.chromium.org/infra/build/cchook/hooklog"
)

const usage = `generate compile_commands.json from a hook log.

 $ cchook generate [-cc <compiler>] [-format <format>] <logfile>

<logfile> is the hook log written by the wrapper. Logs rotated away
and compressed as .gz or .zst are read transparently.

<format> is
  arguments: entries carry an argument vector (default)
  command: entries carry a single shell-quoted command string

The database is written to compile_commands.json in the current
directory, only after the whole log parsed successfully. Log records
with no recognized source file are skipped with a warning on stdout.
`

// Cmd returns the Command for the `generate` subcommand provided by this package.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "generate [-cc <compiler>] [-format <format>] <logfile>",
		ShortDesc: "generate compile_commands.json from a hook log",
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

	compiler string
	format   string
}

func (c *run) init() {
	cc := os.Getenv("CC_HOOK_COMPDB_CC")
	if cc == "" {
		cc = compdb.DefaultCompiler
	}
	c.Flags.StringVar(&c.compiler, "cc", cc, "compiler prefixed to logged args. can be set by $CC_HOOK_COMPDB_CC")
	c.Flags.StringVar(&c.format, "format", "arguments", `entry format. "arguments" or "command"`)
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

	if c.Flags.NArg() == 0 {
		return fmt.Errorf("no hook log: %w", flag.ErrHelp)
	}
	if c.Flags.NArg() > 1 {
		return fmt.Errorf("too many arguments %q: %w", c.Flags.Args(), flag.ErrHelp)
	}
	opts := compdb.Options{Compiler: c.compiler}
	switch c.format {
	case "arguments":
	case "command":
		opts.CommandForm = true
	default:
		return fmt.Errorf("unknown format %q: %w", c.format, flag.ErrHelp)
	}

	started := time.Now()
	logFile := c.Flags.Arg(0)
	r, err := hooklog.Open(logFile)
	if err != nil {
		return err
	}
	defer r.Close()

	entries, skipped, err := compdb.Build(r, opts)
	if err != nil {
		return err
	}
	for _, line := range skipped {
		fmt.Printf("warning no src %s\n", line)
	}
	if err := compdb.WriteFile(compdb.DefaultOutput, entries); err != nil {
		return err
	}
	log.V(1).Infof("generate %s: %d entries, %d skipped in %s", logFile, len(entries), len(skipped), time.Since(started).Round(time.Millisecond))
	return nil
}
