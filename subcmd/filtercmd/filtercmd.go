// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package filtercmd is the filter subcommand to prune entries from an
// existing compile_commands.json.
package filtercmd

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"
	"go.chromium.org/luci/common/flag/stringlistflag"

	"go.chromium.org/infra/build/cchook/compdb"
)

const usage = `filter compile_commands.json by regex patterns.

 $ cchook filter [-exclude <regex>]... [-include <regex>]... [<path>]

<path> defaults to ./compile_commands.json.

An entry is dropped when its file matches any -exclude pattern, unless
it also matches an -include pattern. The previous database is kept as
<path>.bak (or .bak.1, .bak.2, ... if taken) and the filtered database
is written back pretty-printed in place.
`

// Cmd returns the Command for the `filter` subcommand provided by this package.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "filter [-exclude <regex>]... [-include <regex>]... [<path>]",
		ShortDesc: "filter compile_commands.json by regex patterns",
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

	exclude stringlistflag.Flag
	include stringlistflag.Flag
}

func (c *run) init() {
	c.Flags.Var(&c.exclude, "exclude", "exclude files matching this regex (can be repeated)")
	c.Flags.Var(&c.include, "include", "include files matching this regex even if excluded (can be repeated)")
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
	if c.Flags.NArg() > 1 {
		return fmt.Errorf("too many arguments %q: %w", c.Flags.Args(), flag.ErrHelp)
	}
	path := "./" + compdb.DefaultOutput
	if c.Flags.NArg() == 1 {
		path = c.Flags.Arg(0)
	}

	exclude, err := compdb.CompilePatterns(c.exclude)
	if err != nil {
		return err
	}
	include, err := compdb.CompilePatterns(c.include)
	if err != nil {
		return err
	}

	entries, err := compdb.Load(path)
	if err != nil {
		return err
	}

	backup := compdb.BackupPath(path)
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := os.WriteFile(backup, b, 0o644); err != nil {
		return err
	}
	log.Infof("backup created: %s", backup)

	kept := compdb.FilterEntries(entries, exclude, include)
	out, err := json.MarshalIndent(kept, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return err
	}
	log.Infof("filtered: %d -> %d entries (%d removed)", len(entries), len(kept), len(entries)-len(kept))
	return nil
}
