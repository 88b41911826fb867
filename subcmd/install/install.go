// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package install is the install subcommand to set up compiler shims.
package install

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"
	"go.chromium.org/luci/common/flag/stringlistflag"
)

const usage = `install compiler shims pointing at cchook.

 $ cchook install -dir <bindir> [-name <compiler>]... [-force]

Creates symlinks in <bindir> named after compilers (default gcc, cc,
c++, g++) pointing at the cchook binary. Put <bindir> first in PATH, or
set CC/CXX to a shim, so every compile step of a build goes through the
wrapper. The wrapper reads $CC_HOOK_COMPDB_LOG_FILE and
$CC_HOOK_COMPDB_CC.
`

var defaultNames = []string{"gcc", "cc", "c++", "g++"}

// Cmd returns the Command for the `install` subcommand provided by this package.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "install -dir <bindir> [-name <compiler>]... [-force]",
		ShortDesc: "install compiler shims",
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

	dir   string
	names stringlistflag.Flag
	force bool
}

func (c *run) init() {
	c.Flags.StringVar(&c.dir, "dir", "", "directory to create the shims in")
	c.Flags.Var(&c.names, "name", "shim name to create (can be repeated. default gcc, cc, c++, g++)")
	c.Flags.BoolVar(&c.force, "force", false, "replace existing shims")
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
	if c.dir == "" {
		return fmt.Errorf("-dir is not specified: %w", flag.ErrHelp)
	}
	self, err := os.Executable()
	if err != nil {
		return err
	}
	self, err = filepath.EvalSymlinks(self)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	names := []string(c.names)
	if len(names) == 0 {
		names = defaultNames
	}
	for _, name := range names {
		link := filepath.Join(c.dir, name)
		if c.force {
			if err := os.Remove(link); err != nil && !os.IsNotExist(err) {
				return err
			}
		}
		if err := os.Symlink(self, link); err != nil {
			return err
		}
		log.Infof("installed %s -> %s", link, self)
	}
	return nil
}
