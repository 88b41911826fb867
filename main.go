// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"

	log "github.com/golang/glog"
	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"

	"go.chromium.org/infra/build/cchook/subcmd/check"
	"go.chromium.org/infra/build/cchook/subcmd/filtercmd"
	"go.chromium.org/infra/build/cchook/subcmd/generate"
	"go.chromium.org/infra/build/cchook/subcmd/install"
	"go.chromium.org/infra/build/cchook/subcmd/version"
	"go.chromium.org/infra/build/cchook/subcmd/wrap"
)

// cchook observes compiler invocations of a build and compiles them
// into compile_commands.json.

const cchookVersion = "0.1"

func main() {
	// Compiler shim invocations carry raw compiler flags and must
	// never reach the subcommand flag parser.
	if args, ok := shimArgs(os.Args); ok {
		os.Exit(wrap.Main(context.Background(), wrap.ConfigFromEnv(), args))
	}

	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintf(out, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(out, "global flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	os.Exit(cchookMain(flag.Args()))
}

// shimArgs reports whether this process was invoked as a compiler
// wrapper, and if so returns the compiler's argument vector. The
// wrapper is reached through a shim symlink (argv[0] is anything but
// cchook, see the install subcommand) or as `cchook cc <args>...`.
func shimArgs(argv []string) ([]string, bool) {
	prog := strings.TrimSuffix(filepath.Base(argv[0]), ".exe")
	if prog != "cchook" {
		return argv[1:], true
	}
	if len(argv) > 1 && argv[1] == "cc" {
		return argv[2:], true
	}
	return nil, false
}

func cchookMain(args []string) int {
	// Flush the log on exit to not lose any messages.
	defer log.Flush()

	// Print a stack trace when a panic occurs.
	defer func() {
		if r := recover(); r != nil {
			const size = 64 << 10
			buf := make([]byte, size)
			buf = buf[:runtime.Stack(buf, false)]
			log.Fatalf("panic: %v\n%s", r, buf)
		}
	}()

	// Print build information to the log.
	buildinfo, ok := debug.ReadBuildInfo()
	if ok {
		log.V(1).Infof("buildinfo: path=%q %s", buildinfo.Path, vcsInfo(buildinfo))
	}

	return subcommands.Run(getApplication(), args)
}

func getApplication() *cli.Application {
	return &cli.Application{
		Name:  "cchook",
		Title: "compiler hook to capture compile commands",
		Context: func(ctx context.Context) context.Context {
			return ctx
		},
		Commands: []*subcommands.Command{
			generate.Cmd(),
			filtercmd.Cmd(),
			check.Cmd(),
			install.Cmd(),
			version.Cmd(cchookVersion),
			subcommands.CmdHelp,
		},
	}
}

func vcsInfo(buildinfo *debug.BuildInfo) string {
	m := make(map[string]string)
	for _, bs := range buildinfo.Settings {
		if strings.HasPrefix(bs.Key, "vcs.") {
			m[bs.Key] = bs.Value
		}
	}
	return fmt.Sprintf("vcs[revision=%s time=%s modified=%s]", m["vcs.revision"], m["vcs.time"], m["vcs.modified"])
}
