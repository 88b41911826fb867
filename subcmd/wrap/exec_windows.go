// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

//go:build windows

package wrap

import (
	"context"
	"errors"
	"os"
	"os/exec"
)

// execCompiler has no process-image replacement on windows. It spawns
// the compiler with inherited standard streams and environment, waits,
// and propagates the child's exact exit code.
func execCompiler(ctx context.Context, compiler string, args []string) (int, error) {
	cmd := exec.CommandContext(ctx, compiler, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var eerr *exec.ExitError
	if errors.As(err, &eerr) {
		return eerr.ExitCode(), nil
	}
	return 0, err
}
