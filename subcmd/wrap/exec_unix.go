// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

//go:build unix

package wrap

import (
	"context"

	"golang.org/x/sys/unix"
)

// execCompiler replaces the process image with the compiler.
// It only returns on error.
func execCompiler(ctx context.Context, compiler string, args []string) (int, error) {
	argv := append([]string{compiler}, args...)
	err := unix.Exec(compiler, argv, unix.Environ())
	return 0, err
}
