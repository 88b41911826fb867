// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package gccutil provides utilities of gcc command lines.
package gccutil

import (
	"path/filepath"
	"strings"
)

// sourceExts are the recognized source file extensions.
// Matching is suffix-based and case-sensitive. ".C" and ".cxx"
// are intentionally not recognized.
var sourceExts = []string{".c", ".cc", ".cpp"}

// IsSource reports whether arg names a source file.
func IsSource(arg string) bool {
	for _, ext := range sourceExts {
		if strings.HasSuffix(arg, ext) {
			return true
		}
	}
	return false
}

// SourceFiles returns the source files found in args, joined to dir.
// Args that are already absolute are kept as is. No normalization
// is applied beyond the join. Order of args is preserved.
func SourceFiles(args []string, dir string) []string {
	var srcs []string
	for _, arg := range args {
		if !IsSource(arg) {
			continue
		}
		if filepath.IsAbs(arg) {
			srcs = append(srcs, arg)
			continue
		}
		srcs = append(srcs, filepath.Join(dir, arg))
	}
	return srcs
}
