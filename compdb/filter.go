// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package compdb

import (
	"fmt"
	"os"
	"regexp"
)

// CompilePatterns compiles pattern strings into regexps.
func CompilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", p, err)
		}
		res = append(res, re)
	}
	return res, nil
}

// FilterEntries keeps entries whose File matches no exclude pattern.
// An entry matching an exclude pattern is still kept if it also
// matches an include pattern.
func FilterEntries(entries []Entry, exclude, include []*regexp.Regexp) []Entry {
	kept := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if !matchAny(exclude, e.File) || matchAny(include, e.File) {
			kept = append(kept, e)
		}
	}
	return kept
}

func matchAny(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// BackupPath returns the first backup path for path that does not
// exist yet: path.bak, path.bak.1, path.bak.2, ...
func BackupPath(path string) string {
	base := path + ".bak"
	p := base
	for i := 1; ; i++ {
		if _, err := os.Lstat(p); os.IsNotExist(err) {
			return p
		}
		p = fmt.Sprintf("%s.%d", base, i)
	}
}
