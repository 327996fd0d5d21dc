// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 CTS-SAT-1 Ground Support Authors

package telecommand

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// SourceFile is one firmware source file read from the tree.
type SourceFile struct {
	// Path is relative to the scanned root, with forward slashes.
	Path string
	Text string
}

// SourceSet is an ordered collection of source files.
type SourceSet struct {
	Files []SourceFile
}

// Joined concatenates every file, separated by newlines so that the end of one
// file never runs into the start of the next.
func (s SourceSet) Joined() string {
	var b strings.Builder
	for _, f := range s.Files {
		b.WriteString(f.Text)
		b.WriteString("\n")
	}
	return b.String()
}

// ReadSources walks dir in lexical order and reads every file whose extension
// is in exts. Directories named in skipDirs are not entered.
func ReadSources(dir string, exts, skipDirs []string) (SourceSet, error) {
	var set SourceSet

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && slices.Contains(skipDirs, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !slices.Contains(exts, filepath.Ext(path)) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read source file %s: %w", path, err)
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}
		set.Files = append(set.Files, SourceFile{Path: filepath.ToSlash(rel), Text: string(data)})
		return nil
	})
	if err != nil {
		return SourceSet{}, fmt.Errorf("failed to scan sources in %s: %w", dir, err)
	}

	return set, nil
}
