// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fsx provides various utility functions for dealing with filesystems.
package fsx

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kleinerm/Psychtoolbox-3-sub009/base/errors"
	"github.com/mitchellh/go-homedir"
)

// ExpandHome expands a leading ~ in the given path to the user's
// home directory. Paths without a leading ~ are returned unchanged.
// Errors are logged and the path is returned unchanged.
func ExpandHome(path string) string {
	if path == "" {
		return path
	}
	exp, err := homedir.Expand(path)
	if errors.Log(err) != nil {
		return path
	}
	return exp
}

// FileExists checks whether the given file exists, returning true if so,
// false if not, and an error if there is an error in accessing the file.
func FileExists(filePath string) (bool, error) {
	fileInfo, err := os.Stat(filePath)
	if err == nil {
		return !fileInfo.IsDir(), nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// FindFilesOnPaths attempts to locate the given file on the given list of paths,
// returning the full Abs path to each file found (nil if none). A file given
// as an absolute path is only checked for existence. Leading ~ in paths and
// the file name is expanded.
func FindFilesOnPaths(paths []string, file string) []string {
	file = ExpandHome(file)
	if filepath.IsAbs(file) {
		if ok, _ := FileExists(file); ok {
			return []string{file}
		}
		return nil
	}
	var res []string
	for _, path := range paths {
		fp := filepath.Join(ExpandHome(path), file)
		ok, _ := FileExists(fp)
		if !ok {
			continue
		}
		if abs, err := filepath.Abs(fp); err == nil {
			fp = abs
		}
		res = append(res, fp)
	}
	return res
}
