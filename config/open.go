// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/kleinerm/Psychtoolbox-3-sub009/base/errors"
	"github.com/kleinerm/Psychtoolbox-3-sub009/base/fsx"
	"github.com/kleinerm/Psychtoolbox-3-sub009/base/iox"
	"github.com/kleinerm/Psychtoolbox-3-sub009/base/iox/tomlx"
	"github.com/kleinerm/Psychtoolbox-3-sub009/base/iox/yamlx"
)

// IncludePaths is the default list of paths to look for config files on.
var IncludePaths = []string{".", "configs", "~/.config/xrcore"}

// Includer facilitates processing include files in config objects.
type Includer interface {
	// IncludesPtr returns a pointer to the Includes []string field containing
	// file(s) to include before processing the current config file.
	IncludesPtr() *[]string
}

// DecoderFor returns the decoder to use for the given config
// file based on its extension: YAML for .yaml and .yml, and
// TOML otherwise.
func DecoderFor(file string) iox.DecoderFunc {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		return yamlx.NewDecoder
	default:
		return tomlx.NewDecoder
	}
}

// Open reads the given config object from the given config file,
// looking on the given paths for the file ([IncludePaths] if nil).
// It opens any Includes specified in the config file in the natural
// include order so that includers overwrite included settings.
func Open(cfg any, file string, paths []string) error {
	if paths == nil {
		paths = IncludePaths
	}
	files := fsx.FindFilesOnPaths(paths, file)
	if len(files) == 0 {
		return fmt.Errorf("config.Open: no files found for %q", file)
	}
	if err := iox.OpenFiles(cfg, files, DecoderFor(file)); err != nil {
		return err
	}
	incfg, ok := cfg.(Includer)
	if !ok {
		return nil
	}
	incs, err := includeStack(paths, incfg)
	ni := len(incs)
	if ni == 0 {
		return err
	}
	for i := ni - 1; i >= 0; i-- {
		inc := incs[i]
		ifiles := fsx.FindFilesOnPaths(paths, inc)
		if err := iox.OpenFiles(cfg, ifiles, DecoderFor(inc)); err != nil {
			slog.Warn("config include", "file", inc, "err", err)
		}
	}
	// reopen original
	if err := iox.OpenFiles(cfg, files, DecoderFor(file)); err != nil {
		return err
	}
	*incfg.IncludesPtr() = incs
	return err
}

// includeStack returns the stack of include files in the natural
// order in which they are encountered (nil if none).
// Files should then be read in reverse order of the slice.
// Returns an error if any of the include files cannot be found.
// Does not alter cfg.
func includeStack(paths []string, cfg Includer) ([]string, error) {
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	clone := reflect.New(typ).Interface().(Includer)
	*clone.IncludesPtr() = *cfg.IncludesPtr()
	return includeStackImpl(paths, clone, nil, map[string]bool{})
}

func includeStackImpl(paths []string, clone Includer, includes []string, seen map[string]bool) ([]string, error) {
	incs := *clone.IncludesPtr()
	ni := len(incs)
	if ni == 0 {
		return includes, nil
	}
	for i := ni - 1; i >= 0; i-- {
		includes = append(includes, incs[i]) // reverse order so later overwrite earlier
	}
	var errs []error
	for _, inc := range incs {
		if seen[inc] {
			errs = append(errs, fmt.Errorf("config: include cycle at %q", inc))
			continue
		}
		seen[inc] = true
		*clone.IncludesPtr() = nil
		files := fsx.FindFilesOnPaths(paths, inc)
		if len(files) == 0 {
			errs = append(errs, fmt.Errorf("config: include file %q not found", inc))
			continue
		}
		if err := iox.OpenFiles(clone, files, DecoderFor(inc)); err != nil {
			errs = append(errs, err)
			continue
		}
		var err error
		includes, err = includeStackImpl(paths, clone, includes, seen)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return includes, errors.Join(errs...)
}
