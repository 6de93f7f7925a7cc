// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package metrics

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/kleinerm/Psychtoolbox-3-sub009/base/errors"
	"github.com/kleinerm/Psychtoolbox-3-sub009/base/fsx"
)

// EnvPipe is the environment variable that names the metrics pipe
// written by the compositor.
const EnvPipe = "XRT_METRICS_FILE"

// OpenPipe opens the metrics stream at the given path for reading.
// A leading ~ is expanded. If the file does not exist yet and wait
// is positive, it waits up to wait for the file to be created.
func OpenPipe(ctx context.Context, path string, wait time.Duration) (io.ReadCloser, error) {
	if path == "" {
		return nil, errors.New("metrics: no pipe path given")
	}
	path = fsx.ExpandHome(path)
	if wait > 0 {
		if err := waitForFile(ctx, path, wait); err != nil {
			return nil, err
		}
	}
	return openFIFO(path)
}

func waitForFile(ctx context.Context, path string, wait time.Duration) error {
	if exists(path) {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	// the file may have appeared before the watch was added
	if exists(path) {
		return nil
	}
	slog.Info("waiting for metrics pipe", "path", path, "timeout", wait)
	timer := time.NewTimer(wait)
	defer timer.Stop()
	clean := filepath.Clean(path)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("metrics: watcher closed")
			}
			if event.Has(fsnotify.Create) && filepath.Clean(event.Name) == clean {
				return nil
			}
		case err, ok := <-watcher.Errors:
			if ok {
				return err
			}
		case <-timer.C:
			return fmt.Errorf("metrics: timed out waiting for %s: %w", path, os.ErrNotExist)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// exists is like [fsx.FileExists], but also true for pipes.
func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
