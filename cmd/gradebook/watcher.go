// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/AleutianAI/gradebook/pkg/logging"
	"github.com/fsnotify/fsnotify"
)

// defaultDebounce is how long a file must stay quiet before a rerun.
const defaultDebounce = 200 * time.Millisecond

// FileWatcher reports debounced changes to a single file.
//
// # Description
//
// The parent directory is watched, not the file, so saves that rename a
// temp file into place are still seen.
//
// # Thread Safety
//
// Run must be called once. The change callback runs on the Run goroutine.
type FileWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	log      *logging.Logger
}

// NewFileWatcher starts watching the directory that holds path.
//
// Events are buffered from the moment this returns, so a write made
// before Run is called is still reported.
func NewFileWatcher(path string, debounce time.Duration, log *logging.Logger) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	if log == nil {
		log = logging.Nop()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	dir := filepath.Dir(abs)
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	return &FileWatcher{path: abs, watcher: w, debounce: debounce, log: log}, nil
}

// Run calls onChange after each burst of writes to the file, until ctx is
// done. It closes the watcher on return.
func (w *FileWatcher) Run(ctx context.Context, onChange func()) error {
	defer func() { _ = w.watcher.Close() }()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.log.Debug("file changed", "path", w.path, "op", event.Op.String())
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "path", w.path, "error", err)

		case <-timer.C:
			onChange()
		}
	}
}
