// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// DirName is the per-user config directory under $HOME.
	DirName = ".gradebook"

	// FileName is the config file inside DirName.
	FileName = "gradebook.yaml"
)

// DefaultPath returns ~/.gradebook/gradebook.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find the user's home directory: %w", err)
	}
	return filepath.Join(home, DirName, FileName), nil
}

// Load reads the configuration at path over DefaultConfig and validates it.
//
// # Description
//
// An empty path means DefaultPath; a missing file there is not an error and
// yields the defaults. An explicit path that does not exist is an error.
// The file is never created or rewritten. Unknown keys are rejected so a
// typo does not silently fall back to a default.
//
// # Examples
//
//	cfg, err := config.Load("")            // ~/.gradebook/gradebook.yaml if present
//	cfg, err := config.Load("./ci.yaml")   // must exist
func Load(path string) (GradebookConfig, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read the config file %s: %w", path, err)
	}

	if err := decode(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse the config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return DefaultConfig(), fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func decode(data []byte, cfg *GradebookConfig) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
