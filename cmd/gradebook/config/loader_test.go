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
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// TestLoad_DefaultPathMissing verifies a missing default file yields defaults
// and is not created.
func TestLoad_DefaultPathMissing(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("expected defaults, got %+v", cfg)
	}
	if _, err := os.Stat(filepath.Join(home, DirName, FileName)); !os.IsNotExist(err) {
		t.Error("Load must not create the config file")
	}
}

func TestLoad_DefaultPathPresent(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, DirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("policy:\n  gpa: weighted\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Policy.GPA != "weighted" {
		t.Errorf("Policy.GPA = %q, want weighted", cfg.Policy.GPA)
	}
}

func TestLoad_ExplicitPathMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing explicit path")
	}
	if !strings.Contains(err.Error(), "failed to read the config file") {
		t.Errorf("unexpected error: %v", err)
	}
}

// TestLoad_PartialOverride verifies unspecified fields keep their defaults.
func TestLoad_PartialOverride(t *testing.T) {
	path := writeConfig(t, `
policy:
  pass: fixed
  pass_threshold: 45
ui:
  personality: minimal
logging:
  level: debug
  json: true
metrics:
  textfile: /tmp/gradebook.prom
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Policy.Pass != "fixed" || cfg.Policy.PassThreshold != 45 {
		t.Errorf("unexpected policy %+v", cfg.Policy)
	}
	if cfg.Policy.GPA != "budget" || cfg.Policy.PassRatio != 0.6 {
		t.Errorf("defaults lost: %+v", cfg.Policy)
	}
	if cfg.Categories.FormativeMax != 60 || cfg.Categories.SummativeMax != 40 {
		t.Errorf("defaults lost: %+v", cfg.Categories)
	}
	if cfg.UI.Personality != "minimal" || !cfg.Logging.JSON || cfg.Logging.Level != "debug" {
		t.Errorf("unexpected ui/logging %+v %+v", cfg.UI, cfg.Logging)
	}
	if cfg.Metrics.Textfile != "/tmp/gradebook.prom" {
		t.Errorf("Metrics.Textfile = %q", cfg.Metrics.Textfile)
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load() failed on empty file: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown key", "policy:\n  gpaa: weighted\n", "failed to parse"},
		{"malformed yaml", "policy: [unclosed\n", "failed to parse"},
		{"bad gpa policy", "policy:\n  gpa: average\n", "invalid config"},
		{"ratio above 1", "policy:\n  pass_ratio: 1.5\n", "invalid config"},
		{"zero max", "categories:\n  formative_max: 0\n", "invalid config"},
		{"budget over 100", "categories:\n  formative_max: 70\n", "must not sum past 100"},
		{"bad personality", "ui:\n  personality: loud\n", "invalid config"},
		{"bad log level", "logging:\n  level: trace\n", "invalid config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
			if cfg != DefaultConfig() {
				t.Errorf("expected defaults on error, got %+v", cfg)
			}
		})
	}
}
