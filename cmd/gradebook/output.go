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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Exit codes for CLI commands.
const (
	CLIExitSuccess  = 0 // Operation completed successfully
	CLIExitFindings = 1 // Completed, but some records were rejected or the outcome is FAIL
	CLIExitError    = 2 // Operation failed
)

// =============================================================================
// Output format
// =============================================================================

// OutputFormat selects how a command writes its result.
type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputYAML OutputFormat = "yaml"
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat converts an --output value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case OutputText, "":
		return OutputText, nil
	case OutputYAML, "yml":
		return OutputYAML, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, yaml or json)", s)
	}
}

// CommandResult wraps structured command output with metadata.
type CommandResult struct {
	APIVersion string    `json:"api_version" yaml:"api_version"`
	Command    string    `json:"command" yaml:"command"`
	Timestamp  time.Time `json:"timestamp" yaml:"timestamp"`
	DurationMs int64     `json:"duration_ms" yaml:"duration_ms"`
	Success    bool      `json:"success" yaml:"success"`
	Data       any       `json:"data,omitempty" yaml:"data,omitempty"`
	Error      string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// newCommandResult builds a successful envelope for data.
func newCommandResult(command string, start time.Time, data any) CommandResult {
	return CommandResult{
		APIVersion: "1.0",
		Command:    command,
		Timestamp:  time.Now(),
		DurationMs: time.Since(start).Milliseconds(),
		Success:    true,
		Data:       data,
	}
}

// writeStructured encodes v as YAML or JSON.
//
// # Inputs
//
//   - w: destination, usually cmd.OutOrStdout()
//   - format: OutputYAML or OutputJSON
//   - v: value to encode
//   - compact: JSON without indentation (ignored for YAML)
func writeStructured(w io.Writer, format OutputFormat, v any, compact bool) error {
	switch format {
	case OutputJSON:
		encoder := json.NewEncoder(w)
		if !compact {
			encoder.SetIndent("", "  ")
		}
		if err := encoder.Encode(v); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	case OutputYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return encoder.Close()
	default:
		return fmt.Errorf("format %q is not structured", format)
	}
}

// =============================================================================
// ExitError
// =============================================================================

// ExitError carries a non-default exit code out of a cobra RunE.
//
// # Description
//
// Commands that finish their work but still want a non-zero status (records
// skipped during import, a FAIL outcome with --fail-exit) return an
// ExitError. main reports Err, if any, and exits with Code.
type ExitError struct {
	// Code is the process exit code.
	Code int

	// Err is the underlying error. Nil when the output already explained
	// the status.
	Err error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("exit %d: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("exit %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitCode maps a command error to a process exit code.
func exitCode(err error) int {
	if err == nil {
		return CLIExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return CLIExitError
}
