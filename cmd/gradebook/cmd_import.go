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
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/AleutianAI/gradebook/pkg/gradebook"
	"github.com/AleutianAI/gradebook/pkg/logging"
	"github.com/AleutianAI/gradebook/pkg/metrics"
	"github.com/AleutianAI/gradebook/pkg/ux"
	"github.com/AleutianAI/gradebook/pkg/validation"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// errGradeAndScore rejects records that give both forms of grade.
var errGradeAndScore = errors.New("give either grade or score and total, not both")

// =============================================================================
// Import records
// =============================================================================

// importRecord is one entry of an import file.
//
// Numbers are kept as text and parsed with the same rules as interactive
// answers, so "weight: 20%" is accepted in both places.
type importRecord struct {
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
	Weight   string `yaml:"weight"`
	Grade    string `yaml:"grade,omitempty"`
	Score    string `yaml:"score,omitempty"`
	Total    string `yaml:"total,omitempty"`
}

// assignment validates the record into an Assignment.
func (r importRecord) assignment() (gradebook.Assignment, error) {
	name, err := validation.NormalizeName(r.Name)
	if err != nil {
		return gradebook.Assignment{}, err
	}
	category, err := gradebook.ParseCategory(r.Category)
	if err != nil {
		return gradebook.Assignment{}, err
	}
	weight, err := validation.ParsePercent("weight", r.Weight)
	if err != nil {
		return gradebook.Assignment{}, err
	}

	var grade float64
	switch {
	case r.Grade != "" && (r.Score != "" || r.Total != ""):
		return gradebook.Assignment{}, errGradeAndScore
	case r.Grade != "":
		grade, err = validation.ParsePercent("grade", r.Grade)
	case r.Score != "" || r.Total != "":
		grade, err = validation.ParseScore(r.Score, r.Total)
	default:
		err = &validation.FieldError{Field: "grade", Err: validation.ErrEmpty}
	}
	if err != nil {
		return gradebook.Assignment{}, err
	}

	// A score above its total gives a grade over 100; NewAssignment rejects it.
	return gradebook.NewAssignment(name, category, weight, grade)
}

// readImportFile decodes a YAML list of records. Unknown keys are errors.
func readImportFile(path string) ([]importRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read the import file %s: %w", path, err)
	}

	var records []importRecord
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&records); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse the import file %s: %w", path, err)
	}
	return records, nil
}

// =============================================================================
// Import summary
// =============================================================================

// SkippedRecord describes a record left out of the gradebook.
type SkippedRecord struct {
	// Index is the 1-based position in the import file.
	Index  int    `json:"index" yaml:"index"`
	Name   string `json:"name,omitempty" yaml:"name,omitempty"`
	Reason string `json:"reason" yaml:"reason"`
	Error  string `json:"error" yaml:"error"`
}

// ImportSummary is the structured result of "gradebook import".
type ImportSummary struct {
	Source   string           `json:"source" yaml:"source"`
	Accepted int              `json:"accepted" yaml:"accepted"`
	Skipped  []SkippedRecord  `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Report   gradebook.Report `json:"report" yaml:"report"`
}

// importRecords adds records to book in order and closes it.
//
// # Description
//
// Each record is validated and added on its own; a bad record is skipped
// without affecting the others. Capacity is checked against the records
// accepted so far, so the first records to fill a category win.
//
// # Inputs
//
//   - book: an accepting gradebook; it is closed on return
//   - records: decoded import entries
//   - m: optional metrics, nil to skip
//   - log: logger for per-record debug records
//   - onSkip: called for every skipped record with its error; may be nil
func importRecords(
	book *gradebook.Gradebook,
	records []importRecord,
	m *metrics.SessionMetrics,
	log *logging.Logger,
	onSkip func(SkippedRecord, error),
) ImportSummary {
	var summary ImportSummary
	for i, r := range records {
		a, err := r.assignment()
		if err == nil {
			err = book.Add(a)
		}
		if err != nil {
			skipped := SkippedRecord{
				Index:  i + 1,
				Name:   r.Name,
				Reason: ux.RejectReason(err),
				Error:  err.Error(),
			}
			summary.Skipped = append(summary.Skipped, skipped)
			if m != nil {
				m.Rejected(skipped.Reason)
			}
			log.Debug("record skipped", "index", skipped.Index, "reason", skipped.Reason, "error", err)
			if onSkip != nil {
				onSkip(skipped, err)
			}
			continue
		}

		summary.Accepted++
		if m != nil {
			m.Accepted(a)
		}
		log.Debug("record imported", "index", i+1, "name", a.Name(), "category", string(a.Category()))
	}

	summary.Report = book.Close()
	if m != nil {
		m.ObserveReport(summary.Report)
	}
	return summary
}

// =============================================================================
// Command
// =============================================================================

// runImport is the CLI handler for "gradebook import FILE".
//
// # Exit Codes
//
//   - 0: every record was imported, or --watch was interrupted
//   - 1: some records were skipped, or the outcome is FAIL with --fail-exit
//   - 2: the file could not be read or parsed
func runImport(cmd *cobra.Command, args []string) error {
	path := args[0]
	format, err := ParseOutputFormat(importOutput)
	if err != nil {
		return err
	}
	if importWatch {
		return watchImport(cmd, path, format)
	}
	return importFile(cmd, path, format)
}

// watchImport grades the file now and again after every change until the
// command context is cancelled. Findings never stop the loop; read and
// parse errors are reported and the next save is awaited.
func watchImport(cmd *cobra.Command, path string, format OutputFormat) error {
	watcher, err := NewFileWatcher(path, importDebounce, logger)
	if err != nil {
		return err
	}

	rerun := func() {
		err := importFile(cmd, path, format)
		if exitCode(err) == CLIExitError {
			fmt.Fprintf(cmd.ErrOrStderr(), "import: %v\n", err)
		}
	}

	rerun()
	logger.Info("watching import file", "path", path, "debounce", importDebounce.String())
	return watcher.Run(cmd.Context(), rerun)
}

// importFile grades one pass over the import file.
func importFile(cmd *cobra.Command, path string, format OutputFormat) error {
	start := time.Now()
	records, err := readImportFile(path)
	if err != nil {
		return err
	}

	sessionID := uuid.NewString()
	book, err := newGradebook(sessionID)
	if err != nil {
		return err
	}
	warnUnreachable(book)
	log := logger.With("session_id", sessionID, "source", path)
	sessionMetrics := metrics.NewSessionMetrics()

	out := cmd.OutOrStdout()
	var ui ux.SessionUI
	var onSkip func(SkippedRecord, error)
	if format == OutputText {
		ui = ux.NewSessionUIWithWriter(out, ux.GetPersonality().Level)
		onSkip = func(s SkippedRecord, err error) {
			ui.Rejected(fmt.Errorf("record %d (%s) skipped: %w", s.Index, s.Name, err))
		}
	}

	summary := importRecords(book, records, sessionMetrics, log, onSkip)
	summary.Source = path
	log.Info("import finished",
		"accepted", summary.Accepted,
		"skipped", len(summary.Skipped),
		"outcome", string(summary.Report.Result.Outcome))

	if format == OutputText {
		ui.Transcript(summary.Report.Transcript)
		ui.Outcome(summary.Report.Result)
		ui.SessionEnd(sessionID, ux.SessionStats{
			Accepted: summary.Accepted,
			Rejected: len(summary.Skipped),
			Duration: time.Since(start),
		})
	} else if err := writeStructured(out, format, newCommandResult("import", start, summary), importCompact); err != nil {
		return err
	}

	if err := flushMetrics(sessionMetrics); err != nil {
		return err
	}
	if len(summary.Skipped) > 0 {
		return &ExitError{Code: CLIExitFindings}
	}
	return outcomeError(summary.Report.Result)
}

// flushMetrics writes the metrics textfile when one is configured.
func flushMetrics(m *metrics.SessionMetrics) error {
	path := cfg.Metrics.Textfile
	if path == "" {
		return nil
	}
	if err := m.WriteTextfile(path); err != nil {
		logger.Error("metrics not written", "path", path, "error", err)
		return err
	}
	logger.Debug("metrics written", "path", path)
	return nil
}
