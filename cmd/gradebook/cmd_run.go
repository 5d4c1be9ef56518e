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
	"fmt"
	"os"

	"github.com/AleutianAI/gradebook/pkg/metrics"
	"github.com/AleutianAI/gradebook/pkg/ux"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// historySize bounds the answers kept for up-arrow recall.
const historySize = 50

// runSession is the CLI handler for "gradebook" and "gradebook run".
//
// # Description
//
// Builds a gradebook from the active configuration, runs the Collector over
// the chosen prompter, and writes the metrics textfile when configured. The
// transcript and outcome are always rendered, even when input ends early.
//
// # Exit Codes
//
//   - 0: session finished
//   - 1: outcome is FAIL and --fail-exit is set
//   - 2: configuration, input or metrics error
func runSession(cmd *cobra.Command, _ []string) error {
	sessionID := uuid.NewString()
	book, err := newGradebook(sessionID)
	if err != nil {
		return err
	}
	warnUnreachable(book)

	ui := ux.NewSessionUIWithWriter(cmd.OutOrStdout(), ux.GetPersonality().Level)
	sessionMetrics := metrics.NewSessionMetrics()

	collector := NewCollector(CollectorConfig{
		Book:     book,
		Prompter: newPrompter(cmd, ui),
		UI:       ui,
		Logger:   logger,
		Metrics:  sessionMetrics,
	})

	report, runErr := collector.Run(cmd.Context())

	if err := flushMetrics(sessionMetrics); err != nil && runErr == nil {
		runErr = err
	}

	if runErr != nil {
		return fmt.Errorf("session %s: %w", sessionID, runErr)
	}
	return outcomeError(report.Result)
}

// newPrompter picks the input front end.
//
// A non-stdin input (tests, cmd.SetIn) is always read line by line. On a
// terminal, --form selects huh widgets and otherwise a bubbletea line
// editor is used; both fall back to plain stdin reads when stdin is piped.
func newPrompter(cmd *cobra.Command, ui ux.SessionUI) Prompter {
	out := cmd.OutOrStdout()
	if in := cmd.InOrStdin(); in != os.Stdin {
		return NewLinePrompter(newLineReader(in), out, ui)
	}
	if cfg.UI.Form {
		return NewFormPrompter(ui)
	}
	if ux.IsInteractive() {
		return NewLinePrompter(NewInteractiveInputReader(historySize), out, ui)
	}
	return NewLinePrompter(NewStdinReader(), out, ui)
}
