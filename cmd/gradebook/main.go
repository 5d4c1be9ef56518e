// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command gradebook records assignment grades for one student session and
// reports a transcript, a GPA and a PASS/FAIL outcome.
//
// Architecture:
//
//	commands.go → Collector (collector.go) → gradebook.Gradebook
//	                 ↓              ↓
//	              Prompter       ux.SessionUI
//	   (LinePrompter / FormPrompter)
//
// "gradebook import" feeds records from a YAML file instead of prompts.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/AleutianAI/gradebook/pkg/ux"
)

func main() {
	os.Exit(execute())
}

// execute runs the root command and returns the process exit code.
func execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer func() { _ = logger.Close() }()

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return CLIExitSuccess
	}

	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Err != nil {
		ux.Error(err.Error())
	}
	return exitCode(err)
}
