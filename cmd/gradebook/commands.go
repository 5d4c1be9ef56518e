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
	"time"

	"github.com/AleutianAI/gradebook/cmd/gradebook/config"
	"github.com/AleutianAI/gradebook/pkg/gradebook"
	"github.com/AleutianAI/gradebook/pkg/logging"
	"github.com/AleutianAI/gradebook/pkg/ux"
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	configPath       string
	personalityLevel string // UX personality level (full/standard/minimal/machine)
	logLevel         string
	logJSON          bool
	gpaPolicyFlag    string
	passPolicyFlag   string
	metricsFile      string
	useForm          bool
	failExit         bool
	importOutput     string
	importCompact    bool
	importWatch      bool
	importDebounce   time.Duration

	// cfg and logger are set by PersistentPreRunE before any command runs.
	cfg    = config.DefaultConfig()
	logger = logging.Default()

	rootCmd = &cobra.Command{
		Use:   "gradebook",
		Short: "Record assignment grades and check them against pass thresholds",
		Long: `gradebook collects assignments (name, Formative or Summative category,
weight and grade), keeps each category within its weight budget, and prints
a transcript with the weighted totals, a GPA and a PASS/FAIL outcome.

Run without arguments to start an interactive session.`,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setupCommand,
		RunE:              runSession,
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Start an interactive grading session",
		Args:  cobra.NoArgs,
		RunE:  runSession, // Defined in cmd_run.go
	}

	importCmd = &cobra.Command{
		Use:   "import FILE",
		Short: "Grade a YAML list of assignments without prompting",
		Long: `import reads a YAML list of records:

  - name: Quiz1
    category: Formative
    weight: 20
    grade: 80
  - name: Lab
    category: FA
    weight: 10
    score: 18
    total: 20

Invalid records are reported and skipped; the rest are graded in order.
With --watch the file is graded again after every save until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport, // Defined in cmd_import.go
	}

	policyCmd = &cobra.Command{
		Use:   "policy",
		Short: "Show the weight caps, pass thresholds and GPA formula in effect",
		Args:  cobra.NoArgs,
		RunE:  runPolicy, // Defined in cmd_policy.go
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "",
		"Config file (default ~/"+config.DirName+"/"+config.FileName+")")
	flags.StringVar(&personalityLevel, "personality", "",
		"Output style: full, standard, minimal, or machine (scripting)")
	flags.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.BoolVar(&logJSON, "log-json", false, "Write logs to stderr as JSON")
	flags.StringVar(&gpaPolicyFlag, "gpa-policy", "",
		"GPA formula: budget (divide by 100) or weighted (divide by weight entered)")
	flags.StringVar(&passPolicyFlag, "pass-policy", "",
		"Pass rule: proportional (share of each category max) or fixed (same points per category)")
	flags.StringVar(&metricsFile, "metrics-file", "",
		"Write Prometheus metrics in textfile format to this path at exit")
	flags.BoolVar(&useForm, "form", false, "Use form widgets instead of line prompts")
	flags.BoolVar(&failExit, "fail-exit", false, "Exit with status 1 when the outcome is FAIL")

	rootCmd.AddCommand(runCmd)

	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVarP(&importOutput, "output", "o", "text", "Output format: text, yaml or json")
	importCmd.Flags().BoolVar(&importCompact, "compact", false, "Compact JSON output")
	importCmd.Flags().BoolVarP(&importWatch, "watch", "w", false, "Grade the file again whenever it changes")
	importCmd.Flags().DurationVar(&importDebounce, "debounce", defaultDebounce, "Quiet period before a watched file is graded again")

	rootCmd.AddCommand(policyCmd)
}

// setupCommand loads configuration, applies flag overrides, and sets up
// the personality and logger shared by every command.
//
// # Precedence
//
// Flags win over the config file, which wins over built-in defaults. For
// the personality, GRADEBOOK_PERSONALITY sits between the flag and the
// config file.
func setupCommand(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := applyFlagOverrides(cmd, &loaded); err != nil {
		return err
	}
	cfg = loaded

	switch {
	case personalityLevel != "":
		ux.SetPersonalityLevel(ux.ParsePersonalityLevel(personalityLevel))
	case os.Getenv(ux.PersonalityEnvVar) == "" && cfg.UI.Personality != "":
		ux.SetPersonalityLevel(ux.ParsePersonalityLevel(cfg.UI.Personality))
	default:
		ux.InitPersonality()
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	logger = logging.New(logging.Config{
		Level:   level,
		Service: "gradebook",
		JSON:    cfg.Logging.JSON,
		Writer:  cmd.ErrOrStderr(),
	})
	logger.Debug("configuration loaded",
		"command", cmd.Name(),
		"gpa_policy", cfg.Policy.GPA,
		"pass_policy", cfg.Policy.Pass)
	return nil
}

// applyFlagOverrides copies explicitly set flags onto c and re-validates.
func applyFlagOverrides(cmd *cobra.Command, c *config.GradebookConfig) error {
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		c.Logging.Level = logLevel
	}
	if flags.Changed("log-json") {
		c.Logging.JSON = logJSON
	}
	if flags.Changed("gpa-policy") {
		c.Policy.GPA = gpaPolicyFlag
	}
	if flags.Changed("pass-policy") {
		c.Policy.Pass = passPolicyFlag
	}
	if flags.Changed("metrics-file") {
		c.Metrics.Textfile = metricsFile
	}
	if flags.Changed("form") {
		c.UI.Form = useForm
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("flags: %w", err)
	}
	return nil
}

// newGradebook builds an empty gradebook from the active configuration.
func newGradebook(sessionID string) (*gradebook.Gradebook, error) {
	opts, err := cfg.GradebookOptions()
	if err != nil {
		return nil, err
	}
	opts = append(opts, gradebook.WithSessionID(sessionID))
	return gradebook.New(opts...), nil
}

// outcomeError returns an ExitError for a FAIL outcome when --fail-exit is set.
func outcomeError(r gradebook.Result) error {
	if failExit && !r.Passed() {
		return &ExitError{Code: CLIExitFindings}
	}
	return nil
}
