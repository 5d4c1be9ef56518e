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
	"errors"
	"time"

	"github.com/AleutianAI/gradebook/pkg/gradebook"
	"github.com/AleutianAI/gradebook/pkg/logging"
	"github.com/AleutianAI/gradebook/pkg/metrics"
	"github.com/AleutianAI/gradebook/pkg/ux"
	"github.com/AleutianAI/gradebook/pkg/validation"
)

const (
	questionName     = "Enter the assignment (e.g., Group Project, Quiz4):"
	questionCategory = "Enter the category (Formative/Summative):"
	questionWeight   = "Enter assignment weight (0-100):"
	questionOutOf100 = "Was this assignment graded out of 100? (yes/no):"
	questionGrade    = "Enter your grade as a percentage (e.g., 85):"
	questionScore    = "Enter the score you received (e.g., 18):"
	questionTotal    = "Enter the total marks the assignment was out of (e.g., 20):"
	questionAnother  = "Add another assignment? (yes/no):"
)

// =============================================================================
// Collector
// =============================================================================

// CollectorConfig wires a Collector.
//
// # Fields
//
//   - Book: the gradebook being filled. Required.
//   - Prompter: where answers come from. Required.
//   - UI: session rendering. Required.
//   - Logger: defaults to logging.Nop().
//   - Metrics: optional; nil disables instrumentation.
//   - Now: clock for the session duration; defaults to time.Now.
//
// The session id shown in the header and attached to every log record is
// the one the Book was created with.
type CollectorConfig struct {
	Book     *gradebook.Gradebook
	Prompter Prompter
	UI       ux.SessionUI
	Logger   *logging.Logger
	Metrics  *metrics.SessionMetrics
	Now      func() time.Time
}

// Collector runs the interactive prompt loop around a Gradebook.
//
// # Description
//
// For each assignment it asks for a name, a category, a weight that still
// fits the category, and a grade (directly, or as score out of total). Bad
// answers are explained and asked again; they never reach the gradebook.
// When the user declines to add another assignment, runs out of weight, or
// stops answering, the gradebook is closed and the transcript and outcome
// are rendered.
//
// # Thread Safety
//
// Not thread-safe. A Collector runs one session once.
type Collector struct {
	book      *gradebook.Gradebook
	prompter  Prompter
	ui        ux.SessionUI
	logger    *logging.Logger
	metrics   *metrics.SessionMetrics
	sessionID string
	now       func() time.Time

	stats ux.SessionStats
}

// NewCollector creates a Collector from config.
func NewCollector(config CollectorConfig) *Collector {
	logger := config.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}
	if id := config.Book.SessionID(); id != "" {
		logger = logger.With("session_id", id)
	}
	return &Collector{
		book:      config.Book,
		prompter:  config.Prompter,
		ui:        config.UI,
		logger:    logger,
		metrics:   config.Metrics,
		sessionID: config.Book.SessionID(),
		now:       now,
	}
}

// Run collects assignments until the session ends and returns the report.
//
// # Outputs
//
//   - gradebook.Report: always valid, possibly with no assignments
//   - error: a read failure other than the user stopping; the report
//     covers everything accepted before it
func (c *Collector) Run(ctx context.Context) (gradebook.Report, error) {
	start := c.now()
	c.ui.Header(ux.HeaderConfig{
		SessionID:  c.sessionID,
		Standings:  c.book.Progress(),
		GPAPolicy:  c.book.GPAPolicy(),
		PassPolicy: c.book.PassPolicy(),
	})
	c.logger.Info("session started",
		"gpa_policy", string(c.book.GPAPolicy()),
		"pass_policy", c.book.PassPolicy().String())

	err := c.collect(ctx)
	if errors.Is(err, ErrAborted) {
		c.ui.Notice("Input cancelled by user.")
		c.logger.Info("collection aborted", "accepted", c.stats.Accepted)
		err = nil
	}
	if err != nil {
		c.logger.Error("collection failed", "error", err)
	}

	report := c.book.Close()
	c.stats.Duration = c.now().Sub(start)
	if c.metrics != nil {
		c.metrics.ObserveReport(report)
	}

	c.ui.Transcript(report.Transcript)
	c.ui.Outcome(report.Result)
	c.ui.SessionEnd(c.sessionID, c.stats)
	c.logger.Info("session closed",
		"accepted", c.stats.Accepted,
		"rejected", c.stats.Rejected,
		"gpa", report.Transcript.GPA,
		"outcome", string(report.Result.Outcome))

	return report, err
}

// Stats returns the accepted and rejected counts so far.
func (c *Collector) Stats() ux.SessionStats {
	return c.stats
}

func (c *Collector) collect(ctx context.Context) error {
	for {
		if !c.hasRoom() {
			c.ui.Notice("All category weight has been used.")
			return nil
		}

		a, err := c.collectAssignment(ctx)
		if err != nil {
			return err
		}
		if err := c.book.Add(a); err != nil {
			c.reject(err)
			continue
		}
		c.accept(a)
		c.ui.Progress(c.book.Progress())

		more, err := c.confirm(ctx, questionAnother)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

// hasRoom reports whether any category can still take weight.
func (c *Collector) hasRoom() bool {
	for _, cat := range gradebook.Categories {
		if c.book.RemainingWeight(cat) > 0 {
			return true
		}
	}
	return false
}

func (c *Collector) collectAssignment(ctx context.Context) (gradebook.Assignment, error) {
	name, err := ask(ctx, c, questionName, validation.NormalizeName)
	if err != nil {
		return gradebook.Assignment{}, err
	}

	category, err := c.askCategory(ctx)
	if err != nil {
		return gradebook.Assignment{}, err
	}

	weight, err := ask(ctx, c, questionWeight, func(raw string) (float64, error) {
		w, err := validation.ParsePercent("weight", raw)
		if err != nil {
			return 0, err
		}
		return w, c.book.ReserveWeight(category, w)
	})
	if err != nil {
		return gradebook.Assignment{}, err
	}

	grade, err := c.askGrade(ctx)
	if err != nil {
		return gradebook.Assignment{}, err
	}

	return gradebook.NewAssignment(name, category, weight, grade)
}

// askCategory repeats until the chosen category has weight left.
func (c *Collector) askCategory(ctx context.Context) (gradebook.Category, error) {
	options := make([]string, 0, len(gradebook.Categories))
	for _, cat := range gradebook.Categories {
		options = append(options, string(cat))
	}

	for {
		raw, err := c.prompter.Choose(ctx, questionCategory, options)
		if err != nil {
			return "", err
		}
		category, err := gradebook.ParseCategory(raw)
		if err != nil {
			c.reject(err)
			continue
		}
		remaining := c.book.RemainingWeight(category)
		c.ui.RemainingWeight(category, remaining)
		if remaining <= 0 {
			continue
		}
		return category, nil
	}
}

// askGrade asks for a percentage, or for a score and total when the
// assignment was not graded out of 100.
func (c *Collector) askGrade(ctx context.Context) (float64, error) {
	outOf100, err := c.confirm(ctx, questionOutOf100)
	if err != nil {
		return 0, err
	}
	if outOf100 {
		return ask(ctx, c, questionGrade, func(raw string) (float64, error) {
			return validation.ParsePercent("grade", raw)
		})
	}

	for {
		score, err := c.prompter.Ask(ctx, questionScore)
		if err != nil {
			return 0, err
		}
		total, err := c.prompter.Ask(ctx, questionTotal)
		if err != nil {
			return 0, err
		}
		grade, err := validation.ParseScore(score, total)
		if err != nil {
			c.reject(err)
			continue
		}
		if grade > 100 {
			c.reject(&gradebook.ValidationError{Field: "grade", Value: grade, Err: gradebook.ErrInvalidGrade})
			continue
		}
		c.ui.ConvertedGrade(grade)
		return grade, nil
	}
}

// confirm repeats a yes/no question until the answer is one of them.
func (c *Collector) confirm(ctx context.Context, question string) (bool, error) {
	for {
		ok, err := c.prompter.Confirm(ctx, question)
		if errors.Is(err, validation.ErrNotYesNo) {
			c.reject(err)
			continue
		}
		return ok, err
	}
}

// ask repeats question until parse accepts the answer. Parse errors are
// shown and counted; prompter errors end the loop.
func ask[T any](ctx context.Context, c *Collector, question string, parse func(string) (T, error)) (T, error) {
	for {
		raw, err := c.prompter.Ask(ctx, question)
		if err != nil {
			var zero T
			return zero, err
		}
		v, err := parse(raw)
		if err == nil {
			return v, nil
		}
		c.reject(err)
	}
}

func (c *Collector) accept(a gradebook.Assignment) {
	c.stats.Accepted++
	if c.metrics != nil {
		c.metrics.Accepted(a)
	}
	c.logger.Debug("assignment accepted",
		"name", a.Name(),
		"category", string(a.Category()),
		"weight", a.Weight(),
		"grade", a.Grade(),
		"contribution", a.WeightedContribution())
}

func (c *Collector) reject(err error) {
	reason := ux.RejectReason(err)
	c.stats.Rejected++
	if c.metrics != nil {
		c.metrics.Rejected(reason)
	}
	c.logger.Debug("input rejected", "reason", reason, "error", err)
	c.ui.Rejected(err)
}
