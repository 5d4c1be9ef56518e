// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/AleutianAI/gradebook/pkg/gradebook"
)

// transcriptRule is the width of the transcript title and footer bars.
const transcriptRule = 50

// HeaderConfig contains what the session header shows.
//
// # Fields
//
//   - SessionID: identifier logged with every record. May be empty.
//   - Standings: one entry per category; MaxWeight and Threshold are shown.
//   - GPAPolicy: GPA formula in effect.
//   - PassPolicy: pass rule in effect.
type HeaderConfig struct {
	SessionID  string
	Standings  []gradebook.CategoryStanding
	GPAPolicy  gradebook.GPAPolicy
	PassPolicy gradebook.PassPolicy
}

// SessionStats summarizes a finished collection session.
type SessionStats struct {
	Accepted int
	Rejected int
	Duration time.Duration
}

// SessionUI defines the rendering operations of a grading session.
// Implementations handle rendering session elements to different outputs.
type SessionUI interface {
	// Header displays the welcome banner with category caps and pass thresholds.
	Header(config HeaderConfig)

	// Prompt returns the styled prompt string for a question.
	Prompt(question string) string

	// RemainingWeight announces the weight still available in a category.
	// When nothing is left it is rendered as a warning.
	RemainingWeight(category gradebook.Category, remaining float64)

	// ConvertedGrade echoes a grade derived from a raw score and total.
	ConvertedGrade(grade float64)

	// Progress displays each category's total against its pass threshold.
	Progress(standings []gradebook.CategoryStanding)

	// Transcript displays the full grade transcript.
	Transcript(t gradebook.Transcript)

	// Outcome displays the pass thresholds and the final verdict.
	Outcome(r gradebook.Result)

	// Rejected displays why an input or record was refused.
	Rejected(err error)

	// Notice displays an informational line.
	Notice(message string)

	// SessionEnd displays session end information.
	SessionEnd(sessionID string, stats SessionStats)
}

// terminalSessionUI implements SessionUI for terminal output
type terminalSessionUI struct {
	writer      io.Writer
	personality PersonalityLevel
	showTips    bool
}

// NewSessionUI creates a terminal SessionUI on stdout using the current personality.
func NewSessionUI() SessionUI {
	p := GetPersonality()
	return &terminalSessionUI{
		writer:      os.Stdout,
		personality: p.Level,
		showTips:    p.ShowTips,
	}
}

// NewSessionUIWithWriter creates a SessionUI with a custom writer (for testing)
func NewSessionUIWithWriter(w io.Writer, personality PersonalityLevel) SessionUI {
	return &terminalSessionUI{
		writer:      w,
		personality: personality,
		showTips:    personality == PersonalityFull,
	}
}

// write is a helper that writes formatted output.
// Terminal write errors have no meaningful recovery and are dropped.
func (u *terminalSessionUI) write(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(u.writer, format, args...); err != nil {
		return
	}
}

func (u *terminalSessionUI) writeln(args ...interface{}) {
	if _, err := fmt.Fprintln(u.writer, args...); err != nil {
		return
	}
}

func (u *terminalSessionUI) styled() bool {
	return u.personality == PersonalityFull || u.personality == PersonalityStandard
}

// =============================================================================
// Header
// =============================================================================

// Header displays the session banner.
//
// # Description
//
// Shows the maximum weight of every category and the points needed to pass
// each one under the active pass policy. Full personality wraps it in a box;
// machine personality emits a single SESSION_START record.
func (u *terminalSessionUI) Header(config HeaderConfig) {
	switch u.personality {
	case PersonalityMachine:
		parts := make([]string, 0, 2+2*len(config.Standings))
		if config.SessionID != "" {
			parts = append(parts, "session="+config.SessionID)
		}
		for _, s := range config.Standings {
			key := strings.ToLower(string(s.Category))
			parts = append(parts,
				fmt.Sprintf("%s_max=%s", key, num(s.MaxWeight)),
				fmt.Sprintf("%s_pass=%s", key, num(s.Threshold)))
		}
		parts = append(parts, "gpa="+string(config.GPAPolicy))
		u.write("SESSION_START: %s\n", strings.Join(parts, " "))
		return
	case PersonalityMinimal:
		u.writeln("Welcome to the Grade Calculator!")
		u.writeln(capsLine(config.Standings))
		u.writeln(passLine(config.Standings))
		u.writeln()
		return
	}

	var content strings.Builder
	content.WriteString(capsLine(config.Standings))
	content.WriteString("\n")
	content.WriteString(passLine(config.Standings))
	content.WriteString("\n")
	content.WriteString(Styles.Muted.Render(fmt.Sprintf("Pass rule: %s | GPA: %s",
		config.PassPolicy, config.GPAPolicy)))
	if config.SessionID != "" {
		content.WriteString("\n")
		content.WriteString(fmt.Sprintf("Session: %s", Styles.Muted.Render(config.SessionID)))
	}

	if u.personality == PersonalityFull {
		u.writeln(renderBox("Welcome to the Grade Calculator!", content.String()))
	} else {
		u.writeln(Styles.Title.Render("Welcome to the Grade Calculator!"))
		u.writeln(content.String())
	}
	if u.showTips {
		u.writeln(Styles.Muted.Render("Press Ctrl+D at any prompt to finish and see your transcript."))
	}
	u.writeln()
}

func capsLine(standings []gradebook.CategoryStanding) string {
	parts := make([]string, 0, len(standings))
	for _, s := range standings {
		parts = append(parts, fmt.Sprintf("%s: %s%%", s.Category, num(s.MaxWeight)))
	}
	return "Note: Maximum weights - " + strings.Join(parts, ", ")
}

func passLine(standings []gradebook.CategoryStanding) string {
	parts := make([]string, 0, len(standings))
	for i, s := range standings {
		unit := ""
		if i == 0 {
			unit = " points"
		}
		parts = append(parts, fmt.Sprintf("%s%s in %s", num(s.Threshold), unit, s.Category))
	}
	return "To PASS: You need at least " + strings.Join(parts, " and ") + "."
}

// =============================================================================
// Collection feedback
// =============================================================================

// Prompt returns the styled input prompt string
func (u *terminalSessionUI) Prompt(question string) string {
	if u.styled() {
		return Styles.Highlight.Render(string(IconArrow)+" ") + question + " "
	}
	return question + " "
}

// RemainingWeight announces the headroom left in a category.
func (u *terminalSessionUI) RemainingWeight(category gradebook.Category, remaining float64) {
	if u.personality == PersonalityMachine {
		u.write("REMAINING: category=%s weight=%s\n", category, num(remaining))
		return
	}
	if remaining <= 0 {
		msg := fmt.Sprintf("No %s weight left. Choose the other category or finish.", category)
		if u.styled() {
			u.write("%s %s\n", IconWarning.Render(), Styles.Warning.Render(msg))
		} else {
			u.writeln(msg)
		}
		return
	}
	u.write("You have %s%% %s weight left.\n", num(remaining), category)
}

// ConvertedGrade echoes a grade computed from score and total.
func (u *terminalSessionUI) ConvertedGrade(grade float64) {
	if u.personality == PersonalityMachine {
		u.write("CONVERTED: grade=%.2f\n", grade)
		return
	}
	u.write("Converted grade: %.2f%%\n", grade)
}

// Progress displays category standings after each accepted assignment.
func (u *terminalSessionUI) Progress(standings []gradebook.CategoryStanding) {
	if u.personality == PersonalityMachine {
		for _, s := range standings {
			u.write("PROGRESS: category=%s total=%.2f threshold=%.2f met=%t\n",
				s.Category, s.Total, s.Threshold, s.Met())
		}
		return
	}

	u.writeln()
	if u.styled() {
		u.writeln(Styles.Subtitle.Render("[Progress]"))
	} else {
		u.writeln("[Progress]")
	}
	for _, s := range standings {
		u.write("%s: %.2f/%.2f needed to pass (%s max weight)\n",
			s.Category, s.Total, s.Threshold, num(s.MaxWeight))
		if u.personality == PersonalityFull {
			u.write("  %s\n", ProgressBar(s.Total, s.Threshold, 30))
		}
	}
	for _, s := range standings {
		switch {
		case s.Met():
			msg := fmt.Sprintf("%s: PASS threshold already met!", s.Category)
			if u.styled() {
				u.write("%s %s\n", IconSuccess.Render(), Styles.Success.Render(msg))
			} else {
				u.writeln(msg)
			}
		case s.Shortfall() == 0:
			u.pending(fmt.Sprintf("You need at least one %s assignment to pass.", s.Category))
		default:
			u.pending(fmt.Sprintf("You need %.2f more points in %s to pass.", s.Shortfall(), s.Category))
		}
	}
}

// pending writes a line about a threshold not yet met.
func (u *terminalSessionUI) pending(msg string) {
	if u.styled() {
		u.write("%s %s\n", IconPending.Render(), msg)
		return
	}
	u.writeln(msg)
}

// Rejected explains why an input was refused. Prompts re-ask afterwards.
func (u *terminalSessionUI) Rejected(err error) {
	if err == nil {
		return
	}
	if u.personality == PersonalityMachine {
		u.write("REJECTED: reason=%s message=%q\n", RejectReason(err), err.Error())
		return
	}
	msg := "Invalid input: " + err.Error()
	if u.styled() {
		u.write("%s %s\n", IconError.Render(), Styles.Error.Render(msg))
		return
	}
	u.writeln(msg)
}

// RejectReason maps a refused input to a stable label. Errors the gradebook
// does not classify, such as unparseable numbers, are "invalid_input".
func RejectReason(err error) string {
	if reason := gradebook.Reason(err); reason != "unknown" {
		return reason
	}
	return "invalid_input"
}

// Notice displays an informational line.
func (u *terminalSessionUI) Notice(message string) {
	if u.personality == PersonalityMachine {
		u.write("NOTICE: %s\n", message)
		return
	}
	if u.styled() {
		u.write("%s %s\n", Styles.Muted.Render("│"), message)
		return
	}
	u.writeln(message)
}

// =============================================================================
// Report
// =============================================================================

// Transcript renders the grade transcript.
//
// # Description
//
// Human personalities print the fixed-width table: a title bar, one row per
// assignment (Formative first), a total per category labelled with its
// maximum weight, and the GPA. Machine personality prints one tab-separated
// record per line: ROW, TOTAL and GPA.
//
// # Examples
//
//	==================================================
//	GRADE TRANSCRIPT
//	==================================================
//	Assignment           Category   Grade(%)   Weight     Weighted
//	--------------------------------------------------
//	Quiz1                FA         80.0       20.0       16.00
//	--------------------------------------------------
//	Formatives (60)                              16.00
//	Summatives (40)                              0.00
//	GPA                                          0.80
//	==================================================
func (u *terminalSessionUI) Transcript(t gradebook.Transcript) {
	if u.personality == PersonalityMachine {
		for _, r := range t.Rows {
			u.write("ROW\t%s\t%s\t%.1f\t%.1f\t%.2f\n", r.Name, r.Code, r.Grade, r.Weight, r.Contribution)
		}
		for _, total := range t.Totals {
			u.write("TOTAL\t%s\t%s\t%.2f\n", total.Category, num(total.MaxWeight), total.Total)
		}
		u.write("GPA\t%.2f\n", t.GPA)
		return
	}

	bar := strings.Repeat("=", transcriptRule)
	rule := strings.Repeat("-", transcriptRule)
	title := "GRADE TRANSCRIPT"
	if u.styled() {
		title = Styles.Title.Render(title)
	}

	u.writeln()
	u.writeln(bar)
	u.writeln(title)
	u.writeln(bar)
	u.write("%-20s %-10s %-10s %-10s %s\n", "Assignment", "Category", "Grade(%)", "Weight", "Weighted")
	u.writeln(rule)
	for _, r := range t.Rows {
		u.write("%-20s %-10s %-10.1f %-10.1f %.2f\n", r.Name, r.Code, r.Grade, r.Weight, r.Contribution)
	}
	u.writeln(rule)
	for _, total := range t.Totals {
		u.write("%-44s %.2f\n", fmt.Sprintf("%ss (%s)", total.Category, num(total.MaxWeight)), total.Total)
	}
	u.write("%-44s %.2f\n", "GPA", t.GPA)
	u.writeln(bar)
}

// Outcome renders the pass thresholds and the verdict.
func (u *terminalSessionUI) Outcome(r gradebook.Result) {
	if u.personality == PersonalityMachine {
		u.write("RESULT: %s\n", r.Outcome)
		for _, s := range r.Categories {
			u.write("CATEGORY: %s total=%.2f threshold=%.2f met=%t\n", s.Category, s.Total, s.Threshold, s.Met())
		}
		return
	}

	thresholds := make([]string, 0, len(r.Categories))
	for _, s := range r.Categories {
		thresholds = append(thresholds, fmt.Sprintf("%s: %.2f", s.Category, s.Threshold))
	}
	u.write("Pass threshold - %s\n", strings.Join(thresholds, ", "))
	u.writeln()

	if r.Passed() {
		msg := "Result: PASS (You met the minimum in every category!)"
		if u.styled() {
			u.write("%s %s\n", IconSuccess.Render(), Styles.Success.Bold(true).Render(msg))
		} else {
			u.writeln(msg)
		}
		return
	}

	msg := "Result: FAIL (You did not meet the minimum in one or more categories.)"
	if u.styled() {
		u.write("%s %s\n", IconError.Render(), Styles.Error.Bold(true).Render(msg))
	} else {
		u.writeln(msg)
	}
	for _, s := range r.Categories {
		switch {
		case s.Met():
		case s.Assignments == 0:
			u.write("No %s assignments were recorded.\n", s.Category)
		default:
			u.write("You needed %.2f more points in %s.\n", s.Shortfall(), s.Category)
		}
	}
}

// SessionEnd displays session end information.
func (u *terminalSessionUI) SessionEnd(sessionID string, stats SessionStats) {
	if u.personality == PersonalityMachine {
		u.write("SESSION_END: session=%s accepted=%d rejected=%d\n", sessionID, stats.Accepted, stats.Rejected)
		return
	}
	u.writeln()
	line := fmt.Sprintf("%d accepted, %d rejected", stats.Accepted, stats.Rejected)
	if stats.Duration > 0 {
		line += fmt.Sprintf(" in %s", stats.Duration.Round(time.Second))
	}
	if u.styled() {
		u.write("%s %s\n", Styles.Muted.Render("Session ended:"), line)
		if sessionID != "" {
			u.write("%s %s\n", Styles.Muted.Render("Session ID:"), sessionID)
		}
		return
	}
	u.write("Session ended: %s\n", line)
}
