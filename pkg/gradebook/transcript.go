// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package gradebook

import (
	"slices"
	"time"
)

// TranscriptRow is one assignment line of a transcript.
type TranscriptRow struct {
	Name         string   `yaml:"name" json:"name"`
	Category     Category `yaml:"category" json:"category"`
	Code         string   `yaml:"code" json:"code"`
	Grade        float64  `yaml:"grade" json:"grade"`
	Weight       float64  `yaml:"weight" json:"weight"`
	Contribution float64  `yaml:"contribution" json:"contribution"`
}

// CategoryTotal is the summary line of one category.
type CategoryTotal struct {
	Category  Category `yaml:"category" json:"category"`
	MaxWeight float64  `yaml:"max_weight" json:"max_weight"`
	Weight    float64  `yaml:"weight" json:"weight"`
	Total     float64  `yaml:"total" json:"total"`
}

// Transcript is the ordered listing of every assignment followed by totals.
//
// Rows hold Formative assignments first, then Summative, each group in
// insertion order. Totals follow the same category order.
type Transcript struct {
	Rows      []TranscriptRow `yaml:"rows" json:"rows"`
	Totals    []CategoryTotal `yaml:"totals" json:"totals"`
	GPA       float64         `yaml:"gpa" json:"gpa"`
	GPAScale  float64         `yaml:"gpa_scale" json:"gpa_scale"`
	GPAPolicy GPAPolicy       `yaml:"gpa_policy" json:"gpa_policy"`
}

// Total returns the summary line for c and whether it exists.
func (t Transcript) Total(c Category) (CategoryTotal, bool) {
	for _, total := range t.Totals {
		if total.Category == c {
			return total, true
		}
	}
	return CategoryTotal{}, false
}

// Outcome is the overall pass/fail verdict.
type Outcome string

const (
	Pass Outcome = "PASS"
	Fail Outcome = "FAIL"
)

// CategoryStanding compares one category's total with its pass threshold.
type CategoryStanding struct {
	Category    Category `yaml:"category" json:"category"`
	MaxWeight   float64  `yaml:"max_weight" json:"max_weight"`
	Total       float64  `yaml:"total" json:"total"`
	Threshold   float64  `yaml:"threshold" json:"threshold"`
	Assignments int      `yaml:"assignments" json:"assignments"`
}

// Met reports whether the category passes: it needs at least one
// assignment and a total at or above the threshold.
func (s CategoryStanding) Met() bool {
	return s.Assignments > 0 && s.Total >= s.Threshold
}

// Reachable reports whether full marks on the whole category weight would
// meet the threshold. A fixed threshold above a small cap can never pass.
func (s CategoryStanding) Reachable() bool {
	return s.Threshold <= s.MaxWeight
}

// Shortfall returns the points still missing, or 0 when the threshold is met.
func (s CategoryStanding) Shortfall() float64 {
	if s.Total >= s.Threshold {
		return 0
	}
	return roundWeight(s.Threshold - s.Total)
}

// Result is the outcome of a pass/fail evaluation.
type Result struct {
	Outcome    Outcome            `yaml:"outcome" json:"outcome"`
	Policy     PassPolicy         `yaml:"policy" json:"policy"`
	Categories []CategoryStanding `yaml:"categories" json:"categories"`
}

// Passed is shorthand for r.Outcome == Pass.
func (r Result) Passed() bool {
	return r.Outcome == Pass
}

// Report is the frozen output of a closed gradebook.
type Report struct {
	SessionID  string     `yaml:"session_id,omitempty" json:"session_id,omitempty"`
	ClosedAt   time.Time  `yaml:"closed_at" json:"closed_at"`
	Transcript Transcript `yaml:"transcript" json:"transcript"`
	Result     Result     `yaml:"result" json:"result"`
}

// clone returns a copy of r that shares no slices with it.
func (r Report) clone() Report {
	out := r
	out.Transcript.Rows = slices.Clone(r.Transcript.Rows)
	out.Transcript.Totals = slices.Clone(r.Transcript.Totals)
	out.Result.Categories = slices.Clone(r.Result.Categories)
	return out
}
