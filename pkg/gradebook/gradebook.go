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
	"math"
	"time"
)

// =============================================================================
// State
// =============================================================================

// State is the lifecycle state of a Gradebook.
type State int

const (
	// StateAccepting is the default state; assignments can be added.
	StateAccepting State = iota

	// StateClosed is terminal; only the final report can be read.
	StateClosed
)

// String returns "accepting" or "closed".
func (s State) String() string {
	if s == StateClosed {
		return "closed"
	}
	return "accepting"
}

// =============================================================================
// Options
// =============================================================================

// Option configures a Gradebook at construction.
type Option func(*Gradebook)

// WithMaxWeight overrides the weight budget of one category.
func WithMaxWeight(c Category, max float64) Option {
	return func(g *Gradebook) {
		if c.Valid() {
			g.maxWeight[c] = max
		}
	}
}

// WithGPAPolicy selects the GPA formula.
func WithGPAPolicy(p GPAPolicy) Option {
	return func(g *Gradebook) { g.gpaPolicy = p }
}

// WithGPAScale sets the top of the GPA scale.
func WithGPAScale(scale float64) Option {
	return func(g *Gradebook) { g.gpaScale = scale }
}

// WithPassPolicy selects the pass threshold rule used by PassFail and Progress.
func WithPassPolicy(p PassPolicy) Option {
	return func(g *Gradebook) { g.passPolicy = p }
}

// WithSessionID tags the final report with the owning session.
func WithSessionID(id string) Option {
	return func(g *Gradebook) { g.sessionID = id }
}

// WithClock replaces time.Now for the report timestamp.
func WithClock(now func() time.Time) Option {
	return func(g *Gradebook) { g.now = now }
}

// =============================================================================
// Gradebook
// =============================================================================

// weightPrecision is the steps per point that weight sums and totals are
// rounded to, so float drift never moves a sum across a cap.
const weightPrecision = 1e9

// roundWeight rounds a summed weight or total to weightPrecision.
func roundWeight(v float64) float64 {
	return math.Round(v*weightPrecision) / weightPrecision
}

// Gradebook aggregates validated assignments for one session.
//
// # Description
//
// Holds the Formative and Summative sequences in insertion order and
// guarantees that the weights in each category never sum past the
// category's maximum. Totals, GPA and pass/fail are recomputed from the
// stored assignments on every call; nothing is cached except the final
// report produced by Close.
//
// # Lifecycle
//
// A Gradebook starts in StateAccepting. Close moves it to StateClosed,
// after which Add and ReserveWeight return ErrClosed. Reads keep working.
//
// # Thread Safety
//
// Not safe for concurrent use. A Gradebook belongs to one session.
type Gradebook struct {
	assignments map[Category][]Assignment
	maxWeight   map[Category]float64
	gpaPolicy   GPAPolicy
	gpaScale    float64
	passPolicy  PassPolicy
	sessionID   string
	now         func() time.Time

	state  State
	report Report
}

// New creates an empty Gradebook.
//
// Defaults: Formative max 60, Summative max 40, budget GPA on a 5 point
// scale, proportional pass at 60% of each category max.
func New(opts ...Option) *Gradebook {
	g := &Gradebook{
		assignments: map[Category][]Assignment{
			Formative: nil,
			Summative: nil,
		},
		maxWeight: map[Category]float64{
			Formative: DefaultFormativeMax,
			Summative: DefaultSummativeMax,
		},
		gpaPolicy:  GPABudget,
		gpaScale:   DefaultGPAScale,
		passPolicy: ProportionalPass(DefaultPassRatio),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SessionID returns the id set with WithSessionID, or "".
func (g *Gradebook) SessionID() string {
	return g.sessionID
}

// State returns the current lifecycle state.
func (g *Gradebook) State() State {
	return g.state
}

// GPAPolicy returns the configured GPA formula.
func (g *Gradebook) GPAPolicy() GPAPolicy {
	return g.gpaPolicy
}

// GPAScale returns the top of the GPA scale.
func (g *Gradebook) GPAScale() float64 {
	return g.gpaScale
}

// PassPolicy returns the configured pass threshold rule.
func (g *Gradebook) PassPolicy() PassPolicy {
	return g.passPolicy
}

// MaxWeight returns the weight budget of c, or 0 for unknown categories.
func (g *Gradebook) MaxWeight(c Category) float64 {
	return g.maxWeight[c]
}

// UsedWeight returns the summed weight of the assignments in c.
func (g *Gradebook) UsedWeight(c Category) float64 {
	var sum float64
	for _, a := range g.assignments[c] {
		sum += a.Weight()
	}
	return roundWeight(sum)
}

// RemainingWeight returns MaxWeight(c) - UsedWeight(c).
func (g *Gradebook) RemainingWeight(c Category) float64 {
	return roundWeight(g.MaxWeight(c) - g.UsedWeight(c))
}

// ReserveWeight checks whether weight still fits in category c.
//
// # Description
//
// Succeeds when the category's used weight plus the new weight does not
// exceed its maximum; the exact boundary is accepted. Nothing is recorded:
// the collector calls this before finalizing a weight so it can re-prompt
// early, and Add repeats the same check.
//
// # Outputs
//
//   - error: *ValidationError for unknown categories or weights outside
//     [0,100], *CapacityError when the budget would overflow, ErrClosed after Close,
//     nil otherwise.
func (g *Gradebook) ReserveWeight(c Category, weight float64) error {
	if g.state == StateClosed {
		return ErrClosed
	}
	if !c.Valid() {
		return &ValidationError{Field: "category", Value: c, Err: ErrInvalidCategory}
	}
	if !(weight >= 0 && weight <= 100) {
		return &ValidationError{Field: "weight", Value: weight, Err: ErrInvalidWeight}
	}
	used := g.UsedWeight(c)
	max := g.MaxWeight(c)
	if roundWeight(used+weight) > max {
		return &CapacityError{Category: c, Max: max, Used: used, Requested: weight}
	}
	return nil
}

// Add appends a validated assignment to its category.
//
// The assignment was validated by NewAssignment, so only the category budget
// and the lifecycle state are checked here. A rejected add leaves the
// gradebook unchanged.
func (g *Gradebook) Add(a Assignment) error {
	if err := g.ReserveWeight(a.Category(), a.Weight()); err != nil {
		return err
	}
	g.assignments[a.Category()] = append(g.assignments[a.Category()], a)
	return nil
}

// Assignments returns a copy of the assignments in c, in insertion order.
func (g *Gradebook) Assignments(c Category) []Assignment {
	src := g.assignments[c]
	out := make([]Assignment, len(src))
	copy(out, src)
	return out
}

// Len returns the number of accepted assignments across all categories.
func (g *Gradebook) Len() int {
	n := 0
	for _, c := range Categories {
		n += len(g.assignments[c])
	}
	return n
}

// CategoryTotal sums the weighted contributions of the assignments in c.
func (g *Gradebook) CategoryTotal(c Category) float64 {
	var sum float64
	for _, a := range g.assignments[c] {
		sum += a.WeightedContribution()
	}
	return roundWeight(sum)
}

// GPA returns the grade point average under the configured GPA policy.
//
// Returns 0 for an empty gradebook regardless of policy.
func (g *Gradebook) GPA() float64 {
	var contribution, weight float64
	for _, c := range Categories {
		contribution += g.CategoryTotal(c)
		weight += g.UsedWeight(c)
	}
	return g.gpaPolicy.Compute(contribution, weight, g.gpaScale)
}

// Progress returns each category's standing against the configured threshold.
func (g *Gradebook) Progress() []CategoryStanding {
	return g.standings(g.passPolicy)
}

// PassFail evaluates the gradebook under the configured pass policy.
func (g *Gradebook) PassFail() Result {
	return g.Evaluate(g.passPolicy)
}

// Evaluate returns Pass when every category has at least one assignment
// and a total at or above the threshold p assigns to it. An empty gradebook
// always fails.
func (g *Gradebook) Evaluate(p PassPolicy) Result {
	standings := g.standings(p)
	outcome := Pass
	for _, s := range standings {
		if !s.Met() {
			outcome = Fail
		}
	}
	return Result{Outcome: outcome, Policy: p, Categories: standings}
}

func (g *Gradebook) standings(p PassPolicy) []CategoryStanding {
	out := make([]CategoryStanding, 0, len(Categories))
	for _, c := range Categories {
		out = append(out, CategoryStanding{
			Category:    c,
			MaxWeight:   g.MaxWeight(c),
			Total:       g.CategoryTotal(c),
			Threshold:   p.ThresholdFor(g.MaxWeight(c)),
			Assignments: len(g.assignments[c]),
		})
	}
	return out
}

// Transcript lists every assignment, Formative first, followed by the
// category totals and the GPA. It can be produced in any state.
func (g *Gradebook) Transcript() Transcript {
	t := Transcript{
		Rows:      make([]TranscriptRow, 0, g.Len()),
		Totals:    make([]CategoryTotal, 0, len(Categories)),
		GPA:       g.GPA(),
		GPAScale:  g.gpaScale,
		GPAPolicy: g.gpaPolicy,
	}
	for _, c := range Categories {
		for _, a := range g.assignments[c] {
			t.Rows = append(t.Rows, TranscriptRow{
				Name:         a.Name(),
				Category:     c,
				Code:         c.Code(),
				Grade:        a.Grade(),
				Weight:       a.Weight(),
				Contribution: a.WeightedContribution(),
			})
		}
		t.Totals = append(t.Totals, CategoryTotal{
			Category:  c,
			MaxWeight: g.MaxWeight(c),
			Weight:    g.UsedWeight(c),
			Total:     g.CategoryTotal(c),
		})
	}
	return t
}

// Close freezes the gradebook and returns the final report.
//
// Calling Close again returns the same report. Each call returns a copy,
// so callers cannot change the frozen report.
func (g *Gradebook) Close() Report {
	if g.state == StateClosed {
		return g.report.clone()
	}
	g.report = Report{
		SessionID:  g.sessionID,
		ClosedAt:   g.now(),
		Transcript: g.Transcript(),
		Result:     g.PassFail(),
	}
	g.state = StateClosed
	return g.report.clone()
}

// Report returns the final report and true once the gradebook is closed.
func (g *Gradebook) Report() (Report, bool) {
	if g.state != StateClosed {
		return Report{}, false
	}
	return g.report.clone(), true
}
