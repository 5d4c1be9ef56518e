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
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Helpers
// =============================================================================

func mustAssignment(t *testing.T, name string, c Category, weight, grade float64) Assignment {
	t.Helper()
	a, err := NewAssignment(name, c, weight, grade)
	require.NoError(t, err)
	return a
}

func mustAdd(t *testing.T, g *Gradebook, name string, c Category, weight, grade float64) {
	t.Helper()
	require.NoError(t, g.Add(mustAssignment(t, name, c, weight, grade)))
}

// =============================================================================
// Weight Budget Tests
// =============================================================================

func TestGradebook_Defaults(t *testing.T) {
	g := New()
	assert.Equal(t, 60.0, g.MaxWeight(Formative))
	assert.Equal(t, 40.0, g.MaxWeight(Summative))
	assert.Equal(t, 60.0, g.RemainingWeight(Formative))
	assert.Equal(t, 40.0, g.RemainingWeight(Summative))
	assert.Equal(t, GPABudget, g.GPAPolicy())
	assert.Equal(t, 5.0, g.GPAScale())
	assert.Equal(t, ProportionalPass(0.6), g.PassPolicy())
	assert.Equal(t, StateAccepting, g.State())
	assert.Equal(t, 0, g.Len())
}

func TestGradebook_RemainingWeightDecreasesByAcceptedWeight(t *testing.T) {
	g := New()
	weights := []float64{20, 15.5, 10, 14.5}
	remaining := g.RemainingWeight(Formative)
	for _, w := range weights {
		mustAdd(t, g, "fa", Formative, w, 50)
		assert.Equal(t, remaining-w, g.RemainingWeight(Formative))
		remaining = g.RemainingWeight(Formative)
	}
	assert.Equal(t, 0.0, g.RemainingWeight(Formative))
	assert.Equal(t, 40.0, g.RemainingWeight(Summative), "other category untouched")
}

func TestGradebook_ReserveWeight(t *testing.T) {
	g := New()
	mustAdd(t, g, "Quiz1", Formative, 20, 80)

	err := g.ReserveWeight(Formative, 45)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	var capErr *CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, 40.0, capErr.Remaining())
	assert.Equal(t, Formative, capErr.Category)
	assert.Equal(t, 45.0, capErr.Requested)
	assert.Equal(t, "total Formative weight cannot exceed 60%. You have 40% left.", err.Error())

	// Boundary: landing exactly on the max is accepted.
	assert.NoError(t, g.ReserveWeight(Formative, 40))
	assert.NoError(t, g.ReserveWeight(Summative, 40))
	assert.Error(t, g.ReserveWeight(Summative, 40.01))

	// Reserving does not record anything.
	assert.Equal(t, 40.0, g.RemainingWeight(Formative))
}

func TestGradebook_ReserveWeight_DecimalWeightsReachCap(t *testing.T) {
	g := New()
	for _, w := range []float64{0.5, 19.6, 11.1, 21.7, 1.5} {
		mustAdd(t, g, "fa", Formative, w, 50)
	}

	assert.Equal(t, 5.6, g.RemainingWeight(Formative))
	assert.Equal(t, 54.4, g.UsedWeight(Formative))
	require.NoError(t, g.ReserveWeight(Formative, 5.6), "weights summing to exactly 60 fit")

	err := g.ReserveWeight(Formative, 5.7)
	require.Error(t, err)
	assert.Equal(t, "total Formative weight cannot exceed 60%. You have 5.6% left.", err.Error())

	mustAdd(t, g, "last", Formative, 5.6, 50)
	assert.Equal(t, 0.0, g.RemainingWeight(Formative))
	assert.Equal(t, 60.0, g.UsedWeight(Formative))
}

func TestGradebook_DecimalTotalsMeetThreshold(t *testing.T) {
	g := New()
	// Summed in float64 these contributions come to 35.99999999999999.
	for _, w := range []float64{12.4, 19.6, 22.2, 5.8} {
		mustAdd(t, g, "fa", Formative, w, 60)
	}
	mustAdd(t, g, "sa", Summative, 40, 60)

	standings := g.Progress()
	assert.Equal(t, 36.0, standings[0].Total)
	assert.True(t, standings[0].Met())
	assert.Equal(t, 0.0, standings[0].Shortfall())
	assert.Equal(t, Pass, g.PassFail().Outcome)
}

func TestGradebook_ReserveWeight_InvalidInput(t *testing.T) {
	g := New()
	assert.ErrorIs(t, g.ReserveWeight(Category("Lab"), 10), ErrInvalidCategory)
	assert.ErrorIs(t, g.ReserveWeight(Formative, -1), ErrInvalidWeight)
	assert.ErrorIs(t, g.ReserveWeight(Formative, math.NaN()), ErrInvalidWeight)
}

func TestGradebook_AddRejectsOverflowWithoutMutation(t *testing.T) {
	g := New()
	mustAdd(t, g, "Exam1", Summative, 30, 70)

	err := g.Add(mustAssignment(t, "Exam2", Summative, 15, 90))
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Len(t, g.Assignments(Summative), 1)
	assert.Equal(t, 21.0, g.CategoryTotal(Summative))
}

func TestGradebook_AddZeroValueAssignment(t *testing.T) {
	g := New()
	err := g.Add(Assignment{})
	assert.ErrorIs(t, err, ErrInvalidCategory)
	assert.Equal(t, 0, g.Len())
}

func TestGradebook_CustomMaxWeight(t *testing.T) {
	g := New(WithMaxWeight(Formative, 50), WithMaxWeight(Summative, 50), WithMaxWeight(Category("Lab"), 10))
	assert.Equal(t, 50.0, g.MaxWeight(Formative))
	assert.Equal(t, 50.0, g.MaxWeight(Summative))
	assert.Equal(t, 0.0, g.MaxWeight(Category("Lab")))
}

// =============================================================================
// Totals Tests
// =============================================================================

func TestGradebook_CategoryTotalsScenario(t *testing.T) {
	g := New()
	quiz := mustAssignment(t, "Quiz1", Formative, 20, 80)
	exam := mustAssignment(t, "Exam", Summative, 40, 90)
	assert.Equal(t, 16.0, quiz.WeightedContribution())
	assert.Equal(t, 36.0, exam.WeightedContribution())

	require.NoError(t, g.Add(quiz))
	require.NoError(t, g.Add(exam))

	assert.Equal(t, 16.0, g.CategoryTotal(Formative))
	assert.Equal(t, 36.0, g.CategoryTotal(Summative))
}

func TestGradebook_CategoryTotalIndependentOfInterleaving(t *testing.T) {
	build := func(order []int) *Gradebook {
		records := []struct {
			c      Category
			weight float64
			grade  float64
		}{
			{Formative, 10, 90},
			{Summative, 20, 60},
			{Formative, 25, 72},
			{Summative, 10, 100},
			{Formative, 5, 40},
		}
		g := New()
		for _, i := range order {
			r := records[i]
			mustAdd(t, g, "a", r.c, r.weight, r.grade)
		}
		return g
	}

	a := build([]int{0, 1, 2, 3, 4})
	b := build([]int{1, 3, 0, 2, 4})
	for _, c := range Categories {
		assert.InDelta(t, a.CategoryTotal(c), b.CategoryTotal(c), 1e-9)
	}
	assert.InDelta(t, 9+18+2, a.CategoryTotal(Formative), 1e-9)
	assert.InDelta(t, 12+10, a.CategoryTotal(Summative), 1e-9)
}

func TestGradebook_AssignmentsReturnsCopy(t *testing.T) {
	g := New()
	mustAdd(t, g, "Quiz1", Formative, 10, 80)
	list := g.Assignments(Formative)
	list[0] = Assignment{}
	assert.Equal(t, "Quiz1", g.Assignments(Formative)[0].Name())
}

// =============================================================================
// GPA Tests
// =============================================================================

func TestGradebook_GPAEmpty(t *testing.T) {
	for _, p := range []GPAPolicy{GPABudget, GPAWeighted} {
		t.Run(string(p), func(t *testing.T) {
			assert.Equal(t, 0.0, New(WithGPAPolicy(p)).GPA())
		})
	}
}

func TestGradebook_GPAZeroWeightOnly(t *testing.T) {
	g := New(WithGPAPolicy(GPAWeighted))
	mustAdd(t, g, "Ungraded", Formative, 0, 100)
	assert.Equal(t, 0.0, g.GPA())
}

func TestGradebook_GPAPolicies(t *testing.T) {
	// contributions 16 + 36 = 52 over weight 60
	tests := []struct {
		policy GPAPolicy
		want   float64
	}{
		{GPABudget, 52.0 / 100 * 5},
		{GPAWeighted, 52.0 / 60 * 5},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			g := New(WithGPAPolicy(tt.policy))
			mustAdd(t, g, "Quiz1", Formative, 20, 80)
			mustAdd(t, g, "Exam", Summative, 40, 90)
			assert.InDelta(t, tt.want, g.GPA(), 1e-9)
		})
	}
}

func TestGradebook_GPAScale(t *testing.T) {
	g := New(WithGPAScale(4))
	mustAdd(t, g, "Exam", Summative, 40, 100)
	mustAdd(t, g, "Work", Formative, 60, 100)
	assert.InDelta(t, 4.0, g.GPA(), 1e-9)
}

// =============================================================================
// Pass/Fail Tests
// =============================================================================

func TestGradebook_PassFailEmptyAlwaysFails(t *testing.T) {
	policies := []PassPolicy{
		ProportionalPass(0.6),
		ProportionalPass(0),
		FixedPass(50),
		FixedPass(0),
	}
	for _, p := range policies {
		t.Run(p.String(), func(t *testing.T) {
			g := New(WithPassPolicy(p))
			assert.Equal(t, Fail, g.PassFail().Outcome)
		})
	}
}

func TestGradebook_PassFailProportional(t *testing.T) {
	g := New()
	mustAdd(t, g, "Quiz1", Formative, 60, 60) // 36 == threshold
	mustAdd(t, g, "Exam", Summative, 40, 50)  // 20 < 24

	result := g.PassFail()
	assert.Equal(t, Fail, result.Outcome)
	require.Len(t, result.Categories, 2)

	fa := result.Categories[0]
	assert.Equal(t, Formative, fa.Category)
	assert.Equal(t, 36.0, fa.Threshold)
	assert.True(t, fa.Met())
	assert.Equal(t, 0.0, fa.Shortfall())

	sa := result.Categories[1]
	assert.Equal(t, 24.0, sa.Threshold)
	assert.False(t, sa.Met())
	assert.Equal(t, 4.0, sa.Shortfall())
}

func TestGradebook_PassFailPasses(t *testing.T) {
	g := New()
	mustAdd(t, g, "Quiz1", Formative, 60, 70)
	mustAdd(t, g, "Exam", Summative, 40, 80)
	result := g.PassFail()
	assert.True(t, result.Passed())
	assert.Equal(t, ProportionalPass(0.6), result.Policy)
}

func TestGradebook_EvaluateFixed(t *testing.T) {
	g := New()
	mustAdd(t, g, "Quiz1", Formative, 60, 90) // 54
	mustAdd(t, g, "Exam", Summative, 40, 100) // 40

	result := g.Evaluate(FixedPass(50))
	assert.Equal(t, Fail, result.Outcome)
	assert.True(t, result.Categories[0].Met())
	assert.False(t, result.Categories[1].Met())
	assert.Equal(t, 10.0, result.Categories[1].Shortfall())

	assert.True(t, g.Evaluate(FixedPass(30)).Passed())
}

func TestGradebook_CategoryWithoutAssignmentsFails(t *testing.T) {
	g := New(WithPassPolicy(FixedPass(0)))
	mustAdd(t, g, "Quiz1", Formative, 10, 100)
	result := g.PassFail()
	assert.Equal(t, Fail, result.Outcome)
	assert.False(t, result.Categories[1].Met())
	assert.Equal(t, 0, result.Categories[1].Assignments)
}

func TestCategoryStanding_Reachable(t *testing.T) {
	fixed := New(WithPassPolicy(FixedPass(50))).Progress()
	assert.True(t, fixed[0].Reachable(), "50 of a 60 cap")
	assert.False(t, fixed[1].Reachable(), "50 of a 40 cap")

	for _, s := range New().Progress() {
		assert.True(t, s.Reachable(), s.Category)
	}
}

func TestGradebook_Progress(t *testing.T) {
	g := New()
	mustAdd(t, g, "Quiz1", Formative, 20, 80)
	progress := g.Progress()
	require.Len(t, progress, 2)
	assert.Equal(t, 16.0, progress[0].Total)
	assert.Equal(t, 20.0, progress[0].Shortfall())
	assert.Equal(t, 24.0, progress[1].Shortfall())
}

// =============================================================================
// Transcript Tests
// =============================================================================

func TestGradebook_TranscriptOrdering(t *testing.T) {
	g := New()
	mustAdd(t, g, "Exam", Summative, 40, 90)
	mustAdd(t, g, "Quiz1", Formative, 20, 80)
	mustAdd(t, g, "Quiz2", Formative, 10, 50)

	tr := g.Transcript()
	require.Len(t, tr.Rows, 3)
	assert.Equal(t, []string{"Quiz1", "Quiz2", "Exam"},
		[]string{tr.Rows[0].Name, tr.Rows[1].Name, tr.Rows[2].Name})
	assert.Equal(t, "FA", tr.Rows[0].Code)
	assert.Equal(t, "SA", tr.Rows[2].Code)
	assert.Equal(t, 36.0, tr.Rows[2].Contribution)

	fa, ok := tr.Total(Formative)
	require.True(t, ok)
	assert.Equal(t, 21.0, fa.Total)
	assert.Equal(t, 30.0, fa.Weight)
	assert.Equal(t, 60.0, fa.MaxWeight)

	assert.InDelta(t, 57.0/100*5, tr.GPA, 1e-9)
	assert.Equal(t, GPABudget, tr.GPAPolicy)
}

func TestGradebook_TranscriptEmpty(t *testing.T) {
	tr := New().Transcript()
	assert.Empty(t, tr.Rows)
	require.Len(t, tr.Totals, 2)
	for _, total := range tr.Totals {
		assert.Equal(t, 0.0, total.Total)
	}
	assert.Equal(t, 0.0, tr.GPA)

	_, ok := tr.Total(Category("Lab"))
	assert.False(t, ok)
}

// =============================================================================
// Lifecycle Tests
// =============================================================================

func TestGradebook_Close(t *testing.T) {
	closedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	g := New(WithSessionID("session-1"), WithClock(func() time.Time { return closedAt }))
	mustAdd(t, g, "Quiz1", Formative, 20, 80)

	_, ok := g.Report()
	assert.False(t, ok, "no report before close")

	report := g.Close()
	assert.Equal(t, StateClosed, g.State())
	assert.Equal(t, "session-1", report.SessionID)
	assert.Equal(t, closedAt, report.ClosedAt)
	assert.Len(t, report.Transcript.Rows, 1)
	assert.Equal(t, Fail, report.Result.Outcome)

	// Closed gradebooks reject writes and keep their state.
	err := g.Add(mustAssignment(t, "Quiz2", Formative, 10, 90))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, g.ReserveWeight(Formative, 1), ErrClosed)
	assert.Equal(t, 1, g.Len())

	again, ok := g.Report()
	require.True(t, ok)
	assert.Equal(t, report, again)
	assert.Equal(t, report, g.Close())
}

func TestGradebook_ClosedReportCannotBeChanged(t *testing.T) {
	g := New()
	mustAdd(t, g, "Quiz1", Formative, 20, 80)

	report := g.Close()
	report.Transcript.Rows[0].Grade = 0
	report.Transcript.Totals[0].Total = 0
	report.Result.Categories[0].Total = 0

	again, ok := g.Report()
	require.True(t, ok)
	assert.Equal(t, 80.0, again.Transcript.Rows[0].Grade)
	assert.Equal(t, 16.0, again.Transcript.Totals[0].Total)
	assert.Equal(t, 16.0, again.Result.Categories[0].Total)

	again.Transcript.Rows[0].Name = "changed"
	assert.Equal(t, "Quiz1", g.Close().Transcript.Rows[0].Name)
}

func TestGradebook_SessionID(t *testing.T) {
	assert.Equal(t, "", New().SessionID())
	assert.Equal(t, "s-42", New(WithSessionID("s-42")).SessionID())
}

func TestGradebook_ClosePartialSession(t *testing.T) {
	report := New().Close()
	assert.Empty(t, report.Transcript.Rows)
	assert.Equal(t, 0.0, report.Transcript.GPA)
	assert.Equal(t, Fail, report.Result.Outcome)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "accepting", StateAccepting.String())
	assert.Equal(t, "closed", StateClosed.String())
}
