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
	"fmt"
	"strconv"
)

// =============================================================================
// Sentinel Errors
// =============================================================================

var (
	// ErrEmptyName is returned when an assignment name is blank.
	ErrEmptyName = errors.New("assignment name cannot be empty")

	// ErrInvalidCategory is returned for categories other than Formative and Summative.
	ErrInvalidCategory = errors.New("category must be either 'Formative' or 'Summative'")

	// ErrInvalidWeight is returned when a weight falls outside [0,100].
	ErrInvalidWeight = errors.New("weight must be between 0 and 100")

	// ErrInvalidGrade is returned when a grade falls outside [0,100].
	ErrInvalidGrade = errors.New("grade must be between 0 and 100")

	// ErrCapacityExceeded is returned when a weight would push a category
	// past its maximum.
	ErrCapacityExceeded = errors.New("category weight capacity exceeded")

	// ErrClosed is returned by mutating operations after Close.
	ErrClosed = errors.New("gradebook is closed")
)

// =============================================================================
// ValidationError
// =============================================================================

// ValidationError reports which assignment field failed validation.
//
// # Description
//
// Wraps one of the field sentinels (ErrEmptyName, ErrInvalidCategory,
// ErrInvalidWeight, ErrInvalidGrade) together with the offending value so
// the collector can explain the rejection and re-prompt.
//
// # Example
//
//	_, err := NewAssignment("Quiz", Formative, 120, 80)
//	var vErr *ValidationError
//	if errors.As(err, &vErr) {
//	    fmt.Println(vErr.Field) // "weight"
//	}
//	errors.Is(err, ErrInvalidWeight) // true
type ValidationError struct {
	// Field is the lower-case field name ("name", "category", "weight", "grade").
	Field string

	// Value is the rejected input.
	Value any

	// Err is the sentinel describing the failure.
	Err error
}

// Error returns the sentinel message, followed by the rejected value when useful.
func (e *ValidationError) Error() string {
	switch v := e.Value.(type) {
	case float64:
		return fmt.Sprintf("%v (got %s)", e.Err, strconv.FormatFloat(v, 'f', -1, 64))
	case Category:
		if v != "" {
			return fmt.Sprintf("%v (got %q)", e.Err, string(v))
		}
	}
	return e.Err.Error()
}

// Unwrap enables errors.Is against the field sentinel.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// =============================================================================
// CapacityError
// =============================================================================

// CapacityError reports a weight reservation that would overflow a category.
type CapacityError struct {
	Category  Category
	Max       float64
	Used      float64
	Requested float64
}

// Remaining returns the weight still available in the category.
func (e *CapacityError) Remaining() float64 {
	return roundWeight(e.Max - e.Used)
}

// Error formats the message the collector shows before re-prompting.
//
// Example: "total Formative weight cannot exceed 60%. You have 40% left."
func (e *CapacityError) Error() string {
	return fmt.Sprintf("total %s weight cannot exceed %s%%. You have %s%% left.",
		e.Category, formatNumber(e.Max), formatNumber(e.Remaining()))
}

// Unwrap enables errors.Is(err, ErrCapacityExceeded).
func (e *CapacityError) Unwrap() error {
	return ErrCapacityExceeded
}

// =============================================================================
// Reason labels
// =============================================================================

// Reason maps an error from this package to a stable snake_case label.
//
// Labels are used as log attributes and metric label values, so they never
// change once published. Unknown errors map to "unknown", nil maps to "".
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyName):
		return "empty_name"
	case errors.Is(err, ErrInvalidCategory):
		return "invalid_category"
	case errors.Is(err, ErrInvalidWeight):
		return "invalid_weight"
	case errors.Is(err, ErrInvalidGrade):
		return "invalid_grade"
	case errors.Is(err, ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, ErrClosed):
		return "closed"
	default:
		return "unknown"
	}
}

// formatNumber prints the shortest exact form of v ("60", "12.5").
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
