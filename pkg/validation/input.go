// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation converts raw user text into typed gradebook inputs.
//
// The gradebook core only accepts semantically typed values. Everything the
// user types (or an import file contains) passes through these helpers
// first, so malformed primitives are rejected at the boundary with a
// message the prompt loop can show before asking again.
package validation

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxNameLength is the longest accepted assignment name, in runes.
const MaxNameLength = 100

var (
	// ErrEmpty is returned for blank input.
	ErrEmpty = errors.New("cannot be empty")

	// ErrNotANumber is returned when input does not parse as a finite number.
	ErrNotANumber = errors.New("must be a number")

	// ErrOutOfRange is returned for percentages outside [0,100].
	ErrOutOfRange = errors.New("must be between 0 and 100")

	// ErrNotPositive is returned when a total is zero or negative.
	ErrNotPositive = errors.New("must be greater than 0")

	// ErrNegative is returned when a raw score is below zero.
	ErrNegative = errors.New("cannot be negative")

	// ErrTooLong is returned for names longer than MaxNameLength.
	ErrTooLong = errors.New("must be at most 100 characters")

	// ErrControlChars is returned for names containing control characters.
	ErrControlChars = errors.New("cannot contain control characters")

	// ErrNotYesNo is returned when a confirmation is neither yes nor no.
	ErrNotYesNo = errors.New("please answer 'yes' or 'no'")
)

// namePattern rejects ASCII control characters (tabs and newlines included).
var namePattern = regexp.MustCompile(`^[^\x00-\x1f\x7f]+$`)

// FieldError ties a validation failure to the prompt it came from.
//
// Error renders as "<Field> <reason>", e.g. "Weight cannot be empty".
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return capitalize(e.Field) + " " + e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// NormalizeName trims an assignment name and checks it is usable.
//
// Example:
//
//	name, err := validation.NormalizeName("  Quiz4 ")
//	// name == "Quiz4"
func NormalizeName(s string) (string, error) {
	name := strings.TrimSpace(s)
	if name == "" {
		return "", &FieldError{Field: "assignment name", Err: ErrEmpty}
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", &FieldError{Field: "assignment name", Err: ErrTooLong}
	}
	if !namePattern.MatchString(name) {
		return "", &FieldError{Field: "assignment name", Err: ErrControlChars}
	}
	return name, nil
}

// ParseNumber parses a finite decimal number. A trailing "%" is allowed.
func ParseNumber(field, s string) (float64, error) {
	raw := strings.TrimSuffix(strings.TrimSpace(s), "%")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, &FieldError{Field: field, Err: ErrEmpty}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &FieldError{Field: field, Err: ErrNotANumber}
	}
	return v, nil
}

// ParsePercent parses a number and requires it to lie in [0,100].
func ParsePercent(field, s string) (float64, error) {
	v, err := ParseNumber(field, s)
	if err != nil {
		return 0, err
	}
	if v < 0 || v > 100 {
		return 0, &FieldError{Field: field, Err: ErrOutOfRange}
	}
	return v, nil
}

// ParseScore converts a raw score and the total it was out of into a
// percentage grade.
//
// # Description
//
// Supports assignments that were not graded out of 100: 18 out of 20 becomes
// 90. The total must be positive and the score non-negative. A score above
// the total yields a grade over 100, which the gradebook then rejects, so
// the caller can explain the problem in terms of the grade.
//
// # Outputs
//
//   - float64: raw / total * 100
//   - error: *FieldError for "score" or "total"
func ParseScore(raw, total string) (float64, error) {
	score, err := ParseNumber("score", raw)
	if err != nil {
		return 0, err
	}
	if score < 0 {
		return 0, &FieldError{Field: "score", Err: ErrNegative}
	}
	outOf, err := ParseNumber("total", total)
	if err != nil {
		return 0, err
	}
	if outOf <= 0 {
		return 0, &FieldError{Field: "total", Err: ErrNotPositive}
	}
	return score / outOf * 100, nil
}

// ParseYesNo accepts yes/y/no/n in any case.
func ParseYesNo(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	default:
		return false, ErrNotYesNo
	}
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
