// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package gradebook implements the assignment model and the weighted grade
// aggregator behind the gradebook CLI.
//
// # Overview
//
// An Assignment is a validated, immutable record of one piece of graded work.
// A Gradebook collects assignments into the Formative and Summative
// categories, enforces each category's weight budget, and computes totals,
// a GPA and a pass/fail result.
//
//	book := gradebook.New()
//	quiz, err := gradebook.NewAssignment("Quiz1", gradebook.Formative, 20, 80)
//	if err != nil {
//	    return err
//	}
//	if err := book.Add(quiz); err != nil {
//	    return err
//	}
//	fmt.Println(book.CategoryTotal(gradebook.Formative)) // 16
//
// # Thread Safety
//
// Gradebook is owned by a single session and is not safe for concurrent
// mutation. Assignment values are immutable and may be shared freely.
package gradebook

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Category
// =============================================================================

// Category is one of the two fixed assignment categories.
type Category string

const (
	// Formative covers low-stakes work (quizzes, homework, group projects).
	Formative Category = "Formative"

	// Summative covers high-stakes work (exams, final projects).
	Summative Category = "Summative"
)

// Categories lists every category in transcript order.
var Categories = []Category{Formative, Summative}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return c == Formative || c == Summative
}

// Code returns the two-letter transcript code ("FA" or "SA").
func (c Category) Code() string {
	switch c {
	case Formative:
		return "FA"
	case Summative:
		return "SA"
	default:
		return "??"
	}
}

// String returns the category name.
func (c Category) String() string {
	return string(c)
}

// ParseCategory converts user text into a Category.
//
// Matching is case-insensitive and accepts the transcript codes, so
// "formative", "FORMATIVE" and "fa" all yield Formative.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "formative", "fa":
		return Formative, nil
	case "summative", "sa":
		return Summative, nil
	default:
		return "", &ValidationError{Field: "category", Value: Category(strings.TrimSpace(s)), Err: ErrInvalidCategory}
	}
}

// =============================================================================
// Assignment
// =============================================================================

// Assignment is a validated record of one graded piece of work.
//
// Fields are unexported so a value can only come from NewAssignment; there
// is no way to observe a partially validated Assignment.
type Assignment struct {
	name     string
	category Category
	weight   float64
	grade    float64
	weighted float64
}

// assignmentInput carries the validator tags for NewAssignment.
type assignmentInput struct {
	Name     string   `validate:"required"`
	Category Category `validate:"oneof=Formative Summative"`
	Weight   float64  `validate:"gte=0,lte=100"`
	Grade    float64  `validate:"gte=0,lte=100"`
}

// assignmentValidate is shared; validator caches struct metadata per type.
var assignmentValidate = validator.New(validator.WithRequiredStructEnabled())

// NewAssignment validates its inputs and returns an immutable Assignment.
//
// # Description
//
// Checks the name, category, weight and grade in that order and reports the
// first failure as a *ValidationError wrapping the matching sentinel. On
// success the weighted contribution (grade * weight / 100) is computed once
// and stored.
//
// # Inputs
//
//   - name: Assignment label; surrounding whitespace is trimmed.
//   - category: Formative or Summative.
//   - weight: Percentage of the overall grade, 0 to 100 inclusive.
//   - grade: Percentage score, 0 to 100 inclusive.
//
// # Outputs
//
//   - Assignment: The validated record (zero value on error).
//   - error: *ValidationError, or nil.
//
// # Examples
//
//	a, err := NewAssignment("Exam", Summative, 40, 90)
//	// a.WeightedContribution() == 36
func NewAssignment(name string, category Category, weight, grade float64) (Assignment, error) {
	in := assignmentInput{
		Name:     strings.TrimSpace(name),
		Category: category,
		Weight:   weight,
		Grade:    grade,
	}

	// gte/lte compare with >= and <=, so NaN and the infinities fail too.
	if err := assignmentValidate.Struct(in); err != nil {
		return Assignment{}, toValidationError(err, in)
	}

	return Assignment{
		name:     in.Name,
		category: category,
		weight:   weight,
		grade:    grade,
		weighted: grade * weight / 100,
	}, nil
}

// toValidationError maps the first validator failure to a *ValidationError.
func toValidationError(err error, in assignmentInput) error {
	var fieldErrs validator.ValidationErrors
	field := ""
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		field = fieldErrs[0].StructField()
	}

	switch field {
	case "Name":
		return &ValidationError{Field: "name", Value: in.Name, Err: ErrEmptyName}
	case "Category":
		return &ValidationError{Field: "category", Value: in.Category, Err: ErrInvalidCategory}
	case "Weight":
		return &ValidationError{Field: "weight", Value: in.Weight, Err: ErrInvalidWeight}
	case "Grade":
		return &ValidationError{Field: "grade", Value: in.Grade, Err: ErrInvalidGrade}
	default:
		return fmt.Errorf("validate assignment: %w", err)
	}
}

// Name returns the assignment label.
func (a Assignment) Name() string { return a.name }

// Category returns the assignment category.
func (a Assignment) Category() Category { return a.category }

// Weight returns the weight percentage.
func (a Assignment) Weight() float64 { return a.weight }

// Grade returns the grade percentage.
func (a Assignment) Grade() float64 { return a.grade }

// WeightedContribution returns grade * weight / 100 as computed at construction.
func (a Assignment) WeightedContribution() float64 { return a.weighted }
