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
	"strconv"
	"strings"

	"github.com/AleutianAI/gradebook/pkg/gradebook"
	"github.com/AleutianAI/gradebook/pkg/ux"
	"github.com/spf13/cobra"
)

// runPolicy is the CLI handler for "gradebook policy".
//
// It prints the rules a session would run under after the config file and
// flags are applied, so a student can check the thresholds before entering
// anything.
func runPolicy(_ *cobra.Command, _ []string) error {
	book, err := newGradebook("")
	if err != nil {
		return err
	}

	standings := book.Progress()
	var caps []string
	for _, s := range standings {
		caps = append(caps, fmt.Sprintf("%s: max %s%% of the grade, pass at %.2f points",
			s.Category, formatWeight(s.MaxWeight), s.Threshold))
	}

	ux.Title("Grading policy")
	ux.Box("Categories", strings.Join(caps, "\n"))
	ux.Info("Pass rule: " + book.PassPolicy().String() + ", every category must reach its threshold")
	ux.Info("A category with no assignments does not pass")
	ux.Info("Weighted grade: grade x weight / 100")
	ux.Info(fmt.Sprintf("GPA (%s): %s, scale %s",
		book.GPAPolicy(), book.GPAPolicy().Formula(), formatWeight(book.GPAScale())))

	unreachable := 0
	for _, s := range standings {
		if !s.Reachable() {
			unreachable++
			ux.Warning(unreachableMessage(s))
		}
	}
	if unreachable == 0 {
		ux.Success("Every category can reach its pass threshold")
	}

	logger.Debug("policy shown", "gpa_policy", string(book.GPAPolicy()), "pass_policy", book.PassPolicy().String())
	return nil
}

func unreachableMessage(s gradebook.CategoryStanding) string {
	return fmt.Sprintf("%s can never pass: its threshold of %.2f points is above its %s%% maximum weight",
		s.Category, s.Threshold, formatWeight(s.MaxWeight))
}

// warnUnreachable logs every category whose threshold is above its cap.
func warnUnreachable(book *gradebook.Gradebook) {
	for _, s := range book.Progress() {
		if !s.Reachable() {
			logger.Warn("pass threshold above category maximum",
				"category", string(s.Category),
				"threshold", s.Threshold,
				"max_weight", s.MaxWeight)
		}
	}
}

func formatWeight(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
