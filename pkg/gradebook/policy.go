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
	"fmt"
	"strings"
)

// =============================================================================
// Defaults
// =============================================================================

const (
	// DefaultFormativeMax is the Formative weight budget.
	DefaultFormativeMax = 60.0

	// DefaultSummativeMax is the Summative weight budget.
	DefaultSummativeMax = 40.0

	// DefaultGPAScale is the top of the GPA scale.
	DefaultGPAScale = 5.0

	// DefaultPassRatio is the share of a category's max weight needed to pass.
	DefaultPassRatio = 0.6

	// DefaultFixedThreshold is the per-category threshold of the fixed policy.
	DefaultFixedThreshold = 50.0

	// fullWeightBudget is the denominator of the budget GPA formula.
	fullWeightBudget = 100.0
)

// =============================================================================
// GPA Policy
// =============================================================================

// GPAPolicy selects the formula that turns weighted contributions into a GPA.
type GPAPolicy string

const (
	// GPABudget divides the summed contributions by the full 100% budget:
	// (Σ contribution / 100) * scale. Unused weight counts as zero.
	GPABudget GPAPolicy = "budget"

	// GPAWeighted divides by the weight actually entered:
	// (Σ contribution / Σ weight) * scale.
	GPAWeighted GPAPolicy = "weighted"
)

// ParseGPAPolicy converts a config or flag value into a GPAPolicy.
func ParseGPAPolicy(s string) (GPAPolicy, error) {
	switch GPAPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case GPABudget:
		return GPABudget, nil
	case GPAWeighted:
		return GPAWeighted, nil
	default:
		return "", fmt.Errorf("unknown GPA policy %q (want budget or weighted)", s)
	}
}

// Compute applies the policy. It never divides by zero: an empty or
// zero-weight gradebook yields 0.
func (p GPAPolicy) Compute(contribution, weight, scale float64) float64 {
	denominator := fullWeightBudget
	if p == GPAWeighted {
		denominator = weight
	}
	if denominator <= 0 || contribution <= 0 {
		return 0
	}
	return contribution / denominator * scale
}

// Formula returns a human-readable description used by `gradebook policy`.
func (p GPAPolicy) Formula() string {
	if p == GPAWeighted {
		return "(sum of weighted grades / sum of weights) x scale"
	}
	return "(sum of weighted grades / 100) x scale"
}

// =============================================================================
// Pass Policy
// =============================================================================

// PassPolicyKind names a pass threshold rule.
type PassPolicyKind string

const (
	// PassProportional sets each threshold to Ratio x category max weight.
	PassProportional PassPolicyKind = "proportional"

	// PassFixed uses the same constant Threshold for every category.
	PassFixed PassPolicyKind = "fixed"
)

// ParsePassPolicyKind converts a config or flag value into a PassPolicyKind.
func ParsePassPolicyKind(s string) (PassPolicyKind, error) {
	switch PassPolicyKind(strings.ToLower(strings.TrimSpace(s))) {
	case PassProportional:
		return PassProportional, nil
	case PassFixed:
		return PassFixed, nil
	default:
		return "", fmt.Errorf("unknown pass policy %q (want proportional or fixed)", s)
	}
}

// PassPolicy decides the minimum category total needed to pass.
type PassPolicy struct {
	Kind      PassPolicyKind `yaml:"kind" json:"kind"`
	Ratio     float64        `yaml:"ratio,omitempty" json:"ratio,omitempty"`
	Threshold float64        `yaml:"threshold,omitempty" json:"threshold,omitempty"`
}

// ProportionalPass returns a policy passing at ratio x category max.
func ProportionalPass(ratio float64) PassPolicy {
	return PassPolicy{Kind: PassProportional, Ratio: ratio}
}

// FixedPass returns a policy passing at the same threshold for every category.
func FixedPass(threshold float64) PassPolicy {
	return PassPolicy{Kind: PassFixed, Threshold: threshold}
}

// ThresholdFor returns the pass threshold for a category with the given max weight.
func (p PassPolicy) ThresholdFor(maxWeight float64) float64 {
	if p.Kind == PassFixed {
		return p.Threshold
	}
	return roundWeight(maxWeight * p.Ratio)
}

// String describes the policy, e.g. "proportional (60% of max weight)".
func (p PassPolicy) String() string {
	if p.Kind == PassFixed {
		return fmt.Sprintf("fixed (%s points per category)", formatNumber(p.Threshold))
	}
	return fmt.Sprintf("proportional (%s%% of max weight)", formatNumber(p.Ratio*100))
}
