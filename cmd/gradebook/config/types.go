// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"errors"
	"fmt"

	"github.com/AleutianAI/gradebook/pkg/gradebook"
	"github.com/go-playground/validator/v10"
)

// GradebookConfig is the optional on-disk configuration.
//
// Every field has a default, so an absent file and an empty file behave the
// same. Command-line flags override whatever is loaded here.
type GradebookConfig struct {
	// Policy: how GPA and pass/fail are computed
	Policy PolicyConfig `yaml:"policy"`

	// Categories: weight budget of each category
	Categories CategoriesConfig `yaml:"categories"`

	// UI: personality and prompt style
	UI UIConfig `yaml:"ui"`

	// Logging: level and format of diagnostic logs (stderr)
	Logging LoggingConfig `yaml:"logging"`

	// Metrics: optional prometheus textfile written at exit
	Metrics MetricsConfig `yaml:"metrics"`
}

type PolicyConfig struct {
	GPA      string  `yaml:"gpa" validate:"oneof=budget weighted"`
	GPAScale float64 `yaml:"gpa_scale" validate:"gt=0,lte=100"`
	Pass     string  `yaml:"pass" validate:"oneof=proportional fixed"`

	// PassRatio applies to "proportional", PassThreshold to "fixed".
	PassRatio     float64 `yaml:"pass_ratio" validate:"gt=0,lte=1"`
	PassThreshold float64 `yaml:"pass_threshold" validate:"gte=0,lte=100"`
}

type CategoriesConfig struct {
	FormativeMax float64 `yaml:"formative_max" validate:"gt=0,lte=100"`
	SummativeMax float64 `yaml:"summative_max" validate:"gt=0,lte=100"`
}

type UIConfig struct {
	// Personality is empty to let the environment and TTY detection decide.
	Personality string `yaml:"personality" validate:"omitempty,oneof=full standard minimal machine"`

	// Form uses full-screen huh forms instead of line prompts.
	Form bool `yaml:"form"`
}

type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn warning error"`
	JSON  bool   `yaml:"json"`
}

type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// ErrBudgetTooLarge is returned when the category maxima sum past 100.
var ErrBudgetTooLarge = errors.New("category maximum weights must not sum past 100")

var validate = validator.New(validator.WithRequiredStructEnabled())

// DefaultConfig returns the built-in configuration.
func DefaultConfig() GradebookConfig {
	return GradebookConfig{
		Policy: PolicyConfig{
			GPA:           string(gradebook.GPABudget),
			GPAScale:      gradebook.DefaultGPAScale,
			Pass:          string(gradebook.PassProportional),
			PassRatio:     gradebook.DefaultPassRatio,
			PassThreshold: gradebook.DefaultFixedThreshold,
		},
		Categories: CategoriesConfig{
			FormativeMax: gradebook.DefaultFormativeMax,
			SummativeMax: gradebook.DefaultSummativeMax,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// Validate checks field ranges and the combined category budget.
func (c GradebookConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("invalid config: %s failed %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if sum := c.Categories.FormativeMax + c.Categories.SummativeMax; sum > 100 {
		return fmt.Errorf("invalid config: %w (got %v)", ErrBudgetTooLarge, sum)
	}
	return nil
}

// PassPolicy builds the pass rule selected by Policy.Pass.
func (c GradebookConfig) PassPolicy() (gradebook.PassPolicy, error) {
	kind, err := gradebook.ParsePassPolicyKind(c.Policy.Pass)
	if err != nil {
		return gradebook.PassPolicy{}, err
	}
	if kind == gradebook.PassFixed {
		return gradebook.FixedPass(c.Policy.PassThreshold), nil
	}
	return gradebook.ProportionalPass(c.Policy.PassRatio), nil
}

// GradebookOptions translates the configuration into gradebook.New options.
func (c GradebookConfig) GradebookOptions() ([]gradebook.Option, error) {
	gpa, err := gradebook.ParseGPAPolicy(c.Policy.GPA)
	if err != nil {
		return nil, err
	}
	pass, err := c.PassPolicy()
	if err != nil {
		return nil, err
	}
	return []gradebook.Option{
		gradebook.WithMaxWeight(gradebook.Formative, c.Categories.FormativeMax),
		gradebook.WithMaxWeight(gradebook.Summative, c.Categories.SummativeMax),
		gradebook.WithGPAPolicy(gpa),
		gradebook.WithGPAScale(c.Policy.GPAScale),
		gradebook.WithPassPolicy(pass),
	}, nil
}
