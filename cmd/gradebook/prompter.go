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
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/AleutianAI/gradebook/pkg/ux"
	"github.com/AleutianAI/gradebook/pkg/validation"
	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
)

// ErrAborted means the user stopped answering: end of input, Ctrl+C,
// an aborted form or a cancelled context. The collector treats it as a
// normal end of the session.
var ErrAborted = errors.New("input aborted")

// =============================================================================
// Prompter Interface
// =============================================================================

// Prompter asks the user one question at a time.
//
// # Description
//
// Prompters only gather text. Parsing, validation and re-prompting stay in
// the Collector, so every front end rejects the same inputs the same way.
//
// # Outputs
//
//   - Ask: the raw answer, trimmed
//   - Confirm: true for yes; validation.ErrNotYesNo when the answer is neither
//   - Choose: the answer, which form front ends restrict to options
//
// All methods return ErrAborted when the user stops answering.
type Prompter interface {
	Ask(ctx context.Context, question string) (string, error)
	Confirm(ctx context.Context, question string) (bool, error)
	Choose(ctx context.Context, question string, options []string) (string, error)
}

// =============================================================================
// LinePrompter
// =============================================================================

// LinePrompter asks questions over an InputReader, one line per answer.
type LinePrompter struct {
	reader InputReader
	out    io.Writer
	ui     ux.SessionUI
}

// NewLinePrompter creates a prompter that writes prompts to out (unless the
// reader draws its own) and reads answers from reader.
func NewLinePrompter(reader InputReader, out io.Writer, ui ux.SessionUI) *LinePrompter {
	return &LinePrompter{reader: reader, out: out, ui: ui}
}

type readResult struct {
	line string
	err  error
}

// Ask shows the prompt and waits for a line or for ctx to end.
func (p *LinePrompter) Ask(ctx context.Context, question string) (string, error) {
	if ctx.Err() != nil {
		return "", ErrAborted
	}

	prompt := p.ui.Prompt(question)
	if pr, ok := p.reader.(PromptingInputReader); ok {
		pr.SetPrompt(prompt)
	} else {
		fmt.Fprint(p.out, prompt)
	}

	var line string
	var err error
	if cr, ok := p.reader.(ContextInputReader); ok {
		line, err = cr.ReadLineContext(ctx)
	} else {
		line, err = p.readDetached(ctx)
	}
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, ErrAborted) {
			return "", ErrAborted
		}
		return "", fmt.Errorf("read answer: %w", err)
	}
	return line, nil
}

// readDetached waits for a line or for ctx to end. A blocked stdin read
// cannot be cancelled, so on ctx end the read is left running.
func (p *LinePrompter) readDetached(ctx context.Context) (string, error) {
	ch := make(chan readResult, 1)
	go func() {
		line, err := p.reader.ReadLine()
		ch <- readResult{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ErrAborted
	case r := <-ch:
		return r.line, r.err
	}
}

// Confirm asks a yes/no question once.
func (p *LinePrompter) Confirm(ctx context.Context, question string) (bool, error) {
	raw, err := p.Ask(ctx, question)
	if err != nil {
		return false, err
	}
	return validation.ParseYesNo(raw)
}

// Choose asks for free text; the caller matches it against options.
func (p *LinePrompter) Choose(ctx context.Context, question string, _ []string) (string, error) {
	return p.Ask(ctx, question)
}

// =============================================================================
// FormPrompter
// =============================================================================

// FormPrompter asks questions with charmbracelet/huh fields.
//
// # Description
//
// Category becomes a select list and yes/no questions become a confirm
// toggle, so those answers cannot be mistyped. Free text still goes back to
// the Collector for validation; the fields carry no validators of their own
// so every rejection is counted in one place.
type FormPrompter struct {
	accessible bool
}

// NewFormPrompter creates a FormPrompter, or falls back to a LinePrompter
// over stdin when stdin is not a terminal.
func NewFormPrompter(ui ux.SessionUI) Prompter {
	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return NewLinePrompter(NewStdinReader(), os.Stdout, ui)
	}
	return &FormPrompter{
		accessible: os.Getenv("ACCESSIBLE") != "",
	}
}

func (p *FormPrompter) run(ctx context.Context, field huh.Field) error {
	form := huh.NewForm(huh.NewGroup(field)).
		WithAccessible(p.accessible).
		WithShowHelp(false)
	return formError(form.RunWithContext(ctx))
}

// Ask shows a single text input.
func (p *FormPrompter) Ask(ctx context.Context, question string) (string, error) {
	var value string
	if err := p.run(ctx, huh.NewInput().Title(question).Value(&value)); err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

// Confirm shows a yes/no toggle.
func (p *FormPrompter) Confirm(ctx context.Context, question string) (bool, error) {
	var value bool
	field := huh.NewConfirm().
		Title(question).
		Affirmative("Yes").
		Negative("No").
		Value(&value)
	if err := p.run(ctx, field); err != nil {
		return false, err
	}
	return value, nil
}

// Choose shows a select list over options.
func (p *FormPrompter) Choose(ctx context.Context, question string, options []string) (string, error) {
	var value string
	field := huh.NewSelect[string]().
		Title(question).
		Options(huh.NewOptions(options...)...).
		Value(&value)
	if err := p.run(ctx, field); err != nil {
		return "", err
	}
	return value, nil
}

// formError maps the ways a form can be left to ErrAborted.
func formError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, huh.ErrUserAborted),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return ErrAborted
	default:
		return fmt.Errorf("run form: %w", err)
	}
}
