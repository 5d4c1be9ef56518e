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
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
)

// =============================================================================
// InputReader Interface
// =============================================================================

// InputReader abstracts line-oriented user input for testability.
//
// # Description
//
// The production implementations read stdin, either through bufio or through
// a bubbletea text input with history. MockInputReader replays fixed answers
// in tests.
//
// # Outputs
//
// ReadLine returns the trimmed line. io.EOF means the input is exhausted
// (closed pipe or Ctrl+D). ErrAborted means the user pressed Ctrl+C in an
// interactive reader.
type InputReader interface {
	ReadLine() (string, error)
}

// PromptingInputReader is implemented by readers that draw their own prompt.
//
// LinePrompter checks for it to avoid printing the prompt twice:
//
//	if p, ok := reader.(PromptingInputReader); ok {
//	    p.SetPrompt(prompt)
//	} else {
//	    fmt.Fprint(out, prompt)
//	}
type PromptingInputReader interface {
	InputReader
	SetPrompt(prompt string)
}

// ContextInputReader is implemented by readers that stop reading when ctx
// is cancelled. LinePrompter calls ReadLineContext directly for these and
// only detaches from readers that cannot be stopped.
type ContextInputReader interface {
	InputReader
	ReadLineContext(ctx context.Context) (string, error)
}

// =============================================================================
// StdinReader Implementation
// =============================================================================

// StdinReader implements InputReader over a bufio.Reader.
//
// # Limitations
//
//   - No line editing or history
//   - A blocked read cannot be interrupted; LinePrompter stops waiting on it
//     when the session context is cancelled
type StdinReader struct {
	reader *bufio.Reader
}

// NewStdinReader creates a StdinReader wrapping os.Stdin.
func NewStdinReader() *StdinReader {
	return newLineReader(os.Stdin)
}

// newLineReader creates a StdinReader over any reader. Tests feed it strings.
func newLineReader(r io.Reader) *StdinReader {
	return &StdinReader{reader: bufio.NewReader(r)}
}

// ReadLine reads up to the next newline and trims it.
//
// A final line without a trailing newline is still returned; io.EOF follows
// on the next call.
func (r *StdinReader) ReadLine() (string, error) {
	line, err := r.reader.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// =============================================================================
// InteractiveInputReader Implementation (with history)
// =============================================================================

// InteractiveInputReader implements PromptingInputReader with bubbletea.
//
// # Description
//
// Provides line editing and up/down history over previous answers, which
// makes re-entering a similar assignment name or weight quick. Falls back
// to StdinReader when stdin is not a terminal (piped input, CI).
//
// # Keys
//
//   - Enter: submit
//   - Ctrl+C: abort the session (ErrAborted)
//   - Ctrl+D on an empty line: end of input (io.EOF)
//   - Up/Down: walk history
//
// # Thread Safety
//
// Not thread-safe. One reader per terminal.
type InteractiveInputReader struct {
	history    []string
	maxHistory int
	prompt     string
}

// inputModel is the bubbletea model behind one ReadLine call.
type inputModel struct {
	textInput    textinput.Model
	history      []string
	historyIndex int
	currentInput string // input typed before walking into history
	done         bool
	eof          bool
	interrupted  bool
}

// NewInteractiveInputReader creates an interactive reader keeping at most
// maxHistory answers, or a StdinReader when stdin is not a TTY.
func NewInteractiveInputReader(maxHistory int) InputReader {
	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return NewStdinReader()
	}

	return &InteractiveInputReader{
		history:    make([]string, 0, maxHistory),
		maxHistory: maxHistory,
		prompt:     "> ",
	}
}

// SetPrompt sets the prompt drawn in front of the text input.
func (r *InteractiveInputReader) SetPrompt(prompt string) {
	r.prompt = prompt
}

// ReadLine runs a bubbletea program until the user submits or cancels.
func (r *InteractiveInputReader) ReadLine() (string, error) {
	return r.ReadLineContext(context.Background())
}

// ReadLineContext is ReadLine bound to ctx. Cancelling ctx kills the
// program, which restores the terminal before ErrAborted is returned.
func (r *InteractiveInputReader) ReadLineContext(ctx context.Context) (string, error) {
	if ctx.Err() != nil {
		return "", ErrAborted
	}

	ti := textinput.New()
	ti.Prompt = r.prompt
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 60

	m := inputModel{
		textInput:    ti,
		history:      r.history,
		historyIndex: -1,
	}

	p := tea.NewProgram(m, tea.WithOutput(os.Stderr), tea.WithContext(ctx))
	finalModel, err := p.Run()
	if ctx.Err() != nil {
		return "", ErrAborted
	}
	if err != nil {
		return "", fmt.Errorf("read interactive input: %w", err)
	}

	result, ok := finalModel.(inputModel)
	if !ok {
		return "", fmt.Errorf("unexpected model type from bubbletea: %T", finalModel)
	}

	switch {
	case result.interrupted:
		return "", ErrAborted
	case result.eof:
		return "", io.EOF
	}

	input := strings.TrimSpace(result.textInput.Value())
	// The view is cleared on quit; keep the answer on screen.
	fmt.Fprintln(os.Stderr, r.prompt+input)
	if input != "" {
		r.addToHistory(input)
	}
	return input, nil
}

// addToHistory appends input unless it repeats the latest entry.
func (r *InteractiveInputReader) addToHistory(input string) {
	if len(r.history) > 0 && r.history[len(r.history)-1] == input {
		return
	}
	r.history = append(r.history, input)
	if len(r.history) > r.maxHistory {
		r.history = r.history[1:]
	}
}

// Init initializes the bubbletea model.
func (m inputModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles key events.
func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit

		case tea.KeyCtrlC:
			m.interrupted = true
			m.done = true
			return m, tea.Quit

		case tea.KeyCtrlD:
			if m.textInput.Value() != "" {
				return m, nil
			}
			m.eof = true
			m.done = true
			return m, tea.Quit

		case tea.KeyUp:
			if len(m.history) == 0 {
				return m, nil
			}
			if m.historyIndex == -1 {
				m.currentInput = m.textInput.Value()
				m.historyIndex = len(m.history) - 1
			} else if m.historyIndex > 0 {
				m.historyIndex--
			}
			m.textInput.SetValue(m.history[m.historyIndex])
			m.textInput.CursorEnd()
			return m, nil

		case tea.KeyDown:
			if m.historyIndex == -1 {
				return m, nil
			}
			if m.historyIndex < len(m.history)-1 {
				m.historyIndex++
				m.textInput.SetValue(m.history[m.historyIndex])
			} else {
				m.historyIndex = -1
				m.textInput.SetValue(m.currentInput)
			}
			m.textInput.CursorEnd()
			return m, nil
		}
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// View renders the prompt and the text being typed.
func (m inputModel) View() string {
	if m.done {
		return ""
	}
	return m.textInput.View()
}

// =============================================================================
// MockInputReader Implementation (for testing)
// =============================================================================

// MockInputReader replays predetermined answers and then returns io.EOF.
//
//	mock := NewMockInputReader([]string{"Quiz1", "Formative", "20"})
//	line, _ := mock.ReadLine() // "Quiz1"
type MockInputReader struct {
	inputs []string
	index  int
}

// NewMockInputReader creates a MockInputReader over inputs.
func NewMockInputReader(inputs []string) *MockInputReader {
	return &MockInputReader{inputs: inputs}
}

// ReadLine returns the next answer, trimmed, or io.EOF when none are left.
func (m *MockInputReader) ReadLine() (string, error) {
	if m.index >= len(m.inputs) {
		return "", io.EOF
	}
	line := m.inputs[m.index]
	m.index++
	return strings.TrimSpace(line), nil
}

// Remaining reports how many answers have not been consumed.
func (m *MockInputReader) Remaining() int {
	return len(m.inputs) - m.index
}
