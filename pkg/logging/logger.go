// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package logging provides structured logging for the gradebook CLI.
//
// The logger is a thin layer over the standard library slog package. It
// writes diagnostics to stderr so they never interleave with the transcript
// on stdout, and defaults to WARN so an interactive session stays quiet.
//
// # Basic Usage
//
//	logger := logging.New(logging.Config{Level: logging.LevelDebug, Service: "gradebook"})
//	defer logger.Close()
//
//	sessionLogger := logger.With("session_id", sessionID)
//	sessionLogger.Debug("assignment accepted", "category", "Formative", "weight", 20)
//
// # Security Considerations
//
// Assignment names are user text. Log them as attributes, never as the
// message, so JSON output stays well-formed and greppable.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// =============================================================================
// Log Levels
// =============================================================================

// Level represents log severity levels, ordered Debug < Info < Warn < Error.
type Level int

const (
	// LevelDebug traces every accepted and rejected record.
	LevelDebug Level = iota

	// LevelInfo reports session start and end.
	LevelInfo

	// LevelWarn reports recoverable problems (unreadable config, metrics export).
	LevelWarn

	// LevelError reports failed commands.
	LevelError
)

// String returns "DEBUG", "INFO", "WARN", "ERROR", or "UNKNOWN".
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// toSlogLevel bridges Level to slog.Level. Unknown levels map to Info.
func (l Level) toSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel converts a flag or config value ("debug", "WARN", ...) to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q (want debug, info, warn or error)", s)
	}
}

// =============================================================================
// Configuration
// =============================================================================

// Config configures the Logger.
//
// A zero-value Config writes Info+ text records to stderr.
type Config struct {
	// Level sets the minimum level; lower records are discarded.
	Level Level

	// Service is attached to every record as the "service" attribute.
	Service string

	// JSON switches from text to JSON records.
	JSON bool

	// Quiet discards all output.
	Quiet bool

	// Writer replaces stderr as the destination. Tests pass a buffer.
	Writer io.Writer
}

// =============================================================================
// Logger
// =============================================================================

// Logger wraps slog.Logger with level filtering and a Close hook.
//
// Logger is safe for concurrent use; the underlying slog.Logger is.
type Logger struct {
	slog   *slog.Logger
	config Config

	mu     sync.Mutex
	closed bool
}

// New creates a Logger from config.
func New(config Config) *Logger {
	opts := &slog.HandlerOptions{
		Level: config.Level.toSlogLevel(),
	}

	var out io.Writer = os.Stderr
	if config.Writer != nil {
		out = config.Writer
	}
	if config.Quiet {
		out = io.Discard
	}

	var handler slog.Handler
	if config.JSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	if config.Service != "" {
		handler = handler.WithAttrs([]slog.Attr{
			slog.String("service", config.Service),
		})
	}

	return &Logger{
		slog:   slog.New(handler),
		config: config,
	}
}

// Default returns a WARN-level text logger on stderr tagged "gradebook".
func Default() *Logger {
	return New(Config{
		Level:   LevelWarn,
		Service: "gradebook",
	})
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return New(Config{Quiet: true})
}

// Debug logs at Debug level. args are slog key-value pairs.
func (l *Logger) Debug(msg string, args ...any) {
	l.slog.Debug(msg, args...)
}

// Info logs at Info level.
func (l *Logger) Info(msg string, args ...any) {
	l.slog.Info(msg, args...)
}

// Warn logs at Warn level.
func (l *Logger) Warn(msg string, args ...any) {
	l.slog.Warn(msg, args...)
}

// Error logs at Error level.
func (l *Logger) Error(msg string, args ...any) {
	l.slog.Error(msg, args...)
}

// With returns a child logger that adds args to every record.
//
// The parent is not modified.
//
//	sessionLogger := logger.With("session_id", id)
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		slog:   l.slog.With(args...),
		config: l.config,
	}
}

// Close flushes the destination when it supports Sync. Safe to call twice.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true

	if syncer, ok := l.config.Writer.(interface{ Sync() error }); ok && !l.config.Quiet {
		if err := syncer.Sync(); err != nil {
			return fmt.Errorf("sync log writer: %w", err)
		}
	}
	return nil
}
