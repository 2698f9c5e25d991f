// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ctxlog

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LevelEnvVar is the environment variable that sets the log level.
const LevelEnvVar = "SIMBATCH_LOG_LEVEL"

type loggerKey struct{}

// LevelVar holds the level shared by every logger built in this package.
var LevelVar = &slog.LevelVar{}

// DefaultLogger writes pretty, coloured output to stderr.
// It is used whenever a context does not carry a logger.
var DefaultLogger = NewLogger(os.Stderr)

func init() {
	LevelVar.Set(levelFromEnv(os.Getenv(LevelEnvVar)))
}

// NewLogger returns a pretty logger writing to w at the shared level.
func NewLogger(w io.Writer) *slog.Logger {
	return slog.New(NewPrettyHandler(
		&slog.HandlerOptions{Level: LevelVar},
		WithDestinationWriter(w),
		WithAutoColour(),
	))
}

// NewForTUI returns a logger that collects messages in a buffer so they do not
// tear the terminal UI. The caller should flush the buffer once the UI exits.
func NewForTUI() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}

	return slog.New(NewPrettyHandler(
		&slog.HandlerOptions{Level: LevelVar},
		WithDestinationWriter(buf),
	)), buf
}

// New returns a copy of ctx carrying logger.
// A nil logger stores DefaultLogger.
func New(ctx context.Context, logger *slog.Logger) context.Context {
	if logger == nil {
		logger = DefaultLogger
	}

	return context.WithValue(ctx, loggerKey{}, logger)
}

// Logger returns the logger carried by ctx, or DefaultLogger.
func Logger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(loggerKey{}).(*slog.Logger)
	if !ok || logger == nil {
		return DefaultLogger
	}

	return logger
}

// With returns a context whose logger has args added to every record.
func With(ctx context.Context, args ...any) context.Context {
	return New(ctx, Logger(ctx).With(args...))
}

// Debug logs at debug level using the logger in ctx.
func Debug(ctx context.Context, msg string, args ...any) {
	Logger(ctx).DebugContext(ctx, msg, args...)
}

// Info logs at info level using the logger in ctx.
func Info(ctx context.Context, msg string, args ...any) {
	Logger(ctx).InfoContext(ctx, msg, args...)
}

// Warn logs at warn level using the logger in ctx.
func Warn(ctx context.Context, msg string, args ...any) {
	Logger(ctx).WarnContext(ctx, msg, args...)
}

// Error logs at error level using the logger in ctx.
func Error(ctx context.Context, msg string, args ...any) {
	Logger(ctx).ErrorContext(ctx, msg, args...)
}

// levelFromEnv maps DEBUG, INFO, WARN and ERROR to slog levels.
// Anything else gives WARN.
func levelFromEnv(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
