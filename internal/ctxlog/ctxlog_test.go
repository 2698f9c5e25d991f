// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	tests := []struct {
		name          string
		ctx           context.Context
		expectDefault bool
	}{
		{
			name:          "no logger",
			ctx:           context.Background(),
			expectDefault: true,
		},
		{
			name:          "nil logger value",
			ctx:           context.WithValue(context.Background(), loggerKey{}, nil),
			expectDefault: true,
		},
		{
			name:          "wrong type",
			ctx:           context.WithValue(context.Background(), loggerKey{}, "nope"),
			expectDefault: true,
		},
		{
			name: "custom logger",
			ctx:  New(context.Background(), slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := Logger(tt.ctx)
			require.NotNil(t, l)

			if tt.expectDefault {
				assert.Same(t, DefaultLogger, l)
				return
			}

			assert.NotSame(t, DefaultLogger, l)
		})
	}
}

func TestNewNilUsesDefault(t *testing.T) {
	assert.Same(t, DefaultLogger, Logger(New(context.Background(), nil)))
}

func TestLevelHelpers(t *testing.T) {
	var buf bytes.Buffer

	ctx := New(context.Background(), slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	tests := []struct {
		name  string
		fn    func(context.Context, string, ...any)
		level string
	}{
		{"debug", Debug, "DEBUG"},
		{"info", Info, "INFO"},
		{"warn", Warn, "WARN"},
		{"error", Error, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.fn(ctx, "hello", "task", 3)
			assert.Contains(t, buf.String(), "level="+tt.level)
			assert.Contains(t, buf.String(), "msg=hello")
			assert.Contains(t, buf.String(), "task=3")
		})
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer

	ctx := New(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))
	ctx = With(ctx, "task_id", 7)

	Info(ctx, "started")
	assert.Contains(t, buf.String(), "task_id=7")
}

func TestLevelFromEnv(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{" ERROR ", slog.LevelError},
		{"", slog.LevelWarn},
		{"LOUD", slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, levelFromEnv(tt.in))
		})
	}
}

func TestNewForTUI(t *testing.T) {
	orig := LevelVar.Level()
	defer LevelVar.Set(orig)

	LevelVar.Set(slog.LevelInfo)

	l, buf := NewForTUI()
	l.Info("buffered", "n", 1)

	assert.Contains(t, buf.String(), "buffered")
}
