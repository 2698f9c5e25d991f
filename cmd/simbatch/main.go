// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main contains the simbatch command-line interface (CLI).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/matt-FFFFFF/simbatch"
	"github.com/matt-FFFFFF/simbatch/cmd/simbatch/config"
	"github.com/matt-FFFFFF/simbatch/cmd/simbatch/read"
	"github.com/matt-FFFFFF/simbatch/cmd/simbatch/run"
	"github.com/matt-FFFFFF/simbatch/cmd/simbatch/show"
	"github.com/matt-FFFFFF/simbatch/internal/ctxlog"
	"github.com/urfave/cli/v3"
)

// rootCmd is the root command for the CLI.
var rootCmd = &cli.Command{
	Commands: []*cli.Command{
		config.ConfigCmd,
		run.RunCmd,
		show.ShowCmd,
		read.ReadCmd,
	},
	Writer:    os.Stdout,
	ErrWriter: os.Stderr,
	Name:      "simbatch",
	Description: `simbatch runs a batch of simulator macros across a set of model folders.
Each macro is run once per folder by a pool of simulator processes. The values the
simulator dumps are collected into one result per task, which can be saved, resumed
and inspected later.

Set SIMBATCH_LOG_LEVEL to debug, info, warn or error to control logging.`,
	Usage:     "simbatch run -f batch.yaml --out results.gob",
	Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
	Authors: []any{
		"Matt White (matt-FFFFFF)",
	},
	EnableShellCompletion: true,
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)

	rootCmd.Version = fmt.Sprintf("%s (commit: %s)", simbatch.Version, simbatch.Commit)

	err := rootCmd.Run(ctx, os.Args) // Err is handled by cli framework

	cancel()

	if err != nil {
		ctxlog.Debug(ctx, "command execution failed", "error", err)
		os.Exit(1)
	}
}
