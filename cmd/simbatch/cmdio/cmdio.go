// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cmdio resolves the writers of a subcommand.
package cmdio

import (
	"io"
	"os"

	"github.com/urfave/cli/v3"
)

// Writers returns the output and error writers of the root command of cmd.
// Subcommands get stdout and stderr during setup, so only the root carries the
// writers a caller supplied.
func Writers(cmd *cli.Command) (io.Writer, io.Writer) {
	root := cmd.Root()
	out, errw := root.Writer, root.ErrWriter

	if out == nil {
		out = os.Stdout
	}

	if errw == nil {
		errw = os.Stderr
	}

	return out, errw
}
