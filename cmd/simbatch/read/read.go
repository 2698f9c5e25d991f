// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package read contains the command that inspects a simulator output file.
package read

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/matt-FFFFFF/simbatch/cmd/simbatch/cmdio"
	"github.com/matt-FFFFFF/simbatch/internal/color"
	"github.com/matt-FFFFFF/simbatch/internal/config"
	"github.com/matt-FFFFFF/simbatch/internal/outputfile"
	"github.com/urfave/cli/v3"
)

const (
	fileArg    = "file"
	columnFlag = "column"
)

// ErrUnknownColumn is returned when --column names a column the file does not have.
var ErrUnknownColumn = errors.New("unknown column")

// ReadCmd prints the constants and the data shape of a simulator output file.
var ReadCmd = newCommand()

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "read",
		Usage: "Show the constants and data shape of a simulator output file",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: fileArg,
			},
		},
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    columnFlag,
				Aliases: []string{"c"},
				Usage:   "Print the values of this column. Specify multiple times for more columns.",
			},
		},
		Action: actionFunc,
	}
}

func actionFunc(_ context.Context, cmd *cli.Command) error {
	path := cmd.StringArg(fileArg)
	if path == "" {
		return cli.Exit("no output file given", 1)
	}

	f, readErr := outputfile.Read(config.FsFactory(), path)
	if f == nil {
		return cli.Exit(readErr.Error(), 1)
	}

	out, _ := cmdio.Writers(cmd)

	for _, e := range f.Constants.Entries {
		fmt.Fprintf(out, "%s = %s\n", color.Muted(e.Key), e.Value) // nolint:errcheck
	}

	if len(f.Header) > 0 {
		fmt.Fprintf(out, "Columns: %s\n", strings.Join(f.Header, ", ")) // nolint:errcheck
	}

	rows, cols := f.Shape()
	fmt.Fprintf(out, "Data: %d rows x %d columns\n", rows, cols) // nolint:errcheck

	if readErr != nil {
		return cli.Exit(fmt.Sprintf("%s: %s", path, readErr), 1)
	}

	for _, name := range cmd.StringSlice(columnFlag) {
		data, ok := f.Column(name)
		if !ok {
			return cli.Exit(fmt.Sprintf("%s: %q", ErrUnknownColumn, name), 1)
		}

		vals := make([]string, len(data))
		for i, v := range data {
			vals[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}

		fmt.Fprintf(out, "%s: %s\n", name, strings.Join(vals, ", ")) // nolint:errcheck
	}

	return nil
}
