// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package show contains the command that prints a saved results file.
package show

import (
	"context"
	"errors"
	"fmt"

	"github.com/matt-FFFFFF/simbatch/cmd/simbatch/cmdio"
	"github.com/matt-FFFFFF/simbatch/internal/config"
	"github.com/matt-FFFFFF/simbatch/internal/resultstore"
	"github.com/matt-FFFFFF/simbatch/internal/summary"
	"github.com/matt-FFFFFF/simbatch/internal/task"
	"github.com/urfave/cli/v3"
)

const (
	fileArg    = "file"
	formatFlag = "format"
	failedFlag = "failed"

	formatText = "text"
	formatYAML = "yaml"
)

var (
	// ErrNoFile is returned when no results file is given.
	ErrNoFile = errors.New("no results file given")
	// ErrUnknownFormat is returned for an unsupported --format value.
	ErrUnknownFormat = errors.New("unknown format, use text or yaml")
	// ErrWriteResults is returned when the results cannot be written to stdout.
	ErrWriteResults = errors.New("failed to write results to stdout")
)

// ShowCmd is the command that shows previously saved results.
var ShowCmd = newCommand()

func newCommand() *cli.Command {
	return &cli.Command{
		Name:        "show",
		Usage:       "Show previously saved results",
		Description: "Print the tasks of a results file written by \"simbatch run --out\".",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: fileArg,
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  formatFlag,
				Usage: "Output format, text or yaml",
				Value: formatText,
			},
			&cli.BoolFlag{
				Name:  failedFlag,
				Usage: "Only show tasks with errors or that did not complete",
			},
		},
		Action: actionFunc,
	}
}

func actionFunc(_ context.Context, cmd *cli.Command) error {
	path := cmd.StringArg(fileArg)
	if path == "" {
		return cli.Exit(ErrNoFile.Error(), 1)
	}

	f, err := resultstore.Load(config.FsFactory(), path)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	out, _ := cmdio.Writers(cmd)
	failedOnly := cmd.Bool(failedFlag)

	switch cmd.String(formatFlag) {
	case formatYAML:
		docs := f.Documents

		if failedOnly {
			docs = nil

			for _, d := range f.Documents {
				if d.HasError() || !completed(d) {
					docs = append(docs, d)
				}
			}
		}

		if err := resultstore.WriteYAML(out, docs); err != nil {
			return cli.Exit(errors.Join(ErrWriteResults, err).Error(), 1)
		}

	case formatText:
		tasks, err := f.Tasks()
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}

		opts := summary.DefaultOptions()
		opts.ShowSuccess = !failedOnly
		opts.ShowValues = !failedOnly

		if err := summary.WriteTasks(out, tasks, opts); err != nil {
			return cli.Exit(errors.Join(ErrWriteResults, err).Error(), 1)
		}

		fmt.Fprintf(out, "%d tasks, %d with errors, %d not completed\n", // nolint:errcheck
			len(tasks), count(tasks, (*task.Task).HasError), count(tasks, func(t *task.Task) bool { return !t.Done() }))

	default:
		return cli.Exit(fmt.Sprintf("%s: %q", ErrUnknownFormat, cmd.String(formatFlag)), 1)
	}

	return nil
}

func completed(d resultstore.Document) bool {
	v, ok := d.Get(resultstore.KeyProcessTime)
	return ok && v.Kind == task.KindNumber && v.Number > 0
}

func count(tasks []*task.Task, pred func(*task.Task) bool) int {
	n := 0

	for _, t := range tasks {
		if pred(t) {
			n++
		}
	}

	return n
}
