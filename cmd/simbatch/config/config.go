// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config contains the command that prints an example batch definition.
package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/matt-FFFFFF/simbatch/cmd/simbatch/cmdio"
	batchconfig "github.com/matt-FFFFFF/simbatch/internal/config"
	"github.com/urfave/cli/v3"
)

const formatArg = "format"

// ConfigCmd prints an example batch definition.
var ConfigCmd = newCommand()

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Print an example batch definition",
		Description: `Print a commented example batch definition in YAML (default) or HCL.
Save it as batch.yaml or batch.hcl and run it with "simbatch run -f".`,
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: formatArg,
			},
		},
		Action: actionFunc,
	}
}

func actionFunc(_ context.Context, cmd *cli.Command) error {
	out, _ := cmdio.Writers(cmd)

	var example string

	switch f := strings.ToLower(cmd.StringArg(formatArg)); f {
	case "", "yaml", "yml":
		example = batchconfig.ExampleYAML
	case "hcl":
		example = batchconfig.ExampleHCL
	default:
		return cli.Exit(fmt.Sprintf("unknown format %q, use yaml or hcl", f), 1)
	}

	_, err := fmt.Fprint(out, example)

	return err
}
