// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package cmdio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func TestWriters(t *testing.T) {
	var out, errw bytes.Buffer

	cmd := &cli.Command{Writer: &out, ErrWriter: &errw}
	o, e := Writers(cmd)
	assert.Same(t, &out, o)
	assert.Same(t, &errw, e)

	o, e = Writers(&cli.Command{})
	assert.Equal(t, os.Stdout, o)
	assert.Equal(t, os.Stderr, e)
}

func TestWritersOfSubcommandUseRoot(t *testing.T) {
	var out, errw bytes.Buffer

	sub := &cli.Command{
		Name: "sub",
		Action: func(_ context.Context, cmd *cli.Command) error {
			o, e := Writers(cmd)
			fmt.Fprint(o, "out") //nolint:errcheck
			fmt.Fprint(e, "err") //nolint:errcheck

			return nil
		},
	}

	root := &cli.Command{Name: "simbatch", Writer: &out, ErrWriter: &errw, Commands: []*cli.Command{sub}}

	require.NoError(t, root.Run(context.Background(), []string{"simbatch", "sub"}))
	assert.Equal(t, "out", out.String())
	assert.Equal(t, "err", errw.String())
}
