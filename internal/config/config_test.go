// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/simbatch/internal/runner"
	"github.com/matt-FFFFFF/simbatch/internal/task"
	"github.com/prashantv/gostub"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dummyFsWithFiles(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}

	return fs
}

func TestLoadExamplesAgree(t *testing.T) {
	fs := dummyFsWithFiles(t, map[string]string{
		"/cfg/batch.yaml": ExampleYAML,
		"/cfg/batch.hcl":  ExampleHCL,
	})
	defer gostub.Stub(&FsFactory, func() afero.Fs { return fs }).Reset()

	fromYAML, err := Load("/cfg/batch.yaml")
	require.NoError(t, err)

	fromHCL, err := Load("/cfg/batch.hcl")
	require.NoError(t, err)

	assert.Equal(t, fromYAML, fromHCL)

	assert.Equal(t, "knee study", fromYAML.Name)
	assert.Equal(t, 30*time.Minute, fromYAML.Timeout)
	assert.Equal(t, 4, fromYAML.MaxConcurrency)
	assert.Equal(t, 10*time.Second, fromYAML.LicenseRetryDelay)
	assert.Equal(t, time.Second, fromYAML.GracePeriod)
	assert.Equal(t, -22, fromYAML.NoLicenseCode)
	assert.Equal(t, runner.DefaultNoWindowFlag, fromYAML.NoWindowFlag)
	assert.Equal(t, []task.Folder{{Path: "./models", Name: "models"}}, fromYAML.Folders)
	require.Len(t, fromYAML.Macros, 2)
	assert.Equal(t, `load "Knee.main.any" -def N=5`, fromYAML.Macros[1][0])
	assert.Equal(t, []string{"Penetration of surface"}, fromYAML.Collector.IgnoreErrors)
}

func TestParseHCLEnv(t *testing.T) {
	defer gostub.StubFunc(&environ, []string{"SIM_HOME=/opt/sim", "BROKEN"}).Reset()

	def, err := Parse("b.hcl", []byte(`
executable   = "sim"
runtime_home = env.SIM_HOME
no_window_flag = ""
`))
	require.NoError(t, err)
	assert.Equal(t, "/opt/sim", def.RuntimeHome)
	require.NotNil(t, def.NoWindowFlag)
	assert.Empty(t, *def.NoWindowFlag)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse("b.toml", nil)
	require.ErrorIs(t, err, ErrUnknownFormat)

	_, err = Parse("b.yaml", []byte("executable: sim\nunknown_key: 1\n"))
	require.ErrorIs(t, err, ErrParseConfig)

	_, err = Parse("b.hcl", []byte(`executable = `))
	require.ErrorIs(t, err, ErrParseConfig)

	_, err = Parse("b.hcl", []byte(`executable = env.MISSING_VARIABLE_FOR_TEST`))
	require.ErrorIs(t, err, ErrParseConfig)

	defer gostub.Stub(&FsFactory, func() afero.Fs { return afero.NewMemMapFs() }).Reset()

	_, err = Load("/nope.yaml")
	require.ErrorIs(t, err, ErrReadConfig)
}

func TestValidateReportsEveryProblem(t *testing.T) {
	defer gostub.Stub(&FsFactory, func() afero.Fs { return afero.NewMemMapFs() }).Reset()

	def, err := Parse("b.yaml", []byte(`
timeout: soon
max_concurrency: -1
license_retries: -2
grace_period: -1s
runtime_home: /not/here
search_subdirs: "["
folders:
  - path: ""
macros:
  - []
  - [run]
`))
	require.NoError(t, err)

	_, err = def.Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)

	fields := make([]string, len(merr.Errors))

	for i, e := range merr.Errors {
		var ve *ValidationError
		require.ErrorAs(t, e, &ve)
		fields[i] = ve.Field
	}

	assert.ElementsMatch(t, []string{
		"executable", "timeout", "grace_period", "max_concurrency", "license_retries",
		"runtime_home", "search_subdirs", "folders[0]", "macros[0]",
	}, fields)

	require.ErrorIs(t, err, ErrRequired)
	require.ErrorIs(t, err, ErrBadDuration)
	require.ErrorIs(t, err, ErrNotADirectory)
}

func TestValidateDefaults(t *testing.T) {
	b, err := (&Definition{Executable: "sim"}).Validate()
	require.NoError(t, err)

	assert.Equal(t, DefaultTimeout, b.Timeout)
	assert.Equal(t, runtime.NumCPU(), b.MaxConcurrency)
	assert.Equal(t, DefaultRuntimeHomeVar, b.RuntimeHomeVar)
	assert.Equal(t, runner.DefaultSupervisorKilledCode, b.SupervisorKilledCode)
	assert.Empty(t, b.Macros)

	sc := b.SchedulerConfig()
	assert.Equal(t, runtime.NumCPU(), sc.MaxConcurrency)
	assert.Equal(t, "simbatch_", sc.LogFilePrefix)

	_, err = (&Definition{Executable: "sim", Timeout: "0s"}).Validate()
	require.ErrorIs(t, err, ErrNotPositive)
}

func TestEnvironment(t *testing.T) {
	t.Setenv("PATH", "/usr/bin")

	b := &Batch{Env: map[string]string{"A": "1"}}
	assert.Equal(t, map[string]string{"A": "1"}, b.Environment())

	b.RuntimeHome = "/opt/sim"
	b.RuntimeHomeVar = "PYTHONHOME"
	assert.Equal(t, map[string]string{
		"A":          "1",
		"PYTHONHOME": "/opt/sim",
		"PATH":       "/opt/sim" + string(os.PathListSeparator) + "/usr/bin",
	}, b.Environment())

	b.Env["PATH"] = "/custom"
	assert.Equal(t, "/opt/sim"+string(os.PathListSeparator)+"/custom", b.Environment()["PATH"])
}

func TestResolveExecutable(t *testing.T) {
	home := t.TempDir()
	exe := filepath.Join(home, "simcon")
	require.NoError(t, os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o755))

	b := &Batch{Executable: "simcon", RuntimeHome: home}
	got, err := b.ResolveExecutable()
	require.NoError(t, err)
	assert.Equal(t, exe, got)

	cfg, err := b.RunnerConfig()
	require.NoError(t, err)
	assert.Equal(t, exe, cfg.Executable)

	b = &Batch{Executable: "definitely-not-a-simulator-on-path"}
	_, err = b.ResolveExecutable()
	require.ErrorIs(t, err, ErrExecutableNotFound)
}
