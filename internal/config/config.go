// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/matt-FFFFFF/simbatch/internal/batchcache"
	"github.com/matt-FFFFFF/simbatch/internal/collector"
	"github.com/matt-FFFFFF/simbatch/internal/runner"
	"github.com/matt-FFFFFF/simbatch/internal/scheduler"
	"github.com/matt-FFFFFF/simbatch/internal/task"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
)

const (
	// DefaultTimeout applies when a definition sets none.
	DefaultTimeout = time.Hour
	// DefaultRuntimeHomeVar is set to runtime_home in the simulator environment.
	DefaultRuntimeHomeVar = "PYTHONHOME"
	// DefaultLicenseRetryDelay is the first pause before a run without licence is retried.
	DefaultLicenseRetryDelay = 5 * time.Second
)

var (
	// ErrReadConfig is returned when the definition file cannot be read.
	ErrReadConfig = errors.New("failed to read batch definition")
	// ErrParseConfig is returned when the definition file cannot be decoded.
	ErrParseConfig = errors.New("failed to parse batch definition")
	// ErrUnknownFormat is returned for a file that is neither YAML nor HCL.
	ErrUnknownFormat = errors.New("unknown batch definition format, use .yaml, .yml or .hcl")
	// ErrInvalidConfig wraps every validation problem of a definition.
	ErrInvalidConfig = errors.New("invalid batch definition")
	// ErrExecutableNotFound is returned when the simulator cannot be located.
	ErrExecutableNotFound = runner.ErrExecutableNotFound
)

// environ is replaced in tests.
var environ = os.Environ

// ExitCodes overrides the sentinel exit statuses of the simulator.
type ExitCodes struct {
	SupervisorKilled *int `yaml:"supervisor_killed" hcl:"supervisor_killed,optional"`
	NoLicense        *int `yaml:"no_license" hcl:"no_license,optional"`
}

// Definition is a batch definition as written in the file. Durations are Go duration strings.
type Definition struct {
	Name              string            `yaml:"name" hcl:"name,optional"`
	Executable        string            `yaml:"executable" hcl:"executable,optional"`
	Timeout           string            `yaml:"timeout" hcl:"timeout,optional"`
	MaxConcurrency    int               `yaml:"max_concurrency" hcl:"max_concurrency,optional"`
	IgnoreErrors      []string          `yaml:"ignore_errors" hcl:"ignore_errors,optional"`
	WarningsToInclude []string          `yaml:"warnings_to_include" hcl:"warnings_to_include,optional"`
	KeepLogFiles      bool              `yaml:"keep_logfiles" hcl:"keep_logfiles,optional"`
	KeepMacroFiles    bool              `yaml:"keep_macrofiles" hcl:"keep_macrofiles,optional"`
	LogFilePrefix     string            `yaml:"logfile_prefix" hcl:"logfile_prefix,optional"`
	RuntimeHome       string            `yaml:"runtime_home" hcl:"runtime_home,optional"`
	RuntimeHomeVar    string            `yaml:"runtime_home_var" hcl:"runtime_home_var,optional"`
	NoWindowFlag      *string           `yaml:"no_window_flag" hcl:"no_window_flag,optional"`
	Env               map[string]string `yaml:"env" hcl:"env,optional"`
	ExitCodes         *ExitCodes        `yaml:"exit_codes" hcl:"exit_codes,block"`
	LicenseRetries    int               `yaml:"license_retries" hcl:"license_retries,optional"`
	LicenseRetryDelay string            `yaml:"license_retry_delay" hcl:"license_retry_delay,optional"`
	GracePeriod       string            `yaml:"grace_period" hcl:"grace_period,optional"`
	SearchSubdirs     string            `yaml:"search_subdirs" hcl:"search_subdirs,optional"`
	Folders           []task.Folder     `yaml:"folders" hcl:"folder,block"`
	Macros            [][]string        `yaml:"macros" hcl:"macros,optional"`
}

// Batch is a validated definition.
type Batch struct {
	Name                 string
	Executable           string
	Timeout              time.Duration
	MaxConcurrency       int
	Collector            collector.Options
	KeepLogFiles         bool
	KeepMacroFiles       bool
	LogFilePrefix        string
	RuntimeHome          string
	RuntimeHomeVar       string
	NoWindowFlag         string
	Env                  map[string]string
	SupervisorKilledCode int
	NoLicenseCode        int
	LicenseRetries       int
	LicenseRetryDelay    time.Duration
	GracePeriod          time.Duration
	SearchSubdirs        string
	Folders              []task.Folder
	Macros               [][]string
}

// Load reads and validates the definition at path.
func Load(path string) (*Batch, error) {
	b, err := afero.ReadFile(FsFactory(), path)
	if err != nil {
		return nil, errors.Join(ErrReadConfig, err)
	}

	def, err := Parse(path, b)
	if err != nil {
		return nil, err
	}

	return def.Validate()
}

// Parse decodes a definition, choosing the format from the file extension.
func Parse(filename string, content []byte) (*Definition, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return parseYAML(content)
	case ".hcl":
		return parseHCL(filename, content)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, filename)
	}
}

func parseYAML(content []byte) (*Definition, error) {
	var def Definition
	if err := yaml.UnmarshalWithOptions(content, &def, yaml.Strict()); err != nil {
		return nil, errors.Join(ErrParseConfig, err)
	}

	return &def, nil
}

func parseHCL(filename string, content []byte) (*Definition, error) {
	file, diags := hclsyntax.ParseConfig(content, filename, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, errors.Join(ErrParseConfig, diags)
	}

	var def Definition
	if diags := gohcl.DecodeBody(file.Body, evalContext(), &def); diags.HasErrors() {
		return nil, errors.Join(ErrParseConfig, diags)
	}

	return &def, nil
}

// evalContext exposes the process environment as env.
func evalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value)

	for _, kv := range environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}

		vars[k] = cty.StringVal(v)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(vars),
		},
	}
}

// Environment returns the variables that override the inherited environment of the simulator.
// A runtime home is exported under RuntimeHomeVar and put first on PATH.
func (b *Batch) Environment() map[string]string {
	env := make(map[string]string, len(b.Env)+2)
	for k, v := range b.Env {
		env[k] = v
	}

	if b.RuntimeHome == "" {
		return env
	}

	env[b.RuntimeHomeVar] = b.RuntimeHome

	path, ok := env["PATH"]
	if !ok {
		path = os.Getenv("PATH")
	}

	env["PATH"] = b.RuntimeHome + string(os.PathListSeparator) + path

	return env
}

// ResolveExecutable returns the absolute path of the simulator.
// A bare name is looked for in the runtime home before PATH.
func (b *Batch) ResolveExecutable() (string, error) {
	if b.RuntimeHome != "" && !strings.ContainsAny(b.Executable, `/\`) {
		if p, err := runner.ResolveExecutable(filepath.Join(b.RuntimeHome, b.Executable)); err == nil {
			return p, nil
		}
	}

	return runner.ResolveExecutable(b.Executable)
}

// RunnerConfig returns the process settings of the batch.
func (b *Batch) RunnerConfig() (runner.Config, error) {
	exe, err := b.ResolveExecutable()
	if err != nil {
		return runner.Config{}, err
	}

	cfg := runner.DefaultConfig(exe)
	cfg.Env = b.Environment()
	cfg.Timeout = b.Timeout
	cfg.NoWindowFlag = b.NoWindowFlag
	cfg.KeepMacroFile = b.KeepMacroFiles
	cfg.SupervisorKilledCode = b.SupervisorKilledCode
	cfg.NoLicenseCode = b.NoLicenseCode

	return cfg, nil
}

// SchedulerConfig returns the dispatch settings of the batch.
func (b *Batch) SchedulerConfig() scheduler.Config {
	cfg := scheduler.DefaultConfig()
	cfg.MaxConcurrency = b.MaxConcurrency
	cfg.Collector = b.Collector
	cfg.KeepLogFiles = b.KeepLogFiles
	cfg.LicenseRetries = b.LicenseRetries
	cfg.LicenseRetryDelay = b.LicenseRetryDelay
	cfg.GracePeriod = b.GracePeriod

	if b.LogFilePrefix != "" {
		cfg.LogFilePrefix = b.LogFilePrefix
	}

	return cfg
}

// Request returns the argument triple that identifies the batch.
func (b *Batch) Request() batchcache.Request {
	return batchcache.Request{
		Macros:       b.Macros,
		Folders:      b.Folders,
		SubdirFilter: b.SearchSubdirs,
	}
}

func defaultConcurrency() int {
	return runtime.NumCPU()
}
