// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/simbatch/internal/collector"
	"github.com/matt-FFFFFF/simbatch/internal/runner"
	"github.com/spf13/afero"
)

// Validation problems. Each is wrapped in a *ValidationError naming the field.
var (
	ErrRequired        = errors.New("is required")
	ErrNegative        = errors.New("must not be negative")
	ErrNotPositive     = errors.New("must be positive")
	ErrBadDuration     = errors.New("is not a valid duration")
	ErrNotADirectory   = errors.New("is not an existing directory")
	ErrEmptyMacro      = errors.New("has no commands")
	ErrEmptyFolderPath = errors.New("has an empty path")
	ErrBadPattern      = errors.New("is not a valid pattern")
)

// ValidationError is a problem with one field of a definition.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Validate checks the definition and fills in defaults.
// Every problem is returned, wrapped in ErrInvalidConfig.
func (d *Definition) Validate() (*Batch, error) {
	var merr *multierror.Error

	fail := func(field string, err error) {
		merr = multierror.Append(merr, &ValidationError{Field: field, Err: err})
	}

	duration := func(field, s string, def time.Duration) time.Duration {
		if s == "" {
			return def
		}

		v, err := time.ParseDuration(s)
		if err != nil {
			fail(field, fmt.Errorf("%w: %q", ErrBadDuration, s))
			return def
		}

		if v < 0 {
			fail(field, ErrNegative)
		}

		return v
	}

	b := &Batch{
		Name:                 d.Name,
		Executable:           d.Executable,
		MaxConcurrency:       d.MaxConcurrency,
		KeepLogFiles:         d.KeepLogFiles,
		KeepMacroFiles:       d.KeepMacroFiles,
		LogFilePrefix:        d.LogFilePrefix,
		RuntimeHome:          d.RuntimeHome,
		RuntimeHomeVar:       d.RuntimeHomeVar,
		NoWindowFlag:         runner.DefaultNoWindowFlag,
		Env:                  maps.Clone(d.Env),
		SupervisorKilledCode: runner.DefaultSupervisorKilledCode,
		NoLicenseCode:        runner.DefaultNoLicenseCode,
		LicenseRetries:       d.LicenseRetries,
		SearchSubdirs:        d.SearchSubdirs,
		Folders:              slices.Clone(d.Folders),
		Collector: collector.Options{
			IgnoreErrors:    slices.Clone(d.IgnoreErrors),
			IncludeWarnings: slices.Clone(d.WarningsToInclude),
		},
	}

	if b.Executable == "" {
		fail("executable", ErrRequired)
	}

	b.Timeout = duration("timeout", d.Timeout, DefaultTimeout)
	if d.Timeout != "" && b.Timeout == 0 {
		fail("timeout", ErrNotPositive)
	}

	b.LicenseRetryDelay = duration("license_retry_delay", d.LicenseRetryDelay, DefaultLicenseRetryDelay)
	b.GracePeriod = duration("grace_period", d.GracePeriod, time.Second)

	switch {
	case d.MaxConcurrency < 0:
		fail("max_concurrency", ErrNegative)
	case d.MaxConcurrency == 0:
		b.MaxConcurrency = defaultConcurrency()
	}

	if d.LicenseRetries < 0 {
		fail("license_retries", ErrNegative)
	}

	if b.RuntimeHomeVar == "" {
		b.RuntimeHomeVar = DefaultRuntimeHomeVar
	}

	if b.RuntimeHome != "" {
		if ok, _ := afero.DirExists(FsFactory(), b.RuntimeHome); !ok {
			fail("runtime_home", fmt.Errorf("%w: %s", ErrNotADirectory, b.RuntimeHome))
		}
	}

	if d.NoWindowFlag != nil {
		b.NoWindowFlag = *d.NoWindowFlag
	}

	if d.ExitCodes != nil {
		if d.ExitCodes.SupervisorKilled != nil {
			b.SupervisorKilledCode = *d.ExitCodes.SupervisorKilled
		}

		if d.ExitCodes.NoLicense != nil {
			b.NoLicenseCode = *d.ExitCodes.NoLicense
		}
	}

	if b.SearchSubdirs != "" && !doublestar.ValidatePattern(b.SearchSubdirs) {
		fail("search_subdirs", fmt.Errorf("%w: %q", ErrBadPattern, b.SearchSubdirs))
	}

	for i, f := range b.Folders {
		if f.Path == "" {
			fail(fmt.Sprintf("folders[%d]", i), ErrEmptyFolderPath)
		}
	}

	b.Macros = make([][]string, 0, len(d.Macros))

	for i, m := range d.Macros {
		if len(m) == 0 {
			fail(fmt.Sprintf("macros[%d]", i), ErrEmptyMacro)
			continue
		}

		b.Macros = append(b.Macros, slices.Clone(m))
	}

	if err := merr.ErrorOrNil(); err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	return b, nil
}
