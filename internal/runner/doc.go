// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package runner starts one simulator process for one macro and supervises it.
//
// The macro is written to a file and passed as "--macro=<file>". Combined stdout and
// stderr are streamed to the caller's writer. The process is polled on a short
// interval so that its deadline, the registry stop flag and context cancellation are
// all noticed promptly. Exit codes are mapped onto a closed set of ExitClass values,
// and every non-zero class appends a diagnostic line to the output.
package runner
