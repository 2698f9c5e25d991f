// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package task describes one simulator job and the record its output is parsed into.
//
// A Task binds a macro (an ordered list of simulator commands) to a working directory.
// After a run the task carries a Record, the measured process time and the path of its log file.
// A process time of zero means the task has not produced a result yet.
package task
