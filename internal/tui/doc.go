// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tui provides a real-time Terminal User Interface (TUI) for monitoring
// a simulation batch. It shows an overall progress bar and one line per task with
// a status indicator, its run time and the last output line of running tasks.
//
// The TUI is fed by the progress event system, so the scheduler stays unaware of it.
package tui
