// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package progress carries task lifecycle events from the scheduler to whatever displays them.
//
// Every completion event holds the running (processed, errored, total) counts. Reporters
// may render them as a text bar, structured log lines or a terminal UI. The scheduler
// only depends on the Reporter interface.
package progress
