// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package scheduler runs a batch of tasks with bounded concurrency.
//
// Schedule keeps up to MaxConcurrency workers busy. Each worker supervises one
// simulator process through a ProcessRunner, writes its output to a log file in
// the task folder and parses that log into the task's record. Completions come
// back over a channel and are applied to the tasks in place, so the returned
// list keeps the input order.
//
// Tasks that already hold an error-free result are not run again. Cancelling the
// context, or calling Interrupt, kills every live process and returns whatever
// has completed so far.
package scheduler
