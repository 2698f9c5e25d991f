// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package ctxlog carries a slog logger inside a context.Context.
//
// The level is read once from SIMBATCH_LOG_LEVEL (DEBUG, INFO, WARN or ERROR, default WARN).
// The default handler prints a timestamp, the coloured level, the message and the
// attributes as indented JSON.
package ctxlog
