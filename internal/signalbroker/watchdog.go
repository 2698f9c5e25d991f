// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"

	"github.com/matt-FFFFFF/simbatch/internal/ctxlog"
)

// Watch monitors the signal channel until ctx is done or the channel is closed.
// The first signal calls interrupt. A second signal of a type already received calls escalate
// and Watch returns.
func Watch(ctx context.Context, sigCh <-chan os.Signal, interrupt, escalate func()) {
	seen := make(map[os.Signal]struct{})

	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-sigCh:
			if !ok {
				return
			}

			if _, dup := seen[sig]; dup {
				ctxlog.Warn(ctx, "watchdog", "detail", "received second signal of type, forcefully terminating", "signal", sig.String())
				escalate()

				return
			}

			if len(seen) == 0 {
				ctxlog.Warn(ctx, "watchdog", "detail", "received signal, stopping batch", "signal", sig.String())
				interrupt()
			} else {
				ctxlog.Info(ctx, "watchdog", "detail", "already stopping", "signal", sig.String())
			}

			seen[sig] = struct{}{}
		}
	}
}
