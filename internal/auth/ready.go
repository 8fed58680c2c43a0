// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"time"
)

// Default readiness polling bounds.
const (
	DefaultReadyInterval = 100 * time.Millisecond
	DefaultReadyAttempts = 50
)

// Prober reports whether a provider can be used yet.
type Prober interface {
	Available() bool
}

// Readier is implemented by providers that signal readiness on a channel.
// The channel is closed once the provider is usable.
type Readier interface {
	Ready() <-chan struct{}
}

// WaitReady blocks until p is usable, for at most interval*attempts.
// Providers that implement Readier are waited on directly; others are polled
// every interval. Running out of time yields ErrProviderUnavailable.
func WaitReady(ctx context.Context, p Prober, interval time.Duration, attempts int) error {
	if interval <= 0 {
		interval = DefaultReadyInterval
	}
	if attempts <= 0 {
		attempts = DefaultReadyAttempts
	}
	if p.Available() {
		return nil
	}

	if r, ok := p.(Readier); ok {
		timer := time.NewTimer(interval * time.Duration(attempts))
		defer timer.Stop()
		select {
		case <-r.Ready():
			if p.Available() {
				return nil
			}
			return ErrProviderUnavailable
		case <-timer.C:
			return ErrProviderUnavailable
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for i := 0; i < attempts; i++ {
		select {
		case <-ticker.C:
			if p.Available() {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return ErrProviderUnavailable
}
