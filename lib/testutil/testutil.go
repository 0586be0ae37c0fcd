// Copyright 2026 The Taskdesk Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides channel helpers for tests that coordinate
// with background goroutines.
package testutil

import (
	"testing"
	"time"
)

// Timeout bounds every helper in this package. Generous so loaded CI
// machines do not flake; a healthy test never waits this long.
const Timeout = 10 * time.Second

// RequireReceive receives a value from the channel or fails the test
// after Timeout.
func RequireReceive[T any](t testing.TB, ch <-chan T, msg string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(Timeout):
		t.Fatalf("timed out waiting to receive: %s", msg)
		panic("unreachable")
	}
}

// RequireClosed waits for the channel to close or fails the test after
// Timeout. A buffered value before close is drained and ignored.
func RequireClosed[T any](t testing.TB, ch <-chan T, msg string) {
	t.Helper()
	deadline := time.After(Timeout)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for close: %s", msg)
		}
	}
}
