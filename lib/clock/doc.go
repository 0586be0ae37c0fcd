// Copyright 2026 The Taskdesk Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts time for testability. Production code injects
// Real(); tests inject Fake() and drive it with Advance.
//
// Anything in taskdesk that reads the current time or schedules
// periodic work (token expiry, due-date comparisons, the sweep ticker)
// goes through a Clock so tests never sleep on the wall clock.
package clock
