// Copyright 2026 The Taskdesk Authors
// SPDX-License-Identifier: Apache-2.0

// Package lifecycle owns task status transitions and the due-date sweep.
//
// The legal transition graph is:
//
//	pending → in_progress → completed
//	pending → completed                (direct completion)
//	pending | in_progress → failed     (sweep only)
//
// completed and failed are terminal: nothing transitions out of them,
// and an edit that tries fails with ErrInvalidTransition. Setting
// failed by hand is likewise rejected; only the sweep fails tasks.
//
// The sweep runs on a fixed interval, marking every task whose due date
// has passed and whose status is not completed as failed. It is
// idempotent (already-failed tasks are untouched) and store errors are
// logged and retried on the next tick rather than crashing the process.
package lifecycle
