// Copyright 2026 The Taskdesk Authors
// SPDX-License-Identifier: Apache-2.0

// Package authorization decides whether an actor may perform an action.
//
// Decide is a pure function over the actor's token claims and the
// action's target; it touches no store and has no side effects. The
// boundary calls it after token verification and before any mutation,
// and converts Deny into an HTTP 403.
//
// The model is role-based with one ownership rule: managers may do
// everything; workers are limited to viewing tasks (their own list or
// any single task by id) and to reading user records. User update and
// delete additionally require the target to be the actor itself unless
// the actor is a manager.
package authorization
