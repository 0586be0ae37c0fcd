// Copyright 2026 The Taskdesk Authors
// SPDX-License-Identifier: Apache-2.0

package authorization

import "github.com/taskdesk/taskdesk/lib/schema"

// Action identifies an operation subject to authorization.
type Action string

const (
	ActionCreateTask   Action = "task/create"
	ActionListAllTasks Action = "task/list-all"
	ActionListOwnTasks Action = "task/list-own"
	ActionViewTask     Action = "task/view"
	ActionEditTask     Action = "task/edit"
	ActionCompleteTask Action = "task/complete"
	ActionDeleteTask   Action = "task/delete"
	ActionListWorkers  Action = "user/list-workers"
	ActionViewUser     Action = "user/view"
	ActionUpdateUser   Action = "user/update"
	ActionDeleteUser   Action = "user/delete"
)

// Decision is the outcome of an authorization check.
type Decision int

const (
	// Deny means the action is not permitted.
	Deny Decision = iota

	// Allow means the action is permitted.
	Allow
)

// String returns "allow" or "deny".
func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// DenyReason describes why a check was denied.
type DenyReason int

const (
	// ReasonManagerRequired means the action is reserved for managers.
	ReasonManagerRequired DenyReason = iota

	// ReasonNotSelf means a worker targeted another user's record.
	ReasonNotSelf

	// ReasonUnknownAction means the action is not in the policy table.
	ReasonUnknownAction
)

// String returns a human-readable reason.
func (r DenyReason) String() string {
	switch r {
	case ReasonManagerRequired:
		return "manager role required"
	case ReasonNotSelf:
		return "target is not the acting user"
	case ReasonUnknownAction:
		return "unknown action"
	default:
		return "unknown"
	}
}

// Actor is the authenticated identity performing an action, taken from
// verified token claims.
type Actor struct {
	ID   int64
	Role schema.Role
}

// Target carries the action's subject, when one exists. UserID is set
// for user-record actions (view/update/delete); task actions carry no
// target because any manager may act on any task.
type Target struct {
	UserID int64
}

// Result is the outcome of Decide, including the deny reason for audit
// logging.
type Result struct {
	// Decision is Allow or Deny.
	Decision Decision

	// Reason is meaningful only when Decision is Deny.
	Reason DenyReason
}

// Allowed reports whether the decision is Allow.
func (r Result) Allowed() bool { return r.Decision == Allow }

// Decide evaluates the policy table for one action. Managers pass every
// check. Workers pass the any-authenticated actions and the self-scoped
// user actions; everything else is denied.
func Decide(actor Actor, action Action, target Target) Result {
	if actor.Role == schema.RoleManager {
		return Result{Decision: Allow}
	}

	switch action {
	case ActionListOwnTasks, ActionViewTask, ActionViewUser:
		// Any authenticated user. ActionListOwnTasks is scoped by the
		// boundary to tasks assigned to the actor; ActionViewTask and
		// ActionViewUser intentionally have no ownership check.
		return Result{Decision: Allow}

	case ActionUpdateUser, ActionDeleteUser:
		if target.UserID == actor.ID {
			return Result{Decision: Allow}
		}
		return Result{Decision: Deny, Reason: ReasonNotSelf}

	case ActionCreateTask, ActionListAllTasks, ActionEditTask,
		ActionCompleteTask, ActionDeleteTask, ActionListWorkers:
		return Result{Decision: Deny, Reason: ReasonManagerRequired}

	default:
		return Result{Decision: Deny, Reason: ReasonUnknownAction}
	}
}
