// Copyright 2026 The Taskdesk Authors
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"errors"
	"fmt"

	"github.com/taskdesk/taskdesk/lib/schema"
)

// ErrInvalidTransition reports an attempt to move a task between two
// statuses the lifecycle graph does not connect.
var ErrInvalidTransition = errors.New("invalid status transition")

// transitions maps each status to the set of statuses a task may move
// to through an ordinary edit. Failure is absent on purpose: only the
// due-date sweep produces failed tasks.
var transitions = map[schema.Status][]schema.Status{
	schema.StatusPending:    {schema.StatusInProgress, schema.StatusCompleted},
	schema.StatusInProgress: {schema.StatusCompleted},
	schema.StatusCompleted:  nil,
	schema.StatusFailed:     nil,
}

// CanTransition reports whether an edit may move a task from one
// status to another. A no-op transition (from == to) is always
// permitted.
func CanTransition(from, to schema.Status) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns ErrInvalidTransition (wrapped with both
// statuses) if an edit may not move a task from one status to the
// other, and nil otherwise.
func ValidateTransition(from, to schema.Status) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
