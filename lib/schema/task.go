// Copyright 2026 The Taskdesk Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"fmt"
	"time"
)

// Status is a task's lifecycle state. The set is closed and validated
// on every write path; unknown values never reach the store.
type Status string

const (
	// StatusPending is the initial state for new tasks.
	StatusPending Status = "pending"

	// StatusInProgress marks a task that has been started.
	StatusInProgress Status = "in_progress"

	// StatusCompleted is terminal. The sweep never touches completed
	// tasks, and no edit may transition out of this state.
	StatusCompleted Status = "completed"

	// StatusFailed is terminal. Set by the due-date sweep on overdue
	// tasks; no edit may transition out of this state.
	StatusFailed Status = "failed"
)

// ParseStatus validates a status string. An empty string defaults to
// StatusPending (the creation default); anything else outside the
// closed set is an error.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case "":
		return StatusPending, nil
	case StatusPending, StatusInProgress, StatusCompleted, StatusFailed:
		return Status(s), nil
	default:
		return "", fmt.Errorf("schema: unknown status %q", s)
	}
}

// Terminal reports whether no transition out of the status is legal.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// DateLayout is the wire and storage format for due dates.
const DateLayout = "2006-01-02"

// Date is a calendar day with no time component. It serializes as
// YYYY-MM-DD and sorts lexicographically in that form, which is what
// the task store relies on for overdue comparisons.
type Date struct {
	t time.Time
}

// DateOf truncates a time to its UTC calendar day.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return Date{t: time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("schema: invalid date %q: expected YYYY-MM-DD", s)
	}
	return Date{t: t}, nil
}

// String returns the YYYY-MM-DD form.
func (d Date) String() string { return d.t.Format(DateLayout) }

// IsZero reports whether the date is the zero value.
func (d Date) IsZero() bool { return d.t.IsZero() }

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool { return d.t.Before(other.t) }

// MarshalJSON encodes the date as a YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a YYYY-MM-DD string.
func (d *Date) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("schema: invalid date %s: expected a JSON string", data)
	}
	parsed, err := ParseDate(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Task is a unit of assigned work. AssignedTo and CreatedBy reference
// user IDs that existed at creation time; they are not re-validated
// afterward, and user deletion is refused while references exist.
type Task struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     Date   `json:"due_date"`
	Priority    int    `json:"priority"`
	Status      Status `json:"status"`
	AssignedTo  int64  `json:"assigned_to"`
	CreatedBy   int64  `json:"created_by"`
}
