// Copyright 2026 The Taskdesk Authors
// SPDX-License-Identifier: Apache-2.0

package taskstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/taskdesk/taskdesk/lib/lifecycle"
	"github.com/taskdesk/taskdesk/lib/schema"
	"github.com/taskdesk/taskdesk/lib/sqlitepool"
)

// Schema is the tasks table DDL. The migrate binary applies it; tests
// apply it through the pool's OnConnect hook.
const Schema = `
CREATE TABLE IF NOT EXISTS tasks (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    title       TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    due_date    TEXT NOT NULL,
    priority    INTEGER NOT NULL DEFAULT 1,
    status      TEXT NOT NULL DEFAULT 'pending',
    assigned_to INTEGER NOT NULL,
    created_by  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tasks_assigned_to ON tasks(assigned_to);
CREATE INDEX IF NOT EXISTS idx_tasks_due_status ON tasks(due_date, status);
`

var (
	// ErrInvalidInput reports a request that fails validation before
	// reaching the database, including references to users that do
	// not exist.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound reports a lookup for a task ID that does not exist.
	ErrNotFound = errors.New("task not found")
)

// Store persists tasks in SQLite.
type Store struct {
	pool *sqlitepool.Pool
}

// NewStore wraps a pool. The tasks and users tables must already
// exist; Create checks assignee and creator against the users table.
func NewStore(pool *sqlitepool.Pool) *Store {
	return &Store{pool: pool}
}

// NewTask carries the fields for task creation. Title, DueDate,
// AssignedTo, and CreatedBy are required. A nil Priority defaults to
// 1 (an explicit 0 is kept) and an empty Status to pending.
type NewTask struct {
	Title       string
	Description string
	DueDate     schema.Date
	Priority    *int
	Status      schema.Status
	AssignedTo  int64
	CreatedBy   int64
}

// Patch carries the fields of a task update. Nil fields are left
// unchanged. A Status change must be a legal lifecycle transition and
// a new assignee must exist.
type Patch struct {
	Title       *string
	Description *string
	DueDate     *schema.Date
	Priority    *int
	Status      *schema.Status
	AssignedTo  *int64
}

// Create inserts a task and returns the stored record. The assignee
// and creator must exist at creation time; both checks run inside the
// insert transaction.
func (s *Store) Create(ctx context.Context, nt NewTask) (schema.Task, error) {
	if strings.TrimSpace(nt.Title) == "" {
		return schema.Task{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if nt.DueDate.IsZero() {
		return schema.Task{}, fmt.Errorf("%w: due date is required", ErrInvalidInput)
	}
	status := nt.Status
	if status == "" {
		status = schema.StatusPending
	}
	if _, err := schema.ParseStatus(string(status)); err != nil {
		return schema.Task{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	priority := 1
	if nt.Priority != nil {
		priority = *nt.Priority
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return schema.Task{}, err
	}
	defer s.pool.Put(conn)

	end, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return schema.Task{}, fmt.Errorf("taskstore: begin transaction: %w", err)
	}
	defer end(&err)

	for _, ref := range []struct {
		field string
		id    int64
	}{
		{"assigned_to", nt.AssignedTo},
		{"created_by", nt.CreatedBy},
	} {
		exists, checkErr := userExists(conn, ref.id)
		if checkErr != nil {
			err = checkErr
			return schema.Task{}, err
		}
		if !exists {
			err = fmt.Errorf("%w: %s user %d does not exist", ErrInvalidInput, ref.field, ref.id)
			return schema.Task{}, err
		}
	}

	err = sqlitex.Execute(conn,
		`INSERT INTO tasks (title, description, due_date, priority, status, assigned_to, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{
				nt.Title, nt.Description, nt.DueDate.String(),
				priority, string(status), nt.AssignedTo, nt.CreatedBy,
			},
		})
	if err != nil {
		return schema.Task{}, fmt.Errorf("taskstore: inserting task: %w", err)
	}

	return schema.Task{
		ID:          conn.LastInsertRowID(),
		Title:       nt.Title,
		Description: nt.Description,
		DueDate:     nt.DueDate,
		Priority:    priority,
		Status:      status,
		AssignedTo:  nt.AssignedTo,
		CreatedBy:   nt.CreatedBy,
	}, nil
}

// Get returns the task with the given ID, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id int64) (schema.Task, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return schema.Task{}, err
	}
	defer s.pool.Put(conn)
	return getTask(conn, id)
}

// ListAll returns every task, ordered by ID.
func (s *Store) ListAll(ctx context.Context) ([]schema.Task, error) {
	return s.list(ctx, selectColumns+` FROM tasks ORDER BY id`, nil)
}

// ListByAssignee returns the tasks assigned to a user, ordered by ID.
func (s *Store) ListByAssignee(ctx context.Context, userID int64) ([]schema.Task, error) {
	return s.list(ctx, selectColumns+` FROM tasks WHERE assigned_to = ? ORDER BY id`, []any{userID})
}

func (s *Store) list(ctx context.Context, query string, args []any) ([]schema.Task, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	var tasks []schema.Task
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			task, scanErr := scanTask(stmt)
			if scanErr != nil {
				return scanErr
			}
			tasks = append(tasks, task)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("taskstore: listing tasks: %w", err)
	}
	return tasks, nil
}

// Update applies a patch and returns the updated record. A status
// change is checked against the lifecycle rules and a new assignee
// against the users table, both inside the write transaction.
func (s *Store) Update(ctx context.Context, id int64, patch Patch) (schema.Task, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return schema.Task{}, fmt.Errorf("%w: title must not be empty", ErrInvalidInput)
	}
	if patch.Status != nil {
		if _, err := schema.ParseStatus(string(*patch.Status)); err != nil {
			return schema.Task{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return schema.Task{}, err
	}
	defer s.pool.Put(conn)

	end, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return schema.Task{}, fmt.Errorf("taskstore: begin transaction: %w", err)
	}
	defer end(&err)

	task, err := getTask(conn, id)
	if err != nil {
		return schema.Task{}, err
	}

	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.DueDate != nil {
		task.DueDate = *patch.DueDate
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.Status != nil && *patch.Status != task.Status {
		if err = lifecycle.ValidateTransition(task.Status, *patch.Status); err != nil {
			return schema.Task{}, err
		}
		task.Status = *patch.Status
	}
	if patch.AssignedTo != nil && *patch.AssignedTo != task.AssignedTo {
		exists, checkErr := userExists(conn, *patch.AssignedTo)
		if checkErr != nil {
			err = checkErr
			return schema.Task{}, err
		}
		if !exists {
			err = fmt.Errorf("%w: assigned_to user %d does not exist", ErrInvalidInput, *patch.AssignedTo)
			return schema.Task{}, err
		}
		task.AssignedTo = *patch.AssignedTo
	}

	err = sqlitex.Execute(conn,
		`UPDATE tasks SET title = ?, description = ?, due_date = ?, priority = ?,
		 status = ?, assigned_to = ? WHERE id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{
				task.Title, task.Description, task.DueDate.String(),
				task.Priority, string(task.Status), task.AssignedTo, id,
			},
		})
	if err != nil {
		return schema.Task{}, fmt.Errorf("taskstore: updating task %d: %w", id, err)
	}
	return task, nil
}

// Delete removes a task, or returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, id int64) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`DELETE FROM tasks WHERE id = ?`,
		&sqlitex.ExecOptions{Args: []any{id}})
	if err != nil {
		return fmt.Errorf("taskstore: deleting task %d: %w", id, err)
	}
	if conn.Changes() == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return nil
}

// MarkCompleted transitions a task to completed and returns the
// updated record. Completing an already-completed task is a no-op;
// completing a failed task returns lifecycle.ErrInvalidTransition.
func (s *Store) MarkCompleted(ctx context.Context, id int64) (schema.Task, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return schema.Task{}, err
	}
	defer s.pool.Put(conn)

	end, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return schema.Task{}, fmt.Errorf("taskstore: begin transaction: %w", err)
	}
	defer end(&err)

	task, err := getTask(conn, id)
	if err != nil {
		return schema.Task{}, err
	}
	if task.Status == schema.StatusCompleted {
		return task, nil
	}
	if err = lifecycle.ValidateTransition(task.Status, schema.StatusCompleted); err != nil {
		return schema.Task{}, err
	}

	err = sqlitex.Execute(conn,
		`UPDATE tasks SET status = ? WHERE id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{string(schema.StatusCompleted), id},
		})
	if err != nil {
		return schema.Task{}, fmt.Errorf("taskstore: completing task %d: %w", id, err)
	}
	task.Status = schema.StatusCompleted
	return task, nil
}

// FailOverdue marks every pending or in-progress task whose due date
// falls strictly before today as failed, returning the number of rows
// changed. Stored dates are YYYY-MM-DD text, so string comparison
// orders correctly.
func (s *Store) FailOverdue(ctx context.Context, today schema.Date) (int, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`UPDATE tasks SET status = ? WHERE due_date < ? AND status IN (?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{
				string(schema.StatusFailed), today.String(),
				string(schema.StatusPending), string(schema.StatusInProgress),
			},
		})
	if err != nil {
		return 0, fmt.Errorf("taskstore: failing overdue tasks: %w", err)
	}
	return conn.Changes(), nil
}

const selectColumns = `SELECT id, title, description, due_date, priority, status, assigned_to, created_by`

func getTask(conn *sqlite.Conn, id int64) (schema.Task, error) {
	var task schema.Task
	found := false
	err := sqlitex.Execute(conn,
		selectColumns+` FROM tasks WHERE id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{id},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				var scanErr error
				task, scanErr = scanTask(stmt)
				found = true
				return scanErr
			},
		})
	if err != nil {
		return schema.Task{}, fmt.Errorf("taskstore: loading task %d: %w", id, err)
	}
	if !found {
		return schema.Task{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return task, nil
}

func scanTask(stmt *sqlite.Stmt) (schema.Task, error) {
	due, err := schema.ParseDate(stmt.ColumnText(3))
	if err != nil {
		return schema.Task{}, fmt.Errorf("taskstore: task %d: %w", stmt.ColumnInt64(0), err)
	}
	return schema.Task{
		ID:          stmt.ColumnInt64(0),
		Title:       stmt.ColumnText(1),
		Description: stmt.ColumnText(2),
		DueDate:     due,
		Priority:    stmt.ColumnInt(4),
		Status:      schema.Status(stmt.ColumnText(5)),
		AssignedTo:  stmt.ColumnInt64(6),
		CreatedBy:   stmt.ColumnInt64(7),
	}, nil
}

func userExists(conn *sqlite.Conn, id int64) (bool, error) {
	exists := false
	err := sqlitex.Execute(conn,
		`SELECT 1 FROM users WHERE id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{id},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				exists = true
				return nil
			},
		})
	if err != nil {
		return false, fmt.Errorf("taskstore: checking user %d: %w", id, err)
	}
	return exists, nil
}
