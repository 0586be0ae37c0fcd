// Copyright 2026 The Taskdesk Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/taskdesk/taskdesk/lib/schema"
	"github.com/taskdesk/taskdesk/lib/sqlitepool"
)

// Schema is the users table DDL. The migrate binary applies it; tests
// apply it through the pool's OnConnect hook.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    username      TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL
);
`

// Sentinel errors for the store's failure modes. Callers map these to
// boundary responses with errors.Is.
var (
	// ErrInvalidInput reports a request that fails validation before
	// reaching the database.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateUsername reports a registration attempt for a
	// username that already exists.
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrInvalidCredentials reports a failed authentication. It does
	// not distinguish a missing user from a wrong password.
	ErrInvalidCredentials = errors.New("bad username or password")

	// ErrNotFound reports a lookup for a user ID that does not exist.
	ErrNotFound = errors.New("user not found")

	// ErrUserReferenced reports a deletion refused because tasks
	// still reference the user.
	ErrUserReferenced = errors.New("user is referenced by tasks")
)

// Store persists user accounts in SQLite.
type Store struct {
	pool *sqlitepool.Pool
}

// NewStore wraps a pool. The users table must already exist.
func NewStore(pool *sqlitepool.Pool) *Store {
	return &Store{pool: pool}
}

// Register creates a user with a bcrypt-hashed password and returns
// the stored record. The role string is validated (empty defaults to
// worker) and the username must be non-empty and unique.
func (s *Store) Register(ctx context.Context, username, password, role string) (schema.User, error) {
	if username == "" {
		return schema.User{}, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if password == "" {
		return schema.User{}, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	parsedRole, err := schema.ParseRole(role)
	if err != nil {
		return schema.User{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return schema.User{}, fmt.Errorf("identity: hashing password: %w", err)
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return schema.User{}, err
	}
	defer s.pool.Put(conn)

	end, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return schema.User{}, fmt.Errorf("identity: begin transaction: %w", err)
	}
	defer end(&err)

	// Existence check inside the write transaction so concurrent
	// registrations of the same name cannot both pass.
	exists := false
	err = sqlitex.Execute(conn,
		`SELECT 1 FROM users WHERE username = ?`,
		&sqlitex.ExecOptions{
			Args: []any{username},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				exists = true
				return nil
			},
		})
	if err != nil {
		return schema.User{}, fmt.Errorf("identity: checking username: %w", err)
	}
	if exists {
		err = fmt.Errorf("%w: %s", ErrDuplicateUsername, username)
		return schema.User{}, err
	}

	err = sqlitex.Execute(conn,
		`INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{username, string(hash), string(parsedRole)},
		})
	if err != nil {
		return schema.User{}, fmt.Errorf("identity: inserting user: %w", err)
	}

	return schema.User{
		ID:           conn.LastInsertRowID(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         parsedRole,
	}, nil
}

// Authenticate verifies a username/password pair and returns the user
// record on success. Any mismatch returns ErrInvalidCredentials.
func (s *Store) Authenticate(ctx context.Context, username, password string) (schema.User, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return schema.User{}, err
	}
	defer s.pool.Put(conn)

	user, found, err := lookupByUsername(conn, username)
	if err != nil {
		return schema.User{}, err
	}
	if !found {
		return schema.User{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return schema.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Get returns the user with the given ID, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id int64) (schema.User, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return schema.User{}, err
	}
	defer s.pool.Put(conn)

	var user schema.User
	found := false
	err = sqlitex.Execute(conn,
		`SELECT id, username, password_hash, role FROM users WHERE id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{id},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				user = scanUser(stmt)
				found = true
				return nil
			},
		})
	if err != nil {
		return schema.User{}, fmt.Errorf("identity: loading user %d: %w", id, err)
	}
	if !found {
		return schema.User{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return user, nil
}

// UpdatePassword replaces a user's password with a fresh bcrypt hash.
func (s *Store) UpdatePassword(ctx context.Context, id int64, password string) error {
	if password == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("identity: hashing password: %w", err)
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`UPDATE users SET password_hash = ? WHERE id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{string(hash), id},
		})
	if err != nil {
		return fmt.Errorf("identity: updating password for user %d: %w", id, err)
	}
	if conn.Changes() == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return nil
}

// Delete removes a user. It refuses with ErrUserReferenced while any
// task lists the user as assignee or creator; the check and the
// delete run in one immediate transaction so a concurrent task
// creation cannot slip between them.
func (s *Store) Delete(ctx context.Context, id int64) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	end, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("identity: begin transaction: %w", err)
	}
	defer end(&err)

	referenced := 0
	err = sqlitex.Execute(conn,
		`SELECT COUNT(*) FROM tasks WHERE assigned_to = ? OR created_by = ?`,
		&sqlitex.ExecOptions{
			Args: []any{id, id},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				referenced = stmt.ColumnInt(0)
				return nil
			},
		})
	if err != nil {
		return fmt.Errorf("identity: counting task references for user %d: %w", id, err)
	}
	if referenced > 0 {
		err = fmt.Errorf("%w: %d tasks reference user %d", ErrUserReferenced, referenced, id)
		return err
	}

	err = sqlitex.Execute(conn,
		`DELETE FROM users WHERE id = ?`,
		&sqlitex.ExecOptions{Args: []any{id}})
	if err != nil {
		return fmt.Errorf("identity: deleting user %d: %w", id, err)
	}
	if conn.Changes() == 0 {
		err = fmt.Errorf("%w: id %d", ErrNotFound, id)
		return err
	}
	return nil
}

// ListByRole returns all users with the given role, ordered by ID.
func (s *Store) ListByRole(ctx context.Context, role schema.Role) ([]schema.User, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	var users []schema.User
	err = sqlitex.Execute(conn,
		`SELECT id, username, password_hash, role FROM users WHERE role = ? ORDER BY id`,
		&sqlitex.ExecOptions{
			Args: []any{string(role)},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				users = append(users, scanUser(stmt))
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("identity: listing %s users: %w", role, err)
	}
	return users, nil
}

// Exists reports whether a user with the given ID exists.
func (s *Store) Exists(ctx context.Context, id int64) (bool, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return false, err
	}
	defer s.pool.Put(conn)
	return userExists(conn, id)
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
		return false, fmt.Errorf("identity: checking user %d: %w", id, err)
	}
	return exists, nil
}

func lookupByUsername(conn *sqlite.Conn, username string) (schema.User, bool, error) {
	var user schema.User
	found := false
	err := sqlitex.Execute(conn,
		`SELECT id, username, password_hash, role FROM users WHERE username = ?`,
		&sqlitex.ExecOptions{
			Args: []any{username},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				user = scanUser(stmt)
				found = true
				return nil
			},
		})
	if err != nil {
		return schema.User{}, false, fmt.Errorf("identity: loading user %q: %w", username, err)
	}
	return user, found, nil
}

func scanUser(stmt *sqlite.Stmt) schema.User {
	return schema.User{
		ID:           stmt.ColumnInt64(0),
		Username:     stmt.ColumnText(1),
		PasswordHash: stmt.ColumnText(2),
		Role:         schema.Role(stmt.ColumnText(3)),
	}
}
