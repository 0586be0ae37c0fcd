// Copyright 2026 The Taskdesk Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import "fmt"

// Role is a user's authorization role. The set is closed: anything
// outside {manager, worker} is rejected at registration time.
type Role string

const (
	// RoleManager may create, assign, edit, complete, and delete
	// tasks, and view aggregate task and user lists.
	RoleManager Role = "manager"

	// RoleWorker may view tasks assigned to itself. Registration
	// defaults to this role when none is supplied.
	RoleWorker Role = "worker"
)

// ParseRole validates a role string. An empty string defaults to
// RoleWorker; anything else outside the closed set is an error.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case "":
		return RoleWorker, nil
	case RoleManager, RoleWorker:
		return Role(s), nil
	default:
		return "", fmt.Errorf("schema: unknown role %q", s)
	}
}

// User is an identity record. PasswordHash is the bcrypt credential
// and must never be serialized outward; the struct has no JSON tags
// on purpose, and the boundary builds explicit response payloads.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         Role
}
