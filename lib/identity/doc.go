// Copyright 2026 The Taskdesk Authors
// SPDX-License-Identifier: Apache-2.0

// Package identity stores user accounts and verifies credentials.
//
// Passwords are hashed with bcrypt before they touch the database;
// plaintext is never stored and the hash is never serialized outward.
// Authentication is deliberately non-enumerating: a missing user and a
// wrong password both return ErrInvalidCredentials.
package identity
