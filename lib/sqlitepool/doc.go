// Copyright 2026 The Taskdesk Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool provides a fixed-size pool of SQLite connections
// with taskdesk-standard pragmas (WAL journaling, busy timeout). The
// identity and task stores share one pool over one database file, which
// is what lets a user-delete guard check task references inside a
// single transaction.
//
// Pool is safe for concurrent use. Individual connections are not;
// each goroutine must Take its own connection and Put it back when done.
package sqlitepool
