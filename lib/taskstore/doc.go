// Copyright 2026 The Taskdesk Authors
// SPDX-License-Identifier: Apache-2.0

// Package taskstore persists tasks in SQLite.
//
// Writes that change status go through the lifecycle transition rules,
// so a terminal task can never be reopened through this package. Due
// dates are stored as YYYY-MM-DD text, which makes the overdue sweep a
// single lexicographic comparison in SQL.
package taskstore
