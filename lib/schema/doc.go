// Copyright 2026 The Taskdesk Authors
// SPDX-License-Identifier: Apache-2.0

// Package schema defines the taskdesk data model: users, tasks, roles,
// task statuses, and the YYYY-MM-DD date wire format.
//
// The types here are shared by the stores, the lifecycle engine, the
// authorization policy, and the HTTP boundary. They carry no storage or
// transport dependencies; serialization is plain encoding/json.
package schema
