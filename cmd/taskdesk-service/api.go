// Copyright 2026 The Taskdesk Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"crypto/ed25519"
	"log/slog"
	"net/http"

	"github.com/taskdesk/taskdesk/lib/clock"
	"github.com/taskdesk/taskdesk/lib/identity"
	"github.com/taskdesk/taskdesk/lib/sessiontoken"
	"github.com/taskdesk/taskdesk/lib/taskstore"
)

// api holds the handler dependencies and builds the route table.
type api struct {
	users     *identity.Store
	tasks     *taskstore.Store
	issuer    *sessiontoken.Issuer
	publicKey ed25519.PublicKey
	clock     clock.Clock
	logger    *slog.Logger
}

// routes builds the full route table. Literal segments such as
// /users/worker and /tasks/all take precedence over the {id}
// wildcards under Go's most-specific-wins matching.
func (a *api) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", a.handleHealthz)
	mux.HandleFunc("POST /register", a.handleRegister)
	mux.HandleFunc("POST /login", a.handleLogin)

	mux.Handle("GET /users/worker", a.requireAuth(a.handleListWorkers))
	mux.Handle("GET /users/{id}", a.requireAuth(a.handleGetUser))
	mux.Handle("PUT /users/{id}", a.requireAuth(a.handleUpdateUser))
	mux.Handle("DELETE /users/{id}", a.requireAuth(a.handleDeleteUser))

	mux.Handle("POST /tasks", a.requireAuth(a.handleCreateTask))
	mux.Handle("GET /tasks", a.requireAuth(a.handleListOwnTasks))
	mux.Handle("GET /tasks/all", a.requireAuth(a.handleListAllTasks))
	mux.Handle("GET /tasks/{id}", a.requireAuth(a.handleGetTask))
	mux.Handle("PUT /tasks/{id}", a.requireAuth(a.handleUpdateTask))
	mux.Handle("DELETE /tasks/{id}", a.requireAuth(a.handleDeleteTask))
	mux.Handle("PUT /tasks/{id}/complete", a.requireAuth(a.handleCompleteTask))

	return withCORS(a.logRequests(mux))
}
