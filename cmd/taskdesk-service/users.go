// Copyright 2026 The Taskdesk Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"net/http"
	"strconv"

	"github.com/taskdesk/taskdesk/lib/authorization"
	"github.com/taskdesk/taskdesk/lib/schema"
	"github.com/taskdesk/taskdesk/lib/sessiontoken"
	"github.com/taskdesk/taskdesk/lib/version"
)

func (a *api) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

func (a *api) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if _, err := a.users.Register(r.Context(), req.Username, req.Password, req.Role); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, "User created successfully")
}

func (a *api) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		writeErrorMessage(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := a.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	token, err := a.issuer.Issue(user.ID, user.Username, user.Role)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": token})
}

// authorize evaluates the policy and writes a 403 when denied.
func (a *api) authorize(w http.ResponseWriter, claims *sessiontoken.Claims, action authorization.Action, target authorization.Target, denyMsg string) bool {
	actor := authorization.Actor{ID: claims.Subject, Role: claims.Role}
	result := authorization.Decide(actor, action, target)
	if !result.Allowed() {
		a.logger.Info("authorization denied",
			"actor", claims.Subject,
			"role", claims.Role,
			"action", string(action),
			"reason", result.Reason.String(),
		)
		writeErrorMessage(w, http.StatusForbidden, denyMsg)
		return false
	}
	return true
}

// pathID parses the {id} path segment. A non-numeric segment is
// treated as a missing resource rather than a malformed request.
func pathID(w http.ResponseWriter, r *http.Request, notFoundMsg string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeErrorMessage(w, http.StatusNotFound, notFoundMsg)
		return 0, false
	}
	return id, true
}

func (a *api) handleGetUser(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	id, ok := pathID(w, r, "User not found")
	if !ok {
		return
	}
	if !a.authorize(w, claims, authorization.ActionViewUser, authorization.Target{UserID: id}, "Access denied") {
		return
	}

	user, err := a.users.Get(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"username": user.Username,
		"role":     string(user.Role),
	})
}

func (a *api) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	id, ok := pathID(w, r, "User not found")
	if !ok {
		return
	}
	if !a.authorize(w, claims, authorization.ActionUpdateUser, authorization.Target{UserID: id}, "Access denied") {
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	// The password field is optional: an update without one leaves
	// the credential alone but still 404s on a missing user.
	if req.Password == "" {
		if _, err := a.users.Get(r.Context(), id); err != nil {
			a.writeError(w, r, err)
			return
		}
	} else if err := a.users.UpdatePassword(r.Context(), id, req.Password); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "User updated successfully")
}

func (a *api) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	id, ok := pathID(w, r, "User not found")
	if !ok {
		return
	}
	if !a.authorize(w, claims, authorization.ActionDeleteUser, authorization.Target{UserID: id}, "Access denied") {
		return
	}

	if err := a.users.Delete(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "User deleted successfully")
}

func (a *api) handleListWorkers(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	if !a.authorize(w, claims, authorization.ActionListWorkers, authorization.Target{}, "Access denied") {
		return
	}

	workers, err := a.users.ListByRole(r.Context(), schema.RoleWorker)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	type workerEntry struct {
		UserID   int64  `json:"user_id"`
		Username string `json:"username"`
	}
	entries := make([]workerEntry, 0, len(workers))
	for _, worker := range workers {
		entries = append(entries, workerEntry{UserID: worker.ID, Username: worker.Username})
	}
	writeJSON(w, http.StatusOK, entries)
}
