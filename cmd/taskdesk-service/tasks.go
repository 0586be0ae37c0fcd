// Copyright 2026 The Taskdesk Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"net/http"

	"github.com/taskdesk/taskdesk/lib/authorization"
	"github.com/taskdesk/taskdesk/lib/schema"
	"github.com/taskdesk/taskdesk/lib/taskstore"
)

func (a *api) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	if !a.authorize(w, claims, authorization.ActionCreateTask, authorization.Target{}, "Only managers can create tasks") {
		return
	}

	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		DueDate     string `json:"due_date"`
		Priority    *int   `json:"priority"`
		Status      string `json:"status"`
		AssignedTo  int64  `json:"assigned_to"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	// An omitted due date defaults to today.
	due := schema.DateOf(a.clock.Now())
	if req.DueDate != "" {
		parsed, err := schema.ParseDate(req.DueDate)
		if err != nil {
			writeErrorMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		due = parsed
	}

	status, err := schema.ParseStatus(req.Status)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	task, err := a.tasks.Create(r.Context(), taskstore.NewTask{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     due,
		Priority:    req.Priority,
		Status:      status,
		AssignedTo:  req.AssignedTo,
		CreatedBy:   claims.Subject,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (a *api) handleListOwnTasks(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	if !a.authorize(w, claims, authorization.ActionListOwnTasks, authorization.Target{}, "Access denied") {
		return
	}

	tasks, err := a.tasks.ListByAssignee(r.Context(), claims.Subject)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []schema.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (a *api) handleListAllTasks(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	if !a.authorize(w, claims, authorization.ActionListAllTasks, authorization.Target{}, "Access denied") {
		return
	}

	tasks, err := a.tasks.ListAll(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []schema.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (a *api) handleGetTask(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	id, ok := pathID(w, r, "Task not found")
	if !ok {
		return
	}
	if !a.authorize(w, claims, authorization.ActionViewTask, authorization.Target{}, "Access denied") {
		return
	}

	task, err := a.tasks.Get(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (a *api) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	id, ok := pathID(w, r, "Task not found")
	if !ok {
		return
	}
	if !a.authorize(w, claims, authorization.ActionEditTask, authorization.Target{}, "Access denied") {
		return
	}

	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		DueDate     *string `json:"due_date"`
		Priority    *int    `json:"priority"`
		Status      *string `json:"status"`
		AssignedTo  *int64  `json:"assigned_to"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	patch := taskstore.Patch{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		AssignedTo:  req.AssignedTo,
	}
	if req.DueDate != nil {
		due, err := schema.ParseDate(*req.DueDate)
		if err != nil {
			writeErrorMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		patch.DueDate = &due
	}
	if req.Status != nil {
		status, err := schema.ParseStatus(*req.Status)
		if err != nil {
			writeErrorMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		patch.Status = &status
	}

	task, err := a.tasks.Update(r.Context(), id, patch)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (a *api) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	id, ok := pathID(w, r, "Task not found")
	if !ok {
		return
	}
	if !a.authorize(w, claims, authorization.ActionDeleteTask, authorization.Target{}, "Access denied") {
		return
	}

	if err := a.tasks.Delete(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Task deleted successfully")
}

func (a *api) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	id, ok := pathID(w, r, "Task not found")
	if !ok {
		return
	}
	if !a.authorize(w, claims, authorization.ActionCompleteTask, authorization.Target{}, "Access denied") {
		return
	}

	if _, err := a.tasks.MarkCompleted(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Task marked as completed")
}
