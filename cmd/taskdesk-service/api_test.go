// Copyright 2026 The Taskdesk Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/taskdesk/taskdesk/lib/clock"
	"github.com/taskdesk/taskdesk/lib/identity"
	"github.com/taskdesk/taskdesk/lib/lifecycle"
	"github.com/taskdesk/taskdesk/lib/sessiontoken"
	"github.com/taskdesk/taskdesk/lib/sqlitepool"
	"github.com/taskdesk/taskdesk/lib/taskstore"
)

type testEnv struct {
	t      *testing.T
	server *httptest.Server
	clk    *clock.FakeClock
	tasks  *taskstore.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     filepath.Join(t.TempDir(), "taskdesk.db"),
		PoolSize: 2,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, identity.Schema+taskstore.Schema, nil)
		},
	})
	if err != nil {
		t.Fatalf("opening pool: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	public, private, err := sessiontoken.GenerateKeypair()
	if err != nil {
		t.Fatalf("generating keypair: %v", err)
	}

	clk := clock.Fake(time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC))
	tasks := taskstore.NewStore(pool)
	handler := &api{
		users:     identity.NewStore(pool),
		tasks:     tasks,
		issuer:    sessiontoken.NewIssuer(private, clk, sessiontoken.DefaultLifetime),
		publicKey: public,
		clock:     clk,
		logger:    slog.New(slog.DiscardHandler),
	}

	server := httptest.NewServer(handler.routes())
	t.Cleanup(server.Close)

	return &testEnv{t: t, server: server, clk: clk, tasks: tasks}
}

// do issues a request and decodes the JSON response body into a map.
func (e *testEnv) do(method, path, token string, body any) (int, map[string]any) {
	e.t.Helper()
	status, raw := e.doRaw(method, path, token, body)
	if len(raw) == 0 {
		return status, nil
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		e.t.Fatalf("%s %s: decoding response %q: %v", method, path, raw, err)
	}
	return status, decoded
}

// doList is do for endpoints whose response body is a JSON array.
func (e *testEnv) doList(method, path, token string) (int, []map[string]any) {
	e.t.Helper()
	status, raw := e.doRaw(method, path, token, nil)
	var decoded []map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		e.t.Fatalf("%s %s: decoding response %q: %v", method, path, raw, err)
	}
	return status, decoded
}

func (e *testEnv) doRaw(method, path, token string, body any) (int, []byte) {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			e.t.Fatalf("encoding request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		e.t.Fatalf("building request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.server.Client().Do(req)
	if err != nil {
		e.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		e.t.Fatalf("reading response body: %v", err)
	}
	return resp.StatusCode, raw
}

// register creates a user and returns a fresh login token.
func (e *testEnv) register(username, password, role string) string {
	e.t.Helper()
	status, body := e.do("POST", "/register", "", map[string]string{
		"username": username, "password": password, "role": role,
	})
	if status != http.StatusCreated {
		e.t.Fatalf("registering %s: status %d body %v", username, status, body)
	}
	return e.login(username, password)
}

func (e *testEnv) login(username, password string) string {
	e.t.Helper()
	status, body := e.do("POST", "/login", "", map[string]string{
		"username": username, "password": password,
	})
	if status != http.StatusOK {
		e.t.Fatalf("logging in %s: status %d body %v", username, status, body)
	}
	token, ok := body["access_token"].(string)
	if !ok || token == "" {
		e.t.Fatalf("login response missing access_token: %v", body)
	}
	return token
}

// userID extracts the numeric subject from a worker listing.
func (e *testEnv) workerID(managerToken, username string) int64 {
	e.t.Helper()
	status, workers := e.doList("GET", "/users/worker", managerToken)
	if status != http.StatusOK {
		e.t.Fatalf("listing workers: status %d", status)
	}
	for _, w := range workers {
		if w["username"] == username {
			return int64(w["user_id"].(float64))
		}
	}
	e.t.Fatalf("worker %s not in listing %v", username, workers)
	return 0
}

func TestRegisterValidationAndDuplicates(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do("POST", "/register", "", map[string]string{"username": "m"})
	if status != http.StatusBadRequest {
		t.Errorf("missing password: status %d, want 400", status)
	}

	status, _ = env.do("POST", "/register", "", map[string]string{
		"username": "m", "password": "pw", "role": "admin",
	})
	if status != http.StatusBadRequest {
		t.Errorf("unknown role: status %d, want 400", status)
	}

	env.register("m", "pw", "manager")
	status, body := env.do("POST", "/register", "", map[string]string{
		"username": "m", "password": "other",
	})
	if status != http.StatusBadRequest {
		t.Errorf("duplicate username: status %d, want 400", status)
	}
	if body["msg"] != "Username already exists" {
		t.Errorf("duplicate username msg = %v", body["msg"])
	}
}

func TestLoginFailures(t *testing.T) {
	env := newTestEnv(t)
	env.register("m", "pw", "manager")

	status, body := env.do("POST", "/login", "", map[string]string{
		"username": "m", "password": "wrong",
	})
	if status != http.StatusUnauthorized {
		t.Errorf("bad password: status %d, want 401", status)
	}
	if body["msg"] != "Bad username or password" {
		t.Errorf("bad password msg = %v", body["msg"])
	}

	status, _ = env.do("POST", "/login", "", map[string]string{"username": "m"})
	if status != http.StatusBadRequest {
		t.Errorf("missing password: status %d, want 400", status)
	}
}

func TestTokenExpiry(t *testing.T) {
	env := newTestEnv(t)
	token := env.register("m", "pw", "manager")

	status, _ := env.doList("GET", "/tasks", token)
	if status != http.StatusOK {
		t.Fatalf("fresh token: status %d, want 200", status)
	}

	// Tokens are valid for 20 minutes; one second past that is out.
	env.clk.Advance(20*time.Minute + time.Second)
	status, body := env.do("GET", "/tasks", token, nil)
	if status != http.StatusUnauthorized {
		t.Errorf("expired token: status %d, want 401", status)
	}
	if body["msg"] != "Invalid or expired token" {
		t.Errorf("expired token msg = %v", body["msg"])
	}
}

func TestMissingAndMalformedTokens(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do("GET", "/tasks", "", nil)
	if status != http.StatusUnauthorized {
		t.Errorf("missing token: status %d, want 401", status)
	}
	status, _ = env.do("GET", "/tasks", "not-a-token", nil)
	if status != http.StatusUnauthorized {
		t.Errorf("garbage token: status %d, want 401", status)
	}
}

func TestTaskEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	manager := env.register("boss", "pw1", "manager")
	worker := env.register("crew", "pw2", "worker")
	crewID := env.workerID(manager, "crew")

	status, created := env.do("POST", "/tasks", manager, map[string]any{
		"title":       "T",
		"description": "restock",
		"due_date":    "2099-01-01",
		"assigned_to": crewID,
	})
	if status != http.StatusCreated {
		t.Fatalf("create: status %d body %v", status, created)
	}
	taskID := int64(created["id"].(float64))
	if created["status"] != "pending" || created["priority"] != float64(1) {
		t.Errorf("created task defaults wrong: %v", created)
	}

	// The worker sees exactly the task assigned to it.
	status, mine := env.doList("GET", "/tasks", worker)
	if status != http.StatusOK || len(mine) != 1 || mine[0]["title"] != "T" {
		t.Fatalf("worker task list: status %d body %v", status, mine)
	}

	// Complete, then confirm the stored status.
	status, body := env.do("PUT", taskPath(taskID)+"/complete", manager, nil)
	if status != http.StatusOK || body["msg"] != "Task marked as completed" {
		t.Fatalf("complete: status %d body %v", status, body)
	}
	status, got := env.do("GET", taskPath(taskID), worker, nil)
	if status != http.StatusOK || got["status"] != "completed" {
		t.Fatalf("get after complete: status %d body %v", status, got)
	}

	// Completing again is a no-op, not an error.
	status, _ = env.do("PUT", taskPath(taskID)+"/complete", manager, nil)
	if status != http.StatusOK {
		t.Errorf("repeat complete: status %d, want 200", status)
	}
}

func TestTaskUpdateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	manager := env.register("boss", "pw", "manager")
	crewID := func() int64 {
		env.register("crew", "pw", "worker")
		return env.workerID(manager, "crew")
	}()

	_, created := env.do("POST", "/tasks", manager, map[string]any{
		"title": "before", "due_date": "2099-01-01", "assigned_to": crewID,
	})
	taskID := int64(created["id"].(float64))

	status, updated := env.do("PUT", taskPath(taskID), manager, map[string]any{
		"title":       "after",
		"description": "new words",
		"status":      "in_progress",
	})
	if status != http.StatusOK {
		t.Fatalf("update: status %d body %v", status, updated)
	}
	if updated["title"] != "after" || updated["description"] != "new words" || updated["status"] != "in_progress" {
		t.Errorf("update result %v", updated)
	}

	status, got := env.do("GET", taskPath(taskID), manager, nil)
	if status != http.StatusOK || got["title"] != "after" {
		t.Fatalf("get after update: status %d body %v", status, got)
	}

	status, _ = env.do("DELETE", taskPath(taskID), manager, nil)
	if status != http.StatusOK {
		t.Fatalf("delete: status %d", status)
	}
	status, _ = env.do("GET", taskPath(taskID), manager, nil)
	if status != http.StatusNotFound {
		t.Errorf("get after delete: status %d, want 404", status)
	}
}

func TestManagerOnlyEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.register("boss", "pw", "manager")
	worker := env.register("crew", "pw", "worker")

	status, body := env.do("POST", "/tasks", worker, map[string]any{
		"title": "nope", "due_date": "2099-01-01", "assigned_to": 1,
	})
	if status != http.StatusForbidden {
		t.Errorf("worker create: status %d, want 403", status)
	}
	if body["msg"] != "Only managers can create tasks" {
		t.Errorf("worker create msg = %v", body["msg"])
	}

	for _, tc := range []struct {
		method, path string
	}{
		{"GET", "/tasks/all"},
		{"GET", "/users/worker"},
		{"PUT", "/tasks/1/complete"},
		{"DELETE", "/tasks/1"},
	} {
		status, _ := env.do(tc.method, tc.path, worker, nil)
		if status != http.StatusForbidden {
			t.Errorf("worker %s %s: status %d, want 403", tc.method, tc.path, status)
		}
	}
}

func TestTaskNotFound(t *testing.T) {
	env := newTestEnv(t)
	manager := env.register("boss", "pw", "manager")

	for _, tc := range []struct {
		method, path string
	}{
		{"GET", "/tasks/9999"},
		{"PUT", "/tasks/9999"},
		{"DELETE", "/tasks/9999"},
		{"PUT", "/tasks/9999/complete"},
		{"GET", "/tasks/bogus"},
	} {
		var body any
		if tc.method == "PUT" {
			body = map[string]any{}
		}
		status, _ := env.do(tc.method, tc.path, manager, body)
		if status != http.StatusNotFound {
			t.Errorf("%s %s: status %d, want 404", tc.method, tc.path, status)
		}
	}
}

func TestUserSelfServiceRules(t *testing.T) {
	env := newTestEnv(t)
	manager := env.register("boss", "pw", "manager")
	worker := env.register("crew", "pw", "worker")
	other := env.register("crew2", "pw", "worker")
	crewID := env.workerID(manager, "crew")

	// Any authenticated user may view any user record.
	status, got := env.do("GET", userPath(crewID), other, nil)
	if status != http.StatusOK || got["username"] != "crew" || got["role"] != "worker" {
		t.Fatalf("view user: status %d body %v", status, got)
	}

	// A worker may change only its own password.
	status, _ = env.do("PUT", userPath(crewID), other, map[string]string{"password": "hax"})
	if status != http.StatusForbidden {
		t.Errorf("other worker password change: status %d, want 403", status)
	}
	status, _ = env.do("PUT", userPath(crewID), worker, map[string]string{"password": "new"})
	if status != http.StatusOK {
		t.Errorf("own password change: status %d, want 200", status)
	}
	env.login("crew", "new")

	// A worker may not delete someone else; a manager may.
	status, _ = env.do("DELETE", userPath(crewID), other, nil)
	if status != http.StatusForbidden {
		t.Errorf("worker deleting other: status %d, want 403", status)
	}
	status, _ = env.do("DELETE", userPath(crewID), manager, nil)
	if status != http.StatusOK {
		t.Errorf("manager delete: status %d, want 200", status)
	}
	status, _ = env.do("GET", userPath(crewID), manager, nil)
	if status != http.StatusNotFound {
		t.Errorf("get after delete: status %d, want 404", status)
	}
}

func TestUpdateUserWithoutPassword(t *testing.T) {
	env := newTestEnv(t)
	manager := env.register("boss", "pw", "manager")
	env.register("crew", "pw", "worker")
	crewID := env.workerID(manager, "crew")

	// The password field is optional: an empty update succeeds and
	// leaves the credential unchanged.
	status, body := env.do("PUT", userPath(crewID), manager, map[string]any{})
	if status != http.StatusOK {
		t.Fatalf("empty update: status %d body %v", status, body)
	}
	if body["msg"] != "User updated successfully" {
		t.Errorf("empty update msg = %v", body["msg"])
	}
	env.login("crew", "pw")

	status, _ = env.do("PUT", userPath(9999), manager, map[string]any{})
	if status != http.StatusNotFound {
		t.Errorf("empty update of missing user: status %d, want 404", status)
	}
}

func TestCreateTaskKeepsExplicitZeroPriority(t *testing.T) {
	env := newTestEnv(t)
	manager := env.register("boss", "pw", "manager")
	env.register("crew", "pw", "worker")
	crewID := env.workerID(manager, "crew")

	status, created := env.do("POST", "/tasks", manager, map[string]any{
		"title": "urgent", "due_date": "2099-01-01", "assigned_to": crewID,
		"priority": 0,
	})
	if status != http.StatusCreated {
		t.Fatalf("create: status %d body %v", status, created)
	}
	if created["priority"] != float64(0) {
		t.Errorf("priority = %v, want 0", created["priority"])
	}
}

func TestUserDeleteRefusedWhileReferenced(t *testing.T) {
	env := newTestEnv(t)
	manager := env.register("boss", "pw", "manager")
	env.register("crew", "pw", "worker")
	crewID := env.workerID(manager, "crew")

	_, created := env.do("POST", "/tasks", manager, map[string]any{
		"title": "T", "due_date": "2099-01-01", "assigned_to": crewID,
	})
	taskID := int64(created["id"].(float64))

	status, _ := env.do("DELETE", userPath(crewID), manager, nil)
	if status != http.StatusConflict {
		t.Errorf("delete referenced user: status %d, want 409", status)
	}

	// Once the task is gone the deletion goes through.
	env.do("DELETE", taskPath(taskID), manager, nil)
	status, _ = env.do("DELETE", userPath(crewID), manager, nil)
	if status != http.StatusOK {
		t.Errorf("delete after task removal: status %d, want 200", status)
	}
}

func TestSweepFailsOverdueTasks(t *testing.T) {
	env := newTestEnv(t)
	manager := env.register("boss", "pw", "manager")
	env.register("crew", "pw", "worker")
	crewID := env.workerID(manager, "crew")

	_, overdue := env.do("POST", "/tasks", manager, map[string]any{
		"title": "late", "due_date": "2026-08-30", "assigned_to": crewID,
	})
	_, fresh := env.do("POST", "/tasks", manager, map[string]any{
		"title": "fine", "due_date": "2099-01-01", "assigned_to": crewID,
	})

	sweeper := lifecycle.NewSweeper(lifecycle.SweeperConfig{
		Store:    env.tasks,
		Interval: 24 * time.Hour,
		Clock:    env.clk,
	})
	sweeper.Sweep(context.Background())

	status, got := env.do("GET", taskPath(int64(overdue["id"].(float64))), manager, nil)
	if status != http.StatusOK || got["status"] != "failed" {
		t.Fatalf("overdue task: status %d body %v", status, got)
	}
	status, got = env.do("GET", taskPath(int64(fresh["id"].(float64))), manager, nil)
	if status != http.StatusOK || got["status"] != "pending" {
		t.Fatalf("fresh task: status %d body %v", status, got)
	}

	// A failed task refuses completion.
	status, _ = env.do("PUT", taskPath(int64(overdue["id"].(float64)))+"/complete", manager, nil)
	if status != http.StatusConflict {
		t.Errorf("completing failed task: status %d, want 409", status)
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	status, body := env.do("GET", "/healthz", "", nil)
	if status != http.StatusOK || body["status"] != "ok" {
		t.Errorf("healthz: status %d body %v", status, body)
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)
	req, err := http.NewRequest(http.MethodOptions, env.server.URL+"/tasks", nil)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	resp, err := env.server.Client().Do(req)
	if err != nil {
		t.Fatalf("OPTIONS /tasks: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("preflight status %d, want 204", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("preflight missing Access-Control-Allow-Origin")
	}
}

func taskPath(id int64) string {
	return "/tasks/" + strconv.FormatInt(id, 10)
}

func userPath(id int64) string {
	return "/users/" + strconv.FormatInt(id, 10)
}
