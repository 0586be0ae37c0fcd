// Copyright 2026 The Taskdesk Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		input   string
		want    Role
		wantErr bool
	}{
		{"manager", RoleManager, false},
		{"worker", RoleWorker, false},
		{"", RoleWorker, false},
		{"admin", "", true},
		{"Manager", "", true},
	}
	for _, test := range tests {
		got, err := ParseRole(test.input)
		if test.wantErr {
			if err == nil {
				t.Errorf("ParseRole(%q): expected error, got %q", test.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRole(%q): %v", test.input, err)
			continue
		}
		if got != test.want {
			t.Errorf("ParseRole(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		input   string
		want    Status
		wantErr bool
	}{
		{"pending", StatusPending, false},
		{"in_progress", StatusInProgress, false},
		{"completed", StatusCompleted, false},
		{"failed", StatusFailed, false},
		{"", StatusPending, false},
		{"done", "", true},
		{"PENDING", "", true},
	}
	for _, test := range tests {
		got, err := ParseStatus(test.input)
		if test.wantErr {
			if err == nil {
				t.Errorf("ParseStatus(%q): expected error, got %q", test.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseStatus(%q): %v", test.input, err)
			continue
		}
		if got != test.want {
			t.Errorf("ParseStatus(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	if StatusPending.Terminal() || StatusInProgress.Terminal() {
		t.Error("pending and in_progress must not be terminal")
	}
	if !StatusCompleted.Terminal() || !StatusFailed.Terminal() {
		t.Error("completed and failed must be terminal")
	}
}

func TestDateRoundTrip(t *testing.T) {
	date, err := ParseDate("2099-01-01")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if date.String() != "2099-01-01" {
		t.Errorf("String() = %q, want 2099-01-01", date.String())
	}

	encoded, err := json.Marshal(date)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(encoded) != `"2099-01-01"` {
		t.Errorf("Marshal = %s, want \"2099-01-01\"", encoded)
	}

	var decoded Date
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded != date {
		t.Errorf("round trip: got %v, want %v", decoded, date)
	}
}

func TestDateInvalid(t *testing.T) {
	for _, input := range []string{"2024-13-01", "01-01-2024", "2024/01/01", "yesterday", ""} {
		if _, err := ParseDate(input); err == nil {
			t.Errorf("ParseDate(%q): expected error", input)
		}
	}
	var d Date
	if err := json.Unmarshal([]byte(`20240101`), &d); err == nil {
		t.Error("Unmarshal of a non-string date: expected error")
	}
}

func TestDateOfTruncates(t *testing.T) {
	instant := time.Date(2026, 8, 31, 17, 45, 12, 0, time.UTC)
	date := DateOf(instant)
	if date.String() != "2026-08-31" {
		t.Errorf("DateOf = %q, want 2026-08-31", date.String())
	}

	midnight, _ := ParseDate("2026-08-31")
	if date.Before(midnight) || midnight.Before(date) {
		t.Error("DateOf must truncate to midnight UTC")
	}
}
