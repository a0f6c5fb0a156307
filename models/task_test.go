package models

import (
	"errors"
	"testing"
	"time"
)

func TestCreateTaskInputValidate(t *testing.T) {
	valid := CreateTaskInput{
		Description:     "draft the proposal",
		AssignedToEmail: "someone@corp.test",
		DurationType:    DurationDays,
		DurationValue:   3,
	}

	tests := []struct {
		name   string
		mutate func(*CreateTaskInput)
		wantOK bool
	}{
		{"valid input", func(in *CreateTaskInput) {}, true},
		{"blank description", func(in *CreateTaskInput) { in.Description = " " }, false},
		{"missing assignee", func(in *CreateTaskInput) { in.AssignedToEmail = "" }, false},
		{"self task needs no assignee", func(in *CreateTaskInput) {
			in.AssignedToEmail = ""
			in.IsSelfTask = true
		}, true},
		{"zero duration", func(in *CreateTaskInput) { in.DurationValue = 0 }, false},
		{"negative duration", func(in *CreateTaskInput) { in.DurationValue = -1 }, false},
		{"bad priority", func(in *CreateTaskInput) { in.Priority = Priority("Urgent") }, false},
		{"empty priority defaults later", func(in *CreateTaskInput) { in.Priority = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			err := in.Validate()
			if tt.wantOK && err != nil {
				t.Errorf("Validate() error = %v, want nil", err)
			}
			if !tt.wantOK && !errors.Is(err, ErrValidation) {
				t.Errorf("Validate() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestDueDateFrom(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	if got := DueDateFrom(now, DurationHours, 6); !got.Equal(now.Add(6 * time.Hour)) {
		t.Errorf("hours: got %v", got)
	}
	if got := DueDateFrom(now, DurationDays, 2); !got.Equal(now.Add(48 * time.Hour)) {
		t.Errorf("days: got %v", got)
	}
	// Unknown units have always been counted as days.
	if got := DueDateFrom(now, DurationType("weeks"), 1); !got.Equal(now.Add(24 * time.Hour)) {
		t.Errorf("fallback: got %v", got)
	}
}

func TestTaskStatusValid(t *testing.T) {
	for _, s := range []TaskStatus{StatusPending, StatusInProgress, StatusWaitingForApproval, StatusCompleted} {
		if !s.Valid() {
			t.Errorf("%q must be valid", s)
		}
	}
	if TaskStatus("Done").Valid() {
		t.Error("unknown status must be invalid")
	}
}
