package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskStatus string

const (
	StatusPending            TaskStatus = "Pending"
	StatusInProgress         TaskStatus = "In Progress"
	StatusWaitingForApproval TaskStatus = "Waiting for Approval"
	StatusCompleted          TaskStatus = "Completed"
)

// Valid reports whether s is one of the known lifecycle statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusWaitingForApproval, StatusCompleted:
		return true
	default:
		return false
	}
}

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "Pending"
	ApprovalApproved ApprovalStatus = "Approved"
	ApprovalRejected ApprovalStatus = "Rejected"
)

type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

// Comment is an append-only note on a task. Comments are never edited or
// removed.
type Comment struct {
	Text          string             `json:"text" bson:"text"`
	CreatedBy     primitive.ObjectID `json:"createdBy" bson:"createdBy"`
	CreatedByName string             `json:"createdByName" bson:"createdByName"`
	UserRole      string             `json:"userRole" bson:"userRole"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
}

// Task is a unit of work assigned between users. Creator identity is fixed
// at creation; the assignee changes only through forwarding. Emails are
// denormalized next to the user references so that guard checks and list
// filters work without joins.
type Task struct {
	ID  primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Sno int64              `json:"sno" bson:"sno"`

	Description     string             `json:"description" bson:"description"`
	CreatedBy       primitive.ObjectID `json:"createdBy" bson:"createdBy"`
	CreatedByEmail  string             `json:"createdByEmail" bson:"createdByEmail"`
	CreatedByName   string             `json:"createdByName" bson:"createdByName"`
	AssignedTo      primitive.ObjectID `json:"assignedTo" bson:"assignedTo"`
	AssignedToName  string             `json:"assignedToName" bson:"assignedToName"`
	AssignedToEmail string             `json:"assignedToEmail" bson:"assignedToEmail"`
	Priority        Priority           `json:"priority" bson:"priority"`
	DueDate         time.Time          `json:"dueDate" bson:"dueDate"`
	Notes           string             `json:"notes" bson:"notes"`
	IsSelfTask      bool               `json:"isSelfTask" bson:"isSelfTask"`

	// Optional identity of the person the work was requested on behalf of.
	// A free-text contact, distinct from creator and assignee; grants
	// comment access only.
	TaskGivenBy     string `json:"taskGivenBy,omitempty" bson:"taskGivenBy,omitempty"`
	TaskGivenByName string `json:"taskGivenByName,omitempty" bson:"taskGivenByName,omitempty"`

	Status           TaskStatus          `json:"status" bson:"status"`
	ApprovalStatus   ApprovalStatus      `json:"approvalStatus" bson:"approvalStatus"`
	ApprovedBy       *primitive.ObjectID `json:"approvedBy,omitempty" bson:"approvedBy,omitempty"`
	ApprovedAt       *time.Time          `json:"approvedAt,omitempty" bson:"approvedAt,omitempty"`
	ApprovalComments string              `json:"approvalComments" bson:"approvalComments"`

	IsForwarded       bool                `json:"isForwarded" bson:"isForwarded"`
	ForwardedBy       *primitive.ObjectID `json:"forwardedBy,omitempty" bson:"forwardedBy,omitempty"`
	ForwardedByEmail  string              `json:"forwardedByEmail,omitempty" bson:"forwardedByEmail,omitempty"`
	ForwardedByName   string              `json:"forwardedByName,omitempty" bson:"forwardedByName,omitempty"`
	ForwardedAt       *time.Time          `json:"forwardedAt,omitempty" bson:"forwardedAt,omitempty"`
	ForwarderApproved bool                `json:"forwarderApproved" bson:"forwarderApproved"`

	// Email of the single identity whose approval is pending. Empty when no
	// approval cycle is active.
	CurrentApprover string `json:"currentApprover,omitempty" bson:"currentApprover,omitempty"`

	Comments []Comment `json:"comments" bson:"comments"`

	// Version guards concurrent read-modify-write cycles on the same task.
	Version   int64     `json:"-" bson:"version"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// DurationType selects the unit of the due-date offset supplied at creation.
type DurationType string

const (
	DurationHours DurationType = "hours"
	DurationDays  DurationType = "days"
)

// DueDateFrom computes the due date as an offset from now. Anything other
// than hours is counted in days, matching how assignments have always been
// entered.
func DueDateFrom(now time.Time, durationType DurationType, value int) time.Time {
	if durationType == DurationHours {
		return now.Add(time.Duration(value) * time.Hour)
	}
	return now.Add(time.Duration(value) * 24 * time.Hour)
}

// CreateTaskInput carries the caller-supplied fields of a new task.
type CreateTaskInput struct {
	Description     string       `json:"description"`
	AssignedToEmail string       `json:"assignedToEmail"`
	Priority        Priority     `json:"priority"`
	DurationType    DurationType `json:"durationType"`
	DurationValue   int          `json:"durationValue"`
	Notes           string       `json:"notes"`
	IsSelfTask      bool         `json:"isSelfTask"`
	TaskGivenBy     string       `json:"taskGivenBy"`
	TaskGivenByName string       `json:"taskGivenByName"`
}

// Validate checks the required creation fields. The assignee is not required
// for self tasks.
func (in *CreateTaskInput) Validate() error {
	if strings.TrimSpace(in.Description) == "" {
		return fmt.Errorf("%w: task description is required", ErrValidation)
	}
	if !in.IsSelfTask && strings.TrimSpace(in.AssignedToEmail) == "" {
		return fmt.Errorf("%w: please select a user to assign the task to", ErrValidation)
	}
	if in.DurationValue <= 0 {
		return fmt.Errorf("%w: task duration is required", ErrValidation)
	}
	if in.Priority != "" && !in.Priority.Valid() {
		return fmt.Errorf("%w: invalid priority value", ErrValidation)
	}
	return nil
}
