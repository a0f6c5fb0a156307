// Package workflow implements the task lifecycle state machine, including
// the two-stage approval chain created by forwarding. Transition functions
// mutate the task in place and return the lifecycle event to emit; they
// perform no I/O, so callers own loading, authorization context, persistence
// and notification.
package workflow

import (
	"fmt"
	"time"

	"taskflow/services/tasks-service/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Actor is the resolved identity performing a transition. Role is resolved
// once at the orchestrator boundary; guard logic never re-resolves it.
type Actor struct {
	ID         primitive.ObjectID
	Email      string
	Name       string
	Role       *models.Role
	Department *primitive.ObjectID
}

// ChangeStatus moves the task to newStatus on behalf of the assignee.
//
// Completed is never reachable here: it is owned exclusively by the approval
// transition. Entering Waiting for Approval arms the approval chain; leaving
// it clears all approval bookkeeping.
func ChangeStatus(t *models.Task, actor Actor, newStatus models.TaskStatus, now time.Time) (Event, error) {
	if !newStatus.Valid() {
		return Event{}, fmt.Errorf("%w: invalid status value %q", models.ErrValidation, newStatus)
	}
	if newStatus == models.StatusCompleted {
		return Event{}, fmt.Errorf("%w: tasks are completed through approval, set status to %q instead",
			models.ErrInvalidStateTransition, models.StatusWaitingForApproval)
	}
	if actor.Email != t.AssignedToEmail {
		return Event{}, fmt.Errorf("%w: only the assigned user can update task status", models.ErrForbidden)
	}

	t.Status = newStatus
	t.ApprovalStatus = models.ApprovalPending
	t.ApprovedBy = nil
	t.ApprovedAt = nil

	ev := Event{Kind: EventStatusChanged, ActorName: actor.Name, Detail: string(newStatus)}
	if newStatus == models.StatusWaitingForApproval {
		if t.IsForwarded && !t.ForwarderApproved && t.ForwardedByEmail != "" {
			t.CurrentApprover = t.ForwardedByEmail
		} else {
			t.CurrentApprover = t.CreatedByEmail
		}
		ev.addRecipient(t.CurrentApprover)
	} else {
		t.CurrentApprover = ""
		t.ForwarderApproved = false
		ev.addRecipient(t.CreatedByEmail)
	}
	t.UpdatedAt = now
	return ev, nil
}

// Approve advances the approval chain one stage.
//
// On a forwarded task the forwarder signs off first; the task stays in
// Waiting for Approval and the original creator becomes the sole approver.
// Final approval is granted only by the current approver (the creator when
// none is recorded) and is the only path to Completed.
func Approve(t *models.Task, actor Actor, comments string, now time.Time) (Event, error) {
	if t.ApprovalStatus == models.ApprovalApproved {
		return Event{}, fmt.Errorf("%w: task already approved", models.ErrAlreadyInTargetState)
	}
	if t.Status != models.StatusWaitingForApproval {
		return Event{}, fmt.Errorf("%w: only tasks waiting for approval can be approved", models.ErrInvalidStateTransition)
	}

	// Intermediate stage: forwarder sign-off on a forwarded task.
	if t.IsForwarded && !t.ForwarderApproved {
		if actor.Email != t.ForwardedByEmail {
			return Event{}, fmt.Errorf("%w: approval is pending with the user who forwarded this task", models.ErrForbidden)
		}
		t.ForwarderApproved = true
		t.CurrentApprover = t.CreatedByEmail
		t.Comments = append(t.Comments, models.Comment{
			Text:          fmt.Sprintf("%s approved the forwarded work; awaiting final approval from the task creator", actor.Name),
			CreatedBy:     actor.ID,
			CreatedByName: actor.Name,
			UserRole:      roleLabel(actor),
			CreatedAt:     now,
		})
		t.UpdatedAt = now
		ev := Event{Kind: EventHandedToCreator, ActorName: actor.Name}
		ev.addRecipient(t.CreatedByEmail)
		ev.addRecipient(t.AssignedToEmail)
		return ev, nil
	}

	// Final stage. When a current approver is recorded they are the sole
	// authority; the creator-only check is a fallback for tasks that predate
	// the approval chain.
	approver := t.CurrentApprover
	if approver == "" {
		approver = t.CreatedByEmail
	}
	if actor.Email != approver {
		return Event{}, fmt.Errorf("%w: only the current approver can approve this task", models.ErrForbidden)
	}

	t.Status = models.StatusCompleted
	t.ApprovalStatus = models.ApprovalApproved
	approvedBy := actor.ID
	t.ApprovedBy = &approvedBy
	approvedAt := now
	t.ApprovedAt = &approvedAt
	if comments != "" {
		t.ApprovalComments = comments
	}
	t.CurrentApprover = ""
	t.UpdatedAt = now

	ev := Event{Kind: EventTaskApproved, ActorName: actor.Name}
	ev.addRecipient(t.AssignedToEmail)
	if t.ForwardedByEmail != "" && t.ForwardedByEmail != t.AssignedToEmail {
		ev.addRecipient(t.ForwardedByEmail)
	}
	return ev, nil
}

// Reject sends the task back to In Progress. The creator may always reject a
// task waiting for approval; the forwarder may reject only while their own
// sign-off is still pending.
func Reject(t *models.Task, actor Actor, reason string, now time.Time) (Event, error) {
	if t.Status != models.StatusWaitingForApproval {
		return Event{}, fmt.Errorf("%w: only tasks waiting for approval can be rejected", models.ErrInvalidStateTransition)
	}

	isCreator := actor.Email == t.CreatedByEmail
	isPendingForwarder := t.IsForwarded && !t.ForwarderApproved && actor.Email == t.ForwardedByEmail
	if !isCreator && !isPendingForwarder {
		return Event{}, fmt.Errorf("%w: only the task creator or pending forwarder can reject this task", models.ErrForbidden)
	}

	t.ApprovalStatus = models.ApprovalRejected
	t.Status = models.StatusInProgress
	t.CurrentApprover = ""
	if reason != "" {
		t.ApprovalComments = reason
	}
	t.UpdatedAt = now

	ev := Event{Kind: EventTaskRejected, ActorName: actor.Name, Detail: reason}
	ev.addRecipient(t.AssignedToEmail)
	if isCreator && t.IsForwarded && t.ForwardedByEmail != t.AssignedToEmail {
		ev.addRecipient(t.ForwardedByEmail)
	}
	return ev, nil
}

// Forward reassigns the task from the current assignee to newAssignee,
// creating the two-hop approval chain. The identity of the first forwarder
// is kept for the life of the approval cycle even if the task is forwarded
// again. Role manageability of newAssignee is the caller's guard; this
// function only enforces that the actor holds the task.
func Forward(t *models.Task, actor Actor, newAssignee *models.User, now time.Time) (Event, error) {
	if actor.Email != t.AssignedToEmail {
		return Event{}, fmt.Errorf("%w: only the current assignee can forward this task", models.ErrForbidden)
	}
	if newAssignee.Email == t.AssignedToEmail {
		return Event{}, fmt.Errorf("%w: task is already assigned to this user", models.ErrValidation)
	}

	if !t.IsForwarded {
		t.IsForwarded = true
		forwardedBy := actor.ID
		t.ForwardedBy = &forwardedBy
		t.ForwardedByEmail = actor.Email
		t.ForwardedByName = actor.Name
	}
	forwardedAt := now
	t.ForwardedAt = &forwardedAt
	t.ForwarderApproved = false

	t.AssignedTo = newAssignee.ID
	t.AssignedToName = newAssignee.Name
	t.AssignedToEmail = newAssignee.Email
	t.UpdatedAt = now

	ev := Event{Kind: EventTaskAssigned, ActorName: actor.Name}
	ev.addRecipient(newAssignee.Email)
	return ev, nil
}

// AddComment appends a comment. Comments never block on approval state.
func AddComment(t *models.Task, actor Actor, text string, now time.Time) error {
	t.Comments = append(t.Comments, models.Comment{
		Text:          text,
		CreatedBy:     actor.ID,
		CreatedByName: actor.Name,
		UserRole:      roleLabel(actor),
		CreatedAt:     now,
	})
	t.UpdatedAt = now
	return nil
}

func roleLabel(actor Actor) string {
	if actor.Role == nil {
		return "Staff"
	}
	if actor.Role.DisplayName != "" {
		return actor.Role.DisplayName
	}
	return actor.Role.Name
}
