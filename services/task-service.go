package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskflow/services/tasks-service/auth"
	"taskflow/services/tasks-service/logging"
	"taskflow/services/tasks-service/models"
	"taskflow/services/tasks-service/workflow"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Retries for the read-guard-write cycle when a concurrent writer bumps the
// task version. The guards re-run against fresh state on every attempt, so a
// racing approval surfaces as ErrAlreadyInTargetState rather than a second
// success.
const maxWriteRetries = 3

// TaskService orchestrates task transitions: it resolves the actor once,
// applies the authorization guards and the lifecycle state machine, persists
// the result atomically and emits lifecycle events on a best-effort basis.
type TaskService struct {
	tasks    TaskStore
	roles    RoleStore
	users    UserStore
	notifier Notifier
}

func NewTaskService(tasks TaskStore, roles RoleStore, users UserStore, notifier Notifier) *TaskService {
	return &TaskService{
		tasks:    tasks,
		roles:    roles,
		users:    users,
		notifier: notifier,
	}
}

// resolveActor loads the acting user and their role. A role reference that
// no longer resolves degrades to the lowest-privilege role instead of
// failing the request.
func (s *TaskService) resolveActor(ctx context.Context, email string) (workflow.Actor, *models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return workflow.Actor{}, nil, fmt.Errorf("%w: user %s", models.ErrNotFound, email)
	}
	role := s.roleOrFallback(ctx, user.RoleID)
	actor := workflow.Actor{
		ID:         user.ID,
		Email:      user.Email,
		Name:       user.Name,
		Role:       role,
		Department: user.Department,
	}
	return actor, user, nil
}

func (s *TaskService) roleOrFallback(ctx context.Context, roleID primitive.ObjectID) *models.Role {
	if roleID.IsZero() {
		return auth.LowestPrivilege()
	}
	role, err := s.roles.FindByID(ctx, roleID)
	if err != nil || role == nil {
		logging.Logger.Warnf("Event ID: ROLE_RESOLVE_FALLBACK, Description: Role %s could not be resolved, treating actor as lowest privilege: %v", roleID.Hex(), err)
		return auth.LowestPrivilege()
	}
	return role
}

// CreateTask validates the input, checks that the actor's role may assign to
// the target's role, allocates the next sequence number and stores the task.
// Sequence numbers are allocated only after every guard has passed, so a
// rejected creation never consumes one.
func (s *TaskService) CreateTask(ctx context.Context, actorEmail string, in models.CreateTaskInput) (*models.Task, error) {
	actor, actorUser, err := s.resolveActor(ctx, actorEmail)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if !auth.CanPerform(actor.Role, models.PermCreateTasks) {
		return nil, fmt.Errorf("%w: your role cannot create tasks", models.ErrForbidden)
	}

	var assignee *models.User
	if in.IsSelfTask || strings.EqualFold(in.AssignedToEmail, actor.Email) {
		assignee = actorUser
	} else {
		assignee, err = s.users.FindByEmail(ctx, in.AssignedToEmail)
		if err != nil {
			return nil, fmt.Errorf("%w: assigned user not found", models.ErrNotFound)
		}
	}

	assigneeRole := s.roleOrFallback(ctx, assignee.RoleID)
	if assignee.Email != actor.Email && !auth.CanAssignRole(actor.Role, assigneeRole) {
		return nil, fmt.Errorf("%w: you cannot assign tasks to the %s role", models.ErrForbidden, assigneeRole.DisplayName)
	}

	now := time.Now()
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	sno, err := s.tasks.NextSno(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate task number: %w", err)
	}

	task := &models.Task{
		Sno:             sno,
		Description:     strings.TrimSpace(in.Description),
		CreatedBy:       actor.ID,
		CreatedByEmail:  actor.Email,
		CreatedByName:   actor.Name,
		AssignedTo:      assignee.ID,
		AssignedToName:  assignee.Name,
		AssignedToEmail: assignee.Email,
		Priority:        priority,
		DueDate:         models.DueDateFrom(now, in.DurationType, in.DurationValue),
		Notes:           in.Notes,
		IsSelfTask:      assignee.Email == actor.Email,
		TaskGivenBy:     in.TaskGivenBy,
		TaskGivenByName: in.TaskGivenByName,
		Status:          models.StatusPending,
		ApprovalStatus:  models.ApprovalPending,
		Comments:        []models.Comment{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.tasks.Insert(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	ev := workflow.Event{Kind: workflow.EventTaskAssigned, ActorName: actor.Name}
	ev.Recipients = append(ev.Recipients, assignee.Email)
	s.addEscalationRecipients(ctx, &ev, actor, actorUser, assignee, assigneeRole)
	s.emit(ev, task)

	return task, nil
}

// Seniority level of director-class roles; assignments from this level down
// to staff also notify the staff member's department head.
const directorLevel = 4

// addEscalationRecipients applies the extra assignment-notification rules:
// a director-class creator assigning down to staff also notifies the
// assignee's department head, and a staff-level creator assigning across
// departments notifies their own.
func (s *TaskService) addEscalationRecipients(ctx context.Context, ev *workflow.Event, actor workflow.Actor, actorUser, assignee *models.User, assigneeRole *models.Role) {
	if assignee.Email == actor.Email {
		return
	}
	if actor.Role.Permissions.ViewAllTasks && actor.Role.Level >= directorLevel && assigneeRole.Level <= 1 && assignee.Department != nil {
		if head, err := s.users.DepartmentHead(ctx, *assignee.Department); err == nil && head != nil && head.Email != assignee.Email {
			ev.Recipients = append(ev.Recipients, head.Email)
		}
	}
	if actor.Role.Level <= 1 && actorUser.Department != nil {
		crossDepartment := assignee.Department == nil || *assignee.Department != *actorUser.Department
		if crossDepartment {
			if head, err := s.users.DepartmentHead(ctx, *actorUser.Department); err == nil && head != nil && head.Email != actor.Email {
				ev.Recipients = append(ev.Recipients, head.Email)
			}
		}
	}
}

// TaskView selects which slice of tasks a listing returns.
type TaskView string

const (
	ViewAssigned TaskView = "assigned" // assigned to me by others
	ViewCreated  TaskView = "created"  // created by me for others
	ViewSelf     TaskView = "self"     // my self tasks
	ViewAll      TaskView = "all"      // everything my visibility scope allows
)

// ListTasks returns the tasks the actor may see for the requested view. The
// result is a fresh query each call.
func (s *TaskService) ListTasks(ctx context.Context, actorEmail string, view TaskView) ([]*models.Task, error) {
	actor, actorUser, err := s.resolveActor(ctx, actorEmail)
	if err != nil {
		return nil, err
	}

	var q TaskQuery
	switch view {
	case ViewAssigned:
		q = TaskQuery{AssignedToEmail: actor.Email, NotCreatedByEmail: actor.Email}
	case ViewCreated:
		q = TaskQuery{CreatedByEmail: actor.Email, NotAssignedToEmail: actor.Email}
	case ViewSelf:
		q = TaskQuery{CreatedByEmail: actor.Email, AssignedToEmail: actor.Email, SelfTasksOnly: true}
	case ViewAll:
		scope := auth.TaskVisibility(actorUser, actor.Role)
		q = TaskQuery{Scope: &scope}
	default:
		return nil, fmt.Errorf("%w: unknown task view %q", models.ErrValidation, view)
	}

	return s.tasks.List(ctx, q)
}

// ListPendingApprovals returns tasks whose approval currently waits on the
// actor, including tasks with no recorded approver that the actor created.
func (s *TaskService) ListPendingApprovals(ctx context.Context, actorEmail string) ([]*models.Task, error) {
	actor, _, err := s.resolveActor(ctx, actorEmail)
	if err != nil {
		return nil, err
	}
	return s.tasks.List(ctx, TaskQuery{PendingApproverEmail: actor.Email})
}

// GetTask fetches a single task, hidden behind the actor's visibility scope.
func (s *TaskService) GetTask(ctx context.Context, actorEmail string, id primitive.ObjectID) (*models.Task, error) {
	actor, actorUser, err := s.resolveActor(ctx, actorEmail)
	if err != nil {
		return nil, err
	}
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	scope := auth.TaskVisibility(actorUser, actor.Role)
	deptEmails, err := s.scopeDepartmentEmails(ctx, scope)
	if err != nil {
		return nil, err
	}
	if !scope.Matches(task, deptEmails) && task.TaskGivenBy != actor.Email {
		return nil, fmt.Errorf("%w: task", models.ErrNotFound)
	}
	return task, nil
}

func (s *TaskService) scopeDepartmentEmails(ctx context.Context, scope auth.Scope) (map[string]bool, error) {
	if scope.Tier != auth.TierDepartment || scope.Department == nil {
		return nil, nil
	}
	emails, err := s.users.DepartmentEmails(ctx, *scope.Department)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve department members: %w", err)
	}
	set := make(map[string]bool, len(emails))
	for _, e := range emails {
		set[e] = true
	}
	return set, nil
}

// UpdateStatus moves a task between Pending, In Progress and Waiting for
// Approval on behalf of its assignee.
func (s *TaskService) UpdateStatus(ctx context.Context, actorEmail string, id primitive.ObjectID, newStatus models.TaskStatus) (*models.Task, error) {
	actor, _, err := s.resolveActor(ctx, actorEmail)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, id, func(t *models.Task) (workflow.Event, error) {
		return workflow.ChangeStatus(t, actor, newStatus, time.Now())
	})
}

// Approve advances the approval chain: forwarder sign-off on forwarded
// tasks, then final approval by the current approver.
func (s *TaskService) Approve(ctx context.Context, actorEmail string, id primitive.ObjectID, comments string) (*models.Task, error) {
	actor, _, err := s.resolveActor(ctx, actorEmail)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, id, func(t *models.Task) (workflow.Event, error) {
		return workflow.Approve(t, actor, comments, time.Now())
	})
}

// Reject returns a task waiting for approval to In Progress.
func (s *TaskService) Reject(ctx context.Context, actorEmail string, id primitive.ObjectID, reason string) (*models.Task, error) {
	actor, _, err := s.resolveActor(ctx, actorEmail)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, id, func(t *models.Task) (workflow.Event, error) {
		return workflow.Reject(t, actor, reason, time.Now())
	})
}

// Forward reassigns the task to another user. The actor must be the current
// assignee with edit rights, and the new assignee's role must be within the
// actor's managed set.
func (s *TaskService) Forward(ctx context.Context, actorEmail string, id primitive.ObjectID, newAssigneeEmail string) (*models.Task, error) {
	actor, _, err := s.resolveActor(ctx, actorEmail)
	if err != nil {
		return nil, err
	}
	if !auth.CanPerform(actor.Role, models.PermEditOwnTasks) && !auth.CanPerform(actor.Role, models.PermEditAllTasks) {
		return nil, fmt.Errorf("%w: your role cannot reassign tasks", models.ErrForbidden)
	}

	newAssignee, err := s.users.FindByEmail(ctx, newAssigneeEmail)
	if err != nil {
		return nil, fmt.Errorf("%w: assigned user not found", models.ErrNotFound)
	}
	newAssigneeRole := s.roleOrFallback(ctx, newAssignee.RoleID)
	if !auth.CanAssignRole(actor.Role, newAssigneeRole) {
		return nil, fmt.Errorf("%w: you cannot assign tasks to the %s role", models.ErrForbidden, newAssigneeRole.DisplayName)
	}

	return s.transition(ctx, id, func(t *models.Task) (workflow.Event, error) {
		return workflow.Forward(t, actor, newAssignee, time.Now())
	})
}

// AddComment appends a comment to the task. Creator, assignee, the task
// giver and view-all roles may comment at any point of the lifecycle.
func (s *TaskService) AddComment(ctx context.Context, actorEmail string, id primitive.ObjectID, text string) (*models.Task, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: comment text is required", models.ErrValidation)
	}
	actor, _, err := s.resolveActor(ctx, actorEmail)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, id, func(t *models.Task) (workflow.Event, error) {
		canComment := actor.Email == t.CreatedByEmail ||
			actor.Email == t.AssignedToEmail ||
			(t.TaskGivenBy != "" && actor.Email == t.TaskGivenBy) ||
			auth.CanPerform(actor.Role, models.PermViewAllTasks)
		if !canComment {
			return workflow.Event{}, fmt.Errorf("%w: not authorized to comment on this task", models.ErrForbidden)
		}
		return workflow.Event{}, workflow.AddComment(t, actor, text, time.Now())
	})
}

// DeleteTask permanently removes a task. Allowed with the delete-all
// permission, or delete-own when the actor created the task.
func (s *TaskService) DeleteTask(ctx context.Context, actorEmail string, id primitive.ObjectID) error {
	actor, _, err := s.resolveActor(ctx, actorEmail)
	if err != nil {
		return err
	}
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return err
	}

	canDelete := auth.CanPerform(actor.Role, models.PermDeleteAllTasks) ||
		(task.CreatedByEmail == actor.Email && auth.CanPerform(actor.Role, models.PermDeleteOwnTasks))
	if !canDelete {
		return fmt.Errorf("%w: not authorized to delete this task", models.ErrForbidden)
	}

	if err := s.tasks.Delete(ctx, id); err != nil {
		return err
	}
	logging.Logger.Infof("Event ID: TASK_DELETED, Description: Task #%d deleted by %s", task.Sno, actor.Email)
	return nil
}

// transition runs one read-guard-write cycle, retrying on version conflicts.
// Guards always see the freshest committed state, and events are emitted
// only after the write lands.
func (s *TaskService) transition(ctx context.Context, id primitive.ObjectID, apply func(*models.Task) (workflow.Event, error)) (*models.Task, error) {
	for attempt := 0; attempt < maxWriteRetries; attempt++ {
		task, err := s.tasks.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		ev, err := apply(task)
		if err != nil {
			return nil, err
		}
		if err := s.tasks.Update(ctx, task); err != nil {
			if errors.Is(err, models.ErrConflict) {
				continue
			}
			return nil, err
		}
		s.emit(ev, task)
		return task, nil
	}
	return nil, fmt.Errorf("task %s: %w", id.Hex(), models.ErrConflict)
}

func (s *TaskService) emit(ev workflow.Event, task *models.Task) {
	if ev.Kind == "" || s.notifier == nil {
		return
	}
	s.notifier.Emit(ev, task)
}
