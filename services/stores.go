package services

import (
	"context"

	"taskflow/services/tasks-service/auth"
	"taskflow/services/tasks-service/models"
	"taskflow/services/tasks-service/workflow"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskQuery describes a task listing. Zero-value fields are ignored. The
// mongo repository renders this as a query filter; test fakes apply it in
// memory.
type TaskQuery struct {
	AssignedToEmail    string
	NotAssignedToEmail string
	CreatedByEmail     string
	NotCreatedByEmail  string
	SelfTasksOnly      bool
	Scope              *auth.Scope

	// PendingApproverEmail selects tasks waiting for approval whose current
	// approver is this email, including legacy tasks with no recorded
	// approver created by it.
	PendingApproverEmail string
}

// TaskStore is the storage collaborator for tasks. Update must be atomic per
// record and fail with models.ErrConflict when the stored version no longer
// matches the one read.
type TaskStore interface {
	NextSno(ctx context.Context) (int64, error)
	Insert(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, q TaskQuery) ([]*models.Task, error)
}

// RoleStore is the role collaborator.
type RoleStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Role, error)
	FindByName(ctx context.Context, name string) (*models.Role, error)
	List(ctx context.Context) ([]*models.Role, error)
	Insert(ctx context.Context, role *models.Role) error
	Update(ctx context.Context, role *models.Role) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// UserStore is the read-only user collaborator.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	DepartmentEmails(ctx context.Context, department primitive.ObjectID) ([]string, error)
	DepartmentHead(ctx context.Context, department primitive.ObjectID) (*models.User, error)
	CountByRole(ctx context.Context, roleID primitive.ObjectID) (int64, error)
}

// Notifier receives lifecycle events. Implementations must not block the
// caller and must swallow delivery failures.
type Notifier interface {
	Emit(event workflow.Event, task *models.Task)
}
