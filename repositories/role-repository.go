package repositories

import (
	"context"
	"fmt"
	"time"

	"taskflow/services/tasks-service/logging"
	"taskflow/services/tasks-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// RoleRepo stores roles in MongoDB.
type RoleRepo struct {
	roles *mongo.Collection
}

func NewRoleRepo(roles *mongo.Collection) *RoleRepo {
	return &RoleRepo{roles: roles}
}

func (r *RoleRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Role, error) {
	var role models.Role
	err := r.roles.FindOne(ctx, bson.M{"_id": id}).Decode(&role)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: role", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load role: %v", err)
	}
	return &role, nil
}

func (r *RoleRepo) FindByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	err := r.roles.FindOne(ctx, bson.M{"name": name}).Decode(&role)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: role %s", models.ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load role: %v", err)
	}
	return &role, nil
}

func (r *RoleRepo) List(ctx context.Context) ([]*models.Role, error) {
	cursor, err := r.roles.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %v", err)
	}
	defer cursor.Close(ctx)

	roles := []*models.Role{}
	if err := cursor.All(ctx, &roles); err != nil {
		return nil, fmt.Errorf("failed to decode roles: %v", err)
	}
	return roles, nil
}

func (r *RoleRepo) Insert(ctx context.Context, role *models.Role) error {
	if role.ID.IsZero() {
		role.ID = primitive.NewObjectID()
	}
	if _, err := r.roles.InsertOne(ctx, role); err != nil {
		return fmt.Errorf("failed to insert role: %v", err)
	}
	return nil
}

func (r *RoleRepo) Update(ctx context.Context, role *models.Role) error {
	result, err := r.roles.ReplaceOne(ctx, bson.M{"_id": role.ID}, role)
	if err != nil {
		return fmt.Errorf("failed to update role: %v", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: role", models.ErrNotFound)
	}
	return nil
}

func (r *RoleRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.roles.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete role: %v", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: role", models.ErrNotFound)
	}
	return nil
}

// EnsureDefaultRoles inserts the built-in role hierarchy if missing. Existing
// roles are left alone so administrative edits survive restarts.
func (r *RoleRepo) EnsureDefaultRoles(ctx context.Context) error {
	for _, role := range DefaultRoles() {
		count, err := r.roles.CountDocuments(ctx, bson.M{"name": role.Name})
		if err != nil {
			return fmt.Errorf("failed to check role %s: %v", role.Name, err)
		}
		if count > 0 {
			continue
		}
		role.CreatedAt = time.Now()
		role.UpdatedAt = role.CreatedAt
		if err := r.Insert(ctx, &role); err != nil {
			return err
		}
		logging.Logger.Infof("Event ID: ROLE_SEEDED, Description: Created built-in role %s (level %d)", role.Name, role.Level)
	}
	return nil
}

func allTaskAndUserPermissions() models.Permissions {
	return models.Permissions{
		ViewUsers: true, CreateUsers: true, EditUsers: true, DeleteUsers: true,
		ViewAllTasks: true, CreateTasks: true,
		EditOwnTasks: true, EditAllTasks: true,
		DeleteOwnTasks: true, DeleteAllTasks: true,
		ViewApprovals: true, ApproveRejectTasks: true,
		ViewRoles: true, CreateRoles: true, EditRoles: true, DeleteRoles: true,
	}
}

// DefaultRoles is the seeded organizational hierarchy. The superadmin role
// is static: it is never editable, deletable or assignable by anyone, and it
// appears in no managed set.
func DefaultRoles() []models.Role {
	return []models.Role{
		{
			Name:        "superadmin",
			DisplayName: "Super Admin",
			Description: "Static top-level role with unrestricted access",
			Level:       6,
			IsSystem:    true,
			IsStatic:    true,
			Permissions: allTaskAndUserPermissions(),
		},
		{
			Name:         "director",
			DisplayName:  "Director",
			Description:  "Full task oversight across the organization",
			Level:        4,
			IsSystem:     true,
			Permissions:  allTaskAndUserPermissions(),
			ManagedRoles: []string{"generalmanager", "departmenthead"},
		},
		{
			Name:        "generalmanager",
			DisplayName: "General Manager",
			Description: "Organization-wide task visibility and assignment to department level",
			Level:       3,
			IsSystem:    true,
			Permissions: models.Permissions{
				ViewUsers: true, CreateUsers: true, EditUsers: true,
				ViewAllTasks: true, CreateTasks: true,
				EditOwnTasks: true, EditAllTasks: true,
				DeleteOwnTasks: true,
				ViewApprovals:  true, ApproveRejectTasks: true,
				ViewRoles: true,
			},
			ManagedRoles: []string{"departmenthead", "projectmanager", "staff"},
		},
		{
			Name:        "departmenthead",
			DisplayName: "Department Head",
			Description: "Manages users and tasks within their department",
			Level:       2,
			IsSystem:    true,
			Permissions: models.Permissions{
				ViewUsers: true, CreateUsers: true, EditUsers: true,
				ViewDepartmentTasks: true, CreateTasks: true,
				EditOwnTasks: true, EditAllTasks: true,
				DeleteOwnTasks: true,
				ViewApprovals:  true, ApproveRejectTasks: true,
			},
			ManagedRoles: []string{"departmenthead", "projectmanager", "staff"},
		},
		{
			Name:        "projectmanager",
			DisplayName: "Project Manager",
			Description: "Cross-department project coordination",
			Level:       1,
			IsSystem:    true,
			Permissions: models.Permissions{
				CreateTasks:  true,
				EditOwnTasks: true,
			},
			ManagedRoles: []string{"departmenthead", "projectmanager"},
		},
		{
			Name:        "staff",
			DisplayName: "Staff",
			Description: "Task management access only",
			Level:       1,
			IsSystem:    true,
			Permissions: models.Permissions{
				CreateTasks:  true,
				EditOwnTasks: true,
			},
			ManagedRoles: []string{"departmenthead", "projectmanager"},
		},
	}
}
