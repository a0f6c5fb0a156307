package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taskflow/services/tasks-service/auth"
	"taskflow/services/tasks-service/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RoleService owns administrative role management. The static super role is
// immutable, and no role may ever gain the static role in its managed set.
type RoleService struct {
	roles RoleStore
	users UserStore
}

func NewRoleService(roles RoleStore, users UserStore) *RoleService {
	return &RoleService{roles: roles, users: users}
}

func (s *RoleService) resolveActorRole(ctx context.Context, actorEmail string) (*models.Role, error) {
	user, err := s.users.FindByEmail(ctx, actorEmail)
	if err != nil {
		return nil, fmt.Errorf("%w: user %s", models.ErrNotFound, actorEmail)
	}
	if user.RoleID.IsZero() {
		return auth.LowestPrivilege(), nil
	}
	role, err := s.roles.FindByID(ctx, user.RoleID)
	if err != nil || role == nil {
		return auth.LowestPrivilege(), nil
	}
	return role, nil
}

func (s *RoleService) ListRoles(ctx context.Context, actorEmail string) ([]*models.Role, error) {
	actorRole, err := s.resolveActorRole(ctx, actorEmail)
	if err != nil {
		return nil, err
	}
	if !actorRole.IsStatic && !auth.CanPerform(actorRole, models.PermViewRoles) {
		return nil, fmt.Errorf("%w: not authorized to view roles", models.ErrForbidden)
	}
	return s.roles.List(ctx)
}

func (s *RoleService) GetRole(ctx context.Context, actorEmail string, id primitive.ObjectID) (*models.Role, error) {
	actorRole, err := s.resolveActorRole(ctx, actorEmail)
	if err != nil {
		return nil, err
	}
	if !actorRole.IsStatic && !auth.CanPerform(actorRole, models.PermViewRoles) {
		return nil, fmt.Errorf("%w: not authorized to view roles", models.ErrForbidden)
	}
	return s.roles.FindByID(ctx, id)
}

// RoleInput carries the editable role fields.
type RoleInput struct {
	Name         string             `json:"name"`
	DisplayName  string             `json:"displayName"`
	Description  string             `json:"description"`
	Level        int                `json:"level"`
	Permissions  models.Permissions `json:"permissions"`
	ManagedRoles []string           `json:"managedRoles"`
}

func (s *RoleService) validateManagedRoles(ctx context.Context, managed []string) error {
	for _, name := range managed {
		role, err := s.roles.FindByName(ctx, name)
		if err != nil {
			return fmt.Errorf("%w: managed role %q does not exist", models.ErrValidation, name)
		}
		if role.IsStatic {
			return fmt.Errorf("%w: the %s role cannot be managed by any role", models.ErrValidation, role.DisplayName)
		}
	}
	return nil
}

func (s *RoleService) CreateRole(ctx context.Context, actorEmail string, in RoleInput) (*models.Role, error) {
	actorRole, err := s.resolveActorRole(ctx, actorEmail)
	if err != nil {
		return nil, err
	}
	if !actorRole.IsStatic && !auth.CanPerform(actorRole, models.PermCreateRoles) {
		return nil, fmt.Errorf("%w: not authorized to create roles", models.ErrForbidden)
	}

	name := strings.ToLower(strings.TrimSpace(in.Name))
	if name == "" || strings.TrimSpace(in.DisplayName) == "" {
		return nil, fmt.Errorf("%w: name and display name are required", models.ErrValidation)
	}
	if existing, err := s.roles.FindByName(ctx, name); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: role with this name already exists", models.ErrValidation)
	}
	if err := s.validateManagedRoles(ctx, in.ManagedRoles); err != nil {
		return nil, err
	}

	now := time.Now()
	role := &models.Role{
		Name:         name,
		DisplayName:  in.DisplayName,
		Description:  in.Description,
		Level:        in.Level,
		Permissions:  in.Permissions,
		ManagedRoles: in.ManagedRoles,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.roles.Insert(ctx, role); err != nil {
		return nil, fmt.Errorf("failed to create role: %w", err)
	}
	return role, nil
}

func (s *RoleService) UpdateRole(ctx context.Context, actorEmail string, id primitive.ObjectID, in RoleInput) (*models.Role, error) {
	actorRole, err := s.resolveActorRole(ctx, actorEmail)
	if err != nil {
		return nil, err
	}
	if !actorRole.IsStatic && !auth.CanPerform(actorRole, models.PermEditRoles) {
		return nil, fmt.Errorf("%w: not authorized to edit roles", models.ErrForbidden)
	}

	role, err := s.roles.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if role.IsStatic {
		return nil, fmt.Errorf("%w: the %s role cannot be edited", models.ErrForbidden, role.DisplayName)
	}
	if err := s.validateManagedRoles(ctx, in.ManagedRoles); err != nil {
		return nil, err
	}

	if in.DisplayName != "" {
		role.DisplayName = in.DisplayName
	}
	role.Description = in.Description
	if in.Level != 0 {
		role.Level = in.Level
	}
	role.Permissions = in.Permissions
	role.ManagedRoles = in.ManagedRoles
	role.UpdatedAt = time.Now()

	if err := s.roles.Update(ctx, role); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	return role, nil
}

// DeleteRole removes a role. The static role is never deletable, and any
// role still held by users is kept for referential integrity.
func (s *RoleService) DeleteRole(ctx context.Context, actorEmail string, id primitive.ObjectID) error {
	actorRole, err := s.resolveActorRole(ctx, actorEmail)
	if err != nil {
		return err
	}
	if !actorRole.IsStatic && !auth.CanPerform(actorRole, models.PermDeleteRoles) {
		return fmt.Errorf("%w: not authorized to delete roles", models.ErrForbidden)
	}

	role, err := s.roles.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if role.IsStatic {
		return fmt.Errorf("%w: the %s role cannot be deleted", models.ErrForbidden, role.DisplayName)
	}

	holders, err := s.users.CountByRole(ctx, role.ID)
	if err != nil {
		return fmt.Errorf("failed to count role holders: %w", err)
	}
	if holders > 0 {
		return fmt.Errorf("%w: cannot delete role, %d user(s) are assigned this role", models.ErrValidation, holders)
	}

	return s.roles.Delete(ctx, id)
}
