package services

import (
	"context"
	"fmt"

	"taskflow/services/tasks-service/models"
	"taskflow/services/tasks-service/utils"

	"golang.org/x/crypto/bcrypt"
)

// AuthService handles login: password verification and token issue.
type AuthService struct {
	users UserStore
	roles RoleStore
}

func NewAuthService(users UserStore, roles RoleStore) *AuthService {
	return &AuthService{users: users, roles: roles}
}

// Login verifies the credentials and returns the user with a signed token
// carrying their email and role name.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("%w: invalid email or password", models.ErrForbidden)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", fmt.Errorf("%w: invalid email or password", models.ErrForbidden)
	}

	roleName := "staff"
	if !user.RoleID.IsZero() {
		if role, err := s.roles.FindByID(ctx, user.RoleID); err == nil && role != nil {
			roleName = role.Name
		}
	}

	token, err := utils.GenerateToken(user.Email, roleName)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}
	return user, token, nil
}
