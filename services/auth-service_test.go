package services_test

import (
	. "taskflow/services/tasks-service/services"

	"context"
	"errors"
	"testing"

	"taskflow/services/tasks-service/models"
	"taskflow/services/tasks-service/repositories"
	"taskflow/services/tasks-service/utils"

	"golang.org/x/crypto/bcrypt"
)

func TestLogin(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	ctx := context.Background()

	roles := newFakeRoleStore()
	users := newFakeUserStore()
	for _, r := range repositories.DefaultRoles() {
		role := r
		if err := roles.Insert(ctx, &role); err != nil {
			t.Fatalf("seed role %s: %v", role.Name, err)
		}
	}
	headRole, err := roles.FindByName(ctx, "departmenthead")
	if err != nil {
		t.Fatalf("FindByName() error = %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt error = %v", err)
	}
	users.add(models.User{
		Name:     "Head",
		Email:    "head@corp.test",
		Password: string(hash),
		RoleID:   headRole.ID,
	})

	svc := NewAuthService(users, roles)

	t.Run("valid credentials issue a token", func(t *testing.T) {
		user, token, err := svc.Login(ctx, "head@corp.test", "s3cret")
		if err != nil {
			t.Fatalf("Login() error = %v", err)
		}
		if user.Email != "head@corp.test" {
			t.Errorf("user email = %q", user.Email)
		}
		claims, err := utils.ValidateToken(token)
		if err != nil {
			t.Fatalf("ValidateToken() error = %v", err)
		}
		if claims.Email != "head@corp.test" || claims.Role != "departmenthead" {
			t.Errorf("claims = %+v", claims)
		}
	})

	t.Run("wrong password is denied", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "head@corp.test", "wrong")
		if !errors.Is(err, models.ErrForbidden) {
			t.Errorf("error = %v, want ErrForbidden", err)
		}
	})

	t.Run("unknown user is denied identically", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "ghost@corp.test", "s3cret")
		if !errors.Is(err, models.ErrForbidden) {
			t.Errorf("error = %v, want ErrForbidden", err)
		}
	})
}
