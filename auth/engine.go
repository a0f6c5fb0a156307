// Package auth holds the pure authorization rules of the task service:
// role-to-role assignment checks, permission lookups and task visibility
// scopes. Nothing here touches storage; callers resolve roles and users
// first and pass them in.
package auth

import "taskflow/services/tasks-service/models"

// CanAssignRole reports whether an actor holding actorRole may assign tasks
// to (or grant) targetRole. The static super role may assign anything except
// itself; every other role is limited to its managed set.
func CanAssignRole(actorRole, targetRole *models.Role) bool {
	if actorRole == nil || targetRole == nil {
		return false
	}
	if targetRole.IsStatic {
		return false
	}
	if actorRole.IsStatic {
		return true
	}
	return actorRole.Manages(targetRole.Name)
}

// CanPerform reports whether the role grants the named permission. A nil
// role and unknown permission names both deny.
func CanPerform(role *models.Role, perm models.Permission) bool {
	if role == nil {
		return false
	}
	return role.Permissions.Has(perm)
}

// LowestPrivilege is the role an actor is treated as when their stored role
// reference cannot be resolved. It can create and work on its own tasks and
// nothing else, so a dangling reference never promotes anyone.
func LowestPrivilege() *models.Role {
	return &models.Role{
		Name:        "staff",
		DisplayName: "Staff",
		Level:       1,
		Permissions: models.Permissions{
			CreateTasks:  true,
			EditOwnTasks: true,
		},
	}
}
