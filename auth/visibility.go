package auth

import (
	"taskflow/services/tasks-service/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScopeTier is the visibility class an actor falls into. Tiers are evaluated
// in order; the first that applies wins.
type ScopeTier int

const (
	// TierAll sees every task.
	TierAll ScopeTier = iota
	// TierDepartment sees tasks touching the actor's department, plus tasks
	// the actor created or personally forwarded.
	TierDepartment
	// TierOwn sees only tasks the actor created or is assigned.
	TierOwn
)

// Scope is a declarative task filter. It is a description of what the actor
// may see, not a materialized list, so the storage layer can render it as a
// query and tests can apply it as a predicate.
type Scope struct {
	Tier       ScopeTier
	Email      string
	Department *primitive.ObjectID
}

// TaskVisibility computes the actor's visibility scope from their role and
// department. A nil role is treated as lowest privilege.
func TaskVisibility(user *models.User, role *models.Role) Scope {
	if role == nil {
		role = LowestPrivilege()
	}
	if role.IsStatic || role.Permissions.ViewAllTasks {
		return Scope{Tier: TierAll, Email: user.Email}
	}
	if role.Permissions.ViewDepartmentTasks && user.Department != nil {
		return Scope{Tier: TierDepartment, Email: user.Email, Department: user.Department}
	}
	return Scope{Tier: TierOwn, Email: user.Email}
}

// Matches applies the scope as a predicate. departmentEmails is the set of
// member emails of the scope's department; it is only consulted for
// TierDepartment.
func (s Scope) Matches(t *models.Task, departmentEmails map[string]bool) bool {
	switch s.Tier {
	case TierAll:
		return true
	case TierDepartment:
		if departmentEmails[t.AssignedToEmail] || departmentEmails[t.CreatedByEmail] {
			return true
		}
		if t.CreatedByEmail == s.Email {
			return true
		}
		return t.ForwardedByEmail != "" && t.ForwardedByEmail == s.Email
	default:
		return t.CreatedByEmail == s.Email || t.AssignedToEmail == s.Email
	}
}
