package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Permission names a single capability a role may hold.
type Permission string

const (
	PermViewUsers   Permission = "viewUsers"
	PermCreateUsers Permission = "createUsers"
	PermEditUsers   Permission = "editUsers"
	PermDeleteUsers Permission = "deleteUsers"

	PermViewAllTasks        Permission = "viewAllTasks"
	PermViewDepartmentTasks Permission = "viewDepartmentTasks"
	PermCreateTasks         Permission = "createTasks"
	PermEditOwnTasks        Permission = "editOwnTasks"
	PermEditAllTasks        Permission = "editAllTasks"
	PermDeleteOwnTasks      Permission = "deleteOwnTasks"
	PermDeleteAllTasks      Permission = "deleteAllTasks"

	PermViewApprovals      Permission = "viewApprovals"
	PermApproveRejectTasks Permission = "approveRejectTasks"

	PermViewRoles   Permission = "viewRoles"
	PermCreateRoles Permission = "createRoles"
	PermEditRoles   Permission = "editRoles"
	PermDeleteRoles Permission = "deleteRoles"
)

// Permissions is the fixed capability set of a role. A typed struct instead
// of a string-keyed map so that a misspelled permission cannot silently grant
// or deny anything at runtime.
type Permissions struct {
	ViewUsers   bool `json:"viewUsers" bson:"viewUsers"`
	CreateUsers bool `json:"createUsers" bson:"createUsers"`
	EditUsers   bool `json:"editUsers" bson:"editUsers"`
	DeleteUsers bool `json:"deleteUsers" bson:"deleteUsers"`

	ViewAllTasks        bool `json:"viewAllTasks" bson:"viewAllTasks"`
	ViewDepartmentTasks bool `json:"viewDepartmentTasks" bson:"viewDepartmentTasks"`
	CreateTasks         bool `json:"createTasks" bson:"createTasks"`
	EditOwnTasks        bool `json:"editOwnTasks" bson:"editOwnTasks"`
	EditAllTasks        bool `json:"editAllTasks" bson:"editAllTasks"`
	DeleteOwnTasks      bool `json:"deleteOwnTasks" bson:"deleteOwnTasks"`
	DeleteAllTasks      bool `json:"deleteAllTasks" bson:"deleteAllTasks"`

	ViewApprovals      bool `json:"viewApprovals" bson:"viewApprovals"`
	ApproveRejectTasks bool `json:"approveRejectTasks" bson:"approveRejectTasks"`

	ViewRoles   bool `json:"viewRoles" bson:"viewRoles"`
	CreateRoles bool `json:"createRoles" bson:"createRoles"`
	EditRoles   bool `json:"editRoles" bson:"editRoles"`
	DeleteRoles bool `json:"deleteRoles" bson:"deleteRoles"`
}

// Has reports whether the named permission is granted. Unknown permission
// names are denied.
func (p Permissions) Has(perm Permission) bool {
	switch perm {
	case PermViewUsers:
		return p.ViewUsers
	case PermCreateUsers:
		return p.CreateUsers
	case PermEditUsers:
		return p.EditUsers
	case PermDeleteUsers:
		return p.DeleteUsers
	case PermViewAllTasks:
		return p.ViewAllTasks
	case PermViewDepartmentTasks:
		return p.ViewDepartmentTasks
	case PermCreateTasks:
		return p.CreateTasks
	case PermEditOwnTasks:
		return p.EditOwnTasks
	case PermEditAllTasks:
		return p.EditAllTasks
	case PermDeleteOwnTasks:
		return p.DeleteOwnTasks
	case PermDeleteAllTasks:
		return p.DeleteAllTasks
	case PermViewApprovals:
		return p.ViewApprovals
	case PermApproveRejectTasks:
		return p.ApproveRejectTasks
	case PermViewRoles:
		return p.ViewRoles
	case PermCreateRoles:
		return p.CreateRoles
	case PermEditRoles:
		return p.EditRoles
	case PermDeleteRoles:
		return p.DeleteRoles
	default:
		return false
	}
}

// Role is a node in the organizational hierarchy. ManagedRoles is the edge
// set: the role names this role may assign tasks to or grant at user
// creation. Level is advisory seniority only; authorization decisions go
// through permissions and ManagedRoles.
type Role struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name"`
	DisplayName  string             `json:"displayName" bson:"displayName"`
	Description  string             `json:"description" bson:"description"`
	Level        int                `json:"level" bson:"level"`
	Permissions  Permissions        `json:"permissions" bson:"permissions"`
	ManagedRoles []string           `json:"managedRoles" bson:"managedRoles"`
	IsSystem     bool               `json:"isSystem" bson:"isSystem"`
	IsStatic     bool               `json:"isStatic" bson:"isStatic"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Manages reports whether name is in the role's managed set.
func (r *Role) Manages(name string) bool {
	for _, m := range r.ManagedRoles {
		if m == name {
			return true
		}
	}
	return false
}
