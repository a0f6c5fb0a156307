package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is owned by the user-management side of the system; the task workflow
// reads it as context only (identity, role reference, department).
type User struct {
	ID          primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Name        string              `json:"name" bson:"name"`
	Designation string              `json:"designation" bson:"designation"`
	Email       string              `json:"email" bson:"email"`
	Whatsapp    string              `json:"whatsapp" bson:"whatsapp"`
	Password    string              `json:"-" bson:"password"`
	RoleID      primitive.ObjectID  `json:"roleId" bson:"role"`
	Department  *primitive.ObjectID `json:"department,omitempty" bson:"department,omitempty"`
	CreatedAt   time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt" bson:"updatedAt"`
}
