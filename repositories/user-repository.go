package repositories

import (
	"context"
	"fmt"

	"taskflow/services/tasks-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepo is the read-side view of users the task workflow needs: identity
// lookups, department membership and role holder counts. User lifecycle is
// owned elsewhere.
type UserRepo struct {
	users *mongo.Collection
	roles *mongo.Collection
}

func NewUserRepo(users, roles *mongo.Collection) *UserRepo {
	return &UserRepo{users: users, roles: roles}
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: user", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %v", err)
	}
	return &user, nil
}

func (r *UserRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := r.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: user", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %v", err)
	}
	return &user, nil
}

func (r *UserRepo) DepartmentEmails(ctx context.Context, department primitive.ObjectID) ([]string, error) {
	cursor, err := r.users.Find(ctx, bson.M{"department": department},
		options.Find().SetProjection(bson.M{"email": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to load department members: %v", err)
	}
	defer cursor.Close(ctx)

	var members []struct {
		Email string `bson:"email"`
	}
	if err := cursor.All(ctx, &members); err != nil {
		return nil, fmt.Errorf("failed to decode department members: %v", err)
	}

	emails := make([]string, 0, len(members))
	for _, m := range members {
		emails = append(emails, m.Email)
	}
	return emails, nil
}

// DepartmentHead returns a user in the department whose role carries the
// department-tasks view, or nil when the department has none.
func (r *UserRepo) DepartmentHead(ctx context.Context, department primitive.ObjectID) (*models.User, error) {
	cursor, err := r.roles.Find(ctx, bson.M{"permissions.viewDepartmentTasks": true},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to load head roles: %v", err)
	}
	defer cursor.Close(ctx)

	var headRoles []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &headRoles); err != nil {
		return nil, fmt.Errorf("failed to decode head roles: %v", err)
	}
	if len(headRoles) == 0 {
		return nil, nil
	}

	roleIDs := make([]primitive.ObjectID, 0, len(headRoles))
	for _, hr := range headRoles {
		roleIDs = append(roleIDs, hr.ID)
	}

	var head models.User
	err = r.users.FindOne(ctx, bson.M{
		"department": department,
		"role":       bson.M{"$in": roleIDs},
	}).Decode(&head)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load department head: %v", err)
	}
	return &head, nil
}

func (r *UserRepo) CountByRole(ctx context.Context, roleID primitive.ObjectID) (int64, error) {
	count, err := r.users.CountDocuments(ctx, bson.M{"role": roleID})
	if err != nil {
		return 0, fmt.Errorf("failed to count users by role: %v", err)
	}
	return count, nil
}
