package repositories

import (
	"context"
	"fmt"

	"taskflow/services/tasks-service/auth"
	"taskflow/services/tasks-service/models"
	"taskflow/services/tasks-service/services"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const snoCounterID = "taskSno"

// TaskRepo stores tasks in MongoDB. Task numbers come from an atomic counter
// document, and updates are guarded by the task's version field so that
// concurrent transitions on the same task cannot both land.
type TaskRepo struct {
	tasks    *mongo.Collection
	users    *mongo.Collection
	counters *mongo.Collection
}

func NewTaskRepo(tasks, users, counters *mongo.Collection) *TaskRepo {
	return &TaskRepo{tasks: tasks, users: users, counters: counters}
}

// NextSno atomically increments and returns the task sequence counter.
func (r *TaskRepo) NextSno(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": snoCounterID},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to advance task counter: %v", err)
	}
	return counter.Seq, nil
}

func (r *TaskRepo) Insert(ctx context.Context, task *models.Task) error {
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	if _, err := r.tasks.InsertOne(ctx, task); err != nil {
		return fmt.Errorf("failed to insert task: %v", err)
	}
	return nil
}

func (r *TaskRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	var task models.Task
	err := r.tasks.FindOne(ctx, bson.M{"_id": id}).Decode(&task)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: task", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load task: %v", err)
	}
	return &task, nil
}

// Update replaces the task document if and only if the stored version still
// matches the version that was read. A lost race surfaces as ErrConflict.
func (r *TaskRepo) Update(ctx context.Context, task *models.Task) error {
	readVersion := task.Version
	task.Version = readVersion + 1

	result, err := r.tasks.ReplaceOne(ctx, bson.M{"_id": task.ID, "version": readVersion}, task)
	if err != nil {
		return fmt.Errorf("failed to update task: %v", err)
	}
	if result.MatchedCount == 0 {
		count, err := r.tasks.CountDocuments(ctx, bson.M{"_id": task.ID})
		if err == nil && count == 0 {
			return fmt.Errorf("%w: task", models.ErrNotFound)
		}
		return models.ErrConflict
	}
	return nil
}

func (r *TaskRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.tasks.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete task: %v", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: task", models.ErrNotFound)
	}
	return nil
}

// List renders the query as a mongo filter and returns matching tasks,
// newest first.
func (r *TaskRepo) List(ctx context.Context, q services.TaskQuery) ([]*models.Task, error) {
	filter, err := r.buildFilter(ctx, q)
	if err != nil {
		return nil, err
	}

	cursor, err := r.tasks.Find(ctx, filter, options.Find().SetSort(bson.M{"createdAt": -1}))
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %v", err)
	}
	defer cursor.Close(ctx)

	tasks := []*models.Task{}
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %v", err)
	}
	return tasks, nil
}

func (r *TaskRepo) buildFilter(ctx context.Context, q services.TaskQuery) (bson.M, error) {
	filter := bson.M{}

	if q.AssignedToEmail != "" {
		filter["assignedToEmail"] = q.AssignedToEmail
	}
	if q.NotAssignedToEmail != "" {
		filter["assignedToEmail"] = bson.M{"$ne": q.NotAssignedToEmail}
	}
	if q.CreatedByEmail != "" {
		filter["createdByEmail"] = q.CreatedByEmail
	}
	if q.NotCreatedByEmail != "" {
		filter["createdByEmail"] = bson.M{"$ne": q.NotCreatedByEmail}
	}
	if q.SelfTasksOnly {
		filter["isSelfTask"] = true
	}

	if q.PendingApproverEmail != "" {
		filter["status"] = models.StatusWaitingForApproval
		filter["approvalStatus"] = models.ApprovalPending
		filter["$or"] = bson.A{
			bson.M{"currentApprover": q.PendingApproverEmail},
			bson.M{
				"createdByEmail": q.PendingApproverEmail,
				"$or": bson.A{
					bson.M{"currentApprover": ""},
					bson.M{"currentApprover": bson.M{"$exists": false}},
				},
			},
		}
	}

	if q.Scope != nil {
		scopeFilter, err := r.scopeFilter(ctx, *q.Scope)
		if err != nil {
			return nil, err
		}
		for k, v := range scopeFilter {
			filter[k] = v
		}
	}

	return filter, nil
}

// scopeFilter renders a visibility scope as a mongo filter. The department
// tier resolves member emails up front, mirroring Scope.Matches.
func (r *TaskRepo) scopeFilter(ctx context.Context, scope auth.Scope) (bson.M, error) {
	switch scope.Tier {
	case auth.TierAll:
		return bson.M{}, nil
	case auth.TierDepartment:
		emails, err := r.departmentEmails(ctx, scope.Department)
		if err != nil {
			return nil, err
		}
		return bson.M{"$or": bson.A{
			bson.M{"assignedToEmail": bson.M{"$in": emails}},
			bson.M{"createdByEmail": bson.M{"$in": emails}},
			bson.M{"createdByEmail": scope.Email},
			bson.M{"forwardedByEmail": scope.Email},
		}}, nil
	default:
		return bson.M{"$or": bson.A{
			bson.M{"createdByEmail": scope.Email},
			bson.M{"assignedToEmail": scope.Email},
		}}, nil
	}
}

func (r *TaskRepo) departmentEmails(ctx context.Context, department *primitive.ObjectID) ([]string, error) {
	if department == nil {
		return nil, nil
	}
	cursor, err := r.users.Find(ctx, bson.M{"department": *department},
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
