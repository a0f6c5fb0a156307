package services_test

import (
	. "taskflow/services/tasks-service/services"

	"context"
	"fmt"
	"sync"

	"taskflow/services/tasks-service/models"
	"taskflow/services/tasks-service/workflow"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeTaskStore keeps tasks in memory with the same version-guarded update
// contract as the mongo repository. beforeUpdate lets a test interleave a
// competing write between read and write.
type fakeTaskStore struct {
	mu           sync.Mutex
	tasks        map[primitive.ObjectID]models.Task
	sno          int64
	deptEmails   map[string]bool
	beforeUpdate func(store *fakeTaskStore, incoming *models.Task)
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: map[primitive.ObjectID]models.Task{}, deptEmails: map[string]bool{}}
}

func (f *fakeTaskStore) NextSno(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sno++
	return f.sno, nil
}

func (f *fakeTaskStore) Insert(ctx context.Context, task *models.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	f.tasks[task.ID] = *task
	return nil
}

func (f *fakeTaskStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: task", models.ErrNotFound)
	}
	copy := task
	return &copy, nil
}

func (f *fakeTaskStore) Update(ctx context.Context, task *models.Task) error {
	if f.beforeUpdate != nil {
		hook := f.beforeUpdate
		f.beforeUpdate = nil
		hook(f, task)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.tasks[task.ID]
	if !ok {
		return fmt.Errorf("%w: task", models.ErrNotFound)
	}
	if stored.Version != task.Version {
		return fmt.Errorf("%w: task version changed", models.ErrConflict)
	}
	task.Version++
	f.tasks[task.ID] = *task
	return nil
}

func (f *fakeTaskStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[id]; !ok {
		return fmt.Errorf("%w: task", models.ErrNotFound)
	}
	delete(f.tasks, id)
	return nil
}

func (f *fakeTaskStore) List(ctx context.Context, q TaskQuery) ([]*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Task
	for _, task := range f.tasks {
		if !f.matches(task, q) {
			continue
		}
		copy := task
		out = append(out, &copy)
	}
	return out, nil
}

func (f *fakeTaskStore) matches(t models.Task, q TaskQuery) bool {
	if q.AssignedToEmail != "" && t.AssignedToEmail != q.AssignedToEmail {
		return false
	}
	if q.NotAssignedToEmail != "" && t.AssignedToEmail == q.NotAssignedToEmail {
		return false
	}
	if q.CreatedByEmail != "" && t.CreatedByEmail != q.CreatedByEmail {
		return false
	}
	if q.NotCreatedByEmail != "" && t.CreatedByEmail == q.NotCreatedByEmail {
		return false
	}
	if q.SelfTasksOnly && !t.IsSelfTask {
		return false
	}
	if q.Scope != nil && !q.Scope.Matches(&t, f.deptEmails) {
		return false
	}
	if q.PendingApproverEmail != "" {
		if t.Status != models.StatusWaitingForApproval {
			return false
		}
		if t.CurrentApprover != q.PendingApproverEmail &&
			!(t.CurrentApprover == "" && t.CreatedByEmail == q.PendingApproverEmail) {
			return false
		}
	}
	return true
}

type fakeRoleStore struct {
	mu     sync.Mutex
	byID   map[primitive.ObjectID]models.Role
	byName map[string]primitive.ObjectID
}

func newFakeRoleStore() *fakeRoleStore {
	return &fakeRoleStore{byID: map[primitive.ObjectID]models.Role{}, byName: map[string]primitive.ObjectID{}}
}

func (f *fakeRoleStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	role, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: role", models.ErrNotFound)
	}
	copy := role
	return &copy, nil
}

func (f *fakeRoleStore) FindByName(ctx context.Context, name string) (*models.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: role %s", models.ErrNotFound, name)
	}
	role := f.byID[id]
	copy := role
	return &copy, nil
}

func (f *fakeRoleStore) List(ctx context.Context) ([]*models.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Role
	for _, role := range f.byID {
		copy := role
		out = append(out, &copy)
	}
	return out, nil
}

func (f *fakeRoleStore) Insert(ctx context.Context, role *models.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if role.ID.IsZero() {
		role.ID = primitive.NewObjectID()
	}
	f.byID[role.ID] = *role
	f.byName[role.Name] = role.ID
	return nil
}

func (f *fakeRoleStore) Update(ctx context.Context, role *models.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[role.ID]; !ok {
		return fmt.Errorf("%w: role", models.ErrNotFound)
	}
	f.byID[role.ID] = *role
	f.byName[role.Name] = role.ID
	return nil
}

func (f *fakeRoleStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	role, ok := f.byID[id]
	if !ok {
		return fmt.Errorf("%w: role", models.ErrNotFound)
	}
	delete(f.byID, id)
	delete(f.byName, role.Name)
	return nil
}

type fakeUserStore struct {
	mu      sync.Mutex
	byEmail map[string]models.User
	heads   map[primitive.ObjectID]string // department -> head email
	holders map[primitive.ObjectID]int64  // role -> user count
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byEmail: map[string]models.User{},
		heads:   map[primitive.ObjectID]string{},
		holders: map[primitive.ObjectID]int64{},
	}
}

func (f *fakeUserStore) add(user models.User) models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	f.byEmail[user.Email] = user
	f.holders[user.RoleID]++
	return user
}

func (f *fakeUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("%w: user", models.ErrNotFound)
	}
	copy := user
	return &copy, nil
}

func (f *fakeUserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.byEmail {
		if user.ID == id {
			copy := user
			return &copy, nil
		}
	}
	return nil, fmt.Errorf("%w: user", models.ErrNotFound)
}

func (f *fakeUserStore) DepartmentEmails(ctx context.Context, department primitive.ObjectID) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, user := range f.byEmail {
		if user.Department != nil && *user.Department == department {
			out = append(out, user.Email)
		}
	}
	return out, nil
}

func (f *fakeUserStore) DepartmentHead(ctx context.Context, department primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	email, ok := f.heads[department]
	f.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return f.FindByEmail(ctx, email)
}

func (f *fakeUserStore) CountByRole(ctx context.Context, roleID primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.holders[roleID], nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []workflow.Event
}

func (f *fakeNotifier) Emit(event workflow.Event, task *models.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeNotifier) kinds() []workflow.EventKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []workflow.EventKind
	for _, ev := range f.events {
		out = append(out, ev.Kind)
	}
	return out
}
