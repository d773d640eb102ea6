package todo

import "context"

// Gateway is the row-level facade over the backing store. Lookups that match
// nothing return ErrNotFound; a duplicate user email returns ErrAlreadyExists.
type Gateway interface {
	UserByEmail(ctx context.Context, email string) (User, error)
	UserByPhone(ctx context.Context, phone string) (User, error)
	InsertUser(ctx context.Context, u NewUser) (User, error)
	UpdateUser(ctx context.Context, id string, p UserPatch) (User, error)

	// ListTasks returns the owner's tasks newest first.
	ListTasks(ctx context.Context, email string) ([]Task, error)
	InsertTask(ctx context.Context, t NewTask) (Task, error)
	UpdateTask(ctx context.Context, id string, p TaskPatch) (Task, error)
	DeleteTask(ctx context.Context, id string) error
}
