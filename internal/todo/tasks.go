package todo

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Repository is task CRUD scoped to an owner email.
type Repository struct {
	log *slog.Logger
	gw  Gateway
}

func NewRepository(log *slog.Logger, gw Gateway) *Repository {
	return &Repository{log: log, gw: gw}
}

func (r *Repository) List(ctx context.Context, email string) ([]Task, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	tasks, err := r.gw.ListTasks(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	if tasks == nil {
		tasks = []Task{}
	}
	return tasks, nil
}

// Create fails fast on a blank title or owner without touching the gateway.
func (r *Repository) Create(ctx context.Context, email, title, description string) (Task, error) {
	title = strings.TrimSpace(title)
	email = strings.TrimSpace(email)
	if title == "" {
		return Task{}, ErrTitleRequired
	}
	if email == "" {
		return Task{}, ErrEmailRequired
	}

	t, err := r.gw.InsertTask(ctx, NewTask{
		UserEmail:   email,
		Title:       title,
		Description: NormalizeDescription(description),
	})
	if err != nil {
		return Task{}, fmt.Errorf("create task: %w", err)
	}
	r.log.Debug("task created", "id", t.ID, "email", email)
	return t, nil
}

func (r *Repository) Toggle(ctx context.Context, t Task) (Task, error) {
	done := !t.IsDone
	out, err := r.gw.UpdateTask(ctx, t.ID, TaskPatch{IsDone: &done})
	if err != nil {
		return Task{}, fmt.Errorf("toggle task %s: %w", t.ID, err)
	}
	return out, nil
}

// Edit replaces title and description; a blank description is stored as null.
func (r *Repository) Edit(ctx context.Context, id, title, description string) (Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Task{}, ErrTitleRequired
	}

	p := TaskPatch{Title: &title, Description: Optional{Set: true, Value: NormalizeDescription(description)}}
	out, err := r.gw.UpdateTask(ctx, id, p)
	if err != nil {
		return Task{}, fmt.Errorf("edit task %s: %w", id, err)
	}
	return out, nil
}

// Describe replaces only the description, leaving the stored title as is.
func (r *Repository) Describe(ctx context.Context, id, description string) (Task, error) {
	p := TaskPatch{Description: Optional{Set: true, Value: NormalizeDescription(description)}}
	out, err := r.gw.UpdateTask(ctx, id, p)
	if err != nil {
		return Task{}, fmt.Errorf("describe task %s: %w", id, err)
	}
	return out, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := r.gw.DeleteTask(ctx, id); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return nil
}
