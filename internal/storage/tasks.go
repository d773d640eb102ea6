package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/harlequingg/todo-assistant/internal/todo"
)

const taskColumns = `id, user_email, title, description, is_done, created_at`

func (db *DB) ListTasks(ctx context.Context, email string) ([]todo.Task, error) {
	const q = `SELECT ` + taskColumns + ` FROM tasks WHERE user_email = ? ORDER BY created_at DESC, id DESC`

	out := []todo.Task{}
	if err := db.conn.SelectContext(ctx, &out, db.conn.Rebind(q), email); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return out, nil
}

func (db *DB) taskByID(ctx context.Context, id string) (todo.Task, error) {
	const q = `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`

	var t todo.Task
	if err := db.conn.GetContext(ctx, &t, db.conn.Rebind(q), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return todo.Task{}, todo.ErrNotFound
		}
		return todo.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (db *DB) InsertTask(ctx context.Context, in todo.NewTask) (todo.Task, error) {
	t := todo.Task{
		ID:          uuid.NewString(),
		UserEmail:   strings.TrimSpace(in.UserEmail),
		Title:       strings.TrimSpace(in.Title),
		Description: normalize(in.Description),
		CreatedAt:   db.now(),
	}
	if t.Title == "" || t.UserEmail == "" {
		return todo.Task{}, todo.ErrBadArguments
	}

	const q = `INSERT INTO tasks (id, user_email, title, description, is_done, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := db.conn.ExecContext(ctx, db.conn.Rebind(q), t.ID, t.UserEmail, t.Title, t.Description, t.IsDone, t.CreatedAt); err != nil {
		if isCheckViolation(err) {
			return todo.Task{}, todo.ErrBadArguments
		}
		return todo.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return t, nil
}

func (db *DB) UpdateTask(ctx context.Context, id string, p todo.TaskPatch) (todo.Task, error) {
	if p.Empty() {
		return todo.Task{}, todo.ErrBadArguments
	}

	var (
		sets []string
		args []any
	)
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return todo.Task{}, todo.ErrBadArguments
		}
		sets = append(sets, "title = ?")
		args = append(args, title)
	}
	if p.Description.Set {
		sets = append(sets, "description = ?")
		args = append(args, normalize(p.Description.Value))
	}
	if p.IsDone != nil {
		sets = append(sets, "is_done = ?")
		args = append(args, *p.IsDone)
	}
	args = append(args, id)

	q := `UPDATE tasks SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	res, err := db.conn.ExecContext(ctx, db.conn.Rebind(q), args...)
	if err != nil {
		if isCheckViolation(err) {
			return todo.Task{}, todo.ErrBadArguments
		}
		return todo.Task{}, fmt.Errorf("update task: %w", err)
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return todo.Task{}, todo.ErrNotFound
	}
	return db.taskByID(ctx, id)
}

func (db *DB) DeleteTask(ctx context.Context, id string) error {
	const q = `DELETE FROM tasks WHERE id = ?`

	res, err := db.conn.ExecContext(ctx, db.conn.Rebind(q), id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return todo.ErrNotFound
	}
	return nil
}

func normalize(s *string) *string {
	if s == nil {
		return nil
	}
	return todo.NormalizeDescription(*s)
}
