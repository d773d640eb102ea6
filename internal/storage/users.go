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

const userColumns = `id, name, email, phone, created_at`

func (db *DB) UserByEmail(ctx context.Context, email string) (todo.User, error) {
	return db.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

func (db *DB) UserByPhone(ctx context.Context, phone string) (todo.User, error) {
	return db.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE phone = ? ORDER BY created_at LIMIT 1`, phone)
}

func (db *DB) userByID(ctx context.Context, id string) (todo.User, error) {
	return db.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (db *DB) getUser(ctx context.Context, q string, arg any) (todo.User, error) {
	var u todo.User
	if err := db.conn.GetContext(ctx, &u, db.conn.Rebind(q), arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return todo.User{}, todo.ErrNotFound
		}
		return todo.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (db *DB) InsertUser(ctx context.Context, in todo.NewUser) (todo.User, error) {
	u := todo.User{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(in.Name),
		Email:     strings.TrimSpace(in.Email),
		Phone:     in.Phone,
		CreatedAt: db.now(),
	}
	if u.Name == "" || u.Email == "" {
		return todo.User{}, todo.ErrBadArguments
	}

	const q = `INSERT INTO users (id, name, email, phone, created_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := db.conn.ExecContext(ctx, db.conn.Rebind(q), u.ID, u.Name, u.Email, u.Phone, u.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return todo.User{}, todo.ErrAlreadyExists
		}
		return todo.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (db *DB) UpdateUser(ctx context.Context, id string, p todo.UserPatch) (todo.User, error) {
	if p.Empty() {
		return todo.User{}, todo.ErrBadArguments
	}

	var (
		sets []string
		args []any
	)
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return todo.User{}, todo.ErrBadArguments
		}
		sets = append(sets, "name = ?")
		args = append(args, name)
	}
	if p.Phone.Set {
		sets = append(sets, "phone = ?")
		args = append(args, p.Phone.Value)
	}
	args = append(args, id)

	q := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	res, err := db.conn.ExecContext(ctx, db.conn.Rebind(q), args...)
	if err != nil {
		return todo.User{}, fmt.Errorf("update user: %w", err)
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return todo.User{}, todo.ErrNotFound
	}
	return db.userByID(ctx, id)
}
