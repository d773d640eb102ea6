package todo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Resolver turns a self-asserted name and email into a user row and records
// it as the current session.
type Resolver struct {
	log     *slog.Logger
	gw      Gateway
	session SessionStore
}

func NewResolver(log *slog.Logger, gw Gateway, session SessionStore) *Resolver {
	return &Resolver{log: log, gw: gw, session: session}
}

func (r *Resolver) Login(ctx context.Context, name, email string) (User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	v := NewValidator()
	v.CheckRequired(name, "name")
	v.CheckEmail(email)
	if err := v.Err(); err != nil {
		return User{}, err
	}

	u, err := r.resolve(ctx, name, email)
	if err != nil {
		r.log.Error("login failed", "email", email, "error", err)
		return User{}, fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}

	if err := r.session.Save(StoredSession{ID: u.ID, Name: u.Name, Email: u.Email}); err != nil {
		r.log.Error("cannot store session", "email", email, "error", err)
		return User{}, fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}
	return u, nil
}

func (r *Resolver) resolve(ctx context.Context, name, email string) (User, error) {
	u, err := r.gw.UserByEmail(ctx, email)
	switch {
	case errors.Is(err, ErrNotFound):
		created, err := r.gw.InsertUser(ctx, NewUser{Name: name, Email: email})
		if err == nil {
			r.log.Info("user created", "id", created.ID, "email", email)
			return created, nil
		}
		if !errors.Is(err, ErrAlreadyExists) {
			return User{}, fmt.Errorf("insert user: %w", err)
		}
		// another login created the row first
		if u, err = r.gw.UserByEmail(ctx, email); err != nil {
			return User{}, fmt.Errorf("find user: %w", err)
		}
	case err != nil:
		return User{}, fmt.Errorf("find user: %w", err)
	}

	if u.Name == name {
		return u, nil
	}
	updated, err := r.gw.UpdateUser(ctx, u.ID, UserPatch{Name: &name})
	if err != nil {
		return User{}, fmt.Errorf("update user name: %w", err)
	}
	r.log.Info("user renamed", "id", u.ID, "from", u.Name, "to", name)
	return updated, nil
}

// Current returns the stored session, or ErrNoSession.
func (r *Resolver) Current() (StoredSession, error) {
	s, ok, err := r.session.Load()
	if err != nil {
		return StoredSession{}, err
	}
	if !ok {
		return StoredSession{}, ErrNoSession
	}
	return s, nil
}

func (r *Resolver) Logout() error {
	return r.session.Clear()
}
