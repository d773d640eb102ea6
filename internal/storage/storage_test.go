package storage_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/harlequingg/todo-assistant/internal/storage"
	"github.com/harlequingg/todo-assistant/internal/todo"
)

func newTestDB(t *testing.T) *storage.DB {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := storage.Open(context.Background(), log, storage.Config{
		Driver: storage.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "todo.db"),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func strptr(s string) *string { return &s }

func TestOpen_UnsupportedDriver(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	if _, err := storage.Open(context.Background(), log, storage.Config{Driver: "mysql"}); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestUsers_InsertFindUpdate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)

	if _, err := db.UserByEmail(ctx, "ana@x.com"); !errors.Is(err, todo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	u, err := db.InsertUser(ctx, todo.NewUser{Name: "Ana", Email: "ana@x.com"})
	if err != nil {
		t.Fatalf("InsertUser returned error: %v", err)
	}
	if u.ID == "" || u.Phone != nil {
		t.Fatalf("unexpected user %+v", u)
	}

	if _, err := db.InsertUser(ctx, todo.NewUser{Name: "Other", Email: "ana@x.com"}); !errors.Is(err, todo.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	got, err := db.UserByEmail(ctx, "ana@x.com")
	if err != nil {
		t.Fatalf("UserByEmail returned error: %v", err)
	}
	if got.ID != u.ID || got.Name != "Ana" {
		t.Fatalf("unexpected user %+v", got)
	}

	name := "Ana Maria"
	updated, err := db.UpdateUser(ctx, u.ID, todo.UserPatch{Name: &name, Phone: todo.Some("555")})
	if err != nil {
		t.Fatalf("UpdateUser returned error: %v", err)
	}
	if updated.Name != name || updated.Email != "ana@x.com" || updated.Phone == nil || *updated.Phone != "555" {
		t.Fatalf("unexpected updated user %+v", updated)
	}

	byPhone, err := db.UserByPhone(ctx, "555")
	if err != nil || byPhone.ID != u.ID {
		t.Fatalf("UserByPhone = %+v, %v", byPhone, err)
	}

	cleared, err := db.UpdateUser(ctx, u.ID, todo.UserPatch{Phone: todo.Null()})
	if err != nil {
		t.Fatalf("UpdateUser returned error: %v", err)
	}
	if cleared.Phone != nil || cleared.Name != name {
		t.Fatalf("expected phone cleared and name kept, got %+v", cleared)
	}

	if _, err := db.UpdateUser(ctx, "missing", todo.UserPatch{Name: &name}); !errors.Is(err, todo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := db.UpdateUser(ctx, u.ID, todo.UserPatch{}); !errors.Is(err, todo.ErrBadArguments) {
		t.Fatalf("expected ErrBadArguments, got %v", err)
	}
}

func TestTasks_CRUD(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)

	tasks, err := db.ListTasks(ctx, "ana@x.com")
	if err != nil {
		t.Fatalf("ListTasks returned error: %v", err)
	}
	if tasks == nil || len(tasks) != 0 {
		t.Fatalf("expected empty list, got %v", tasks)
	}

	first, err := db.InsertTask(ctx, todo.NewTask{UserEmail: "ana@x.com", Title: "first", Description: strptr("  ")})
	if err != nil {
		t.Fatalf("InsertTask returned error: %v", err)
	}
	if first.Description != nil || first.IsDone {
		t.Fatalf("unexpected task %+v", first)
	}
	second, err := db.InsertTask(ctx, todo.NewTask{UserEmail: "ana@x.com", Title: "second", Description: strptr("details")})
	if err != nil {
		t.Fatalf("InsertTask returned error: %v", err)
	}
	if _, err := db.InsertTask(ctx, todo.NewTask{UserEmail: "bob@x.com", Title: "not mine"}); err != nil {
		t.Fatalf("InsertTask returned error: %v", err)
	}

	tasks, err = db.ListTasks(ctx, "ana@x.com")
	if err != nil {
		t.Fatalf("ListTasks returned error: %v", err)
	}
	if len(tasks) != 2 || tasks[0].ID != second.ID || tasks[1].ID != first.ID {
		t.Fatalf("expected [second first], got %+v", tasks)
	}
	if tasks[0].Description == nil || *tasks[0].Description != "details" {
		t.Fatalf("unexpected description %v", tasks[0].Description)
	}

	done := true
	toggled, err := db.UpdateTask(ctx, first.ID, todo.TaskPatch{IsDone: &done})
	if err != nil {
		t.Fatalf("UpdateTask returned error: %v", err)
	}
	if !toggled.IsDone || toggled.Title != "first" {
		t.Fatalf("unexpected toggled task %+v", toggled)
	}

	edited, err := db.UpdateTask(ctx, second.ID, todo.TaskPatch{Title: strptr("second!"), Description: todo.Some("")})
	if err != nil {
		t.Fatalf("UpdateTask returned error: %v", err)
	}
	if edited.Title != "second!" || edited.Description != nil {
		t.Fatalf("expected blank description stored as null, got %+v", edited)
	}

	if _, err := db.UpdateTask(ctx, second.ID, todo.TaskPatch{Title: strptr("  ")}); !errors.Is(err, todo.ErrBadArguments) {
		t.Fatalf("expected ErrBadArguments, got %v", err)
	}
	if _, err := db.UpdateTask(ctx, "missing", todo.TaskPatch{IsDone: &done}); !errors.Is(err, todo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := db.DeleteTask(ctx, first.ID); err != nil {
		t.Fatalf("DeleteTask returned error: %v", err)
	}
	if err := db.DeleteTask(ctx, first.ID); !errors.Is(err, todo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}

	tasks, _ = db.ListTasks(ctx, "ana@x.com")
	if len(tasks) != 1 || tasks[0].ID != second.ID {
		t.Fatalf("expected only second left, got %+v", tasks)
	}
}

func TestInsertTask_RejectsBlankTitle(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	if _, err := db.InsertTask(context.Background(), todo.NewTask{UserEmail: "ana@x.com", Title: " "}); !errors.Is(err, todo.ErrBadArguments) {
		t.Fatalf("expected ErrBadArguments, got %v", err)
	}
}
