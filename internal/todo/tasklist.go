package todo

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
)

// TaskList is the client-side view of one owner's tasks. Every mutation is
// followed by a re-fetch that replaces the cached list wholesale.
type TaskList struct {
	log   *slog.Logger
	repo  *Repository
	email string

	mu       sync.Mutex
	tasks    []Task
	loaded   bool
	issued   uint64 // last fetch sequence handed out
	applied  uint64 // sequence of the fetch currently shown
	inflight map[string]bool
}

func NewTaskList(log *slog.Logger, repo *Repository, email string) *TaskList {
	return &TaskList{
		log:      log,
		repo:     repo,
		email:    email,
		inflight: make(map[string]bool),
	}
}

func (l *TaskList) Email() string { return l.email }

// Tasks returns a copy of the cached list, newest first.
func (l *TaskList) Tasks() []Task {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.tasks)
}

func (l *TaskList) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded
}

func (l *TaskList) Task(id string) (Task, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.index(id)
	if i < 0 {
		return Task{}, false
	}
	return l.tasks[i], true
}

// Refresh fetches the authoritative list. A failed fetch leaves the cache as
// it was; a fetch that completes after a later-issued one is discarded.
func (l *TaskList) Refresh(ctx context.Context) error {
	l.mu.Lock()
	l.issued++
	seq := l.issued
	l.mu.Unlock()

	tasks, err := l.repo.List(ctx, l.email)
	if err != nil {
		l.log.Error("error fetching tasks", "email", l.email, "error", err)
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if seq < l.applied {
		l.log.Debug("dropping stale task list", "seq", seq, "applied", l.applied)
		return nil
	}
	l.applied = seq
	l.tasks = tasks
	l.loaded = true
	return nil
}

func (l *TaskList) Add(ctx context.Context, title, description string) (Task, error) {
	if err := l.begin("add", ""); err != nil {
		return Task{}, err
	}
	defer l.end("add", "")

	t, err := l.repo.Create(ctx, l.email, title, description)
	if errors.Is(err, ErrTitleRequired) || errors.Is(err, ErrEmailRequired) {
		return Task{}, err
	}
	if err != nil {
		l.log.Error("error creating task", "error", err)
	}
	l.reconcile(ctx)
	return t, err
}

func (l *TaskList) Toggle(ctx context.Context, id string) error {
	t, ok := l.Task(id)
	if !ok {
		return ErrNotFound
	}
	if err := l.begin("toggle", id); err != nil {
		return err
	}
	defer l.end("toggle", id)

	_, err := l.repo.Toggle(ctx, t)
	if err != nil {
		l.log.Error("error updating task", "id", id, "error", err)
	}
	l.reconcile(ctx)
	return err
}

func (l *TaskList) Edit(ctx context.Context, id, title, description string) error {
	if err := l.begin("edit", id); err != nil {
		return err
	}
	defer l.end("edit", id)

	_, err := l.repo.Edit(ctx, id, title, description)
	if errors.Is(err, ErrTitleRequired) {
		return err
	}
	if err != nil {
		l.log.Error("error updating task", "id", id, "error", err)
	}
	l.reconcile(ctx)
	return err
}

// Describe replaces the description of a task and re-fetches the list
// whatever the outcome.
func (l *TaskList) Describe(ctx context.Context, id, description string) error {
	if err := l.begin("edit", id); err != nil {
		return err
	}
	defer l.end("edit", id)

	_, err := l.repo.Describe(ctx, id, description)
	if err != nil {
		l.log.Error("error updating task", "id", id, "error", err)
	}
	l.reconcile(ctx)
	return err
}

// Delete removes the task from the cache before the remote delete runs, then
// replaces the cache with a fresh read whatever the outcome.
func (l *TaskList) Delete(ctx context.Context, id string) error {
	if err := l.begin("delete", id); err != nil {
		return err
	}
	defer l.end("delete", id)

	l.mu.Lock()
	if i := l.index(id); i >= 0 {
		l.tasks = slices.Delete(slices.Clone(l.tasks), i, i+1)
	}
	l.mu.Unlock()

	err := l.repo.Delete(ctx, id)
	if err != nil {
		l.log.Error("error deleting task", "id", id, "error", err)
	}
	l.reconcile(ctx)
	return err
}

// Busy reports whether op is running for the task id.
func (l *TaskList) Busy(op, id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inflight[op+":"+id]
}

func (l *TaskList) reconcile(ctx context.Context) {
	// Refresh already logs; the cached list stays as it was on failure.
	_ = l.Refresh(ctx)
}

func (l *TaskList) begin(op, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := op + ":" + id
	if l.inflight[key] {
		return ErrBusy
	}
	l.inflight[key] = true
	return nil
}

func (l *TaskList) end(op, id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.inflight, op+":"+id)
}

func (l *TaskList) index(id string) int {
	return slices.IndexFunc(l.tasks, func(t Task) bool { return t.ID == id })
}
