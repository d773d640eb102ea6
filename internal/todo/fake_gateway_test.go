package todo

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeGateway struct {
	mu sync.Mutex

	users map[string]User
	tasks map[string]Task
	clock time.Time

	// failures keyed by method name
	fail map[string]error

	calls  map[string]int
	writes int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		users: make(map[string]User),
		tasks: make(map[string]Task),
		clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		fail:  make(map[string]error),
		calls: make(map[string]int),
	}
}

func (g *fakeGateway) failOn(method string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fail[method] = err
}

func (g *fakeGateway) count(method string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[method]
}

func (g *fakeGateway) totalCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.calls {
		n += c
	}
	return n
}

func (g *fakeGateway) enter(method string) error {
	g.calls[method]++
	return g.fail[method]
}

func (g *fakeGateway) tick() time.Time {
	g.clock = g.clock.Add(time.Second)
	return g.clock
}

func (g *fakeGateway) UserByEmail(_ context.Context, email string) (User, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("UserByEmail"); err != nil {
		return User{}, err
	}
	for _, u := range g.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (g *fakeGateway) UserByPhone(_ context.Context, phone string) (User, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("UserByPhone"); err != nil {
		return User{}, err
	}
	for _, u := range g.users {
		if u.Phone != nil && *u.Phone == phone {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (g *fakeGateway) InsertUser(_ context.Context, in NewUser) (User, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("InsertUser"); err != nil {
		return User{}, err
	}
	for _, u := range g.users {
		if u.Email == in.Email {
			return User{}, ErrAlreadyExists
		}
	}
	g.writes++
	u := User{ID: uuid.NewString(), Name: in.Name, Email: in.Email, Phone: in.Phone, CreatedAt: g.tick()}
	g.users[u.ID] = u
	return u, nil
}

func (g *fakeGateway) UpdateUser(_ context.Context, id string, p UserPatch) (User, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("UpdateUser"); err != nil {
		return User{}, err
	}
	u, ok := g.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	g.writes++
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Phone.Set {
		u.Phone = p.Phone.Value
	}
	g.users[id] = u
	return u, nil
}

func (g *fakeGateway) ListTasks(_ context.Context, email string) ([]Task, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("ListTasks"); err != nil {
		return nil, err
	}
	out := make([]Task, 0)
	for _, t := range g.tasks {
		if t.UserEmail == email {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (g *fakeGateway) InsertTask(_ context.Context, in NewTask) (Task, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("InsertTask"); err != nil {
		return Task{}, err
	}
	if strings.HasPrefix(in.Title, "fail:") {
		return Task{}, ErrUnavailable
	}
	g.writes++
	t := Task{
		ID:          uuid.NewString(),
		UserEmail:   in.UserEmail,
		Title:       in.Title,
		Description: in.Description,
		CreatedAt:   g.tick(),
	}
	g.tasks[t.ID] = t
	return t, nil
}

func (g *fakeGateway) UpdateTask(_ context.Context, id string, p TaskPatch) (Task, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("UpdateTask"); err != nil {
		return Task{}, err
	}
	t, ok := g.tasks[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	g.writes++
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description.Set {
		t.Description = p.Description.Value
	}
	if p.IsDone != nil {
		t.IsDone = *p.IsDone
	}
	g.tasks[id] = t
	return t, nil
}

func (g *fakeGateway) DeleteTask(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("DeleteTask"); err != nil {
		return err
	}
	if _, ok := g.tasks[id]; !ok {
		return ErrNotFound
	}
	g.writes++
	delete(g.tasks, id)
	return nil
}

func (g *fakeGateway) storedTasks() []Task {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Task, 0, len(g.tasks))
	for _, t := range g.tasks {
		out = append(out, t)
	}
	return out
}

var _ Gateway = (*fakeGateway)(nil)
