package todo

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
)

const (
	stepsTimeoutNotice = "Request timed out. Please try again."
	stepsFailedNotice  = "Failed to generate steps. Try again."
	stepsSaveNotice    = "Failed to save steps. Please try again."
	StepsSavedNotice   = "Steps saved successfully!"
)

// StepsNotice is the transient message shown for a step generation or save
// failure.
func StepsNotice(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrWebhookTimeout):
		return stepsTimeoutNotice
	case errors.Is(err, ErrWebhookFailed), errors.Is(err, ErrWebhookNotConfigured), errors.Is(err, ErrMalformedResponse):
		return stepsFailedNotice
	default:
		return stepsSaveNotice
	}
}

type stepsRequest struct {
	Title string `json:"title"`
}

type stepsResponse struct {
	Description *string `json:"description"`
}

type staged struct {
	generated string
	edited    string
}

// StepGenerator asks the step webhook for a long-form description of a task
// and holds it until the user accepts or cancels it.
type StepGenerator struct {
	log  *slog.Logger
	hook *Webhook
	list *TaskList

	mu       sync.Mutex
	staged   map[string]*staged
	inflight map[string]bool
}

func NewStepGenerator(log *slog.Logger, hook *Webhook, list *TaskList) *StepGenerator {
	return &StepGenerator{
		log:      log,
		hook:     hook,
		list:     list,
		staged:   make(map[string]*staged),
		inflight: make(map[string]bool),
	}
}

// Generate sends only the task title. On success the description is staged
// for review; on failure nothing is staged.
func (g *StepGenerator) Generate(ctx context.Context, t Task) (string, error) {
	if err := g.begin(t.ID); err != nil {
		return "", err
	}
	defer g.end(t.ID)

	var resp stepsResponse
	res := g.hook.Call(ctx, stepsRequest{Title: t.Title}, &resp)
	if !res.OK() {
		g.log.Error("error generating steps", "task", t.ID, "outcome", res.Outcome.String(), "error", res.Err)
		return "", res.Err
	}
	if resp.Description == nil || strings.TrimSpace(*resp.Description) == "" {
		g.log.Error("error generating steps", "task", t.ID, "error", ErrMalformedResponse)
		return "", ErrMalformedResponse
	}

	text := *resp.Description
	g.mu.Lock()
	g.staged[t.ID] = &staged{generated: text, edited: text}
	g.mu.Unlock()
	return text, nil
}

// Staged returns the text that Accept would persist.
func (g *StepGenerator) Staged(id string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.staged[id]
	if !ok {
		return "", false
	}
	return s.edited, true
}

func (g *StepGenerator) EditStaged(id, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.staged[id]
	if !ok {
		return ErrNothingStaged
	}
	s.edited = text
	return nil
}

// ResetStaged drops hand edits and goes back to the generated text.
func (g *StepGenerator) ResetStaged(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.staged[id]
	if !ok {
		return ErrNothingStaged
	}
	s.edited = s.generated
	return nil
}

func (g *StepGenerator) Cancel(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.staged, id)
}

// Accept replaces the task description with the staged text; the title is
// not sent. The staged text survives a failed save.
func (g *StepGenerator) Accept(ctx context.Context, id string) error {
	text, ok := g.Staged(id)
	if !ok {
		return ErrNothingStaged
	}
	if _, ok := g.list.Task(id); !ok {
		return ErrNotFound
	}
	if err := g.begin(id); err != nil {
		return err
	}
	defer g.end(id)

	if err := g.list.Describe(ctx, id, text); err != nil {
		g.log.Error("error saving generated steps", "task", id, "error", err)
		return err
	}
	g.Cancel(id)
	return nil
}

func (g *StepGenerator) Busy(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inflight[id]
}

func (g *StepGenerator) begin(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inflight[id] {
		return ErrBusy
	}
	g.inflight[id] = true
	return nil
}

func (g *StepGenerator) end(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inflight, id)
}
