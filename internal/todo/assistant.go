package todo

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

const (
	timeoutReply = "Request timed out. Please try again."
	failureReply = "Failed to send message. Please try again."

	DefaultNotifyDelay = time.Second
)

type ChatMessage struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
	// Error marks an assistant entry that reports a failed exchange rather
	// than a reply.
	Error bool `json:"error,omitempty"`
}

// TaskCreator is the part of the task repository the assistant needs.
type TaskCreator interface {
	Create(ctx context.Context, email, title, description string) (Task, error)
}

type AssistantConfig struct {
	Email   string
	Webhook *Webhook
	Tasks   TaskCreator
	// OnTasksCreated runs NotifyDelay (DefaultNotifyDelay when unset) after
	// an exchange created at least one task.
	OnTasksCreated func()
	NotifyDelay    time.Duration
}

type assistantRequest struct {
	Email   string `json:"email"`
	Message string `json:"message"`
}

type proposedTask struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// assistantResponse leaves tasks raw so that a reply with a malformed task
// list still reaches the transcript.
type assistantResponse struct {
	Message string          `json:"message"`
	Tasks   json.RawMessage `json:"tasks"`
}

// proposals decodes the task list item by item. A payload that is not an
// array yields ok=false; items that are not task objects count as invalid.
func (r assistantResponse) proposals() (tasks []proposedTask, invalid int, ok bool) {
	if len(r.Tasks) == 0 || string(r.Tasks) == "null" {
		return nil, 0, true
	}
	var items []json.RawMessage
	if err := json.Unmarshal(r.Tasks, &items); err != nil {
		return nil, 0, false
	}
	for _, item := range items {
		var t proposedTask
		if err := json.Unmarshal(item, &t); err != nil {
			invalid++
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, invalid, true
}

// Exchange summarizes one Send.
type Exchange struct {
	Outcome Outcome
	Reply   string
	Created int
	Skipped int
	Failed  int
}

// Assistant is one chat conversation with the external assistant. Only one
// message may be in flight at a time.
type Assistant struct {
	log *slog.Logger
	cfg AssistantConfig
	now func() time.Time

	mu         sync.Mutex
	transcript []ChatMessage
	sending    bool
}

func NewAssistant(log *slog.Logger, cfg AssistantConfig) *Assistant {
	if cfg.NotifyDelay <= 0 {
		cfg.NotifyDelay = DefaultNotifyDelay
	}
	return &Assistant{log: log, cfg: cfg, now: time.Now}
}

func (a *Assistant) Transcript() []ChatMessage {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.transcript)
}

func (a *Assistant) Sending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sending
}

// Send appends text to the transcript, forwards it to the assistant webhook
// and creates the tasks the assistant proposes. Failures of the exchange end
// up in the transcript; the returned error is only ErrMessageRequired or
// ErrBusy.
func (a *Assistant) Send(ctx context.Context, text string) (Exchange, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Exchange{}, ErrMessageRequired
	}

	a.mu.Lock()
	if a.sending {
		a.mu.Unlock()
		return Exchange{}, ErrBusy
	}
	a.sending = true
	a.appendLocked(text, SenderUser, false)
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.sending = false
		a.mu.Unlock()
	}()

	var resp assistantResponse
	res := a.cfg.Webhook.Call(ctx, assistantRequest{Email: a.cfg.Email, Message: text}, &resp)
	if !res.OK() {
		a.log.Error("error sending message", "outcome", res.Outcome.String(), "error", res.Err)
		reply := failureReply
		if res.Outcome == OutcomeTimeout {
			reply = timeoutReply
		}
		a.append(reply, SenderAssistant, true)
		return Exchange{Outcome: res.Outcome}, nil
	}

	ex := Exchange{Outcome: OutcomeOK, Reply: resp.Message}
	if resp.Message != "" {
		a.append(resp.Message, SenderAssistant, false)
	}

	proposed, invalid, ok := resp.proposals()
	if !ok {
		a.log.Error("ignoring malformed task list", "tasks", string(resp.Tasks))
	}
	ex.Skipped += invalid
	for _, t := range proposed {
		if strings.TrimSpace(t.Title) == "" {
			ex.Skipped++
			continue
		}
		if _, err := a.cfg.Tasks.Create(ctx, a.cfg.Email, t.Title, t.Description); err != nil {
			a.log.Error("error creating task", "title", t.Title, "error", err)
			ex.Failed++
			continue
		}
		ex.Created++
	}

	if ex.Created > 0 && a.cfg.OnTasksCreated != nil {
		time.AfterFunc(a.cfg.NotifyDelay, a.cfg.OnTasksCreated)
	}
	return ex, nil
}

func (a *Assistant) append(text string, from Sender, failed bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.appendLocked(text, from, failed)
}

func (a *Assistant) appendLocked(text string, from Sender, failed bool) {
	a.transcript = append(a.transcript, ChatMessage{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    from,
		Timestamp: a.now(),
		Error:     failed,
	})
}
