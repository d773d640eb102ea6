package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/harlequingg/todo-assistant/internal/todo"
)

const usage = `Commands:
  login <email> <name>            sign in, creating the user if needed
  logout                          forget the stored session
  list | ls                       show your tasks, newest first
  add <title> [| description]     add a task
  done <n>                        toggle task n between pending and done
  edit <n> <title> [| desc]       replace title and description of task n
  rm <n>                          delete task n
  chat <message>                  talk to the assistant
  history                         show the chat transcript
  steps <n>                       generate step-by-step notes for task n
  steps show|edit|reset <n> ...   review the staged notes for task n
  accept <n>                      save the staged notes as the description
  cancel <n>                      discard the staged notes
  help                            show this message
  quit | exit                     leave`

// shell is the interactive front end over the task list, the assistant and
// the step generator of the signed in user.
type shell struct {
	cfg      config
	log      *slog.Logger
	gw       todo.Gateway
	resolver *todo.Resolver
	chatHook *todo.Webhook
	stepHook *todo.Webhook

	outMu sync.Mutex
	out   io.Writer

	user      *todo.StoredSession
	list      *todo.TaskList
	// shown is the list as last printed; task numbers refer to it.
	shown     []todo.Task
	assistant *todo.Assistant
	steps     *todo.StepGenerator
}

func newShell(cfg config, log *slog.Logger, out io.Writer, gw todo.Gateway, session todo.SessionStore) *shell {
	return &shell{
		cfg:      cfg,
		log:      log,
		gw:       gw,
		resolver: todo.NewResolver(log, gw, session),
		chatHook: todo.NewWebhook(cfg.ChatWebhookURL, cfg.WebhookTimeout, nil),
		stepHook: todo.NewWebhook(cfg.StepsWebhookURL, cfg.WebhookTimeout, nil),
		out:      out,
	}
}

func (s *shell) printf(format string, args ...any) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

func (s *shell) prompt() {
	if s.user == nil {
		s.printf("> ")
		return
	}
	s.printf("%s> ", s.user.Name)
}

// restore resumes a session saved by an earlier run.
func (s *shell) restore(ctx context.Context) {
	sess, err := s.resolver.Current()
	if err != nil {
		if !errors.Is(err, todo.ErrNoSession) {
			s.log.Error("cannot load session", "error", err)
		}
		s.printf("Welcome! Sign in with: login <email> <name>\n")
		return
	}
	s.printf("Welcome back, %s.\n", sess.Name)
	s.start(ctx, sess)
}

func (s *shell) start(ctx context.Context, sess todo.StoredSession) {
	repo := todo.NewRepository(s.log, s.gw)
	list := todo.NewTaskList(s.log, repo, sess.Email)

	s.user = &sess
	s.list = list
	s.steps = todo.NewStepGenerator(s.log, s.stepHook, list)
	s.assistant = todo.NewAssistant(s.log, todo.AssistantConfig{
		Email:   sess.Email,
		Webhook: s.chatHook,
		Tasks:   repo,
		OnTasksCreated: func() {
			if err := list.Refresh(context.Background()); err == nil {
				s.printf("\n(new tasks from the assistant, use 'list' to see them)\n")
			}
		},
		NotifyDelay: s.cfg.NotifyDelay,
	})
	if err := list.Refresh(ctx); err != nil {
		s.printf("Error fetching tasks.\n")
	}
	s.render()
}

func (s *shell) stop() {
	s.user = nil
	s.list = nil
	s.shown = nil
	s.assistant = nil
	s.steps = nil
}

// exec runs one command line and reports whether the shell should exit.
func (s *shell) exec(ctx context.Context, line string) bool {
	cmd, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "":
	case "help":
		s.printf("%s\n", usage)
	case "quit", "exit":
		return true
	case "login":
		s.login(ctx, rest)
	case "logout":
		s.logout()
	default:
		if s.user == nil {
			s.printf("Not signed in. Use: login <email> <name>\n")
			return false
		}
		s.execSignedIn(ctx, cmd, rest)
	}
	return false
}

func (s *shell) execSignedIn(ctx context.Context, cmd, rest string) {
	switch cmd {
	case "list", "ls":
		if err := s.list.Refresh(ctx); err != nil {
			s.printf("Error fetching tasks. Showing the last known list.\n")
		}
		s.render()
	case "add":
		s.add(ctx, rest)
	case "done":
		s.toggle(ctx, rest)
	case "edit":
		s.edit(ctx, rest)
	case "rm":
		s.remove(ctx, rest)
	case "chat":
		s.chat(ctx, rest)
	case "history":
		s.history()
	case "steps":
		s.stepsCmd(ctx, rest)
	case "accept":
		s.accept(ctx, rest)
	case "cancel":
		t, ok := s.taskAt(rest)
		if !ok {
			return
		}
		s.steps.Cancel(t.ID)
		s.printf("Discarded staged steps for %q.\n", t.Title)
	default:
		s.printf("Unknown command: %s (try 'help')\n", cmd)
	}
}

func (s *shell) login(ctx context.Context, args string) {
	email, name, _ := strings.Cut(args, " ")
	u, err := s.resolver.Login(ctx, name, email)
	var verr *todo.ValidationError
	switch {
	case errors.As(err, &verr):
		for field, msg := range verr.Fields {
			s.printf("%s %s\n", field, msg)
		}
		s.printf("Usage: login <email> <name>\n")
		return
	case err != nil:
		s.printf("Failed to sign in. Please try again.\n")
		return
	}
	s.printf("Signed in as %s <%s>.\n", u.Name, u.Email)
	s.start(ctx, todo.StoredSession{ID: u.ID, Name: u.Name, Email: u.Email})
}

func (s *shell) logout() {
	if err := s.resolver.Logout(); err != nil {
		s.log.Error("cannot clear session", "error", err)
	}
	s.stop()
	s.printf("Signed out.\n")
}

// render prints the cached list and makes it the one task numbers refer to.
func (s *shell) render() {
	if !s.list.Loaded() {
		s.shown = nil
		s.printf("Tasks have not loaded yet. Use 'list' to retry.\n")
		return
	}
	tasks := s.list.Tasks()
	s.shown = tasks
	if len(tasks) == 0 {
		s.printf("No tasks yet. Add one with: add <title>\n")
		return
	}

	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprintf(s.out, "Tasks for %s\n", s.list.Email())
	w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "#\tDONE\tTITLE\tDESCRIPTION\tSTATE\n")
	for i, t := range tasks {
		mark := " "
		if t.IsDone {
			mark = "x"
		}
		desc := ""
		if t.Description != nil {
			desc, _, _ = strings.Cut(*t.Description, "\n")
		}
		fmt.Fprintf(w, "%d\t[%s]\t%s\t%s\t%s\n", i+1, mark, t.Title, desc, s.state(t.ID))
	}
	w.Flush()
}

// state describes work still running for a task.
func (s *shell) state(id string) string {
	switch {
	case s.list.Busy("delete", id):
		return "deleting"
	case s.list.Busy("toggle", id), s.list.Busy("edit", id):
		return "saving"
	case s.steps.Busy(id):
		return "generating steps"
	}
	if _, ok := s.steps.Staged(id); ok {
		return "steps staged"
	}
	return ""
}

// splitText separates "title | description".
func splitText(s string) (string, string) {
	title, desc, _ := strings.Cut(s, "|")
	return strings.TrimSpace(title), strings.TrimSpace(desc)
}

// taskAt resolves a 1-based index against the last rendered list, so a
// background refresh cannot shift what a number points at.
func (s *shell) taskAt(arg string) (todo.Task, bool) {
	tasks := s.shown
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || n < 1 || n > len(tasks) {
		s.printf("No task %q. Use 'list' to see task numbers.\n", arg)
		return todo.Task{}, false
	}
	return tasks[n-1], true
}

func (s *shell) add(ctx context.Context, args string) {
	title, desc := splitText(args)
	t, err := s.list.Add(ctx, title, desc)
	switch {
	case errors.Is(err, todo.ErrTitleRequired):
		s.printf("Title is required\n")
	case errors.Is(err, todo.ErrBusy):
		s.printf("Still adding the previous task.\n")
	case err != nil:
		s.printf("Error adding task. Please try again.\n")
	default:
		s.printf("Added %q.\n", t.Title)
		s.render()
	}
}

func (s *shell) toggle(ctx context.Context, args string) {
	t, ok := s.taskAt(args)
	if !ok {
		return
	}
	if err := s.list.Toggle(ctx, t.ID); err != nil {
		s.printf("%s\n", taskError("updating", err))
		s.render()
		return
	}
	if now, ok := s.list.Task(t.ID); ok && now.IsDone {
		s.printf("Completed %q.\n", t.Title)
	} else {
		s.printf("Reopened %q.\n", t.Title)
	}
	s.render()
}

func (s *shell) edit(ctx context.Context, args string) {
	idx, text, _ := strings.Cut(args, " ")
	t, ok := s.taskAt(idx)
	if !ok {
		return
	}
	title, desc := splitText(text)
	if err := s.list.Edit(ctx, t.ID, title, desc); err != nil {
		if errors.Is(err, todo.ErrTitleRequired) {
			s.printf("Title is required\n")
			return
		}
		s.printf("%s\n", taskError("updating", err))
		s.render()
		return
	}
	s.printf("Updated task %s.\n", idx)
	s.render()
}

func (s *shell) remove(ctx context.Context, args string) {
	t, ok := s.taskAt(args)
	if !ok {
		return
	}
	if err := s.list.Delete(ctx, t.ID); err != nil {
		s.printf("%s\n", taskError("deleting", err))
		s.render()
		return
	}
	s.printf("Deleted %q.\n", t.Title)
	s.render()
}

func taskError(verb string, err error) string {
	if errors.Is(err, todo.ErrBusy) {
		return "That task is busy, try again in a moment."
	}
	return fmt.Sprintf("Error %s task. The list has been reloaded.", verb)
}

func (s *shell) chat(ctx context.Context, text string) {
	before := len(s.assistant.Transcript())
	ex, err := s.assistant.Send(ctx, text)
	switch {
	case errors.Is(err, todo.ErrMessageRequired):
		s.printf("Usage: chat <message>\n")
		return
	case errors.Is(err, todo.ErrBusy):
		s.printf("Still waiting for the previous reply.\n")
		return
	}

	for _, m := range s.assistant.Transcript()[before:] {
		if m.Sender == todo.SenderAssistant {
			s.printf("assistant: %s\n", m.Text)
		}
	}
	if ex.Created > 0 {
		s.printf("(%d task(s) added)\n", ex.Created)
	}
	if ex.Failed > 0 {
		s.printf("(%d task(s) could not be saved)\n", ex.Failed)
	}
}

func (s *shell) history() {
	msgs := s.assistant.Transcript()
	if len(msgs) == 0 {
		s.printf("No messages yet.\n")
		return
	}
	for _, m := range msgs {
		s.printf("[%s] %s: %s\n", m.Timestamp.Format("15:04"), m.Sender, m.Text)
	}
}

func (s *shell) stepsCmd(ctx context.Context, args string) {
	sub, rest, _ := strings.Cut(args, " ")
	switch sub {
	case "show":
		t, ok := s.taskAt(rest)
		if !ok {
			return
		}
		s.showStaged(t)
	case "edit":
		idx, text, _ := strings.Cut(strings.TrimSpace(rest), " ")
		t, ok := s.taskAt(idx)
		if !ok {
			return
		}
		if err := s.steps.EditStaged(t.ID, strings.ReplaceAll(text, `\n`, "\n")); err != nil {
			s.printf("Nothing staged for %q. Run: steps %s\n", t.Title, idx)
			return
		}
		s.showStaged(t)
	case "reset":
		t, ok := s.taskAt(rest)
		if !ok {
			return
		}
		if err := s.steps.ResetStaged(t.ID); err != nil {
			s.printf("Nothing staged for %q.\n", t.Title)
			return
		}
		s.showStaged(t)
	default:
		t, ok := s.taskAt(args)
		if !ok {
			return
		}
		if _, err := s.steps.Generate(ctx, t); err != nil {
			if errors.Is(err, todo.ErrBusy) {
				s.printf("Already generating steps for %q.\n", t.Title)
				return
			}
			s.printf("%s\n", todo.StepsNotice(err))
			return
		}
		s.showStaged(t)
		s.printf("Use 'accept %s' to save, 'steps edit %s <text>' to change, or 'cancel %s'.\n", args, args, args)
	}
}

func (s *shell) showStaged(t todo.Task) {
	text, ok := s.steps.Staged(t.ID)
	if !ok {
		s.printf("Nothing staged for %q.\n", t.Title)
		return
	}
	s.printf("Steps for %q:\n%s\n", t.Title, text)
}

func (s *shell) accept(ctx context.Context, args string) {
	t, ok := s.taskAt(args)
	if !ok {
		return
	}
	err := s.steps.Accept(ctx, t.ID)
	switch {
	case errors.Is(err, todo.ErrNothingStaged):
		s.printf("Nothing staged for %q.\n", t.Title)
	case errors.Is(err, todo.ErrBusy):
		s.printf("Already saving steps for %q.\n", t.Title)
	case err != nil:
		s.printf("%s\n", todo.StepsNotice(err))
	default:
		s.printf("%s\n", todo.StepsSavedNotice)
		s.render()
	}
}
