package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/harlequingg/todo-assistant/internal/todo"
)

const maxBodyBytes = 1 << 20

var (
	errInternal       = errors.New("internal server error")
	errTitleAndEmail  = errors.New("title and email are required")
	errEmailAndName   = errors.New("email and name are required")
	errPhoneRequired  = errors.New("phone number is required")
	errUserNotFound   = errors.New("user not found")
	errCreateTask     = errors.New("failed to create task")
	errNothingToPatch = errors.New("no fields to update")
)

func (app *application) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	heathCheck := struct {
		Status      string `json:"status"`
		Environment string `json:"environment"`
		Version     string `json:"version"`
	}{
		Status:      "available",
		Environment: app.config.Env,
		Version:     version,
	}
	if p, ok := app.storage.(pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			app.log.Error("storage ping failed", "error", err)
			heathCheck.Status = "degraded"
		}
	}
	writeJSON(w, http.StatusOK, heathCheck)
}

// ---- Spec-facing endpoints

func (app *application) createTaskHandler(w http.ResponseWriter, r *http.Request) {
	var input createTaskInput
	if err := readJSON(w, r, &input); err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}

	ctx, cancel := app.requestContext(r)
	defer cancel()

	t, err := app.tasks.Create(ctx, input.Email, input.Title, input.Description)
	switch {
	case errors.Is(err, todo.ErrTitleRequired), errors.Is(err, todo.ErrEmailRequired):
		writeError(w, errTitleAndEmail, http.StatusBadRequest)
		return
	case err != nil:
		app.log.Error("cannot create task", "email", input.Email, "error", err)
		writeError(w, errCreateTask, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, createTaskResponse{Success: true, Task: t})
}

func (app *application) getUserByPhoneHandler(w http.ResponseWriter, r *http.Request) {
	phone := strings.TrimSpace(r.PathValue("phone"))
	if phone == "" {
		writeError(w, errPhoneRequired, http.StatusBadRequest)
		return
	}

	ctx, cancel := app.requestContext(r)
	defer cancel()

	u, err := app.storage.UserByPhone(ctx, phone)
	switch {
	case errors.Is(err, todo.ErrNotFound):
		writeError(w, errUserNotFound, http.StatusNotFound)
		return
	case err != nil:
		app.log.Error("cannot find user by phone", "error", err)
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// upsertUserHandler creates the user for an unknown email. For a known email
// only the phone is touched, and only when the phone key is present.
func (app *application) upsertUserHandler(w http.ResponseWriter, r *http.Request) {
	var input upsertUserInput
	if err := readJSON(w, r, &input); err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(input.Email)
	name := strings.TrimSpace(input.Name)
	if email == "" || name == "" {
		writeError(w, errEmailAndName, http.StatusBadRequest)
		return
	}
	phone := input.Phone
	if phone.Value != nil {
		trimmed := strings.TrimSpace(*phone.Value)
		phone.Value = &trimmed
	}

	ctx, cancel := app.requestContext(r)
	defer cancel()

	existing, err := app.storage.UserByEmail(ctx, email)
	switch {
	case err == nil:
		if !phone.Set {
			writeJSON(w, http.StatusOK, userResponse{Message: "User exists; no phone provided, user unchanged", User: existing})
			return
		}
		u, err := app.storage.UpdateUser(ctx, existing.ID, todo.UserPatch{Phone: phone})
		if err != nil {
			app.log.Error("cannot update user phone", "email", email, "error", err)
			writeError(w, errInternal, http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, userResponse{Message: "User phone updated successfully", User: u})
		return
	case !errors.Is(err, todo.ErrNotFound):
		app.log.Error("cannot find user by email", "email", email, "error", err)
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}

	u, err := app.storage.InsertUser(ctx, todo.NewUser{Name: name, Email: email, Phone: phone.Value})
	if err != nil {
		app.log.Error("cannot create user", "email", email, "error", err)
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	app.welcome(u)
	writeJSON(w, http.StatusCreated, userResponse{Message: "User created successfully", User: u})
}

// ---- Row endpoints

func (app *application) getUserHandler(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		writeError(w, errors.New("email must be provided"), http.StatusBadRequest)
		return
	}

	ctx, cancel := app.requestContext(r)
	defer cancel()

	u, err := app.storage.UserByEmail(ctx, email)
	if err != nil {
		app.writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (app *application) createUserHandler(w http.ResponseWriter, r *http.Request) {
	var input userRowInput
	if err := readJSON(w, r, &input); err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)

	v := todo.NewValidator()
	v.CheckRequired(input.Name, "name")
	v.CheckCond(len(input.Name) <= 255, "name", "must be atmost 255 characters")
	v.CheckEmail(input.Email)
	if err := v.Err(); err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}

	ctx, cancel := app.requestContext(r)
	defer cancel()

	u, err := app.storage.InsertUser(ctx, todo.NewUser{Name: input.Name, Email: input.Email, Phone: input.Phone})
	if err != nil {
		app.writeGatewayError(w, err)
		return
	}
	app.welcome(u)
	writeJSON(w, http.StatusCreated, u)
}

func (app *application) updateUserHandler(w http.ResponseWriter, r *http.Request) {
	var input userPatchInput
	if err := readJSON(w, r, &input); err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	p := todo.UserPatch{Name: input.Name, Phone: input.Phone}
	if p.Empty() {
		writeError(w, errNothingToPatch, http.StatusBadRequest)
		return
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		writeError(w, todo.ErrBadArguments, http.StatusBadRequest)
		return
	}

	ctx, cancel := app.requestContext(r)
	defer cancel()

	u, err := app.storage.UpdateUser(ctx, r.PathValue("id"), p)
	if err != nil {
		app.writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (app *application) getTasksHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := app.requestContext(r)
	defer cancel()

	tasks, err := app.tasks.List(ctx, r.URL.Query().Get("email"))
	if errors.Is(err, todo.ErrEmailRequired) {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	if err != nil {
		app.writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]todo.Task{"tasks": tasks})
}

func (app *application) insertTaskHandler(w http.ResponseWriter, r *http.Request) {
	var input taskRowInput
	if err := readJSON(w, r, &input); err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	input.UserEmail = strings.TrimSpace(input.UserEmail)
	input.Title = strings.TrimSpace(input.Title)

	v := todo.NewValidator()
	v.CheckRequired(input.Title, "title")
	v.CheckRequired(input.UserEmail, "user_email")
	if err := v.Err(); err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}

	ctx, cancel := app.requestContext(r)
	defer cancel()

	desc := input.Description
	if desc != nil {
		desc = todo.NormalizeDescription(*desc)
	}
	t, err := app.storage.InsertTask(ctx, todo.NewTask{UserEmail: input.UserEmail, Title: input.Title, Description: desc})
	if err != nil {
		app.writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (app *application) updateTaskHandler(w http.ResponseWriter, r *http.Request) {
	var input taskPatchInput
	if err := readJSON(w, r, &input); err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	p := todo.TaskPatch{Title: input.Title, Description: input.Description, IsDone: input.IsDone}
	if p.Empty() {
		writeError(w, errNothingToPatch, http.StatusBadRequest)
		return
	}
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			writeError(w, todo.ErrTitleRequired, http.StatusBadRequest)
			return
		}
		p.Title = &title
	}
	if p.Description.Value != nil {
		p.Description.Value = todo.NormalizeDescription(*p.Description.Value)
	}

	ctx, cancel := app.requestContext(r)
	defer cancel()

	t, err := app.storage.UpdateTask(ctx, r.PathValue("id"), p)
	if err != nil {
		app.writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (app *application) deleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := app.requestContext(r)
	defer cancel()

	if err := app.storage.DeleteTask(ctx, r.PathValue("id")); err != nil {
		app.writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ---- helpers

type pinger interface {
	Ping(ctx context.Context) error
}

func (app *application) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if app.config.RequestTimeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), app.config.RequestTimeout)
}

func (app *application) writeGatewayError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, todo.ErrNotFound):
		writeError(w, todo.ErrNotFound, http.StatusNotFound)
	case errors.Is(err, todo.ErrAlreadyExists):
		writeError(w, todo.ErrAlreadyExists, http.StatusConflict)
	case errors.Is(err, todo.ErrBadArguments):
		writeError(w, todo.ErrBadArguments, http.StatusBadRequest)
	case errors.Is(err, todo.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		app.log.Error("backend unavailable", "error", err)
		writeError(w, todo.ErrUnavailable, http.StatusServiceUnavailable)
	default:
		app.log.Error("request failed", "error", err)
		writeError(w, errInternal, http.StatusInternalServerError)
	}
}

func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("body contains badly-formed JSON: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func composeJSONError(err error) string {
	jsonError := map[string]string{
		"error": err.Error(),
	}
	result, _ := json.Marshal(jsonError)
	return string(result)
}

func writeError(w http.ResponseWriter, err error, statusCode int) {
	h := w.Header()
	h.Del("Content-Length")
	h.Set("Content-Type", "application/json")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(statusCode)
	fmt.Fprintln(w, composeJSONError(err))
}
