package main

import (
	"github.com/harlequingg/todo-assistant/internal/todo"
)

type createTaskInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Email       string `json:"email"`
}

// upsertUserInput keeps phone as an Optional so an absent key can be told
// apart from an explicit null.
type upsertUserInput struct {
	Email string        `json:"email"`
	Name  string        `json:"name"`
	Phone todo.Optional `json:"phone"`
}

type userRowInput struct {
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Phone *string `json:"phone"`
}

type userPatchInput struct {
	Name  *string       `json:"name"`
	Phone todo.Optional `json:"phone"`
}

type taskRowInput struct {
	UserEmail   string  `json:"user_email"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

type taskPatchInput struct {
	Title       *string       `json:"title"`
	Description todo.Optional `json:"description"`
	IsDone      *bool         `json:"is_done"`
}

type userResponse struct {
	Message string    `json:"message"`
	User    todo.User `json:"user"`
}

type createTaskResponse struct {
	Success bool      `json:"success"`
	Task    todo.Task `json:"task"`
}
