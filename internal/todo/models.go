package todo

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

type User struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Phone     *string   `db:"phone" json:"phone"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Task struct {
	ID          string    `db:"id" json:"id"`
	UserEmail   string    `db:"user_email" json:"user_email"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description"`
	IsDone      bool      `db:"is_done" json:"is_done"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// StoredSession mirrors the logged in user row on the client.
type StoredSession struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type NewUser struct {
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Phone *string `json:"phone"`
}

type NewTask struct {
	UserEmail   string  `json:"user_email"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

// Optional is a nullable string field of a patch. Set reports whether the
// field was supplied at all; a supplied field with a nil Value means null.
type Optional struct {
	Set   bool
	Value *string
}

func Some(s string) Optional { return Optional{Set: true, Value: &s} }

func Null() Optional { return Optional{Set: true} }

// UnmarshalJSON only runs for keys present in the document, so an absent key
// leaves Set false.
func (o *Optional) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

type UserPatch struct {
	Name  *string  `json:"name,omitempty"`
	Phone Optional `json:"phone"`
}

func (p UserPatch) Empty() bool { return p.Name == nil && !p.Phone.Set }

type TaskPatch struct {
	Title       *string  `json:"title,omitempty"`
	Description Optional `json:"description"`
	IsDone      *bool    `json:"is_done,omitempty"`
}

func (p TaskPatch) Empty() bool {
	return p.Title == nil && !p.Description.Set && p.IsDone == nil
}

// NormalizeDescription trims s and maps blank text to null.
func NormalizeDescription(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
