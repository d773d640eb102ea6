package todo

import (
	"encoding/json"
	"regexp"
	"strings"
)

var emailRegexp = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Validator collects the first failure message per field.
type Validator struct {
	errors map[string]string
}

func NewValidator() *Validator {
	return &Validator{
		errors: make(map[string]string),
	}
}

func (v *Validator) HasErrors() bool {
	return len(v.errors) != 0
}

func (v *Validator) CheckCond(cond bool, key, msg string) {
	if cond {
		return
	}
	if _, ok := v.errors[key]; !ok {
		v.errors[key] = msg
	}
}

func (v *Validator) CheckRequired(value, key string) {
	v.CheckCond(strings.TrimSpace(value) != "", key, "must be provided")
}

func (v *Validator) CheckEmail(email string) {
	v.CheckRequired(email, "email")
	v.CheckCond(ValidEmail(email), "email", "must be a valid email address")
}

// Err returns nil when no check failed.
func (v *Validator) Err() error {
	if !v.HasErrors() {
		return nil
	}
	fields := make(map[string]string, len(v.errors))
	for k, msg := range v.errors {
		fields[k] = msg
	}
	return &ValidationError{Fields: fields}
}

func ValidEmail(email string) bool {
	return emailRegexp.MatchString(email)
}

// ValidationError maps field names to the message shown next to them.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	data, _ := json.Marshal(e.Fields)
	return string(data)
}
