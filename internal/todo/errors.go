package todo

import "errors"

// Storage errors
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrUnavailable   = errors.New("backend unavailable")
	ErrBadArguments  = errors.New("bad arguments")
)

// Task errors
var (
	ErrTitleRequired = errors.New("title is required")
	ErrEmailRequired = errors.New("email is required")
	ErrBusy          = errors.New("operation already in progress")
)

// Identity errors
var (
	ErrLoginFailed = errors.New("error processing login")
	ErrNoSession   = errors.New("no stored session")
)

// Assistant and webhook errors
var (
	ErrMessageRequired      = errors.New("message is required")
	ErrWebhookNotConfigured = errors.New("webhook url not configured")
	ErrWebhookTimeout       = errors.New("webhook request timed out")
	ErrWebhookFailed        = errors.New("webhook request failed")
	ErrMalformedResponse    = errors.New("invalid response format")
	ErrNothingStaged        = errors.New("no generated description staged")
)
