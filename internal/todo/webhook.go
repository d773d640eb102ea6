package todo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultWebhookTimeout = 30 * time.Second

	maxResponseBytes = 1 << 20
)

type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeNotConfigured
	OutcomeTimeout
	OutcomeFailed
	OutcomeMalformed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeNotConfigured:
		return "not_configured"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeFailed:
		return "failed"
	case OutcomeMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Result is the typed outcome of one webhook call. Err is nil only for
// OutcomeOK.
type Result struct {
	Outcome Outcome
	Status  int
	Err     error
}

func (r Result) OK() bool { return r.Outcome == OutcomeOK }

// Webhook posts JSON to an externally hosted endpoint and waits at most
// Timeout for the whole exchange.
type Webhook struct {
	url     string
	timeout time.Duration
	client  *http.Client
}

func NewWebhook(url string, timeout time.Duration, client *http.Client) *Webhook {
	if timeout <= 0 {
		timeout = DefaultWebhookTimeout
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Webhook{url: strings.TrimSpace(url), timeout: timeout, client: client}
}

func (w *Webhook) Configured() bool { return w != nil && w.url != "" }

// Call sends in and decodes the response body into out. An unconfigured
// webhook fails without any network activity.
func (w *Webhook) Call(ctx context.Context, in, out any) Result {
	if !w.Configured() {
		return Result{Outcome: OutcomeNotConfigured, Err: ErrWebhookNotConfigured}
	}

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	body, err := json.Marshal(in)
	if err != nil {
		return Result{Outcome: OutcomeFailed, Err: fmt.Errorf("%w: encode request: %w", ErrWebhookFailed, err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return Result{Outcome: OutcomeFailed, Err: fmt.Errorf("%w: %w", ErrWebhookFailed, err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return failure(ctx, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return Result{
			Outcome: OutcomeFailed,
			Status:  resp.StatusCode,
			Err:     fmt.Errorf("%w: http status %d", ErrWebhookFailed, resp.StatusCode),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return failure(ctx, resp.StatusCode, err)
	}
	if len(data) > maxResponseBytes {
		return Result{
			Outcome: OutcomeMalformed,
			Status:  resp.StatusCode,
			Err:     fmt.Errorf("%w: response exceeds %d bytes", ErrMalformedResponse, maxResponseBytes),
		}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return Result{
			Outcome: OutcomeMalformed,
			Status:  resp.StatusCode,
			Err:     fmt.Errorf("%w: %w", ErrMalformedResponse, err),
		}
	}
	return Result{Outcome: OutcomeOK, Status: resp.StatusCode}
}

func failure(ctx context.Context, status int, err error) Result {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return Result{Outcome: OutcomeTimeout, Status: status, Err: fmt.Errorf("%w: %w", ErrWebhookTimeout, err)}
	}
	return Result{Outcome: OutcomeFailed, Status: status, Err: fmt.Errorf("%w: %w", ErrWebhookFailed, err)}
}
