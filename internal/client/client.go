package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/harlequingg/todo-assistant/internal/todo"
)

// Client is a todo.Gateway backed by the api server's row endpoints.
type Client struct {
	log     *slog.Logger
	baseURL string
	http    *http.Client
}

func New(log *slog.Logger, baseURL string, timeout time.Duration) *Client {
	return &Client{
		log:     log,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/v1/healthcheck", nil, nil)
}

// ---- Users

func (c *Client) UserByEmail(ctx context.Context, email string) (todo.User, error) {
	var u todo.User
	err := c.do(ctx, http.MethodGet, "/v1/users?email="+url.QueryEscape(email), nil, &u)
	return u, err
}

func (c *Client) UserByPhone(ctx context.Context, phone string) (todo.User, error) {
	var u todo.User
	err := c.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(phone), nil, &u)
	return u, err
}

func (c *Client) InsertUser(ctx context.Context, in todo.NewUser) (todo.User, error) {
	var u todo.User
	err := c.do(ctx, http.MethodPost, "/v1/users", in, &u)
	return u, err
}

func (c *Client) UpdateUser(ctx context.Context, id string, p todo.UserPatch) (todo.User, error) {
	body := map[string]any{}
	if p.Name != nil {
		body["name"] = *p.Name
	}
	if p.Phone.Set {
		body["phone"] = p.Phone.Value
	}

	var u todo.User
	err := c.do(ctx, http.MethodPatch, "/v1/users/"+url.PathEscape(id), body, &u)
	return u, err
}

// ---- Tasks

func (c *Client) ListTasks(ctx context.Context, email string) ([]todo.Task, error) {
	var out struct {
		Tasks []todo.Task `json:"tasks"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/tasks?email="+url.QueryEscape(email), nil, &out); err != nil {
		return nil, err
	}
	if out.Tasks == nil {
		out.Tasks = []todo.Task{}
	}
	return out.Tasks, nil
}

func (c *Client) InsertTask(ctx context.Context, in todo.NewTask) (todo.Task, error) {
	var t todo.Task
	err := c.do(ctx, http.MethodPost, "/v1/tasks", in, &t)
	return t, err
}

func (c *Client) UpdateTask(ctx context.Context, id string, p todo.TaskPatch) (todo.Task, error) {
	body := map[string]any{}
	if p.Title != nil {
		body["title"] = *p.Title
	}
	if p.Description.Set {
		body["description"] = p.Description.Value
	}
	if p.IsDone != nil {
		body["is_done"] = *p.IsDone
	}

	var t todo.Task
	err := c.do(ctx, http.MethodPatch, "/v1/tasks/"+url.PathEscape(id), body, &t)
	return t, err
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/tasks/"+url.PathEscape(id), nil, nil)
}

var _ todo.Gateway = (*Client)(nil)

// ---- helpers

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("new request %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", todo.ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		c.log.Debug("request failed", "method", method, "path", path, "status", resp.StatusCode)
		return mapStatus(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func mapStatus(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&payload)
	msg := payload.Error
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", todo.ErrBadArguments, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", todo.ErrNotFound, msg)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", todo.ErrAlreadyExists, msg)
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: %s", todo.ErrUnavailable, msg)
	default:
		return fmt.Errorf("server error %d: %s", resp.StatusCode, msg)
	}
}
