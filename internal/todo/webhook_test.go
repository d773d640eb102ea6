package todo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestWebhookCall_NotConfigured(t *testing.T) {
	t.Parallel()

	var out map[string]any
	res := NewWebhook("  ", 0, nil).Call(context.Background(), map[string]string{"a": "b"}, &out)
	if res.Outcome != OutcomeNotConfigured || !errors.Is(res.Err, ErrWebhookNotConfigured) {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestWebhookCall_OK(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["title"]})
	}))
	defer srv.Close()

	var out map[string]string
	res := NewWebhook(srv.URL, time.Second, srv.Client()).Call(context.Background(), map[string]string{"title": "x"}, &out)
	if !res.OK() {
		t.Fatalf("expected ok, got %+v", res)
	}
	if out["echo"] != "x" {
		t.Fatalf("unexpected body %v", out)
	}
}

func TestWebhookCall_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	var out map[string]any
	res := NewWebhook(srv.URL, 20*time.Millisecond, srv.Client()).Call(context.Background(), struct{}{}, &out)
	if res.Outcome != OutcomeTimeout || !errors.Is(res.Err, ErrWebhookTimeout) {
		t.Fatalf("expected timeout, got %+v", res)
	}
}

func TestWebhookCall_HTTPErrorAndMalformed(t *testing.T) {
	t.Parallel()

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer failing.Close()

	var out map[string]any
	res := NewWebhook(failing.URL, time.Second, failing.Client()).Call(context.Background(), struct{}{}, &out)
	if res.Outcome != OutcomeFailed || res.Status != http.StatusBadGateway {
		t.Fatalf("expected failed 502, got %+v", res)
	}

	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer garbage.Close()

	res = NewWebhook(garbage.URL, time.Second, garbage.Client()).Call(context.Background(), struct{}{}, &out)
	if res.Outcome != OutcomeMalformed || !errors.Is(res.Err, ErrMalformedResponse) {
		t.Fatalf("expected malformed, got %+v", res)
	}
}

func TestWebhookCall_OversizedResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"description":"`))
		_, _ = w.Write(bytes.Repeat([]byte("a"), maxResponseBytes))
		_, _ = w.Write([]byte(`"}`))
	}))
	defer srv.Close()

	var out stepsResponse
	res := NewWebhook(srv.URL, time.Second, srv.Client()).Call(context.Background(), struct{}{}, &out)
	if res.Outcome != OutcomeMalformed || !errors.Is(res.Err, ErrMalformedResponse) {
		t.Fatalf("expected malformed for an oversized body, got %+v", res)
	}
	if out.Description != nil {
		t.Fatalf("nothing must be decoded from an oversized body")
	}
}
