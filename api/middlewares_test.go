package main

import (
	"context"
	"testing"
	"time"
)

func TestIPLimiter_PerClientBuckets(t *testing.T) {
	t.Parallel()

	l := newIPLimiter(1, 1)
	now := time.Now()
	if !l.allow("10.0.0.1", now) {
		t.Fatalf("first request must pass")
	}
	if l.allow("10.0.0.1", now) {
		t.Fatalf("second request in the same instant must be limited")
	}
	if !l.allow("10.0.0.2", now) {
		t.Fatalf("another client has its own bucket")
	}
	if !l.allow("10.0.0.1", now.Add(time.Second)) {
		t.Fatalf("bucket must refill after a second")
	}
}

func TestIPLimiter_SweepForgetsIdleClients(t *testing.T) {
	t.Parallel()

	l := newIPLimiter(1, 1)
	now := time.Now()
	l.allow("10.0.0.1", now.Add(-5*time.Minute))
	l.allow("10.0.0.2", now)

	l.sweep(now.Add(-3 * time.Minute))

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.clients["10.0.0.1"]; ok {
		t.Fatalf("idle client must be forgotten")
	}
	if _, ok := l.clients["10.0.0.2"]; !ok {
		t.Fatalf("active client must be kept")
	}
}

func TestIPLimiter_RunStopsWithContext(t *testing.T) {
	t.Parallel()

	l := newIPLimiter(1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.run(ctx, time.Millisecond, time.Minute)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("cleanup loop did not stop after cancel")
	}
}
