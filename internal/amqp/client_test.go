package amqp

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{10, 30 * time.Second},
		{-1, 1 * time.Second},
	}

	for _, tt := range tests {
		result := exponentialBackoff(tt.attempt)
		if result != tt.expected {
			t.Errorf("exponentialBackoff(%d) = %v, expected %v", tt.attempt, result, tt.expected)
		}
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"connection closed", errors.New("connection closed"), true},
		{"unexpected EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"closed network connection", errors.New("use of closed network connection"), true},
		{"other error", errors.New("some other error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, expected %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestClient_CircuitBreaker(t *testing.T) {
	client := &Client{url: "amqp://invalid:5672"}

	if client.isCircuitOpen() {
		t.Error("circuit should start closed")
	}

	for i := 0; i < maxFailures-1; i++ {
		client.recordFailure()
	}
	if client.isCircuitOpen() {
		t.Error("circuit should stay closed below the failure threshold")
	}

	client.recordFailure()
	if !client.isCircuitOpen() {
		t.Error("circuit should open after max failures")
	}

	client.recordSuccess()
	if client.isCircuitOpen() {
		t.Error("circuit should close after a success")
	}
	if client.failureCount != 0 {
		t.Errorf("failure count = %d, expected 0", client.failureCount)
	}
}

func TestClient_CircuitHalfOpensAfterTimeout(t *testing.T) {
	client := &Client{url: "amqp://invalid:5672", state: StateOpen}
	client.lastFailure = time.Now().Add(-openTimeout - time.Second)

	if client.isCircuitOpen() {
		t.Error("circuit should let a trial call through after the open timeout")
	}
	if client.state != StateHalfOpen {
		t.Errorf("state = %d, expected half-open", client.state)
	}

	client.recordFailure()
	if client.state != StateOpen {
		t.Error("a failed trial call should reopen the circuit")
	}
}

func TestClient_PublishPasswordReset(t *testing.T) {
	expires := time.Now().Add(time.Hour)

	t.Run("circuit open", func(t *testing.T) {
		client := &Client{url: "amqp://invalid:5672", state: StateOpen}
		client.lastFailure = time.Now()

		err := client.PublishPasswordReset(context.Background(), "a@example.com", "alice", "http://x/reset/t", expires)
		if !errors.Is(err, ErrCircuitOpen) {
			t.Errorf("expected circuit open error, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		client := &Client{url: "amqp://invalid:5672"}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := client.PublishPasswordReset(ctx, "a@example.com", "alice", "http://x/reset/t", expires)
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestPasswordResetMessage(t *testing.T) {
	expires := time.Date(2024, time.March, 1, 13, 0, 0, 0, time.UTC)
	msg := NewPasswordResetMessage("alice@example.com", "alice", "http://localhost:8080/api/auth/password/reset/abc", expires)

	if msg.Email != "alice@example.com" || msg.Username != "alice" {
		t.Errorf("unexpected message fields: %+v", msg)
	}
	if msg.Timestamp.IsZero() {
		t.Error("timestamp should be set")
	}

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	for _, field := range []string{`"email"`, `"username"`, `"reset_url"`, `"expires_at"`, `"timestamp"`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("JSON %s missing field %s", data, field)
		}
	}

	parsed, err := PasswordResetMessageFromJSON(data)
	if err != nil {
		t.Fatalf("PasswordResetMessageFromJSON() error = %v", err)
	}
	if parsed.ResetURL != msg.ResetURL || !parsed.ExpiresAt.Equal(expires) {
		t.Errorf("parsed = %+v, want %+v", parsed, msg)
	}
}

func TestPasswordResetMessageFromJSON_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed", `{"email":`},
		{"missing email", `{"reset_url":"http://x"}`},
		{"missing url", `{"email":"a@example.com"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := PasswordResetMessageFromJSON([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}
