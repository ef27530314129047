package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/fashion-store/internal/queue"
)

func TestSend_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/api/messages" {
			t.Fatalf("path = %s, want /api/messages", r.URL.Path)
		}

		var req sendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req.To != "buyer@example.com" || req.From != "shop@example.com" || req.Subject != "Hello" {
			t.Fatalf("unexpected request: %+v", req)
		}

		w.WriteHeader(http.StatusAccepted)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "shop@example.com")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := client.Send(ctx, queue.Message{ID: "1", To: "buyer@example.com", Subject: "Hello", Body: "<p>hi</p>"})
	if err != nil {
		t.Fatalf("Send error: %v", err)
	}
}

func TestSend_TooManyRequests(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "5")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "shop@example.com")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := client.Send(ctx, queue.Message{To: "buyer@example.com"})
	if err == nil {
		t.Fatalf("expected rate limit error")
	}

	retry, ok := IsRateLimited(err)
	if !ok {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if retry < 5*time.Second {
		t.Fatalf("retryAfter = %v, want at least 5s", retry)
	}
}

func TestSend_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "shop@example.com")

	err := client.Send(context.Background(), queue.Message{To: "buyer@example.com"})
	if err == nil {
		t.Fatalf("expected error for 500")
	}
	if _, ok := IsRateLimited(err); ok {
		t.Fatalf("500 must not be reported as rate limit")
	}
}

func TestSend_NotConfigured(t *testing.T) {
	var client *Client

	if err := client.Send(context.Background(), queue.Message{}); err == nil {
		t.Fatalf("expected error for nil client")
	}
}

func TestLogSender(t *testing.T) {
	s := NewLogSender(zap.NewNop())

	if err := s.Send(context.Background(), queue.Message{To: "a@example.com"}); err != nil {
		t.Fatalf("LogSender.Send error: %v", err)
	}
}
