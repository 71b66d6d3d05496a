package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"prosimcorp.com/alerting/internal/alertmodel"
)

func testAction(url string) alertmodel.WebhookAction {
	return alertmodel.WebhookAction{
		Name: "page-oncall",
		Webhook: alertmodel.WebhookConfig{
			URL:    url,
			Method: http.MethodPost,
			Body:   map[string]any{"text": "{{alert.name}} is {{alert.state}}"},
		},
	}
}

func TestSendSucceedsOnFirstAttempt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := New(2*time.Second, 3, zerolog.Nop())
	result := n.Send(context.Background(), testAction(server.URL), NotificationContext{Name: "high-error-rate", State: "firing"})

	if !result.Success || result.Attempts != 1 {
		t.Fatalf("expected success on first attempt, got %+v", result)
	}
}

func TestSendRetriesOnNonSuccessStatus(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := New(2*time.Second, 3, zerolog.Nop())
	result := n.Send(context.Background(), testAction(server.URL), NotificationContext{Name: "high-error-rate", State: "firing"})

	if !result.Success || result.Attempts != 3 {
		t.Fatalf("expected success on third attempt, got %+v", result)
	}
}

func TestSendFailsAfterExhaustingRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	n := New(2*time.Second, 2, zerolog.Nop())
	result := n.Send(context.Background(), testAction(server.URL), NotificationContext{Name: "high-error-rate", State: "firing"})

	if result.Success || result.Attempts != 2 {
		t.Fatalf("expected failure after exhausting retries, got %+v", result)
	}
}

func TestBackOffDoublesEachAttempt(t *testing.T) {
	b := newExponentialSecondsBackOff()
	first := b.NextBackOff()
	second := b.NextBackOff()
	third := b.NextBackOff()

	if first != time.Second || second != 2*time.Second || third != 4*time.Second {
		t.Fatalf("expected 1s,2s,4s progression, got %v,%v,%v", first, second, third)
	}
}
