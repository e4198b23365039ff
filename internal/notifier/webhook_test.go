package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
)

func TestWebhookNotifierNotifySuccess(t *testing.T) {
	t.Parallel()

	var gotBody webhookPayload

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}

		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}

		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	n, err := NewWebhookNotifier(server.URL)
	if err != nil {
		t.Fatalf("NewWebhookNotifier() error = %v", err)
	}

	details := map[string]any{"run_id": "run-1", "valid_rows": 42.0}
	if err := n.Notify(context.Background(), LevelSuccess, "pipeline run completed", details); err != nil {
		t.Fatalf("Notify() unexpected error: %v", err)
	}

	if gotBody.Level != "success" {
		t.Fatalf("payload.level = %q, want %q", gotBody.Level, "success")
	}
	if gotBody.Message != "pipeline run completed" {
		t.Fatalf("payload.message = %q", gotBody.Message)
	}
	if gotBody.Details["run_id"] != "run-1" {
		t.Fatalf("payload.details = %v", gotBody.Details)
	}
}

func TestWebhookNotifierStatusClassification(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		statusCode    int
		wantTransient bool
	}{
		{name: "too many requests is transient", statusCode: http.StatusTooManyRequests, wantTransient: true},
		{name: "bad request is permanent", statusCode: http.StatusBadRequest, wantTransient: false},
		{name: "internal server error is transient", statusCode: http.StatusInternalServerError, wantTransient: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
				_, _ = w.Write([]byte("endpoint rejected notification"))
			}))
			defer server.Close()

			n, err := NewWebhookNotifier(server.URL)
			if err != nil {
				t.Fatalf("NewWebhookNotifier() error = %v", err)
			}

			err = n.Notify(context.Background(), LevelError, "pipeline run failed", nil)
			if err == nil {
				t.Fatal("expected error")
			}

			if got := IsTransient(err); got != tc.wantTransient {
				t.Fatalf("IsTransient() = %v, want %v", got, tc.wantTransient)
			}

			var deliveryErr *DeliveryError
			if !errors.As(err, &deliveryErr) {
				t.Fatalf("expected DeliveryError, got %T", err)
			}
			if deliveryErr.StatusCode != tc.statusCode {
				t.Fatalf("DeliveryError.StatusCode = %d, want %d", deliveryErr.StatusCode, tc.statusCode)
			}
		})
	}
}

func TestWebhookNotifierTimeoutIsTransient(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := resty.New()
	client.SetTimeout(30 * time.Millisecond)

	n, err := NewWebhookNotifierWithClient(server.URL, client)
	if err != nil {
		t.Fatalf("NewWebhookNotifierWithClient() error = %v", err)
	}

	err = n.Notify(context.Background(), LevelWarning, "pipeline run completed with rejected rows", nil)
	if err == nil {
		t.Fatal("expected timeout error")
	}

	if !IsTransient(err) {
		t.Fatalf("IsTransient() = false, want true (err=%v)", err)
	}
}

func TestNewWebhookNotifierValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewWebhookNotifier(""); err == nil {
		t.Fatal("empty endpoint should be rejected")
	}
	if _, err := NewWebhookNotifier("not a url"); err == nil {
		t.Fatal("invalid endpoint should be rejected")
	}
	if _, err := NewWebhookNotifierWithClient("http://example.com/hook", nil); err == nil {
		t.Fatal("nil client should be rejected")
	}
}
