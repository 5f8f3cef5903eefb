package alerting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testNotifier(primary, results, errs string) *DiscordNotifier {
	return NewDiscordNotifier(Options{
		WebhookURL:        primary,
		ResultsWebhookURL: results,
		ErrorsWebhookURL:  errs,
		Timeout:           time.Second,
	}, zerolog.Nop())
}

func TestNotifySuccess(t *testing.T) {
	var received webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("解析请求体失败: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := testNotifier(srv.URL, srv.URL, srv.URL)
	if err := n.Notify(context.Background(), "hello", ChannelPrimary); err != nil {
		t.Fatalf("Notify 应成功: %v", err)
	}

	if len(received.Embeds) != 1 {
		t.Fatalf("expected 1 embed, got %d", len(received.Embeds))
	}
	if received.Embeds[0].Description != "hello" {
		t.Fatalf("unexpected description: %q", received.Embeds[0].Description)
	}
	if received.Embeds[0].Color != colorInfo {
		t.Fatalf("expected info color, got %#x", received.Embeds[0].Color)
	}
}

func TestNotifyNon204IsDeliveryFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := testNotifier(srv.URL, srv.URL, srv.URL)
	if err := n.Notify(context.Background(), "hello", ChannelPrimary); err == nil {
		t.Fatal("非 204 响应应报错")
	}
}

func TestNotifyUnconfiguredChannel(t *testing.T) {
	n := testNotifier("", "", "")
	if err := n.Notify(context.Background(), "hello", ChannelResults); err == nil {
		t.Fatal("expected error for unconfigured channel")
	}
}

func TestNotifyExceptionFormatsChain(t *testing.T) {
	var received webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := testNotifier("", "", srv.URL)
	cause := fmt.Errorf("fetch transaction: %w", errors.New("connection refused"))
	n.NotifyException(context.Background(), cause)

	if len(received.Embeds) != 1 {
		t.Fatalf("expected 1 embed, got %d", len(received.Embeds))
	}
	e := received.Embeds[0]
	if e.Title != "Exception Occurred" {
		t.Fatalf("unexpected title: %q", e.Title)
	}
	if e.Color != colorError {
		t.Fatalf("expected error color, got %#x", e.Color)
	}
	if !strings.Contains(e.Description, "connection refused") {
		t.Fatalf("description should carry the cause: %q", e.Description)
	}
	if !strings.HasPrefix(e.Description, "```") {
		t.Fatalf("description should be fenced: %q", e.Description)
	}
}

func TestNotifyExceptionNeverRaises(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	// Failure while reporting a failure must be swallowed.
	n := testNotifier("", "", srv.URL)
	n.NotifyException(context.Background(), errors.New("boom"))

	n = testNotifier("", "", "")
	n.NotifyException(context.Background(), errors.New("boom"))
	n.NotifyException(context.Background(), nil)
}
