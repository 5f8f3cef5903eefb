package metadata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestResolver(url string) *Moralis {
	return NewMoralis(Options{BaseURL: url, APIKey: "test-key", Timeout: time.Second}, zerolog.Nop())
}

func TestResolveSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/token/mainnet/TOKENA/metadata") {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-API-Key") != "test-key" {
			t.Errorf("missing API key header")
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"name": "Foo", "symbol": "FOO"})
	}))
	defer srv.Close()

	meta := newTestResolver(srv.URL).Resolve(context.Background(), "TOKENA")
	if !meta.Resolved() {
		t.Fatal("expected metadata to resolve")
	}
	if meta.Name != "Foo" || meta.Symbol != "FOO" {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
}

func TestResolveNon200IsUnresolved(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	meta := newTestResolver(srv.URL).Resolve(context.Background(), "TOKENA")
	if meta.Resolved() {
		t.Fatalf("non-200 should be unresolved, got %+v", meta)
	}
}

func TestResolveMissingFieldIsUnresolved(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"name": "Foo"})
	}))
	defer srv.Close()

	meta := newTestResolver(srv.URL).Resolve(context.Background(), "TOKENA")
	if meta.Resolved() {
		t.Fatalf("missing symbol should be unresolved, got %+v", meta)
	}
	if meta.Name != "" {
		t.Fatal("partial resolution should collapse to the empty pair")
	}
}

func TestResolveNetworkFailureIsUnresolved(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	meta := newTestResolver(srv.URL).Resolve(context.Background(), "TOKENA")
	if meta.Resolved() {
		t.Fatalf("network failure should be unresolved, got %+v", meta)
	}
}
