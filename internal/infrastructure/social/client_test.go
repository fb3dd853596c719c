package social

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sportswire/internal/config"
	"sportswire/internal/logging"
)

func newTestAdapter(t *testing.T, handles []string, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	adapter, err := New(config.SourceConfig{
		Name:      "Social Feed",
		Kind:      "social",
		APIURL:    server.URL,
		Token:     "feed-token",
		Handles:   handles,
		BatchSize: 3,
	}, logging.New("error"))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return adapter.(*Client)
}

func TestFetchRecent(t *testing.T) {
	t.Parallel()

	taken := time.Date(2025, time.November, 8, 12, 0, 0, 0, time.UTC)

	adapter := newTestAdapter(t, []string{"fabriziorom", "brfootball"}, func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer feed-token" {
			t.Errorf("unexpected auth header: %s", auth)
		}
		if limit := r.URL.Query().Get("limit"); limit != "3" {
			t.Errorf("unexpected limit: %s", limit)
		}

		parts := strings.Split(r.URL.Path, "/")
		handle := parts[2]
		fmt.Fprintf(w, `[{"id":"%s-1","caption":"post from %s","takenAt":"%s"}]`,
			handle, handle, taken.Format(time.RFC3339))
	})

	items, err := adapter.FetchRecent(context.Background())
	if err != nil {
		t.Fatalf("FetchRecent error: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("expected one item per handle, got %d", len(items))
	}

	if items[0].SourceName != "fabriziorom" || items[1].SourceName != "brfootball" {
		t.Fatalf("handle order not preserved: %s, %s", items[0].SourceName, items[1].SourceName)
	}
	if items[0].NativeID != "fabriziorom-1" {
		t.Fatalf("unexpected native id: %s", items[0].NativeID)
	}
	if items[0].Body != "post from fabriziorom" {
		t.Fatalf("unexpected body: %s", items[0].Body)
	}
	if !items[0].ProducedAt.Equal(taken) {
		t.Fatalf("unexpected producedAt: %v", items[0].ProducedAt)
	}
}

func TestFetchRecentAuthRejected(t *testing.T) {
	t.Parallel()

	adapter := newTestAdapter(t, []string{"fabriziorom"}, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := adapter.FetchRecent(context.Background())
	if err == nil {
		t.Fatal("expected error for rejected token")
	}
	if !strings.Contains(err.Error(), "auth rejected") {
		t.Fatalf("auth failure not surfaced: %v", err)
	}
	if !strings.Contains(err.Error(), "@fabriziorom") {
		t.Fatalf("failing handle not named: %v", err)
	}
}

func TestFetchRecentAbortsOnFirstFailure(t *testing.T) {
	t.Parallel()

	var requests int
	adapter := newTestAdapter(t, []string{"fabriziorom", "brfootball"}, func(w http.ResponseWriter, _ *http.Request) {
		requests++
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, err := adapter.FetchRecent(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if requests != 1 {
		t.Fatalf("expected fetch to stop after first failure, made %d requests", requests)
	}
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	if _, err := New(config.SourceConfig{Name: "x", Handles: []string{"a"}}, nil); err == nil {
		t.Fatal("expected error when apiUrl is missing")
	}
	if _, err := New(config.SourceConfig{Name: "x", APIURL: "http://example.invalid"}, nil); err == nil {
		t.Fatal("expected error when handles are missing")
	}
}
