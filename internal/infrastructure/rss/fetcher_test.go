package rss

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sportswire/internal/config"
	"sportswire/internal/logging"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Football | The Guardian</title>
    <link>https://www.theguardian.com/football</link>
    <description>Latest football news</description>
    <item>
      <title>TeamA wins cup</title>
      <link>https://www.theguardian.com/football/teama-cup</link>
      <description>A late goal secured the trophy.</description>
      <pubDate>Sat, 08 Nov 2025 18:30:00 +0000</pubDate>
    </item>
    <item>
      <title>No link item</title>
      <description>dropped</description>
    </item>
    <item>
      <title>Legacy date format</title>
      <link>https://www.theguardian.com/football/legacy</link>
      <description>uses RFC1123</description>
      <pubDate>Sat, 08 Nov 2025 19:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`

func newTestFetcher(t *testing.T, handler http.HandlerFunc) *Fetcher {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	adapter, err := New(config.SourceConfig{Name: "The Guardian RSS", Kind: "rss", URL: server.URL + "/football/rss"}, logging.New("error"))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return adapter.(*Fetcher)
}

func TestFetchRecent(t *testing.T) {
	t.Parallel()

	fetcher := newTestFetcher(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(feedXML))
	})

	items, err := fetcher.FetchRecent(context.Background())
	if err != nil {
		t.Fatalf("FetchRecent error: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("expected 2 items (link-less entry dropped), got %d", len(items))
	}

	first := items[0]
	if first.NativeID != "https://www.theguardian.com/football/teama-cup" {
		t.Fatalf("unexpected native id: %s", first.NativeID)
	}
	if first.SourceName != "The Guardian RSS" {
		t.Fatalf("unexpected source name: %s", first.SourceName)
	}
	if first.Body != "TeamA wins cup\nA late goal secured the trophy." {
		t.Fatalf("unexpected body: %q", first.Body)
	}

	want := time.Date(2025, time.November, 8, 18, 30, 0, 0, time.UTC)
	if !first.ProducedAt.Equal(want) {
		t.Fatalf("unexpected producedAt: %v", first.ProducedAt)
	}

	if items[1].ProducedAt.IsZero() {
		t.Fatal("RFC1123 pubDate not parsed")
	}
}

func TestFetchRecentMalformedXML(t *testing.T) {
	t.Parallel()

	fetcher := newTestFetcher(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<rss><channel><item>"))
	})

	if _, err := fetcher.FetchRecent(context.Background()); err == nil {
		t.Fatal("expected parse error for malformed XML")
	}
}

func TestFetchRecentHTTPError(t *testing.T) {
	t.Parallel()

	fetcher := newTestFetcher(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	if _, err := fetcher.FetchRecent(context.Background()); err == nil {
		t.Fatal("expected error for non-200 feed response")
	}
}

func TestParsePubDateFallsBackToNow(t *testing.T) {
	t.Parallel()

	before := time.Now().UTC().Add(-time.Second)
	got := parsePubDate("not a date")
	if got.Before(before) {
		t.Fatalf("expected current time fallback, got %v", got)
	}
}
